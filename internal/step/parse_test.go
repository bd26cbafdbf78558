package step

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Strict(t *testing.T) {
	t.Run("plan step", func(t *testing.T) {
		s, err := Parse(`{"step": "plan", "content": "Create the client folder first."}`)
		require.NoError(t, err)
		assert.Equal(t, KindPlan, s.Kind)
		assert.Equal(t, "Create the client folder first.", s.Content)
	})

	t.Run("action step keeps input verbatim", func(t *testing.T) {
		s, err := Parse(`{"step":"action","function":"write_file","input":{"path":"a.txt","content":"hi"}}`)
		require.NoError(t, err)
		assert.Equal(t, KindAction, s.Kind)
		assert.Equal(t, "write_file", s.Function)
		assert.JSONEq(t, `{"path":"a.txt","content":"hi"}`, string(s.Input))
	})

	t.Run("action step with string input", func(t *testing.T) {
		s, err := Parse(`{"step":"action","function":"run_command","input":"ls -la"}`)
		require.NoError(t, err)
		var cmd string
		require.NoError(t, json.Unmarshal(s.Input, &cmd))
		assert.Equal(t, "ls -la", cmd)
	})

	t.Run("observe step", func(t *testing.T) {
		s, err := Parse(`{"step":"observe","output":"file created"}`)
		require.NoError(t, err)
		assert.Equal(t, KindObserve, s.Kind)
		assert.Equal(t, "file created", s.Output)
	})

	t.Run("surrounding whitespace is ignored", func(t *testing.T) {
		s, err := Parse("\n\n  {\"step\":\"output\",\"content\":\"done\"}  \n")
		require.NoError(t, err)
		assert.Equal(t, KindOutput, s.Kind)
	})

	t.Run("unrecognised kind parses as unknown", func(t *testing.T) {
		s, err := Parse(`{"step":"reflect","content":"hmm"}`)
		require.NoError(t, err)
		assert.False(t, s.Kind.Known())
		assert.Equal(t, Kind("reflect"), s.Kind)
	})

	t.Run("missing kind parses as unknown", func(t *testing.T) {
		s, err := Parse(`{"content":"no kind here"}`)
		require.NoError(t, err)
		assert.False(t, s.Kind.Known())
	})
}

func TestParse_Recovery(t *testing.T) {
	t.Run("object wrapped in commentary", func(t *testing.T) {
		raw := "Sure! Here is my next step:\n{\"step\": \"plan\", \"content\": \"Install express.\"}\nLet me know."
		s, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, KindPlan, s.Kind)
		assert.Equal(t, "Install express.", s.Content)
	})

	t.Run("object inside a markdown fence", func(t *testing.T) {
		raw := "```json\n{\"step\":\"output\",\"content\":\"All set.\"}\n```"
		s, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, KindOutput, s.Kind)
		assert.Equal(t, "All set.", s.Content)
	})

	t.Run("nested input object with commentary", func(t *testing.T) {
		raw := `Writing the file now: {"step":"action","function":"write_file","input":{"path":"src/App.js","content":"export default App;"}} done`
		s, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "write_file", s.Function)
		assert.JSONEq(t, `{"path":"src/App.js","content":"export default App;"}`, string(s.Input))
	})

	t.Run("braces inside string values", func(t *testing.T) {
		raw := `ok {"step":"action","function":"write_file","input":{"path":"a.js","content":"function f() { return {}; }"}}`
		s, err := Parse(raw)
		require.NoError(t, err)
		var in map[string]string
		require.NoError(t, json.Unmarshal(s.Input, &in))
		assert.Equal(t, "function f() { return {}; }", in["content"])
	})

	t.Run("stray brace before the object", func(t *testing.T) {
		raw := `Use {curly} braces. {"step":"plan","content":"x"}`
		s, err := Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, KindPlan, s.Kind)
	})
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrNoStep},
		{"whitespace", "   \n\t", ErrNoStep},
		{"plain prose", "I think we should start with React.", ErrNoStep},
		{"unterminated object", `{"step":"plan","content":"oops"`, ErrNoStep},
		{"single quotes", `{'step': 'plan'}`, ErrNoStep},
		{"array only", `["plan"]`, ErrNoStep},
		{"two objects", `{"step":"plan","content":"a"} {"step":"output","content":"b"}`, ErrMultipleSteps},
		{"two objects in prose", "first {\"step\":\"plan\",\"content\":\"a\"}\nthen {\"step\":\"output\",\"content\":\"b\"}", ErrMultipleSteps},
		{"wrong field type", `{"step":"plan","content":42}`, ErrNoStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestObservation(t *testing.T) {
	t.Run("wraps result as observe step", func(t *testing.T) {
		got := Observation("hello \"world\"\nline2")
		assert.JSONEq(t, `{"step":"observe","output":"hello \"world\"\nline2"}`, got)

		s, err := Parse(got)
		require.NoError(t, err)
		assert.Equal(t, KindObserve, s.Kind)
		assert.Equal(t, "hello \"world\"\nline2", s.Output)
	})

	t.Run("empty result still parses", func(t *testing.T) {
		s, err := Parse(Observation(""))
		require.NoError(t, err)
		assert.Equal(t, KindObserve, s.Kind)
		assert.Empty(t, s.Output)
	})
}

func TestKind_Known(t *testing.T) {
	for _, k := range []Kind{KindPlan, KindAction, KindObserve, KindOutput} {
		assert.True(t, k.Known(), string(k))
	}
	assert.False(t, Kind("").Known())
	assert.False(t, Kind("final").Known())
}
