package step

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrNoStep means the text held no parseable JSON object.
	ErrNoStep = errors.New("no step object found in response")
	// ErrMultipleSteps means the text held more than one candidate object.
	ErrMultipleSteps = errors.New("response contains more than one step object")
)

// Parse extracts exactly one Step from raw model output.
//
// The whole text is first parsed strictly. If that fails, the first '{' is
// paired with each following '}' in turn and the shortest span that parses
// as a JSON object is taken. Any further parseable object after it makes the
// response ambiguous and it is rejected with ErrMultipleSteps.
//
// An object whose "step" value is missing or unrecognised still parses; the
// caller decides what to do with an unknown Kind.
func Parse(raw string) (Step, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Step{}, ErrNoStep
	}

	if s, ok := decodeObject(text); ok {
		return s, nil
	}

	s, end, ok := scanObject(text)
	if !ok {
		return Step{}, ErrNoStep
	}
	if _, _, again := scanObject(text[end:]); again {
		return Step{}, ErrMultipleSteps
	}
	return s, nil
}

// scanObject finds the earliest '{' ... '}' span in text that decodes as a
// single JSON object. It returns the step and the offset just past the span.
func scanObject(text string) (Step, int, bool) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		for end := start + 1; end < len(text); end++ {
			if text[end] != '}' {
				continue
			}
			if s, ok := decodeObject(text[start : end+1]); ok {
				return s, end + 1, true
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return Step{}, 0, false
}

// decodeObject strictly decodes candidate as one JSON object. Trailing
// data and type mismatches on known fields both count as failure.
func decodeObject(candidate string) (Step, bool) {
	if candidate == "" || candidate[0] != '{' {
		return Step{}, false
	}
	var s Step
	if err := json.Unmarshal([]byte(candidate), &s); err != nil {
		return Step{}, false
	}
	return s, true
}
