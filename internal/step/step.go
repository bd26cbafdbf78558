package step

import (
	"encoding/json"
)

// Kind identifies the role of a step in the protocol.
type Kind string

const (
	KindPlan    Kind = "plan"
	KindAction  Kind = "action"
	KindObserve Kind = "observe"
	KindOutput  Kind = "output"
)

// Continue is the synthetic message sent back after a plan or observe step.
const Continue = "continue"

// Known reports whether k is one of the four protocol kinds.
func (k Kind) Known() bool {
	switch k {
	case KindPlan, KindAction, KindObserve, KindOutput:
		return true
	default:
		return false
	}
}

// Step is one unit of the structured protocol exchanged with the model.
// Which fields are meaningful depends on Kind:
//   - plan, output: Content
//   - action:       Function, Input
//   - observe:      Output
type Step struct {
	Kind     Kind            `json:"step"`
	Content  string          `json:"content,omitempty"`
	Function string          `json:"function,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
	Output   string          `json:"output,omitempty"`
}

// Observation encodes a tool result in the same vocabulary the model emits,
// so the model sees its own action's result as an observe step.
func Observation(result string) string {
	b, err := json.Marshal(Step{Kind: KindObserve, Output: result})
	if err != nil {
		// A struct of strings always marshals.
		return `{"step":"observe","output":""}`
	}
	return string(b)
}
