package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yolodolo42/devagent/internal/step"
)

// EventKind classifies what the agent surfaces while a turn runs.
type EventKind string

const (
	EventPlan        EventKind = "plan"        // reasoning trace
	EventAction      EventKind = "action"      // a tool is about to be invoked
	EventObservation EventKind = "observation" // a tool's result
	EventObserve     EventKind = "observe"     // the model's observe step
	EventOutput      EventKind = "output"      // final answer
	EventError       EventKind = "error"       // the turn ended abnormally
)

// Event is one rendering produced during a turn.
type Event struct {
	Kind    EventKind
	Content string
	Tool    string // action, observation
	Input   string // action: raw tool input
	Raw     string // error: model text that could not be dispatched
	IsError bool   // observation: result describes a failure
}

// ErrRepeatedAction ends a turn whose model keeps issuing the same action.
var ErrRepeatedAction = errors.New("model repeated the same action")

// state is the dispatcher's classification of one step.
type state int

const (
	statePlan state = iota
	stateAction
	stateObserve
	stateOutput
	stateUnknown
	stateParseFailure
	stateToolMissing
	stateRepeated
)

func (s state) String() string {
	switch s {
	case statePlan:
		return "plan"
	case stateAction:
		return "action"
	case stateObserve:
		return "observe"
	case stateOutput:
		return "output"
	case stateUnknown:
		return "unknown"
	case stateParseFailure:
		return "parse_failure"
	case stateToolMissing:
		return "tool_missing"
	case stateRepeated:
		return "repeated_action"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transition is the dispatcher's decision for one model response.
type transition struct {
	state state
	// next is the message fed back to the model; empty when the turn ends.
	next string
	// err is returned from Run when the turn ends for a reason the caller
	// may want to act on.
	err error
}

func (t transition) terminal() bool {
	return t.next == ""
}

// dispatch classifies one raw model response, performs at most one tool
// invocation and decides what the driver sends next.
func (a *Agent) dispatch(ctx context.Context, tn *turn, raw string, emit func(Event)) transition {
	s, err := step.Parse(raw)
	if err != nil {
		emit(Event{Kind: EventError, Content: fmt.Sprintf("Could not parse a step from the model response: %v", err), Raw: raw})
		a.log.log(sessionRecord{Type: recordError, TurnID: tn.id, Content: err.Error()})
		return transition{state: stateParseFailure}
	}

	a.log.log(sessionRecord{Type: recordStep, TurnID: tn.id, Step: string(s.Kind)})

	switch s.Kind {
	case step.KindPlan:
		emit(Event{Kind: EventPlan, Content: s.Content})
		return transition{state: statePlan, next: step.Continue}

	case step.KindObserve:
		emit(Event{Kind: EventObserve, Content: s.Output})
		return transition{state: stateObserve, next: step.Continue}

	case step.KindOutput:
		emit(Event{Kind: EventOutput, Content: s.Content})
		return transition{state: stateOutput}

	case step.KindAction:
		return a.dispatchAction(ctx, tn, s, emit)

	default:
		emit(Event{Kind: EventError, Content: fmt.Sprintf("Unrecognized step %q", s.Kind), Raw: raw})
		a.log.log(sessionRecord{Type: recordError, TurnID: tn.id, Content: "unknown step kind: " + string(s.Kind)})
		return transition{state: stateUnknown}
	}
}

func (a *Agent) dispatchAction(ctx context.Context, tn *turn, s step.Step, emit func(Event)) transition {
	input := strings.TrimSpace(string(s.Input))
	emit(Event{Kind: EventAction, Tool: s.Function, Input: input})

	tool, ok := a.tools.Lookup(s.Function)
	if !ok {
		emit(Event{Kind: EventError, Content: fmt.Sprintf("Tool not available: %s", s.Function)})
		a.log.log(sessionRecord{Type: recordError, TurnID: tn.id, ToolName: s.Function, Content: "tool not available"})
		return transition{state: stateToolMissing}
	}

	if tn.guard.observe(s.Function, s.Input) {
		emit(Event{Kind: EventError, Content: fmt.Sprintf("Stopped: %s was requested %d times in a row with the same input", s.Function, tn.guard.window)})
		a.log.log(sessionRecord{Type: recordError, TurnID: tn.id, ToolName: s.Function, Content: ErrRepeatedAction.Error()})
		return transition{state: stateRepeated, err: ErrRepeatedAction}
	}

	args := RedactJSONArgs(input)
	a.log.log(sessionRecord{Type: recordToolCall, TurnID: tn.id, ToolName: s.Function, Args: args})

	result, isErr := a.tools.Invoke(ctx, tool, s.Input)

	emit(Event{Kind: EventObservation, Tool: s.Function, Content: result, IsError: isErr})
	a.log.log(sessionRecord{Type: recordToolResult, TurnID: tn.id, ToolName: s.Function, Content: result, IsError: isErr})
	a.recordInvocation(ctx, tn, s.Function, args, result, isErr)

	return transition{state: stateAction, next: step.Observation(result)}
}

// recordInvocation writes the audit row. Audit failures do not end the turn.
func (a *Agent) recordInvocation(ctx context.Context, tn *turn, tool, args, result string, isErr bool) {
	if a.audit == nil {
		return
	}
	err := a.audit.Record(context.WithoutCancel(ctx), Invocation{
		SessionID: a.session.ID,
		TurnID:    tn.id,
		Tool:      tool,
		Input:     args,
		Result:    result,
		IsError:   isErr,
	})
	if err != nil {
		a.log.log(sessionRecord{Type: recordError, TurnID: tn.id, ToolName: tool, Content: "audit: " + err.Error()})
	}
}
