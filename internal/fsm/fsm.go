// Package fsm defines the translation session transition table. The reply
// states form a parallel sub-machine entered via select_reply and left only
// through an explicit dismiss.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle             State = "idle"
	StateRecording        State = "recording"
	StateTranslating      State = "translating"
	StateResult           State = "result"
	StateError            State = "error"
	StateReplyIdle        State = "reply_idle"
	StateReplyRecording   State = "reply_recording"
	StateReplyTranslating State = "reply_translating"
	StateReplyResult      State = "reply_result"
)

const (
	EventStart     Event = "start"
	EventStop      Event = "stop"
	EventStopEmpty Event = "stop_empty"
	EventCancel    Event = "cancel"
	// EventSubmit covers file-sourced clips that bypass capture.
	EventSubmit      Event = "submit"
	EventSucceed     Event = "succeed"
	EventFail        Event = "fail"
	EventReset       Event = "reset"
	EventSelectReply Event = "select_reply"
	// EventDismiss leaves reply mode to idle; EventDismissToResult returns to
	// the primary result when a transcription is still on display.
	EventDismiss         Event = "dismiss"
	EventDismissToResult Event = "dismiss_to_result"
)

// InReply reports whether a state belongs to the reply sub-machine.
func InReply(s State) bool {
	switch s {
	case StateReplyIdle, StateReplyRecording, StateReplyTranslating, StateReplyResult:
		return true
	default:
		return false
	}
}

// Recording reports whether capture hardware is active in this state.
func Recording(s State) bool {
	return s == StateRecording || s == StateReplyRecording
}

// Loading reports whether a gateway request is logically in flight.
func Loading(s State) bool {
	return s == StateTranslating || s == StateReplyTranslating
}

func Transition(current State, event Event) (State, error) {
	if InReply(current) {
		switch event {
		case EventDismiss:
			return StateIdle, nil
		case EventDismissToResult:
			return StateResult, nil
		}
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateRecording, nil
		case EventSubmit:
			return StateTranslating, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateTranslating, nil
		case EventStopEmpty, EventCancel:
			return StateIdle, nil
		case EventFail:
			return StateError, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTranslating:
		switch event {
		case EventSucceed:
			return StateResult, nil
		case EventFail:
			return StateError, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateResult:
		switch event {
		case EventStart:
			return StateRecording, nil
		case EventSubmit:
			return StateTranslating, nil
		case EventSelectReply:
			return StateReplyIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateReplyIdle:
		switch event {
		case EventStart:
			return StateReplyRecording, nil
		case EventSelectReply:
			return StateReplyIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateReplyRecording:
		switch event {
		case EventStop:
			return StateReplyTranslating, nil
		case EventStopEmpty, EventCancel, EventFail:
			return StateReplyIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateReplyTranslating:
		switch event {
		case EventSucceed:
			return StateReplyResult, nil
		case EventFail:
			return StateReplyIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateReplyResult:
		switch event {
		case EventStart:
			return StateReplyRecording, nil
		case EventSelectReply:
			return StateReplyIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
