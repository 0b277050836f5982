package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateRecording, next)

	next, err = Transition(next, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateTranslating, next)

	next, err = Transition(next, EventSucceed)
	require.NoError(t, err)
	require.Equal(t, StateResult, next)
}

func TestTransitionReplyHappyPath(t *testing.T) {
	next, err := Transition(StateResult, EventSelectReply)
	require.NoError(t, err)
	require.Equal(t, StateReplyIdle, next)

	next, err = Transition(next, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateReplyRecording, next)

	next, err = Transition(next, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateReplyTranslating, next)

	next, err = Transition(next, EventSucceed)
	require.NoError(t, err)
	require.Equal(t, StateReplyResult, next)
}

func TestTransitionEmptyClipReturnsToIdleStates(t *testing.T) {
	next, err := Transition(StateRecording, EventStopEmpty)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)

	next, err = Transition(StateReplyRecording, EventStopEmpty)
	require.NoError(t, err)
	require.Equal(t, StateReplyIdle, next)
}

func TestTransitionReplyFailureReturnsToReplyIdle(t *testing.T) {
	next, err := Transition(StateReplyTranslating, EventFail)
	require.NoError(t, err)
	require.Equal(t, StateReplyIdle, next)
}

func TestTransitionCaptureFailure(t *testing.T) {
	next, err := Transition(StateRecording, EventFail)
	require.NoError(t, err)
	require.Equal(t, StateError, next)

	next, err = Transition(StateReplyRecording, EventFail)
	require.NoError(t, err)
	require.Equal(t, StateReplyIdle, next)
}

func TestTransitionDismissFromEveryReplyState(t *testing.T) {
	replyStates := []State{StateReplyIdle, StateReplyRecording, StateReplyTranslating, StateReplyResult}
	for _, state := range replyStates {
		next, err := Transition(state, EventDismiss)
		require.NoError(t, err)
		require.Equal(t, StateIdle, next)

		next, err = Transition(state, EventDismissToResult)
		require.NoError(t, err)
		require.Equal(t, StateResult, next)
	}
}

func TestTransitionDismissOutsideReplyIsInvalid(t *testing.T) {
	for _, state := range []State{StateIdle, StateRecording, StateTranslating, StateResult, StateError} {
		_, err := Transition(state, EventDismiss)
		require.Error(t, err)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle stop invalid", state: StateIdle, event: EventStop, want: StateIdle, wantErr: true},
		{name: "idle succeed invalid", state: StateIdle, event: EventSucceed, want: StateIdle, wantErr: true},
		{name: "idle submit valid", state: StateIdle, event: EventSubmit, want: StateTranslating},
		{name: "recording start invalid", state: StateRecording, event: EventStart, want: StateRecording, wantErr: true},
		{name: "translating start invalid", state: StateTranslating, event: EventStart, want: StateTranslating, wantErr: true},
		{name: "translating stop invalid", state: StateTranslating, event: EventStop, want: StateTranslating, wantErr: true},
		{name: "result start valid", state: StateResult, event: EventStart, want: StateRecording},
		{name: "result submit valid", state: StateResult, event: EventSubmit, want: StateTranslating},
		{name: "result fail invalid", state: StateResult, event: EventFail, want: StateResult, wantErr: true},
		{name: "error reset valid", state: StateError, event: EventReset, want: StateIdle},
		{name: "error start invalid", state: StateError, event: EventStart, want: StateError, wantErr: true},
		{name: "reply translating start invalid", state: StateReplyTranslating, event: EventStart, want: StateReplyTranslating, wantErr: true},
		{name: "reply result start valid", state: StateReplyResult, event: EventStart, want: StateReplyRecording},
		{name: "reply result select valid", state: StateReplyResult, event: EventSelectReply, want: StateReplyIdle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}

func TestStatePredicates(t *testing.T) {
	require.True(t, Recording(StateRecording))
	require.True(t, Recording(StateReplyRecording))
	require.False(t, Recording(StateTranslating))

	require.True(t, Loading(StateTranslating))
	require.True(t, Loading(StateReplyTranslating))
	require.False(t, Loading(StateResult))

	require.True(t, InReply(StateReplyIdle))
	require.False(t, InReply(StateError))
}
