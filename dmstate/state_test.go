package dmstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rowState int

const (
	rowCollapsed rowState = iota
	rowLoading
	rowExpanded
)

func (s rowState) String() string {
	switch s {
	case rowCollapsed:
		return "collapsed"
	case rowLoading:
		return "loading"
	case rowExpanded:
		return "expanded"
	default:
		return "unknown"
	}
}

var rowTransitions = []Transition[rowState]{
	{From: rowCollapsed, To: rowLoading, Name: "expand"},
	{From: rowLoading, To: rowExpanded, Name: "loaded"},
	{From: rowExpanded, To: rowCollapsed, Name: "collapse"},
	{From: rowExpanded, To: rowLoading, Name: "reload"},
}

func TestStateMachine(t *testing.T) {
	tests := []struct {
		name    string
		initial rowState
		to      rowState
		wantErr bool
	}{
		{name: "collapsed -> loading", initial: rowCollapsed, to: rowLoading},
		{name: "loading -> expanded", initial: rowLoading, to: rowExpanded},
		{name: "expanded -> collapsed", initial: rowExpanded, to: rowCollapsed},
		{name: "expanded -> loading", initial: rowExpanded, to: rowLoading},
		{name: "collapsed -> expanded skips loading", initial: rowCollapsed, to: rowExpanded, wantErr: true},
		{name: "loading -> collapsed", initial: rowLoading, to: rowCollapsed, wantErr: true},
		{name: "self transition", initial: rowCollapsed, to: rowCollapsed, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.initial, rowTransitions, nil)
			assert.Equal(t, !tt.wantErr, m.CanTransitionTo(tt.to))

			err := m.TransitionTo(tt.to)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.to, m.Current())
				return
			}
			var te *TransitionError[rowState]
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.initial, te.From)
			assert.Equal(t, tt.to, te.To)
			assert.Equal(t, tt.initial, m.Current(), "a rejected transition keeps the state")
		})
	}
}

func TestStateMachineCallback(t *testing.T) {
	var names []string
	m := New(rowCollapsed, rowTransitions, func(from, to rowState, name string) {
		names = append(names, from.String()+">"+to.String()+":"+name)
	})

	m.MustTransitionTo(rowLoading)
	m.MustTransitionTo(rowExpanded)
	_ = m.TransitionTo(rowExpanded)

	assert.Equal(t, []string{"collapsed>loading:expand", "loading>expanded:loaded"}, names)
	assert.True(t, m.Is(rowLoading, rowExpanded))
	assert.False(t, m.Is(rowCollapsed))
}

func TestMustTransitionToPanics(t *testing.T) {
	m := New(rowCollapsed, rowTransitions, nil)
	assert.Panics(t, func() { m.MustTransitionTo(rowExpanded) })
}
