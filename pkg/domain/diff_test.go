package domain_test

import (
	"testing"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseState() *domain.State {
	s := domain.NewState("sess-1")
	s.Artifact = "As a user, I want to log in."
	s.PendingQuestion = "What is the maximum code validity window?"
	return s
}

func TestDiff_InitialLoad(t *testing.T) {
	s := baseState()

	diff := domain.Diff(nil, s)

	require.NotNil(t, diff)
	assert.Equal(t, "sess-1", diff.SessionID)
	require.NotNil(t, diff.Artifact)
	assert.Equal(t, s.Artifact, *diff.Artifact)
	require.NotNil(t, diff.PendingQuestion)
	assert.False(t, diff.TurnsReset)
}

func TestDiff_NoChange(t *testing.T) {
	s := baseState()
	assert.Nil(t, domain.Diff(s, s.Snapshot()))
}

func TestDiff_AppendedTurn(t *testing.T) {
	oldState := baseState()
	newState := oldState.Snapshot()
	newState.Turns = append(newState.Turns, domain.Turn{
		Kind:     domain.TurnFollowUp,
		Question: oldState.PendingQuestion,
		Answer:   "5 minutes",
	})
	newState.PendingQuestion = "Should codes be single use?"

	diff := domain.Diff(oldState, newState)

	require.NotNil(t, diff)
	assert.Nil(t, diff.Artifact, "artifact did not change")
	require.Len(t, diff.AppendedTurns, 1)
	assert.Equal(t, "5 minutes", diff.AppendedTurns[0].Answer)
	assert.Equal(t, "Should codes be single use?", *diff.PendingQuestion)
	assert.False(t, diff.TurnsReset)
}

func TestDiff_TurnsReset(t *testing.T) {
	oldState := baseState()
	oldState.Turns = []domain.Turn{{Kind: domain.TurnFollowUp, Question: "Q?", Answer: "A"}}
	newState := oldState.Snapshot()
	newState.Turns = []domain.Turn{}
	newState.Artifact = "Improved story"
	newState.Revision = 1

	diff := domain.Diff(oldState, newState)

	require.NotNil(t, diff)
	assert.True(t, diff.TurnsReset)
	assert.Empty(t, diff.AppendedTurns)
	assert.Equal(t, 1, *diff.Revision)
}

func TestState_SnapshotIsDeep(t *testing.T) {
	s := baseState()
	s.Turns = append(s.Turns, domain.Turn{Question: "Q?", Answer: "A"})

	cp := s.Snapshot()
	cp.Turns[0].Answer = "changed"
	cp.Turns = append(cp.Turns, domain.Turn{Question: "Q2?"})

	assert.Equal(t, "A", s.Turns[0].Answer)
	assert.Len(t, s.Turns, 1)
}

func TestState_Predicates(t *testing.T) {
	empty := domain.NewState("x")
	assert.False(t, empty.HasArtifact())
	assert.False(t, empty.HasPendingQuestion())

	// A question without an artifact does not count as pending.
	empty.PendingQuestion = "Orphan?"
	assert.False(t, empty.HasPendingQuestion())

	s := baseState()
	assert.True(t, s.HasArtifact())
	assert.True(t, s.HasPendingQuestion())

	_, ok := s.LastTurn()
	assert.False(t, ok)
}
