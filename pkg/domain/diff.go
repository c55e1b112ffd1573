package domain

// StateDiff represents the changes between two conversation states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Artifact is set when the story text changed.
	Artifact *string `json:"artifact,omitempty"`

	// PendingQuestion is set when the outstanding question changed (empty string means cleared).
	PendingQuestion *string `json:"pending_question,omitempty"`

	// Revision is set when the artifact revision counter moved.
	Revision *int `json:"revision,omitempty"`

	// AppendedTurns contains turns added since the old state.
	AppendedTurns []Turn `json:"appended_turns,omitempty"`

	// TurnsReset is true when the history was cleared (improve or a new requirement).
	TurnsReset bool `json:"turns_reset,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing observable changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}
	changed := false

	if oldState == nil || oldState.Artifact != newState.Artifact {
		diff.Artifact = &newState.Artifact
		changed = true
	}
	if oldState == nil || oldState.PendingQuestion != newState.PendingQuestion {
		diff.PendingQuestion = &newState.PendingQuestion
		changed = true
	}
	if oldState == nil || oldState.Revision != newState.Revision {
		diff.Revision = &newState.Revision
		changed = true
	}

	// Turns are append-only, so a shorter or diverging history means it was reset.
	oldTurns := 0
	if oldState != nil {
		oldTurns = len(oldState.Turns)
	}
	if oldTurns > len(newState.Turns) || !samePrefix(oldState, newState, oldTurns) {
		diff.TurnsReset = true
		oldTurns = 0
		changed = true
	}
	if len(newState.Turns) > oldTurns {
		diff.AppendedTurns = append([]Turn(nil), newState.Turns[oldTurns:]...)
		changed = true
	}

	if !changed {
		return nil
	}
	return diff
}

func samePrefix(oldState, newState *State, n int) bool {
	if oldState == nil || n > len(newState.Turns) {
		return n == 0
	}
	for i := 0; i < n; i++ {
		a, b := oldState.Turns[i], newState.Turns[i]
		if a.Kind != b.Kind || a.Question != b.Question || a.Answer != b.Answer || a.Acknowledgement != b.Acknowledgement {
			return false
		}
	}
	return true
}
