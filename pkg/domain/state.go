package domain

import (
	"strings"
	"time"
)

// TurnKind distinguishes who asked the question recorded in a Turn.
type TurnKind string

const (
	TurnFollowUp     TurnKind = "follow_up"     // Service asked, user answered, service acknowledged
	TurnUserQuestion TurnKind = "user_question" // User asked, service answered
)

// Requirement is the input of a generation. Immutable once submitted.
type Requirement struct {
	// Text is the raw requirement description, typed or extracted from a file.
	Text string `json:"text"`

	// Context is optional free-text domain context.
	Context string `json:"context,omitempty"`

	// Source names the uploaded file the text was extracted from, if any.
	Source string `json:"source,omitempty"`
}

// Turn is one entry of the refinement history. Turns are appended, never edited.
type Turn struct {
	Kind            TurnKind  `json:"kind"`
	Question        string    `json:"question"`
	Answer          string    `json:"answer"`
	Acknowledgement string    `json:"acknowledgement,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// State is the ConversationState of a single session.
type State struct {
	// SessionID identifies the owning session.
	SessionID string `json:"session_id"`

	// Requirement is what the current Artifact was generated from.
	Requirement Requirement `json:"requirement"`

	// Artifact is the generated story text currently considered authoritative.
	Artifact string `json:"artifact"`

	// PendingQuestion is the outstanding clarification question. Empty means none.
	// It is only ever set while Artifact is set.
	PendingQuestion string `json:"pending_question,omitempty"`

	// Turns is the ordered refinement history.
	Turns []Turn `json:"turns"`

	// Revision counts how many times the Artifact was replaced after generation.
	Revision int `json:"revision"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates an empty conversation for a session.
func NewState(sessionID string) *State {
	now := time.Now().UTC()
	return &State{
		SessionID: sessionID,
		Turns:     []Turn{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasArtifact reports whether a story has been generated.
func (s *State) HasArtifact() bool {
	return s != nil && strings.TrimSpace(s.Artifact) != ""
}

// HasPendingQuestion reports whether a clarification question awaits an answer.
func (s *State) HasPendingQuestion() bool {
	return s.HasArtifact() && strings.TrimSpace(s.PendingQuestion) != ""
}

// Snapshot returns a deep copy of the state.
// Transitions work on snapshots so the caller's value is never mutated.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Turns = make([]Turn, len(s.Turns))
	copy(cp.Turns, s.Turns)
	return &cp
}

// LastTurn returns the most recent turn, if any.
func (s *State) LastTurn() (Turn, bool) {
	if s == nil || len(s.Turns) == 0 {
		return Turn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}
