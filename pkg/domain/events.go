package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCompletionCall   EventType = "completion_call"
	EventCompletionReturn EventType = "completion_return"
	EventTurnAppended     EventType = "turn_appended"
	EventArtifactReplaced EventType = "artifact_replaced"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// CompletionEvent describes one call to the completion service.
type CompletionEvent struct {
	EventBase
	Operation   string        `json:"operation"`
	Messages    int           `json:"messages"`
	Temperature float64       `json:"temperature"`
	Duration    time.Duration `json:"duration,omitempty"`
	IsError     bool          `json:"is_error,omitempty"`
}

// TurnEvent is emitted after a turn is appended to a conversation.
type TurnEvent struct {
	EventBase
	Turn  Turn `json:"turn"`
	Index int  `json:"index"`
}

// ArtifactEvent is emitted when a story is generated or replaced.
type ArtifactEvent struct {
	EventBase
	Revision int `json:"revision"`
	Length   int `json:"length"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnCompletionCall   func(context.Context, *CompletionEvent)
	OnCompletionReturn func(context.Context, *CompletionEvent)
	OnTurnAppended     func(context.Context, *TurnEvent)
	OnArtifactReplaced func(context.Context, *ArtifactEvent)
}
