package runner

import (
	"strings"

	"github.com/aretw0/storyloom/pkg/domain"
)

// BlockKind tells a handler how to present a Block.
type BlockKind string

const (
	BlockStory           BlockKind = "story"           // The generated or improved user stories (markdown)
	BlockAcknowledgement BlockKind = "acknowledgement" // Reply to an answered clarification question
	BlockReply           BlockKind = "reply"           // Reply to a question the user asked
	BlockQuestion        BlockKind = "question"        // The pending clarification question
	BlockUser            BlockKind = "user"            // Something the user said, replayed from history
	BlockSystem          BlockKind = "system"          // Meta-message, not part of the dialogue
)

// Block is one displayable piece of a conversation.
type Block struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// RichResponse combines state and display blocks for rich clients (Web, MCP, etc).
type RichResponse struct {
	State  *domain.State `json:"state"`
	Blocks []Block       `json:"blocks,omitempty"`
}

// Respond pairs next with the blocks describing what changed since prev.
func Respond(prev, next *domain.State) *RichResponse {
	return &RichResponse{State: next, Blocks: Blocks(prev, next)}
}

// Blocks returns what a client must show to move from prev to next.
// A nil prev yields the story and the question, without the history (see History).
func Blocks(prev, next *domain.State) []Block {
	diff := domain.Diff(prev, next)
	if diff == nil {
		return nil
	}

	var blocks []Block
	if diff.Artifact != nil && strings.TrimSpace(*diff.Artifact) != "" {
		blocks = append(blocks, Block{Kind: BlockStory, Text: *diff.Artifact})
	}
	answered := false
	if prev != nil {
		for _, t := range diff.AppendedTurns {
			blocks = append(blocks, reply(t)...)
			answered = answered || t.Kind == domain.TurnFollowUp
		}
	}
	// The question is repeated after every answer, even when the model asks the same one again.
	if q := strings.TrimSpace(next.PendingQuestion); q != "" && (diff.PendingQuestion != nil || prev == nil || answered) {
		blocks = append(blocks, Block{Kind: BlockQuestion, Text: q})
	}
	return blocks
}

// History replays the whole dialogue of state, user lines included.
func History(state *domain.State) []Block {
	if state == nil {
		return nil
	}
	var blocks []Block
	for _, t := range state.Turns {
		switch t.Kind {
		case domain.TurnUserQuestion:
			blocks = append(blocks, Block{Kind: BlockUser, Text: t.Question})
		default:
			blocks = append(blocks,
				Block{Kind: BlockQuestion, Text: t.Question},
				Block{Kind: BlockUser, Text: t.Answer},
			)
		}
		blocks = append(blocks, reply(t)...)
	}
	return blocks
}

func reply(t domain.Turn) []Block {
	switch t.Kind {
	case domain.TurnUserQuestion:
		return []Block{{Kind: BlockReply, Text: t.Answer}}
	default:
		if strings.TrimSpace(t.Acknowledgement) == "" {
			return nil
		}
		return []Block{{Kind: BlockAcknowledgement, Text: t.Acknowledgement}}
	}
}
