package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storyloom/pkg/domain"
)

func storyState() *domain.State {
	s := domain.NewState("s1")
	s.Artifact = "As a user, I want to log in."
	s.PendingQuestion = "How long is a code valid?"
	return s
}

func TestBlocks_Initial(t *testing.T) {
	s := storyState()
	s.Turns = []domain.Turn{{Kind: domain.TurnFollowUp, Question: "Q?", Answer: "A", Acknowledgement: "Ok."}}

	blocks := Blocks(nil, s)

	assert.Equal(t, []Block{
		{Kind: BlockStory, Text: s.Artifact},
		{Kind: BlockQuestion, Text: s.PendingQuestion},
	}, blocks)
}

func TestBlocks_Advance(t *testing.T) {
	prev := storyState()
	next := prev.Snapshot()
	next.Turns = append(next.Turns, domain.Turn{Kind: domain.TurnFollowUp, Question: prev.PendingQuestion, Answer: "5 minutes", Acknowledgement: "Noted."})

	// The model may repeat itself; the question is shown again anyway.
	blocks := Blocks(prev, next)

	assert.Equal(t, []Block{
		{Kind: BlockAcknowledgement, Text: "Noted."},
		{Kind: BlockQuestion, Text: prev.PendingQuestion},
	}, blocks)
}

func TestBlocks_Ask(t *testing.T) {
	prev := storyState()
	next := prev.Snapshot()
	next.Turns = append(next.Turns, domain.Turn{Kind: domain.TurnUserQuestion, Question: "Single use?", Answer: "Yes."})

	assert.Equal(t, []Block{{Kind: BlockReply, Text: "Yes."}}, Blocks(prev, next))
	assert.Nil(t, Blocks(next, next.Snapshot()))
}

func TestHistory(t *testing.T) {
	s := storyState()
	s.Turns = []domain.Turn{
		{Kind: domain.TurnFollowUp, Question: "Q1?", Answer: "A1", Acknowledgement: "Ack."},
		{Kind: domain.TurnUserQuestion, Question: "Mine?", Answer: "Reply."},
	}

	blocks := History(s)

	require.Len(t, blocks, 5)
	assert.Equal(t, Block{Kind: BlockQuestion, Text: "Q1?"}, blocks[0])
	assert.Equal(t, Block{Kind: BlockUser, Text: "A1"}, blocks[1])
	assert.Equal(t, Block{Kind: BlockAcknowledgement, Text: "Ack."}, blocks[2])
	assert.Equal(t, Block{Kind: BlockUser, Text: "Mine?"}, blocks[3])
	assert.Equal(t, Block{Kind: BlockReply, Text: "Reply."}, blocks[4])
}

func TestRespond(t *testing.T) {
	s := storyState()
	resp := Respond(nil, s)
	assert.Same(t, s, resp.State)
	assert.Len(t, resp.Blocks, 2)
}
