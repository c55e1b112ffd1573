package completion

import (
	"testing"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	genai "google.golang.org/genai"
)

func texts(c *genai.Content) []string {
	var out []string
	for _, p := range c.Parts {
		out = append(out, p.Text)
	}
	return out
}

func TestGeminiContents_MergesRolesAndOpensWithUser(t *testing.T) {
	system, contents := geminiContents([]domain.Message{
		{Role: domain.RoleSystem, Content: "You write user stories."},
		{Role: domain.RoleAssistant, Content: "As a clerk, I want invoices."},
		{Role: domain.RoleAssistant, Content: "Which format?"},
		{Role: domain.RoleUser, Content: "PDF"},
		{Role: domain.RoleUser, Content: "Improve the story."},
		{Role: domain.RoleSystem, Content: "Reply in English."},
	})

	require.NotNil(t, system)
	assert.Equal(t, []string{"You write user stories.", "Reply in English."}, texts(system))

	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, []string{"As a clerk, I want invoices.", "Which format?"}, texts(contents[1]))
	assert.Equal(t, genai.RoleUser, contents[2].Role)
	assert.Equal(t, []string{"PDF", "Improve the story."}, texts(contents[2]))
}

func TestGeminiContents_UserFirstNeedsNoOpener(t *testing.T) {
	system, contents := geminiContents([]domain.Message{
		{Role: domain.RoleUser, Content: "Users export invoices"},
	})

	assert.Nil(t, system)
	require.Len(t, contents, 1)
	assert.Equal(t, []string{"Users export invoices"}, texts(contents[0]))
}
