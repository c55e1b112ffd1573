package completion

import (
	"context"
	"errors"
	"strings"

	genai "google.golang.org/genai"

	"github.com/aretw0/storyloom/pkg/domain"
)

// Gemini calls the Google Gemini API.
type Gemini struct {
	cli   *genai.Client
	model string
}

// NewGemini creates a client for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{cli: cli, model: model}, nil
}

// Complete implements ports.CompletionClient. Assistant messages use the "model" role.
func (g *Gemini) Complete(ctx context.Context, messages []domain.Message, temperature float64) (string, error) {
	system, contents := geminiContents(messages)

	resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature:       ptr(float32(temperature)),
		SystemInstruction: system,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty candidates")
	}

	var out strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	return out.String(), nil
}

// geminiContents splits system instructions from the conversation. Consecutive messages of
// the same role share one content and a conversation starting with the model gets a user opener.
func geminiContents(messages []domain.Message) (*genai.Content, []*genai.Content) {
	var (
		system   *genai.Content
		contents []*genai.Content
	)
	for _, m := range messages {
		part := &genai.Part{Text: m.Content}
		if m.Role == domain.RoleSystem {
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, part)
			continue
		}
		role := genai.RoleUser
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		if len(contents) == 0 && role == genai.RoleModel {
			contents = append(contents, genai.NewContentFromText("Here is the current user story.", genai.RoleUser))
		}
		if last := len(contents) - 1; last >= 0 && contents[last].Role == role {
			contents[last].Parts = append(contents[last].Parts, part)
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{part}})
	}
	return system, contents
}

func ptr[T any](v T) *T { return &v }
