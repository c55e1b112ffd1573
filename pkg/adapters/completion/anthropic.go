package completion

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/aretw0/storyloom/pkg/domain"
)

const anthropicMaxTokens = 4096

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropic creates a client. An empty baseURL targets api.anthropic.com.
func NewAnthropic(apiKey, model, baseURL string) *Anthropic {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: anthropic.Model(model)}
}

// Complete implements ports.CompletionClient.
// System messages go to the system prompt; consecutive messages of the same role are merged
// and a conversation starting with the assistant gets a short user opener, as the API expects.
func (a *Anthropic) Complete(ctx context.Context, messages []domain.Message, temperature float64) (string, error) {
	var (
		system []anthropic.TextBlockParam
		turns  []anthropic.MessageParam
		role   domain.Role
		blocks []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(blocks) == 0 {
			return
		}
		if role == domain.RoleAssistant {
			turns = append(turns, anthropic.NewAssistantMessage(blocks...))
		} else {
			turns = append(turns, anthropic.NewUserMessage(blocks...))
		}
		blocks = nil
	}

	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
			continue
		}
		r := m.Role
		if r != domain.RoleAssistant {
			r = domain.RoleUser
		}
		if len(turns) == 0 && len(blocks) == 0 && r == domain.RoleAssistant {
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock("Here is the current user story.")))
		}
		if r != role {
			flush()
			role = r
		}
		blocks = append(blocks, anthropic.NewTextBlock(m.Content))
	}
	flush()

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   anthropicMaxTokens,
		System:      system,
		Messages:    turns,
		Temperature: anthropic.Float(temperature),
	})
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(variant.Text)
		}
	}
	return out.String(), nil
}
