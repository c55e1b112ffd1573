package completion

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/storyloom/pkg/domain"
)

var scriptedQuestions = []string{
	"Which user roles are involved?",
	"What should happen when the operation fails?",
	"Are there limits on how often this can be done?",
	"How should the outcome be confirmed to the user?",
	"Which data must be kept for auditing?",
}

// Scripted is an offline client. It replays queued responses first and then
// fabricates well-formed answers from the prompt, so every flow can run without a network.
type Scripted struct {
	mu     sync.Mutex
	queue  []string
	calls  int
	asked  int
	prompt []domain.Message
}

// NewScripted creates a scripted client that returns responses in order before fabricating.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{queue: responses}
}

// Calls returns the number of Complete calls made so far.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// LastPrompt returns the messages of the most recent call.
func (s *Scripted) LastPrompt() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// Complete implements ports.CompletionClient.
func (s *Scripted) Complete(ctx context.Context, messages []domain.Message, _ float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompt = messages

	if len(s.queue) > 0 {
		r := s.queue[0]
		s.queue = s.queue[1:]
		return r, nil
	}

	var last string
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	tagged := strings.Contains(last, "<question>")

	switch {
	case strings.Contains(last, "Previous Question:"):
		return s.format(tagged, "Thanks, that is noted.", s.nextQuestion()), nil
	case strings.Contains(last, "User Question:"):
		q := section(last, "User Question:")
		return fmt.Sprintf("The story does not say more about %q yet; it can be added as an acceptance criterion.", q), nil
	case strings.Contains(last, "Improve the user stories"):
		story := section(last, "User Stories:")
		return s.format(tagged, story+"\n\nAcceptance criteria were reviewed for testability.", s.nextQuestion()), nil
	default:
		req := section(last, "Requirement:")
		story := fmt.Sprintf("As a user, I want %s, so that my need is met.\n\nAcceptance criteria:\n- The behaviour works as described.\n\nEdge cases:\n- Invalid input is rejected.\n\nAssumptions:\n- Users are signed in.",
			strings.TrimSuffix(lowerFirst(req), "."))
		return s.format(tagged, story, s.nextQuestion()), nil
	}
}

func (s *Scripted) nextQuestion() string {
	q := scriptedQuestions[s.asked%len(scriptedQuestions)]
	s.asked++
	return q
}

func (s *Scripted) format(tagged bool, body, question string) string {
	if tagged {
		return "<content>\n" + body + "\n</content>\n<question>\n" + question + "\n</question>"
	}
	return body + "\n" + question
}

// section returns the paragraph following label, up to the next blank line.
func section(text, label string) string {
	i := strings.Index(text, label)
	if i < 0 {
		return ""
	}
	rest := strings.TrimLeft(text[i+len(label):], "\n")
	if j := strings.Index(rest, "\n\n"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

func lowerFirst(s string) string {
	if s == "" {
		return "this feature"
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
