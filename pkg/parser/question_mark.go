package parser

import (
	"strings"

	"github.com/aretw0/storyloom/pkg/domain"
)

// QuestionMark is the legacy '?'-split heuristic.
type QuestionMark struct{}

// NewQuestionMark returns the legacy parser.
func NewQuestionMark() QuestionMark {
	return QuestionMark{}
}

// Split trims raw, splits it on '?', joins all but the last fragment with '?' as the body
// and returns the last fragment terminated with '?' as the question.
// A response without any '?' yields an empty body and the whole text as the question.
func (QuestionMark) Split(raw string) domain.Draft {
	trimmed := strings.TrimSpace(raw)
	parts := strings.Split(trimmed, "?")
	return domain.Draft{
		Body:     strings.Join(parts[:len(parts)-1], "?"),
		Question: parts[len(parts)-1] + "?",
		Raw:      raw,
	}
}

// Instruction asks for a single question at the very end and no other question marks.
func (QuestionMark) Instruction(bodyLabel string) string {
	return "Write the " + bodyLabel + " first. Do not use the character '?' anywhere in it.\n" +
		"Finish your reply with exactly ONE clarification question, ending with '?'."
}

// Join is the inverse of QuestionMark.Split: Join(Split(raw)) == strings.TrimSpace(raw).
func Join(d domain.Draft) string {
	return d.Body + "?" + strings.TrimSuffix(d.Question, "?")
}
