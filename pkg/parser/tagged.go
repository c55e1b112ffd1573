package parser

import (
	"regexp"
	"strings"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/ports"
)

var (
	contentTag  = regexp.MustCompile(`(?is)<content>(.*?)</content>`)
	questionTag = regexp.MustCompile(`(?is)<question>(.*?)</question>`)
)

// Tagged reads <content> and <question> sections from the response.
type Tagged struct {
	fallback ports.ResponseParser
}

// TaggedOption configures a Tagged parser.
type TaggedOption func(*Tagged)

// WithFallback sets the parser used when the response carries no <question> tag.
func WithFallback(p ports.ResponseParser) TaggedOption {
	return func(t *Tagged) {
		t.fallback = p
	}
}

// NewTagged creates a tagged parser that falls back to QuestionMark.
func NewTagged(opts ...TaggedOption) *Tagged {
	t := &Tagged{fallback: QuestionMark{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Split extracts the tagged sections. Without a <question> tag the fallback parser decides.
// Without a <content> tag the body is whatever text surrounds the question tag.
func (t *Tagged) Split(raw string) domain.Draft {
	qm := questionTag.FindStringSubmatchIndex(raw)
	if qm == nil {
		return t.fallback.Split(raw)
	}
	question := strings.TrimSpace(raw[qm[2]:qm[3]])

	var body string
	if cm := contentTag.FindStringSubmatch(raw); cm != nil {
		body = strings.TrimSpace(cm[1])
	} else {
		body = strings.TrimSpace(raw[:qm[0]] + raw[qm[1]:])
	}

	return domain.Draft{Body: body, Question: question, Raw: raw}
}

// Instruction describes the tagged layout.
func (t *Tagged) Instruction(bodyLabel string) string {
	var b strings.Builder
	b.WriteString("Format your reply exactly like this, with nothing outside the tags:\n")
	b.WriteString("<content>\n")
	b.WriteString("the " + bodyLabel + "\n")
	b.WriteString("</content>\n")
	b.WriteString("<question>\n")
	b.WriteString("exactly ONE clarification question\n")
	b.WriteString("</question>")
	return b.String()
}

// ForName returns the parser registered under name: "legacy" or "tagged" (default).
func ForName(name string) ports.ResponseParser {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "legacy", "question_mark", "question-mark":
		return QuestionMark{}
	default:
		return NewTagged()
	}
}
