package parser_test

import (
	"strings"
	"testing"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/parser"
	"github.com/stretchr/testify/assert"
)

func TestQuestionMark_Split(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantBody     string
		wantQuestion string
	}{
		{
			name:         "question fragment after last mark",
			raw:          "Story text? Which roles apply",
			wantBody:     "Story text",
			wantQuestion: " Which roles apply?",
		},
		{
			name:         "trailing mark leaves a bare question",
			raw:          "As a user I want X. Which roles apply?",
			wantBody:     "As a user I want X. Which roles apply",
			wantQuestion: "?",
		},
		{
			name:         "no mark at all",
			raw:          "Thanks for the detail.",
			wantBody:     "",
			wantQuestion: "Thanks for the detail.?",
		},
		{
			name:         "earlier mark moves the boundary",
			raw:          "Why? Because. Next one?",
			wantBody:     "Why? Because. Next one",
			wantQuestion: "?",
		},
		{
			name:         "surrounding whitespace is trimmed",
			raw:          "\n  Ack? Next  \n",
			wantBody:     "Ack",
			wantQuestion: " Next?",
		},
	}

	p := parser.NewQuestionMark()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Split(tt.raw)
			assert.Equal(t, tt.wantBody, d.Body)
			assert.Equal(t, tt.wantQuestion, d.Question)
			assert.Equal(t, tt.raw, d.Raw)
		})
	}
}

func TestQuestionMark_RoundTrip(t *testing.T) {
	inputs := []string{
		"As a user, I want to log in with a code sent by SMS, so that my account is safe.\nHow long is the code valid?",
		"Ack. Next question? trailing fragment",
		"??",
		"  padded? text  ",
	}
	p := parser.NewQuestionMark()
	for _, raw := range inputs {
		d := p.Split(raw)
		assert.Equal(t, strings.TrimSpace(raw), parser.Join(d), "raw=%q", raw)

		again := p.Split(parser.Join(d))
		assert.Equal(t, d.Body, again.Body)
		assert.Equal(t, d.Question, again.Question)
	}
}

func TestQuestionMark_ResplitWithoutMark(t *testing.T) {
	// Without any '?' the raw text cannot be recovered, but re-splitting the
	// joined parts still yields the same parts.
	p := parser.NewQuestionMark()
	d := p.Split("no marks here")

	again := p.Split(parser.Join(d))

	assert.Equal(t, d.Body, again.Body)
	assert.Equal(t, d.Question, again.Question)
	assert.True(t, strings.HasSuffix(d.Question, "?"))
}

func TestTagged_Split(t *testing.T) {
	raw := "<content>\nAs a user, I want to log in.\n</content>\n<question>\nHow long is a code valid?\n</question>"

	d := parser.NewTagged().Split(raw)

	assert.Equal(t, "As a user, I want to log in.", d.Body)
	assert.Equal(t, "How long is a code valid?", d.Question)
}

func TestTagged_BodyAroundQuestionTag(t *testing.T) {
	raw := "Thanks, five minutes it is. <QUESTION>Should codes be single use?</QUESTION>"

	d := parser.NewTagged().Split(raw)

	assert.Equal(t, "Thanks, five minutes it is.", d.Body)
	assert.Equal(t, "Should codes be single use?", d.Question)
}

func TestTagged_BodyMayContainQuestionMarks(t *testing.T) {
	raw := "<content>What if the SMS never arrives? A resend link is shown.</content><question>How many resends are allowed?</question>"

	d := parser.NewTagged().Split(raw)

	assert.Equal(t, "What if the SMS never arrives? A resend link is shown.", d.Body)
	assert.Equal(t, "How many resends are allowed?", d.Question)
}

func TestTagged_FallsBackWithoutTags(t *testing.T) {
	raw := "Ack? Next"

	d := parser.NewTagged().Split(raw)
	legacy := parser.NewQuestionMark().Split(raw)

	assert.Equal(t, legacy, d)
}

type fixedParser struct{}

func (fixedParser) Split(raw string) domain.Draft { return domain.Draft{Body: "fixed", Raw: raw} }
func (fixedParser) Instruction(label string) string { return label }

func TestTagged_CustomFallback(t *testing.T) {
	d := parser.NewTagged(parser.WithFallback(fixedParser{})).Split("plain")
	assert.Equal(t, "fixed", d.Body)
}

func TestInstructions(t *testing.T) {
	assert.Contains(t, parser.NewTagged().Instruction("user story"), "<question>")
	assert.Contains(t, parser.NewTagged().Instruction("user story"), "the user story")
	assert.Contains(t, parser.NewQuestionMark().Instruction("acknowledgement"), "exactly ONE")
}

func TestForName(t *testing.T) {
	assert.IsType(t, parser.QuestionMark{}, parser.ForName("legacy"))
	assert.IsType(t, &parser.Tagged{}, parser.ForName("tagged"))
	assert.IsType(t, &parser.Tagged{}, parser.ForName(""))
}
