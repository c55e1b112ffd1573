package export

import (
	"strings"

	"github.com/aretw0/storyloom/pkg/domain"
)

const (
	// Title heads every exported document.
	Title = "AI Generated User Story"
	// DialogueHeading heads the optional transcript section.
	DialogueHeading = "Clarification Dialogue"
	// OpenQuestionHeading heads the outstanding question, when there is one.
	OpenQuestionHeading = "Open Question"
)

// Paragraph is a block of text with an optional bold label.
// Text may span several lines.
type Paragraph struct {
	Label string
	Text  string
}

// Section is a headed group of paragraphs. The first section usually has no heading.
type Section struct {
	Heading    string
	Paragraphs []Paragraph
}

// Document is the format-neutral content of an export.
type Document struct {
	Title    string
	Sections []Section
}

// FromState builds the document for a session.
// It refuses a session without a story.
func FromState(state *domain.State, includeTranscript bool) (Document, error) {
	if !state.HasArtifact() {
		return Document{}, domain.ErrNoArtifact
	}

	doc := Document{
		Title: Title,
		Sections: []Section{
			{Paragraphs: []Paragraph{{Text: strings.TrimSpace(state.Artifact)}}},
		},
	}

	if !includeTranscript {
		return doc, nil
	}

	if len(state.Turns) > 0 {
		dialogue := Section{Heading: DialogueHeading}
		for _, t := range state.Turns {
			dialogue.Paragraphs = append(dialogue.Paragraphs, transcript(t)...)
		}
		doc.Sections = append(doc.Sections, dialogue)
	}
	if state.HasPendingQuestion() {
		doc.Sections = append(doc.Sections, Section{
			Heading:    OpenQuestionHeading,
			Paragraphs: []Paragraph{{Text: strings.TrimSpace(state.PendingQuestion)}},
		})
	}
	return doc, nil
}

func transcript(t domain.Turn) []Paragraph {
	if t.Kind == domain.TurnUserQuestion {
		return []Paragraph{
			{Label: "Your Question", Text: t.Question},
			{Label: "AI Answer", Text: t.Answer},
		}
	}
	out := []Paragraph{
		{Label: "AI Question", Text: t.Question},
		{Label: "Your Answer", Text: t.Answer},
	}
	if t.Acknowledgement != "" {
		out = append(out, Paragraph{Label: "AI Acknowledgement", Text: t.Acknowledgement})
	}
	return out
}
