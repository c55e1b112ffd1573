package export_test

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/export"
	"github.com/aretw0/storyloom/pkg/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *domain.State {
	s := domain.NewState("sess-1")
	s.Artifact = "As a user, I want to log in with an SMS code, so that my account is safe.\n- Codes expire after 5 minutes <strict>"
	s.PendingQuestion = "Should codes be single use?"
	s.Turns = []domain.Turn{
		{Kind: domain.TurnFollowUp, Question: "How long is a code valid?", Answer: "5 minutes", Acknowledgement: "Noted."},
		{Kind: domain.TurnUserQuestion, Question: "Who receives codes?", Answer: "Registered users."},
	}
	return s
}

func TestFromState_NoArtifact(t *testing.T) {
	_, err := export.FromState(domain.NewState("empty"), true)
	assert.ErrorIs(t, err, domain.ErrNoArtifact)
}

func TestFromState_Transcript(t *testing.T) {
	withoutDialogue, err := export.FromState(sampleState(), false)
	require.NoError(t, err)
	assert.Equal(t, export.Title, withoutDialogue.Title)
	assert.Len(t, withoutDialogue.Sections, 1)

	doc, err := export.FromState(sampleState(), true)
	require.NoError(t, err)
	require.Len(t, doc.Sections, 3)
	assert.Equal(t, export.DialogueHeading, doc.Sections[1].Heading)
	assert.Len(t, doc.Sections[1].Paragraphs, 5)
	assert.Equal(t, "AI Acknowledgement", doc.Sections[1].Paragraphs[2].Label)
	assert.Equal(t, "Your Question", doc.Sections[1].Paragraphs[3].Label)
	assert.Equal(t, export.OpenQuestionHeading, doc.Sections[2].Heading)
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 4, 5, 0, time.UTC)
	assert.Equal(t, "user_story_20240501_090405.docx", export.FileName(now, "docx"))
	assert.Equal(t, "user_story_20240501_090405.md", export.FileName(now, ".md"))
}

func TestForFormat(t *testing.T) {
	e, err := export.ForFormat("")
	require.NoError(t, err)
	assert.Equal(t, "docx", e.Format())

	e, err = export.ForFormat("Markdown")
	require.NoError(t, err)
	assert.Equal(t, "md", e.Extension())

	_, err = export.ForFormat("pdf")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
	assert.Equal(t, []string{"docx", "html", "md"}, export.Formats())
}

func TestDOCX_ReadableBack(t *testing.T) {
	doc, err := export.FromState(sampleState(), true)
	require.NoError(t, err)

	file, err := export.Render(export.DOCX{}, doc, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "user_story_20240501_103000.docx", file.Name)

	zr, err := zip.NewReader(bytes.NewReader(file.Data), int64(len(file.Data)))
	require.NoError(t, err)
	names := []string{}
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "[Content_Types].xml")
	assert.Contains(t, names, "word/styles.xml")

	text, err := extract.DOCX(file.Data)
	require.NoError(t, err)
	lines := strings.Split(text, "\n")
	assert.Equal(t, export.Title, lines[0])
	assert.Equal(t, "As a user, I want to log in with an SMS code, so that my account is safe.", lines[1])
	assert.Equal(t, "- Codes expire after 5 minutes <strict>", lines[2])
	assert.Contains(t, lines, export.DialogueHeading)
	assert.Contains(t, lines, "Your Answer: 5 minutes")
}

func TestMarkdown(t *testing.T) {
	doc, err := export.FromState(sampleState(), true)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, export.Markdown{}.Write(&buf, doc))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# AI Generated User Story\n"))
	assert.Contains(t, out, "## Clarification Dialogue")
	assert.Contains(t, out, "**AI Question:** How long is a code valid?")
}

func TestHTML(t *testing.T) {
	doc, err := export.FromState(sampleState(), false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, export.HTML{}.Write(&buf, doc))

	out := buf.String()
	assert.Contains(t, out, "<title>AI Generated User Story</title>")
	assert.Contains(t, out, "<h1>AI Generated User Story</h1>")
	assert.NotContains(t, out, "Clarification Dialogue")
	assert.NotContains(t, out, "<strict>", "raw html from the story is not passed through")
}
