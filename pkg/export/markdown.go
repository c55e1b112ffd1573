package export

import (
	"io"
	"strings"
)

// Markdown writes the document as plain markdown.
type Markdown struct{}

func (Markdown) Format() string    { return "md" }
func (Markdown) Extension() string { return "md" }
func (Markdown) MIMEType() string  { return "text/markdown; charset=utf-8" }

func (Markdown) Write(w io.Writer, doc Document) error {
	_, err := io.WriteString(w, toMarkdown(doc))
	return err
}

func toMarkdown(doc Document) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(doc.Title)
	b.WriteString("\n")

	for _, s := range doc.Sections {
		if s.Heading != "" {
			b.WriteString("\n## ")
			b.WriteString(s.Heading)
			b.WriteString("\n")
		}
		for _, p := range s.Paragraphs {
			b.WriteString("\n")
			if p.Label != "" {
				b.WriteString("**")
				b.WriteString(p.Label)
				b.WriteString(":** ")
			}
			b.WriteString(p.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}
