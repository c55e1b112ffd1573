package export

import (
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// Run sizes in half-points.
const (
	titleSize   = "48"
	headingSize = "32"
)

// DOCX writes a WordprocessingML package with the default theme.
type DOCX struct{}

func (DOCX) Format() string    { return "docx" }
func (DOCX) Extension() string { return "docx" }
func (DOCX) MIMEType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (DOCX) Write(w io.Writer, doc Document) error {
	f := docx.New().WithDefaultTheme()

	f.AddParagraph().AddText(doc.Title).Bold().Size(titleSize)
	for _, s := range doc.Sections {
		if s.Heading != "" {
			f.AddParagraph().AddText(s.Heading).Bold().Size(headingSize)
		}
		for _, p := range s.Paragraphs {
			// One Word paragraph per line so readers keep the line structure.
			lines := strings.Split(p.Text, "\n")
			para := f.AddParagraph()
			if p.Label != "" {
				preserveSpace(para.AddText(p.Label + ": ").Bold())
			}
			addLine(para, lines[0])
			for _, line := range lines[1:] {
				addLine(f.AddParagraph(), line)
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func addLine(p *docx.Paragraph, text string) {
	if text = strings.TrimRight(text, "\r"); text != "" {
		preserveSpace(p.AddText(text))
	}
}

// preserveSpace keeps leading and trailing blanks of the run's text in Word.
func preserveSpace(r *docx.Run) {
	for _, c := range r.Children {
		if t, ok := c.(*docx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}
}
