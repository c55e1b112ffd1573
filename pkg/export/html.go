package export

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
)

// HTML converts the markdown rendition into a standalone page.
type HTML struct{}

func (HTML) Format() string    { return "html" }
func (HTML) Extension() string { return "html" }
func (HTML) MIMEType() string  { return "text/html; charset=utf-8" }

func (HTML) Write(w io.Writer, doc Document) error {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(toMarkdown(doc)), &body); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(doc.Title), body.String())
	return err
}
