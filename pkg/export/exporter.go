package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// ErrUnknownFormat is returned for a format no exporter is registered for.
var ErrUnknownFormat = errors.New("unknown export format")

// DefaultFormat is used when no format is requested.
const DefaultFormat = "docx"

// Exporter writes a Document in one file format.
type Exporter interface {
	Format() string
	Extension() string
	MIMEType() string
	Write(w io.Writer, doc Document) error
}

var exporters = map[string]Exporter{}

func register(e Exporter) {
	exporters[e.Format()] = e
}

func init() {
	register(DOCX{})
	register(HTML{})
	register(Markdown{})
}

// ForFormat returns the exporter for name. An empty name selects DefaultFormat.
func ForFormat(name string) (Exporter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultFormat
	}
	if name == "markdown" {
		name = "md"
	}
	e, ok := exporters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownFormat, name, strings.Join(Formats(), ", "))
	}
	return e, nil
}

// Formats lists the registered format names.
func Formats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileName returns the timestamped download name, e.g. user_story_20240501_103000.docx.
func FileName(now time.Time, extension string) string {
	return fmt.Sprintf("user_story_%s.%s", now.Format("20060102_150405"), strings.TrimPrefix(extension, "."))
}

// File is a rendered export.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Render writes doc with e into memory and names the result after now.
func Render(e Exporter, doc Document, now time.Time) (*File, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", e.Format(), err)
	}
	return &File{
		Name:     FileName(now, e.Extension()),
		MIMEType: e.MIMEType(),
		Data:     buf.Bytes(),
	}, nil
}
