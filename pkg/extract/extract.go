package extract

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// MIME types recognised by Text.
const (
	MIMEPDF      = "application/pdf"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPlain    = "text/plain"
	MIMEMarkdown = "text/markdown"
)

// ErrUnsupportedType is returned for file types that cannot be read.
var ErrUnsupportedType = errors.New("unsupported file type")

var byExtension = map[string]string{
	".pdf":      MIMEPDF,
	".docx":     MIMEDOCX,
	".txt":      MIMEPlain,
	".text":     MIMEPlain,
	".md":       MIMEMarkdown,
	".markdown": MIMEMarkdown,
}

// Text extracts the text of an uploaded file.
// When mimeType is empty or generic, the type is inferred from the file name extension.
func Text(data []byte, mimeType, fileName string) (string, error) {
	kind := DetectType(mimeType, fileName)

	var (
		text string
		err  error
	)
	switch kind {
	case MIMEPDF:
		text, err = PDF(data)
	case MIMEDOCX:
		text, err = DOCX(data)
	case MIMEPlain, MIMEMarkdown:
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, firstNonEmpty(mimeType, filepath.Ext(fileName)))
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", firstNonEmpty(fileName, kind), err)
	}
	return strings.TrimSpace(text), nil
}

// DetectType normalises mimeType, falling back to the file extension.
func DetectType(mimeType, fileName string) string {
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		switch mt {
		case MIMEPDF, MIMEDOCX, MIMEPlain, MIMEMarkdown:
			return mt
		}
	}
	if mt, ok := byExtension[strings.ToLower(filepath.Ext(fileName))]; ok {
		return mt
	}
	return strings.TrimSpace(mimeType)
}

// Supported reports whether Text can read the file.
func Supported(mimeType, fileName string) bool {
	switch DetectType(mimeType, fileName) {
	case MIMEPDF, MIMEDOCX, MIMEPlain, MIMEMarkdown:
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "unknown"
}
