package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/aretw0/storyloom/pkg/domain"
)

const documentPart = "word/document.xml"

var (
	// MaxDOCXPartSize caps the decompressed size of word/document.xml.
	MaxDOCXPartSize uint64 = 8 << 20
	// MaxDOCXTotalSize caps the decompressed size of the whole package, media included.
	MaxDOCXTotalSize uint64 = 32 << 20
)

var errNoDocumentPart = errors.New("word/document.xml not found")

// DOCX returns the paragraphs of the document body in order, one per line.
// Empty paragraphs are skipped. Packages whose decompressed size exceeds the
// limits are rejected with domain.ErrInputTooLarge before anything is inflated.
func DOCX(data []byte) (string, error) {
	// 1. Inspect the central directory
	if err := checkPackage(data); err != nil {
		return "", err
	}

	// 2. Parse
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	// 3. Collect paragraph text
	var out []string
	for _, item := range doc.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		if line := strings.TrimSpace(p.String()); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}

// checkPackage requires the document part and enforces the size limits.
// archive/zip refuses to inflate an entry past its declared size, so the declared sizes are binding.
func checkPackage(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}

	var total uint64
	hasDocument := false
	for _, f := range zr.File {
		size := f.UncompressedSize64
		if f.Name == documentPart {
			hasDocument = true
			if size > MaxDOCXPartSize {
				return fmt.Errorf("%w: %s inflates to %d bytes, limit=%d", domain.ErrInputTooLarge, f.Name, size, MaxDOCXPartSize)
			}
		}
		if size > MaxDOCXTotalSize || total+size > MaxDOCXTotalSize {
			return fmt.Errorf("%w: package inflates past %d bytes", domain.ErrInputTooLarge, MaxDOCXTotalSize)
		}
		total += size
	}
	if !hasDocument {
		return errNoDocumentPart
	}
	return nil
}
