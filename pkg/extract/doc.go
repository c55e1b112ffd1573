// Package extract turns uploaded requirement files into plain text.
// PDF, DOCX and plain text/markdown are supported.
package extract
