// Package export renders a session's story into downloadable documents.
package export
