package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderer(t *testing.T) {
	render := NewRenderer()

	out, err := render("**Acceptance criteria**\n\n- A wrong code is rejected.")

	require.NoError(t, err)
	assert.Contains(t, out, "Acceptance criteria")
	assert.Contains(t, out, "A wrong code is rejected.")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer

	PrintBanner(&buf, "0.1.0\n")

	assert.Contains(t, buf.String(), "v0.1.0")
	assert.GreaterOrEqual(t, strings.Count(buf.String(), "\n"), 8)
}
