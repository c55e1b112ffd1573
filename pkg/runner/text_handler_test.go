package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Output(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(outBuf, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	err := handler.Output(context.Background(), []Block{
		{Kind: BlockStory, Text: "As a user"},
		{Kind: BlockAcknowledgement, Text: "Noted."},
		{Kind: BlockQuestion, Text: "Why?"},
	})
	require.NoError(t, err)

	// A buffer is not a terminal, so no escape sequences are written.
	assert.Equal(t, "Rendered: As a user\nai: Noted.\n? Why?\n", outBuf.String())
}

func TestTextHandler_Input(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(outBuf)

	// Feed input asynchronously to simulate bridge
	go handler.FeedInput("  my user input\n", nil)

	val, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my user input", val)

	// Verify Prompt was written
	assert.Equal(t, "> ", outBuf.String())
}

func TestTextHandler_Input_SanitizationRetry(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(outBuf)

	handler.FeedInput("bad \xff input", nil)
	handler.FeedInput("good\x1b input", nil)

	val, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "good input", val)
	assert.Contains(t, outBuf.String(), "Please try again.")
	assert.Equal(t, 2, strings.Count(outBuf.String(), "> "))
}

func TestTextHandler_InputReader(t *testing.T) {
	handler := NewTextHandler(io.Discard, WithInputReader(strings.NewReader("first\nlast")))
	ctx := context.Background()

	val, err := handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", val)

	val, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "last", val)

	_, err = handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_InputCancelled(t *testing.T) {
	handler := NewTextHandler(io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTextHandler_InputError(t *testing.T) {
	handler := NewTextHandler(io.Discard)
	boom := errors.New("read failed")
	handler.FeedInput("", boom)

	_, err := handler.Input(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestTextHandler_SystemOutputAndSignals(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(outBuf)

	require.NoError(t, handler.Signal(context.Background(), SignalThinking, nil))
	require.NoError(t, handler.SystemOutput(context.Background(), "Saved x.docx"))

	// Signals are silent outside a terminal.
	assert.Equal(t, "\n[System] Saved x.docx\n", outBuf.String())
}
