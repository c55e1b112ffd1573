package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHandler_Output(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(buf, nil)

	err := handler.Output(context.Background(), []Block{
		{Kind: BlockStory, Text: "As a user"},
		{Kind: BlockQuestion, Text: "Why?"},
	})
	require.NoError(t, err)

	// Should be a single line of JSON
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var decoded []Block
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, BlockQuestion, decoded[1].Kind)

	buf.Reset()
	require.NoError(t, handler.Output(context.Background(), nil))
	assert.Empty(t, buf.String())
}

func TestJSONHandler_Input(t *testing.T) {
	handler := NewJSONHandler(&bytes.Buffer{}, nil)

	// JSON string
	handler.FeedInput("\"Hello World\"\n", nil)
	val, err := handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello World", val)

	// Raw text fallback
	handler.FeedInput("plain answer\n", nil)
	val, err = handler.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain answer", val)
}

func TestJSONHandler_SystemOutputAndSignal(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(buf, nil)

	require.NoError(t, handler.Signal(context.Background(), SignalThinking, map[string]any{"op": "generate"}))
	require.NoError(t, handler.SystemOutput(context.Background(), "Saved"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"signal":"thinking","op":"generate"}`, lines[0])
	assert.JSONEq(t, `[{"kind":"system","text":"Saved"}]`, lines[1])
}
