package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Every Output call is one line holding an array of blocks; input lines are JSON strings or raw text.
type JSONHandler struct {
	Writer  io.Writer
	Encoder *json.Encoder

	source    io.Reader
	inputChan chan inputResult
	startOnce sync.Once
}

// NewJSONHandler creates a handler for JSON IO. A nil reader means input arrives via FeedInput.
func NewJSONHandler(w io.Writer, r io.Reader) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Writer:    w,
		Encoder:   json.NewEncoder(w),
		source:    r,
		inputChan: make(chan inputResult, DefaultInputBufferSize),
	}
}

// FeedInput pushes a raw line (or a read error) as if it had been received.
func (h *JSONHandler) FeedInput(text string, err error) {
	h.inputChan <- inputResult{text: text, err: err}
}

func (h *JSONHandler) Output(ctx context.Context, blocks []Block) error {
	if len(blocks) == 0 {
		return nil
	}
	// Emit blocks as a single JSON line
	return h.Encoder.Encode(blocks)
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	h.startOnce.Do(func() {
		if h.source == nil {
			return
		}
		go func() {
			reader := bufio.NewReader(h.source)
			for {
				text, err := reader.ReadString('\n')
				if text != "" {
					h.inputChan <- inputResult{text: text}
				}
				if err != nil {
					h.inputChan <- inputResult{err: err}
					return
				}
			}
		}()
	})

	var res inputResult
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-h.inputChan:
	}
	if res.err != nil {
		return "", res.err
	}

	text := strings.TrimSpace(res.text)

	// Try to unquote if it's a JSON string
	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}

	// Fallback: return raw text (e.g. if they just sent plain text)
	return text, nil
}

func (h *JSONHandler) Signal(ctx context.Context, name string, args map[string]any) error {
	payload := map[string]any{"signal": name}
	for k, v := range args {
		payload[k] = v
	}
	return h.Encoder.Encode(payload)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode([]Block{{Kind: BlockSystem, Text: msg}})
}
