package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/storyloom/pkg/sanitizer"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Writer      io.Writer
	Renderer    ContentRenderer
	interactive bool
	style       *termenv.Output

	source    io.Reader
	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the markdown renderer used for stories.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithInputReader reads lines from r. Without it, lines must be pushed with FeedInput.
func WithInputReader(r io.Reader) TextHandlerOption {
	return func(h *TextHandler) {
		h.source = r
	}
}

// WithStdin reads lines from os.Stdin.
func WithStdin() TextHandlerOption {
	return WithInputReader(os.Stdin)
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer:    w,
		inputChan: make(chan inputResult, DefaultInputBufferSize),
	}
	for _, opt := range opts {
		opt(h)
	}

	// Colors and the thinking indicator are only for a real terminal on both ends.
	h.interactive = isTerminal(h.source) && isTerminal(w)
	h.style = termenv.NewOutput(w)
	return h
}

// FeedInput pushes a line (or a read error) as if it had been typed.
func (h *TextHandler) FeedInput(text string, err error) {
	h.inputChan <- inputResult{text: text, err: err}
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		if h.source != nil {
			go h.pump(bufio.NewReader(h.source))
		}
	})
}

func (h *TextHandler) pump(reader *bufio.Reader) {
	for {
		text, err := reader.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			h.inputChan <- inputResult{err: err}
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, blocks []Block) error {
	for _, b := range blocks {
		var out string
		switch b.Kind {
		case BlockStory:
			out = b.Text
			if h.Renderer != nil {
				if rendered, err := h.Renderer(b.Text); err == nil {
					out = rendered
				}
			}
		case BlockQuestion:
			out = h.style.String("? " + b.Text).Bold().Foreground(h.style.Color("#c084fc")).String()
		case BlockUser:
			out = h.style.String("you: " + b.Text).Faint().String()
		default:
			out = h.style.String("ai: " + b.Text).Foreground(h.style.Color("#818cf8")).String()
		}
		if _, err := fmt.Fprintln(h.Writer, strings.TrimSpace(out)); err != nil {
			return err
		}
	}
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	// Ensure the pump is running
	h.initPump()

	for {
		// Only show prompt if context is not yet done
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			// Important: don't print anything here, just exit silently
			return "", ctx.Err()
		case res := <-h.inputChan:
			if res.err != nil {
				return "", res.err
			}

			// Sanitize Input (Limit + Control Chars)
			clean, err := sanitizer.Input(strings.TrimSpace(res.text))
			if err != nil {
				// User Feedback: Prompt retry
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) Signal(ctx context.Context, name string, args map[string]any) error {
	if !h.interactive {
		return nil
	}
	switch name {
	case SignalThinking:
		fmt.Fprint(h.Writer, h.style.String("thinking...").Faint().String())
	case SignalDone:
		// Clear the indicator line
		h.style.ClearLine()
		fmt.Fprint(h.Writer, "\r")
	}
	return nil
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return err
}

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
