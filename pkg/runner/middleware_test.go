package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockIOHandler for testing confirmation inputs/outputs
type MockIOHandler struct {
	System        []string
	InputBehavior func() (string, error)
}

func (m *MockIOHandler) Output(ctx context.Context, blocks []Block) error { return nil }

func (m *MockIOHandler) Input(ctx context.Context) (string, error) {
	if m.InputBehavior != nil {
		return m.InputBehavior()
	}
	return "", nil
}

func (m *MockIOHandler) Signal(ctx context.Context, name string, args map[string]any) error {
	return nil
}

func (m *MockIOHandler) SystemOutput(ctx context.Context, msg string) error {
	m.System = append(m.System, msg)
	return nil
}

func TestConfirmationMiddleware(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y", true},
		{" YES ", true},
		{"n", false},
		{"", false},
		{"sure", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mock := &MockIOHandler{InputBehavior: func() (string, error) { return tt.input, nil }}

			ok, err := ConfirmationMiddleware(mock)(context.Background(), "Discard?")

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, []string{"Discard? [y/N]"}, mock.System)
		})
	}
}

func TestConfirmationMiddleware_InputError(t *testing.T) {
	boom := errors.New("closed")
	mock := &MockIOHandler{InputBehavior: func() (string, error) { return "", boom }}

	ok, err := ConfirmationMiddleware(mock)(context.Background(), "Discard?")

	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestAutoApproveMiddleware(t *testing.T) {
	ok, err := AutoApproveMiddleware()(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, ok)
}
