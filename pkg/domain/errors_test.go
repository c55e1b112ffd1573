package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestCompletionError_Is(t *testing.T) {
	cause := errors.New("rate limited")
	err := fmt.Errorf("answer: %w", &domain.CompletionError{Op: "advance", Err: cause})

	assert.ErrorIs(t, err, domain.ErrCompletionFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)

	var ce *domain.CompletionError
	if assert.ErrorAs(t, err, &ce) {
		assert.Equal(t, "advance", ce.Op)
	}
	assert.Contains(t, err.Error(), "rate limited")
}
