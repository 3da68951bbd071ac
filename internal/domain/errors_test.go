package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_UnwrapsToKind(t *testing.T) {
	err := Validation("Title is required.")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Title is required.", err.Error())
}

func TestError_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("approve: %w", InvalidState("Notification is not awaiting approval."))
	assert.True(t, errors.Is(err, ErrInvalidState))

	var de *Error
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "Notification is not awaiting approval.", de.Msg)
}
