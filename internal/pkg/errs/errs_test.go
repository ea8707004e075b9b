package errs

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorDefaultsStatus(t *testing.T) {
	err := NewError(ErrUserAlreadyExists)

	assert.Equal(t, ErrUserAlreadyExists, err.Code)
	assert.Equal(t, "اسم المستخدم موجود بالفعل", err.Message)
	assert.Equal(t, http.StatusOK, err.Status)
}

func TestNewErrorUnknownCode(t *testing.T) {
	err := NewError(424242)

	assert.Equal(t, ErrUnknown, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestNewErrorDoesNotMutateTable(t *testing.T) {
	first := NewError(ErrRateLimitExceeded)
	first.Message = "changed"

	assert.NotEqual(t, "changed", NewError(ErrRateLimitExceeded).Message)
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", NewError(ErrMissingCredentials))

	assert.Equal(t, ErrMissingCredentials, CodeOf(wrapped))
	assert.Equal(t, ErrUnknown, CodeOf(fmt.Errorf("plain")))
}

func TestMessageFallsBackToUnknown(t *testing.T) {
	assert.Equal(t, Message(ErrUnknown), Message(-1))
	assert.Equal(t, "اسم المستخدم أو كلمة المرور غير صحيحة", Message(ErrInvalidCredentials))
}
