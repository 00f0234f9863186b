package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsThroughWrapping(t *testing.T) {
	base := Forbidden("Account is blocked")
	wrapped := fmt.Errorf("create checkout: %w", base)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, got.Status)
	assert.Equal(t, "Account is blocked", got.Message)
	assert.Equal(t, http.StatusForbidden, StatusOf(wrapped))
}

func TestStatusOfUntypedError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("db down")))
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)

	assert.Equal(t, "Internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestWrapKeepsMessage(t *testing.T) {
	cause := errors.New("stripe: card declined")
	err := BadRequest("Failed to create checkout session").Wrap(cause)

	assert.Equal(t, "Failed to create checkout session", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "card declined")
}

func TestConstructors(t *testing.T) {
	cases := map[*AppError]int{
		Validation("x"):   http.StatusBadRequest,
		Unauthorized("x"): http.StatusUnauthorized,
		NotFound("x"):     http.StatusNotFound,
		Conflict("x"):     http.StatusConflict,
	}
	for err, status := range cases {
		assert.Equal(t, status, err.Status, err.Code)
	}
}
