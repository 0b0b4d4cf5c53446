package database

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPQError(t *testing.T) {
	t.Run("unique violation on email", func(t *testing.T) {
		err := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "candidates_email_key"})

		appErr := MapPQError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, "CONFLICT", appErr.Code)
		assert.Equal(t, http.StatusConflict, appErr.StatusCode)
		assert.Contains(t, appErr.Message, "email")
	})

	t.Run("truncation", func(t *testing.T) {
		appErr := MapPQError(&pq.Error{Code: "22001"})
		require.NotNil(t, appErr)
		assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	})

	t.Run("unmapped pq code", func(t *testing.T) {
		assert.Nil(t, MapPQError(&pq.Error{Code: "40001"}))
	})

	t.Run("not a pq error", func(t *testing.T) {
		assert.Nil(t, MapPQError(errors.New("plain")))
	})
}
