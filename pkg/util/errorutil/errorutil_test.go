package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesThroughWrapped(t *testing.T) {
	base := NewConflict("duplicate key", map[string]any{"key": "A"})
	wrapped := fmt.Errorf("create setting: %w", base)

	got := ToDomainError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeConflict, got.Code)
	assert.Equal(t, http.StatusConflict, got.HTTPStatus)
	assert.Equal(t, "A", got.Details["key"])
}

func TestToDomainError_NoRowsIsNotFound(t *testing.T) {
	got := ToDomainError(fmt.Errorf("load: %w", pgx.ErrNoRows))
	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, http.StatusNotFound, got.HTTPStatus)
}

func TestToDomainError_UnknownErrorHidesDetails(t *testing.T) {
	got := ToDomainError(errors.New("pq: relation \"secret_table\" does not exist"))
	assert.Equal(t, CodeInternal, got.Code)
	assert.Equal(t, "internal server error", got.Message)
	assert.Nil(t, got.Details)
}

func TestToDomainError_FiberErrors(t *testing.T) {
	cases := map[int]string{
		http.StatusBadRequest:   CodeValidation,
		http.StatusUnauthorized: CodeUnauthorized,
		http.StatusForbidden:    CodeForbidden,
		http.StatusNotFound:     CodeNotFound,
	}
	for status, code := range cases {
		got := ToDomainError(fiber.NewError(status, "boom"))
		assert.Equal(t, code, got.Code, "status %d", status)
		assert.Equal(t, status, got.HTTPStatus)
	}
}

func TestIs(t *testing.T) {
	assert.True(t, Is(NewInvalidState("closed", nil), CodeInvalidState))
	assert.False(t, Is(NewForbidden("nope"), CodeNotFound))
	assert.False(t, Is(errors.New("plain"), CodeInternal))
	assert.True(t, Is(fmt.Errorf("wrap: %w", NewMissingTenant()), CodeMissingTenant))
}

func TestNewUnavailable_Unwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUnavailable("attachment storage failed", cause, nil)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestToDomainError_InputShapedPgErrors(t *testing.T) {
	for _, sqlState := range []string{"22P02", "22001", "22003"} {
		got := ToDomainError(fmt.Errorf("insert ticket: %w", &pgconn.PgError{Code: sqlState, ColumnName: "title"}))
		assert.Equal(t, CodeValidation, got.Code, sqlState)
		assert.Equal(t, http.StatusBadRequest, got.HTTPStatus, sqlState)
		assert.Equal(t, "title", got.Details["column"], sqlState)
	}

	got := ToDomainError(&pgconn.PgError{Code: "42P01"})
	assert.Equal(t, CodeInternal, got.Code)
}
