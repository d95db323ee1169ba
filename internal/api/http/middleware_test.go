package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/observability"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestMiddlewares_ErrorEnvelope(t *testing.T) {
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperrors.NewConflict("duplicate ticket number", map[string]any{"number": "TK-2024-08-001"})
	})
	app.Get("/deadline", func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		return c.JSON(fiber.Map{"deadline": ok})
	})

	cases := []struct {
		path   string
		status int
		code   string
	}{
		{"/panic", fiber.StatusInternalServerError, apperrors.CodeInternal},
		{"/conflict", fiber.StatusConflict, apperrors.CodeConflict},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tc.path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)

		var body struct {
			Error struct {
				Code    string         `json:"code"`
				Message string         `json:"message"`
				Details map[string]any `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, tc.code, body.Error.Code, tc.path)
		if tc.code == apperrors.CodeInternal {
			assert.Equal(t, "internal server error", body.Error.Message)
			assert.Empty(t, body.Error.Details)
		}
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/deadline", nil), -1)
	require.NoError(t, err)
	var deadline map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&deadline))
	assert.True(t, deadline["deadline"])

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Errors["GET /conflict|CONFLICT"])
	assert.Equal(t, int64(1), snap.Requests["GET /conflict|409"])
}

func TestErrorHandler_RendersFiberErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusForbidden, "nope") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/teapot", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, apperrors.CodeForbidden, body["error"]["code"])
}
