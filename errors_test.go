package userapi_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	userapi "github.com/goliatone/go-users-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestStatusFor(t *testing.T) {
	t.Run("explicit code wins", func(t *testing.T) {
		err := errors.New("conflict", errors.CategoryConflict).WithCode(errors.CodeConflict)

		assert.Equal(t, fiber.StatusConflict, userapi.StatusFor(err))
	})

	t.Run("falls back to category defaults", func(t *testing.T) {
		cases := []struct {
			category errors.Category
			status   int
		}{
			{errors.CategoryValidation, fiber.StatusUnprocessableEntity},
			{errors.CategoryBadInput, fiber.StatusUnprocessableEntity},
			{errors.CategoryNotFound, fiber.StatusNotFound},
			{errors.CategoryConflict, fiber.StatusConflict},
			{errors.CategoryAuth, fiber.StatusUnauthorized},
			{errors.CategoryAuthz, fiber.StatusForbidden},
			{errors.CategoryOperation, fiber.StatusGatewayTimeout},
			{errors.CategoryInternal, fiber.StatusInternalServerError},
		}

		for _, tc := range cases {
			err := errors.New("boom", tc.category)
			assert.Equal(t, tc.status, userapi.StatusFor(err), "category %s", tc.category)
		}
	})

	t.Run("nil error is a 500", func(t *testing.T) {
		assert.Equal(t, fiber.StatusInternalServerError, userapi.StatusFor(nil))
	})
}

func TestCoerceError(t *testing.T) {
	t.Run("passes through rich errors", func(t *testing.T) {
		richErr := userapi.CoerceError(userapi.ErrUserNotFound)

		assert.Equal(t, userapi.TextCodeUserNotFound, richErr.TextCode)
		assert.Equal(t, errors.CategoryNotFound, richErr.Category)
	})

	t.Run("rich error without text code becomes internal", func(t *testing.T) {
		plain := errors.New("no code set", errors.CategoryInternal)

		richErr := userapi.CoerceError(plain)

		assert.Equal(t, userapi.TextCodeInternal, richErr.TextCode)
		// the original must not be mutated
		assert.Empty(t, plain.TextCode)
	})

	t.Run("client fiber errors keep their status", func(t *testing.T) {
		richErr := userapi.CoerceError(fiber.ErrMethodNotAllowed)

		assert.Equal(t, userapi.TextCodeValidation, richErr.TextCode)
		assert.Equal(t, fiber.StatusMethodNotAllowed, richErr.Code)
	})

	t.Run("unknown errors become an opaque 500", func(t *testing.T) {
		richErr := userapi.CoerceError(io.ErrUnexpectedEOF)

		assert.Equal(t, userapi.TextCodeInternal, richErr.TextCode)
		assert.Equal(t, "Internal server error", richErr.Message)
		assert.Equal(t, fiber.StatusInternalServerError, userapi.StatusFor(richErr))
	})
}

func TestHasTextCode(t *testing.T) {
	assert.True(t, userapi.HasTextCode(userapi.ErrEmailExists, userapi.TextCodeEmailExists))
	assert.False(t, userapi.HasTextCode(userapi.ErrEmailExists, userapi.TextCodeUsernameExists))
	assert.False(t, userapi.HasTextCode(io.ErrUnexpectedEOF, userapi.TextCodeInternal))
	assert.False(t, userapi.HasTextCode(nil, userapi.TextCodeInternal))
}

func TestRespondError_Envelope(t *testing.T) {
	serve := func(t *testing.T, err error) (int, envelope) {
		t.Helper()

		app := fiber.New()
		app.Get("/boom", func(c *fiber.Ctx) error {
			return userapi.RespondError(c, err)
		})

		req := httptest.NewRequest("GET", "/boom", nil)
		resp, terr := app.Test(req)
		require.NoError(t, terr)

		return resp.StatusCode, decodeEnvelope(t, resp.Body)
	}

	t.Run("taxonomy error keeps code and message", func(t *testing.T) {
		status, body := serve(t, userapi.ErrInvalidCredentials)

		assert.Equal(t, fiber.StatusUnauthorized, status)
		require.NotNil(t, body.Error)
		assert.Equal(t, "InvalidCredentialsError", body.Error.Code)
		assert.Equal(t, "Invalid username or password", body.Error.Message)
		assert.Equal(t, "null", string(body.Data))
	})

	t.Run("unknown error is an opaque 500", func(t *testing.T) {
		status, body := serve(t, io.ErrUnexpectedEOF)

		assert.Equal(t, fiber.StatusInternalServerError, status)
		require.NotNil(t, body.Error)
		assert.Equal(t, "InternalServerError", body.Error.Code)
		assert.Equal(t, "Internal server error", body.Error.Message)
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		status, body := serve(t, userapi.ErrEmailExists)

		assert.Equal(t, fiber.StatusConflict, status)
		assert.Equal(t, "EmailAlreadyExistsError", body.Error.Code)
	})

	t.Run("operation timeout maps to 504", func(t *testing.T) {
		status, body := serve(t, userapi.ErrDatabaseTimeout)

		assert.Equal(t, fiber.StatusGatewayTimeout, status)
		assert.Equal(t, "DatabaseTimeoutException", body.Error.Code)
	})
}

func TestRespond_Envelope(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return userapi.Respond(c, fiber.Map{"hello": "world"})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp.Body)
	assert.Nil(t, body.Error)
	assert.JSONEq(t, `{"hello":"world"}`, string(body.Data))
}
