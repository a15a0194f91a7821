package serverutils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperror.Validation("bad"), fiber.StatusBadRequest},
		{apperror.NotFound("gone"), fiber.StatusNotFound},
		{apperror.Conflict("ended"), fiber.StatusConflict},
		{apperror.Synthesis("empty", nil), fiber.StatusBadGateway},
		{apperror.Configuration("no llm"), fiber.StatusServiceUnavailable},
		{errors.New("boom"), fiber.StatusInternalServerError},
		{fiber.ErrUnprocessableEntity, fiber.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}

func TestErrorHandlerHidesInternalDetails(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware(logger.NewNopLogger()))
	app.Get("/internal", func(c *fiber.Ctx) error { return errors.New("dsn=secret") })
	app.Get("/conflict", func(c *fiber.Ctx) error { return apperror.Conflict("session already ended") })

	resp, err := app.Test(httptest.NewRequest("GET", "/internal", nil))
	require.NoError(t, err)
	var body ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "Internal server error", body.Message)

	resp, err = app.Test(httptest.NewRequest("GET", "/conflict", nil))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 409, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body.Kind)
	assert.Equal(t, "session already ended", body.Message)
}

func TestValidateRequestReportsFields(t *testing.T) {
	type request struct {
		Query string `json:"query" validate:"required,max=5"`
	}

	assert.NoError(t, ValidateRequest(request{Query: "ok"}))

	err := ValidateRequest(request{Query: "too long"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	var fields *FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "must be at most 5", fields.Fields["query"])
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJwtMiddleware(t *testing.T) {
	userId := uuid.New()
	app := fiber.New()
	app.Use(JwtMiddleware("s3cret"))
	app.Get("/me", func(c *fiber.Ctx) error {
		id, err := UserId(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String())
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong secret", "Bearer " + signed(t, "other", jwt.MapClaims{"user_id": userId.String()}), fiber.StatusUnauthorized},
		{"bad user id", "Bearer " + signed(t, "s3cret", jwt.MapClaims{"user_id": "nope"}), fiber.StatusUnauthorized},
		{"expired", "Bearer " + signed(t, "s3cret", jwt.MapClaims{"user_id": userId.String(), "exp": time.Now().Add(-time.Hour).Unix()}), fiber.StatusUnauthorized},
		{"valid", "Bearer " + signed(t, "s3cret", jwt.MapClaims{"user_id": userId.String()}), fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
