package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/cuenty/fulfillment/internal/errors"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestHandleErrorGin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{"not found", apperrors.Wrap(apperrors.ErrNotFound, "order not found"), http.StatusNotFound, "not_found"},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{
			"invalid transition",
			apperrors.Wrap(apperrors.ErrInvalidTransition, "invalid order transition"),
			http.StatusConflict,
			"invalid_transition",
		},
		{"invalid input", apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input"},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"unavailable", apperrors.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
		{"internal", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()

			HandleErrorGin(c, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedError, body.Error)
		})
	}
}

func TestHandleErrorGin_InternalHidesDetails(t *testing.T) {
	c, w := newTestContext()

	HandleErrorGin(c, errors.New("dial tcp 10.0.0.3:5432: refused"), nil)

	assert.NotContains(t, w.Body.String(), "10.0.0.3")
}

func TestHandleBadRequestGin(t *testing.T) {
	c, w := newTestContext()

	HandleBadRequestGin(c, errors.New("reference is required"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"bad_request","message":"reference is required"}`, w.Body.String())
}

func TestHandleValidationErrorGin(t *testing.T) {
	c, w := newTestContext()

	HandleValidationErrorGin(c, errors.New("amount: cannot be blank"), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error":"validation_error","message":"amount: cannot be blank"}`, w.Body.String())
}

func TestHandleErrorGin_Messages(t *testing.T) {
	t.Run("Success_TransitionExposesReason", func(t *testing.T) {
		c, w := newTestContext()

		HandleErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidTransition, "cannot cancel a delivered order"), nil)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body.Message, "cannot cancel a delivered order")
	})

	t.Run("Success_NotFoundUsesFixedMessage", func(t *testing.T) {
		c, w := newTestContext()

		HandleErrorGin(c, apperrors.Wrap(apperrors.ErrNotFound, "payment transaction SPEI123 not found"), nil)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "The requested resource was not found", body.Message)
	})

	t.Run("Success_NilErrorWritesNothing", func(t *testing.T) {
		c, w := newTestContext()

		HandleErrorGin(c, nil, nil)

		assert.Empty(t, w.Body.String())
	})
}
