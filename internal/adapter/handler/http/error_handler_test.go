package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	apperrors "github.com/spectra-metals/spectra-server/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newErrorHandlerServer() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = NewErrorHandler(zap.NewNop())
	return e
}

func TestErrorHandler_CodedErrorMapsToStatus(t *testing.T) {
	e := newErrorHandlerServer()
	e.GET("/missing", func(c echo.Context) error {
		return apperrors.NewAppError(apperrors.ErrNotFound, "Submission not found", nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.ErrNotFound)
	assert.Contains(t, rec.Body.String(), "Submission not found")
}

func TestErrorHandler_ValidationErrorEscapingHandler(t *testing.T) {
	type payload struct {
		Email string `json:"email" validate:"required,email"`
	}
	e := newErrorHandlerServer()
	e.POST("/validate", func(c echo.Context) error {
		var p payload
		if err := c.Bind(&p); err != nil {
			return err
		}
		return c.Validate(&p)
	})

	req := httptest.NewRequest(http.MethodPost, "/validate", nil)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.ErrInvalidArgument)
}

func TestErrorHandler_UncodedErrorHidesInternals(t *testing.T) {
	e := newErrorHandlerServer()
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("pq: connection refused")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.ErrInternal)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	e := newErrorHandlerServer()

	req := httptest.NewRequest(http.MethodGet, "/no-such-route", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.ErrNotFound)
}

func TestErrorHandler_SessionCheckWithoutAuth(t *testing.T) {
	e := newErrorHandlerServer()
	handler := NewAdminHandler(zap.NewNop(), nil)
	e.GET("/admin/check-session", handler.CheckSession)

	req := httptest.NewRequest(http.MethodGet, "/admin/check-session", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.ErrUnauthenticated)
	assert.Contains(t, rec.Body.String(), "Authentication required")
}
