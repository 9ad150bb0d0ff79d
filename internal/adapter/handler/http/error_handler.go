package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/spectra-metals/spectra-server/pkg/errors"
	"go.uber.org/zap"
)

// NewErrorHandler converts errors escaping a handler into the JSON error
// envelope. Coded application errors map to their HTTP status; anything
// uncoded is a 500 with a generic message so internals never leak.
func NewErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		code := apperrors.ErrInternal
		message := "Internal server error"

		var appErr *apperrors.AppError
		if apperrors.As(err, &appErr) {
			status = apperrors.ToHTTPStatus(appErr.Code())
			code = appErr.Code()
			message = appErr.Message()
		} else if echoErr, ok := err.(*echo.HTTPError); ok {
			converted := apperrors.FromHTTPError(echoErr)
			if apperrors.As(converted, &appErr) {
				status = echoErr.Code
				code = appErr.Code()
				message = appErr.Message()
			}
		} else {
			logger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}

		writeErr := c.JSON(status, echo.Map{
			"error": echo.Map{
				"code":    code,
				"message": message,
			},
		})
		if writeErr != nil {
			logger.Error("Failed to write error response", zap.Error(writeErr))
		}
	}
}
