package http

import (
	"errors"
	"fmt"
	"net/http"

	"lab-service/internal/http/middleware"
	apperrors "lab-service/pkg/errors"
	"lab-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	jsonKeyError         = "error"
	jsonKeyCode          = "code"
	jsonKeyRequestID     = "request_id"
	jsonKeyCurrentStatus = "current_status"

	msgInternalError      = "internal server error"
	msgServiceUnavailable = "a backing service is unavailable, please retry"
	requestIDUnknown      = "unknown"
	codeInternal          = "INTERNAL_ERROR"
)

// statusFor maps an error onto the HTTP status and wire code callers see.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, apperrors.CodeValidation
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, apperrors.CodeBadRequest
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, apperrors.CodeInvalidCredentials
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, apperrors.CodeUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, apperrors.CodeForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, apperrors.CodeNotFound
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return http.StatusConflict, apperrors.CodeInvalidTransition
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, apperrors.CodeConflict
	case errors.Is(err, apperrors.ErrDependencyFailure):
		return http.StatusServiceUnavailable, apperrors.CodeDependencyFailure
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// NewErrorHandler renders every error returned by handlers and middleware as
// a JSON body. Server-side failures are logged in full and answered with a
// generic message.
func NewErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		requestID := middleware.GetRequestID(c)
		if requestID == "" {
			requestID = requestIDUnknown
		}
		body := map[string]string{jsonKeyRequestID: requestID}

		var status int
		var httpErr *echo.HTTPError
		var appErr *apperrors.AppError
		switch {
		case errors.As(err, &httpErr):
			status = httpErr.Code
			body[jsonKeyError] = fmt.Sprintf("%v", httpErr.Message)
			body[jsonKeyCode] = http.StatusText(status)
		default:
			var code string
			status, code = statusFor(err)
			body[jsonKeyCode] = code
			body[jsonKeyError] = msgInternalError
			if errors.As(err, &appErr) {
				body[jsonKeyError] = appErr.Message
				if current, ok := appErr.Meta[apperrors.MetaCurrentStatus]; ok {
					body[jsonKeyCurrentStatus] = current
				}
			}
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			logger.Redacted("error", err.Error()),
		}
		switch {
		case status == http.StatusServiceUnavailable:
			log.Error("dependency_failure", fields...)
			body[jsonKeyError] = msgServiceUnavailable
		case status >= http.StatusInternalServerError:
			log.Error("internal_server_error", fields...)
			body[jsonKeyError] = msgInternalError
		default:
			log.Warn("client_error", fields...)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write_error_response", zap.Error(err))
		}
	}
}
