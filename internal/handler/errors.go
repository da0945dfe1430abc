package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/apperr"
)

var kindStatus = map[apperr.Kind]int{
	apperr.Unauthenticated:  http.StatusUnauthorized,
	apperr.Forbidden:        http.StatusForbidden,
	apperr.NotFound:         http.StatusNotFound,
	apperr.Conflict:         http.StatusConflict,
	apperr.Validation:       http.StatusUnprocessableEntity,
	apperr.BadRequest:       http.StatusBadRequest,
	apperr.TooManyRequests:  http.StatusTooManyRequests,
	apperr.StoreUnavailable: http.StatusServiceUnavailable,
	apperr.Misconfiguration: http.StatusInternalServerError,
	apperr.Internal:         http.StatusInternalServerError,
}

// HTTPErrorHandler renders every error returned by a handler or middleware
// as an envelope. Server-side failures are logged with the request id and
// reported to the client without detail.
func HTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func errorResponse(err error) (int, envelope) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		status, ok := kindStatus[ae.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		msg := ae.Message
		if ae.Kind == apperr.Internal || ae.Kind == apperr.Misconfiguration {
			msg = "Internal server error"
		}
		return status, envelope{Message: msg, Errors: ae.Fields}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return he.Code, envelope{Message: "Route not found"}
		case http.StatusMethodNotAllowed:
			return he.Code, envelope{Message: "Method not allowed"}
		case http.StatusInternalServerError:
			return he.Code, envelope{Message: "Internal server error"}
		}
		return he.Code, envelope{Message: http.StatusText(he.Code)}
	}

	return http.StatusInternalServerError, envelope{Message: "Internal server error"}
}
