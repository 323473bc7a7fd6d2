package middleware

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"finances-api/internal/errors"
	"finances-api/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "api_errors_total",
		Help: "API error responses by code, route and status",
	},
	[]string{"code", "endpoint", "status"},
)

// CustomHTTPErrorHandler formats errors that escape the handlers (routing, binding,
// body limits) as standardized error responses, logs them and counts them.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	traceID := GetTraceID(c)
	if traceID == "" {
		traceID = unknownTraceID
	}

	body, status := buildErrorResponse(err, traceID)
	req := c.Request()

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.LogAttrs(req.Context(), level, "request failed",
		slog.String("trace_id", traceID),
		slog.String("code", body.Error.Code),
		slog.Int("status", status),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.String("error", err.Error()),
	)

	apiErrorsTotal.WithLabelValues(body.Error.Code, c.Path(), strconv.Itoa(status)).Inc()

	if sendErr := c.JSON(status, body); sendErr != nil {
		slog.ErrorContext(req.Context(), "failed to write error response", "trace_id", traceID, "error", sendErr)
	}
}

func buildErrorResponse(err error, traceID string) (*errors.ErrorResponse, int) {
	var echoErr *echo.HTTPError
	if stderrors.As(err, &echoErr) {
		return errors.NewErrorResponse(
			errorCodeForStatus(echoErr.Code),
			traceID,
			errors.WithMessage(fmt.Sprint(echoErr.Message)),
		), echoErr.Code
	}

	if fieldErrors, ok := validation.AsFieldErrors(err); ok {
		return errors.NewValidationError(fieldErrors, traceID), http.StatusBadRequest
	}

	var validationErrs validator.ValidationErrors
	if stderrors.As(err, &validationErrs) {
		return errors.NewValidationError(validation.FieldErrorsFromValidator(validationErrs), traceID), http.StatusBadRequest
	}

	body, _ := errors.WrapSystemError(err, traceID)
	return body, body.GetHTTPStatus()
}

// statusCodes translates echo's own HTTP errors
var statusCodes = map[int]errors.ErrorCode{
	http.StatusBadRequest:            errors.ValidationGeneral,
	http.StatusMethodNotAllowed:      errors.ValidationGeneral,
	http.StatusUnprocessableEntity:   errors.ValidationGeneral,
	http.StatusUnsupportedMediaType:  errors.ValidationGeneral,
	http.StatusRequestEntityTooLarge: errors.ValidationGeneral,
	http.StatusUnauthorized:          errors.AuthMissingToken,
	http.StatusForbidden:             errors.AuthInsufficientPermission,
	http.StatusNotFound:              errors.SystemRouteNotFound,
	http.StatusTooManyRequests:       errors.SystemRateLimitExceeded,
	http.StatusServiceUnavailable:    errors.SystemServiceUnavailable,
}

func errorCodeForStatus(status int) errors.ErrorCode {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return errors.SystemInternalError
}
