package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"finances-api/internal/errors"

	"github.com/labstack/echo/v4"
)

const unknownTraceID = "unknown"

// PanicRecovery turns a panic in a handler into a SYSTEM_001 response.
// A panic inside the ledger rolls back its database transaction before reaching here.
func PanicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					recoverPanic(c, r)
				}
			}()
			return next(c)
		}
	}
}

func recoverPanic(c echo.Context, value any) {
	traceID := GetTraceID(c)
	if traceID == "" {
		traceID = unknownTraceID
	}
	req := c.Request()

	slog.ErrorContext(req.Context(), "handler panicked",
		slog.String("trace_id", traceID),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.String("panic", fmt.Sprint(value)),
		slog.String("panic_type", fmt.Sprintf("%T", value)),
		slog.String("stack", string(debug.Stack())),
	)
	apiErrorsTotal.WithLabelValues(string(errors.SystemInternalError), c.Path(), "500").Inc()

	// the handler already wrote its status, a second body would corrupt the reply
	if c.Response().Committed {
		return
	}

	body := errors.NewErrorResponse(errors.SystemInternalError, traceID)
	if err := c.JSON(http.StatusInternalServerError, body); err != nil {
		slog.ErrorContext(req.Context(), "failed to write panic response", "trace_id", traceID, "error", err)
	}
}
