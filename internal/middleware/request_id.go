package middleware

import (
	"finances-api/internal/handlers"
	"finances-api/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// TraceIDHeader carries the trace id in requests and responses
	TraceIDHeader = "X-Trace-ID"
	// TraceIDContextKey is shared with the handlers so error bodies carry the same id
	TraceIDContextKey = handlers.TraceIDContextKey

	maxTraceIDLength = 64
)

// RequestID tags every request with a trace id. A caller supplied id is kept
// when it is short and printable, otherwise a new uuid is issued. The id is
// echoed back in the response and flows into the ledger audit lines through
// the request context.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			traceID := req.Header.Get(TraceIDHeader)
			if !validTraceID(traceID) {
				traceID = uuid.NewString()
			}

			c.Set(TraceIDContextKey, traceID)
			c.Response().Header().Set(TraceIDHeader, traceID)
			c.SetRequest(req.WithContext(services.WithCorrelationID(req.Context(), traceID)))
			return next(c)
		}
	}
}

// GetTraceID returns the trace id of the request, or "" outside RequestID
func GetTraceID(c echo.Context) string {
	traceID, _ := c.Get(TraceIDContextKey).(string)
	return traceID
}

// validTraceID keeps header values out of the logs unless they are plain tokens
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
