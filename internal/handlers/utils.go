package handlers

import (
	"fmt"
	"strings"

	"finances-api/internal/errors"
	"finances-api/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Context keys set by the authentication middleware
const (
	OwnerIDContextKey = "owner_id"
	IsAdminContextKey = "is_admin"
)

// ErrUnauthorized is returned when the owner context is missing or invalid
var ErrUnauthorized = fmt.Errorf("unauthorized")

// getOwnerIDFromContext extracts the authenticated owner ID.
// Returns ErrUnauthorized if it is missing or invalid.
func getOwnerIDFromContext(c echo.Context) (uuid.UUID, error) {
	ownerID, ok := c.Get(OwnerIDContextKey).(uuid.UUID)
	if !ok || ownerID == uuid.Nil {
		return uuid.UUID{}, ErrUnauthorized
	}
	return ownerID, nil
}

// getIsAdminFromContext returns false if the value is not set or not a boolean
func getIsAdminFromContext(c echo.Context) bool {
	isAdmin, ok := c.Get(IsAdminContextKey).(bool)
	return ok && isAdmin
}

// requesterFromContext builds the principal passed to the services
func requesterFromContext(c echo.Context) (services.Requester, error) {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		return services.Requester{}, err
	}

	return services.Requester{
		OwnerID:   ownerID,
		IsAdmin:   getIsAdminFromContext(c),
		IPAddress: getClientIP(c),
		UserAgent: c.Request().UserAgent(),
	}, nil
}

// optionalRequester is used by public routes: anonymous callers get a requester without owner
func optionalRequester(c echo.Context) services.Requester {
	requester, err := requesterFromContext(c)
	if err != nil {
		return services.Requester{
			IPAddress: getClientIP(c),
			UserAgent: c.Request().UserAgent(),
		}
	}
	return requester
}

// sendInvalidID rejects a malformed :id path parameter
func sendInvalidID(c echo.Context, resource string) error {
	return SendError(c, errors.ValidationInvalidFormat, errors.WithDetails(fmt.Sprintf("Invalid %s ID", resource)))
}

func getIntParam(c echo.Context, name string, defaultValue int) int {
	param := c.QueryParam(name)
	if param == "" {
		return defaultValue
	}

	var value int
	if _, err := fmt.Sscanf(param, "%d", &value); err != nil {
		return defaultValue
	}

	return value
}

func getClientIP(c echo.Context) string {
	xff := c.Request().Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := c.Request().Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	return c.RealIP()
}

// bindAndValidate decodes the body into req and runs its validate tags. When it
// reports false the error response has been written and err is the write result.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, SendError(c, errors.ValidationGeneral, errors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return false, SendServiceError(c, err)
	}
	return true, nil
}
