package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"

	"finances-api/internal/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newRequestContext builds a context for method and path. A non-nil body is sent as JSON;
// a string body is sent verbatim.
func newRequestContext(e *echo.Echo, method, path string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func authenticate(c echo.Context, ownerID uuid.UUID, isAdmin bool) {
	c.Set(OwnerIDContextKey, ownerID)
	c.Set(IsAdminContextKey, isAdmin)
}

func withPathParams(c echo.Context, params map[string]string) {
	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for name, value := range params {
		names = append(names, name)
		values = append(values, value)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}

func decodeErrorResponse(rec *httptest.ResponseRecorder) errors.ErrorResponse {
	var resp errors.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return resp
}
