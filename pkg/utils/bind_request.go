package utils

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

// BindRequest decodes the request body, path and query into a T and validates it. Both
// decode and validation failures are 400s.
func BindRequest[T any](c echo.Context) (T, error) {
	var req T
	if err := c.Bind(&req); err != nil {
		return req, httperror.NewHTTPErrorf(http.StatusBadRequest, "malformed request: %v", err)
	}
	if _, err := Validate(req); err != nil {
		return req, httperror.WrapError(http.StatusBadRequest, err)
	}
	return req, nil
}
