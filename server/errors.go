package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/recollect/memory"
	"github.com/hrygo/recollect/store"
)

// errResponse maps domain errors onto HTTP status codes. Provider failures
// surface as 502 so callers can tell an upstream outage from a server bug.
func errResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, memory.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrSummaryNotFound), errors.Is(err, store.ErrTenantNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrTenantExists):
		status = http.StatusConflict
	case errors.Is(err, memory.ErrEmbedding), errors.Is(err, memory.ErrGeneration), errors.Is(err, memory.ErrFormat):
		status = http.StatusBadGateway
	}
	return c.JSON(status, map[string]string{"message": err.Error()})
}
