// Package handler contains the HTTP handlers.  Handlers never mutate
// aggregates themselves: writes are translated into commands published on
// the bus (or, for payments, an external-style event), and reads go to
// the reference data and the view tables.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the health-check endpoint used by load balancers and
// monitoring systems.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
