package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewServer creates and configures the webhook HTTP server.
func NewServer(gateway Gateway, verifyToken string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Handlers
	h := NewHandler(gateway, verifyToken)
	h.RegisterRoutes(e)

	return e
}
