package rest

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes wires the engine's endpoints onto an Echo instance
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := e.Group("/api")
	api.GET("/bom", h.GetBOM)
	api.GET("/inventory", h.GetInventory)
	api.GET("/pos", h.GetOpenPOs)
	api.GET("/capacity", h.GetCapacity)
	api.POST("/refresh", h.Refresh)

	e.GET("/health", h.Health)
}
