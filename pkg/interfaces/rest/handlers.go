// Package rest exposes the capacity engine over HTTP. Payload shapes mirror
// the dashboard's expectations: every response carries success, data, and a
// timestamp; degraded results stay 200 with success=false so the dashboard
// can render partial data.
package rest

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/waseem-amtrend/capacity/pkg/application/services"
)

const sourceName = "Epicor Kinetic REST API - Live"

// Handler serves engine results over HTTP
type Handler struct {
	engine *services.Engine
	log    *logrus.Logger
}

// NewHandler creates a REST handler around an engine
func NewHandler(engine *services.Engine, log *logrus.Logger) *Handler {
	return &Handler{engine: engine, log: log}
}

// envelope is the standard response wrapper
type envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Errors    interface{} `json:"errors,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
}

func respond(c echo.Context, success bool, data, errs interface{}) error {
	return c.JSON(http.StatusOK, envelope{
		Success:   success,
		Data:      data,
		Errors:    errs,
		Timestamp: time.Now(),
		Source:    sourceName,
	})
}

// GetBOM returns the current BOM structure
func (h *Handler) GetBOM(c echo.Context) error {
	bom, err := h.engine.GetBillOfMaterials(c.Request().Context(), false)
	if err != nil {
		h.log.WithError(err).Error("BOM request failed")
		return respond(c, false, nil, err.Error())
	}
	return respond(c, true, bom.Assemblies(), nil)
}

// GetInventory returns the fused inventory snapshot for all BOM components
func (h *Handler) GetInventory(c echo.Context) error {
	snap, err := h.engine.GetInventorySnapshot(c.Request().Context())
	if err != nil {
		h.log.WithError(err).Error("inventory request failed")
		return respond(c, false, nil, err.Error())
	}
	var errs interface{}
	if len(snap.FailedParts) > 0 {
		errs = snap.FailedParts
	}
	return respond(c, snap.Success, snap, errs)
}

// GetOpenPOs returns open purchase lines keyed by component
func (h *Handler) GetOpenPOs(c echo.Context) error {
	result, err := h.engine.GetOpenPurchaseLines(c.Request().Context())
	if err != nil {
		h.log.WithError(err).Error("open PO request failed")
		return respond(c, false, nil, err.Error())
	}
	return respond(c, result.Success, result.Lines, nil)
}

// GetCapacity returns the per-SKU capacity report with the program summary
func (h *Handler) GetCapacity(c echo.Context) error {
	result, err := h.engine.GetCapacityReport(c.Request().Context())
	if err != nil {
		h.log.WithError(err).Error("capacity request failed")
		return respond(c, false, nil, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   result.Success,
		"data":      result.Reports,
		"order":     result.Order,
		"summary":   result.Summary,
		"refreshId": result.RefreshID,
		"timestamp": time.Now(),
		"source":    sourceName,
	})
}

// Refresh invalidates all caches and recomputes the capacity report
func (h *Handler) Refresh(c echo.Context) error {
	h.engine.InvalidateAllCaches()
	return h.GetCapacity(c)
}

// Health probes upstream connectivity and reports healthy or degraded
func (h *Handler) Health(c echo.Context) error {
	status := "healthy"
	var upstreamErr string
	if err := h.engine.Ping(c.Request().Context()); err != nil {
		status = "degraded"
		upstreamErr = err.Error()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now(),
		"upstream": map[string]interface{}{
			"connected": status == "healthy",
			"error":     upstreamErr,
		},
	})
}
