package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/waseem-amtrend/capacity/pkg/application/services"
	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
	domainservices "github.com/waseem-amtrend/capacity/pkg/domain/services"
	"github.com/waseem-amtrend/capacity/pkg/infrastructure/repositories/memory"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testClient(t *testing.T) *memory.UpstreamClient {
	t.Helper()

	frame, err := entities.NewComponentUsage("SBX-118", decimal.NewFromInt(1), "EA", entities.CategoryFrame)
	if err != nil {
		t.Fatalf("NewComponentUsage failed: %v", err)
	}
	assembly, err := entities.NewAssembly("SBX-22721", "Moon Chair", "11174933", "109209-5", []entities.ComponentUsage{*frame})
	if err != nil {
		t.Fatalf("NewAssembly failed: %v", err)
	}
	bom, err := entities.NewBillOfMaterials([]entities.Assembly{*assembly})
	if err != nil {
		t.Fatalf("NewBillOfMaterials failed: %v", err)
	}

	client := memory.NewUpstreamClient()
	client.SetBOM(bom)
	client.AddPartInfo(entities.PartInfo{Part: "SBX-118", Description: "MOON CHAIR FRAME", BaseUnit: "EA"})

	balance, err := entities.NewPartBalance("SBX-118", []entities.WarehouseBalance{
		{WarehouseCode: "MAIN", OnHand: decimal.NewFromInt(120), Allocated: decimal.NewFromInt(20)},
	})
	if err != nil {
		t.Fatalf("NewPartBalance failed: %v", err)
	}
	client.AddBalance(*balance)
	return client
}

func testServer(t *testing.T, client *memory.UpstreamClient) *echo.Echo {
	t.Helper()

	reconciler, err := domainservices.NewUOMReconciler(nil)
	if err != nil {
		t.Fatalf("NewUOMReconciler failed: %v", err)
	}
	cfg := services.DefaultEngineConfig()
	cfg.RootRef = "109209"
	cfg.CustomerID = "AMTREND"
	engine := services.NewEngine(client, reconciler, nil, cfg, quietLogger())

	e := echo.New()
	RegisterRoutes(e, NewHandler(engine, quietLogger()))
	return e
}

func doRequest(t *testing.T, e *echo.Echo, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return rec, body
}

func TestGetCapacity(t *testing.T) {
	e := testServer(t, testClient(t))

	rec, body := doRequest(t, e, http.MethodGet, "/api/capacity")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["success"] != true {
		t.Errorf("Expected success=true, got %v", body["success"])
	}

	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object, got %T", body["data"])
	}
	report, ok := data["SBX-22721"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected report for SBX-22721, got %v", data)
	}
	if report["maxProductionNow"] != float64(100) {
		t.Errorf("Expected 100 buildable units, got %v", report["maxProductionNow"])
	}

	summary, ok := body["summary"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected summary object, got %T", body["summary"])
	}
	if summary["totalSkus"] != float64(1) {
		t.Errorf("Expected 1 SKU in summary, got %v", summary["totalSkus"])
	}
	if body["refreshId"] == "" {
		t.Error("Expected a refresh ID")
	}
}

func TestGetInventory_DegradedStays200(t *testing.T) {
	client := testClient(t)
	client.SetBalanceError("SBX-118", errors.New("upstream timeout"))
	e := testServer(t, client)

	rec, body := doRequest(t, e, http.MethodGet, "/api/inventory")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected degraded result to stay 200, got %d", rec.Code)
	}
	if body["success"] != false {
		t.Errorf("Expected success=false, got %v", body["success"])
	}
	errs, ok := body["errors"].([]interface{})
	if !ok || len(errs) != 1 || errs[0] != "SBX-118" {
		t.Errorf("Expected failed part listed in errors, got %v", body["errors"])
	}
}

func TestGetBOM(t *testing.T) {
	e := testServer(t, testClient(t))

	rec, body := doRequest(t, e, http.MethodGet, "/api/bom")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["success"] != true {
		t.Errorf("Expected success=true, got %v", body["success"])
	}

	assemblies, ok := body["data"].([]interface{})
	if !ok || len(assemblies) != 1 {
		t.Fatalf("Expected 1 assembly, got %v", body["data"])
	}
	first := assemblies[0].(map[string]interface{})
	if first["sku"] != "SBX-22721" {
		t.Errorf("Expected SKU SBX-22721, got %v", first["sku"])
	}
}

func TestGetBOM_UnavailableUpstream(t *testing.T) {
	client := memory.NewUpstreamClient()
	client.SetBOMError(errors.New("upstream down"))
	e := testServer(t, client)

	rec, body := doRequest(t, e, http.MethodGet, "/api/bom")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 with error payload, got %d", rec.Code)
	}
	if body["success"] != false {
		t.Errorf("Expected success=false, got %v", body["success"])
	}
	if body["errors"] == nil {
		t.Error("Expected error message in payload")
	}
}

func TestRefresh_InvalidatesAndRecomputes(t *testing.T) {
	client := testClient(t)
	e := testServer(t, client)

	if _, body := doRequest(t, e, http.MethodGet, "/api/capacity"); body["success"] != true {
		t.Fatal("Expected initial capacity request to succeed")
	}
	if client.BOMCalls() != 1 {
		t.Fatalf("Expected 1 BOM call, got %d", client.BOMCalls())
	}

	rec, body := doRequest(t, e, http.MethodPost, "/api/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["success"] != true {
		t.Errorf("Expected success=true, got %v", body["success"])
	}
	if client.BOMCalls() != 2 {
		t.Errorf("Expected refresh to bypass the BOM cache, got %d calls", client.BOMCalls())
	}
}

func TestHealth(t *testing.T) {
	client := testClient(t)
	e := testServer(t, client)

	rec, body := doRequest(t, e, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", body["status"])
	}

	client.SetPingError(errors.New("unreachable"))
	_, body = doRequest(t, e, http.MethodGet, "/health")
	if body["status"] != "degraded" {
		t.Errorf("Expected degraded, got %v", body["status"])
	}
	upstream := body["upstream"].(map[string]interface{})
	if upstream["connected"] != false {
		t.Errorf("Expected connected=false, got %v", upstream["connected"])
	}
}
