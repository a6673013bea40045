// Demonstrates the capacity engine end to end against a scripted in-memory
// upstream, without an ERP connection. Run with: go run ./example
package main

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/waseem-amtrend/capacity/pkg/application/services"
	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
	domainservices "github.com/waseem-amtrend/capacity/pkg/domain/services"
	"github.com/waseem-amtrend/capacity/pkg/infrastructure/repositories/memory"
)

func main() {
	log := logrus.New()
	log.SetOutput(io.Discard)

	frame, _ := entities.NewComponentUsage("SBX-118", decimal.NewFromInt(1), "EA", entities.CategoryFrame)
	leather, _ := entities.NewComponentUsage("LEA-SBX14", decimal.NewFromFloat(55), "SQFT", entities.CategoryLeather)
	carton, _ := entities.NewComponentUsage("CTNS-117", decimal.NewFromInt(1), "EA", entities.CategoryPackaging)
	assembly, _ := entities.NewAssembly("SBX-22721", "Moon Chair, Fern Green", "11174933", "109209-5",
		[]entities.ComponentUsage{*frame, *leather, *carton})
	bom, _ := entities.NewBillOfMaterials([]entities.Assembly{*assembly})

	client := memory.NewUpstreamClient()
	client.SetBOM(bom)
	client.AddPartInfo(entities.PartInfo{Part: "SBX-118", Description: "Moon chair frame", BaseUnit: "EA"})
	client.AddPartInfo(entities.PartInfo{Part: "LEA-SBX14", Description: "Leather, fern green", BaseUnit: "SQFT"})
	client.AddPartInfo(entities.PartInfo{Part: "CTNS-117", Description: "Moon chair carton", BaseUnit: "EA"})

	balance := func(part entities.PartNumber, onHand, allocated float64) {
		b, _ := entities.NewPartBalance(part, []entities.WarehouseBalance{{
			WarehouseCode: "MAIN",
			OnHand:        decimal.NewFromFloat(onHand),
			Allocated:     decimal.NewFromFloat(allocated),
		}})
		client.AddBalance(*b)
	}
	balance("SBX-118", 40, 5)
	balance("LEA-SBX14", 2200, 0)
	balance("CTNS-117", 18, 0)

	incoming, _ := entities.NewOpenPurchaseLine(4501, 1, 1, "CTNS-117", "Moon chair carton", "Acme Packaging",
		decimal.NewFromInt(100), decimal.NewFromInt(0), "EA", "2026-09-30", "2026-09-28", "Open")
	client.AddPurchaseLine(*incoming)

	reconciler, _ := domainservices.NewUOMReconciler(nil)
	engine := services.NewEngine(client, reconciler, nil, services.EngineConfig{RootRef: "109209"}, log)

	result, err := engine.GetCapacityReport(context.Background())
	if err != nil {
		fmt.Println("capacity report failed:", err)
		return
	}

	for _, sku := range result.Order {
		report := result.Reports[sku]
		fmt.Printf("%s  now=%d (limited by %s)  future=%d (limited by %s)\n",
			sku, report.MaxUnitsNow, report.LimitingComponentNow,
			report.MaxUnitsFuture, report.LimitingComponentFut)
		for _, b := range report.Bottlenecks {
			fmt.Printf("  %-10s %-8s avail=%s  incoming=%s  units=%d\n",
				b.Component, b.Status, b.TrueAvailable, b.IncomingQty, b.MaxUnitsNow)
		}
	}
	fmt.Printf("total now=%d future=%d blocked=%d/%d\n",
		result.Summary.TotalNow, result.Summary.TotalFuture,
		result.Summary.BlockedSKUs, result.Summary.TotalSKUs)
}
