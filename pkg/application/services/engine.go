// Package services wires the aggregation-and-capacity engine together: the
// cached BOM structure, the job-demand aggregation path, the inventory
// snapshot builder, and the pure capacity calculator.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/waseem-amtrend/capacity/pkg/application/dto"
	"github.com/waseem-amtrend/capacity/pkg/application/services/capacity"
	"github.com/waseem-amtrend/capacity/pkg/application/services/demand"
	"github.com/waseem-amtrend/capacity/pkg/application/services/snapshot"
	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
	"github.com/waseem-amtrend/capacity/pkg/domain/repositories"
	domainservices "github.com/waseem-amtrend/capacity/pkg/domain/services"
	"github.com/waseem-amtrend/capacity/pkg/infrastructure/cache"
)

// EngineConfig holds tuning for the engine and its subsystems
type EngineConfig struct {
	// RootRef is the top-level quote reference whose BOM explosion drives
	// the program
	RootRef string
	// CustomerID selects whose open jobs feed demand aggregation
	CustomerID string
	// BOMTTL is the freshness window for the BOM structure cache
	BOMTTL time.Duration
	// PartInfoTTL is the freshness window for part master data
	PartInfoTTL time.Duration
	// JobSetTTL is the freshness window for the open-job set
	JobSetTTL time.Duration
	// JobDemandTTL is the freshness window for aggregated job demand
	JobDemandTTL time.Duration
	// SnapshotWorkers bounds concurrent per-component fetches
	SnapshotWorkers int
	// JobWorkers bounds concurrent per-job material fetches
	JobWorkers int
	// MaxJobs bounds the open-job demand sample
	MaxJobs int
}

// DefaultEngineConfig returns the standard TTLs and concurrency limits
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BOMTTL:          30 * time.Minute,
		PartInfoTTL:     time.Hour,
		JobSetTTL:       60 * time.Second,
		JobDemandTTL:    5 * time.Minute,
		SnapshotWorkers: 5,
		JobWorkers:      15,
		MaxJobs:         50,
	}
}

// Engine is the aggregation-and-capacity engine. It owns the four caches
// and exposes the operations the transport layer serves. All methods are
// safe for concurrent use; overlapping refreshes are best-effort and may
// both run a loader.
type Engine struct {
	client     repositories.UpstreamClient
	reconciler *domainservices.UOMReconciler
	calculator *capacity.Calculator
	builder    *snapshot.Builder
	demand     *demand.Aggregator
	log        *logrus.Logger
	cfg        EngineConfig

	bomCache *cache.Value[*entities.BillOfMaterials]
	// seedBOM is the shipped program BOM, served only when the explosion
	// source fails and nothing is cached
	seedBOM *entities.BillOfMaterials
}

// NewEngine creates an engine with its caches empty. seedBOM may be nil; when
// present it is the last-resort BOM fallback.
func NewEngine(
	client repositories.UpstreamClient,
	reconciler *domainservices.UOMReconciler,
	seedBOM *entities.BillOfMaterials,
	cfg EngineConfig,
	log *logrus.Logger,
) *Engine {
	defaults := DefaultEngineConfig()
	if cfg.BOMTTL <= 0 {
		cfg.BOMTTL = defaults.BOMTTL
	}
	if cfg.PartInfoTTL <= 0 {
		cfg.PartInfoTTL = defaults.PartInfoTTL
	}
	if cfg.JobSetTTL <= 0 {
		cfg.JobSetTTL = defaults.JobSetTTL
	}
	if cfg.JobDemandTTL <= 0 {
		cfg.JobDemandTTL = defaults.JobDemandTTL
	}
	if cfg.SnapshotWorkers <= 0 {
		cfg.SnapshotWorkers = defaults.SnapshotWorkers
	}
	if cfg.JobWorkers <= 0 {
		cfg.JobWorkers = defaults.JobWorkers
	}
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = defaults.MaxJobs
	}

	return &Engine{
		client:     client,
		reconciler: reconciler,
		calculator: capacity.NewCalculator(reconciler),
		builder: snapshot.NewBuilder(client, reconciler, snapshot.Config{
			Workers:     cfg.SnapshotWorkers,
			PartInfoTTL: cfg.PartInfoTTL,
		}, log),
		demand: demand.NewAggregator(client, demand.Config{
			CustomerID: cfg.CustomerID,
			MaxJobs:    cfg.MaxJobs,
			Workers:    cfg.JobWorkers,
			JobSetTTL:  cfg.JobSetTTL,
			TotalsTTL:  cfg.JobDemandTTL,
		}, log),
		log:      log,
		cfg:      cfg,
		bomCache: cache.NewValue[*entities.BillOfMaterials](cfg.BOMTTL),
		seedBOM:  seedBOM,
	}
}

// GetBillOfMaterials returns the current BOM structure, refreshing the cache
// when expired or when forceRefresh is set. A failed refresh serves the
// prior value; with nothing cached the shipped seed BOM is served; the error
// propagates only when neither exists.
func (e *Engine) GetBillOfMaterials(ctx context.Context, forceRefresh bool) (*entities.BillOfMaterials, error) {
	if forceRefresh {
		e.bomCache.Invalidate()
	}

	bom, err := e.bomCache.GetOrRefresh(ctx, func(ctx context.Context) (*entities.BillOfMaterials, error) {
		return e.client.FetchBOMExplosion(ctx, e.cfg.RootRef)
	})
	if err == nil {
		return bom, nil
	}
	if bom != nil {
		e.log.WithError(err).Warn("serving stale BOM structure")
		return bom, nil
	}
	if e.seedBOM != nil {
		e.log.WithError(err).Warn("BOM explosion unavailable, serving shipped seed BOM")
		return e.seedBOM, nil
	}
	return nil, fmt.Errorf("failed to resolve BOM for %s: %w", e.cfg.RootRef, err)
}

// GetInventorySnapshot fuses balances, part master data, and job demand for
// every component the BOM references
func (e *Engine) GetInventorySnapshot(ctx context.Context) (*dto.InventorySnapshot, error) {
	bom, err := e.GetBillOfMaterials(ctx, false)
	if err != nil {
		return nil, err
	}

	totals, stale, err := e.demand.Totals(ctx, bom)
	if err != nil {
		// No demand figures at all: proceed with zero demand but report the
		// snapshot as degraded via the stale flag.
		e.log.WithError(err).Error("job demand aggregation failed, assuming zero demand")
		totals = demand.Totals{}
		stale = true
	}

	return e.builder.Build(ctx, bom, totals, stale), nil
}

// GetOpenPurchaseLines returns open PO releases for every BOM component.
// Purchase data is recomputed every cycle and never cached.
func (e *Engine) GetOpenPurchaseLines(ctx context.Context) (*dto.PurchaseLinesResult, error) {
	bom, err := e.GetBillOfMaterials(ctx, false)
	if err != nil {
		return nil, err
	}

	lines, err := e.client.FetchOpenPurchaseLines(ctx, bom.Components())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open purchase lines: %w", err)
	}

	return &dto.PurchaseLinesResult{
		Lines:     lines,
		Success:   true,
		Timestamp: time.Now(),
	}, nil
}

// GetCapacityReport derives per-SKU production limits from live data. A
// purchase-line failure degrades to a now-only report (zero incoming) rather
// than failing the whole calculation.
func (e *Engine) GetCapacityReport(ctx context.Context) (*dto.CapacityResult, error) {
	bom, err := e.GetBillOfMaterials(ctx, false)
	if err != nil {
		return nil, err
	}

	snap, err := e.GetInventorySnapshot(ctx)
	if err != nil {
		return nil, err
	}

	lines := map[entities.PartNumber][]entities.OpenPurchaseLine{}
	posResult, err := e.GetOpenPurchaseLines(ctx)
	if err != nil {
		e.log.WithError(err).Error("open PO fetch failed, computing capacity without incoming supply")
		snap.Success = false
	} else {
		lines = posResult.Lines
	}

	result := e.calculator.Calculate(bom, snap, lines)
	return result, nil
}

// InvalidateAllCaches forces the next call to each dependent operation to
// reload. Stored values survive so stale fallback remains possible.
func (e *Engine) InvalidateAllCaches() {
	e.bomCache.Invalidate()
	e.builder.InvalidatePartInfo()
	e.demand.Invalidate()
	e.log.Info("all caches invalidated")
}

// Ping probes upstream connectivity
func (e *Engine) Ping(ctx context.Context) error {
	return e.client.Ping(ctx)
}
