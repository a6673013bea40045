// Package snapshot fans the upstream client out across every component the
// BOM references and assembles the per-component inventory picture used by
// the capacity calculator.
package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/waseem-amtrend/capacity/pkg/application/dto"
	"github.com/waseem-amtrend/capacity/pkg/application/services/demand"
	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
	"github.com/waseem-amtrend/capacity/pkg/domain/repositories"
	"github.com/waseem-amtrend/capacity/pkg/domain/services"
	"github.com/waseem-amtrend/capacity/pkg/infrastructure/cache"
)

// defaultBaseUnit is assumed when part master data is unavailable
const defaultBaseUnit = "EA"

// Config holds tuning for the builder
type Config struct {
	// Workers bounds concurrent per-component upstream fetches
	Workers int
	// PartInfoTTL is the freshness window for cached part master data
	PartInfoTTL time.Duration
}

// Builder assembles inventory snapshots. Balances are fetched live every
// cycle; part master data is cached per part since descriptions and base
// units change rarely.
type Builder struct {
	client     repositories.UpstreamClient
	reconciler *services.UOMReconciler
	log        *logrus.Logger
	cfg        Config

	partInfo *cache.Keyed[entities.PartNumber, entities.PartInfo]
}

// NewBuilder creates a snapshot builder. Zero config fields fall back to
// defaults: 5 workers, 1h part-info TTL.
func NewBuilder(client repositories.UpstreamClient, reconciler *services.UOMReconciler, cfg Config, log *logrus.Logger) *Builder {
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.PartInfoTTL <= 0 {
		cfg.PartInfoTTL = time.Hour
	}

	return &Builder{
		client:     client,
		reconciler: reconciler,
		log:        log,
		cfg:        cfg,
		partInfo:   cache.NewKeyed[entities.PartNumber, entities.PartInfo](cfg.PartInfoTTL),
	}
}

// InvalidatePartInfo expires the part master cache, keeping stored values
// for stale fallback
func (b *Builder) InvalidatePartInfo() {
	b.partInfo.InvalidateAll()
}

// Build assembles a snapshot for every distinct component the BOM
// references. Job demand must already be aggregated; it is a shared input to
// every component's true-available figure. A failed component fetch yields a
// zero-quantity snapshot with its error populated and marks the whole
// snapshot unsuccessful without aborting the batch.
func (b *Builder) Build(ctx context.Context, bom *entities.BillOfMaterials, totals demand.Totals, demandStale bool) *dto.InventorySnapshot {
	parts := bom.Components()

	partCh := make(chan entities.PartNumber)
	type built struct {
		part entities.PartNumber
		snap entities.ComponentSnapshot
	}
	results := make(chan built, len(parts))

	var wg sync.WaitGroup
	workers := b.cfg.Workers
	if workers > len(parts) {
		workers = len(parts)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for part := range partCh {
				results <- built{part: part, snap: b.buildComponent(ctx, part, totals)}
			}
		}()
	}

	for _, part := range parts {
		partCh <- part
	}
	close(partCh)
	wg.Wait()
	close(results)

	components := make(map[entities.PartNumber]entities.ComponentSnapshot, len(parts))
	for r := range results {
		components[r.part] = r.snap
	}

	var failed []entities.PartNumber
	for _, part := range parts {
		if components[part].Err != "" {
			failed = append(failed, part)
		}
	}

	return &dto.InventorySnapshot{
		Components:     components,
		Order:          parts,
		FailedParts:    failed,
		Success:        len(failed) == 0,
		DemandSampled:  totals.JobsSampled,
		RefreshID:      uuid.NewString(),
		Timestamp:      time.Now(),
		StaleJobDemand: demandStale,
	}
}

// buildComponent fuses balances, part master data, job demand, and unit
// reconciliation for one component
func (b *Builder) buildComponent(ctx context.Context, part entities.PartNumber, totals demand.Totals) entities.ComponentSnapshot {
	info := b.fetchPartInfo(ctx, part)

	balance, err := b.client.FetchInventoryBalances(ctx, part)
	if err != nil {
		b.log.WithError(err).WithField("part", part).Error("inventory balance fetch failed")
		return entities.FailedComponentSnapshot(part, info.Description, info.BaseUnit, err)
	}

	// Balances originate in storage units. Reconcile on-hand and allocated
	// independently so all availability math happens in consumption units.
	onHand, displayUnit, converted := b.reconciler.Reconcile(part, balance.OnHand, info.BaseUnit)
	allocated, _, _ := b.reconciler.Reconcile(part, balance.Allocated, info.BaseUnit)

	warehouses := make([]entities.WarehouseBalance, len(balance.Warehouses))
	for i, w := range balance.Warehouses {
		wOnHand, _, _ := b.reconciler.Reconcile(part, w.OnHand, info.BaseUnit)
		wAllocated, _, _ := b.reconciler.Reconcile(part, w.Allocated, info.BaseUnit)
		warehouses[i] = entities.WarehouseBalance{
			WarehouseCode: w.WarehouseCode,
			OnHand:        wOnHand,
			Allocated:     wAllocated,
		}
	}

	// Job demand is already in consumption units. True available clamps at
	// zero.
	jobDemand := totals.Outstanding(part)
	available := onHand.Sub(allocated)
	trueAvailable := available.Sub(jobDemand)
	if trueAvailable.IsNegative() {
		trueAvailable = decimal.Zero
	}

	return entities.ComponentSnapshot{
		Part:              part,
		Description:       info.Description,
		OnHand:            onHand,
		Allocated:         allocated,
		JobDemand:         jobDemand,
		Available:         available,
		TrueAvailable:     trueAvailable,
		DisplayUnit:       displayUnit,
		StorageUnit:       info.BaseUnit,
		ConversionApplied: converted,
		Warehouses:        warehouses,
	}
}

// fetchPartInfo resolves part master data through the per-part cache. A
// failed lookup with nothing cached degrades to an empty description and the
// default base unit, matching how the report treats unknown parts.
func (b *Builder) fetchPartInfo(ctx context.Context, part entities.PartNumber) entities.PartInfo {
	info, err := b.partInfo.GetOrRefresh(ctx, part, func(ctx context.Context) (entities.PartInfo, error) {
		fetched, err := b.client.FetchPartInfo(ctx, part)
		if err != nil {
			return entities.PartInfo{}, err
		}
		return *fetched, nil
	})
	if err != nil && info.Part == "" {
		b.log.WithError(err).WithField("part", part).Warn("part info fetch failed, using defaults")
		return entities.PartInfo{Part: part, BaseUnit: defaultBaseUnit}
	}
	if err != nil {
		b.log.WithError(err).WithField("part", part).Debug("serving stale part info")
	}
	if info.BaseUnit == "" {
		info.BaseUnit = defaultBaseUnit
	}
	return info
}
