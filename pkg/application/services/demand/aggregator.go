// Package demand aggregates open-job material requirements into per-part
// demand totals. Aggregation runs in one batched pass across the tracked
// customer's open jobs rather than per component, bounding upstream call
// volume.
package demand

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
	"github.com/waseem-amtrend/capacity/pkg/domain/repositories"
	"github.com/waseem-amtrend/capacity/pkg/infrastructure/cache"
)

// Totals holds aggregated outstanding job-material demand per component.
// Quantities are in consumption units as reported by the job system.
type Totals struct {
	PerPart     map[entities.PartNumber]decimal.Decimal
	JobsSampled int
	ComputedAt  time.Time
}

// Outstanding returns the aggregated demand for one part, zero when none
func (t Totals) Outstanding(part entities.PartNumber) decimal.Decimal {
	if t.PerPart == nil {
		return decimal.Zero
	}
	if d, ok := t.PerPart[part]; ok {
		return d
	}
	return decimal.Zero
}

// Config holds tuning for the aggregator
type Config struct {
	// CustomerID selects whose open jobs are aggregated
	CustomerID string
	// MaxJobs bounds the sample to the most recently opened jobs
	MaxJobs int
	// Workers bounds concurrent per-job material fetches
	Workers int
	// JobSetTTL is the freshness window for the open-job set
	JobSetTTL time.Duration
	// TotalsTTL is the freshness window for the aggregated totals
	TotalsTTL time.Duration
}

// Aggregator computes and caches per-part open-job demand. The open-job set
// and the aggregated totals are cached independently; both serve stale on
// loader failure.
type Aggregator struct {
	client repositories.UpstreamClient
	cfg    Config
	log    *logrus.Logger

	jobSet *cache.Value[[]entities.OpenJob]
	totals *cache.Value[Totals]
}

// NewAggregator creates a demand aggregator. Zero config fields fall back to
// defaults: 50 jobs, 15 workers, 60s job-set TTL, 5m totals TTL.
func NewAggregator(client repositories.UpstreamClient, cfg Config, log *logrus.Logger) *Aggregator {
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = 50
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 15
	}
	if cfg.JobSetTTL <= 0 {
		cfg.JobSetTTL = 60 * time.Second
	}
	if cfg.TotalsTTL <= 0 {
		cfg.TotalsTTL = 5 * time.Minute
	}

	return &Aggregator{
		client: client,
		cfg:    cfg,
		log:    log,
		jobSet: cache.NewValue[[]entities.OpenJob](cfg.JobSetTTL),
		totals: cache.NewValue[Totals](cfg.TotalsTTL),
	}
}

// Totals returns aggregated outstanding demand for components of the given
// BOM's finished goods. stale reports that a cached value was served because
// the last refresh failed; err is non-nil only when no totals exist at all.
func (a *Aggregator) Totals(ctx context.Context, bom *entities.BillOfMaterials) (Totals, bool, error) {
	totals, err := a.totals.GetOrRefresh(ctx, func(ctx context.Context) (Totals, error) {
		return a.aggregate(ctx, bom)
	})
	if err != nil {
		if totals.PerPart == nil {
			return Totals{}, false, err
		}
		a.log.WithError(err).Warn("serving stale job demand totals")
		return totals, true, nil
	}
	return totals, false, nil
}

// Invalidate expires both caches, keeping stored values for stale fallback
func (a *Aggregator) Invalidate() {
	a.jobSet.Invalidate()
	a.totals.Invalidate()
}

// aggregate is the totals cache loader: resolve the open-job sample, then
// fan out per-job material fetches with bounded concurrency and sum the
// outstanding quantities.
func (a *Aggregator) aggregate(ctx context.Context, bom *entities.BillOfMaterials) (Totals, error) {
	jobs, err := a.jobSet.GetOrRefresh(ctx, func(ctx context.Context) ([]entities.OpenJob, error) {
		return a.client.FetchOpenJobs(ctx, a.cfg.CustomerID)
	})
	if err != nil {
		if jobs == nil {
			return Totals{}, fmt.Errorf("failed to fetch open jobs for %s: %w", a.cfg.CustomerID, err)
		}
		a.log.WithError(err).Warn("serving stale open-job set")
	}

	sample := a.sampleJobs(jobs, bom)
	if len(sample) == 0 {
		return Totals{
			PerPart:    map[entities.PartNumber]decimal.Decimal{},
			ComputedAt: time.Now(),
		}, nil
	}

	type jobResult struct {
		materials []entities.JobMaterial
		err       error
	}

	jobCh := make(chan entities.OpenJob)
	results := make(chan jobResult, len(sample))

	var wg sync.WaitGroup
	workers := a.cfg.Workers
	if workers > len(sample) {
		workers = len(sample)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				materials, err := a.client.FetchOpenJobMaterials(ctx, job.JobNum)
				if err != nil {
					err = fmt.Errorf("job %s: %w", job.JobNum, err)
				}
				results <- jobResult{materials: materials, err: err}
			}
		}()
	}

	for _, job := range sample {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()
	close(results)

	perPart := make(map[entities.PartNumber]decimal.Decimal)
	failed := 0
	for r := range results {
		if r.err != nil {
			failed++
			a.log.WithError(r.err).Warn("job material fetch failed")
			continue
		}
		for _, m := range r.materials {
			perPart[m.Part] = perPart[m.Part].Add(m.Outstanding())
		}
	}

	// All-job failure means the aggregate carries no signal; let the cache
	// serve the prior value instead.
	if failed == len(sample) {
		return Totals{}, fmt.Errorf("all %d job material fetches failed", failed)
	}

	return Totals{
		PerPart:     perPart,
		JobsSampled: len(sample) - failed,
		ComputedAt:  time.Now(),
	}, nil
}

// sampleJobs filters jobs to those producing a tracked finished good and
// bounds the result to the most recent MaxJobs. Upstream returns jobs most
// recently opened first.
func (a *Aggregator) sampleJobs(jobs []entities.OpenJob, bom *entities.BillOfMaterials) []entities.OpenJob {
	var sample []entities.OpenJob
	for _, job := range jobs {
		if !bom.HasSKU(job.Part) {
			continue
		}
		sample = append(sample, job)
		if len(sample) == a.cfg.MaxJobs {
			break
		}
	}
	return sample
}
