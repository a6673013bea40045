// Package memory provides a scripted in-memory implementation of the
// upstream query contract for tests and local runs without ERP access.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
	"github.com/waseem-amtrend/capacity/pkg/domain/repositories"
)

// UpstreamClient is a scripted UpstreamClient. Failures can be injected per
// part or per job to exercise partial-failure and stale-cache paths. Safe
// for concurrent use.
type UpstreamClient struct {
	mu sync.RWMutex

	bom          *entities.BillOfMaterials
	bomErr       error
	partInfo     map[entities.PartNumber]entities.PartInfo
	partInfoErr  map[entities.PartNumber]error
	balances     map[entities.PartNumber]entities.PartBalance
	balanceErr   map[entities.PartNumber]error
	purchases    map[entities.PartNumber][]entities.OpenPurchaseLine
	purchasesErr error
	jobs         []entities.OpenJob
	jobsErr      error
	jobMaterials map[string][]entities.JobMaterial
	jobErr       map[string]error
	pingErr      error

	balanceCalls map[entities.PartNumber]int
	bomCalls     int
}

// Verify interface compliance
var _ repositories.UpstreamClient = (*UpstreamClient)(nil)

// NewUpstreamClient creates an empty scripted client
func NewUpstreamClient() *UpstreamClient {
	return &UpstreamClient{
		partInfo:     make(map[entities.PartNumber]entities.PartInfo),
		partInfoErr:  make(map[entities.PartNumber]error),
		balances:     make(map[entities.PartNumber]entities.PartBalance),
		balanceErr:   make(map[entities.PartNumber]error),
		purchases:    make(map[entities.PartNumber][]entities.OpenPurchaseLine),
		jobMaterials: make(map[string][]entities.JobMaterial),
		jobErr:       make(map[string]error),
		balanceCalls: make(map[entities.PartNumber]int),
	}
}

// SetBOM scripts the BOM explosion result
func (c *UpstreamClient) SetBOM(bom *entities.BillOfMaterials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bom = bom
	c.bomErr = nil
}

// SetBOMError scripts a BOM explosion failure
func (c *UpstreamClient) SetBOMError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bomErr = err
}

// AddPartInfo scripts part master data for one part
func (c *UpstreamClient) AddPartInfo(info entities.PartInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partInfo[info.Part] = info
}

// SetPartInfoError scripts a part master failure for one part
func (c *UpstreamClient) SetPartInfoError(part entities.PartNumber, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partInfoErr[part] = err
}

// AddBalance scripts warehouse balances for one part
func (c *UpstreamClient) AddBalance(balance entities.PartBalance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[balance.Part] = balance
}

// SetBalanceError scripts a balance failure for one part
func (c *UpstreamClient) SetBalanceError(part entities.PartNumber, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balanceErr[part] = err
}

// AddPurchaseLine scripts one open PO release
func (c *UpstreamClient) AddPurchaseLine(line entities.OpenPurchaseLine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purchases[line.Part] = append(c.purchases[line.Part], line)
}

// SetPurchasesError scripts a PO query failure
func (c *UpstreamClient) SetPurchasesError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purchasesErr = err
}

// AddJob scripts one open job; add in most-recent-first order
func (c *UpstreamClient) AddJob(job entities.OpenJob, materials ...entities.JobMaterial) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
	c.jobMaterials[job.JobNum] = materials
}

// SetJobsError scripts an open-job query failure
func (c *UpstreamClient) SetJobsError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobsErr = err
}

// SetJobMaterialsError scripts a material fetch failure for one job
func (c *UpstreamClient) SetJobMaterialsError(jobNum string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobErr[jobNum] = err
}

// SetPingError scripts connectivity probe failure
func (c *UpstreamClient) SetPingError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingErr = err
}

// BalanceCalls returns how many balance fetches ran for a part
func (c *UpstreamClient) BalanceCalls(part entities.PartNumber) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balanceCalls[part]
}

// BOMCalls returns how many BOM explosions ran
func (c *UpstreamClient) BOMCalls() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bomCalls
}

// FetchBOMExplosion returns the scripted BOM
func (c *UpstreamClient) FetchBOMExplosion(ctx context.Context, rootRef string) (*entities.BillOfMaterials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bomCalls++
	if c.bomErr != nil {
		return nil, c.bomErr
	}
	if c.bom == nil {
		return nil, fmt.Errorf("%w: no BOM scripted for %s", repositories.ErrNoRows, rootRef)
	}
	return c.bom, nil
}

// FetchPartInfo returns scripted part master data
func (c *UpstreamClient) FetchPartInfo(ctx context.Context, part entities.PartNumber) (*entities.PartInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.partInfoErr[part]; err != nil {
		return nil, err
	}
	info, ok := c.partInfo[part]
	if !ok {
		return nil, fmt.Errorf("%w: part %s", repositories.ErrNoRows, part)
	}
	return &info, nil
}

// FetchInventoryBalances returns scripted balances
func (c *UpstreamClient) FetchInventoryBalances(ctx context.Context, part entities.PartNumber) (*entities.PartBalance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balanceCalls[part]++
	if err := c.balanceErr[part]; err != nil {
		return nil, err
	}
	balance, ok := c.balances[part]
	if !ok {
		return nil, fmt.Errorf("%w: no balances for part %s", repositories.ErrNoRows, part)
	}
	return &balance, nil
}

// FetchOpenPurchaseLines returns scripted PO releases for the requested parts
func (c *UpstreamClient) FetchOpenPurchaseLines(ctx context.Context, parts []entities.PartNumber) (map[entities.PartNumber][]entities.OpenPurchaseLine, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.purchasesErr != nil {
		return nil, c.purchasesErr
	}
	result := make(map[entities.PartNumber][]entities.OpenPurchaseLine)
	for _, part := range parts {
		if lines, ok := c.purchases[part]; ok {
			result[part] = append([]entities.OpenPurchaseLine(nil), lines...)
		}
	}
	return result, nil
}

// FetchOpenJobs returns scripted open jobs
func (c *UpstreamClient) FetchOpenJobs(ctx context.Context, customerID string) ([]entities.OpenJob, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.jobsErr != nil {
		return nil, c.jobsErr
	}
	return append([]entities.OpenJob(nil), c.jobs...), nil
}

// FetchOpenJobMaterials returns scripted job material lines
func (c *UpstreamClient) FetchOpenJobMaterials(ctx context.Context, jobNum string) ([]entities.JobMaterial, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.jobErr[jobNum]; err != nil {
		return nil, err
	}
	return append([]entities.JobMaterial(nil), c.jobMaterials[jobNum]...), nil
}

// Ping returns the scripted probe result
func (c *UpstreamClient) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pingErr
}
