package repositories

import (
	"context"
	"errors"

	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
)

// ErrNoRows indicates an upstream query succeeded but matched nothing
var ErrNoRows = errors.New("upstream query returned no rows")

// ErrUpstreamUnavailable indicates a transport or timeout failure calling an
// upstream query surface
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// UpstreamClient is the query contract the engine consumes from the ERP.
// Implementations do no caching and no retries; every operation is
// independently fallible and the caller decides how to degrade.
type UpstreamClient interface {
	// FetchBOMExplosion returns the full SKU-to-component structure for one
	// top-level quote reference.
	FetchBOMExplosion(ctx context.Context, rootRef string) (*entities.BillOfMaterials, error)

	// FetchPartInfo returns part master data (description, base unit) for
	// one part.
	FetchPartInfo(ctx context.Context, part entities.PartNumber) (*entities.PartInfo, error)

	// FetchInventoryBalances returns per-warehouse balances for one part.
	// Implementations prefer a warehouse-balance source and fall back to a
	// cost/valuation source that yields only a total with no per-warehouse
	// detail.
	FetchInventoryBalances(ctx context.Context, part entities.PartNumber) (*entities.PartBalance, error)

	// FetchOpenPurchaseLines returns open PO releases for the given parts,
	// keyed by part. Implementations prefer a pre-joined aggregate query and
	// fall back to the raw release table with weaker field coverage.
	FetchOpenPurchaseLines(ctx context.Context, parts []entities.PartNumber) (map[entities.PartNumber][]entities.OpenPurchaseLine, error)

	// FetchOpenJobs returns open production jobs for a customer, most
	// recently opened first.
	FetchOpenJobs(ctx context.Context, customerID string) ([]entities.OpenJob, error)

	// FetchOpenJobMaterials returns the material requirement lines for one
	// job.
	FetchOpenJobMaterials(ctx context.Context, jobNum string) ([]entities.JobMaterial, error)

	// Ping probes upstream connectivity with a minimal query.
	Ping(ctx context.Context) error
}
