// Package epicor implements the upstream query contract against the Epicor
// Kinetic REST API (v1 business-object and BAQ surfaces). The client does no
// caching and no retries; callers own the degradation policy.
package epicor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
	"github.com/waseem-amtrend/capacity/pkg/domain/repositories"
)

// Config holds connection settings for the Epicor REST API. Credentials come
// from the environment; there are no defaults.
type Config struct {
	BaseURL  string
	Username string
	Password string
	APIKey   string
	Company  string
	// Timeout bounds each upstream call; the Ping probe uses a shorter one
	Timeout time.Duration
}

// Client queries the Epicor REST API
type Client struct {
	cfg  Config
	http *http.Client
	log  *logrus.Logger
}

// Verify interface compliance
var _ repositories.UpstreamClient = (*Client)(nil)

// NewClient creates an Epicor client. A zero Timeout defaults to 30s.
func NewClient(cfg Config, log *logrus.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("epicor base URL cannot be empty")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("epicor credentials cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}, nil
}

// valueEnvelope is the standard OData response wrapper
type valueEnvelope struct {
	Value []json.RawMessage `json:"value"`
}

// get issues one GET against a service path with query parameters and
// decodes the OData value envelope
func (c *Client) get(ctx context.Context, svcPath string, params url.Values) ([]json.RawMessage, error) {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + svcPath
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", svcPath, err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repositories.ErrUpstreamUnavailable, svcPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", repositories.ErrUpstreamUnavailable, svcPath, resp.StatusCode)
	}

	var envelope valueEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", svcPath, err)
	}
	return envelope.Value, nil
}

// FetchBOMExplosion resolves the SKU-to-component structure for one quote
// reference through the QuoteBOM BAQ. Rows arrive in quote-line then
// material order, which becomes the BOM's declared order.
func (c *Client) FetchBOMExplosion(ctx context.Context, rootRef string) (*entities.BillOfMaterials, error) {
	params := url.Values{}
	params.Set("QuoteNum", rootRef)

	rows, err := c.get(ctx, "BaqSvc/QuoteBOM", params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: quote %s has no BOM rows", repositories.ErrNoRows, rootRef)
	}

	type bomRow struct {
		SKU         string     `json:"QuoteDtl_PartNum"`
		Description string     `json:"QuoteDtl_LineDesc"`
		CustomerPN  string     `json:"QuoteDtl_XPartNum"`
		QuoteLine   flexNumber `json:"QuoteDtl_QuoteLine"`
		Component   string     `json:"QuoteMtl_PartNum"`
		QtyPer      flexNumber `json:"QuoteMtl_QtyPer"`
		Unit        string     `json:"QuoteMtl_UOM"`
		Class       string     `json:"QuoteMtl_Class"`
	}

	type skuAccum struct {
		description string
		customerPN  string
		quoteLine   string
		components  []entities.ComponentUsage
	}

	var order []entities.PartNumber
	accum := make(map[entities.PartNumber]*skuAccum)

	for _, raw := range rows {
		var row bomRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decoding QuoteBOM row: %w", err)
		}
		sku := entities.PartNumber(row.SKU)
		if sku == "" || row.Component == "" {
			continue
		}

		a, ok := accum[sku]
		if !ok {
			a = &skuAccum{
				description: row.Description,
				customerPN:  row.CustomerPN,
				quoteLine:   fmt.Sprintf("%s-%d", rootRef, row.QuoteLine.Int()),
			}
			accum[sku] = a
			order = append(order, sku)
		}

		usage, err := entities.NewComponentUsage(
			entities.PartNumber(row.Component),
			row.QtyPer.Decimal(),
			orDefault(row.Unit, "EA"),
			entities.ParseComponentCategory(row.Class),
		)
		if err != nil {
			return nil, fmt.Errorf("quote %s component %s: %w", rootRef, row.Component, err)
		}
		a.components = append(a.components, *usage)
	}

	assemblies := make([]entities.Assembly, 0, len(order))
	for _, sku := range order {
		a := accum[sku]
		assembly, err := entities.NewAssembly(sku, a.description, a.customerPN, a.quoteLine, a.components)
		if err != nil {
			return nil, fmt.Errorf("quote %s: %w", rootRef, err)
		}
		assemblies = append(assemblies, *assembly)
	}

	return entities.NewBillOfMaterials(assemblies)
}

// FetchPartInfo returns part description and inventory UOM from the part
// master
func (c *Client) FetchPartInfo(ctx context.Context, part entities.PartNumber) (*entities.PartInfo, error) {
	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("PartNum eq '%s'", part))
	params.Set("$top", "1")
	params.Set("$select", "PartNum,PartDescription,IUM")

	rows, err := c.get(ctx, "Erp.BO.PartSvc/Parts", params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: part %s not found", repositories.ErrNoRows, part)
	}

	var row struct {
		Description string `json:"PartDescription"`
		IUM         string `json:"IUM"`
	}
	if err := json.Unmarshal(rows[0], &row); err != nil {
		return nil, fmt.Errorf("decoding part %s: %w", part, err)
	}

	return &entities.PartInfo{
		Part:        part,
		Description: row.Description,
		BaseUnit:    orDefault(row.IUM, "EA"),
	}, nil
}

// FetchInventoryBalances returns per-warehouse balances for one part. The
// warehouse-balance source is preferred; when it has no rows the
// cost-search source supplies a single synthetic TOTAL warehouse with zero
// allocated.
func (c *Client) FetchInventoryBalances(ctx context.Context, part entities.PartNumber) (*entities.PartBalance, error) {
	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("PartNum eq '%s'", part))
	params.Set("$select", "PartNum,WarehouseCode,OnHandQty,AllocatedQty")

	rows, err := c.get(ctx, "Erp.BO.PartSvc/PartWhses", params)
	if err != nil {
		c.log.WithError(err).WithField("part", part).Warn("PartWhses query failed, trying cost search")
	}

	if len(rows) > 0 {
		warehouses := make([]entities.WarehouseBalance, 0, len(rows))
		for _, raw := range rows {
			var row struct {
				WarehouseCode string     `json:"WarehouseCode"`
				OnHandQty     flexNumber `json:"OnHandQty"`
				AllocatedQty  flexNumber `json:"AllocatedQty"`
			}
			if err := json.Unmarshal(raw, &row); err != nil {
				return nil, fmt.Errorf("decoding PartWhses row for %s: %w", part, err)
			}
			warehouses = append(warehouses, entities.WarehouseBalance{
				WarehouseCode: row.WarehouseCode,
				OnHand:        row.OnHandQty.Decimal(),
				Allocated:     row.AllocatedQty.Decimal(),
			})
		}
		return entities.NewPartBalance(part, warehouses)
	}

	return c.fetchCostSearchBalance(ctx, part)
}

// fetchCostSearchBalance is the weaker inventory fallback: total on-hand
// only, no per-warehouse detail, nothing allocated.
func (c *Client) fetchCostSearchBalance(ctx context.Context, part entities.PartNumber) (*entities.PartBalance, error) {
	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("PartNum eq '%s'", part))
	params.Set("$top", "1")
	params.Set("$select", "PartNum,TotalQtyAvg")

	rows, err := c.get(ctx, "Erp.BO.PartCostSearchSvc/PartCostSearches", params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no balance rows for part %s", repositories.ErrNoRows, part)
	}

	var row struct {
		TotalQtyAvg flexNumber `json:"TotalQtyAvg"`
	}
	if err := json.Unmarshal(rows[0], &row); err != nil {
		return nil, fmt.Errorf("decoding PartCostSearches row for %s: %w", part, err)
	}

	return entities.NewPartBalance(part, []entities.WarehouseBalance{{
		WarehouseCode: "TOTAL",
		OnHand:        row.TotalQtyAvg.Decimal(),
	}})
}

// FetchOpenPurchaseLines returns open PO releases keyed by part. The
// pre-joined MRP_POs BAQ is preferred for its vendor and status coverage;
// the raw release table is the fallback.
func (c *Client) FetchOpenPurchaseLines(ctx context.Context, parts []entities.PartNumber) (map[entities.PartNumber][]entities.OpenPurchaseLine, error) {
	wanted := make(map[entities.PartNumber]bool, len(parts))
	for _, p := range parts {
		wanted[p] = true
	}

	rows, err := c.get(ctx, "BaqSvc/MRP_POs", nil)
	if err == nil && len(rows) > 0 {
		return c.decodeBaqPOLines(rows, wanted)
	}
	if err != nil {
		c.log.WithError(err).Warn("MRP_POs BAQ failed, falling back to PORels")
	}

	return c.fetchRawPORels(ctx, parts)
}

func (c *Client) decodeBaqPOLines(rows []json.RawMessage, wanted map[entities.PartNumber]bool) (map[entities.PartNumber][]entities.OpenPurchaseLine, error) {
	result := make(map[entities.PartNumber][]entities.OpenPurchaseLine)
	for _, raw := range rows {
		var row struct {
			Part        string     `json:"PODetail_PartNum"`
			PONum       flexNumber `json:"PORel_PONum"`
			POLine      flexNumber `json:"PORel_POLine"`
			RelNum      flexNumber `json:"PORel_PORelNum"`
			Description string     `json:"PODetail_LineDesc"`
			VendorName  string     `json:"Vendor_Name"`
			RelQty      flexNumber `json:"PORel_XRelQty"`
			RecvQty     flexNumber `json:"PORel_ReceivedQty"`
			Unit        string     `json:"PORel_BaseUOM"`
			DueDate     string     `json:"PORel_DueDate"`
			PromiseDate string     `json:"PORel_PromiseDt"`
			Status      string     `json:"Calculated_Status"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decoding MRP_POs row: %w", err)
		}
		part := entities.PartNumber(row.Part)
		if !wanted[part] {
			continue
		}

		line, err := entities.NewOpenPurchaseLine(
			row.PONum.Int(), row.POLine.Int(), row.RelNum.Int(),
			part, row.Description, row.VendorName,
			row.RelQty.Decimal(), row.RecvQty.Decimal(),
			orDefault(row.Unit, "EA"), row.DueDate, row.PromiseDate,
			orDefault(row.Status, "Open"),
		)
		if err != nil {
			c.log.WithError(err).WithField("part", part).Warn("skipping malformed PO row")
			continue
		}
		result[part] = append(result[part], *line)
	}
	return result, nil
}

// fetchRawPORels queries open releases directly. Field coverage is weaker:
// no vendor name, no line description, base UOM assumed.
func (c *Client) fetchRawPORels(ctx context.Context, parts []entities.PartNumber) (map[entities.PartNumber][]entities.OpenPurchaseLine, error) {
	filters := make([]string, len(parts))
	for i, p := range parts {
		filters[i] = fmt.Sprintf("PartNum eq '%s'", p)
	}

	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("(%s) and OpenRelease eq true", strings.Join(filters, " or ")))
	params.Set("$select", "PONum,POLine,PORelNum,PartNum,XRelQty,ReceivedQty,DueDate,PromiseDt")
	params.Set("$orderby", "DueDate")

	rows, err := c.get(ctx, "Erp.BO.POSvc/PORels", params)
	if err != nil {
		return nil, err
	}

	result := make(map[entities.PartNumber][]entities.OpenPurchaseLine)
	for _, raw := range rows {
		var row struct {
			Part        string     `json:"PartNum"`
			PONum       flexNumber `json:"PONum"`
			POLine      flexNumber `json:"POLine"`
			RelNum      flexNumber `json:"PORelNum"`
			RelQty      flexNumber `json:"XRelQty"`
			RecvQty     flexNumber `json:"ReceivedQty"`
			DueDate     string     `json:"DueDate"`
			PromiseDate string     `json:"PromiseDt"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decoding PORels row: %w", err)
		}
		part := entities.PartNumber(row.Part)

		line, err := entities.NewOpenPurchaseLine(
			row.PONum.Int(), row.POLine.Int(), row.RelNum.Int(),
			part, "", "",
			row.RelQty.Decimal(), row.RecvQty.Decimal(),
			"EA", row.DueDate, row.PromiseDate, "Open",
		)
		if err != nil {
			c.log.WithError(err).WithField("part", part).Warn("skipping malformed PO release")
			continue
		}
		result[part] = append(result[part], *line)
	}
	return result, nil
}

// FetchOpenJobs returns open jobs for a customer, most recently started
// first
func (c *Client) FetchOpenJobs(ctx context.Context, customerID string) ([]entities.OpenJob, error) {
	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("JobClosed eq false and CustID eq '%s'", customerID))
	params.Set("$select", "JobNum,PartNum,StartDate")
	params.Set("$orderby", "StartDate desc")

	rows, err := c.get(ctx, "Erp.BO.JobEntrySvc/JobHeads", params)
	if err != nil {
		return nil, err
	}

	jobs := make([]entities.OpenJob, 0, len(rows))
	for _, raw := range rows {
		var row struct {
			JobNum    string `json:"JobNum"`
			PartNum   string `json:"PartNum"`
			StartDate string `json:"StartDate"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decoding JobHeads row: %w", err)
		}
		started, _ := time.Parse("2006-01-02T15:04:05", row.StartDate)
		jobs = append(jobs, entities.OpenJob{
			JobNum:    row.JobNum,
			Part:      entities.PartNumber(row.PartNum),
			StartDate: started,
		})
	}
	return jobs, nil
}

// FetchOpenJobMaterials returns material requirement lines for one job. The
// job system reports quantities in consumption units.
func (c *Client) FetchOpenJobMaterials(ctx context.Context, jobNum string) ([]entities.JobMaterial, error) {
	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("JobNum eq '%s'", jobNum))
	params.Set("$select", "JobNum,PartNum,RequiredQty,IssuedQty")

	rows, err := c.get(ctx, "Erp.BO.JobEntrySvc/JobMtls", params)
	if err != nil {
		return nil, err
	}

	materials := make([]entities.JobMaterial, 0, len(rows))
	for _, raw := range rows {
		var row struct {
			PartNum     string     `json:"PartNum"`
			RequiredQty flexNumber `json:"RequiredQty"`
			IssuedQty   flexNumber `json:"IssuedQty"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decoding JobMtls row for %s: %w", jobNum, err)
		}
		materials = append(materials, entities.JobMaterial{
			JobNum:      jobNum,
			Part:        entities.PartNumber(row.PartNum),
			RequiredQty: row.RequiredQty.Decimal(),
			IssuedQty:   row.IssuedQty.Decimal(),
		})
	}
	return materials, nil
}

// Ping probes connectivity with a minimal part query on a short timeout
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("$top", "1")
	params.Set("$select", "PartNum")

	_, err := c.get(ctx, "Erp.BO.PartSvc/Parts", params)
	return err
}
