package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/waseem-amtrend/capacity/pkg/domain/entities"
)

// LoadConversionRules loads the UOM conversion rule table from a CSV file.
// Columns: part_number, storage_unit, consumption_unit, conversion_factor,
// qty_per_override (blank = no override).
func LoadConversionRules(filename string) ([]entities.ConversionRule, error) {
	records, err := readCSV(filename)
	if err != nil {
		return nil, fmt.Errorf("conversion rules: %w", err)
	}

	expectedHeader := []string{"part_number", "storage_unit", "consumption_unit", "conversion_factor", "qty_per_override"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("conversion rules CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	var rules []entities.ConversionRule
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("conversion rules CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		factor, err := decimal.NewFromString(record[3])
		if err != nil {
			return nil, fmt.Errorf("conversion rules CSV row %d: invalid conversion factor %q", i+2, record[3])
		}

		var override *decimal.Decimal
		if strings.TrimSpace(record[4]) != "" {
			o, err := decimal.NewFromString(record[4])
			if err != nil {
				return nil, fmt.Errorf("conversion rules CSV row %d: invalid override %q", i+2, record[4])
			}
			override = &o
		}

		rule, err := entities.NewConversionRule(
			entities.PartNumber(record[0]), record[1], record[2], factor, override,
		)
		if err != nil {
			return nil, fmt.Errorf("conversion rules CSV row %d: %w", i+2, err)
		}
		rules = append(rules, *rule)
	}

	return rules, nil
}

// LoadSeedBOM loads the shipped program BOM from a CSV file. Columns: sku,
// sku_description, customer_part_num, quote_line, component, qty_per, unit,
// category. Rows for one SKU must be contiguous; row order becomes the BOM's
// declared order.
func LoadSeedBOM(filename string) (*entities.BillOfMaterials, error) {
	records, err := readCSV(filename)
	if err != nil {
		return nil, fmt.Errorf("seed BOM: %w", err)
	}

	expectedHeader := []string{"sku", "sku_description", "customer_part_num", "quote_line", "component", "qty_per", "unit", "category"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("seed BOM CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	type skuAccum struct {
		description string
		customerPN  string
		quoteLine   string
		components  []entities.ComponentUsage
	}
	var order []entities.PartNumber
	accum := make(map[entities.PartNumber]*skuAccum)

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("seed BOM CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		sku := entities.PartNumber(record[0])
		qtyPer, err := decimal.NewFromString(record[5])
		if err != nil {
			return nil, fmt.Errorf("seed BOM CSV row %d: invalid qty_per %q", i+2, record[5])
		}

		usage, err := entities.NewComponentUsage(
			entities.PartNumber(record[4]), qtyPer, record[6],
			entities.ParseComponentCategory(record[7]),
		)
		if err != nil {
			return nil, fmt.Errorf("seed BOM CSV row %d: %w", i+2, err)
		}

		a, ok := accum[sku]
		if !ok {
			a = &skuAccum{
				description: record[1],
				customerPN:  record[2],
				quoteLine:   record[3],
			}
			accum[sku] = a
			order = append(order, sku)
		}
		a.components = append(a.components, *usage)
	}

	assemblies := make([]entities.Assembly, 0, len(order))
	for _, sku := range order {
		a := accum[sku]
		assembly, err := entities.NewAssembly(sku, a.description, a.customerPN, a.quoteLine, a.components)
		if err != nil {
			return nil, fmt.Errorf("seed BOM: %w", err)
		}
		assemblies = append(assemblies, *assembly)
	}

	return entities.NewBillOfMaterials(assemblies)
}

func readCSV(filename string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s must have header and at least one data row", filename)
	}
	return records, nil
}

func validateHeader(header, expected []string) bool {
	if len(header) != len(expected) {
		return false
	}
	for i, h := range header {
		if strings.TrimSpace(strings.ToLower(h)) != expected[i] {
			return false
		}
	}
	return true
}
