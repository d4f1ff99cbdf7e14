package pricing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/spigell/rfp-responder/internal/matching"
)

const pricingCSV = `sku_id,base_material_cost,testing_cost,currency
SKU-001,100,20,INR
SKU-002,55.5,4.5,
SKU-003,abc,10,INR
SKU-004,-1,10,INR
SKU-005,10
SKU-006,30,5,USD
`

func testTable(t *testing.T) *Table {
	t.Helper()

	table, err := ReadTable(strings.NewReader(pricingCSV))
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	return table
}

func TestReadTableSkipsMalformedRows(t *testing.T) {
	table := testTable(t)

	if table.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", table.Len())
	}
	if table.Skipped() != 3 {
		t.Fatalf("expected 3 skipped rows, got %d", table.Skipped())
	}

	for _, id := range []string{"SKU-003", "SKU-004", "SKU-005"} {
		if _, ok := table.Lookup(id); ok {
			t.Fatalf("expected %s to be skipped", id)
		}
	}

	row, ok := table.Lookup("SKU-002")
	if !ok {
		t.Fatalf("expected SKU-002")
	}
	if row.Currency != DefaultCurrency {
		t.Fatalf("expected default currency, got %q", row.Currency)
	}
	if !row.BaseMaterialCost.Equal(decimal.RequireFromString("55.5")) {
		t.Fatalf("unexpected base cost %s", row.BaseMaterialCost)
	}
}

func TestReadTableWithoutCurrencyColumn(t *testing.T) {
	table, err := ReadTable(strings.NewReader("sku_id,base_material_cost,testing_cost\nA,1,2\nA,3,4\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row, ok := table.Lookup("A")
	if !ok {
		t.Fatalf("expected row A")
	}
	if row.Currency != DefaultCurrency {
		t.Fatalf("expected %s, got %q", DefaultCurrency, row.Currency)
	}
	if !row.BaseMaterialCost.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected the later duplicate to win, got %s", row.BaseMaterialCost)
	}
}

func TestLoadTableMissingFile(t *testing.T) {
	table, err := LoadTable(filepath.Join(t.TempDir(), "pricing.csv"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Len() != 0 {
		t.Fatalf("expected empty table")
	}
}

func TestLoadTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.csv")
	if err := os.WriteFile(path, []byte(pricingCSV), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := table.Lookup("SKU-001"); !ok {
		t.Fatalf("expected SKU-001")
	}
}

func TestPriceItem(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(testTable(t), "")

	tests := []struct {
		name     string
		sku      string
		quantity decimal.Decimal
		expect   string
	}{
		{
			name:     "found",
			sku:      "SKU-001",
			quantity: decimal.NewFromInt(2),
			expect: `{"sku_id":"SKU-001","currency":"INR","quantity":2,"base_material_cost":100,"testing_cost":20,` +
				`"total_material_cost":200,"total_testing_cost":40,"total_cost":240,"found":true}`,
		},
		{
			name:     "fractional costs",
			sku:      "SKU-002",
			quantity: DefaultQuantity,
			expect: `{"sku_id":"SKU-002","currency":"INR","quantity":1,"base_material_cost":55.5,"testing_cost":4.5,` +
				`"total_material_cost":55.5,"total_testing_cost":4.5,"total_cost":60,"found":true}`,
		},
		{
			name:     "zero quantity",
			sku:      "SKU-001",
			quantity: decimal.Zero,
			expect: `{"sku_id":"SKU-001","currency":"INR","quantity":0,"base_material_cost":100,"testing_cost":20,` +
				`"total_material_cost":0,"total_testing_cost":0,"total_cost":0,"found":true}`,
		},
		{
			name:     "unknown sku",
			sku:      "NOPE",
			quantity: DefaultQuantity,
			expect:   `{"sku_id":"NOPE","found":false,"message":"No pricing available"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw, err := json.Marshal(calc.PriceItem(tt.sku, tt.quantity))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(raw) != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, raw)
			}
		})
	}
}

func TestPriceItemTotals(t *testing.T) {
	calc := NewCalculator(testTable(t), "INR")

	got := calc.PriceItem("SKU-002", decimal.RequireFromString("3"))
	if !got.Found {
		t.Fatalf("expected SKU-002 to be priced")
	}
	if !got.TotalCost.Equal(got.TotalMaterialCost.Add(got.TotalTestingCost)) {
		t.Fatalf("total %s is not material %s + testing %s", got.TotalCost, got.TotalMaterialCost, got.TotalTestingCost)
	}
	if !got.TotalCost.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("expected 180, got %s", got.TotalCost)
	}
}

func TestPriceFromMatches(t *testing.T) {
	calc := NewCalculator(testTable(t), "INR")

	tr := &matching.TechnicalResult{Items: []matching.LineMatch{
		{RFPItem: "4 core copper", TopMatches: []matching.Candidate{{SKUID: "SKU-001", Score: 100}, {SKUID: "SKU-002", Score: 60}}},
		{RFPItem: "junction box", TopMatches: []matching.Candidate{}},
		{RFPItem: "unpriced cable", TopMatches: []matching.Candidate{{SKUID: "SKU-999", Score: 30}}},
		{RFPItem: "aluminium cable", TopMatches: []matching.Candidate{{SKUID: "SKU-002", Score: 80}}},
	}}

	batch := calc.PriceFromMatches(tr)

	if len(batch.PricedItems) != len(tr.Items) {
		t.Fatalf("expected %d priced items, got %d", len(tr.Items), len(batch.PricedItems))
	}
	for i, item := range batch.PricedItems {
		if item.RFPItem != tr.Items[i].RFPItem {
			t.Fatalf("order not preserved at %d: %q", i, item.RFPItem)
		}
	}

	if !batch.GrandTotal.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("expected grand total 180, got %s", batch.GrandTotal)
	}
	if batch.PricedItems[0].BestMatchSKU != "SKU-001" || batch.PricedItems[0].MatchScore != 100 {
		t.Fatalf("expected top-1 candidate to be priced, got %+v", batch.PricedItems[0])
	}
	if batch.PricedItems[1].Matched() {
		t.Fatalf("expected placeholder for unmatched line")
	}
	if batch.PricedItems[2].Pricing == nil || batch.PricedItems[2].Pricing.Found {
		t.Fatalf("expected not-found pricing for SKU-999")
	}
	if len(batch.MixedCurrency) != 0 {
		t.Fatalf("unexpected mixed currency: %v", batch.MixedCurrency)
	}
}

func TestPriceFromMatchesJSON(t *testing.T) {
	calc := NewCalculator(testTable(t), "")

	tr := &matching.TechnicalResult{Items: []matching.LineMatch{
		{RFPItem: "junction box", TopMatches: []matching.Candidate{}},
	}}

	raw, err := json.Marshal(calc.PriceFromMatches(tr))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	expected := `{"priced_items":[{"rfp_item":"junction box","best_match_sku":"-","match_score":"-","pricing":null}],` +
		`"grand_total":0,"currency":"INR"}`
	if string(raw) != expected {
		t.Fatalf("expected %s, got %s", expected, raw)
	}
}

func TestPriceFromMatchesEmpty(t *testing.T) {
	calc := NewCalculator(nil, "")

	for _, tr := range []*matching.TechnicalResult{nil, {}} {
		batch := calc.PriceFromMatches(tr)
		if len(batch.PricedItems) != 0 || !batch.GrandTotal.IsZero() || batch.Currency != DefaultCurrency {
			t.Fatalf("unexpected batch: %+v", batch)
		}
	}
}

func TestPriceFromMatchesFlagsMixedCurrency(t *testing.T) {
	calc := NewCalculator(testTable(t), "INR")

	tr := &matching.TechnicalResult{Items: []matching.LineMatch{
		{RFPItem: "imported cable", TopMatches: []matching.Candidate{{SKUID: "SKU-006", Score: 60}}},
		{RFPItem: "imported cable again", TopMatches: []matching.Candidate{{SKUID: "SKU-006", Score: 60}}},
	}}

	batch := calc.PriceFromMatches(tr)

	if batch.Currency != "INR" {
		t.Fatalf("batch currency label must stay fixed, got %q", batch.Currency)
	}
	if len(batch.MixedCurrency) != 1 || batch.MixedCurrency[0] != "SKU-006" {
		t.Fatalf("expected SKU-006 flagged once, got %v", batch.MixedCurrency)
	}
	if !batch.GrandTotal.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected 70, got %s", batch.GrandTotal)
	}
}
