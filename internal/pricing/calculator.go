package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/spigell/rfp-responder/internal/matching"
)

const notFoundMessage = "No pricing available"

// placeholder is emitted for the SKU and score of lines without a match.
const placeholder = "-"

// DefaultQuantity is the quantity batch pricing uses for every matched line.
var DefaultQuantity = decimal.NewFromInt(1)

// Breakdown is the price of a SKU at a quantity. When Found is false only SKUID and Message
// are meaningful.
type Breakdown struct {
	SKUID             string
	Found             bool
	Message           string
	Currency          string
	Quantity          decimal.Decimal
	BaseMaterialCost  decimal.Decimal
	TestingCost       decimal.Decimal
	TotalMaterialCost decimal.Decimal
	TotalTestingCost  decimal.Decimal
	TotalCost         decimal.Decimal
}

type foundJSON struct {
	SKUID             string      `json:"sku_id"`
	Currency          string      `json:"currency"`
	Quantity          json.Number `json:"quantity"`
	BaseMaterialCost  json.Number `json:"base_material_cost"`
	TestingCost       json.Number `json:"testing_cost"`
	TotalMaterialCost json.Number `json:"total_material_cost"`
	TotalTestingCost  json.Number `json:"total_testing_cost"`
	TotalCost         json.Number `json:"total_cost"`
	Found             bool        `json:"found"`
}

type notFoundJSON struct {
	SKUID   string `json:"sku_id"`
	Found   bool   `json:"found"`
	Message string `json:"message"`
}

// MarshalJSON writes amounts as plain JSON numbers and drops the cost fields of a miss.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	if !b.Found {
		return json.Marshal(notFoundJSON{SKUID: b.SKUID, Found: false, Message: b.Message})
	}

	return json.Marshal(foundJSON{
		SKUID:             b.SKUID,
		Currency:          b.Currency,
		Quantity:          number(b.Quantity),
		BaseMaterialCost:  number(b.BaseMaterialCost),
		TestingCost:       number(b.TestingCost),
		TotalMaterialCost: number(b.TotalMaterialCost),
		TotalTestingCost:  number(b.TotalTestingCost),
		TotalCost:         number(b.TotalCost),
		Found:             true,
	})
}

// PricedItem is one requirement line of a batch. Pricing is nil when the line had no match.
type PricedItem struct {
	RFPItem      string
	BestMatchSKU string
	MatchScore   int
	Pricing      *Breakdown
}

// Matched reports whether the line had a candidate to price.
func (p PricedItem) Matched() bool {
	return p.Pricing != nil
}

// MarshalJSON writes "-" for the SKU and score of an unmatched line.
func (p PricedItem) MarshalJSON() ([]byte, error) {
	out := struct {
		RFPItem      string     `json:"rfp_item"`
		BestMatchSKU string     `json:"best_match_sku"`
		MatchScore   any        `json:"match_score"`
		Pricing      *Breakdown `json:"pricing"`
	}{
		RFPItem:      p.RFPItem,
		BestMatchSKU: p.BestMatchSKU,
		MatchScore:   p.MatchScore,
		Pricing:      p.Pricing,
	}

	if !p.Matched() {
		out.BestMatchSKU = placeholder
		out.MatchScore = placeholder
	}

	return json.Marshal(out)
}

// Batch prices every line of a technical result.
type Batch struct {
	PricedItems []PricedItem
	GrandTotal  decimal.Decimal
	Currency    string
	// MixedCurrency lists priced SKUs whose own currency differs from Currency. Their totals
	// are still summed into GrandTotal.
	MixedCurrency []string
}

// MarshalJSON writes the grand total as a plain JSON number.
func (b Batch) MarshalJSON() ([]byte, error) {
	items := b.PricedItems
	if items == nil {
		items = []PricedItem{}
	}

	return json.Marshal(struct {
		PricedItems   []PricedItem `json:"priced_items"`
		GrandTotal    json.Number  `json:"grand_total"`
		Currency      string       `json:"currency"`
		MixedCurrency []string     `json:"mixed_currency,omitempty"`
	}{
		PricedItems:   items,
		GrandTotal:    number(b.GrandTotal),
		Currency:      b.Currency,
		MixedCurrency: b.MixedCurrency,
	})
}

// Calculator prices SKUs from a pricing table. It is safe for concurrent use.
type Calculator struct {
	table    *Table
	currency string
}

// NewCalculator returns a calculator labelling batches with currency, DefaultCurrency when empty.
func NewCalculator(t *Table, currency string) *Calculator {
	if t == nil {
		t = NewTable(nil)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Calculator{table: t, currency: currency}
}

// Currency returns the batch currency label.
func (c *Calculator) Currency() string {
	return c.currency
}

// PriceItem prices quantity units of a SKU. An unknown SKU gives a not-found breakdown.
func (c *Calculator) PriceItem(skuID string, quantity decimal.Decimal) Breakdown {
	row, ok := c.table.Lookup(skuID)
	if !ok {
		return Breakdown{SKUID: skuID, Found: false, Message: notFoundMessage}
	}

	material := row.BaseMaterialCost.Mul(quantity)
	testing := row.TestingCost.Mul(quantity)

	return Breakdown{
		SKUID:             row.SKUID,
		Found:             true,
		Currency:          row.Currency,
		Quantity:          quantity,
		BaseMaterialCost:  row.BaseMaterialCost,
		TestingCost:       row.TestingCost,
		TotalMaterialCost: material,
		TotalTestingCost:  testing,
		TotalCost:         material.Add(testing),
	}
}

// PriceFromMatches prices the best candidate of every line at DefaultQuantity, keeping line
// order. Unmatched lines and unpriced SKUs add nothing to the grand total.
func (c *Calculator) PriceFromMatches(tr *matching.TechnicalResult) *Batch {
	batch := &Batch{
		PricedItems: make([]PricedItem, 0),
		GrandTotal:  decimal.Zero,
		Currency:    c.currency,
	}
	if tr == nil {
		return batch
	}

	seen := make(map[string]bool)
	for _, item := range tr.Items {
		best, ok := item.Best()
		if !ok {
			batch.PricedItems = append(batch.PricedItems, PricedItem{RFPItem: item.RFPItem})
			continue
		}

		breakdown := c.PriceItem(best.SKUID, DefaultQuantity)
		if breakdown.Found {
			batch.GrandTotal = batch.GrandTotal.Add(breakdown.TotalCost)
			if breakdown.Currency != c.currency && !seen[breakdown.SKUID] {
				seen[breakdown.SKUID] = true
				batch.MixedCurrency = append(batch.MixedCurrency, breakdown.SKUID)
			}
		}

		batch.PricedItems = append(batch.PricedItems, PricedItem{
			RFPItem:      item.RFPItem,
			BestMatchSKU: best.SKUID,
			MatchScore:   best.Score,
			Pricing:      &breakdown,
		})
	}

	return batch
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
