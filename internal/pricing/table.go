// Package pricing loads unit costs per SKU and prices matched RFP lines.
package pricing

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"

	"github.com/spigell/rfp-responder/internal/catalog"
)

// DefaultCurrency labels rows without a currency column and batches without a configured label.
const DefaultCurrency = "INR"

var requiredColumns = []string{"sku_id", "base_material_cost", "testing_cost"}

// Row holds the unit costs of one SKU.
type Row struct {
	SKUID            string          `mapstructure:"sku_id"`
	BaseMaterialCost decimal.Decimal `mapstructure:"base_material_cost"`
	TestingCost      decimal.Decimal `mapstructure:"testing_cost"`
	Currency         string          `mapstructure:"currency"`
}

// Table is an immutable lookup of pricing rows by SKU identifier.
type Table struct {
	rows    map[string]Row
	skipped int
}

// NewTable indexes rows by SKU. A later row for the same SKU replaces an earlier one.
func NewTable(rows []Row) *Table {
	t := &Table{rows: make(map[string]Row, len(rows))}
	for _, row := range rows {
		if row.Currency == "" {
			row.Currency = DefaultCurrency
		}
		t.rows[row.SKUID] = row
	}
	return t
}

// LoadTable reads a pricing CSV file. A missing file yields an empty table.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewTable(nil), nil
		}
		return nil, fmt.Errorf("open pricing %q: %w", path, err)
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("read pricing %q: %w", path, err)
	}

	return t, nil
}

// ReadTable parses pricing CSV data. Rows lacking an identifier or a cost, or carrying an
// unparsable or negative cost, are skipped and counted.
func ReadTable(r io.Reader) (*Table, error) {
	records, err := catalog.ReadRecords(r)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(records))
	skipped := 0
	for _, record := range records {
		row, err := decodeRow(record)
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	t := NewTable(rows)
	t.skipped = skipped

	return t, nil
}

func decodeRow(record map[string]any) (Row, error) {
	for _, column := range requiredColumns {
		value, ok := record[column].(string)
		if !ok || strings.TrimSpace(value) == "" {
			return Row{}, fmt.Errorf("missing %s", column)
		}
	}

	var row Row
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: decimalHook,
		Result:     &row,
	})
	if err != nil {
		return Row{}, err
	}
	if err := decoder.Decode(record); err != nil {
		return Row{}, err
	}

	if row.BaseMaterialCost.IsNegative() || row.TestingCost.IsNegative() {
		return Row{}, fmt.Errorf("negative cost for %s", row.SKUID)
	}
	row.SKUID = strings.TrimSpace(row.SKUID)
	row.Currency = strings.TrimSpace(row.Currency)

	return row, nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func decimalHook(from, to reflect.Type, data any) (any, error) {
	if to != decimalType || from.Kind() != reflect.String {
		return data, nil
	}
	return decimal.NewFromString(strings.TrimSpace(data.(string)))
}

// Lookup returns the pricing row of a SKU.
func (t *Table) Lookup(skuID string) (Row, bool) {
	if t == nil {
		return Row{}, false
	}
	row, ok := t.rows[skuID]
	return row, ok
}

// Len returns the number of priced SKUs.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Skipped returns the number of malformed rows dropped while reading.
func (t *Table) Skipped() int {
	if t == nil {
		return 0
	}
	return t.skipped
}
