// Package catalog holds the product SKU catalog the matcher scores requirement lines against.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// SKU describes a catalog product. Numeric attributes are kept as text since they are only
// ever used as substring targets.
type SKU struct {
	ID         string `json:"sku_id" mapstructure:"sku_id"`
	Cores      string `json:"cores" mapstructure:"cores"`
	AreaSqmm   string `json:"area_sqmm" mapstructure:"area_sqmm"`
	Insulation string `json:"insulation" mapstructure:"insulation"`
	Material   string `json:"material" mapstructure:"material"`
	Voltage    string `json:"voltage" mapstructure:"voltage"`
}

// Catalog is an ordered, read-only set of SKUs. It is safe for concurrent use.
type Catalog struct {
	skus  []SKU
	index map[string]int
}

// New builds a catalog from the given SKUs, keeping their order. When an identifier repeats,
// the first occurrence wins.
func New(skus []SKU) *Catalog {
	c := &Catalog{
		skus:  make([]SKU, 0, len(skus)),
		index: make(map[string]int, len(skus)),
	}

	for _, sku := range skus {
		if _, ok := c.index[sku.ID]; ok {
			continue
		}
		c.index[sku.ID] = len(c.skus)
		c.skus = append(c.skus, sku)
	}

	return c
}

// Load reads a catalog CSV file. A missing file yields an empty catalog.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("open catalog %q: %w", path, err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}

	return c, nil
}

// Read parses catalog CSV data with a header row naming the SKU columns.
func Read(r io.Reader) (*Catalog, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return nil, err
	}

	skus := make([]SKU, 0, len(records))
	for _, record := range records {
		var sku SKU
		if err := mapstructure.Decode(record, &sku); err != nil {
			return nil, fmt.Errorf("decode sku row: %w", err)
		}
		skus = append(skus, sku)
	}

	return New(skus), nil
}

// ReadRecords reads CSV data into one map per row keyed by header name. Short rows simply lack
// the trailing keys.
func ReadRecords(r io.Reader) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	for i, name := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	var records []map[string]any
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		record := make(map[string]any, len(header))
		for i, value := range row {
			if i >= len(header) {
				break
			}
			record[header[i]] = value
		}
		records = append(records, record)
	}

	return records, nil
}

// Len returns the number of SKUs in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.skus)
}

// SKUs returns the catalog entries in load order.
func (c *Catalog) SKUs() []SKU {
	if c == nil {
		return nil
	}
	out := make([]SKU, len(c.skus))
	copy(out, c.skus)
	return out
}

// Each calls fn for every SKU in load order.
func (c *Catalog) Each(fn func(SKU)) {
	if c == nil {
		return
	}
	for _, sku := range c.skus {
		fn(sku)
	}
}

// Lookup returns the SKU with the given identifier.
func (c *Catalog) Lookup(id string) (SKU, bool) {
	if c == nil {
		return SKU{}, false
	}
	idx, ok := c.index[id]
	if !ok {
		return SKU{}, false
	}
	return c.skus[idx], true
}
