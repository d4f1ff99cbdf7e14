// Package matching scores RFP requirement lines against the SKU catalog.
package matching

import (
	"sort"
	"strings"

	"github.com/spigell/rfp-responder/internal/catalog"
	"github.com/spigell/rfp-responder/internal/scope"
)

// Points awarded per attribute found in a requirement line.
const (
	coresPoints      = 30
	areaPoints       = 30
	insulationPoints = 20
	materialPoints   = 20

	// MaxScore is the score of a SKU whose four attributes all appear in the line.
	MaxScore = coresPoints + areaPoints + insulationPoints + materialPoints

	// MaxCandidates bounds the number of candidates kept per requirement line.
	MaxCandidates = 3
)

// Candidate is a SKU that scored above zero for a requirement line.
type Candidate struct {
	SKUID      string `json:"sku_id"`
	Score      int    `json:"score"`
	Cores      string `json:"cores"`
	AreaSqmm   string `json:"area_sqmm"`
	Insulation string `json:"insulation"`
	Material   string `json:"material"`
	Voltage    string `json:"voltage"`
}

// LineMatch pairs a requirement line with its best candidates, highest score first.
type LineMatch struct {
	RFPItem    string      `json:"rfp_item"`
	TopMatches []Candidate `json:"top_matches"`
}

// Best returns the top candidate, if any.
func (l LineMatch) Best() (Candidate, bool) {
	if len(l.TopMatches) == 0 {
		return Candidate{}, false
	}
	return l.TopMatches[0], true
}

// Matched reports whether at least one SKU scored for the line.
func (l LineMatch) Matched() bool {
	return len(l.TopMatches) > 0
}

// TechnicalResult is the outcome of matching a whole RFP.
type TechnicalResult struct {
	Items []LineMatch `json:"items"`
}

// Unmatched returns the number of lines without any candidate.
func (r *TechnicalResult) Unmatched() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, item := range r.Items {
		if !item.Matched() {
			n++
		}
	}
	return n
}

// Matcher scores requirement lines against an immutable catalog. It holds no mutable state and
// is safe for concurrent use.
type Matcher struct {
	catalog *catalog.Catalog
}

// New returns a matcher over the given catalog.
func New(c *catalog.Catalog) *Matcher {
	if c == nil {
		c = catalog.New(nil)
	}
	return &Matcher{catalog: c}
}

// Catalog returns the catalog the matcher works on.
func (m *Matcher) Catalog() *catalog.Catalog {
	return m.catalog
}

// Score sums the points of every SKU attribute that occurs in the line. Core count and area are
// compared as written in the catalog; insulation and material are compared lower-cased. Empty
// attributes never score.
func Score(line string, sku catalog.SKU) int {
	text := strings.ToLower(line)
	score := 0

	if sku.Cores != "" && strings.Contains(text, sku.Cores) {
		score += coresPoints
	}
	if sku.AreaSqmm != "" && strings.Contains(text, sku.AreaSqmm) {
		score += areaPoints
	}
	if sku.Insulation != "" && strings.Contains(text, strings.ToLower(sku.Insulation)) {
		score += insulationPoints
	}
	if sku.Material != "" && strings.Contains(text, strings.ToLower(sku.Material)) {
		score += materialPoints
	}

	return score
}

// MatchLine scores every SKU against the line and keeps the best MaxCandidates. SKUs scoring
// zero are left out. Equal scores keep catalog order.
func (m *Matcher) MatchLine(line string) LineMatch {
	scored := make([]Candidate, 0)

	m.catalog.Each(func(sku catalog.SKU) {
		score := Score(line, sku)
		if score <= 0 {
			return
		}
		scored = append(scored, Candidate{
			SKUID:      sku.ID,
			Score:      score,
			Cores:      sku.Cores,
			AreaSqmm:   sku.AreaSqmm,
			Insulation: sku.Insulation,
			Material:   sku.Material,
			Voltage:    sku.Voltage,
		})
	})

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > MaxCandidates {
		scored = scored[:MaxCandidates]
	}

	return LineMatch{RFPItem: line, TopMatches: scored}
}

// MatchSpecs extracts the requirement lines of an RFP and matches each of them.
func (m *Matcher) MatchSpecs(text string) *TechnicalResult {
	lines := scope.Extract(text)

	result := &TechnicalResult{Items: make([]LineMatch, 0, len(lines))}
	for _, line := range lines {
		result.Items = append(result.Items, m.MatchLine(line))
	}

	return result
}
