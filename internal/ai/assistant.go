package ai

import (
	"context"

	"github.com/spigell/rfp-responder/internal/matching"
)

// Unknown fills summary fields the model did not return.
const Unknown = "UNKNOWN"

// Summary is the sales view of an RFP document.
type Summary struct {
	RFPID        string `json:"rfp_id"`
	Title        string `json:"title"`
	DueDate      string `json:"due_date"`
	ScopeSummary string `json:"scope_summary"`
	FilePath     string `json:"file_path,omitempty"`
	Raw          string `json:"-"`
}

// Verdict is a judge score for one recommendation.
type Verdict struct {
	Score  float64
	Reason string
	Raw    string
}

// Summarizer extracts the sales summary of an RFP text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (*Summary, error)
}

// Scorer rates how well the recommended SKU fits an RFP line, from 0 to 100.
type Scorer interface {
	Score(ctx context.Context, rfpItem string, best matching.Candidate) (*Verdict, error)
}
