package gemini

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/utils"
)

const summarySystem = "You extract structured data from RFPs and always respond in JSON."

//go:embed summary.md
var summaryTemplate string

// Summarizer extracts the sales summary of an RFP with Gemini.
type Summarizer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Summarizer = (*Summarizer)(nil)

func NewSummarizer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Summarizer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Summarizer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Summarize returns rfp_id, title, due_date and scope_summary. Fields the model leaves out
// are set to ai.Unknown, except the scope summary which stays empty.
func (s *Summarizer) Summarize(ctx context.Context, text string) (*ai.Summary, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("rfp text must not be empty")
	}

	prompt := strings.ReplaceAll(summaryTemplate, "{{RFP_TEXT}}", text)

	s.logger.Debug("gemini summary request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, summarySystem, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini summary response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	return &ai.Summary{
		RFPID:        orUnknown(coerceString(data["rfp_id"])),
		Title:        orUnknown(coerceString(data["title"])),
		DueDate:      orUnknown(coerceString(data["due_date"])),
		ScopeSummary: coerceString(data["scope_summary"]),
		Raw:          raw,
	}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return ai.Unknown
	}
	return s
}
