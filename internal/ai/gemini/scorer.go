package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/matching"
	"github.com/spigell/rfp-responder/internal/utils"
)

const (
	defaultMaxLogLength = 200

	judgeSystem = "You judge product recommendations for RFP line items and always respond in JSON."
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
}

//go:embed judge.md
var judgeTemplate string

// Scorer asks Gemini to rate the best catalog candidate of an RFP line.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Scorer = (*Scorer)(nil)

func NewScorer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (s *Scorer) Score(ctx context.Context, rfpItem string, best matching.Candidate) (*ai.Verdict, error) {
	if strings.TrimSpace(rfpItem) == "" {
		return nil, fmt.Errorf("rfp item is required")
	}

	recommendation, err := json.Marshal(best)
	if err != nil {
		return nil, fmt.Errorf("marshal recommendation: %w", err)
	}

	prompt := buildJudgePrompt(rfpItem, string(recommendation))

	s.logger.Debug("gemini judge request",
		zap.String("sku", best.SKUID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, judgeSystem, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini judge response",
		zap.String("sku", best.SKUID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	verdict, err := parseVerdict(raw)
	if err != nil {
		return nil, err
	}

	verdict.Raw = raw
	return verdict, nil
}

func buildJudgePrompt(rfpItem, recommendation string) string {
	template := judgeTemplate
	if strings.TrimSpace(template) == "" {
		template = "RFP ITEM:\n{{RFP_ITEM}}\n\nOEM RECOMMENDATION:\n{{RECOMMENDATION}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{RFP_ITEM}}", rfpItem)
	prompt = strings.ReplaceAll(prompt, "{{RECOMMENDATION}}", recommendation)
	return prompt
}

func parseVerdict(raw string) (*ai.Verdict, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		return nil, fmt.Errorf("parse gemini response: missing score")
	}

	return &ai.Verdict{
		Score:  math.Max(0, math.Min(100, score)),
		Reason: coerceString(data["reason"]),
	}, nil
}
