// Package judge scores the best catalog candidate of every RFP line, with an external scorer when
// one is configured and the deterministic match score otherwise.
package judge

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/matching"
)

const noMatchReason = "No SKU matches"

// Item is the judgement of one requirement line.
type Item struct {
	RFPItem    string  `json:"rfp_item"`
	BestSKU    string  `json:"best_sku,omitempty"`
	JudgeScore float64 `json:"judge_score"`
	Reason     string  `json:"reason,omitempty"`
	ScorerUsed bool    `json:"scorer_used"`
	Error      string  `json:"error,omitempty"`
}

// Result holds one judged item per requirement line, in line order.
type Result struct {
	JudgedItems []Item `json:"judged_items"`
}

// Judge evaluates technical results.
type Judge struct {
	scorer      ai.Scorer
	concurrency int
	logger      *zap.Logger
}

// New returns a judge. A nil scorer makes every matched line fall back to its match score.
// Concurrency below one is treated as one.
func New(scorer ai.Scorer, concurrency int, logger *zap.Logger) *Judge {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Judge{scorer: scorer, concurrency: concurrency, logger: logger}
}

// ScorerEnabled reports whether an external scorer is configured.
func (j *Judge) ScorerEnabled() bool {
	return j.scorer != nil
}

// Concurrency returns the maximum number of lines scored at once.
func (j *Judge) Concurrency() int {
	return j.concurrency
}

// Evaluate judges every line of tr. A scorer failure on one line is recorded on that item and
// does not fail the evaluation; only a cancelled context does.
func (j *Judge) Evaluate(ctx context.Context, tr *matching.TechnicalResult) (*Result, error) {
	result := &Result{JudgedItems: make([]Item, 0)}
	if tr == nil {
		return result, nil
	}

	result.JudgedItems = make([]Item, len(tr.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)

	for i, line := range tr.Items {
		g.Go(func() error {
			result.JudgedItems[i] = j.judgeLine(gctx, line)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("judge: %w", err)
	}

	return result, nil
}

func (j *Judge) judgeLine(ctx context.Context, line matching.LineMatch) Item {
	best, ok := line.Best()
	if !ok {
		return Item{RFPItem: line.RFPItem, JudgeScore: 0, Reason: noMatchReason}
	}

	item := Item{
		RFPItem:    line.RFPItem,
		BestSKU:    best.SKUID,
		JudgeScore: float64(best.Score),
	}

	if j.scorer == nil {
		return item
	}

	verdict, err := j.scorer.Score(ctx, line.RFPItem, best)
	if err != nil {
		j.logger.Warn("judge scorer failed, using match score",
			zap.String("sku", best.SKUID),
			zap.Int("match_score", best.Score),
			zap.Error(err),
		)
		item.Error = err.Error()
		return item
	}

	item.JudgeScore = verdict.Score
	item.Reason = verdict.Reason
	item.ScorerUsed = true

	return item
}
