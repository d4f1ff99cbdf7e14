// Package pipeline runs an RFP through the summary, technical, judge and pricing stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/judge"
	"github.com/spigell/rfp-responder/internal/logger"
	"github.com/spigell/rfp-responder/internal/matching"
	"github.com/spigell/rfp-responder/internal/pricing"
	"github.com/spigell/rfp-responder/internal/rfp"
)

// Mode selects which stages a run executes.
type Mode string

const (
	ModeSales     Mode = "sales"
	ModeTechnical Mode = "technical"
	ModePricing   Mode = "pricing"
	ModeFull      Mode = "full"
)

// Report is the outcome of a run. Sections of stages that did not run are omitted.
type Report struct {
	RunID        string                    `json:"run_id"`
	RFPFile      string                    `json:"rfp_file"`
	SalesSummary *ai.Summary               `json:"sales_summary,omitempty"`
	Technical    *matching.TechnicalResult `json:"technical,omitempty"`
	Judgement    *judge.Result             `json:"judgement,omitempty"`
	Pricing      *pricing.Batch            `json:"pricing,omitempty"`
}

// Options toggle optional stages.
type Options struct {
	JudgeEnabled bool
}

// Pipeline builds and executes stages for each run. It is safe for concurrent use.
type Pipeline struct {
	deps Deps
	opts Options
}

type describer interface {
	describe(deps Deps)
}

func New(deps Deps, opts Options) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{deps: deps, opts: opts}
}

// Stages returns fresh stages for the mode, with optional ones disabled per configuration.
func (p *Pipeline) Stages(mode Mode) ([]Stage, error) {
	var stages []Stage
	switch mode {
	case ModeSales:
		stages = []Stage{NewSummary()}
	case ModeTechnical:
		stages = []Stage{NewTechnical()}
	case ModePricing:
		stages = []Stage{NewTechnical(), NewPricing()}
	case ModeFull:
		stages = []Stage{NewSummary(), NewTechnical(), NewJudge(), NewPricing()}
		if p.deps.Summarizer == nil {
			DisableByName(stages, StageSummary, ErrSummarizerUnavailable.Error())
		}
		if !p.opts.JudgeEnabled {
			DisableByName(stages, StageJudge, "disabled in configuration")
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	for _, stage := range stages {
		if d, ok := stage.(describer); ok {
			d.describe(p.deps)
		}
	}

	return stages, nil
}

// Status describes the stages of a full run.
func (p *Pipeline) Status() []Status {
	stages, err := p.Stages(ModeFull)
	if err != nil {
		return nil
	}
	return Describe(stages)
}

// Run executes the stages of mode over doc.
func (p *Pipeline) Run(ctx context.Context, mode Mode, doc *rfp.Document) (*Report, error) {
	if doc == nil {
		return nil, errors.New("rfp document is required")
	}

	stages, err := p.Stages(mode)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString(), RFPFile: doc.Path}

	deps := p.deps
	deps.Logger = logger.WithRunFields(p.deps.Logger, report.RunID, doc.Path)
	deps.Logger.Info("rfp run started", zap.String("mode", string(mode)))

	if err := Execute(ctx, deps, stages, &Run{Document: doc, Report: report}); err != nil {
		deps.Logger.Error("rfp run failed", zap.Error(err))
		return nil, err
	}

	deps.Logger.Info("rfp run finished", zap.String("mode", string(mode)))

	return report, nil
}

// Matcher returns the matcher the technical stage uses.
func (p *Pipeline) Matcher() *matching.Matcher {
	return p.deps.Matcher
}

// Calculator returns the calculator the pricing stage uses.
func (p *Pipeline) Calculator() *pricing.Calculator {
	return p.deps.Calculator
}
