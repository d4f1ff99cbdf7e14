package pipeline

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
)

// Stage names.
const (
	StageSummary   = "summary"
	StageTechnical = "technical"
	StageJudge     = "judge"
	StagePricing   = "pricing"
)

// ErrSummarizerUnavailable is returned when a run needs the sales summary but no summarizer is
// configured.
var ErrSummarizerUnavailable = errors.New("summarizer is not configured")

var errNoTechnicalResult = errors.New("technical result is required")

// toggle implements the enable/disable part of Stage.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type summaryStage struct {
	toggle
}

// NewSummary creates the stage asking the summarizer for the sales summary.
func NewSummary() Stage {
	return &summaryStage{}
}

func (s *summaryStage) Name() string { return StageSummary }

func (s *summaryStage) Validate(deps Deps) error {
	if deps.Summarizer == nil {
		return ErrSummarizerUnavailable
	}
	return nil
}

func (s *summaryStage) Apply(ctx context.Context, deps Deps, run *Run) (Step, error) {
	summary, err := deps.Summarizer.Summarize(ctx, run.Document.Text)
	if err != nil {
		return Step{}, err
	}

	summary.FilePath = run.Document.Path
	run.Report.SalesSummary = summary

	deps.Logger.Debug("sales summary extracted",
		zap.String("rfp_id", summary.RFPID),
		zap.String("due_date", summary.DueDate),
	)

	return Step{}, nil
}

func (s *summaryStage) Status() Status {
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason}
}

type technicalStage struct {
	toggle
}

// NewTechnical creates the stage matching requirement lines against the catalog.
func NewTechnical() Stage {
	return &technicalStage{}
}

func (s *technicalStage) Name() string { return StageTechnical }

func (s *technicalStage) Validate(deps Deps) error {
	if deps.Matcher == nil {
		return errors.New("matcher is required")
	}
	return nil
}

func (s *technicalStage) Apply(_ context.Context, deps Deps, run *Run) (Step, error) {
	result := deps.Matcher.MatchSpecs(run.Document.Text)
	run.Report.Technical = result

	for _, item := range result.Items {
		if !item.Matched() {
			deps.Logger.Debug("requirement line without candidates", zap.String("rfp_item", item.RFPItem))
		}
	}

	return Step{Lines: len(result.Items), Unmatched: result.Unmatched()}, nil
}

func (s *technicalStage) Status() Status {
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason}
}

type judgeStage struct {
	toggle
	concurrency int
	scorer      bool
}

// NewJudge creates the stage scoring the best candidate of every line.
func NewJudge() Stage {
	return &judgeStage{}
}

func (s *judgeStage) Name() string { return StageJudge }

func (s *judgeStage) Validate(deps Deps) error {
	if deps.Judge == nil {
		return errors.New("judge is required")
	}
	return nil
}

func (s *judgeStage) Apply(ctx context.Context, deps Deps, run *Run) (Step, error) {
	if run.Report.Technical == nil {
		return Step{}, errNoTechnicalResult
	}

	result, err := deps.Judge.Evaluate(ctx, run.Report.Technical)
	if err != nil {
		return Step{}, err
	}
	run.Report.Judgement = result

	return Step{Lines: len(result.JudgedItems), Unmatched: run.Report.Technical.Unmatched()}, nil
}

// describe records judge settings for status reporting.
func (s *judgeStage) describe(deps Deps) {
	if deps.Judge == nil {
		return
	}
	s.scorer = deps.Judge.ScorerEnabled()
	s.concurrency = deps.Judge.Concurrency()
}

func (s *judgeStage) Status() Status {
	details := map[string]string{
		"scorer":      strconv.FormatBool(s.scorer),
		"concurrency": strconv.Itoa(s.concurrency),
	}
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason, Details: details}
}

type pricingStage struct {
	toggle
	currency string
}

// NewPricing creates the stage pricing the best candidate of every line.
func NewPricing() Stage {
	return &pricingStage{}
}

func (s *pricingStage) Name() string { return StagePricing }

func (s *pricingStage) Validate(deps Deps) error {
	if deps.Calculator == nil {
		return errors.New("pricing calculator is required")
	}
	return nil
}

func (s *pricingStage) Apply(_ context.Context, deps Deps, run *Run) (Step, error) {
	if run.Report.Technical == nil {
		return Step{}, errNoTechnicalResult
	}

	batch := deps.Calculator.PriceFromMatches(run.Report.Technical)
	run.Report.Pricing = batch

	if len(batch.MixedCurrency) > 0 {
		deps.Logger.Warn("priced skus use a currency different from the batch label",
			zap.String("currency", batch.Currency),
			zap.Strings("skus", batch.MixedCurrency),
		)
	}

	return Step{Lines: len(batch.PricedItems), Unmatched: run.Report.Technical.Unmatched()}, nil
}

// describe records the batch currency for status reporting.
func (s *pricingStage) describe(deps Deps) {
	if deps.Calculator != nil {
		s.currency = deps.Calculator.Currency()
	}
}

func (s *pricingStage) Status() Status {
	details := map[string]string{}
	if s.currency != "" {
		details["currency"] = s.currency
	}
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason, Details: details}
}
