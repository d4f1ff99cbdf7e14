package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/ai"
	"github.com/spigell/rfp-responder/internal/judge"
	"github.com/spigell/rfp-responder/internal/matching"
	"github.com/spigell/rfp-responder/internal/pricing"
	"github.com/spigell/rfp-responder/internal/rfp"
)

// Stage represents a single step of an RFP run.
type Stage interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(deps Deps) error
	Apply(ctx context.Context, deps Deps, run *Run) (Step, error)
}

// Deps aggregates dependencies shared across all stages.
type Deps struct {
	Matcher    *matching.Matcher
	Calculator *pricing.Calculator
	Judge      *judge.Judge
	Summarizer ai.Summarizer
	Logger     *zap.Logger
}

// Run is the state passed from stage to stage.
type Run struct {
	Document *rfp.Document
	Report   *Report
}

// Step describes the result of executing a stage.
type Step struct {
	Lines     int
	Unmatched int
}

// Status represents runtime information about a stage.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusProvider is implemented by stages that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// DisableByName marks a stage with the provided name as disabled while keeping it in the list.
func DisableByName(stages []Stage, name, reason string) {
	for _, stage := range stages {
		if stage.Name() == name {
			stage.Disable(reason)
		}
	}
}

// Execute validates every enabled stage and then applies them in order. The first failing stage
// aborts the run.
func Execute(ctx context.Context, deps Deps, stages []Stage, run *Run) error {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, stage := range stages {
		if !stage.IsEnabled() {
			continue
		}
		if err := stage.Validate(deps); err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}
	}

	for _, stage := range stages {
		if !stage.IsEnabled() {
			deps.Logger.Info("stage disabled", zap.String("name", stage.Name()))
			continue
		}

		info, err := stage.Apply(ctx, deps, run)
		if err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}

		deps.Logger.Info("stage finished",
			zap.String("name", stage.Name()),
			zap.Int("lines", info.Lines),
			zap.Int("unmatched", info.Unmatched),
		)
	}

	return nil
}

// Describe returns status entries for the provided stages.
func Describe(stages []Stage) []Status {
	statuses := make([]Status, 0, len(stages))
	for _, stage := range stages {
		if reporter, ok := stage.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    stage.Name(),
			Enabled: stage.IsEnabled(),
		})
	}
	return statuses
}
