package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/pipeline"
	"github.com/spigell/rfp-responder/internal/rfp"
)

var matchCmd = &cobra.Command{
	Use:   "match <rfp-file>",
	Short: "Match the scope of an RFP file against the SKU catalog",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		match(args[0])
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func match(path string) {
	ctx := context.Background()

	logger, _, application := prepare(ctx)

	doc, err := rfp.Open(path)
	if err != nil {
		logger.Fatal("opening the RFP", zap.String("path", path), zap.Error(err))
	}

	report, err := application.pipeline.Run(ctx, pipeline.ModeTechnical, doc)
	if err != nil {
		logger.Fatal("matching the RFP", zap.Error(err))
	}

	if err := printJSON(report.Technical); err != nil {
		logger.Fatal("printing the result", zap.Error(err))
	}
}
