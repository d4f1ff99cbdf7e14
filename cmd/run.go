package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/logger"
	"github.com/spigell/rfp-responder/internal/pipeline"
	"github.com/spigell/rfp-responder/internal/rfp"
)

const (
	PromptShowReport    = "Show report"
	PromptShowPricing   = "Show pricing"
	PromptShowUnmatched = "Show unmatched lines"
	PromptReportToFile  = "Dump report to file"
	PromptExit          = "Exit"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptShowReport, PromptShowPricing, PromptShowUnmatched, PromptReportToFile, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline on an RFP document",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("yes", "y", false, "do not ask anything: take the first RFP and print the report")
	runCmd.Flags().StringP("file", "f", "", "process this RFP file instead of picking one from the rfp directory")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the rfp-responder", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	application, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the pipeline", zap.Error(err))
	}

	auto := cmd.Flag("yes").Value.String() == "true"

	doc, err := selectDocument(application.library, cmd.Flag("file").Value.String(), auto)
	if err != nil {
		if errors.Is(err, rfp.ErrNoDocuments) {
			logger.Info("exiting", zap.String("reason", "no RFP files found"), zap.String("dir", application.library.Dir()))
			return
		}
		logger.Fatal("selecting an RFP", zap.Error(err))
	}

	report, err := application.pipeline.Run(ctx, pipeline.ModeFull, doc)
	if err != nil {
		logger.Fatal("processing the RFP", zap.Error(err))
	}

	logger.Info("rfp processed",
		zap.String("rfp_file", report.RFPFile),
		zap.Int("lines", len(report.Technical.Items)),
		zap.Int("unmatched", report.Technical.Unmatched()),
		zap.String("grand_total", report.Pricing.GrandTotal.String()),
		zap.String("currency", report.Pricing.Currency),
	)

	if auto {
		if err := printJSON(report); err != nil {
			logger.Fatal("printing the report", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, report); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, report *pipeline.Report) error {
	switch action {
	case PromptShowReport:
		return printJSON(report)
	case PromptShowPricing:
		return printJSON(report.Pricing)
	case PromptShowUnmatched:
		unmatched := make([]string, 0)
		for _, item := range report.Technical.Items {
			if !item.Matched() {
				unmatched = append(unmatched, item.RFPItem)
			}
		}
		logger.Info("unmatched requirement lines", zap.Strings("lines", unmatched), zap.Int("count", len(unmatched)))
		return nil
	case PromptReportToFile:
		filename, err := dumpToTmpFile(report)
		if err != nil {
			return fmt.Errorf("dump report to file: %w", err)
		}
		logger.Info("dumping report to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// selectDocument opens the explicit file when given, otherwise the first library document in
// auto mode or the one picked interactively.
func selectDocument(library *rfp.Library, file string, auto bool) (*rfp.Document, error) {
	if file = strings.TrimSpace(file); file != "" {
		return rfp.Open(file)
	}

	paths, err := library.List()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, rfp.ErrNoDocuments
	}
	if auto || len(paths) == 1 {
		return rfp.Open(paths[0])
	}

	names := make([]string, 0, len(paths))
	for _, path := range paths {
		names = append(names, filepath.Base(path))
	}

	picker := promptui.Select{
		Label: "Choose an RFP and press ENTER",
		Items: names,
	}

	idx, _, err := picker.Run()
	if err != nil {
		return nil, err
	}

	return rfp.Open(paths[idx])
}

func printJSON(v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(pretty))
	return err
}

func dumpToTmpFile(report *pipeline.Report) (string, error) {
	f, err := os.CreateTemp("", app+"-report-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return "", err
	}

	return f.Name(), nil
}
