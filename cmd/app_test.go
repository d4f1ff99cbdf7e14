package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/pipeline"
	"github.com/spigell/rfp-responder/internal/rfp"
)

const (
	skuCSV     = "sku_id,cores,area_sqmm,insulation,material,voltage\nCU-4C-16-XLPE,4,16,XLPE,Copper,1.1kV\n"
	pricingCSV = "sku_id,base_material_cost,testing_cost,currency\nCU-4C-16-XLPE,100,20,INR\n"
	tenderText = "RFP No: TND-7\nScope of Supply:\n- 4 core 16 sqmm XLPE copper cable\n- Junction boxes\n"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testConfig(t *testing.T) *Config {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sku.csv"), skuCSV)
	writeFile(t, filepath.Join(dir, "pricing.csv"), pricingCSV)
	writeFile(t, filepath.Join(dir, "rfps", "b-tender.txt"), tenderText)
	writeFile(t, filepath.Join(dir, "rfps", "a-tender.txt"), tenderText)

	return &Config{
		Data: &DataConfig{
			SKUFile:     filepath.Join(dir, "sku.csv"),
			PricingFile: filepath.Join(dir, "pricing.csv"),
			RFPDir:      filepath.Join(dir, "rfps"),
		},
		Pricing: &PricingConfig{Currency: "INR"},
		Judge:   &JudgeConfig{Enabled: true, Concurrency: 2},
	}
}

func TestNewApplicationRunsFullPipeline(t *testing.T) {
	config := testConfig(t)

	application, err := newApplication(context.Background(), config, zap.NewNop())
	if err != nil {
		t.Fatalf("newApplication: %v", err)
	}

	doc, err := selectDocument(application.library, "", true)
	if err != nil {
		t.Fatalf("selectDocument: %v", err)
	}
	if doc.Name != "a-tender.txt" {
		t.Fatalf("expected the first document by name, got %q", doc.Name)
	}

	report, err := application.pipeline.Run(context.Background(), pipeline.ModeFull, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.SalesSummary != nil {
		t.Fatalf("expected no sales summary without ai, got %+v", report.SalesSummary)
	}
	if got := report.Pricing.GrandTotal.String(); got != "120" {
		t.Fatalf("expected grand total 120, got %s", got)
	}
	if len(report.Judgement.JudgedItems) != 2 {
		t.Fatalf("expected two judged items, got %d", len(report.Judgement.JudgedItems))
	}
}

func TestNewApplicationFallsBackWhenAIUnavailable(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	config := testConfig(t)
	config.AI = &AIConfig{Enabled: true, Provider: "gemini", Gemini: &GeminiConfig{}}

	application, err := newApplication(context.Background(), config, zap.NewNop())
	if err != nil {
		t.Fatalf("newApplication: %v", err)
	}

	for _, status := range application.pipeline.Status() {
		if status.Name == pipeline.StageSummary && status.Enabled {
			t.Fatalf("expected the summary stage to be disabled")
		}
	}
}

func TestNewApplicationRequiresDataConfig(t *testing.T) {
	if _, err := newApplication(context.Background(), &Config{}, zap.NewNop()); err == nil {
		t.Fatalf("expected an error without data configuration")
	}
}

func TestNewAIClientsRejectsUnknownProvider(t *testing.T) {
	_, _, err := newAIClients(context.Background(), &AIConfig{Provider: "openai", Gemini: &GeminiConfig{APIKey: "k"}}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "unsupported ai provider") {
		t.Fatalf("expected unsupported provider error, got %v", err)
	}
}

func TestSelectDocument(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "walk-in.txt")
	writeFile(t, explicit, tenderText)

	doc, err := selectDocument(rfp.NewLibrary(filepath.Join(dir, "missing")), explicit, false)
	if err != nil {
		t.Fatalf("selectDocument: %v", err)
	}
	if doc.Path != explicit {
		t.Fatalf("expected %q, got %q", explicit, doc.Path)
	}

	_, err = selectDocument(rfp.NewLibrary(filepath.Join(dir, "missing")), "", true)
	if !errors.Is(err, rfp.ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}

	single := filepath.Join(dir, "single")
	writeFile(t, filepath.Join(single, "only.txt"), tenderText)

	doc, err = selectDocument(rfp.NewLibrary(single), "", false)
	if err != nil {
		t.Fatalf("selectDocument: %v", err)
	}
	if doc.Name != "only.txt" {
		t.Fatalf("expected the only document, got %q", doc.Name)
	}
}

func TestHandleAction(t *testing.T) {
	report := &pipeline.Report{RunID: "run-1", RFPFile: "a.txt"}

	if err := handleAction(PromptExit, zap.NewNop(), report); !errors.Is(err, errExit) {
		t.Fatalf("expected errExit, got %v", err)
	}
	if err := handleAction("Dance", zap.NewNop(), report); err == nil {
		t.Fatalf("expected an error for an unknown action")
	}
}

func TestDumpToTmpFile(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	filename, err := dumpToTmpFile(&pipeline.Report{RunID: "run-1", RFPFile: "a.txt"})
	if err != nil {
		t.Fatalf("dumpToTmpFile: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(filename), app+"-report-") {
		t.Fatalf("unexpected file name %q", filename)
	}

	raw, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode dump: %v", err)
	}
	if decoded["run_id"] != "run-1" || decoded["rfp_file"] != "a.txt" {
		t.Fatalf("unexpected dump content: %s", raw)
	}
}
