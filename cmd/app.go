package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/englishaidol/aidol/internal/archive"
	"github.com/englishaidol/aidol/internal/csvimport"
	"github.com/englishaidol/aidol/internal/distractors"
	"github.com/englishaidol/aidol/internal/importer"
	"github.com/englishaidol/aidol/internal/llm"
	"github.com/englishaidol/aidol/internal/metrics"
	"github.com/englishaidol/aidol/internal/store"
)

// newImportService wires the importer from configuration. The enricher is
// attached only when an LLM provider is configured; m may be nil.
func newImportService(ctx context.Context, st *store.Store, m *metrics.Metrics) (*importer.Service, error) {
	impCfg, err := appCfg.CSVImport()
	if err != nil {
		return nil, err
	}
	arch, err := archive.New(appCfg.ArchiveSettings())
	if err != nil {
		return nil, fmt.Errorf("create archiver: %w", err)
	}

	deps := importer.Deps{
		Imports:   st.ImportRepo(),
		Questions: st.QuestionRepo(),
		Archiver:  arch,
		Metrics:   m,
		Logger:    logger,
	}

	if appCfg.LLMEnabled() {
		provider, err := llm.NewProvider(ctx, appCfg.LLMProvider(), st.EventRepo(), logger)
		if err != nil {
			return nil, fmt.Errorf("create LLM provider: %w", err)
		}
		dcfg := appCfg.Distractors()
		dcfg.PlaceholderPrefix = impCfg.PlaceholderPrefix
		deps.Enricher = distractors.NewEnricher(
			distractors.NewLLMGenerator(provider, dcfg),
			csvimport.NewSanitizer(impCfg.MaxFieldLength),
			dcfg,
			logger,
		)
	}

	return importer.New(impCfg, deps), nil
}

// readUpload reads a CSV file, or stdin when path is "-".
func readUpload(cmd *cobra.Command, path string) (name, content string, err error) {
	var data []byte
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		name = "stdin.csv"
	} else {
		data, err = os.ReadFile(path)
		name = filepath.Base(path)
	}
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	return name, string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
