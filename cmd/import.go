package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/englishaidol/aidol/internal/importer"
	"github.com/englishaidol/aidol/internal/report"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv|->",
	Short: "Normalize a CSV file and store its valid rows",
	Long: `Normalize a CSV upload and store every valid row under the given skill test,
together with an import record holding the summary and diagnostics. The raw
file is archived first when an archive backend is configured.

With --enrich, synthetic "Distractor N" placeholders are replaced by
AI-generated distractors (requires llm.provider).`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringP("skill", "s", "", "Skill type: paraphrasing or scramble (required)")
	importCmd.Flags().StringP("skill-test", "t", "", "Target skill test ID (required)")
	importCmd.Flags().Bool("enrich", false, "Replace placeholder distractors using the configured LLM")
	importCmd.Flags().Bool("dry-run", false, "Normalize only; store nothing")
	importCmd.Flags().Bool("json", false, "Print the result as JSON")
	_ = importCmd.MarkFlagRequired("skill")
	_ = importCmd.MarkFlagRequired("skill-test")
}

func runImport(cmd *cobra.Command, args []string) error {
	skill, _ := cmd.Flags().GetString("skill")
	skillTest, _ := cmd.Flags().GetString("skill-test")
	enrich, _ := cmd.Flags().GetBool("enrich")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	asJSON, _ := cmd.Flags().GetBool("json")

	name, content, err := readUpload(cmd, args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := newImportService(ctx, st, nil)
	if err != nil {
		return err
	}

	res, importErr := svc.Import(ctx, importer.Request{
		Filename:    name,
		Content:     content,
		SkillType:   skill,
		SkillTestID: skillTest,
		DryRun:      dryRun,
		Enrich:      enrich,
	})
	if res != nil {
		w := cmd.OutOrStdout()
		if asJSON {
			err = writeJSON(w, res)
		} else {
			err = report.ImportResult(w, res)
		}
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return importErr
}
