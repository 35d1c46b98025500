package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/englishaidol/aidol/internal/csvimport"
	"github.com/englishaidol/aidol/internal/report"
)

var errRowsRejected = errors.New("one or more rows were rejected")

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file.csv|->",
	Short: "Validate and normalize a CSV file without storing anything",
	Long: `Parse a CSV upload, sanitize every field and report the rows that would be
imported together with per-row warnings and errors. Nothing is written to
the database. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().StringP("skill", "s", "", "Skill type: paraphrasing or scramble (required)")
	normalizeCmd.Flags().String("skill-test", "preview", "Skill test ID stamped on the rows")
	normalizeCmd.Flags().Bool("json", false, "Print the result as JSON")
	normalizeCmd.Flags().Bool("strict", false, "Exit non-zero when any row is rejected")
	_ = normalizeCmd.MarkFlagRequired("skill")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	skill, _ := cmd.Flags().GetString("skill")
	skillTest, _ := cmd.Flags().GetString("skill-test")
	asJSON, _ := cmd.Flags().GetBool("json")
	strict, _ := cmd.Flags().GetBool("strict")

	variant, err := csvimport.VariantFor(skill)
	if err != nil {
		return err
	}
	impCfg, err := appCfg.CSVImport()
	if err != nil {
		return err
	}

	_, content, err := readUpload(cmd, args[0])
	if err != nil {
		return err
	}

	out, normErr := csvimport.New(variant, impCfg).Normalize(content, skillTest)

	w := cmd.OutOrStdout()
	if asJSON {
		err = writeJSON(w, out)
	} else {
		err = report.Output(w, out)
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if normErr != nil {
		return normErr
	}
	if strict && len(out.Errors) > 0 {
		return errRowsRejected
	}
	return nil
}
