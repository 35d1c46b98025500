package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/englishaidol/aidol/internal/report"
	"github.com/englishaidol/aidol/internal/store"
)

var questionsCmd = &cobra.Command{
	Use:   "questions <skill-test-id>",
	Short: "List the stored questions of a skill test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		repo := st.QuestionRepo()
		qs, err := repo.ListBySkillTest(ctx, args[0], store.QueryOpts{Limit: limit, Offset: offset})
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), qs)
		}

		total, err := repo.CountBySkillTest(ctx, args[0])
		if err != nil {
			return fmt.Errorf("count questions: %w", err)
		}
		if err := report.Questions(cmd.OutOrStdout(), qs); err != nil {
			return err
		}
		if total > len(qs) {
			fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d questions.\n", len(qs), total)
		}
		return nil
	},
}

func init() {
	questionsCmd.Flags().IntP("limit", "n", 50, "Number of questions to show (0 for all)")
	questionsCmd.Flags().Int("offset", 0, "Number of questions to skip")
	questionsCmd.Flags().Bool("json", false, "Print as JSON")
}
