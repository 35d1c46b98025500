package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/englishaidol/aidol/internal/report"
	"github.com/englishaidol/aidol/internal/store"
)

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Inspect stored import batches",
}

var importsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent imports, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		batches, err := st.ImportRepo().List(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("list imports: %w", err)
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), batches)
		}
		return report.Batches(cmd.OutOrStdout(), batches)
	},
}

var importsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show one import with its warnings and errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		raw, _ := cmd.Flags().GetBool("raw")

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		if raw {
			return printRawUpload(cmd, st, args[0])
		}

		b, err := st.ImportRepo().Get(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("import %s not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("get import: %w", err)
		}
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), b)
		}
		return report.Batch(cmd.OutOrStdout(), b)
	},
}

// printRawUpload writes the archived upload of an import to stdout.
func printRawUpload(cmd *cobra.Command, st *store.Store, id string) error {
	svc, err := newImportService(cmd.Context(), st, nil)
	if err != nil {
		return err
	}
	data, err := svc.RawUpload(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("import %s not found", id)
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func init() {
	importsListCmd.Flags().IntP("limit", "n", 20, "Number of imports to show")
	importsListCmd.Flags().Bool("json", false, "Print as JSON")
	importsViewCmd.Flags().Bool("json", false, "Print as JSON")
	importsViewCmd.Flags().Bool("raw", false, "Print the archived upload instead of the summary")

	importsCmd.AddCommand(importsListCmd)
	importsCmd.AddCommand(importsViewCmd)
}
