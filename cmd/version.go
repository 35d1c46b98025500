package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is stamped with -ldflags "-X github.com/englishaidol/aidol/cmd.version=v1.2.3".
var version = "(devel)"

// buildVersion prefers the stamped version, then the module version
// recorded by `go install pkg@version`.
func buildVersion() string {
	if version != "(devel)" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the aidol version",
	Args:  cobra.NoArgs,
	// Skips config loading so it works without a database.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "aidol %s\n", buildVersion())
		return err
	},
}
