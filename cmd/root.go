package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/englishaidol/aidol/internal/config"
	"github.com/englishaidol/aidol/internal/logging"
	"github.com/englishaidol/aidol/internal/store"
)

// Set by the root command's PersistentPreRunE.
var (
	appCfg *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "aidol",
	Short: "Normalize and import CSV question banks",
	Long: `aidol turns hand-authored CSV files into validated question records for
English AIdol skill tests. It previews and imports uploads, can replace
synthetic distractors with AI suggestions, and serves the same operations
over HTTP.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default: aidol.yaml in $XDG_CONFIG_HOME/aidol or the working directory)")
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite file path (overrides AIDOL_DB)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(importsCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and builds the logger once per invocation.
func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, func(v *viper.Viper) error {
		if err := v.BindPFlag("database.dsn", cmd.Flags().Lookup("db")); err != nil {
			return err
		}
		if f := cmd.Flags().Lookup("addr"); f != nil {
			if err := v.BindPFlag("server.addr", f); err != nil {
				return err
			}
		}
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			v.Set("log.level", "debug")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	appCfg, logger = cfg, log
	logger.Debug("config loaded",
		zap.String("file", cfg.File),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("llm_provider", cfg.LLM.Provider))
	return nil
}

// openStore connects to the configured database, creating the parent
// directory of a SQLite file when needed.
func openStore(ctx context.Context) (*store.Store, error) {
	dialect := store.Dialect(appCfg.Database.Driver)
	dsn := appCfg.Database.DSN
	if dialect == store.DialectSQLite && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := store.EnsureDir(dsn); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	s, err := store.OpenDialect(ctx, dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
