package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/englishaidol/aidol/internal/metrics"
	"github.com/englishaidol/aidol/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the import API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		m := metrics.New()
		svc, err := newImportService(ctx, st, m)
		if err != nil {
			return err
		}

		sc := appCfg.Server
		srv := server.New(server.Config{
			Addr:            sc.Addr,
			Mode:            sc.Mode,
			MaxUploadBytes:  sc.MaxUploadBytes,
			ShutdownTimeout: sc.ShutdownTimeout,
			RateLimitRPS:    sc.RateLimit.RPS,
			RateLimitBurst:  sc.RateLimit.Burst,
		}, svc, st.DB(), m, logger)
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
