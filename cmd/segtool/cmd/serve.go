package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/downfa11-org/logseg/pkg/metrics"
	"github.com/downfa11-org/logseg/util"
	"github.com/spf13/cobra"
)

var servePort int

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve the Prometheus exporter until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		port := cfg.ExporterPort
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		srv := metrics.StartMetricsServer(port)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		util.Info("shutting down exporter")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveMetricsCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config)")
}
