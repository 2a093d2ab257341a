package cmd

import (
	"github.com/downfa11-org/logseg/pkg/config"
	"github.com/downfa11-org/logseg/pkg/metrics"
	"github.com/downfa11-org/logseg/util"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	logDirFlag     string
	logLevelFlag   string
	maxRecordFlag  int32
	minPayloadFlag int32

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "segtool",
	Short: "Inspect and maintain framed log segment files",
	Long: `segtool works directly on segment files made of framed records:
offset(8) | size(4) | payload.

Segment names are resolved against --log-dir unless they carry a directory.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file, YAML or JSON (env: CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&logDirFlag, "log-dir", "", "segment directory (env: LOGSEG_LOG_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error (env: LOGSEG_LOG_LEVEL)")
	rootCmd.PersistentFlags().Int32Var(&maxRecordFlag, "max-record-size", 0, "largest payload accepted while iterating")
	rootCmd.PersistentFlags().Int32Var(&minPayloadFlag, "min-payload-size", 0, "smallest structurally valid payload, 0 disables the check")

	rootCmd.AddCommand(genCmd, dumpCmd, searchCmd, truncateCmd, copyCmd, verifyCmd, serveMetricsCmd)
}

// loadConfig resolves settings as flag > env > file > default.
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-dir") {
		loaded.LogDir = logDirFlag
	}
	if flags.Changed("log-level") {
		loaded.LogLevel = util.ParseLogLevel(logLevelFlag)
		util.SetLevel(loaded.LogLevel)
	}
	if flags.Changed("max-record-size") {
		loaded.MaxRecordSize = maxRecordFlag
	}
	if flags.Changed("min-payload-size") {
		loaded.MinPayloadSize = minPayloadFlag
	}
	loaded.Normalize()
	cfg = loaded

	if cfg.EnableExporter && cmd != serveMetricsCmd {
		metrics.StartMetricsServer(cfg.ExporterPort)
	}
	return nil
}
