package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netkit-tools/oui-updater/internal/config"
	"github.com/netkit-tools/oui-updater/internal/logger"
	"github.com/netkit-tools/oui-updater/internal/service/updater"
	"github.com/netkit-tools/oui-updater/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// logLevel sets the minimum level for operational logging.
	logLevel string

	// rootCmd represents the base command refreshing the lookup table.
	rootCmd = &cobra.Command{
		Use:          "oui-updater",
		Short:        "Refresh nmap's MAC vendor lookup table from the IEEE OUI registry",
		Long:         "Back up the installed nmap-mac-prefixes file, download the latest IEEE OUI registry, append vendor assignments that are not present yet and install the merged table in place of the original.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &updater.Options{
				ConfigPath: configPath,
			}

			return updater.Run(ctx, options)
		},
	}
)

// Execute runs the oui-updater CLI and exits with a failure-point-specific
// status code on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(updater.ExitCodeFor(err))
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error, fatal)")
}
