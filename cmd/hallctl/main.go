package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-hallnav/internal/config"
	"go-hallnav/internal/logger"
)

var (
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hallctl",
	Short: "Operate the hall recognition service from the command line",
	Long: `hallctl reads the same environment as the API server.

Available subcommands:
  seed       - Create the schema and load halls and schedules into Postgres
  recognize  - Run the recognition pipeline on a local image
  route      - Print directions between two locations`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetOutput(os.Stderr)

		loaded, err := config.LoadFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if !verbose && loaded.LogLevel == "info" {
			loaded.LogLevel = "warn"
		}
		logger.Logger.SetLevel(logger.ParseLevel(loaded.LogLevel))
		if verbose {
			logger.Logger.SetLevel(logrus.DebugLevel)
			loaded.LogLevel = "debug"
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.AddCommand(seedCmd, recognizeCmd, routeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
