package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/slotmatch/slotmatch/internal/config"
)

var (
	debugMode bool
	envFiles  []string
)

// rootCmd represents the base command for the slotmatch application
var rootCmd = &cobra.Command{
	Use:   "slotmatch",
	Short: "Finds the time slots that work for everyone in a group",
	Long: `slotmatch collects which 30-minute slots participants cannot attend and
aggregates the answers into a heatmap and a ranked list of the best slots.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (serve)
  - A terminal heatmap of one event, once or live (heatmap, watch)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFiles...); err != nil {
			return err
		}
		setupLogging(debugMode)
		return nil
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "slotmatch version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging installs the default slog logger. Logs go to stderr so the
// stdio transport keeps stdout for protocol messages.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of slotmatch",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slotmatch version %s\n", version)
		},
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Load environment variables from these files (default: .env when present)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHeatmapCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
