package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "profilez",
	Short: "Capture and inspect chrome://tracing tag profiles",
	Long: `profilez records begin/end/value tags from concurrent goroutines and
writes them as trace-viewer JSON. The capture command runs a synthetic
workload; the inspect command summarizes an existing trace file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(inspectCmd)

	rootCmd.PersistentFlags().Bool("verbose", false, "log recorder lifecycle to stderr")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the stderr logger requested by --verbose.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	if !verbose {
		return slog.New(slog.DiscardHandler), nil
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})), nil
}
