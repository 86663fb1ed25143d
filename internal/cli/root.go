// Package cli implements the signbench command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// NewRootCmd returns the base command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "signbench",
		Short:   "Measure concurrent signing throughput",
		Version: version,
		Long: `signbench measures the sustained throughput of a signing primitive when it
is executed concurrently by a fixed number of workers, each performing a
fixed number of operations. Only the window in which every worker is
executing is timed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().String("log-level", "warn", "Diagnostics log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newAlgorithmsCmd())
	return root
}

// Execute runs the root command. Interrupts cancel the benchmark.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	return err
}

// reportedError marks an error the reporter has already shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }
