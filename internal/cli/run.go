package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wesleyorama2/signbench/internal/config"
	"github.com/wesleyorama2/signbench/internal/engine"
	"github.com/wesleyorama2/signbench/internal/metrics"
	"github.com/wesleyorama2/signbench/internal/output"
	"github.com/wesleyorama2/signbench/internal/workload"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a signing benchmark",
		Long: `Run a fixed-shape benchmark: every worker performs the same number of
operations and throughput is computed over the window in which all of them
are executing.

Flag mode:
  signbench run -t 8 -n 10000 -o sign -k ecdsa -c nistp384

Config file mode (flags override file values):
  signbench run --config bench.yaml --thread-count 16`,
		Args: cobra.NoArgs,
		RunE: runBenchmark,
	}

	flags := cmd.Flags()
	flags.IntP("thread-count", "t", 0, "Number of concurrent workers")
	flags.IntP("num-ops", "n", 0, "Number of operations per worker")
	flags.StringP("operation-type", "o", "", "Operation: sign, verify, keygen (case insensitive)")
	flags.StringP("key-type", "k", "", "Key type: rsa, ecdsa, ed25519, ed448 (case insensitive)")
	flags.StringP("md-type", "m", "sha256", "Digest: sha256, sha384, sha512 (case insensitive)")
	flags.StringP("curve", "c", "nistp256", "ECDSA curve: secp224r1, secp256r1, secp384r1, secp521r1, secp256k1")
	flags.IntP("key-size", "s", 2048, "RSA key size in bits")

	flags.String("config", "", "Configuration file (YAML or JSON)")
	flags.String("seed", "", "Hex seed for the xof entropy source (random when empty)")
	flags.String("entropy", "xof", "Entropy source: xof, system")
	flags.Int("warmup-ops", engine.DefaultWarmupOps, "Warm-up operations before the run")
	flags.Duration("warmup-settle", engine.DefaultWarmupSettle, "Pause after the warm-up operations")
	flags.Bool("no-warmup", false, "Skip the warm-up")
	flags.Int("worker-warmup-ops", 0, "Throwaway operations each worker runs before its setup")
	flags.Bool("lock-os-thread", false, "Pin every worker to its own OS thread")

	flags.String("format", "text", "Result format: text, json, yaml")
	flags.BoolP("quiet", "q", false, "Only print the header and the throughput")
	flags.Bool("no-color", false, "Disable colored output")
	flags.String("prom-textfile", "", "Write Prometheus metrics to this file")
	flags.String("cpuprofile", "", "Write a CPU profile of the run to this file")
	flags.String("memprofile", "", "Write a heap profile to this file after the run")

	return cmd
}

func runBenchmark(cmd *cobra.Command, args []string) (err error) {
	logger, err := loggerFromCmd(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadRunConfig(cmd.Flags())
	if err != nil {
		return err
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		return err
	}

	desc, err := workload.New(resolved.Workload)
	if err != nil {
		return err
	}

	// Machine-readable results own stdout, so progress moves to stderr.
	progress := cmd.OutOrStdout()
	if resolved.Format != output.FormatText {
		progress = cmd.ErrOrStderr()
	}
	reporter := output.NewReporter(output.ReporterConfig{
		Writer:  progress,
		Quiet:   resolved.Quiet,
		NoColor: resolved.NoColor,
	})

	logger.Info("starting benchmark",
		"name", resolved.Name,
		"operation", desc.OperationName(),
		"key", resolved.Workload.Key.String(),
		"digest", resolved.Workload.Digest,
		"threads", resolved.Engine.Threads,
		"opsPerThread", resolved.Engine.OpsPerThread,
		"entropy", resolved.Workload.Entropy.Kind(),
	)

	cpuProfile, _ := cmd.Flags().GetString("cpuprofile")
	memProfile, _ := cmd.Flags().GetString("memprofile")
	prof, err := startProfiling(cpuProfile, memProfile, logger)
	if err != nil {
		return err
	}
	defer func() {
		if perr := prof.stop(); perr != nil && err == nil {
			err = perr
		}
	}()

	reporter.Announce(desc.OperationName(), resolved.Engine.TotalOps())

	ctx := cmd.Context()
	recorder := metrics.NewRecorder()

	if resolved.Warmup != nil {
		reporter.WarmupStarted(desc.OperationName(), *resolved.Warmup)
		recorder.SetPhase(metrics.PhaseWarmup)
		started := time.Now()
		if err := engine.Warmup(ctx, desc, *resolved.Warmup); err != nil {
			reporter.Failure(err)
			return &reportedError{err: err}
		}
		elapsed := time.Since(started)
		recorder.RecordWorkerPhase(metrics.PhaseWarmup, elapsed)
		reporter.WarmupDone(elapsed)
	}

	eng, err := engine.NewEngine(resolved.Engine,
		engine.WithObserver(reporter),
		engine.WithRecorder(recorder),
		engine.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	result, err := eng.Run(ctx, desc)
	if err != nil {
		logger.Error("benchmark failed", "error", err)
		reporter.Failure(err)
		return &reportedError{err: err}
	}

	if err := writeResult(cmd.OutOrStdout(), reporter, resolved, result); err != nil {
		return err
	}

	if resolved.PromTextfile != "" {
		summary := metrics.RunSummary{
			Operation:  result.Operation,
			Threads:    result.Threads,
			TotalOps:   result.TotalOps,
			Window:     result.Window,
			Throughput: result.Throughput,
		}
		if err := metrics.WriteTextfile(resolved.PromTextfile, summary, result.Phases); err != nil {
			return err
		}
		logger.Info("wrote metrics textfile", "path", resolved.PromTextfile)
	}

	return nil
}

func writeResult(w io.Writer, reporter *output.Reporter, resolved *config.Resolved, result *engine.Result) error {
	if resolved.Format == output.FormatText {
		reporter.Summary(result)
		return nil
	}
	report := output.NewReport(resolved.Name, resolved.Workload.Key.String(), string(resolved.Workload.Digest), result)
	return output.WriteReport(w, resolved.Format, report)
}

// loadRunConfig reads the optional config file and applies every flag the
// user set on top of it. Unset flags never override file values.
func loadRunConfig(flags *pflag.FlagSet) (*config.RunConfig, error) {
	cfg := &config.RunConfig{}
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		cfg = loaded
	}

	applyFlags(flags, cfg)
	config.ApplyDefaults(cfg)
	return cfg, nil
}

func applyFlags(flags *pflag.FlagSet, cfg *config.RunConfig) {
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}

	set("thread-count", func() { cfg.Threads, _ = flags.GetInt("thread-count") })
	set("num-ops", func() { cfg.Ops, _ = flags.GetInt("num-ops") })
	set("operation-type", func() { cfg.Operation, _ = flags.GetString("operation-type") })
	set("key-type", func() { cfg.Key.Type, _ = flags.GetString("key-type") })
	set("md-type", func() { cfg.Digest, _ = flags.GetString("md-type") })
	set("curve", func() { cfg.Key.Curve, _ = flags.GetString("curve") })
	set("key-size", func() { cfg.Key.Size, _ = flags.GetInt("key-size") })
	set("seed", func() { cfg.Entropy.Seed, _ = flags.GetString("seed") })
	set("entropy", func() { cfg.Entropy.Source, _ = flags.GetString("entropy") })
	set("warmup-ops", func() { cfg.Warmup.Ops, _ = flags.GetInt("warmup-ops") })
	set("warmup-settle", func() {
		d, _ := flags.GetDuration("warmup-settle")
		settle := config.Duration(d)
		cfg.Warmup.Settle = &settle
	})
	set("no-warmup", func() {
		off, _ := flags.GetBool("no-warmup")
		enabled := !off
		cfg.Warmup.Enabled = &enabled
	})
	set("worker-warmup-ops", func() { cfg.Warmup.PerWorker, _ = flags.GetInt("worker-warmup-ops") })
	set("lock-os-thread", func() { cfg.LockOSThread, _ = flags.GetBool("lock-os-thread") })
	set("format", func() { cfg.Output.Format, _ = flags.GetString("format") })
	set("quiet", func() { cfg.Output.Quiet, _ = flags.GetBool("quiet") })
	set("no-color", func() { cfg.Output.NoColor, _ = flags.GetBool("no-color") })
	set("prom-textfile", func() { cfg.Output.PromTextfile, _ = flags.GetString("prom-textfile") })
}
