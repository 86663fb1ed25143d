package config

import (
	"fmt"
	"time"

	"github.com/wesleyorama2/signbench/internal/engine"
	"github.com/wesleyorama2/signbench/internal/entropy"
	"github.com/wesleyorama2/signbench/internal/output"
	"github.com/wesleyorama2/signbench/internal/signer"
	"github.com/wesleyorama2/signbench/internal/workload"
)

// Resolved is a validated configuration converted to the types the engine,
// workload and reporter consume.
type Resolved struct {
	Name     string
	Engine   engine.Config
	Workload workload.Spec

	// Warmup is nil when warm-up is disabled
	Warmup *engine.WarmupConfig

	Format       output.Format
	Quiet        bool
	NoColor      bool
	PromTextfile string
}

// Resolve validates the configuration and converts it. ApplyDefaults must
// have been called.
func (c *RunConfig) Resolve() (*Resolved, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	op, _ := workload.ParseOpType(c.Operation)
	kind, _ := signer.ParseKeyKind(c.Key.Type)
	digest, _ := signer.ParseDigest(c.Digest)
	format, _ := output.ParseFormat(c.Output.Format)

	params := signer.Params{Kind: kind}
	switch kind {
	case signer.KindRSA:
		params.Bits = c.Key.Size
	case signer.KindECDSA:
		params.Curve, _ = signer.ParseCurve(c.Key.Curve)
	}

	source, _ := entropy.ParseKind(c.Entropy.Source)
	seed, _ := entropy.ParseSeed(c.Entropy.Seed)
	factory, err := entropy.NewFactory(source, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create entropy source: %w", err)
	}

	r := &Resolved{
		Name: c.Name,
		Engine: engine.Config{
			Threads:         c.Threads,
			OpsPerThread:    c.Ops,
			WorkerWarmupOps: c.Warmup.PerWorker,
			LockOSThread:    c.LockOSThread,
		},
		Workload: workload.Spec{
			Operation: op,
			Key:       params,
			Digest:    digest,
			Entropy:   factory,
		},
		Format:       format,
		Quiet:        c.Output.Quiet,
		NoColor:      c.Output.NoColor,
		PromTextfile: c.Output.PromTextfile,
	}

	if c.Warmup.IsEnabled() {
		settle := engine.DefaultWarmupSettle
		if c.Warmup.Settle != nil {
			settle = time.Duration(*c.Warmup.Settle)
		}
		r.Warmup = &engine.WarmupConfig{Ops: c.Warmup.Ops, Settle: settle}
	}

	return r, nil
}
