package config

import (
	"fmt"
	"strings"

	"github.com/wesleyorama2/signbench/internal/entropy"
	"github.com/wesleyorama2/signbench/internal/output"
	"github.com/wesleyorama2/signbench/internal/signer"
	"github.com/wesleyorama2/signbench/internal/workload"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Fields returns the fields that failed validation, in order.
func (e *ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		fields = append(fields, err.Field)
	}
	return fields
}

// Validate validates the run configuration. It assumes ApplyDefaults has
// been called.
//
// Returns nil if valid, or a *ValidationErrors containing every problem.
func (c *RunConfig) Validate() error {
	errs := &ValidationErrors{}

	if c.Threads < 1 {
		errs.Add("threads", fmt.Sprintf("threads must be at least 1, got %d", c.Threads))
	}
	if c.Ops < 1 {
		errs.Add("ops", fmt.Sprintf("ops must be at least 1, got %d", c.Ops))
	}

	if c.Operation == "" {
		errs.Add("operation", "operation is required")
	} else if _, err := workload.ParseOpType(c.Operation); err != nil {
		errs.Add("operation", err.Error())
	}

	validateKey(&c.Key, errs)

	if _, err := signer.ParseDigest(c.Digest); err != nil {
		errs.Add("digest", err.Error())
	}

	validateEntropy(&c.Entropy, errs)
	validateWarmup(&c.Warmup, errs)

	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		errs.Add("output.format", err.Error())
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateKey(k *KeyConfig, errs *ValidationErrors) {
	if k.Type == "" {
		errs.Add("key.type", "key type is required")
		return
	}

	kind, err := signer.ParseKeyKind(k.Type)
	if err != nil {
		errs.Add("key.type", err.Error())
		return
	}

	switch kind {
	case signer.KindRSA:
		if k.Size < signer.MinRSABits || k.Size > signer.MaxRSABits {
			errs.Add("key.size", fmt.Sprintf("rsa key size must be between %d and %d bits, got %d",
				signer.MinRSABits, signer.MaxRSABits, k.Size))
		}
	case signer.KindECDSA:
		if _, err := signer.ParseCurve(k.Curve); err != nil {
			errs.Add("key.curve", err.Error())
		}
	}
}

func validateEntropy(e *EntropyConfig, errs *ValidationErrors) {
	kind, err := entropy.ParseKind(e.Source)
	if err != nil {
		errs.Add("entropy.source", err.Error())
		return
	}

	if e.Seed == "" {
		return
	}
	if kind != entropy.KindXOF {
		errs.Add("entropy.seed", "seed is only used by the xof source")
		return
	}
	if _, err := entropy.ParseSeed(e.Seed); err != nil {
		errs.Add("entropy.seed", err.Error())
	}
}

func validateWarmup(w *WarmupConfig, errs *ValidationErrors) {
	if w.Ops < 0 {
		errs.Add("warmup.ops", "ops cannot be negative")
	}
	if w.Settle != nil && *w.Settle < 0 {
		errs.Add("warmup.settle", "settle cannot be negative")
	}
	if w.PerWorker < 0 {
		errs.Add("warmup.perWorker", "perWorker cannot be negative")
	}
}
