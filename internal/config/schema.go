// Package config defines the benchmark run configuration.
//
// Configuration can be specified in YAML or JSON format, and every field can
// also be set from the command line. The file format mirrors the flags:
//
//	name: ecdsa-p256
//	threads: 8
//	ops: 10000
//	operation: sign
//	key:
//	  type: ecdsa
//	  curve: secp256r1
//	digest: sha256
//	warmup:
//	  ops: 100
//	  settle: 3s
package config

import (
	"time"
)

// RunConfig is the root configuration structure.
type RunConfig struct {
	// Name is an optional label for the run
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Threads is the number of concurrent workers
	Threads int `json:"threads" yaml:"threads"`

	// Ops is the number of operations each worker performs
	Ops int `json:"ops" yaml:"ops"`

	// Operation is the benchmarked operation (sign, verify, keygen)
	Operation string `json:"operation" yaml:"operation"`

	// Key selects the key material
	Key KeyConfig `json:"key" yaml:"key"`

	// Digest is the message digest (sha256, sha384, sha512)
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`

	// Entropy selects the random input source
	Entropy EntropyConfig `json:"entropy,omitempty" yaml:"entropy,omitempty"`

	// Warmup controls the warm-up before the timed run
	Warmup WarmupConfig `json:"warmup,omitempty" yaml:"warmup,omitempty"`

	// Output controls reporting
	Output OutputConfig `json:"output,omitempty" yaml:"output,omitempty"`

	// LockOSThread pins each worker to its own OS thread
	LockOSThread bool `json:"lockOSThread,omitempty" yaml:"lockOSThread,omitempty"`
}

// KeyConfig selects the key type and its size or curve.
type KeyConfig struct {
	// Type is the key kind (rsa, ecdsa, ed25519, ed448)
	Type string `json:"type" yaml:"type"`

	// Size is the RSA modulus size in bits
	Size int `json:"size,omitempty" yaml:"size,omitempty"`

	// Curve is the ECDSA curve
	Curve string `json:"curve,omitempty" yaml:"curve,omitempty"`
}

// EntropyConfig selects where random inputs come from.
type EntropyConfig struct {
	// Source is xof (default) or system
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Seed is a hex encoded xof seed; random when empty
	Seed string `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// WarmupConfig controls warm-up.
type WarmupConfig struct {
	// Enabled turns the warm-up on or off (default: true)
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Ops is the number of warm-up operations on the coordinator (default: 100)
	Ops int `json:"ops,omitempty" yaml:"ops,omitempty"`

	// Settle is how long to pause after the warm-up operations (default: 3s)
	Settle *Duration `json:"settle,omitempty" yaml:"settle,omitempty"`

	// PerWorker is the number of throwaway operations each worker runs
	// before its setup
	PerWorker int `json:"perWorker,omitempty" yaml:"perWorker,omitempty"`
}

// IsEnabled reports whether warm-up runs.
func (w WarmupConfig) IsEnabled() bool {
	return w.Enabled == nil || *w.Enabled
}

// OutputConfig controls reporting.
type OutputConfig struct {
	// Format is text (default), json or yaml
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Quiet suppresses per-worker progress lines
	Quiet bool `json:"quiet,omitempty" yaml:"quiet,omitempty"`

	// NoColor disables colored output
	NoColor bool `json:"noColor,omitempty" yaml:"noColor,omitempty"`

	// PromTextfile is a path to write Prometheus metrics to
	PromTextfile string `json:"promTextfile,omitempty" yaml:"promTextfile,omitempty"`
}

// Duration is a time.Duration that marshals as a Go duration string.
type Duration time.Duration

// GetDuration returns the duration or a default if zero.
func (d Duration) GetDuration(defaultValue time.Duration) time.Duration {
	if d == 0 {
		return defaultValue
	}
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" {
		s = ""
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}
