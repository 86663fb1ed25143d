package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/signbench/internal/engine"
	"github.com/wesleyorama2/signbench/internal/entropy"
	"github.com/wesleyorama2/signbench/internal/output"
	"github.com/wesleyorama2/signbench/internal/signer"
)

//go:embed schema.json
var schemaJSON string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return compiler.Compile("schema.json")
})

// LoadConfig loads a run configuration from a file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses configuration data.
//
// The format is determined by the file extension in path, or defaults to YAML
// if the path is empty or has an unknown extension. The document is checked
// against the embedded JSON Schema before it is decoded.
func ParseConfig(data []byte, path string) (*RunConfig, error) {
	ext := strings.ToLower(filepath.Ext(path))
	isJSON := ext == ".json"

	doc, err := decodeDocument(data, isJSON)
	if err != nil {
		return nil, err
	}
	if err := checkSchema(doc); err != nil {
		return nil, err
	}

	var config RunConfig
	if isJSON {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	return &config, nil
}

// decodeDocument returns the document in the generic form the schema
// validator expects: YAML is normalized through JSON.
func decodeDocument(data []byte, isJSON bool) (interface{}, error) {
	var doc interface{}
	if isJSON {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else {
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize YAML config: %w", err)
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("failed to normalize YAML config: %w", err)
		}
	}

	if doc == nil {
		return nil, errors.New("config is empty")
	}
	return doc, nil
}

func checkSchema(doc interface{}) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	errs := &ValidationErrors{}
	collectSchemaErrors(verr, errs)
	if !errs.HasErrors() {
		errs.Add("", verr.Error())
	}
	return errs
}

// collectSchemaErrors flattens the leaves of a schema validation error.
func collectSchemaErrors(err *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(err.Causes) == 0 {
		errs.Add(instancePath(err.InstanceLocation), err.Message)
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, errs)
	}
}

// instancePath turns a JSON pointer into a dotted field path.
func instancePath(pointer string) string {
	pointer = strings.TrimPrefix(strings.TrimPrefix(pointer, "#"), "/")
	return strings.ReplaceAll(pointer, "/", ".")
}

// ParseDurationString parses a duration string with support for common formats.
//
// Supported formats:
//   - Standard Go duration: "3s", "500ms"
//   - Seconds as integer: "3" (treated as 3 seconds)
func ParseDurationString(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	var seconds int
	if _, err := fmt.Sscanf(s, "%d", &seconds); err == nil && fmt.Sprint(seconds) == s {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}

// ApplyDefaults fills in every optional field left empty. It is idempotent.
func ApplyDefaults(config *RunConfig) {
	if config.Digest == "" {
		config.Digest = string(signer.SHA256)
	}
	if config.Entropy.Source == "" {
		config.Entropy.Source = string(entropy.KindXOF)
	}
	if config.Warmup.Ops == 0 {
		config.Warmup.Ops = engine.DefaultWarmupOps
	}
	if config.Warmup.Settle == nil {
		settle := Duration(engine.DefaultWarmupSettle)
		config.Warmup.Settle = &settle
	}
	if config.Output.Format == "" {
		config.Output.Format = string(output.FormatText)
	}

	// Key defaults depend on the key type and are left alone when the type
	// is unknown so validation reports it.
	kind, err := signer.ParseKeyKind(config.Key.Type)
	if err != nil {
		return
	}
	switch kind {
	case signer.KindRSA:
		if config.Key.Size == 0 {
			config.Key.Size = signer.DefaultRSABits
		}
	case signer.KindECDSA:
		if config.Key.Curve == "" {
			config.Key.Curve = string(signer.CurveP256)
		}
	}
}
