package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/canopy/pkg/errors"
)

// Load loads a configuration from a YAML (or JSON) file into config. Fields
// absent from the file keep the values config already holds, so callers
// pass a struct pre-populated with defaults.
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// LoadJob reads a job configuration over NewJobConfig defaults. Both the
// sectioned layout and the flat key layout of the earlier Spark job
// (input-dir, output-dir, input-delimiter, ...) are accepted.
func LoadJob(filePath string) (*JobConfig, error) {
	var legacy legacyJobConfig
	if err := Load(filePath, &legacy); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "cannot load job configuration").
			WithDetail("path", filePath)
	}

	cfg := NewJobConfig()
	if legacy.isLegacy() {
		if err := legacy.apply(cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid job configuration").
				WithDetail("path", filePath)
		}
		return cfg, nil
	}

	if err := Load(filePath, cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "cannot load job configuration").
			WithDetail("path", filePath)
	}
	return cfg, nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// legacyJobConfig mirrors etl_config.json of the Spark job, where every
// value is a string.
type legacyJobConfig struct {
	InputFileFormat string `yaml:"input-file-format"`
	InputDir        string `yaml:"input-dir"`
	OutputDir       string `yaml:"output-dir"`
	InputDelimiter  string `yaml:"input-delimiter"`
	InputHeader     string `yaml:"input-header"`
	InferSchema     string `yaml:"infer-schema"`
}

func (l legacyJobConfig) isLegacy() bool {
	return l.InputDir != "" || l.OutputDir != ""
}

func (l legacyJobConfig) apply(cfg *JobConfig) error {
	cfg.Input.Path = l.InputDir
	cfg.Output.Dir = l.OutputDir
	if l.InputFileFormat != "" {
		cfg.Input.Format = l.InputFileFormat
	}
	if l.InputDelimiter != "" {
		cfg.Input.Delimiter = l.InputDelimiter
	}
	if l.InputHeader != "" {
		v, err := strconv.ParseBool(l.InputHeader)
		if err != nil {
			return fmt.Errorf("input-header: %w", err)
		}
		cfg.Input.HasHeader = v
	}
	if l.InferSchema != "" {
		v, err := strconv.ParseBool(l.InferSchema)
		if err != nil {
			return fmt.Errorf("infer-schema: %w", err)
		}
		cfg.Input.InferSchema = v
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
