package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/canopy/pkg/errors"
)

// JobConfig is the single configuration structure for a tree statistics run.
// It is organized into logical sections:
//   - Input: where the raw dataset lives and how it is delimited
//   - Output: where result files go and how they are written
//   - Analyses: per-analysis parameters and toggles
//   - Performance: concurrency of the analysis stage
//   - Reliability: partial-success policy
//   - Observability: logging, metrics and tracing
type JobConfig struct {
	// Name identifies the job in logs, metrics and reports
	Name string `yaml:"name" json:"name"`

	Input         InputConfig         `yaml:"input" json:"input"`
	Output        OutputConfig        `yaml:"output" json:"output"`
	Analyses      AnalysesConfig      `yaml:"analyses" json:"analyses"`
	Performance   PerformanceConfig   `yaml:"performance" json:"performance"`
	Reliability   ReliabilityConfig   `yaml:"reliability" json:"reliability"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// InputConfig describes the raw delimited dataset.
type InputConfig struct {
	// Path is a delimited file, or a directory whose *.csv files are read in order
	Path string `yaml:"path" json:"path"`
	// Format selects the reader; only "csv" is supported
	Format string `yaml:"format" json:"format"`
	// Delimiter is a single character; "\t" and "tab" are accepted for tabs
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	// HasHeader declares that the first record names the columns
	HasHeader bool `yaml:"has_header" json:"has_header"`
	// InferSchema narrows column types to int/float/bool when every value allows it
	InferSchema bool `yaml:"infer_schema" json:"infer_schema"`
	// Encoding is a WHATWG encoding label (utf-8, windows-1252, iso-8859-1, ...)
	Encoding string `yaml:"encoding" json:"encoding"`
	// NullValues lists field contents that load as null
	NullValues []string `yaml:"null_values" json:"null_values"`
	// LazyQuotes tolerates stray quotes inside unquoted fields
	LazyQuotes bool `yaml:"lazy_quotes" json:"lazy_quotes"`
}

// OutputConfig describes where and how result tables are persisted.
type OutputConfig struct {
	// Dir receives one file per analysis, named by the analysis suffix
	Dir string `yaml:"dir" json:"dir"`
	// Delimiter for result files
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	// Compression is one of none, gzip, zstd, snappy, lz4
	Compression string `yaml:"compression" json:"compression"`
	// ReportPath optionally receives a JSON run report
	ReportPath string `yaml:"report_path" json:"report_path"`
	// S3 optionally mirrors result files to a bucket
	S3 S3Config `yaml:"s3" json:"s3"`
}

// S3Config configures the optional object storage mirror.
type S3Config struct {
	Bucket       string `yaml:"bucket" json:"bucket"`
	Prefix       string `yaml:"prefix" json:"prefix"`
	Region       string `yaml:"region" json:"region"`
	Endpoint     string `yaml:"endpoint" json:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style" json:"use_path_style"`
}

// Enabled reports whether a bucket has been configured
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// AnalysesConfig holds the parameters of the four analyses.
type AnalysesConfig struct {
	MostCommonTrees     TopSubtypesConfig `yaml:"most_common_trees" json:"most_common_trees"`
	MostTreesInLocation AddressConfig     `yaml:"most_trees_in_location" json:"most_trees_in_location"`
	BanyanTrees         PermitCountConfig `yaml:"count_banyan_trees" json:"count_banyan_trees"`
	PlumTrees           StatusCountConfig `yaml:"count_plum_trees" json:"count_plum_trees"`
}

// TopSubtypesConfig parameterizes the most common subtypes analysis.
type TopSubtypesConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	TopN    int  `yaml:"top_n" json:"top_n"`
}

// AddressConfig toggles the address with most trees analysis.
type AddressConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// PermitCountConfig parameterizes counting a species with a permit number.
type PermitCountConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// SpeciesPattern is a case-sensitive SQL LIKE pattern
	SpeciesPattern string `yaml:"species_pattern" json:"species_pattern"`
	// Column names the single count column of the result
	Column string `yaml:"column" json:"column"`
}

// StatusCountConfig parameterizes counting a species with a legal status.
type StatusCountConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Species is matched as a case-sensitive substring
	Species string `yaml:"species" json:"species"`
	// Status is a SQL LIKE pattern; without wildcards it is an exact match
	Status string `yaml:"status" json:"status"`
	Column string `yaml:"column" json:"column"`
}

// PerformanceConfig controls concurrency of the analysis stage.
type PerformanceConfig struct {
	// Workers bounds concurrently running analyses (0 = one per analysis)
	Workers int `yaml:"workers" json:"workers"`
}

// ReliabilityConfig contains the partial-success policy.
type ReliabilityConfig struct {
	// FailFast stops scheduling analyses after the first failure
	FailFast bool `yaml:"fail_fast" json:"fail_fast"`
}

// ObservabilityConfig contains logging, metrics and tracing settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	// MetricsTextfile receives the run's metrics in Prometheus text format
	MetricsTextfile string `yaml:"metrics_textfile" json:"metrics_textfile"`
	// PushgatewayURL receives the run's metrics at the end of the run
	PushgatewayURL string `yaml:"pushgateway_url" json:"pushgateway_url"`
	// Tracing exports spans to stdout
	Tracing bool `yaml:"tracing" json:"tracing"`
}

// NewJobConfig creates a JobConfig with the defaults of the San Francisco
// street tree job. Input path and output directory have no default.
func NewJobConfig() *JobConfig {
	return &JobConfig{
		Name: "sf_tree_distribution",
		Input: InputConfig{
			Format:      "csv",
			Delimiter:   ",",
			HasHeader:   true,
			InferSchema: true,
			Encoding:    "utf-8",
			NullValues:  []string{""},
		},
		Output: OutputConfig{
			Delimiter:   ",",
			Compression: "none",
		},
		Analyses: AnalysesConfig{
			MostCommonTrees: TopSubtypesConfig{
				Enabled: true,
				TopN:    5,
			},
			MostTreesInLocation: AddressConfig{
				Enabled: true,
			},
			BanyanTrees: PermitCountConfig{
				Enabled:        true,
				SpeciesPattern: "%Banyan Fig%",
				Column:         "BanyanTreeCount",
			},
			PlumTrees: StatusCountConfig{
				Enabled: true,
				Species: "Cherry Plum",
				Status:  "DPW Maintained",
				Column:  "CherryPlumTrees",
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogEncoding: "json",
		},
	}
}

var compressionNames = map[string]bool{
	"": true, "none": true, "gzip": true, "zstd": true, "snappy": true, "lz4": true,
}

// Validate checks required fields and value ranges. Every problem is a
// config error naming the offending key.
func (c *JobConfig) Validate() error {
	if c.Input.Path == "" {
		return invalid("input.path", "is required")
	}
	if !strings.EqualFold(c.Input.Format, "csv") {
		return invalid("input.format", fmt.Sprintf("unsupported format %q", c.Input.Format))
	}
	if _, err := DelimiterRune(c.Input.Delimiter); err != nil {
		return invalid("input.delimiter", err.Error())
	}
	if c.Output.Dir == "" {
		return invalid("output.dir", "is required")
	}
	if _, err := DelimiterRune(c.Output.Delimiter); err != nil {
		return invalid("output.delimiter", err.Error())
	}
	if !compressionNames[strings.ToLower(c.Output.Compression)] {
		return invalid("output.compression", fmt.Sprintf("unknown algorithm %q", c.Output.Compression))
	}

	a := c.Analyses
	if a.MostCommonTrees.Enabled && a.MostCommonTrees.TopN < 1 {
		return invalid("analyses.most_common_trees.top_n", "must be at least 1")
	}
	if a.BanyanTrees.Enabled {
		if a.BanyanTrees.SpeciesPattern == "" {
			return invalid("analyses.count_banyan_trees.species_pattern", "is required")
		}
		if a.BanyanTrees.Column == "" {
			return invalid("analyses.count_banyan_trees.column", "is required")
		}
	}
	if a.PlumTrees.Enabled {
		if a.PlumTrees.Species == "" || a.PlumTrees.Status == "" {
			return invalid("analyses.count_plum_trees", "species and status are required")
		}
		if a.PlumTrees.Column == "" {
			return invalid("analyses.count_plum_trees.column", "is required")
		}
	}

	if c.Performance.Workers < 0 {
		return invalid("performance.workers", "cannot be negative")
	}
	if _, err := zapcore.ParseLevel(c.Observability.LogLevel); err != nil {
		return invalid("observability.log_level", err.Error())
	}
	switch c.Observability.LogEncoding {
	case "", "json", "console":
	default:
		return invalid("observability.log_encoding", "must be json or console")
	}
	return nil
}

// DelimiterRune converts a configured delimiter into the rune used by the
// CSV reader and writer.
func DelimiterRune(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab", "\t":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q is not allowed", s)
	}
	return r, nil
}

func invalid(key, msg string) error {
	return errors.New(errors.ErrorTypeConfig, msg).WithDetail("key", key)
}
