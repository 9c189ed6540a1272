package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/canopy/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() *JobConfig {
	cfg := NewJobConfig()
	cfg.Input.Path = "trees.csv"
	cfg.Output.Dir = "out"
	return cfg
}

func TestLoadJobSectionedYAML(t *testing.T) {
	t.Setenv("CANOPY_TEST_DATA", "/data")
	path := writeFile(t, "job.yaml", `
name: nightly
input:
  path: ${CANOPY_TEST_DATA}/trees.csv
  delimiter: "|"
  infer_schema: false
output:
  dir: ${CANOPY_TEST_DATA}/out
  compression: gzip
analyses:
  most_common_trees:
    top_n: 3
  count_plum_trees:
    enabled: false
reliability:
  fail_fast: true
`)

	cfg, err := LoadJob(path)
	require.NoError(t, err)

	assert.Equal(t, "nightly", cfg.Name)
	assert.Equal(t, "/data/trees.csv", cfg.Input.Path)
	assert.Equal(t, "|", cfg.Input.Delimiter)
	assert.False(t, cfg.Input.InferSchema)
	assert.True(t, cfg.Input.HasHeader, "unset keys keep defaults")
	assert.Equal(t, "/data/out", cfg.Output.Dir)
	assert.Equal(t, "gzip", cfg.Output.Compression)
	assert.Equal(t, 3, cfg.Analyses.MostCommonTrees.TopN)
	assert.True(t, cfg.Analyses.MostCommonTrees.Enabled)
	assert.False(t, cfg.Analyses.PlumTrees.Enabled)
	assert.Equal(t, "Cherry Plum", cfg.Analyses.PlumTrees.Species)
	assert.True(t, cfg.Reliability.FailFast)
	require.NoError(t, cfg.Validate())
}

func TestLoadJobLegacyJSON(t *testing.T) {
	path := writeFile(t, "etl_config.json", `{
  "input-file-format": "csv",
  "input-dir": "/data/san_francisco_street_trees.csv",
  "output-dir": "/data/tree-distributions",
  "input-delimiter": ";",
  "input-header": "true",
  "infer-schema": "false"
}`)

	cfg, err := LoadJob(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/san_francisco_street_trees.csv", cfg.Input.Path)
	assert.Equal(t, "/data/tree-distributions", cfg.Output.Dir)
	assert.Equal(t, ";", cfg.Input.Delimiter)
	assert.True(t, cfg.Input.HasHeader)
	assert.False(t, cfg.Input.InferSchema)
	assert.Equal(t, 5, cfg.Analyses.MostCommonTrees.TopN)
}

func TestLoadJobLegacyBadBool(t *testing.T) {
	path := writeFile(t, "etl_config.json", `{"input-dir": "a.csv", "output-dir": "out", "input-header": "maybe"}`)

	_, err := LoadJob(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoadJobMissingFile(t *testing.T) {
	_, err := LoadJob(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*JobConfig)
		key    string
	}{
		{"missing input", func(c *JobConfig) { c.Input.Path = "" }, "input.path"},
		{"bad format", func(c *JobConfig) { c.Input.Format = "parquet" }, "input.format"},
		{"long delimiter", func(c *JobConfig) { c.Input.Delimiter = "::" }, "input.delimiter"},
		{"missing output", func(c *JobConfig) { c.Output.Dir = "" }, "output.dir"},
		{"bad compression", func(c *JobConfig) { c.Output.Compression = "brotli" }, "output.compression"},
		{"top n", func(c *JobConfig) { c.Analyses.MostCommonTrees.TopN = 0 }, "analyses.most_common_trees.top_n"},
		{"banyan pattern", func(c *JobConfig) { c.Analyses.BanyanTrees.SpeciesPattern = "" }, "analyses.count_banyan_trees.species_pattern"},
		{"plum status", func(c *JobConfig) { c.Analyses.PlumTrees.Status = "" }, "analyses.count_plum_trees"},
		{"workers", func(c *JobConfig) { c.Performance.Workers = -1 }, "performance.workers"},
		{"log level", func(c *JobConfig) { c.Observability.LogLevel = "chatty" }, "observability.log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var e *errors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, errors.ErrorTypeConfig, e.Type)
			assert.Equal(t, tt.key, e.Details["key"])
		})
	}
}

func TestValidateDisabledAnalysesSkipChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Analyses.MostCommonTrees.Enabled = false
	cfg.Analyses.MostCommonTrees.TopN = 0
	cfg.Analyses.BanyanTrees.Enabled = false
	cfg.Analyses.BanyanTrees.SpeciesPattern = ""

	assert.NoError(t, cfg.Validate())
}

func TestDelimiterRune(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", ',', false},
		{",", ',', false},
		{";", ';', false},
		{`\t`, '\t', false},
		{"tab", '\t', false},
		{"¦", '¦', false},
		{`"`, 0, true},
		{"ab", 0, true},
	}
	for _, tt := range tests {
		got, err := DelimiterRune(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.Output.S3.Bucket = "results"
	path := filepath.Join(t.TempDir(), "saved.yaml")

	require.NoError(t, Save(path, cfg))

	loaded, err := LoadJob(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
