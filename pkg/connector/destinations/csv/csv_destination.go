// Package csv implements the result sink of Canopy: it persists a result
// table as a single delimited file with a header row, replacing whatever was
// at the destination before.
package csv

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/canopy/pkg/compression"
	"github.com/ajitpratap0/canopy/pkg/config"
	"github.com/ajitpratap0/canopy/pkg/errors"
	"github.com/ajitpratap0/canopy/pkg/logger"
	"github.com/ajitpratap0/canopy/pkg/models"
)

// Options controls how result files are written.
type Options struct {
	Delimiter   rune
	Compression compression.Algorithm
	Level       compression.Level
}

// OptionsFromConfig converts the output section of a job configuration.
func OptionsFromConfig(cfg config.OutputConfig) (Options, error) {
	delim, err := config.DelimiterRune(cfg.Delimiter)
	if err != nil {
		return Options{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output delimiter").
			WithDetail("key", "output.delimiter")
	}
	algo, err := compression.ParseAlgorithm(cfg.Compression)
	if err != nil {
		return Options{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression").
			WithDetail("key", "output.compression")
	}
	return Options{Delimiter: delim, Compression: algo, Level: compression.Default}, nil
}

// WriteResult describes the artifact produced by one Write.
type WriteResult struct {
	Path  string
	Rows  int
	Bytes int64
}

// CSVDestination writes result tables to delimited files.
type CSVDestination struct {
	opts   Options
	logger *zap.Logger
}

// NewCSVDestination creates a sink. A nil logger uses the global one.
func NewCSVDestination(opts Options, log *zap.Logger) *CSVDestination {
	if log == nil {
		log = logger.Get()
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Compression == "" {
		opts.Compression = compression.None
	}
	if opts.Level == 0 {
		opts.Level = compression.Default
	}
	return &CSVDestination{
		opts:   opts,
		logger: log.With(zap.String("connector", "csv_destination")),
	}
}

// Extension returns the file suffix of written files, ".csv" plus the
// compression suffix.
func (d *CSVDestination) Extension() string {
	return ".csv" + compression.Extension(d.opts.Compression)
}

// Write persists table at path as exactly one file. The data is written to
// a temporary file next to path and renamed over it, so readers never see a
// partial file. A directory at path, or at path without the file extension
// as left by an earlier Spark run, is removed first; parent directories are
// created.
func (d *CSVDestination) Write(ctx context.Context, table *models.Table, path string) (WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return WriteResult{}, err
	}
	if table == nil {
		return WriteResult{}, errors.New(errors.ErrorTypeSinkWrite, "nothing to write").
			WithDetail("path", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return WriteResult{}, sinkError(err, "cannot create output directory", path)
	}
	for _, stale := range d.staleOutputs(path) {
		if err := os.RemoveAll(stale); err != nil {
			return WriteResult{}, sinkError(err, "cannot replace output directory", path).
				WithDetail("directory", stale)
		}
		d.logger.Debug("removed directory at output path", zap.String("path", stale))
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := d.writeFile(table, tmp); err != nil {
		_ = os.Remove(tmp)
		return WriteResult{}, sinkError(err, "cannot write result file", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return WriteResult{}, sinkError(err, "cannot move result file into place", path)
	}

	result := WriteResult{Path: path, Rows: table.Len()}
	if info, err := os.Stat(path); err == nil {
		result.Bytes = info.Size()
	}

	d.logger.Info("result written",
		zap.String("path", path),
		zap.Int("rows", result.Rows),
		zap.Int64("bytes", result.Bytes))

	return result, nil
}

func (d *CSVDestination) writeFile(table *models.Table, path string) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) //nolint:gosec // G304: path derives from the output directory
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	compressed, err := compression.NewWriter(file, d.opts.Compression, d.opts.Level)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(compressed)
	writer.Comma = d.opts.Delimiter

	if err := writer.Write(table.Schema().Names()); err != nil {
		return err
	}
	record := make([]string, table.Schema().Len())
	for _, row := range table.Rows() {
		for i, v := range row {
			record[i] = v.String()
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	if err := compressed.Close(); err != nil {
		return err
	}
	return file.Sync()
}

// staleOutputs returns the directories Write replaces: a directory at path
// itself, and a Spark output directory (part files and markers only) at
// path without the file extension.
func (d *CSVDestination) staleOutputs(path string) []string {
	var dirs []string
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		dirs = append(dirs, path)
	}
	ext := d.Extension()
	if !strings.HasSuffix(path, ext) || filepath.Base(path) == ext {
		return dirs
	}
	base := strings.TrimSuffix(path, ext)
	if isSparkOutput(base) {
		dirs = append(dirs, base)
	}
	return dirs
}

// isSparkOutput reports whether dir holds nothing but part-* files and
// hidden or underscore-prefixed markers such as _SUCCESS and .crc files.
func isSparkOutput(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			return false
		}
		if !strings.HasPrefix(name, "part-") && !strings.HasPrefix(name, "_") && !strings.HasPrefix(name, ".") {
			return false
		}
	}
	return true
}

func sinkError(err error, msg, path string) *errors.Error {
	return errors.Wrap(err, errors.ErrorTypeSinkWrite, msg).WithDetail("path", path)
}
