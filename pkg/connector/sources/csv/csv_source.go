// Package csv implements the tabular source of Canopy: it loads a delimited
// file, or a directory of delimited files, into an in-memory table.
package csv

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ajitpratap0/canopy/pkg/compression"
	"github.com/ajitpratap0/canopy/pkg/config"
	"github.com/ajitpratap0/canopy/pkg/errors"
	"github.com/ajitpratap0/canopy/pkg/logger"
	"github.com/ajitpratap0/canopy/pkg/models"
	"github.com/ajitpratap0/canopy/pkg/pool"
)

// cancellation is checked once per this many records
const checkEvery = 4096

// Options describes how to read the input dataset.
type Options struct {
	Path       string
	Format     string
	Delimiter  rune
	HasHeader  bool
	InferTypes bool
	// Encoding is a WHATWG label; empty means utf-8
	Encoding string
	// NullValues lists field contents loaded as null; nil means {""}
	NullValues []string
	LazyQuotes bool
	// RequiredColumns must appear in the header; nil means the tree contract
	RequiredColumns []string
	// TextColumns are never narrowed by type inference; nil means the
	// contract's text columns
	TextColumns []string
}

// OptionsFromConfig converts the input section of a job configuration.
func OptionsFromConfig(cfg config.InputConfig) (Options, error) {
	delim, err := config.DelimiterRune(cfg.Delimiter)
	if err != nil {
		return Options{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid input delimiter").
			WithDetail("key", "input.delimiter")
	}
	return Options{
		Path:       cfg.Path,
		Format:     cfg.Format,
		Delimiter:  delim,
		HasHeader:  cfg.HasHeader,
		InferTypes: cfg.InferSchema,
		Encoding:   cfg.Encoding,
		NullValues: cfg.NullValues,
		LazyQuotes: cfg.LazyQuotes,
	}, nil
}

// CSVSource loads delimited text into a models.Table.
type CSVSource struct {
	opts   Options
	nulls  map[string]struct{}
	text   map[string]struct{}
	logger *zap.Logger
}

// NewCSVSource creates a source for opts. A nil logger uses the global one.
func NewCSVSource(opts Options, log *zap.Logger) *CSVSource {
	if log == nil {
		log = logger.Get()
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if len(opts.NullValues) == 0 {
		opts.NullValues = []string{""}
	}
	if opts.RequiredColumns == nil {
		opts.RequiredColumns = models.TreeColumns
	}
	if opts.TextColumns == nil {
		opts.TextColumns = models.TreeTextColumns
	}
	text := make(map[string]struct{}, len(opts.TextColumns))
	for _, name := range opts.TextColumns {
		text[name] = struct{}{}
	}
	nulls := make(map[string]struct{}, len(opts.NullValues))
	for _, v := range opts.NullValues {
		nulls[v] = struct{}{}
	}
	return &CSVSource{
		opts:   opts,
		nulls:  nulls,
		text:   text,
		logger: log.With(zap.String("connector", "csv"), zap.String("path", opts.Path)),
	}
}

// Load reads opts.Path with a source using the global logger.
func Load(ctx context.Context, opts Options) (*models.Table, error) {
	return NewCSVSource(opts, nil).Load(ctx)
}

// Load reads every input file and returns one table. The input is never
// modified and every opened file is closed before Load returns.
func (s *CSVSource) Load(ctx context.Context) (*models.Table, error) {
	if s.opts.Format != "" && !strings.EqualFold(s.opts.Format, "csv") {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported input format %q", s.opts.Format).
			WithDetail("key", "input.format")
	}

	files, err := s.listFiles()
	if err != nil {
		return nil, err
	}

	var (
		header  []string
		records [][]string
	)
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileHeader, fileRecords, err := s.readFile(ctx, path)
		if err != nil {
			return nil, err
		}
		if s.opts.HasHeader {
			if i == 0 {
				header = fileHeader
			} else if !sameHeader(header, fileHeader) {
				return nil, errors.New(errors.ErrorTypeSchema, "input files have different headers").
					WithDetail("path", path).
					WithDetail("expected", strings.Join(header, ","))
			}
		}
		records = append(records, fileRecords...)
	}

	names, err := s.columnNames(header, records)
	if err != nil {
		return nil, err
	}

	table, truncated, err := s.buildTable(names, records)
	if err != nil {
		return nil, err
	}

	if truncated > 0 {
		s.logger.Warn("records wider than the header were truncated",
			zap.Int("records", truncated),
			zap.Int("columns", len(names)))
	}
	s.logger.Info("input loaded",
		zap.Int("files", len(files)),
		zap.Int("rows", table.Len()),
		zap.String("schema", table.Schema().String()))

	return table, nil
}

// listFiles resolves the input path into the files to read. A directory
// contributes its *.csv files, optionally compressed, in lexical order.
func (s *CSVSource) listFiles() ([]string, error) {
	info, err := os.Stat(s.opts.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSourceRead, "cannot access input").
			WithDetail("path", s.opts.Path)
	}
	if !info.IsDir() {
		return []string{s.opts.Path}, nil
	}

	entries, err := os.ReadDir(s.opts.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSourceRead, "cannot list input directory").
			WithDetail("path", s.opts.Path)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || strings.HasPrefix(e.Name(), "_") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), compression.Extension(compression.DetectFromPath(e.Name())))
		if strings.EqualFold(filepath.Ext(name), ".csv") {
			files = append(files, filepath.Join(s.opts.Path, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, errors.New(errors.ErrorTypeSourceRead, "input directory has no csv files").
			WithDetail("path", s.opts.Path)
	}
	sort.Strings(files)
	return files, nil
}

func (s *CSVSource) readFile(ctx context.Context, path string) ([]string, [][]string, error) {
	file, err := os.Open(path) //nolint:gosec // G304: input path comes from the job configuration
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeSourceRead, "cannot open input").
			WithDetail("path", path)
	}
	defer file.Close()

	decompressed, err := compression.NewReader(file, compression.DetectFromPath(path))
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeSourceRead, "cannot decompress input").
			WithDetail("path", path)
	}
	defer decompressed.Close()

	decoded, err := s.decode(decompressed)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeConfig, "unknown input encoding").
			WithDetail("key", "input.encoding")
	}

	reader := csv.NewReader(decoded)
	reader.Comma = s.opts.Delimiter
	reader.FieldsPerRecord = -1 // width is normalized against the header
	reader.LazyQuotes = s.opts.LazyQuotes

	var (
		header  []string
		records [][]string
	)
	for n := 0; ; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			e := errors.Wrap(err, errors.ErrorTypeSourceRead, "malformed delimited input").
				WithDetail("path", path)
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				e = e.WithDetail("line", parseErr.Line)
			}
			return nil, nil, e
		}
		if s.opts.HasHeader && header == nil {
			header = trimAll(record)
			continue
		}
		records = append(records, record)
	}

	if s.opts.HasHeader && header == nil {
		return nil, nil, errors.New(errors.ErrorTypeSchema, "input has no header row").
			WithDetail("path", path)
	}
	return header, records, nil
}

// decode applies the configured character encoding and strips a leading
// byte order mark.
func (s *CSVSource) decode(r io.Reader) (io.Reader, error) {
	label := s.opts.Encoding
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", label, err)
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// columnNames decides the schema column names and checks the contract.
func (s *CSVSource) columnNames(header []string, records [][]string) ([]string, error) {
	if s.opts.HasHeader {
		if missing := missingColumns(header, s.opts.RequiredColumns); len(missing) > 0 {
			return nil, errors.New(errors.ErrorTypeSchema, "input header is missing required columns").
				WithDetail("path", s.opts.Path).
				WithDetail("column", missing[0]).
				WithDetail("missing", strings.Join(missing, ","))
		}
		return header, nil
	}

	width := len(s.opts.RequiredColumns)
	if len(records) > 0 {
		width = len(records[0])
	}
	if width == len(s.opts.RequiredColumns) {
		return append([]string(nil), s.opts.RequiredColumns...), nil
	}
	names := make([]string, width)
	for i := range names {
		names[i] = "_c" + strconv.Itoa(i)
	}
	return names, nil
}

// buildTable normalizes every record to the header width and converts it.
// It returns how many records were truncated.
func (s *CSVSource) buildTable(names []string, records [][]string) (*models.Table, int, error) {
	width := len(names)
	truncated := 0
	for i, record := range records {
		switch {
		case len(record) > width:
			records[i] = record[:width]
			truncated++
		case len(record) < width:
			padded := make([]string, width)
			copy(padded, record)
			for j := len(record); j < width; j++ {
				padded[j] = s.opts.NullValues[0]
			}
			records[i] = padded
		}
	}

	fields := make([]models.Field, width)
	for col, name := range names {
		fieldType := models.FieldTypeString
		if _, isText := s.text[name]; s.opts.InferTypes && !isText {
			fieldType = s.inferColumnType(records, col)
		}
		fields[col] = models.Field{
			Name:        name,
			Type:        fieldType,
			Description: "Field " + name + " from CSV",
			Nullable:    true,
		}
	}
	schema := models.NewSchema(filepath.Base(s.opts.Path), fields...)

	builder := models.NewTableBuilder(schema)
	builder.Grow(len(records))
	interner := pool.NewInterner(pool.DefaultInternLimit)
	row := make([]models.Value, width)
	for i, record := range records {
		for col, raw := range record {
			row[col] = s.convertValue(interner, raw, fields[col].Type)
		}
		if err := builder.Append(row...); err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrorTypeInternal, "cannot build input table").
				WithDetail("row", i)
		}
	}
	distinct, shared, _ := interner.Stats()
	s.logger.Debug("input table built",
		zap.Int("rows", builder.Len()),
		zap.Int("distinct_strings", distinct),
		zap.Int64("shared_strings", shared))
	return builder.Build(), truncated, nil
}

// inferColumnType returns the narrowest of int, float, bool and string that
// accepts every non-null value of the column without changing its text, so
// "0100", "+5", "1.50" and "TRUE" keep a column textual. All-null columns
// are strings.
func (s *CSVSource) inferColumnType(records [][]string, col int) models.FieldType {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, record := range records {
		value := record[col]
		if s.isNull(value) {
			continue
		}
		seen = true
		if isInt {
			if v, err := strconv.ParseInt(value, 10, 64); err != nil || strconv.FormatInt(v, 10) != value {
				isInt = false
			}
		}
		if isFloat && !isDecimal(value) {
			isFloat = false
		}
		if isBool && value != "true" && value != "false" {
			isBool = false
		}
		if !isInt && !isFloat && !isBool {
			break
		}
	}

	switch {
	case !seen:
		return models.FieldTypeString
	case isInt:
		return models.FieldTypeInt
	case isFloat:
		return models.FieldTypeFloat
	case isBool:
		return models.FieldTypeBool
	default:
		return models.FieldTypeString
	}
}

func (s *CSVSource) convertValue(interner *pool.Interner, value string, fieldType models.FieldType) models.Value {
	if s.isNull(value) {
		return models.Null()
	}
	switch fieldType {
	case models.FieldTypeInt:
		v, _ := strconv.ParseInt(value, 10, 64)
		return models.IntValue(v)
	case models.FieldTypeFloat:
		v, _ := strconv.ParseFloat(value, 64)
		return models.FloatValue(v)
	case models.FieldTypeBool:
		return models.BoolValue(value == "true")
	default:
		return models.StringValue(interner.Intern(value))
	}
}

func (s *CSVSource) isNull(value string) bool {
	_, ok := s.nulls[value]
	return ok
}

// isDecimal accepts finite numbers whose shortest rendering is the value
// itself; hex floats, NaN, Inf and padded forms stay strings.
func isDecimal(value string) bool {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return strconv.FormatFloat(f, 'g', -1, 64) == value
}

func missingColumns(header, required []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func sameHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func trimAll(record []string) []string {
	out := make([]string, len(record))
	for i, v := range record {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
