package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
)

// Status is the outcome of one analysis
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Stage names where a run or an analysis failed
type Stage string

const (
	StageExtract Stage = "extract"
	StageQuery   Stage = "query"
	StageSink    Stage = "sink"
	StageUpload  Stage = "upload"
)

// AnalysisReport records what happened to one analysis
type AnalysisReport struct {
	Name     string        `json:"name"`
	Suffix   string        `json:"suffix"`
	Output   string        `json:"output"`
	Location string        `json:"location,omitempty"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration_ns"`
	Status   Status        `json:"status"`
	Stage    Stage         `json:"stage,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Report summarizes one pipeline run
type Report struct {
	RunID      string           `json:"run_id"`
	Job        string           `json:"job"`
	InputPath  string           `json:"input_path"`
	InputRows  int              `json:"input_rows"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Stage      Stage            `json:"stage,omitempty"`
	Error      string           `json:"error,omitempty"`
	Analyses   []AnalysisReport `json:"analyses"`
}

// Count returns how many analyses ended with status
func (r *Report) Count(status Status) int {
	n := 0
	for _, a := range r.Analyses {
		if a.Status == status {
			n++
		}
	}
	return n
}

// Duration returns the wall time of the run
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// WriteFile writes the report as indented JSON, creating parent directories
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteFile
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}

// StageError names the stage, and for per-analysis stages the analysis,
// where a run failed.
type StageError struct {
	Stage    Stage
	Analysis string
	Err      error
}

func (e *StageError) Error() string {
	if e.Analysis == "" {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("analysis %s failed at %s: %v", e.Analysis, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
