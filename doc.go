// Package canopy computes summary statistics over a municipal street tree
// inventory. It loads the raw delimited dataset once, runs four analyses
// against the loaded table and writes each result as its own CSV file.
//
// # Analyses
//
//   - most_common_trees: the top N species subtypes by tree count
//   - most_trees_in_location: the address holding the most trees
//   - count_banyan_trees: Banyan Figs whose permit notes carry a permit number
//   - count_plum_trees: Cherry Plums with a DPW Maintained legal status
//
// # Quick Start
//
//	canopy validate --config configs/job.yaml
//	canopy run --config configs/job.yaml --output-dir out/tree-distributions
//
// Or from Go:
//
//	import (
//	    "context"
//	    "github.com/ajitpratap0/canopy/internal/pipeline"
//	    "github.com/ajitpratap0/canopy/pkg/config"
//	)
//
//	cfg, err := config.LoadJob("configs/job.yaml")
//	if err != nil {
//	    return err
//	}
//	driver, err := pipeline.NewDriver(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	report, err := driver.Run(ctx)
//
// # Key Packages
//
//	internal/pipeline             - Extract, query and sink orchestration
//	pkg/analysis                  - The four analyses, dense rank and LIKE matching
//	pkg/connector/sources/csv     - Delimited input (files, directories, compressed)
//	pkg/connector/destinations    - CSV result files and the S3 mirror
//	pkg/models                    - Immutable tables and the input column contract
//	pkg/config                    - Job configuration with ${VAR} substitution
//	pkg/errors                    - Typed errors carrying details
//	pkg/logger                    - Structured logging
//	pkg/metrics                   - Prometheus run metrics
//	pkg/observability             - OpenTelemetry tracing
//
// # Failure Handling
//
// A failed extract aborts the run. A failed analysis does not stop the
// others unless reliability.fail_fast is set; the run still exits with an
// error naming every failed analysis and the stage it failed in.
//
// # Configuration
//
// Jobs are described in YAML (or JSON). The flat key layout of the earlier
// Spark job (input-dir, output-dir, input-delimiter, input-header,
// infer-schema) is still accepted. Environment variables are supported with
// ${VAR_NAME} syntax.
package canopy
