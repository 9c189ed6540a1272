// Package config provides configuration management for Canopy jobs.
//
// A job is described by a single JobConfig organized into sections:
// input, output, analyses, performance, reliability and observability.
// NewJobConfig returns the defaults of the San Francisco street tree job;
// LoadJob reads a YAML or JSON file over those defaults.
//
// # Usage
//
//	cfg, err := config.LoadJob("configs/job.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Variable Substitution
//
//	# job.yaml
//	name: sf_tree_distribution
//	input:
//	  path: ${DATA_DIR}/san_francisco_street_trees.csv
//	output:
//	  dir: ${DATA_DIR}/tree-distributions
//
// # Legacy Layout
//
// The flat layout used by the earlier Spark job is also accepted:
//
//	{
//	  "input-file-format": "csv",
//	  "input-dir": "/data/san_francisco_street_trees.csv",
//	  "output-dir": "/data/tree-distributions",
//	  "input-delimiter": ",",
//	  "input-header": "true",
//	  "infer-schema": "true"
//	}
package config
