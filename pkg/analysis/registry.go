package analysis

import (
	"fmt"

	"github.com/ajitpratap0/canopy/pkg/config"
	"github.com/ajitpratap0/canopy/pkg/models"
)

// Output suffixes, one result file per analysis
const (
	SuffixMostCommonTrees     = "most_common_trees"
	SuffixMostTreesInLocation = "most_trees_in_location"
	SuffixBanyanTrees         = "count_banyan_trees"
	SuffixPlumTrees           = "count_plum_trees"
)

// Analysis is one named query of the job and where its result goes.
type Analysis struct {
	// Name identifies the analysis in logs, metrics and reports
	Name string
	// Suffix names the result file under the output directory
	Suffix      string
	Description string
	Run         func(*models.Table) (*models.Table, error)
}

// Build returns the enabled analyses of cfg in their fixed order.
func Build(cfg config.AnalysesConfig) []Analysis {
	var out []Analysis
	for _, a := range catalog(cfg) {
		if a.enabled {
			out = append(out, a.Analysis)
		}
	}
	return out
}

// Catalog returns all four analyses with the parameters of cfg, enabled or
// not.
func Catalog(cfg config.AnalysesConfig) []Analysis {
	entries := catalog(cfg)
	out := make([]Analysis, len(entries))
	for i, e := range entries {
		out[i] = e.Analysis
	}
	return out
}

type entry struct {
	Analysis
	enabled bool
}

func catalog(cfg config.AnalysesConfig) []entry {
	top := cfg.MostCommonTrees
	banyan := cfg.BanyanTrees
	plum := cfg.PlumTrees

	return []entry{
		{
			Analysis: Analysis{
				Name:        "most_common_species_subtypes",
				Suffix:      SuffixMostCommonTrees,
				Description: fmt.Sprintf("species subtypes within the top %d tree counts", top.TopN),
				Run: func(t *models.Table) (*models.Table, error) {
					return MostCommonSpeciesSubtypes(t, top.TopN)
				},
			},
			enabled: top.Enabled,
		},
		{
			Analysis: Analysis{
				Name:        "address_with_most_trees",
				Suffix:      SuffixMostTreesInLocation,
				Description: "addresses with the highest tree count",
				Run:         AddressWithMostTrees,
			},
			enabled: cfg.MostTreesInLocation.Enabled,
		},
		{
			Analysis: Analysis{
				Name:        "count_species_with_permit",
				Suffix:      SuffixBanyanTrees,
				Description: fmt.Sprintf("trees like %q with a permit number", banyan.SpeciesPattern),
				Run: func(t *models.Table) (*models.Table, error) {
					return CountSpeciesWithPermit(t, banyan.SpeciesPattern, banyan.Column)
				},
			},
			enabled: banyan.Enabled,
		},
		{
			Analysis: Analysis{
				Name:        "count_species_with_status",
				Suffix:      SuffixPlumTrees,
				Description: fmt.Sprintf("%s trees with legal status %q", plum.Species, plum.Status),
				Run: func(t *models.Table) (*models.Table, error) {
					return CountSpeciesWithStatus(t, plum.Species, plum.Status, plum.Column)
				},
			},
			enabled: plum.Enabled,
		},
	}
}
