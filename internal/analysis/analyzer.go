// =============================================================================
// Labor Ledger - Duplicate & Unmatched Analyzer
// =============================================================================
//
// Scans one upload for rows that collide with an earlier row of the same
// upload, and for rows that reference workers or sites missing from the
// registry. The analyzer only reports; it never drops rows. Dropping is the
// reconciliation pipeline's job.
//
// DUPLICATES:
//   The first row carrying a duplicate key is the original. Every later row
//   with the same key is either an exact duplicate (IsExactDuplicate says so)
//   or a partial one (same key, differing payload), described by Difference.
//
// UNMATCHED:
//   Each configured entity check that finds a non-empty, unregistered name
//   adds the row to the worker or site bucket.
//
// FILTERED BY SITE:
//   One entry per distinct unregistered site, pointing at its first row.
//
// =============================================================================

package analysis

import (
	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// FilteredSiteReason is attached to every FilteredBySite entry.
const FilteredSiteReason = "unregistered site name - manage as unmatched data"

// =============================================================================
// CONFIGURATION
// =============================================================================

// EntityKind selects the unmatched bucket a failing entity check feeds.
type EntityKind string

const (
	EntityWorker EntityKind = "worker"
	EntitySite   EntityKind = "site"
)

// EntityCheck looks up one referenced entity of a row.
type EntityCheck struct {
	Kind   EntityKind
	Value  func(row types.RawRow) string
	Exists func(name string) bool
}

// Config parameterises Analyze for one record kind.
type Config struct {
	// DuplicateKey builds the in-upload identity of a row.
	DuplicateKey func(row types.RawRow) string

	// IsExactDuplicate compares a colliding row with the first row of its key.
	IsExactDuplicate func(row, first types.RawRow) bool

	// Difference describes a partial duplicate.
	Difference func(row, first types.RawRow) string

	// Entities are checked on every row.
	Entities []EntityCheck

	// SiteValue and SiteExists drive the FilteredBySite report.
	SiteValue  func(row types.RawRow) string
	SiteExists func(name string) bool
}

// =============================================================================
// RESULT
// =============================================================================

// Duplicate is one colliding row.
type Duplicate struct {
	Row         int          `json:"row"`
	Data        types.RawRow `json:"data"`
	DuplicateOf int          `json:"duplicateOf"`
	Difference  string       `json:"difference,omitempty"`
}

// Duplicates groups exact and partial collisions.
type Duplicates struct {
	Total   int         `json:"total"`
	Exact   []Duplicate `json:"exact"`
	Partial []Duplicate `json:"partial"`
}

// UnmatchedEntity is one reference to an unregistered worker or site.
type UnmatchedEntity struct {
	Row  int          `json:"row"`
	Name string       `json:"name"`
	Kind EntityKind   `json:"type"`
	Data types.RawRow `json:"data"`
}

// Unmatched groups unregistered references by entity kind.
type Unmatched struct {
	Total   int               `json:"total"`
	Workers []UnmatchedEntity `json:"workers"`
	Sites   []UnmatchedEntity `json:"sites"`
}

// FilteredSite is one distinct unregistered site.
type FilteredSite struct {
	Row    int    `json:"row"`
	Site   string `json:"site"`
	Reason string `json:"reason"`
}

// Summary carries the headline counts.
type Summary struct {
	Total      int `json:"total"`
	Valid      int `json:"valid"`
	Duplicates int `json:"duplicates"`
	Unmatched  int `json:"unmatched"`
}

// Result is the full analysis of one upload.
type Result struct {
	Summary        Summary        `json:"summary"`
	Duplicates     Duplicates     `json:"duplicates"`
	Unmatched      Unmatched      `json:"unmatched"`
	FilteredBySite []FilteredSite `json:"filteredBySite"`
}

// =============================================================================
// ANALYSIS
// =============================================================================

// Analyze reports in-upload duplicates, unmatched references and
// unregistered sites. Row numbers are index + 2.
func Analyze(rows []types.RawRow, cfg Config) *Result {
	res := &Result{
		Duplicates: Duplicates{
			Exact:   make([]Duplicate, 0),
			Partial: make([]Duplicate, 0),
		},
		Unmatched: Unmatched{
			Workers: make([]UnmatchedEntity, 0),
			Sites:   make([]UnmatchedEntity, 0),
		},
		FilteredBySite: make([]FilteredSite, 0),
	}
	res.Summary.Total = len(rows)

	seen := make(map[string]int, len(rows))
	filtered := make(map[string]bool)

	for i, row := range rows {
		rowNum := i + 2

		if cfg.DuplicateKey != nil {
			key := cfg.DuplicateKey(row)
			if firstIdx, dup := seen[key]; dup {
				first := rows[firstIdx]
				entry := Duplicate{Row: rowNum, Data: row, DuplicateOf: firstIdx + 2}
				if cfg.IsExactDuplicate != nil && cfg.IsExactDuplicate(row, first) {
					res.Duplicates.Exact = append(res.Duplicates.Exact, entry)
				} else {
					if cfg.Difference != nil {
						entry.Difference = cfg.Difference(row, first)
					}
					res.Duplicates.Partial = append(res.Duplicates.Partial, entry)
				}
				res.Duplicates.Total++
			} else {
				seen[key] = i
			}
		}

		for _, ec := range cfg.Entities {
			name := ec.Value(row)
			if name == "" || ec.Exists(name) {
				continue
			}
			entry := UnmatchedEntity{Row: rowNum, Name: name, Kind: ec.Kind, Data: row}
			switch ec.Kind {
			case EntityWorker:
				res.Unmatched.Workers = append(res.Unmatched.Workers, entry)
			case EntitySite:
				res.Unmatched.Sites = append(res.Unmatched.Sites, entry)
			}
			res.Unmatched.Total++
		}

		if cfg.SiteValue != nil && cfg.SiteExists != nil {
			site := cfg.SiteValue(row)
			if site != "" && !filtered[site] && !cfg.SiteExists(site) {
				filtered[site] = true
				res.FilteredBySite = append(res.FilteredBySite, FilteredSite{
					Row:    rowNum,
					Site:   site,
					Reason: FilteredSiteReason,
				})
			}
		}
	}

	res.Summary.Duplicates = res.Duplicates.Total
	res.Summary.Unmatched = res.Unmatched.Total
	res.Summary.Valid = res.Summary.Total - res.Duplicates.Total
	return res
}
