// =============================================================================
// Labor Ledger - Reconciliation Pipeline
// =============================================================================
//
// Turns the raw rows of one upload into records ready to persist, routing
// every row that cannot be accepted into exactly one rejection bucket.
//
// PER-ROW PIPELINE (first exit wins):
//   1. Normalize the raw row into a record
//   2. Site not registered             -> FilteredBySite
//   3. Key already persisted           -> Duplicates
//   4. Any entity check fails          -> Unmatched (all failing fields listed)
//   5. Post-process (work: wages)
//   6. Accept
//
// The duplicate check in step 3 looks only at records persisted before this
// upload. Two identical rows inside one upload are both accepted here; the
// analyzer is what reports them.
//
// One generic engine serves both record kinds. Everything kind-specific lives
// in a Spec value (see kinds.go).
//
// =============================================================================

package pipeline

import (
	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// UnregisteredSiteReason is attached to every site rejection.
const UnregisteredSiteReason = "unregistered site name"

// =============================================================================
// SPEC
// =============================================================================

// EntityCheck validates one reference of a normalized record.
type EntityCheck[R any] struct {
	Field  string
	Value  func(R) string
	Exists func(name string) bool
}

// Spec is the kind-specific configuration of the engine.
type Spec[R any] struct {
	Kind types.Kind

	// Normalize maps a raw row onto a record.
	Normalize func(types.RawRow) R

	// Site and SiteExists drive the site filter.
	Site       func(R) string
	SiteExists func(name string) bool

	// Key identifies a record for the persisted-duplicate check.
	Key func(R) string

	// Entities are checked after the duplicate check.
	Entities []EntityCheck[R]

	// PostProcess runs on records that passed every check.
	PostProcess func(*R)
}

// =============================================================================
// OUTCOME
// =============================================================================

// SiteRejection is a row dropped because its site is not registered.
type SiteRejection struct {
	Row    int    `json:"row"`
	Site   string `json:"site"`
	Reason string `json:"reason"`
}

// DuplicateRejection is a row whose key matches an already persisted record.
type DuplicateRejection[R any] struct {
	Row      int `json:"row"`
	Existing R   `json:"existing"`
	New      R   `json:"new"`
}

// UnmatchedRejection is a row referencing at least one unregistered entity.
type UnmatchedRejection[R any] struct {
	Row    int      `json:"row"`
	Record R        `json:"record"`
	Fields []string `json:"unmatchedFields"`
}

// Outcome holds the accepted records and every rejection bucket.
type Outcome[R any] struct {
	Accepted       []R                     `json:"accepted"`
	FilteredBySite []SiteRejection         `json:"filteredBySite"`
	Duplicates     []DuplicateRejection[R] `json:"duplicates"`
	Unmatched      []UnmatchedRejection[R] `json:"unmatched"`
}

// Rejected counts rows in every rejection bucket.
func (o *Outcome[R]) Rejected() int {
	return len(o.FilteredBySite) + len(o.Duplicates) + len(o.Unmatched)
}

// =============================================================================
// ENGINE
// =============================================================================

// Reconcile runs every row through the per-row pipeline against the records
// persisted so far. Row numbers are index + 2.
func Reconcile[R any](rows []types.RawRow, persisted []R, spec Spec[R]) *Outcome[R] {
	out := &Outcome[R]{
		Accepted:       make([]R, 0, len(rows)),
		FilteredBySite: make([]SiteRejection, 0),
		Duplicates:     make([]DuplicateRejection[R], 0),
		Unmatched:      make([]UnmatchedRejection[R], 0),
	}

	existing := make(map[string]R, len(persisted))
	for _, rec := range persisted {
		k := spec.Key(rec)
		if _, seen := existing[k]; !seen {
			existing[k] = rec
		}
	}

	for i, row := range rows {
		rowNum := i + 2
		rec := spec.Normalize(row)

		// =====================================================================
		// STEP 1: SITE FILTER
		// =====================================================================
		if site := spec.Site(rec); !spec.SiteExists(site) {
			out.FilteredBySite = append(out.FilteredBySite, SiteRejection{
				Row:    rowNum,
				Site:   site,
				Reason: UnregisteredSiteReason,
			})
			continue
		}

		// =====================================================================
		// STEP 2: PERSISTED DUPLICATE
		// =====================================================================
		if prev, dup := existing[spec.Key(rec)]; dup {
			out.Duplicates = append(out.Duplicates, DuplicateRejection[R]{
				Row:      rowNum,
				Existing: prev,
				New:      rec,
			})
			continue
		}

		// =====================================================================
		// STEP 3: ENTITY CHECKS
		// =====================================================================
		var failed []string
		for _, ec := range spec.Entities {
			if !ec.Exists(ec.Value(rec)) {
				failed = append(failed, ec.Field)
			}
		}
		if len(failed) > 0 {
			out.Unmatched = append(out.Unmatched, UnmatchedRejection[R]{
				Row:    rowNum,
				Record: rec,
				Fields: failed,
			})
			continue
		}

		// =====================================================================
		// STEP 4: POST-PROCESS AND ACCEPT
		// =====================================================================
		if spec.PostProcess != nil {
			spec.PostProcess(&rec)
		}
		out.Accepted = append(out.Accepted, rec)
	}

	return out
}
