package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/labor-ledger/internal/types"
)

func str(row types.RawRow, k string) string {
	s, _ := row[k].(string)
	return s
}

func testConfig() Config {
	sites := map[string]bool{"SiteA": true}
	workers := map[string]bool{"Kim": true, "Lee": true}
	siteOf := func(r types.RawRow) string { return str(r, "site") }
	return Config{
		DuplicateKey: func(r types.RawRow) string {
			return str(r, "date") + "|" + str(r, "site") + "|" + str(r, "worker")
		},
		IsExactDuplicate: func(r, first types.RawRow) bool { return r["hours"] == first["hours"] },
		Difference: func(r, first types.RawRow) string {
			return fmt.Sprintf("hours differ: %v vs %v", first["hours"], r["hours"])
		},
		Entities: []EntityCheck{
			{Kind: EntityWorker, Value: func(r types.RawRow) string { return str(r, "worker") }, Exists: func(n string) bool { return workers[n] }},
			{Kind: EntitySite, Value: siteOf, Exists: func(n string) bool { return sites[n] }},
		},
		SiteValue:  siteOf,
		SiteExists: func(n string) bool { return sites[n] },
	}
}

func TestAnalyzeDuplicates(t *testing.T) {
	rows := []types.RawRow{
		{"date": "2025-03-01", "site": "SiteA", "worker": "Kim", "hours": 1.0},
		{"date": "2025-03-01", "site": "SiteA", "worker": "Kim", "hours": 1.0},
		{"date": "2025-03-01", "site": "SiteA", "worker": "Kim", "hours": 0.5},
		{"date": "2025-03-01", "site": "SiteA", "worker": "Lee", "hours": 1.0},
	}

	res := Analyze(rows, testConfig())

	assert.Equal(t, 2, res.Duplicates.Total)
	require.Len(t, res.Duplicates.Exact, 1)
	assert.Equal(t, 3, res.Duplicates.Exact[0].Row)
	assert.Equal(t, 2, res.Duplicates.Exact[0].DuplicateOf)

	require.Len(t, res.Duplicates.Partial, 1)
	partial := res.Duplicates.Partial[0]
	assert.Equal(t, 4, partial.Row)
	assert.Equal(t, 2, partial.DuplicateOf)
	assert.Contains(t, partial.Difference, "1")
	assert.Contains(t, partial.Difference, "0.5")

	assert.Equal(t, Summary{Total: 4, Valid: 2, Duplicates: 2, Unmatched: 0}, res.Summary)
}

func TestAnalyzeUnmatchedAndFilteredSites(t *testing.T) {
	rows := []types.RawRow{
		{"date": "2025-03-01", "site": "SiteB", "worker": "Kim"},
		{"date": "2025-03-02", "site": "SiteB", "worker": "Park"},
		{"date": "2025-03-03", "site": "SiteC", "worker": ""},
	}

	res := Analyze(rows, testConfig())

	require.Len(t, res.Unmatched.Workers, 1)
	assert.Equal(t, "Park", res.Unmatched.Workers[0].Name)
	assert.Equal(t, 3, res.Unmatched.Workers[0].Row)
	assert.Len(t, res.Unmatched.Sites, 3)
	assert.Equal(t, 4, res.Unmatched.Total)

	require.Len(t, res.FilteredBySite, 2)
	assert.Equal(t, FilteredSite{Row: 2, Site: "SiteB", Reason: FilteredSiteReason}, res.FilteredBySite[0])
	assert.Equal(t, FilteredSite{Row: 4, Site: "SiteC", Reason: FilteredSiteReason}, res.FilteredBySite[1])

	assert.Equal(t, 3, res.Summary.Valid)
}

func TestAnalyzeEmpty(t *testing.T) {
	res := Analyze(nil, testConfig())
	assert.Equal(t, Summary{}, res.Summary)
	assert.NotNil(t, res.Duplicates.Exact)
	assert.NotNil(t, res.FilteredBySite)
}
