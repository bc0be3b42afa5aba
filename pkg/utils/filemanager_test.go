package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/labor-ledger/internal/types"
	"github.com/ginjaninja78/labor-ledger/internal/validation"
)

var fixedNow = time.Date(2025, 3, 1, 14, 30, 22, 0, time.UTC)

func newTestManager(t *testing.T) *FileManager {
	fm := NewFileManager(filepath.Join(t.TempDir(), "exports"))
	fm.Now = func() time.Time { return fixedNow }
	return fm
}

func TestGenerateOutputFileName(t *testing.T) {
	assert.Equal(t, "work_records_2025-03-01.csv",
		GenerateOutputFileName(RecordsExportPattern, map[string]string{"kind": "work"}, fixedNow))
	assert.Equal(t, "admin_console_data_2025-03-01.json",
		GenerateOutputFileName(FullExportPattern, nil, fixedNow))
	assert.Equal(t, "expense_error_log_20250301_143022.txt",
		GenerateOutputFileName(ErrorLogPattern, map[string]string{"kind": "expense"}, fixedNow))
	assert.Len(t, GenerateOutputFileName("{uuid}", nil, fixedNow), 36)
}

func TestWriteJSONCreatesDirectory(t *testing.T) {
	fm := newTestManager(t)

	path, err := fm.WriteJSON(IssuesExportPattern, "work", map[string]int{"total": 2})
	require.NoError(t, err)
	assert.Equal(t, "work_issues_2025-03-01.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":2}`, string(data))
}

func TestWriteCSV(t *testing.T) {
	fm := newTestManager(t)
	recs := []types.WorkRecord{
		{Date: "2025-03-01", Site: "SiteA", Worker: "Kim", Hours: 1, GrossPay: 150000, Tax: 4950, NetPay: 145050, CreatedAt: fixedNow},
	}

	path, err := fm.WriteCSV(RecordsExportPattern, "work", &recs)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "date,site,worker,hours,memo,gross_pay,tax,net_pay,created_at")
	assert.Contains(t, content, "2025-03-01,SiteA,Kim,1,,150000,4950,145050,")
}

func TestWriteErrorLog(t *testing.T) {
	fm := newTestManager(t)

	path, err := fm.WriteErrorLog("work", "upload.xlsx", nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = fm.WriteErrorLog("work", "upload.xlsx", []*validation.ValidationError{
		{Severity: validation.SeverityError, Field: "hours", Value: "abc", Rule: "numeric", Message: "must be a number", RowNumber: 3},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Source:    upload.xlsx")
	assert.Contains(t, content, "#1 [ERROR]")
	assert.Contains(t, content, "Row:      3")
	assert.Contains(t, content, "Value:    abc")
}

func TestArchiveInputFile(t *testing.T) {
	fm := newTestManager(t)
	fm.UseTimestampSubdirs = true

	src := filepath.Join(t.TempDir(), "work.csv")
	require.NoError(t, os.WriteFile(src, []byte("a,b\n"), 0644))

	dst, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)

	assert.False(t, FileExists(src))
	assert.True(t, FileExists(dst))
	assert.Equal(t, filepath.Join(fm.ArchiveDir, "2025", "03", "01", "work.csv"), dst)
}
