package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/labor-ledger/internal/config"
	"github.com/ginjaninja78/labor-ledger/internal/console"
	"github.com/ginjaninja78/labor-ledger/internal/storage"
	"github.com/ginjaninja78/labor-ledger/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	c, err := console.New(ctx, console.Deps{
		Store:  storage.NewMemoryStore(),
		Logger: config.DiscardLogger(),
	})
	require.NoError(t, err)
	_, err = c.AddWorker(ctx, types.Worker{Name: "Kim", DailyRate: 150000})
	require.NoError(t, err)
	_, err = c.AddSite(ctx, types.Site{Name: "SiteA"})
	require.NoError(t, err)
	return New(c, config.DiscardLogger(), 1)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, s *Server, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

const workCSV = "date,site,worker,hours\n2025-03-01,SiteA,Kim,1\n"

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestImportUpload(t *testing.T) {
	s := newTestServer(t)

	rec := upload(t, s, "/api/v1/imports/work", "march.csv", workCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		Persisted      int `json:"persisted"`
		Reconciliation struct {
			Accepted []types.WorkRecord `json:"accepted"`
		} `json:"reconciliation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Persisted)
	require.Len(t, report.Reconciliation.Accepted, 1)
	assert.Equal(t, int64(145050), report.Reconciliation.Accepted[0].NetPay)

	rec = do(t, s, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestImportValidationFailure(t *testing.T) {
	s := newTestServer(t)

	rec := upload(t, s, "/api/v1/imports/work", "bad.csv", "date,site,worker,hours\n2025-03-01,SiteA,Kim,abc\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "numeric")
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t)

	rec := upload(t, s, "/api/v1/imports/payroll", "x.csv", workCSV)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = upload(t, s, "/api/v1/checks/work", "x.pdf", workCSV)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, s, "/api/v1/checks/work", "x.csv", "date,site\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/checks/work", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckUpload(t *testing.T) {
	s := newTestServer(t)
	rec := upload(t, s, "/api/v1/checks/work", "x.csv", workCSV+"2025-03-01,SiteA,Kim,0.5\n")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hours differ: 1 vs 0.5")
}

func TestWorkerRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/workers", types.Worker{Name: "Lee", DailyRate: 130000})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/workers", types.Worker{Name: "Lee"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/workers", types.Worker{Name: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/v1/workers/Lee", types.Worker{DailyRate: 140000})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/workers/roster", []types.Worker{{Name: "Lee"}, {Name: "Choi", DailyRate: 1}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"added":1}`, rec.Body.String())

	rec = do(t, s, http.MethodDelete, "/api/v1/workers/Nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/workers", nil)
	var workers []types.Worker
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &workers))
	assert.Len(t, workers, 3)
}

func TestSiteRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/sites", types.Site{Name: "SiteB", Address: "Seoul"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/v1/sites/SiteB", types.Site{Manager: "Park"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/sites/SiteB", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/sites", nil)
	assert.NotContains(t, rec.Body.String(), "SiteB")
}

func TestConfigAndSyncRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/sync", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/v1/config", config.AdminConfig{TaxRate: 150})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/v1/config", config.AdminConfig{TaxRate: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/config", nil)
	assert.Contains(t, rec.Body.String(), `"taxRate":5`)
	assert.Contains(t, rec.Body.String(), `"remoteConfigured":false`)
}

func TestExportRoute(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="admin_console_data_`))
	assert.Contains(t, rec.Body.String(), `"workers"`)
}
