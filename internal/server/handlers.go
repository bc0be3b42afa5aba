package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ginjaninja78/labor-ledger/internal/config"
	"github.com/ginjaninja78/labor-ledger/internal/console"
	"github.com/ginjaninja78/labor-ledger/internal/registry"
	"github.com/ginjaninja78/labor-ledger/internal/sheet"
	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// =============================================================================
// ERROR MAPPING
// =============================================================================

func statusFor(err error) int {
	var (
		parseErr *sheet.ParseError
		valErrs  validator.ValidationErrors
	)
	switch {
	case errors.Is(err, console.ErrNoData),
		errors.As(err, &parseErr),
		errors.As(err, &valErrs):
		return http.StatusBadRequest
	case errors.Is(err, console.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrDuplicateName),
		errors.Is(err, console.ErrRemoteNotConfigured):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func sendError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

func kindParam(c *gin.Context) (types.Kind, bool) {
	kind, ok := types.ParseKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown record kind %q", c.Param("kind"))})
	}
	return kind, ok
}

// readUpload parses the multipart "file" field.
func (s *Server) readUpload(c *gin.Context) ([]types.RawRow, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return nil, "", false
	}
	defer file.Close()

	rows, err := s.console.ReadRows(file, header.Filename)
	if err != nil {
		sendError(c, err)
		return nil, "", false
	}
	return rows, header.Filename, true
}

// =============================================================================
// STATUS / UPLOADS
// =============================================================================

func (s *Server) status(c *gin.Context) {
	st, err := s.console.Status(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) check(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	rows, _, ok := s.readUpload(c)
	if !ok {
		return
	}
	report, err := s.console.Check(kind, rows, queryBool(c, "clean"))
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) importUpload(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	rows, name, ok := s.readUpload(c)
	if !ok {
		return
	}
	opts := console.ImportOptions{
		Source: name,
		Force:  queryBool(c, "force"),
		Clean:  queryBool(c, "clean"),
		DryRun: queryBool(c, "dryRun"),
	}

	var (
		report any
		err    error
	)
	switch kind {
	case types.KindWork:
		report, err = s.console.ImportWork(c.Request.Context(), rows, opts)
	case types.KindExpense:
		report, err = s.console.ImportExpenses(c.Request.Context(), rows, opts)
	}

	if errors.Is(err, console.ErrValidationFailed) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "report": report})
		return
	}
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// =============================================================================
// REGISTRY
// =============================================================================

func (s *Server) listWorkers(c *gin.Context) {
	c.JSON(http.StatusOK, s.console.Registry().Workers())
}

func (s *Server) addWorker(c *gin.Context) {
	var w types.Worker
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	added, err := s.console.AddWorker(c.Request.Context(), w)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (s *Server) mergeWorkers(c *gin.Context) {
	var roster []types.Worker
	if err := c.ShouldBindJSON(&roster); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	added, err := s.console.MergeWorkers(c.Request.Context(), roster)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (s *Server) updateWorker(c *gin.Context) {
	var w types.Worker
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	w.Name = c.Param("name")
	if err := s.console.UpdateWorker(c.Request.Context(), w); err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) removeWorker(c *gin.Context) {
	if err := s.console.RemoveWorker(c.Request.Context(), c.Param("name")); err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) listSites(c *gin.Context) {
	c.JSON(http.StatusOK, s.console.Registry().Sites())
}

func (s *Server) addSite(c *gin.Context) {
	var site types.Site
	if err := c.ShouldBindJSON(&site); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	added, err := s.console.AddSite(c.Request.Context(), site)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (s *Server) updateSite(c *gin.Context) {
	var site types.Site
	if err := c.ShouldBindJSON(&site); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	site.Name = c.Param("name")
	if err := s.console.UpdateSite(c.Request.Context(), site); err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) removeSite(c *gin.Context) {
	if err := s.console.RemoveSite(c.Request.Context(), c.Param("name")); err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// =============================================================================
// CONFIGURATION / SYNC / EXPORT
// =============================================================================

// configView hides the raw API key.
type configView struct {
	SupabaseURL      string  `json:"supabaseUrl"`
	SupabaseKey      string  `json:"supabaseKey"`
	DatabaseURL      bool    `json:"databaseUrlSet"`
	TaxRate          float64 `json:"taxRate"`
	RemoteConfigured bool    `json:"remoteConfigured"`
}

func (s *Server) getConfig(c *gin.Context) {
	cfg := s.console.AdminConfig()
	c.JSON(http.StatusOK, configView{
		SupabaseURL:      cfg.SupabaseURL,
		SupabaseKey:      cfg.MaskedKey(),
		DatabaseURL:      cfg.DatabaseURL != "",
		TaxRate:          cfg.TaxRate,
		RemoteConfigured: cfg.RemoteConfigured(),
	})
}

func (s *Server) saveConfig(c *gin.Context) {
	var cfg config.AdminConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := s.console.SaveAdminConfig(c.Request.Context(), cfg); err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) syncAll(c *gin.Context) {
	res, err := s.console.SyncAll(c.Request.Context())
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) testConnection(c *gin.Context) {
	if err := s.console.TestConnection(c.Request.Context()); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) exportAll(c *gin.Context) {
	data, err := s.console.FullData(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	name := fmt.Sprintf("admin_console_data_%s.json", data.ExportDate.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.JSON(http.StatusOK, data)
}
