// =============================================================================
// Labor Ledger - HTTP Console
// =============================================================================
//
// A JSON API over the console, for operators who prefer a browser client to
// the CLI. Every route maps onto one console operation.
//
// ROUTES:
//   GET    /health
//   GET    /api/v1/status
//   POST   /api/v1/checks/:kind          multipart "file"; ?clean=true
//   POST   /api/v1/imports/:kind         multipart "file"; ?force ?clean ?dryRun
//   GET    /api/v1/workers               POST adds, POST /roster merges
//   PUT    /api/v1/workers/:name         DELETE removes
//   GET    /api/v1/sites                 POST adds
//   PUT    /api/v1/sites/:name           DELETE removes
//   GET    /api/v1/config                PUT saves
//   POST   /api/v1/sync                  POST /sync/test pings
//   GET    /api/v1/export                full data document
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/labor-ledger/internal/console"
)

// Server is the HTTP console.
type Server struct {
	console   *console.Console
	logger    *logrus.Logger
	maxUpload int64
	router    *gin.Engine
}

// New builds the router. maxUploadMB bounds multipart uploads.
func New(c *console.Console, logger *logrus.Logger, maxUploadMB int64) *Server {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	s := &Server{
		console:   c,
		logger:    logger,
		maxUpload: maxUploadMB << 20,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.MaxMultipartMemory = s.maxUpload

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Labor Ledger",
		})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/status", s.status)

		api.POST("/checks/:kind", s.limitBody(), s.check)
		api.POST("/imports/:kind", s.limitBody(), s.importUpload)

		workers := api.Group("/workers")
		{
			workers.GET("", s.listWorkers)
			workers.POST("", s.addWorker)
			workers.POST("/roster", s.mergeWorkers)
			workers.PUT("/:name", s.updateWorker)
			workers.DELETE("/:name", s.removeWorker)
		}

		sites := api.Group("/sites")
		{
			sites.GET("", s.listSites)
			sites.POST("", s.addSite)
			sites.PUT("/:name", s.updateSite)
			sites.DELETE("/:name", s.removeSite)
		}

		api.GET("/config", s.getConfig)
		api.PUT("/config", s.saveConfig)

		api.POST("/sync", s.syncAll)
		api.POST("/sync/test", s.testConnection)

		api.GET("/export", s.exportAll)
	}

	s.router = router
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("http console listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down http console")
		return srv.Shutdown(shutdownCtx)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
		c.Next()
	}
}
