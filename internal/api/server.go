package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/antflydb/searchctl/internal/alias"
	"github.com/antflydb/searchctl/internal/bulkindex"
	"github.com/antflydb/searchctl/internal/config"
	"github.com/antflydb/searchctl/internal/dataset"
	"github.com/antflydb/searchctl/internal/engine"
	"github.com/antflydb/searchctl/internal/evalrun"
	"github.com/antflydb/searchctl/internal/healthserver"
	"github.com/antflydb/searchctl/internal/orchestrator"
	"github.com/antflydb/searchctl/internal/perf"
	"github.com/antflydb/searchctl/internal/report"
	"github.com/antflydb/searchctl/internal/validate"
)

// aliasName is the single alias this server's routes search and switch:
// both read and write index sets are tracked on it, and a healthy alias
// resolves both to the same index.
const aliasName = "docs"

// Server is the thin gin-gonic adapter over searchctl's core packages. It
// owns no business logic: every handler parses a request, calls into a
// core package, and maps the result (or error) into the response envelope.
type Server struct {
	router *gin.Engine
	cfg    *config.Config
	logger *zap.Logger

	port         engine.Port
	aliasMgr     *alias.Manager
	orchestrator *orchestrator.Orchestrator
	rollback     *orchestrator.Rollback
	indexer      *bulkindex.Indexer

	evalRunner       *evalrun.Runner
	reportWriter     *report.Writer
	reportComparator *report.Comparator

	benchmarker    *perf.Benchmarker
	perfWriter     *perf.Writer
	perfComparator *perf.Comparator

	datasetsDir string
}

// New constructs a Server wired against port, using cfg for thresholds and
// report locations.
func New(cfg *config.Config, port engine.Port, metrics *healthserver.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	validator := validate.New(port, validate.Config{
		CountCheckEnabled:   cfg.Validation.CountCheckEnabled,
		OverlapCheckEnabled: cfg.Validation.OverlapCheckEnabled,
		HashCheckEnabled:    cfg.Validation.HashCheckEnabled,
		TopK:                cfg.Validation.TopK,
		MinJaccard:          cfg.Validation.MinJaccard,
		HashMaxDocs:         cfg.Validation.HashMaxDocs,
		HashPageSize:        cfg.Validation.HashPageSize,
	})
	retention := orchestrator.NewRetention(cfg.Reports.Dir)

	s := &Server{
		cfg:              cfg,
		logger:           logger,
		port:             port,
		aliasMgr:         alias.New(port),
		orchestrator:     orchestrator.New(port, validator, retention, metrics, logger),
		rollback:         orchestrator.NewRollback(port),
		indexer:          bulkindex.New(port, bulkindex.Config{ChunkSize: cfg.BulkIndex.ChunkSize, MaxRetries: cfg.BulkIndex.MaxRetries}, logger),
		evalRunner:       evalrun.New(port, evalrun.Config{TopK: cfg.Eval.TopK, MaxConcurrency: cfg.Eval.MaxConcurrency, RateLimitPerMinute: cfg.Eval.RateLimitPerMinute}, metrics, logger),
		reportWriter:     report.New(cfg.Reports.Dir, cfg.Eval.WorstQueryReportCount),
		reportComparator: report.NewComparator(cfg.Reports.Dir),
		benchmarker:      perf.New(port, metrics, logger),
		perfWriter:       perf.NewWriter(filepath.Join(cfg.Reports.Dir, "performance")),
		perfComparator:   perf.NewComparator(filepath.Join(cfg.Reports.Dir, "performance")),
		datasetsDir:      "docs/eval",
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.CORS {
		router.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
			MaxAge:          12 * time.Hour,
		}))
	}
	s.router = router
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	admin := s.router.Group("/admin")
	admin.POST("/index/create", s.handleIndexCreate)
	admin.POST("/index/bulk", s.handleIndexBulk)
	admin.POST("/index/reindex", s.handleIndexReindex)
	admin.POST("/index/rollback", s.handleIndexRollback)
	admin.POST("/eval/run", s.handleEvalRun)
	admin.POST("/eval/regression", s.handleEvalRegression)
	admin.POST("/performance/benchmark", s.handleBenchmark)

	apiGroup := s.router.Group("/api")
	apiGroup.GET("/search", s.handleSearch)
	apiGroup.GET("/suggest", s.handleSuggest)
	apiGroup.GET("/health", s.handleHealth)
}

// Run starts the HTTP server and blocks until ctx is canceled or the
// server errors.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 20 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting admin+search HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Handler exposes the underlying gin engine, for tests that drive it with
// httptest without binding a real listener.
func (s *Server) Handler() http.Handler { return s.router }

// loadDataset loads the paired query/judgement set for datasetID from
// s.datasetsDir's querysets/ and judgements/ layout.
func (s *Server) loadDataset(datasetID string) (*dataset.QuerySet, *dataset.JudgementSet, error) {
	qs, err := dataset.LoadQuerySet(fmt.Sprintf("%s/querysets/%s_queries.json", s.datasetsDir, datasetID))
	if err != nil {
		return nil, nil, err
	}
	js, err := dataset.LoadJudgementSet(fmt.Sprintf("%s/judgements/%s_judgements.json", s.datasetsDir, datasetID))
	if err != nil {
		return nil, nil, err
	}
	return qs, js, nil
}

func indexName(version int) string {
	return fmt.Sprintf("docs_v%d", version)
}
