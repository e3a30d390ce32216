package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/antflydb/searchctl/internal/apperr"
	"github.com/antflydb/searchctl/internal/dataset"
	"github.com/antflydb/searchctl/internal/orchestrator"
	"github.com/antflydb/searchctl/internal/querycomposer"
	"github.com/antflydb/searchctl/internal/validate"
)

// handleIndexCreate implements POST /admin/index/create?version=N.
func (s *Server) handleIndexCreate(c *gin.Context) {
	version, err := strconv.Atoi(c.Query("version"))
	if err != nil || version < 1 {
		badRequest(c, "version must be an integer >= 1")
		return
	}

	name := indexName(version)
	exists, err := s.port.IndexExists(c.Request.Context(), name)
	if err != nil {
		fail(c, apperr.Wrap(apperr.EngineError, err, "checking index %q", name))
		return
	}
	if exists {
		fail(c, apperr.New(apperr.Conflict, "index %q already exists", name))
		return
	}

	if err := s.port.CreateIndex(c.Request.Context(), name); err != nil {
		fail(c, apperr.Wrap(apperr.EngineError, err, "creating index %q", name))
		return
	}
	ok(c, gin.H{"index": name})
}

// handleIndexBulk implements POST /admin/index/bulk.
func (s *Server) handleIndexBulk(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	docs, err := dataset.NormalizeDocuments(req.Documents)
	if err != nil {
		fail(c, apperr.Wrap(apperr.BadRequest, err, "validating documents"))
		return
	}

	target := req.TargetAlias
	if target == "" {
		target = aliasName
	}

	result, err := s.indexer.Index(c.Request.Context(), target, docs)
	if err != nil {
		fail(c, apperr.Wrap(apperr.EngineError, err, "bulk indexing into %q", target))
		return
	}
	ok(c, result)
}

// handleIndexReindex implements POST /admin/index/reindex: the blue-green
// orchestrator, driven with request-level overrides of the validator's
// config defaults.
func (s *Server) handleIndexReindex(c *gin.Context) {
	var req ReindexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.SourceVersion < 1 || req.TargetVersion < 1 {
		badRequest(c, "sourceVersion and targetVersion must be >= 1")
		return
	}
	if req.SourceVersion == req.TargetVersion {
		badRequest(c, "sourceVersion and targetVersion must differ")
		return
	}
	if req.Validation.MinJaccard != 0 && (req.Validation.MinJaccard < 0 || req.Validation.MinJaccard > 1) {
		badRequest(c, "validation.minJaccard must be between 0 and 1")
		return
	}

	plan := orchestrator.Plan{
		Alias:        aliasName,
		SourceIndex:  indexName(req.SourceVersion),
		TargetIndex:  indexName(req.TargetVersion),
		RefreshAfter: req.RefreshAfter,
	}

	// Request-level overrides take precedence over config defaults. The
	// override validator is built fresh per request rather than mutated
	// onto the shared Server/Orchestrator, since concurrent reindex
	// requests must not race on each other's validation options.
	var validatorOverride *validate.Validator
	if hasValidationOverride(req.Validation) {
		validatorOverride = s.validatorWithOverride(req.Validation)
	}

	result := s.orchestrator.RunWithValidator(c.Request.Context(), plan, validatorOverride)
	if result.Err != nil {
		fail(c, result.Err)
		return
	}
	ok(c, result)
}

func hasValidationOverride(v ValidationOptions) bool {
	return v.EnableCountValidation != nil || v.EnableSampleQueryValidation != nil ||
		v.EnableHashValidation != nil || v.MinJaccard != 0 || v.SampleTopK != 0 ||
		v.HashMaxDocs != 0 || v.HashPageSize != 0 || len(v.SampleQueries) > 0
}

// validatorWithOverride builds a one-off *validate.Validator layering v's
// request-level overrides on top of the server's configured defaults.
func (s *Server) validatorWithOverride(v ValidationOptions) *validate.Validator {
	cfg := validate.Config{
		CountCheckEnabled:   s.cfg.Validation.CountCheckEnabled,
		OverlapCheckEnabled: s.cfg.Validation.OverlapCheckEnabled,
		HashCheckEnabled:    s.cfg.Validation.HashCheckEnabled,
		TopK:                s.cfg.Validation.TopK,
		MinJaccard:          s.cfg.Validation.MinJaccard,
		HashMaxDocs:         s.cfg.Validation.HashMaxDocs,
		HashPageSize:        s.cfg.Validation.HashPageSize,
	}
	if v.EnableCountValidation != nil {
		cfg.CountCheckEnabled = *v.EnableCountValidation
	}
	if v.EnableSampleQueryValidation != nil {
		cfg.OverlapCheckEnabled = *v.EnableSampleQueryValidation
	}
	if v.EnableHashValidation != nil {
		cfg.HashCheckEnabled = *v.EnableHashValidation
	}
	if v.MinJaccard != 0 {
		cfg.MinJaccard = v.MinJaccard
	}
	if v.SampleTopK != 0 {
		cfg.TopK = v.SampleTopK
	}
	if v.HashMaxDocs != 0 {
		cfg.HashMaxDocs = v.HashMaxDocs
	}
	if v.HashPageSize != 0 {
		cfg.HashPageSize = v.HashPageSize
	}
	if len(v.SampleQueries) > 0 {
		cfg.SampleQueries = make([]querycomposer.SearchRequest, len(v.SampleQueries))
		for i, q := range v.SampleQueries {
			cfg.SampleQueries[i] = querycomposer.SearchRequest{Query: q}
		}
	}

	return validate.New(s.port, cfg)
}

// handleIndexRollback implements POST /admin/index/rollback.
func (s *Server) handleIndexRollback(c *gin.Context) {
	var req RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.CurrentIndex == "" || req.RollbackToIndex == "" {
		badRequest(c, "currentIndex and rollbackToIndex are required")
		return
	}

	before, err := s.aliasMgr.CurrentState(c.Request.Context(), aliasName)
	if err != nil {
		fail(c, apperr.Wrap(apperr.EngineError, err, "reading alias state"))
		return
	}

	if err := s.rollback.Revert(c.Request.Context(), aliasName, req.RollbackToIndex, req.CurrentIndex); err != nil {
		fail(c, err)
		return
	}

	after, err := s.aliasMgr.CurrentState(c.Request.Context(), aliasName)
	if err != nil {
		fail(c, apperr.Wrap(apperr.EngineError, err, "reading alias state"))
		return
	}

	ok(c, gin.H{"before": before, "after": after})
}
