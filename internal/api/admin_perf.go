package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/antflydb/searchctl/internal/apperr"
	"github.com/antflydb/searchctl/internal/dataset"
	"github.com/antflydb/searchctl/internal/perf"
)

// handleBenchmark implements POST /admin/performance/benchmark.
func (s *Server) handleBenchmark(c *gin.Context) {
	var req BenchmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.DatasetID == "" {
		badRequest(c, "datasetId is required")
		return
	}
	if req.Iterations <= 0 {
		req.Iterations = 10
	}

	targetIndex := req.TargetIndex
	if targetIndex == "" {
		targetIndex = aliasName
	}

	qs, err := dataset.LoadQuerySet(fmt.Sprintf("%s/querysets/%s_queries.json", s.datasetsDir, req.DatasetID))
	if err != nil {
		fail(c, apperr.Wrap(apperr.NotFound, err, "loading dataset %q", req.DatasetID))
		return
	}

	res, err := s.benchmarker.Run(c.Request.Context(), qs, perf.Config{
		TopK:        req.TopK,
		Iterations:  req.Iterations,
		Warmups:     req.Warmups,
		TargetIndex: targetIndex,
	})
	if err != nil {
		fail(c, apperr.Wrap(apperr.Internal, err, "running benchmark for dataset %q", req.DatasetID))
		return
	}

	runID, _, err := s.perfWriter.Write(res, req.ReportIDPrefix)
	if err != nil {
		fail(c, apperr.Wrap(apperr.Internal, err, "writing benchmark report"))
		return
	}

	response := gin.H{"runId": runID, "result": res}
	if req.BaselineReportID != "" {
		comparison, path, err := s.perfComparator.Compare(req.BaselineReportID, runID)
		if err != nil {
			fail(c, apperr.Wrap(apperr.NotFound, err, "comparing against baseline %q", req.BaselineReportID))
			return
		}
		response["comparisonPath"] = path
		response["comparison"] = comparison
	}
	ok(c, response)
}
