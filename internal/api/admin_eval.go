package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/antflydb/searchctl/internal/apperr"
	"github.com/antflydb/searchctl/internal/report"
)

// handleEvalRun implements GET-params-driven POST /admin/eval/run?
// datasetId&topK&worstQueries&generateReport.
func (s *Server) handleEvalRun(c *gin.Context) {
	datasetID := c.Query("datasetId")
	if datasetID == "" {
		badRequest(c, "datasetId is required")
		return
	}
	topK := s.cfg.Eval.TopK
	if v := c.Query("topK"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(c, "topK must be an integer >= 1")
			return
		}
		topK = n
	}
	worstQueries := s.cfg.Eval.WorstQueryReportCount
	if v := c.Query("worstQueries"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(c, "worstQueries must be an integer >= 1")
			return
		}
		worstQueries = n
	}
	generateReport := c.Query("generateReport") != "false"

	qs, js, err := s.loadDataset(datasetID)
	if err != nil {
		fail(c, apperr.Wrap(apperr.NotFound, err, "loading dataset %q", datasetID))
		return
	}

	runner := s.evalRunner.WithTopK(topK)
	rep, err := runner.Run(c.Request.Context(), aliasName, qs, js)
	if err != nil {
		fail(c, apperr.Wrap(apperr.Internal, err, "running evaluation for dataset %q", datasetID))
		return
	}

	response := gin.H{"result": rep}
	if generateReport {
		id, dir, err := report.New(s.cfg.Reports.Dir, worstQueries).Write(rep, "")
		if err != nil {
			fail(c, apperr.Wrap(apperr.Internal, err, "writing report"))
			return
		}
		response["reportId"] = id
		response["reportDir"] = dir
	}
	ok(c, response)
}

// handleEvalRegression implements POST /admin/eval/regression: runs a fresh
// evaluation and compares it against a baseline report.
func (s *Server) handleEvalRegression(c *gin.Context) {
	var req EvalRegressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.DatasetID == "" {
		badRequest(c, "datasetId is required")
		return
	}
	if req.BaselineReportID == "" {
		badRequest(c, "baselineReportId is required")
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.Eval.TopK
	}
	targetIndex := req.TargetIndex
	if targetIndex == "" {
		targetIndex = aliasName
	}

	qs, js, err := s.loadDataset(req.DatasetID)
	if err != nil {
		fail(c, apperr.Wrap(apperr.NotFound, err, "loading dataset %q", req.DatasetID))
		return
	}

	worstQueries := req.WorstQueries
	if worstQueries <= 0 {
		worstQueries = s.cfg.Eval.WorstQueryReportCount
	}

	runner := s.evalRunner.WithTopK(topK)
	rep, err := runner.Run(c.Request.Context(), targetIndex, qs, js)
	if err != nil {
		fail(c, apperr.Wrap(apperr.Internal, err, "running evaluation for dataset %q", req.DatasetID))
		return
	}

	writer := s.reportWriter
	afterID, _, err := writer.Write(rep, req.ReportIDPrefix)
	if err != nil {
		fail(c, apperr.Wrap(apperr.Internal, err, "writing report"))
		return
	}

	comparison, path, err := s.reportComparator.Compare(req.BaselineReportID, afterID, worstQueries)
	if err != nil {
		fail(c, apperr.Wrap(apperr.NotFound, err, "comparing against baseline %q", req.BaselineReportID))
		return
	}

	ok(c, gin.H{"afterReportId": afterID, "comparisonPath": path, "comparison": comparison})
}
