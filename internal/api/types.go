package api

import (
	"github.com/antflydb/searchctl/internal/engine"
)

// ValidationOptions is the admin-facing override of the reindex validator's
// config defaults in POST /admin/index/reindex's request body.
type ValidationOptions struct {
	EnableCountValidation       *bool    `json:"enableCountValidation,omitempty"`
	EnableSampleQueryValidation *bool    `json:"enableSampleQueryValidation,omitempty"`
	EnableHashValidation        *bool    `json:"enableHashValidation,omitempty"`
	SampleQueries               []string `json:"sampleQueries,omitempty"`
	SampleTopK                  int      `json:"sampleTopK,omitempty"`
	MinJaccard                  float64  `json:"minJaccard,omitempty"`
	HashMaxDocs                 int      `json:"hashMaxDocs,omitempty"`
	HashPageSize                int      `json:"hashPageSize,omitempty"`
}

// ReindexRequest is the body of POST /admin/index/reindex.
type ReindexRequest struct {
	SourceVersion      int               `json:"sourceVersion"`
	TargetVersion      int               `json:"targetVersion"`
	WaitForCompletion  bool              `json:"waitForCompletion"`
	RefreshAfter       bool              `json:"refreshAfter"`
	Validation         ValidationOptions `json:"validation"`
}

// RollbackRequest is the body of POST /admin/index/rollback.
type RollbackRequest struct {
	CurrentIndex    string `json:"currentIndex"`
	RollbackToIndex string `json:"rollbackToIndex"`
}

// BulkRequest is the body of POST /admin/index/bulk.
type BulkRequest struct {
	TargetAlias string            `json:"targetAlias"`
	Documents   []engine.Document `json:"documents"`
}

// EvalRegressionRequest is the body of POST /admin/eval/regression.
type EvalRegressionRequest struct {
	DatasetID        string `json:"datasetId"`
	BaselineReportID string `json:"baselineReportId"`
	TopK             int    `json:"topK"`
	WorstQueries     int    `json:"worstQueries"`
	TargetIndex      string `json:"targetIndex"`
	ReportIDPrefix   string `json:"reportIdPrefix"`
}

// BenchmarkRequest is the body of POST /admin/performance/benchmark.
type BenchmarkRequest struct {
	DatasetID        string `json:"datasetId"`
	TopK             int    `json:"topK"`
	Iterations       int    `json:"iterations"`
	Warmups          int    `json:"warmups"`
	TargetIndex      string `json:"targetIndex"`
	ReportIDPrefix   string `json:"reportIdPrefix"`
	BaselineReportID string `json:"baselineReportId"`
}
