// Package report writes evaluation runs to disk as reports/{reportId}/
// {metrics.json, summary.md}, and compares two reports for regression
// detection.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/antflydb/searchctl/internal/evalrun"
	"github.com/antflydb/searchctl/internal/jsonx"
)

// Summary is the aggregate mean metrics for a report, repeated at the top
// level of metrics.json under the "summary" key.
type Summary struct {
	TopK          int     `json:"topK"`
	TotalQueries  int     `json:"totalQueries"`
	MeanPrecision float64 `json:"meanPrecisionAtK"`
	MeanRecall    float64 `json:"meanRecallAtK"`
	MeanMRR       float64 `json:"meanMrr"`
	MeanNDCG      float64 `json:"meanNdcgAtK"`
}

// WorstQuery is one row of the worst-queries table: the lowest-nDCG
// queries, ties broken ascending by Recall@K.
type WorstQuery struct {
	QueryID      string  `json:"queryId"`
	Intent       string  `json:"intent,omitempty"`
	Precision    float64 `json:"precisionAtK"`
	Recall       float64 `json:"recallAtK"`
	MRR          float64 `json:"mrr"`
	NDCG         float64 `json:"ndcgAtK"`
	JudgedHits   int     `json:"judgedHits"`
	RelevantHits int     `json:"relevantHits"`
	TotalHits    int     `json:"totalHits"`
}

// Metrics is the exact on-disk schema for metrics.json.
type Metrics struct {
	ReportID     string       `json:"reportId"`
	DatasetID    string       `json:"datasetId"`
	TopK         int          `json:"topK"`
	TotalQueries int          `json:"totalQueries"`
	StartedAt    time.Time    `json:"startedAt"`
	CompletedAt  time.Time    `json:"completedAt"`
	ElapsedMS    int64        `json:"elapsedMs"`
	Summary      Summary      `json:"summary"`
	WorstQueries []WorstQuery `json:"worstQueries"`
}

// Writer writes evaluation reports under a root reports directory.
type Writer struct {
	dir             string
	worstQueryCount int
}

// New constructs a Writer rooted at reportsDir.
func New(reportsDir string, worstQueryCount int) *Writer {
	if worstQueryCount <= 0 {
		worstQueryCount = 10
	}
	return &Writer{dir: reportsDir, worstQueryCount: worstQueryCount}
}

// ReportID derives the report directory name from startedAt: its UTC
// yyyyMMdd_HHmmss, optionally prefixed.
func ReportID(startedAt time.Time, prefix string) string {
	ts := startedAt.UTC().Format("20060102_150405")
	if prefix == "" {
		return ts
	}
	return prefix + "_" + ts
}

// Write persists rep to reports/{reportId}/{metrics.json, summary.md} and
// returns the report's id and directory.
func (w *Writer) Write(rep *evalrun.Report, prefix string) (id string, dir string, err error) {
	id = ReportID(rep.StartedAt, prefix)
	dir = filepath.Join(w.dir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating report directory: %w", err)
	}

	// An empty run has no meaningful truncation depth: topK reports as 0
	// alongside the all-zero means.
	topK := rep.TopK
	if len(rep.Per) == 0 {
		topK = 0
	}

	metrics := Metrics{
		ReportID:     id,
		DatasetID:    rep.DatasetID,
		TopK:         topK,
		TotalQueries: len(rep.Per),
		StartedAt:    rep.StartedAt,
		CompletedAt:  rep.CompletedAt,
		ElapsedMS:    rep.Duration.Milliseconds(),
		Summary: Summary{
			TopK:          topK,
			TotalQueries:  len(rep.Per),
			MeanPrecision: rep.Aggregate.MeanPrecision,
			MeanRecall:    rep.Aggregate.MeanRecall,
			MeanMRR:       rep.Aggregate.MeanMRR,
			MeanNDCG:      rep.Aggregate.MeanNDCG,
		},
		WorstQueries: worstQueries(rep.Per, w.worstQueryCount),
	}

	data, err := jsonx.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encoding metrics.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metrics.json"), data, 0o644); err != nil {
		return "", "", fmt.Errorf("writing metrics.json: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "summary.md"), []byte(summaryMarkdown(metrics)), 0o644); err != nil {
		return "", "", fmt.Errorf("writing summary.md: %w", err)
	}

	return id, dir, nil
}

// Load reads back a previously written metrics.json by report id.
func (w *Writer) Load(reportID string) (*Metrics, error) {
	return LoadFrom(filepath.Join(w.dir, reportID, "metrics.json"))
}

// LoadFrom reads a metrics.json file from an explicit path.
func LoadFrom(path string) (*Metrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metrics.json: %w", err)
	}
	var m Metrics
	if err := jsonx.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing metrics.json: %w", err)
	}
	return &m, nil
}

// worstQueries returns the first n queries ascending by nDCG, tie-broken
// ascending by Recall@K.
func worstQueries(per []evalrun.QueryMetrics, n int) []WorstQuery {
	sorted := make([]evalrun.QueryMetrics, len(per))
	copy(sorted, per)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].NDCG != sorted[j].NDCG {
			return sorted[i].NDCG < sorted[j].NDCG
		}
		return sorted[i].Recall < sorted[j].Recall
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	out := make([]WorstQuery, n)
	for i, m := range sorted[:n] {
		out[i] = WorstQuery{
			QueryID:      m.QueryID,
			Intent:       m.Intent,
			Precision:    m.Precision,
			Recall:       m.Recall,
			MRR:          m.MRR,
			NDCG:         m.NDCG,
			JudgedHits:   m.JudgedHits,
			RelevantHits: m.RelevantRetrieved,
			TotalHits:    m.TotalHits,
		}
	}
	return out
}

func summaryMarkdown(m Metrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Evaluation report %s\n\n", m.ReportID)
	fmt.Fprintf(&b, "- Dataset: %s\n", m.DatasetID)
	fmt.Fprintf(&b, "- Started at: %s\n", m.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Completed at: %s\n", m.CompletedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Elapsed: %dms\n", m.ElapsedMS)
	fmt.Fprintf(&b, "- Queries evaluated: %d\n", m.TotalQueries)
	fmt.Fprintf(&b, "- Top K: %d\n\n", m.TopK)

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Precision@K | %.4f |\n", m.Summary.MeanPrecision)
	fmt.Fprintf(&b, "| Recall@K | %.4f |\n", m.Summary.MeanRecall)
	fmt.Fprintf(&b, "| MRR | %.4f |\n", m.Summary.MeanMRR)
	fmt.Fprintf(&b, "| nDCG@K | %.4f |\n\n", m.Summary.MeanNDCG)

	fmt.Fprintf(&b, "## Worst Queries\n\n")
	fmt.Fprintf(&b, "| Query ID | Intent | Precision@K | Recall@K | MRR | nDCG@K | Judged | Relevant | Total |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|---|---|---|\n")
	for _, q := range m.WorstQueries {
		fmt.Fprintf(&b, "| %s | %s | %.4f | %.4f | %.4f | %.4f | %d | %d | %d |\n",
			q.QueryID, q.Intent, q.Precision, q.Recall, q.MRR, q.NDCG, q.JudgedHits, q.RelevantHits, q.TotalHits)
	}

	return b.String()
}
