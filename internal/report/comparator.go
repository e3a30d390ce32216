package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MetricDelta is the before/after/delta for one aggregate metric.
type MetricDelta struct {
	Name   string  `json:"name"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Delta  float64 `json:"delta"`
}

// WorstQueryChangeKind classifies how a query's presence in the worst-query
// table changed between two reports.
type WorstQueryChangeKind string

const (
	Improved         WorstQueryChangeKind = "IMPROVED"
	Regressed        WorstQueryChangeKind = "REGRESSED"
	Unchanged        WorstQueryChangeKind = "UNCHANGED"
	RemovedFromWorst WorstQueryChangeKind = "REMOVED_FROM_WORST"
	NewInWorst       WorstQueryChangeKind = "NEW_IN_WORST"
)

// WorstQueryChange describes one query's movement between the before and
// after reports' worst-query tables.
type WorstQueryChange struct {
	QueryID    string               `json:"queryId"`
	Kind       WorstQueryChangeKind `json:"kind"`
	BeforeNDCG *float64             `json:"beforeNdcg,omitempty"`
	AfterNDCG  *float64             `json:"afterNdcg,omitempty"`
	DeltaNDCG  float64              `json:"deltaNdcg"`
}

// Comparison is the full output of comparing two reports.
type Comparison struct {
	BeforeReportID    string             `json:"beforeReportId"`
	AfterReportID     string             `json:"afterReportId"`
	MetricsDelta      []MetricDelta      `json:"metricsDelta"`
	WorstQueryChanges []WorstQueryChange `json:"worstQueryChanges"`
	Improvements      []WorstQueryChange `json:"improvements"`
	Regressions       []WorstQueryChange `json:"regressions"`
}

// Comparator diffs two previously written reports.
type Comparator struct {
	reportsDir string
	compareDir string
}

// NewComparator constructs a Comparator. reportsDir is where metrics.json
// files are read from; comparisons are written under
// {reportsDir}/comparisons.
func NewComparator(reportsDir string) *Comparator {
	return &Comparator{reportsDir: reportsDir, compareDir: filepath.Join(reportsDir, "comparisons")}
}

// Compare loads beforeReportID and afterReportID's metrics.json files,
// computes the metric deltas and worst-query classification, writes
// comparisons/{after}_vs_{before}.md, and returns the comparison.
func (c *Comparator) Compare(beforeReportID, afterReportID string, topQueries int) (*Comparison, string, error) {
	if topQueries <= 0 {
		topQueries = 5
	}

	before, err := LoadFrom(filepath.Join(c.reportsDir, beforeReportID, "metrics.json"))
	if err != nil {
		return nil, "", fmt.Errorf("loading before report %q: %w", beforeReportID, err)
	}
	after, err := LoadFrom(filepath.Join(c.reportsDir, afterReportID, "metrics.json"))
	if err != nil {
		return nil, "", fmt.Errorf("loading after report %q: %w", afterReportID, err)
	}

	cmp := &Comparison{
		BeforeReportID: beforeReportID,
		AfterReportID:  afterReportID,
		MetricsDelta: []MetricDelta{
			{Name: "precisionAtK", Before: before.Summary.MeanPrecision, After: after.Summary.MeanPrecision, Delta: after.Summary.MeanPrecision - before.Summary.MeanPrecision},
			{Name: "recallAtK", Before: before.Summary.MeanRecall, After: after.Summary.MeanRecall, Delta: after.Summary.MeanRecall - before.Summary.MeanRecall},
			{Name: "mrr", Before: before.Summary.MeanMRR, After: after.Summary.MeanMRR, Delta: after.Summary.MeanMRR - before.Summary.MeanMRR},
			{Name: "ndcgAtK", Before: before.Summary.MeanNDCG, After: after.Summary.MeanNDCG, Delta: after.Summary.MeanNDCG - before.Summary.MeanNDCG},
		},
	}

	cmp.WorstQueryChanges = classifyWorstQueries(before.WorstQueries, after.WorstQueries)

	var improved, regressed []WorstQueryChange
	for _, c := range cmp.WorstQueryChanges {
		switch c.Kind {
		case Improved:
			improved = append(improved, c)
		case Regressed:
			regressed = append(regressed, c)
		}
	}
	sort.Slice(improved, func(i, j int) bool { return improved[i].DeltaNDCG > improved[j].DeltaNDCG })
	sort.Slice(regressed, func(i, j int) bool { return regressed[i].DeltaNDCG < regressed[j].DeltaNDCG })
	if len(improved) > topQueries {
		improved = improved[:topQueries]
	}
	if len(regressed) > topQueries {
		regressed = regressed[:topQueries]
	}
	cmp.Improvements = improved
	cmp.Regressions = regressed

	path := filepath.Join(c.compareDir, fmt.Sprintf("%s_vs_%s.md", afterReportID, beforeReportID))
	if err := os.MkdirAll(c.compareDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating comparisons directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(comparisonMarkdown(cmp)), 0o644); err != nil {
		return nil, "", fmt.Errorf("writing comparison markdown: %w", err)
	}

	return cmp, path, nil
}

// classifyWorstQueries classifies every query id appearing in either
// before's or after's worst-query table: both present ->
// IMPROVED/REGRESSED/UNCHANGED by sign of delta nDCG; only-before ->
// REMOVED_FROM_WORST with delta = 1 - beforeNdcg; only-after -> NEW_IN_WORST
// with delta = -afterNdcg.
func classifyWorstQueries(before, after []WorstQuery) []WorstQueryChange {
	beforeByID := make(map[string]WorstQuery, len(before))
	for _, q := range before {
		beforeByID[q.QueryID] = q
	}
	afterByID := make(map[string]WorstQuery, len(after))
	for _, q := range after {
		afterByID[q.QueryID] = q
	}

	ids := make([]string, 0, len(beforeByID)+len(afterByID))
	seen := make(map[string]bool)
	for _, q := range before {
		if !seen[q.QueryID] {
			seen[q.QueryID] = true
			ids = append(ids, q.QueryID)
		}
	}
	for _, q := range after {
		if !seen[q.QueryID] {
			seen[q.QueryID] = true
			ids = append(ids, q.QueryID)
		}
	}
	sort.Strings(ids)

	changes := make([]WorstQueryChange, 0, len(ids))
	for _, id := range ids {
		b, hasBefore := beforeByID[id]
		a, hasAfter := afterByID[id]

		switch {
		case hasBefore && hasAfter:
			delta := a.NDCG - b.NDCG
			kind := Unchanged
			if delta > 0 {
				kind = Improved
			} else if delta < 0 {
				kind = Regressed
			}
			bn, an := b.NDCG, a.NDCG
			changes = append(changes, WorstQueryChange{QueryID: id, Kind: kind, BeforeNDCG: &bn, AfterNDCG: &an, DeltaNDCG: delta})
		case hasBefore:
			bn := b.NDCG
			changes = append(changes, WorstQueryChange{QueryID: id, Kind: RemovedFromWorst, BeforeNDCG: &bn, DeltaNDCG: 1 - bn})
		case hasAfter:
			an := a.NDCG
			changes = append(changes, WorstQueryChange{QueryID: id, Kind: NewInWorst, AfterNDCG: &an, DeltaNDCG: -an})
		}
	}
	return changes
}

func comparisonMarkdown(cmp *Comparison) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Comparison: %s vs %s\n\n", cmp.AfterReportID, cmp.BeforeReportID)

	fmt.Fprintf(&b, "## Metric deltas\n\n")
	fmt.Fprintf(&b, "| Metric | Before | After | Delta |\n|---|---|---|---|\n")
	for _, d := range cmp.MetricsDelta {
		fmt.Fprintf(&b, "| %s | %.4f | %.4f | %+.4f |\n", d.Name, d.Before, d.After, d.Delta)
	}

	fmt.Fprintf(&b, "\n## Worst-query changes\n\n")
	fmt.Fprintf(&b, "| Query ID | Kind | Delta nDCG |\n|---|---|---|\n")
	for _, c := range cmp.WorstQueryChanges {
		fmt.Fprintf(&b, "| %s | %s | %+.4f |\n", c.QueryID, c.Kind, c.DeltaNDCG)
	}

	fmt.Fprintf(&b, "\n## Top improvements\n\n")
	for _, c := range cmp.Improvements {
		fmt.Fprintf(&b, "- %s: %+.4f\n", c.QueryID, c.DeltaNDCG)
	}

	fmt.Fprintf(&b, "\n## Top regressions\n\n")
	for _, c := range cmp.Regressions {
		fmt.Fprintf(&b, "- %s: %+.4f\n", c.QueryID, c.DeltaNDCG)
	}

	return b.String()
}
