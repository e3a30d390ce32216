package evalrun

import (
	"math"
	"sort"

	"github.com/antflydb/searchctl/internal/dataset"
)

// QueryMetrics are the graded-relevance IR metrics computed for one query,
// plus the raw counts the report writer's worst-query table surfaces
// alongside them.
type QueryMetrics struct {
	QueryID   string  `json:"queryId"`
	Intent    string  `json:"intent,omitempty"`
	Precision float64 `json:"precisionAtK"`
	Recall    float64 `json:"recallAtK"`
	MRR       float64 `json:"mrr"`
	NDCG      float64 `json:"ndcgAtK"`

	// RelevantJudgements is the number of judgements with grade > 0 for this
	// query; RelevantRetrieved is how many of those made it into the top-K
	// hits actually retrieved.
	RelevantJudgements int `json:"relevantJudgements"`
	RelevantRetrieved  int `json:"relevantRetrieved"`

	// JudgedHits and TotalHits describe the retrieved set itself: how many
	// of the hits had any judgement at all, out of how many were retrieved.
	JudgedHits int `json:"judgedHits"`
	TotalHits  int `json:"totalHits"`
}

// gradeAt returns the judged grade for docID, or 0 if unjudged.
func gradeAt(judgements []dataset.Judgement, docID string) int {
	for _, j := range judgements {
		if j.DocID == docID {
			return j.Grade
		}
	}
	return 0
}

// judgedAt reports whether docID has any judgement at all, independent of
// its grade (a grade-0 judgement still counts as "judged").
func judgedAt(judgements []dataset.Judgement, docID string) bool {
	for _, j := range judgements {
		if j.DocID == docID {
			return true
		}
	}
	return false
}

// ComputeMetrics scores retrievedIDs (already truncated to topK, in rank
// order) against judgements for a single query, using graded relevance
// (grade 0 means "not relevant", matching the dataset's 0-3 scale).
func ComputeMetrics(queryID string, retrievedIDs []string, judgements []dataset.Judgement, topK int) QueryMetrics {
	relevantRetrieved, judgedHits := 0, 0
	for _, id := range retrievedIDs {
		if gradeAt(judgements, id) > 0 {
			relevantRetrieved++
		}
		if judgedAt(judgements, id) {
			judgedHits++
		}
	}
	relevantJudgements := 0
	for _, j := range judgements {
		if j.Grade > 0 {
			relevantJudgements++
		}
	}

	return QueryMetrics{
		QueryID:            queryID,
		Precision:          precisionAtK(retrievedIDs, judgements),
		Recall:             recallAtK(retrievedIDs, judgements),
		MRR:                mrr(retrievedIDs, judgements),
		NDCG:               ndcgAtK(retrievedIDs, judgements, topK),
		RelevantJudgements: relevantJudgements,
		RelevantRetrieved:  relevantRetrieved,
		JudgedHits:         judgedHits,
		TotalHits:          len(retrievedIDs),
	}
}

func precisionAtK(retrievedIDs []string, judgements []dataset.Judgement) float64 {
	if len(retrievedIDs) == 0 {
		return 0
	}
	hits := 0
	for _, id := range retrievedIDs {
		if gradeAt(judgements, id) > 0 {
			hits++
		}
	}
	return float64(hits) / float64(len(retrievedIDs))
}

func recallAtK(retrievedIDs []string, judgements []dataset.Judgement) float64 {
	relevantTotal := 0
	for _, j := range judgements {
		if j.Grade > 0 {
			relevantTotal++
		}
	}
	if relevantTotal == 0 {
		return 0
	}
	hits := 0
	for _, id := range retrievedIDs {
		if gradeAt(judgements, id) > 0 {
			hits++
		}
	}
	return float64(hits) / float64(relevantTotal)
}

func mrr(retrievedIDs []string, judgements []dataset.Judgement) float64 {
	for i, id := range retrievedIDs {
		if gradeAt(judgements, id) > 0 {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

func dcgAtK(grades []int, k int) float64 {
	if k > len(grades) {
		k = len(grades)
	}
	var sum float64
	for i := 0; i < k; i++ {
		gain := math.Pow(2, float64(grades[i])) - 1
		discount := math.Log2(float64(i) + 2)
		sum += gain / discount
	}
	return sum
}

func ndcgAtK(retrievedIDs []string, judgements []dataset.Judgement, topK int) float64 {
	grades := make([]int, len(retrievedIDs))
	for i, id := range retrievedIDs {
		grades[i] = gradeAt(judgements, id)
	}
	dcg := dcgAtK(grades, topK)

	ideal := make([]int, 0, len(judgements))
	for _, j := range judgements {
		if j.Grade > 0 {
			ideal = append(ideal, j.Grade)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ideal)))
	idcg := dcgAtK(ideal, topK)

	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// AggregateMetrics arithmetically averages per-query metrics across a run.
type AggregateMetrics struct {
	MeanPrecision float64 `json:"meanPrecisionAtK"`
	MeanRecall    float64 `json:"meanRecallAtK"`
	MeanMRR       float64 `json:"meanMrr"`
	MeanNDCG      float64 `json:"meanNdcgAtK"`
}

// Aggregate computes the arithmetic mean of each metric across per.
func Aggregate(per []QueryMetrics) AggregateMetrics {
	if len(per) == 0 {
		return AggregateMetrics{}
	}
	var agg AggregateMetrics
	for _, m := range per {
		agg.MeanPrecision += m.Precision
		agg.MeanRecall += m.Recall
		agg.MeanMRR += m.MRR
		agg.MeanNDCG += m.NDCG
	}
	n := float64(len(per))
	agg.MeanPrecision /= n
	agg.MeanRecall /= n
	agg.MeanMRR /= n
	agg.MeanNDCG /= n
	return agg
}
