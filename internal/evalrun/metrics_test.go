package evalrun

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antflydb/searchctl/internal/dataset"
)

func TestPrecisionRecallMRR(t *testing.T) {
	judgements := []dataset.Judgement{
		{DocID: "d1", Grade: 3},
		{DocID: "d2", Grade: 0},
		{DocID: "d3", Grade: 2},
		{DocID: "d4", Grade: 0},
	}
	retrieved := []string{"d2", "d1", "d5", "d3"}

	m := ComputeMetrics("q1", retrieved, judgements, 4)
	require.InDelta(t, 2.0/4.0, m.Precision, 1e-9)
	require.InDelta(t, 2.0/2.0, m.Recall, 1e-9)
	require.InDelta(t, 1.0/2.0, m.MRR, 1e-9)
}

func TestGradedMetricsWithRelevantHitAtThirdRank(t *testing.T) {
	judgements := []dataset.Judgement{
		{DocID: "doc-1", Grade: 3},
		{DocID: "doc-2", Grade: 2},
	}
	retrieved := []string{"doc-3", "doc-4", "doc-1"}

	m := ComputeMetrics("q1", retrieved, judgements, 3)
	require.InDelta(t, 1.0/3.0, m.Precision, 1e-9)
	require.InDelta(t, 0.5, m.Recall, 1e-9)
	require.InDelta(t, 1.0/3.0, m.MRR, 1e-9)

	dcg := 7.0 / math.Log2(4)
	idcg := 7.0/math.Log2(2) + 3.0/math.Log2(3)
	require.InDelta(t, dcg/idcg, m.NDCG, 1e-9)
}

func TestComputeMetricsIsDeterministic(t *testing.T) {
	judgements := []dataset.Judgement{{DocID: "d1", Grade: 2}, {DocID: "d2", Grade: 1}}
	retrieved := []string{"d2", "d3", "d1"}
	first := ComputeMetrics("q1", retrieved, judgements, 3)
	second := ComputeMetrics("q1", retrieved, judgements, 3)
	require.Equal(t, first, second)
}

func TestRecallZeroWhenNoRelevantJudgements(t *testing.T) {
	judgements := []dataset.Judgement{{DocID: "d1", Grade: 0}}
	m := ComputeMetrics("q1", []string{"d1"}, judgements, 1)
	require.Equal(t, 0.0, m.Recall)
}

func TestMRRZeroWhenNoHit(t *testing.T) {
	judgements := []dataset.Judgement{{DocID: "d1", Grade: 3}}
	m := ComputeMetrics("q1", []string{"d9"}, judgements, 1)
	require.Equal(t, 0.0, m.MRR)
}

func TestNDCGPerfectRankingIsOne(t *testing.T) {
	judgements := []dataset.Judgement{
		{DocID: "d1", Grade: 3},
		{DocID: "d2", Grade: 2},
		{DocID: "d3", Grade: 1},
	}
	m := ComputeMetrics("q1", []string{"d1", "d2", "d3"}, judgements, 3)
	require.InDelta(t, 1.0, m.NDCG, 1e-9)
}

func TestNDCGWorseThanPerfectWhenOutOfOrder(t *testing.T) {
	judgements := []dataset.Judgement{
		{DocID: "d1", Grade: 3},
		{DocID: "d2", Grade: 2},
	}
	perfect := ComputeMetrics("q1", []string{"d1", "d2"}, judgements, 2)
	reversed := ComputeMetrics("q1", []string{"d2", "d1"}, judgements, 2)
	require.Greater(t, perfect.NDCG, reversed.NDCG)
}

func TestNDCGZeroWhenNoPositiveJudgements(t *testing.T) {
	judgements := []dataset.Judgement{{DocID: "d1", Grade: 0}}
	m := ComputeMetrics("q1", []string{"d1"}, judgements, 1)
	require.Equal(t, 0.0, m.NDCG)
}

func TestDCGFormulaMatchesGradedGainFormula(t *testing.T) {
	// grade 3 at rank 1: gain = 2^3-1 = 7, discount = log2(2) = 1
	got := dcgAtK([]int{3}, 1)
	require.InDelta(t, 7.0, got, 1e-9)

	// grade 1 at rank 2: gain = 2^1-1 = 1, discount = log2(3)
	got = dcgAtK([]int{0, 1}, 2)
	require.InDelta(t, 1.0/math.Log2(3), got, 1e-9)
}

func TestAggregateComputesArithmeticMean(t *testing.T) {
	per := []QueryMetrics{
		{Precision: 1.0, Recall: 0.5, MRR: 1.0, NDCG: 0.8},
		{Precision: 0.0, Recall: 0.5, MRR: 0.0, NDCG: 0.2},
	}
	agg := Aggregate(per)
	require.InDelta(t, 0.5, agg.MeanPrecision, 1e-9)
	require.InDelta(t, 0.5, agg.MeanRecall, 1e-9)
	require.InDelta(t, 0.5, agg.MeanMRR, 1e-9)
	require.InDelta(t, 0.5, agg.MeanNDCG, 1e-9)
}
