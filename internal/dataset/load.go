package dataset

import (
	"fmt"
	"os"

	"github.com/antflydb/searchctl/internal/jsonx"
)

// LoadQuerySet reads and validates a QuerySet from a JSON file: every query
// must have a non-empty id, and ids must be unique within the set.
func LoadQuerySet(path string) (*QuerySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query set file: %w", err)
	}
	var qs QuerySet
	if err := jsonx.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("parsing query set file: %w", err)
	}
	if err := qs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query set %q: %w", path, err)
	}
	return &qs, nil
}

// LoadJudgementSet reads and validates a JudgementSet from a JSON file.
func LoadJudgementSet(path string) (*JudgementSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading judgement set file: %w", err)
	}
	var js JudgementSet
	if err := jsonx.Unmarshal(data, &js); err != nil {
		return nil, fmt.Errorf("parsing judgement set file: %w", err)
	}
	if err := js.Validate(); err != nil {
		return nil, fmt.Errorf("invalid judgement set %q: %w", path, err)
	}
	return &js, nil
}

// Validate checks that every query has an id and that ids are unique.
func (qs *QuerySet) Validate() error {
	seen := make(map[string]bool, len(qs.Queries))
	for i, q := range qs.Queries {
		if q.ID == "" {
			return fmt.Errorf("query at index %d has empty id", i)
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate query id %q", q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

// Validate checks that every judgement's grade is within [0, MaxGrade] and
// that docIDs are unique within a query's judgement list.
func (js *JudgementSet) Validate() error {
	for queryID, judgements := range js.ByQueryID {
		seenDocs := make(map[string]bool, len(judgements))
		for _, j := range judgements {
			if j.Grade < 0 || j.Grade > MaxGrade {
				return fmt.Errorf("query %q: judgement for doc %q has out-of-range grade %d", queryID, j.DocID, j.Grade)
			}
			if seenDocs[j.DocID] {
				return fmt.Errorf("query %q: duplicate judgement for doc %q", queryID, j.DocID)
			}
			seenDocs[j.DocID] = true
		}
	}
	return nil
}

// CheckCoverage reports every query id in qs that has no entry in js,
// letting callers surface (or reject) partially-judged query sets before
// running an evaluation.
func CheckCoverage(qs *QuerySet, js *JudgementSet) []string {
	var missing []string
	for _, q := range qs.Queries {
		if _, ok := js.ByQueryID[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// UnknownJudgementQueries reports every query id keyed in js that does not
// appear in qs, the reverse of CheckCoverage: a judgement set must not carry
// grades for queries the paired query set doesn't define.
func UnknownJudgementQueries(qs *QuerySet, js *JudgementSet) []string {
	known := make(map[string]bool, len(qs.Queries))
	for _, q := range qs.Queries {
		known[q.ID] = true
	}
	var unknown []string
	for queryID := range js.ByQueryID {
		if !known[queryID] {
			unknown = append(unknown, queryID)
		}
	}
	return unknown
}
