// Package validate implements the reindex validator: a set of pluggable
// checks run against a source and target index before a blue-green
// migration is allowed to switch its alias, combined by requiring every
// enabled check to pass.
package validate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/antflydb/searchctl/internal/engine"
	"github.com/antflydb/searchctl/internal/querycomposer"
)

// Config controls which checks run and their thresholds.
type Config struct {
	CountCheckEnabled   bool
	OverlapCheckEnabled bool
	HashCheckEnabled    bool
	SampleQueries       []querycomposer.SearchRequest
	TopK                int
	MinJaccard          float64

	// HashMaxDocs bounds how many documents (in ascending id order) the
	// hash check scans from each index; 0 means unbounded.
	HashMaxDocs int
	// HashPageSize is carried through for parity with the admin request
	// shape. The Engine Port's Scan paginates internally (e.g. the
	// HTTPClient's own scroll page size) rather than taking a caller-
	// supplied page size, so this field does not currently change scan
	// behavior; it is accepted so a caller's full validation options
	// round-trip without being silently dropped.
	HashPageSize int
}

// CheckResult is the outcome of a single named check.
type CheckResult struct {
	Name    string               `json:"name"`
	Passed  bool                 `json:"passed"`
	Detail  string               `json:"detail,omitempty"`
	Queries []QueryOverlapResult `json:"queries,omitempty"`
}

// QueryOverlapResult is the per-sample-query detail behind the overlap
// check's combined Passed/Detail summary.
type QueryOverlapResult struct {
	QueryIndex      int      `json:"queryIndex"`
	Jaccard         float64  `json:"jaccard"`
	MissingInTarget []string `json:"missingInTarget,omitempty"`
	MissingInSource []string `json:"missingInSource,omitempty"`
}

// Report is the combined outcome of every enabled check. Passed is true
// only if every enabled check passed.
type Report struct {
	Passed bool          `json:"passed"`
	Checks []CheckResult `json:"checks,omitempty"`
}

// FailureReasons joins the details of every failed check into one string,
// so a migration abort carries each check's own explanation verbatim.
func (r Report) FailureReasons() string {
	var reasons []string
	for _, c := range r.Checks {
		if !c.Passed {
			reasons = append(reasons, fmt.Sprintf("%s: %s", c.Name, c.Detail))
		}
	}
	return strings.Join(reasons, "; ")
}

// Validator runs the reindex validator's checks against a source/target
// index pair.
type Validator struct {
	port   engine.Port
	config Config
}

// New constructs a Validator.
func New(port engine.Port, config Config) *Validator {
	return &Validator{port: port, config: config}
}

// Validate runs every enabled check and ANDs their outcomes. With no checks
// enabled, Validate passes vacuously.
func (v *Validator) Validate(ctx context.Context, source, target string) (Report, error) {
	var report Report
	report.Passed = true

	if v.config.CountCheckEnabled {
		result, err := v.checkCount(ctx, source, target)
		if err != nil {
			return report, fmt.Errorf("count check: %w", err)
		}
		report.Checks = append(report.Checks, result)
		report.Passed = report.Passed && result.Passed
	}

	if v.config.OverlapCheckEnabled {
		result, err := v.checkOverlap(ctx, source, target)
		if err != nil {
			return report, fmt.Errorf("overlap check: %w", err)
		}
		report.Checks = append(report.Checks, result)
		report.Passed = report.Passed && result.Passed
	}

	if v.config.HashCheckEnabled {
		result, err := v.checkHash(ctx, source, target)
		if err != nil {
			return report, fmt.Errorf("hash check: %w", err)
		}
		report.Checks = append(report.Checks, result)
		report.Passed = report.Passed && result.Passed
	}

	return report, nil
}

func (v *Validator) checkCount(ctx context.Context, source, target string) (CheckResult, error) {
	srcCount, err := v.port.Count(ctx, source)
	if err != nil {
		return CheckResult{}, fmt.Errorf("counting source: %w", err)
	}
	dstCount, err := v.port.Count(ctx, target)
	if err != nil {
		return CheckResult{}, fmt.Errorf("counting target: %w", err)
	}
	passed := srcCount == dstCount
	detail := fmt.Sprintf("source=%d target=%d", srcCount, dstCount)
	if !passed {
		detail = "count mismatch: " + detail
	}
	return CheckResult{Name: "count", Passed: passed, Detail: detail}, nil
}

// checkOverlap samples each configured query against both indices
// (bypassing aliases — callers pass concrete source/target index names)
// and requires every query's top-K Jaccard similarity to meet MinJaccard.
// This is an AND across queries, not an average: one bad query fails the
// whole check even if the rest overlap perfectly.
func (v *Validator) checkOverlap(ctx context.Context, source, target string) (CheckResult, error) {
	if len(v.config.SampleQueries) == 0 {
		return CheckResult{Name: "overlap", Passed: true, Detail: "no sample queries configured"}, nil
	}

	topK := v.config.TopK
	if topK <= 0 {
		topK = 10
	}
	minJaccard := v.config.MinJaccard
	if minJaccard == 0 {
		minJaccard = 0.6
	}

	passed := true
	results := make([]QueryOverlapResult, len(v.config.SampleQueries))
	for i, req := range v.config.SampleQueries {
		native := querycomposer.Compose(req)

		srcResp, err := v.port.Search(ctx, source, native, 0, topK)
		if err != nil {
			return CheckResult{}, fmt.Errorf("searching source: %w", err)
		}
		dstResp, err := v.port.Search(ctx, target, native, 0, topK)
		if err != nil {
			return CheckResult{}, fmt.Errorf("searching target: %w", err)
		}

		j, missingInTarget, missingInSource := overlapStats(hitIDList(srcResp), hitIDList(dstResp))
		results[i] = QueryOverlapResult{
			QueryIndex:      i,
			Jaccard:         j,
			MissingInTarget: missingInTarget,
			MissingInSource: missingInSource,
		}
		if j < minJaccard {
			passed = false
		}
	}

	return CheckResult{
		Name:    "overlap",
		Passed:  passed,
		Detail:  fmt.Sprintf("min_jaccard=%.4f queries=%d", minJaccard, len(v.config.SampleQueries)),
		Queries: results,
	}, nil
}

func hitIDList(resp *engine.SearchResponse) []string {
	ids := make([]string, len(resp.Hits))
	for i, h := range resp.Hits {
		ids[i] = h.ID
	}
	return ids
}

// overlapStats computes the Jaccard similarity of a and b's id sets (1.0 if
// both are empty) plus which ids are missing from each side relative to
// the other, sorted for deterministic output.
func overlapStats(a, b []string) (j float64, missingInTarget, missingInSource []string) {
	setA := make(map[string]struct{}, len(a))
	for _, id := range a {
		setA[id] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, id := range b {
		setB[id] = struct{}{}
	}

	j = jaccard(setA, setB)

	for id := range setA {
		if _, ok := setB[id]; !ok {
			missingInTarget = append(missingInTarget, id)
		}
	}
	for id := range setB {
		if _, ok := setA[id]; !ok {
			missingInSource = append(missingInSource, id)
		}
	}
	sort.Strings(missingInTarget)
	sort.Strings(missingInSource)
	return j, missingInTarget, missingInSource
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for id := range a {
		if _, ok := b[id]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}

// errHashLimitReached stops Scan once hashIndex has hashed HashMaxDocs
// documents; it is not a real failure and is swallowed by hashIndex.
var errHashLimitReached = errors.New("hash scan limit reached")

type hashResult struct {
	digest string
	count  int64
}

// checkHash computes a SHA-256 content hash over each index's documents,
// scanned in ascending document-id order up to HashMaxDocs, and requires
// both the digests and the scanned document counts to match.
func (v *Validator) checkHash(ctx context.Context, source, target string) (CheckResult, error) {
	srcHash, err := v.hashIndex(ctx, source)
	if err != nil {
		return CheckResult{}, fmt.Errorf("hashing source: %w", err)
	}
	dstHash, err := v.hashIndex(ctx, target)
	if err != nil {
		return CheckResult{}, fmt.Errorf("hashing target: %w", err)
	}
	passed := srcHash.digest == dstHash.digest && srcHash.count == dstHash.count
	return CheckResult{
		Name:   "hash",
		Passed: passed,
		Detail: fmt.Sprintf("source=%s (n=%d) target=%s (n=%d)", srcHash.digest, srcHash.count, dstHash.digest, dstHash.count),
	}, nil
}

func (v *Validator) hashIndex(ctx context.Context, index string) (hashResult, error) {
	h := sha256.New()
	var count int64
	maxDocs := int64(v.config.HashMaxDocs)

	err := v.port.Scan(ctx, index, func(d engine.Document) error {
		if maxDocs > 0 && count >= maxDocs {
			return errHashLimitReached
		}
		h.Write([]byte(hashLine(d)))
		h.Write([]byte{'\n'})
		count++
		return nil
	})
	if err != nil && !errors.Is(err, errHashLimitReached) {
		return hashResult{}, err
	}
	return hashResult{digest: hex.EncodeToString(h.Sum(nil)), count: count}, nil
}

// hashLine renders d as the exact pipe-delimited string the content-hash
// check feeds into SHA-256:
//
//	id|title|summary_or_empty|body|sorted_tags_comma_joined|category|author|publishedAt|popularityScore
func hashLine(d engine.Document) string {
	tags := append([]string(nil), d.Tags...)
	sort.Strings(tags)
	return strings.Join([]string{
		d.ID,
		d.Title,
		d.Summary,
		d.Body,
		strings.Join(tags, ","),
		d.Category,
		d.Author,
		d.PublishedAt.UTC().Format(time.RFC3339),
		strconv.FormatFloat(d.Popularity, 'f', -1, 64),
	}, "|")
}
