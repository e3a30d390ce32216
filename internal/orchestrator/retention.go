package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Retention writes a manifest of each completed migration under
// reports/reindex/{ts}_{target}/manifest.md, so the history of what was
// switched, when, and whether validation passed survives past the process
// that ran it.
type Retention struct {
	dir string
}

// NewRetention constructs a Retention recorder rooted at reportsDir.
func NewRetention(reportsDir string) *Retention {
	return &Retention{dir: reportsDir}
}

// Record writes the manifest for a migration and returns its path.
func (r *Retention) Record(ctx context.Context, plan Plan, result Result, ts time.Time) (string, error) {
	dirName := fmt.Sprintf("%s_%s", ts.UTC().Format("20060102_150405"), plan.TargetIndex)
	dir := filepath.Join(r.dir, "reindex", dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating manifest directory: %w", err)
	}

	path := filepath.Join(dir, "manifest.md")
	var b strings.Builder
	fmt.Fprintf(&b, "# Reindex manifest: %s\n\n", plan.TargetIndex)
	fmt.Fprintf(&b, "- Alias: %s\n", plan.Alias)
	fmt.Fprintf(&b, "- Source index: %s\n", plan.SourceIndex)
	fmt.Fprintf(&b, "- Target index: %s\n", plan.TargetIndex)
	fmt.Fprintf(&b, "- Timestamp (UTC): %s\n", ts.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Documents copied: %d\n", result.DocumentsCopied)
	fmt.Fprintf(&b, "- Source count: %d\n", result.SourceCount)
	fmt.Fprintf(&b, "- Target count: %d\n", result.TargetCount)
	if result.AliasBefore != nil {
		fmt.Fprintf(&b, "- Previous read targets: %s\n", joinOrNone(result.AliasBefore.ReadIndices))
		fmt.Fprintf(&b, "- Previous write targets: %s\n", joinOrNone(result.AliasBefore.WriteIndices))
	}
	fmt.Fprintf(&b, "\n## Validation\n\n")
	fmt.Fprintf(&b, "Overall: %s\n\n", passFail(result.Validation.Passed))
	for _, c := range result.Validation.Checks {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", c.Name, passFail(c.Passed), c.Detail)
	}
	fmt.Fprintf(&b, "\n%s is retained and can be restored via rollback.\n", plan.SourceIndex)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

func joinOrNone(indices []string) string {
	if len(indices) == 0 {
		return "(none)"
	}
	return strings.Join(indices, ", ")
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
