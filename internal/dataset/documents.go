package dataset

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/antflydb/searchctl/internal/engine"
	"github.com/antflydb/searchctl/internal/jsonx"
)

// ValidateDocument enforces the Document construction invariants: title,
// body, category, and author must be non-empty, and popularityScore must
// be non-negative. Summary and tags may be empty.
func ValidateDocument(d engine.Document) error {
	if d.Title == "" {
		return fmt.Errorf("document %q: title must be non-empty", d.ID)
	}
	if d.Body == "" {
		return fmt.Errorf("document %q: body must be non-empty", d.ID)
	}
	if d.Category == "" {
		return fmt.Errorf("document %q: category must be non-empty", d.ID)
	}
	if d.Author == "" {
		return fmt.Errorf("document %q: author must be non-empty", d.ID)
	}
	if d.Popularity < 0 {
		return fmt.Errorf("document %q: popularityScore must be >= 0, got %v", d.ID, d.Popularity)
	}
	return nil
}

// NormalizeDocuments assigns a stable UUID to any document whose id is
// missing and returns the first validation error encountered, if any.
func NormalizeDocuments(docs []engine.Document) ([]engine.Document, error) {
	out := make([]engine.Document, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if err := ValidateDocument(d); err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// LoadDocuments reads a JSON array of documents from path, assigning ids
// where missing and validating every document's invariants.
func LoadDocuments(path string) ([]engine.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading documents file: %w", err)
	}
	var docs []engine.Document
	if err := jsonx.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parsing documents file: %w", err)
	}
	return NormalizeDocuments(docs)
}
