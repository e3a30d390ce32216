package orchestrator

import (
	"context"
	"fmt"

	"github.com/antflydb/searchctl/internal/alias"
	"github.com/antflydb/searchctl/internal/engine"
)

// Rollback reverses a completed migration's alias switch, guarded so it
// only runs against the exact state a just-completed switch would have
// left behind.
type Rollback struct {
	aliasMgr *alias.Manager
}

// NewRollback constructs a Rollback service.
func NewRollback(port engine.Port) *Rollback {
	return &Rollback{aliasMgr: alias.New(port)}
}

// Revert switches aliasName back from targetIndex to sourceIndex, requiring
// that the alias currently resolves to exactly {targetIndex} for both reads
// and writes — refusing to act on an alias whose state doesn't match what a
// successful migration would have produced.
func (r *Rollback) Revert(ctx context.Context, aliasName, sourceIndex, targetIndex string) error {
	if err := r.aliasMgr.SwitchGuarded(ctx, aliasName, targetIndex, sourceIndex); err != nil {
		return fmt.Errorf("rolling back alias %q to %q: %w", aliasName, sourceIndex, err)
	}
	return nil
}
