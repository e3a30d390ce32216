// Package alias manages the read/write alias that points at whichever
// concrete index is currently live, switching it atomically between a
// current and a target index.
package alias

import (
	"context"
	"fmt"
	"sort"

	"github.com/antflydb/searchctl/internal/apperr"
	"github.com/antflydb/searchctl/internal/engine"
)

// Manager switches an alias between concrete indices via a single atomic
// engine call.
type Manager struct {
	port engine.Port
}

// New constructs a Manager.
func New(port engine.Port) *Manager {
	return &Manager{port: port}
}

// CurrentState returns the alias's current read/write index sets.
func (m *Manager) CurrentState(ctx context.Context, aliasName string) (*engine.AliasState, error) {
	state, err := m.port.AliasState(ctx, aliasName)
	if err != nil {
		return nil, fmt.Errorf("reading alias state: %w", err)
	}
	return state, nil
}

// Switch atomically moves aliasName from currentIndex to targetIndex: it
// removes every index currently bound to aliasName's read or write sets
// (not just currentIndex, in case a prior migration left the alias bound to
// more than one index) and adds targetIndex to both, as a single engine
// transaction so readers never see the alias resolve to zero indices.
// AliasActionRemove clears an index from both the read and write sets in
// one step, so one remove per stale index plus one write-index add covers
// the whole move without a separate per-scope action type.
func (m *Manager) Switch(ctx context.Context, aliasName, currentIndex, targetIndex string) error {
	state, err := m.CurrentState(ctx, aliasName)
	if err != nil {
		return err
	}

	stale := map[string]struct{}{currentIndex: {}}
	for _, idx := range state.ReadIndices {
		stale[idx] = struct{}{}
	}
	for _, idx := range state.WriteIndices {
		stale[idx] = struct{}{}
	}
	delete(stale, targetIndex)

	staleIndices := make([]string, 0, len(stale))
	for idx := range stale {
		staleIndices = append(staleIndices, idx)
	}
	sort.Strings(staleIndices)

	actions := make([]engine.AliasAction, 0, len(staleIndices)+1)
	for _, idx := range staleIndices {
		actions = append(actions, engine.AliasAction{Type: engine.AliasActionRemove, Alias: aliasName, Index: idx})
	}
	actions = append(actions, engine.AliasAction{Type: engine.AliasActionAdd, Alias: aliasName, Index: targetIndex, IsWriteIndex: true})

	if err := m.port.UpdateAliases(ctx, actions); err != nil {
		return fmt.Errorf("switching alias %q from %q to %q: %w", aliasName, currentIndex, targetIndex, err)
	}
	return nil
}

// SwitchGuarded behaves like Switch but first requires that aliasName's
// current read AND write index sets are exactly {currentIndex} — guarding
// against switching an alias that is mid-migration or already pointed
// elsewhere. Used by the rollback service, where switching the wrong alias
// state would strand both indices.
func (m *Manager) SwitchGuarded(ctx context.Context, aliasName, currentIndex, targetIndex string) error {
	state, err := m.CurrentState(ctx, aliasName)
	if err != nil {
		return err
	}
	if !isExactlyOne(state.ReadIndices, currentIndex) || !isExactlyOne(state.WriteIndices, currentIndex) {
		return apperr.New(apperr.Conflict,
			"alias %q is not exclusively pointed at %q (read=%v write=%v)",
			aliasName, currentIndex, state.ReadIndices, state.WriteIndices)
	}
	return m.Switch(ctx, aliasName, currentIndex, targetIndex)
}

func isExactlyOne(indices []string, want string) bool {
	return len(indices) == 1 && indices[0] == want
}
