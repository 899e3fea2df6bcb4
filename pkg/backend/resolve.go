package backend

import (
	"fmt"
	"log/slog"
)

const resolveLogPrefix = "backend:resolve"

// Resolve finds the single best implementation of role for entityType.
//
// The local entries are searched first. For each entry the replaced-by
// set is resolved recursively, so replacement is transitive and
// diamond-safe: an available replacement substitutes for its target, and
// a target whose replacements are all unavailable stands in again for
// itself. An entry (original or substitute) is a candidate when its
// implementation is available, role-compatible and applicable to
// entityType. Exactly one local candidate wins; more than one is an
// *AmbiguityError; none at all delegates to the parent chain.
//
// A miss across the whole chain returns (nil, false, nil) — not found is
// an expected outcome, not an error.
func (b *Backend) Resolve(role Role, entityType string) (Capability, bool, error) {
	b.mu.RLock()
	candidates := b.localCandidates(role, entityType)
	b.mu.RUnlock()

	switch len(candidates) {
	case 0:
		if b.parent != nil {
			return b.parent.Resolve(role, entityType)
		}
		return nil, false, nil
	case 1:
		return candidates[0].impl, true, nil
	default:
		slog.Warn(fmt.Sprintf("%s - %d candidates for role %q entity %q on %s",
			resolveLogPrefix, len(candidates), string(role), entityType, b))
		err := &AmbiguityError{
			Backend:    b.String(),
			Role:       role,
			EntityType: entityType,
			Count:      len(candidates),
		}
		for _, c := range candidates {
			err.Candidates = append(err.Candidates, c.impl)
		}
		return nil, false, err
	}
}

// localCandidates collects the candidate set across all local entries,
// collapsing duplicates by identity. Callers hold b.mu for reading.
func (b *Backend) localCandidates(role Role, entityType string) []*entry {
	var out []*entry
	dedup := make(map[*entry]struct{})
	for _, e := range b.entries {
		for _, c := range b.expand(e, role, entityType, make(map[*entry]struct{})) {
			if _, ok := dedup[c]; ok {
				continue
			}
			dedup[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// expand resolves the replaced-by set of e first; when that yields
// candidates they substitute for e, otherwise e stands for itself if it
// matches. seen guards against replacement cycles, which a defective
// topology can still declare; it tracks the current path only, so a
// shared replacement reached through sibling branches still substitutes
// on every branch.
func (b *Backend) expand(e *entry, role Role, entityType string, seen map[*entry]struct{}) []*entry {
	if _, ok := seen[e]; ok {
		return nil
	}
	seen[e] = struct{}{}
	defer delete(seen, e)

	var substitutes []*entry
	for _, rep := range e.replacedBy {
		substitutes = append(substitutes, b.expand(rep, role, entityType, seen)...)
	}
	if len(substitutes) > 0 {
		return substitutes
	}
	if b.matches(e.impl, role, entityType) {
		return []*entry{e}
	}
	return nil
}

// matches applies the candidate predicate: available, role-compatible,
// applicable to the entity type.
func (b *Backend) matches(impl Capability, role Role, entityType string) bool {
	return b.index.avail.IsAvailable(impl.Origin()) &&
		impl.CompatibleWith(role) &&
		impl.AppliesTo(entityType)
}
