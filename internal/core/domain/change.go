package domain

import "time"

// ChangeBatch is a coalesced set of filesystem events collected during
// one debounce window.
type ChangeBatch struct {
	// Added holds paths created during the window.
	Added []string

	// Modified holds paths written during the window.
	Modified []string

	// Removed holds paths deleted during the window.
	Removed []string

	// WindowStart is when the first event of the window arrived.
	WindowStart time.Time

	// WindowEnd is when the debounce timer elapsed.
	WindowEnd time.Time
}

// Empty reports whether the batch carries no paths.
func (b *ChangeBatch) Empty() bool {
	return len(b.Added) == 0 && len(b.Modified) == 0 && len(b.Removed) == 0
}

// Paths returns every added and modified path in the batch, deduplicated.
// Removed paths are excluded: there is nothing on disk to sanitize or stage.
func (b *ChangeBatch) Paths() []string {
	seen := make(map[string]struct{}, len(b.Added)+len(b.Modified))
	var paths []string
	for _, set := range [][]string{b.Added, b.Modified} {
		for _, p := range set {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}
	return paths
}

// Merge folds other into b, extending the window. Used to coalesce a
// trigger that arrives while a sync session is active into the next
// session.
func (b *ChangeBatch) Merge(other *ChangeBatch) {
	b.Added = mergePaths(b.Added, other.Added)
	b.Modified = mergePaths(b.Modified, other.Modified)
	b.Removed = mergePaths(b.Removed, other.Removed)
	if b.WindowStart.IsZero() || other.WindowStart.Before(b.WindowStart) {
		b.WindowStart = other.WindowStart
	}
	if other.WindowEnd.After(b.WindowEnd) {
		b.WindowEnd = other.WindowEnd
	}
}

// mergePaths appends the members of b not already present in a.
func mergePaths(a, b []string) []string {
	seen := make(map[string]struct{}, len(a))
	for _, p := range a {
		seen[p] = struct{}{}
	}
	for _, p := range b {
		if _, ok := seen[p]; !ok {
			a = append(a, p)
		}
	}
	return a
}
