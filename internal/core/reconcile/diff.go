// Package reconcile computes the identity diff between the last loaded remote
// snapshot and a locally edited working set.
//
// The diff is by id only. An entity whose id appears in both snapshots is never
// re-sent, even if its fields were edited in place; callers that want an edit
// persisted must re-key the entity so it shows up as one delete and one create.
package reconcile

// Plan lists the remote calls a commit needs.
// Creates keep the order of the current snapshot, Deletes the order of the original.
type Plan[T any] struct {
	Creates []T
	Deletes []T
	Skipped []T
}

// Empty reports whether the plan issues no calls and skips nothing.
func (p Plan[T]) Empty() bool {
	return len(p.Creates) == 0 && len(p.Deletes) == 0 && len(p.Skipped) == 0
}

// Diff computes added = ids(current) − ids(original) and
// removed = ids(original) − ids(current). Duplicate ids within one snapshot
// are collapsed to their first occurrence.
func Diff[T any](original, current []T, id func(T) string) Plan[T] {
	originalIDs := make(map[string]struct{}, len(original))
	for _, item := range original {
		originalIDs[id(item)] = struct{}{}
	}
	currentIDs := make(map[string]struct{}, len(current))
	for _, item := range current {
		currentIDs[id(item)] = struct{}{}
	}

	var plan Plan[T]
	seen := make(map[string]struct{}, len(current))
	for _, item := range current {
		key := id(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := originalIDs[key]; !ok {
			plan.Creates = append(plan.Creates, item)
		}
	}

	seen = make(map[string]struct{}, len(original))
	for _, item := range original {
		key := id(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := currentIDs[key]; !ok {
			plan.Deletes = append(plan.Deletes, item)
		}
	}

	return plan
}

// HoldBack moves creates that fail publishable into Skipped.
// Deletes are never held back.
func HoldBack[T any](plan Plan[T], publishable func(T) bool) Plan[T] {
	out := Plan[T]{Deletes: plan.Deletes, Skipped: plan.Skipped}
	for _, item := range plan.Creates {
		if publishable(item) {
			out.Creates = append(out.Creates, item)
		} else {
			out.Skipped = append(out.Skipped, item)
		}
	}
	return out
}
