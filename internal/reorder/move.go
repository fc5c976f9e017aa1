package reorder

import "github.com/starford/curator/internal/models"

// Move returns a copy of items with the element at from removed and
// re-inserted at to. Elements between the two indices shift by one to close
// the gap: moving 2 to 0 in [a b c d] gives [c a b d]. Invalid indices
// return an unchanged copy.
func Move[T any](items []T, from, to int) []T {
	out := make([]T, len(items))
	copy(out, items)
	if from == to || from < 0 || to < 0 || from >= len(items) || to >= len(items) {
		return out
	}
	v := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = v
	return out
}

// renumber sets 1-based positions to match slice order.
func renumber(items []models.OrderedItem) []models.OrderedItem {
	for i := range items {
		items[i].Position = i + 1
	}
	return items
}

func sameOrder(a, b []models.OrderedItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
