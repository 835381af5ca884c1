package views

import (
	"slices"

	"casa/internal/core"
)

// PartitionChores splits chores into incomplete (input order) and complete
// ones, the latter sorted by due date with the latest first.
func PartitionChores(chores []core.Chore) (incomplete, complete []core.Chore) {
	incomplete = make([]core.Chore, 0, len(chores))
	complete = make([]core.Chore, 0)
	for _, c := range chores {
		if c.Completed {
			complete = append(complete, c)
		} else {
			incomplete = append(incomplete, c)
		}
	}
	slices.SortStableFunc(complete, func(a, b core.Chore) int {
		return b.DueDate.Compare(a.DueDate)
	})
	return incomplete, complete
}

// PartitionShopping splits items by completion, keeping insertion order.
func PartitionShopping(items []core.ShoppingItem) (pending, done []core.ShoppingItem) {
	pending = make([]core.ShoppingItem, 0, len(items))
	done = make([]core.ShoppingItem, 0)
	for _, it := range items {
		if it.Completed {
			done = append(done, it)
		} else {
			pending = append(pending, it)
		}
	}
	return pending, done
}

// Shelves groups items into rows of at most capacity. There is always at
// least one shelf, even for an empty list.
func Shelves(items []core.ShoppingItem, capacity int) [][]core.ShoppingItem {
	if capacity < 1 {
		capacity = 1
	}
	if len(items) == 0 {
		return [][]core.ShoppingItem{{}}
	}
	out := make([][]core.ShoppingItem, 0, (len(items)+capacity-1)/capacity)
	for start := 0; start < len(items); start += capacity {
		end := min(start+capacity, len(items))
		out = append(out, slices.Clone(items[start:end]))
	}
	return out
}

// ShelfCapacity picks how many items fit on a shelf for a viewport width.
func ShelfCapacity(widthPx int) int {
	switch {
	case widthPx < 640:
		return 2
	case widthPx < 1024:
		return 3
	default:
		return 4
	}
}
