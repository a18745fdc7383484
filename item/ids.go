package item

import "github.com/arloliu/d2s/internal/collision"

// walk visits every item of lists that carries an id, socketed children
// after their parent, numbering them in visit order.
func walk(lists [][]*Item, fn func(it *Item, index int)) {
	index := 0
	visit := func(it *Item) {
		if it.Extended != nil {
			fn(it, index)
			index++
		}
	}

	for _, items := range lists {
		for _, it := range items {
			visit(it)
			for i := range it.Socketed {
				visit(&it.Socketed[i])
			}
		}
	}
}

// DuplicateIDs returns the items whose id was already used by an earlier
// item of lists. The game treats such items as duplicates and removes them.
func DuplicateIDs(lists ...[]*Item) []*Item {
	tracker := collision.NewTracker()

	var dupes []*Item
	walk(lists, func(it *Item, index int) {
		if !tracker.Track(it.Extended.ID, index) {
			dupes = append(dupes, it)
		}
	})

	return dupes
}

// FixDuplicateIDs gives every duplicate found by DuplicateIDs a random id
// that no item of lists uses. It returns how many items changed.
func FixDuplicateIDs(lists ...[]*Item) int {
	dupes := DuplicateIDs(lists...)
	if len(dupes) == 0 {
		return 0
	}

	used := collision.NewTracker()
	walk(lists, func(it *Item, index int) {
		used.Track(it.Extended.ID, index)
	})

	for _, it := range dupes {
		it.RandomizeID()
		for used.Used(it.Extended.ID) {
			it.RandomizeID()
		}
		used.Track(it.Extended.ID, used.Count())
	}

	return len(dupes)
}
