// Package collision tracks 32-bit item ids and reports the ones used more
// than once.
package collision

// Duplicate is an id seen again after its first use.
type Duplicate struct {
	ID    uint32
	First int // index of the first item with ID
	Index int // index of the repeat
}

// Tracker records item ids in visit order. The zero value is not usable;
// call NewTracker.
type Tracker struct {
	seen  map[uint32]int // id → index of the first item using it
	dupes []Duplicate
	count int
}

// NewTracker creates a new id tracker.
func NewTracker() *Tracker {
	return &Tracker{
		seen:  make(map[uint32]int),
		dupes: make([]Duplicate, 0),
	}
}

// Track records id for the item at index. It reports whether the id was new.
func (t *Tracker) Track(id uint32, index int) bool {
	t.count++
	if first, exists := t.seen[id]; exists {
		t.dupes = append(t.dupes, Duplicate{ID: id, First: first, Index: index})
		return false
	}
	t.seen[id] = index

	return true
}

// Used reports whether id was tracked.
func (t *Tracker) Used(id uint32) bool {
	_, ok := t.seen[id]
	return ok
}

// HasDuplicates returns true if any id was tracked twice.
func (t *Tracker) HasDuplicates() bool {
	return len(t.dupes) > 0
}

// Duplicates returns the repeats in the order they were tracked.
func (t *Tracker) Duplicates() []Duplicate {
	return t.dupes
}

// Count returns the number of Track calls.
func (t *Tracker) Count() int {
	return t.count
}

// Reset clears all tracked ids.
func (t *Tracker) Reset() {
	for k := range t.seen {
		delete(t.seen, k)
	}
	t.dupes = t.dupes[:0]
	t.count = 0
}
