package item

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/d2s/format"
)

func TestDuplicateIDs(t *testing.T) {
	ctx := NewContext(format.VR24)

	a := mustNew(t, "cap", ctx)
	b := mustNew(t, "cap", ctx)
	c := mustNew(t, "cap", ctx)
	a.Extended.ID = 7
	b.Extended.ID = 8
	c.Extended.ID = 7

	require.Equal(t, []*Item{c}, DuplicateIDs([]*Item{a, b, c}))

	// Duplicates across lists and inside sockets count too.
	child := *mustNew(t, "cap", ctx)
	child.Extended.ID = 8
	merc := mustNew(t, "cap", ctx)
	merc.Extended.ID = 9
	merc.Socketed = []Item{child}

	dupes := DuplicateIDs([]*Item{a, b, c}, []*Item{merc})
	require.Len(t, dupes, 2)
	require.Same(t, c, dupes[0])
	require.Same(t, &merc.Socketed[0], dupes[1])

	require.Empty(t, DuplicateIDs([]*Item{a, b}))
	require.Empty(t, DuplicateIDs())
}

func TestFixDuplicateIDs(t *testing.T) {
	ctx := NewContext(format.VR24)

	items := make([]*Item, 4)
	for i := range items {
		items[i] = mustNew(t, "cap", ctx)
		items[i].Extended.ID = 42
	}

	require.Equal(t, 3, FixDuplicateIDs(items))
	require.Equal(t, uint32(42), items[0].Extended.ID)
	require.Empty(t, DuplicateIDs(items))
	require.Zero(t, FixDuplicateIDs(items))
}
