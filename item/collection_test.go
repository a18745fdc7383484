package item

import (
	"testing"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/tables"
	"github.com/stretchr/testify/require"
)

func TestGridSize(t *testing.T) {
	tests := []struct {
		panel Panel
		v     format.Version
		w, h  int
	}{
		{PanelInventory, format.V110, 10, 4},
		{PanelCube, format.VR24, 3, 4},
		{PanelStash, format.V100, 6, 4},
		{PanelStash, format.V110, 6, 8},
		{PanelStash, format.VR20, 10, 10},
		{PanelNone, format.V110, 0, 0},
	}
	for _, tt := range tests {
		w, h := GridSize(tt.panel, tt.v)
		require.Equal(t, tt.w, w, "%s %s", tt.panel, tt.v)
		require.Equal(t, tt.h, h, "%s %s", tt.panel, tt.v)
	}
}

func TestCollection_Placement(t *testing.T) {
	ctx := NewContext(format.V110)
	c := NewCollection(ctx, nil)

	helm := mustNew(t, "cap", ctx)
	require.NoError(t, c.Place(helm, PanelInventory))
	require.Equal(t, Cell{0, 0}, Cell{int(helm.Column), int(helm.Row)})

	gem := mustNew(t, "gcv", ctx)
	require.NoError(t, c.Place(gem, PanelInventory))
	require.Equal(t, Cell{2, 0}, Cell{int(gem.Column), int(gem.Row)})

	require.Len(t, c.FreeCells(PanelInventory), 40-4-1)
	require.Len(t, c.FreeCells(PanelCube), 12)

	overlap := mustNew(t, "rin", ctx)
	overlap.Column, overlap.Row = 1, 1
	require.ErrorIs(t, c.Add(overlap), errs.ErrNoFreeSlot)

	require.ErrorIs(t, c.Move(1, PanelInventory, 1, 0), errs.ErrNoFreeSlot)
	require.ErrorIs(t, c.Move(1, PanelInventory, 10, 0), errs.ErrNoFreeSlot)
	require.NoError(t, c.Move(1, PanelCube, 2, 3))
	require.Equal(t, PanelCube, gem.Panel)
	require.Len(t, c.FreeCells(PanelInventory), 40-4)
	require.Len(t, c.FreeCells(PanelCube), 11)

	// a helm may move onto the cells it already covers
	require.NoError(t, c.Move(0, PanelInventory, 1, 0))

	removed, err := c.Remove(0)
	require.NoError(t, err)
	require.Same(t, helm, removed)
	require.Equal(t, 1, c.Len())
	require.Len(t, c.FreeCells(PanelInventory), 40)

	_, err = c.Remove(3)
	require.ErrorIs(t, err, errs.ErrItemNotFound)
	require.ErrorIs(t, c.Move(-1, PanelCube, 0, 0), errs.ErrItemNotFound)
}

func TestCollection_FullPanel(t *testing.T) {
	ctx := NewContext(format.V110)
	c := NewCollection(ctx, nil)

	for i := 0; i < 12; i++ {
		require.NoError(t, c.Place(mustNew(t, "gcv", ctx), PanelCube))
	}

	_, ok := c.FindSlot(PanelCube, 1, 1)
	require.False(t, ok)
	require.ErrorIs(t, c.Place(mustNew(t, "gcv", ctx), PanelCube), errs.ErrNoFreeSlot)
	require.Empty(t, c.FreeCells(PanelCube))
}

func TestCollection_ViewsFollowMutations(t *testing.T) {
	ctx := NewContext(format.VR24)
	c := NewCollection(ctx, nil)

	require.NoError(t, c.Place(mustNew(t, "gcv", ctx), PanelInventory))
	require.NoError(t, c.Place(mustNew(t, "jav", ctx), PanelInventory))
	require.Len(t, c.GPS(), 1)
	require.Len(t, c.Stackables(), 1)
	require.Empty(t, c.Equipped())

	rev := c.Revision()
	require.NoError(t, c.Place(mustNew(t, "skz", ctx), PanelInventory))
	require.Greater(t, c.Revision(), rev)
	require.Len(t, c.GPS(), 2)

	ring := mustNew(t, "rin", ctx)
	ring.Location = LocationEquipped
	ring.EquipSlot = 6
	ring.Panel = PanelNone
	require.NoError(t, c.Add(ring))
	require.Equal(t, []*Item{ring}, c.Equipped())

	ring.Location = LocationStored
	ring.Panel = PanelInventory
	ring.Column, ring.Row = 9, 3
	c.Touch()
	require.Empty(t, c.Equipped())

	require.Equal(t, []int{0}, c.Find(ByCategory(ctx.Tables, tables.CategoryGem)))
	require.Equal(t, []int{3}, c.Find(ByCode("rin")))
	require.Equal(t, 3, c.IndexOf(ring))
	require.Equal(t, -1, c.IndexOf(mustNew(t, "rin", ctx)))
}

func TestCollection_BulkOperations(t *testing.T) {
	ctx := NewContext(format.V110)
	sword := mustNew(t, "flb", ctx)
	sword.Extended.Durability = 10
	jav := mustNew(t, "jav", ctx)
	jav.Extended.Quantity = 1
	gem := mustNew(t, "gcv", ctx)
	gem.Column = 5

	c := NewCollection(ctx, []*Item{sword, jav, gem})

	require.Equal(t, 1, c.RepairAll(All))
	require.Equal(t, 50, sword.Extended.Durability)
	require.Zero(t, c.RepairAll(All))

	rev := c.Revision()
	require.Zero(t, c.RepairAll(All))
	require.Equal(t, rev, c.Revision())

	require.Zero(t, c.FillStackables(ByCode("flb")))
	require.Equal(t, 1, c.FillStackables(All))
	require.Equal(t, 60, jav.Extended.Quantity)
	require.Zero(t, c.FillStackables(All))

	require.Zero(t, c.UpgradeGPSAll(ByLocation(LocationBelt)))
	require.Equal(t, 1, c.UpgradeGPSAll(ByPanel(PanelInventory)))
	require.Equal(t, "gpv", gem.Code)

	rev = c.Revision()
	require.Zero(t, c.UpgradeGPSAll(All))
	require.Equal(t, rev, c.Revision())
}
