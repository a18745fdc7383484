package item

import (
	"fmt"
	"slices"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/tables"
)

// Cell is one grid position.
type Cell struct {
	X, Y int
}

// Filter selects items for bulk operations.
type Filter func(it *Item) bool

// All matches every item.
func All(*Item) bool { return true }

// ByCode matches items of the given type codes.
func ByCode(codes ...string) Filter {
	return func(it *Item) bool { return slices.Contains(codes, it.Code) }
}

// ByLocation matches items at the given location.
func ByLocation(loc Location) Filter {
	return func(it *Item) bool { return it.Location == loc }
}

// ByPanel matches stored items in the given panel.
func ByPanel(p Panel) Filter {
	return func(it *Item) bool { return it.Location == LocationStored && it.Panel == p }
}

// ByCategory matches items whose type belongs to category.
func ByCategory(tb *tables.Tables, category tables.Category) Filter {
	return func(it *Item) bool {
		t, ok := it.Type(tb)
		return ok && t.Category == category
	}
}

// GridSize returns the width and height of panel p for format version v.
func GridSize(p Panel, v format.Version) (int, int) {
	switch p {
	case PanelInventory:
		return 10, 4
	case PanelCube:
		return 3, 4
	case PanelStash:
		switch {
		case v.Remastered():
			return 10, 10
		case v >= format.V107:
			return 6, 8
		default:
			return 6, 4
		}
	default:
		return 0, 0
	}
}

// Collection owns the top-level items of one item list and the derived views
// over them.
//
// Views are rebuilt lazily after any mutation made through the collection.
// Slices returned by the view methods must not be kept across a mutating call.
// Callers that mutate an item in place must call Touch.
type Collection struct {
	ctx   Context
	items []*Item
	rev   uint64

	view struct {
		rev        uint64
		built      bool
		equipped   []*Item
		gps        []*Item
		stackables []*Item
		free       map[Panel][]Cell
	}
}

// NewCollection wraps items. The collection takes ownership of them.
func NewCollection(ctx Context, items []*Item) *Collection {
	return &Collection{ctx: ctx, items: items, rev: 1}
}

// Context returns the codec context of the collection.
func (c *Collection) Context() Context {
	return c.ctx
}

// Len returns the number of top-level items.
func (c *Collection) Len() int {
	return len(c.items)
}

// At returns the item at index i.
func (c *Collection) At(i int) *Item {
	return c.items[i]
}

// Items returns the top-level items in list order.
func (c *Collection) Items() []*Item {
	return slices.Clone(c.items)
}

// Revision returns a counter bumped by every mutation.
func (c *Collection) Revision() uint64 {
	return c.rev
}

// Touch records an in-place mutation of an owned item.
func (c *Collection) Touch() {
	c.rev++
}

// IndexOf returns the index of it, or -1.
func (c *Collection) IndexOf(it *Item) int {
	return slices.Index(c.items, it)
}

// Find returns the indices of items matching f.
func (c *Collection) Find(f Filter) []int {
	var out []int
	for i, it := range c.items {
		if f(it) {
			out = append(out, i)
		}
	}

	return out
}

// Add appends it at its current location. Stored items must fit their panel
// without overlapping another item.
func (c *Collection) Add(it *Item) error {
	if it.Location == LocationStored {
		w, h := it.Size(c.ctx.Tables)
		if !c.fits(it.Panel, int(it.Column), int(it.Row), w, h, nil) {
			return fmt.Errorf("%w: %s (%d,%d)", errs.ErrNoFreeSlot, it.Panel, it.Column, it.Row)
		}
	}

	c.items = append(c.items, it)
	c.rev++

	return nil
}

// Place stores it in the first free position of panel p and appends it.
func (c *Collection) Place(it *Item, p Panel) error {
	w, h := it.Size(c.ctx.Tables)
	cell, ok := c.FindSlot(p, w, h)
	if !ok {
		return fmt.Errorf("%w: %s has no room for %dx%d", errs.ErrNoFreeSlot, p, w, h)
	}

	it.Location = LocationStored
	it.EquipSlot = 0
	it.Panel = p
	it.Column = uint8(cell.X) //nolint:gosec
	it.Row = uint8(cell.Y)    //nolint:gosec
	c.items = append(c.items, it)
	c.rev++

	return nil
}

// Remove takes the item at index i out of the collection and returns it.
func (c *Collection) Remove(i int) (*Item, error) {
	if i < 0 || i >= len(c.items) {
		return nil, fmt.Errorf("%w: index %d", errs.ErrItemNotFound, i)
	}

	it := c.items[i]
	c.items = slices.Delete(c.items, i, i+1)
	c.rev++

	return it, nil
}

// Move stores the item at index i at (x, y) of panel p.
func (c *Collection) Move(i int, p Panel, x, y int) error {
	if i < 0 || i >= len(c.items) {
		return fmt.Errorf("%w: index %d", errs.ErrItemNotFound, i)
	}

	it := c.items[i]
	w, h := it.Size(c.ctx.Tables)
	if !c.fits(p, x, y, w, h, it) {
		return fmt.Errorf("%w: %s (%d,%d)", errs.ErrNoFreeSlot, p, x, y)
	}

	it.Location = LocationStored
	it.EquipSlot = 0
	it.Panel = p
	it.Column = uint8(x) //nolint:gosec
	it.Row = uint8(y)    //nolint:gosec
	c.rev++

	return nil
}

// Equipped returns the equipped items.
func (c *Collection) Equipped() []*Item {
	c.build()
	return c.view.equipped
}

// GPS returns the gems, potions and skulls.
func (c *Collection) GPS() []*Item {
	c.build()
	return c.view.gps
}

// Stackables returns the items carrying a quantity.
func (c *Collection) Stackables() []*Item {
	c.build()
	return c.view.stackables
}

// FreeCells returns the unoccupied cells of panel p in row-major order.
func (c *Collection) FreeCells(p Panel) []Cell {
	c.build()
	return c.view.free[p]
}

// FindSlot returns the first position of panel p where a w x h item fits.
func (c *Collection) FindSlot(p Panel, w, h int) (Cell, bool) {
	gw, gh := GridSize(p, c.ctx.Version)
	for y := 0; y+h <= gh; y++ {
		for x := 0; x+w <= gw; x++ {
			if c.fits(p, x, y, w, h, nil) {
				return Cell{x, y}, true
			}
		}
	}

	return Cell{}, false
}

// RepairAll repairs the items matching f and returns how many changed.
func (c *Collection) RepairAll(f Filter) int {
	return c.apply(f, func(it *Item) bool { return it.Repair() })
}

// UpgradeGPSAll upgrades the gems, potions and skulls matching f to their top
// tier and returns how many changed.
func (c *Collection) UpgradeGPSAll(f Filter) int {
	return c.apply(f, func(it *Item) bool { return it.UpgradeGPSFully(c.ctx) })
}

// FillStackables fills the stackable items matching f and returns how many changed.
func (c *Collection) FillStackables(f Filter) int {
	return c.apply(f, func(it *Item) bool { return it.FillQuantity(c.ctx) })
}

func (c *Collection) apply(f Filter, op func(*Item) bool) int {
	n := 0
	for _, it := range c.items {
		if f(it) && op(it) {
			n++
		}
	}

	if n > 0 {
		c.rev++
	}

	return n
}

func (c *Collection) occupancy(p Panel, skip *Item) [][]bool {
	gw, gh := GridSize(p, c.ctx.Version)
	grid := make([][]bool, gh)
	for y := range grid {
		grid[y] = make([]bool, gw)
	}

	for _, it := range c.items {
		if it == skip || it.Location != LocationStored || it.Panel != p {
			continue
		}

		w, h := it.Size(c.ctx.Tables)
		for y := int(it.Row); y < int(it.Row)+h && y < gh; y++ {
			for x := int(it.Column); x < int(it.Column)+w && x < gw; x++ {
				grid[y][x] = true
			}
		}
	}

	return grid
}

func (c *Collection) fits(p Panel, x, y, w, h int, skip *Item) bool {
	gw, gh := GridSize(p, c.ctx.Version)
	if x < 0 || y < 0 || x+w > gw || y+h > gh {
		return false
	}

	grid := c.occupancy(p, skip)
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			if grid[yy][xx] {
				return false
			}
		}
	}

	return true
}

func (c *Collection) build() {
	if c.view.built && c.view.rev == c.rev {
		return
	}

	c.view.equipped = nil
	c.view.gps = nil
	c.view.stackables = nil
	for _, it := range c.items {
		if it.Location == LocationEquipped {
			c.view.equipped = append(c.view.equipped, it)
		}

		t, ok := it.Type(c.ctx.Tables)
		if !ok {
			continue
		}

		if t.GPS() {
			c.view.gps = append(c.view.gps, it)
		}

		if t.HasQuantity() && it.Extended != nil {
			c.view.stackables = append(c.view.stackables, it)
		}
	}

	c.view.free = make(map[Panel][]Cell, 3)
	for _, p := range []Panel{PanelInventory, PanelCube, PanelStash} {
		grid := c.occupancy(p, nil)
		var cells []Cell
		for y, row := range grid {
			for x, used := range row {
				if !used {
					cells = append(cells, Cell{x, y})
				}
			}
		}
		c.view.free[p] = cells
	}

	c.view.rev = c.rev
	c.view.built = true
}
