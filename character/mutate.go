package character

import (
	"fmt"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/item"
	"github.com/arloliu/d2s/statblock"
)

func (c *Character) mutable() error {
	if !c.state.decoded() {
		return errs.ErrNotParsed
	}

	return nil
}

func (c *Character) touch() {
	c.state = StateModified
}

// SetLevel moves the character to level. Experience is set to the level
// threshold, the unspent stat and skill pools gain or lose the points of the
// levels crossed, and life, mana and stamina are recomputed for the class.
func (c *Character) SetLevel(level int) error {
	if err := c.mutable(); err != nil {
		return err
	}

	cls, err := c.Class()
	if err != nil {
		return err
	}

	if err := c.stats.SetLevel(c.cfg.tables, level); err != nil {
		return err
	}

	if err := c.stats.RecomputePools(cls); err != nil {
		return err
	}
	c.header.SetLevel(uint8(level)) //nolint:gosec
	c.touch()

	return nil
}

// LevelUp raises the character by one level.
func (c *Character) LevelUp() error {
	if err := c.mutable(); err != nil {
		return err
	}

	return c.SetLevel(c.stats.Level() + 1)
}

// ResetStats returns the attributes to the class base and refunds the spent
// points. It returns the number of refunded points.
func (c *Character) ResetStats() (int, error) {
	if err := c.mutable(); err != nil {
		return 0, err
	}

	cls, err := c.Class()
	if err != nil {
		return 0, err
	}

	n, err := c.stats.ResetAttributes(cls)
	if err != nil {
		return 0, err
	}
	c.touch()

	return n, nil
}

// ResetSkills clears every skill and refunds the spent points. It returns the
// number of refunded points.
func (c *Character) ResetSkills() (int, error) {
	if err := c.mutable(); err != nil {
		return 0, err
	}

	n, err := c.stats.ResetSkills()
	if err != nil {
		return 0, err
	}

	if n > 0 {
		c.touch()
	}

	return n, nil
}

// SetName renames the character. Saving under the new name is up to the
// caller; the game expects the file name to match.
func (c *Character) SetName(name string) error {
	if err := c.mutable(); err != nil {
		return err
	}

	if err := c.header.SetName(name); err != nil {
		return err
	}
	c.touch()

	return nil
}

// SetGold sets the gold carried by the character.
//
// Returns:
//   - error: errs.ErrValueOverflow above statblock.GoldLimit for the level
func (c *Character) SetGold(gold uint32) error {
	return c.setGold(statblock.Gold, gold, statblock.GoldLimit(c.Level()))
}

// SetStashGold sets the gold kept in the personal stash.
func (c *Character) SetStashGold(gold uint32) error {
	return c.setGold(statblock.StashGold, gold, statblock.StashGoldLimit)
}

func (c *Character) setGold(counter statblock.Counter, gold, limit uint32) error {
	if err := c.mutable(); err != nil {
		return err
	}

	if gold > limit {
		return fmt.Errorf("%w: %s %d exceeds %d", errs.ErrValueOverflow, counter, gold, limit)
	}

	if gold == 0 {
		c.stats.Clear(counter)
	} else if err := c.stats.Set(counter, gold); err != nil {
		return err
	}
	c.touch()

	return nil
}

// AddItem stores it in the first free position of panel p of the main list.
func (c *Character) AddItem(it *item.Item, p item.Panel) error {
	if err := c.mutable(); err != nil {
		return err
	}

	if err := c.items.Place(it, p); err != nil {
		return err
	}
	c.touch()

	return nil
}

// MoveItem moves the main list item at index i to (x, y) of panel p.
func (c *Character) MoveItem(i int, p item.Panel, x, y int) error {
	if err := c.mutable(); err != nil {
		return err
	}

	if err := c.items.Move(i, p, x, y); err != nil {
		return err
	}
	c.touch()

	return nil
}

// RemoveItem removes the main list item at index i and returns it.
func (c *Character) RemoveItem(i int) (*item.Item, error) {
	if err := c.mutable(); err != nil {
		return nil, err
	}

	it, err := c.items.Remove(i)
	if err != nil {
		return nil, err
	}
	c.touch()

	return it, nil
}

// RepairAll repairs the matching items of the character and of the
// mercenary. It returns how many items changed.
func (c *Character) RepairAll(f item.Filter) int {
	return c.bulk(func(coll *item.Collection) int { return coll.RepairAll(f) })
}

// UpgradeGPSAll upgrades the matching gems, potions and skulls to their top tier.
// It returns how many items changed.
func (c *Character) UpgradeGPSAll(f item.Filter) int {
	return c.bulk(func(coll *item.Collection) int { return coll.UpgradeGPSAll(f) })
}

// FillStackables fills the matching stackable items. It returns how many
// items changed.
func (c *Character) FillStackables(f item.Filter) int {
	return c.bulk(func(coll *item.Collection) int { return coll.FillStackables(f) })
}

func (c *Character) bulk(op func(*item.Collection) int) int {
	if c.mutable() != nil {
		return 0
	}

	n := op(c.items)
	if c.merc != nil {
		n += op(c.merc)
	}

	if n > 0 {
		c.touch()
	}

	return n
}

func (c *Character) collections() []*item.Collection {
	colls := []*item.Collection{c.items}
	if c.merc != nil {
		colls = append(colls, c.merc)
	}

	for _, corpse := range c.corpses {
		colls = append(colls, corpse.Items)
	}

	return colls
}

func (c *Character) itemLists() [][]*item.Item {
	var lists [][]*item.Item
	for _, coll := range c.collections() {
		lists = append(lists, coll.Items())
	}

	if c.golem != nil {
		lists = append(lists, []*item.Item{c.golem})
	}

	return lists
}

// DuplicateItemIDs returns the items sharing their id with an earlier item of
// the character, its corpses, mercenary or golem.
func (c *Character) DuplicateItemIDs() []*item.Item {
	if c.mutable() != nil {
		return nil
	}

	return item.DuplicateIDs(c.itemLists()...)
}

// FixDuplicateItemIDs gives every duplicate a fresh id. It returns how many
// items changed.
func (c *Character) FixDuplicateItemIDs() int {
	if c.mutable() != nil {
		return 0
	}

	n := item.FixDuplicateIDs(c.itemLists()...)
	if n > 0 {
		for _, coll := range c.collections() {
			coll.Touch()
		}
		c.touch()
	}

	return n
}
