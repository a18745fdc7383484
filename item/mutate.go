package item

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/property"
	"github.com/arloliu/d2s/tables"
)

// AddSocket opens one more socket, up to the type's maximum.
func (it *Item) AddSocket(ctx Context) error {
	total := 0
	if it.Extended != nil && it.Flags.Has(FlagSocketed) {
		total = it.Extended.TotalSockets
	}

	return it.SetSockets(ctx, total+1)
}

// SetSockets sets the number of open sockets. Filled sockets cannot be removed
// this way; use RemoveSocketed first.
func (it *Item) SetSockets(ctx Context, n int) error {
	typ, err := it.socketable(ctx)
	if err != nil {
		return err
	}

	if n > typ.MaxSockets {
		return fmt.Errorf("%w: %q holds at most %d", errs.ErrTooManySockets, it.Code, typ.MaxSockets)
	}

	if n < len(it.Socketed) {
		return fmt.Errorf("%w: %d sockets are filled", errs.ErrSocketsFull, len(it.Socketed))
	}

	if n < 0 {
		n = 0
	}

	it.Flags = it.Flags.With(FlagSocketed, n > 0)
	it.Extended.TotalSockets = n
	it.invalidate()

	return nil
}

func (it *Item) socketable(ctx Context) (tables.ItemType, error) {
	typ, ok := it.Type(ctx.Tables)
	if !ok || it.Simple() || it.Extended == nil || typ.MaxSockets == 0 {
		return typ, fmt.Errorf("%w: %q", errs.ErrNotSocketable, it.Code)
	}

	return typ, nil
}

// InsertSocketed places child into the next free socket.
func (it *Item) InsertSocketed(ctx Context, child *Item) error {
	if _, err := it.socketable(ctx); err != nil {
		return err
	}

	if !it.Flags.Has(FlagSocketed) || len(it.Socketed) >= it.Extended.TotalSockets {
		return fmt.Errorf("%w: %q", errs.ErrSocketsFull, it.Code)
	}

	if len(child.Socketed) > 0 {
		return fmt.Errorf("%w: %q has socketed items of its own", errs.ErrNotSocketable, child.Code)
	}

	c := child.Clone()
	c.Location = LocationSocket
	c.EquipSlot = 0
	c.Column = uint8(len(it.Socketed)) //nolint:gosec
	c.Row = 0
	c.Panel = PanelNone
	it.Socketed = append(it.Socketed, *c)
	it.invalidate()

	return nil
}

// RemoveSocketed takes the item out of socket i and returns it, ready to be
// placed by the caller.
func (it *Item) RemoveSocketed(i int) (*Item, error) {
	if i < 0 || i >= len(it.Socketed) {
		return nil, fmt.Errorf("%w: socket %d of %q", errs.ErrItemNotFound, i, it.Code)
	}

	if it.Runeword() {
		return nil, fmt.Errorf("%w: %q is a runeword", errs.ErrAlreadyRuneword, it.Code)
	}

	removed := it.Socketed[i]
	it.Socketed = slices.Delete(it.Socketed, i, i+1)
	if len(it.Socketed) == 0 {
		it.Socketed = nil
	}

	for j := range it.Socketed {
		it.Socketed[j].Column = uint8(j) //nolint:gosec
	}

	removed.Location = LocationCursor
	removed.Column = 0
	removed.invalidate()
	it.invalidate()

	return &removed, nil
}

// MakeEthereal sets the ethereal flag. It reports whether the item changed.
func (it *Item) MakeEthereal() bool {
	if it.Ethereal() || it.Simple() {
		return false
	}
	it.Flags |= FlagEthereal
	it.invalidate()

	return true
}

// UpgradeGPS replaces a gem, potion or skull with its next tier.
func (it *Item) UpgradeGPS(ctx Context) error {
	typ, ok := it.Type(ctx.Tables)
	if !ok || !typ.GPS() || typ.Upgrade == "" {
		return fmt.Errorf("%w: %q", errs.ErrNotUpgradable, it.Code)
	}

	if _, ok := ctx.Tables.ItemType(typ.Upgrade); !ok {
		return fmt.Errorf("%w: upgrade %q of %q", errs.ErrUnknownItemType, typ.Upgrade, it.Code)
	}

	it.Code = typ.Upgrade
	it.rawCode = ""
	it.invalidate()

	return nil
}

// UpgradeGPSFully upgrades a gem, potion or skull to its top tier and
// reports whether the code changed.
func (it *Item) UpgradeGPSFully(ctx Context) bool {
	changed := false
	for range len(ctx.Tables.ItemTypes()) {
		if it.UpgradeGPS(ctx) != nil {
			break
		}
		changed = true
	}

	return changed
}

// ApplyRuneword turns a fully socketed normal or superior item into the
// runeword its socketed runes spell.
func (it *Item) ApplyRuneword(ctx Context) (tables.Runeword, error) {
	typ, err := it.socketable(ctx)
	if err != nil {
		return tables.Runeword{}, err
	}

	if it.Runeword() {
		return tables.Runeword{}, fmt.Errorf("%w: %q", errs.ErrAlreadyRuneword, it.Code)
	}

	ext := it.Extended
	if ext.Quality != QualityNormal && ext.Quality != QualitySuperior {
		return tables.Runeword{}, fmt.Errorf("%w: %s items cannot hold runewords", errs.ErrRunewordMismatch, ext.Quality)
	}

	if len(it.Socketed) == 0 || len(it.Socketed) != ext.TotalSockets {
		return tables.Runeword{}, fmt.Errorf("%w: %d of %d sockets filled", errs.ErrRunewordMismatch, len(it.Socketed), ext.TotalSockets)
	}

	runes := make([]string, len(it.Socketed))
	for i := range it.Socketed {
		runes[i] = it.Socketed[i].Code
	}

	rw, ok := ctx.Tables.RunewordByRunes(runes)
	if !ok {
		return tables.Runeword{}, fmt.Errorf("%w: runes %v", errs.ErrRunewordMismatch, runes)
	}

	if len(rw.Kinds) > 0 && !slices.Contains(rw.Kinds, typ.Kind().String()) {
		return tables.Runeword{}, fmt.Errorf("%w: %s does not fit %s items", errs.ErrRunewordMismatch, rw.Name, typ.Kind())
	}

	props, err := property.FromValues(ctx.Tables, rw.Properties)
	if err != nil {
		return tables.Runeword{}, err
	}

	it.Flags |= FlagRuneword
	ext.RunewordID = rw.ID
	ext.RunewordExtra = 0
	ext.RunewordProperties = props
	it.invalidate()

	return rw, nil
}

// Personalize sets the personalized name.
func (it *Item) Personalize(ctx Context, name string) error {
	if it.Extended == nil {
		return fmt.Errorf("%w: simple items cannot be personalized", errs.ErrInvalidName)
	}

	if len(name) == 0 {
		return fmt.Errorf("%w: empty name", errs.ErrInvalidName)
	}

	if len(name) > maxNameLen {
		return fmt.Errorf("%w: %q", errs.ErrNameTooLong, name)
	}

	if layoutFor(ctx.Version).nameCharBits < 8 {
		for i := 0; i < len(name); i++ {
			if name[i] >= 0x80 {
				return fmt.Errorf("%w: %q is not ASCII", errs.ErrInvalidName, name)
			}
		}
	}

	it.Flags |= FlagPersonalized
	it.Extended.Name = name
	it.invalidate()

	return nil
}

// RemovePersonalization clears the personalized name. It reports whether the
// item changed.
func (it *Item) RemovePersonalization() bool {
	if !it.Personalized() {
		return false
	}
	it.Flags &^= FlagPersonalized
	if it.Extended != nil {
		it.Extended.Name = ""
	}
	it.invalidate()

	return true
}

// RandomizeID assigns a new random item id.
func (it *Item) RandomizeID() {
	if it.Extended == nil {
		return
	}

	old := it.Extended.ID
	for it.Extended.ID == old {
		it.Extended.ID = rand.Uint32() //nolint:gosec
	}
	it.invalidate()
}

// Repair restores durability, including that of socketed items. It reports
// whether anything changed.
func (it *Item) Repair() bool {
	changed := false
	if ext := it.Extended; ext != nil && ext.MaxDurability > 0 && ext.Durability != ext.MaxDurability {
		ext.Durability = ext.MaxDurability
		changed = true
	}

	for i := range it.Socketed {
		if it.Socketed[i].Repair() {
			changed = true
		}
	}

	if changed {
		it.invalidate()
	}

	return changed
}

// FillQuantity sets the quantity of a stackable item to its maximum. It
// reports whether the item changed.
func (it *Item) FillQuantity(ctx Context) bool {
	typ, ok := it.Type(ctx.Tables)
	if !ok || !typ.HasQuantity() || it.Extended == nil {
		return false
	}

	limit := typ.MaxStack
	if limit == 0 || limit >= 1<<quantityBits {
		limit = 1<<quantityBits - 1
	}

	if it.Extended.Quantity == limit {
		return false
	}
	it.Extended.Quantity = limit
	it.invalidate()

	return true
}
