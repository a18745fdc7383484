package item

import (
	"fmt"
	"math/rand/v2"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/tables"
)

// New builds an identified, normal quality item of the given type, stored in
// the inventory at (0, 0). Compact types become simple items.
func New(code string, ctx Context) (*Item, error) {
	typ, ok := ctx.Tables.ItemType(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownItemType, code)
	}

	if typ.Category == tables.CategoryEar || typ.Category == tables.CategoryGold {
		return nil, fmt.Errorf("%w: %q items cannot be created", errs.ErrUnknownItemType, code)
	}

	it := &Item{
		Flags:    FlagIdentified | FlagAlwaysSet,
		Format:   defaultFormat(ctx.Version),
		Location: LocationStored,
		Panel:    PanelInventory,
		Code:     typ.Code,
	}

	if typ.Compact {
		it.Flags |= FlagSimple
		return it, nil
	}

	ext := &Extended{
		ID:      rand.Uint32(),                     //nolint:gosec
		Level:   uint8(max(1, min(typ.Level, 99))), //nolint:gosec
		Quality: QualityNormal,
		Record:  NormalRecord{},
	}

	if typ.Kind() == tables.KindArmor {
		ext.Defense = typ.MaxDefense
	}

	if typ.HasDurability() {
		ext.MaxDurability = typ.MaxDurability
		ext.Durability = typ.MaxDurability
	}

	if typ.HasQuantity() {
		ext.Quantity = min(max(typ.MaxStack, 1), 1<<quantityBits-1)
	}
	it.Extended = ext

	return it, nil
}

func defaultFormat(v format.Version) uint16 {
	switch {
	case v.Remastered():
		return 5
	case v >= format.V107:
		return 101
	default:
		return 0
	}
}
