package item

import (
	"fmt"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/errs"
)

// SectionMarker starts every item list.
var SectionMarker = []byte("JM")

// DecodeSection reads an item list: the "JM" marker, a 16-bit count of
// top-level items, then the records. Socketed items follow their parent and are
// not counted.
//
// Errors of individual records are wrapped in errs.ItemError carrying the
// record index.
func DecodeSection(cur *bitstream.Cursor, ctx Context) ([]*Item, error) {
	ok, err := cur.ExpectBytes(SectionMarker)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w: missing item list marker at byte %d", errs.ErrCorruptSection, cur.BytePos())
	}

	count, err := cur.ReadUint16()
	if err != nil {
		return nil, err
	}

	items := make([]*Item, 0, count)
	for i := 0; i < int(count); i++ {
		it, err := Decode(cur, ctx)
		if err != nil {
			return items, errs.Item(i, err)
		}
		items = append(items, it)
	}

	return items, nil
}

// EncodeSection writes items as an item list.
func EncodeSection(cur *bitstream.Cursor, items []*Item, ctx Context) error {
	if len(items) > 0xFFFF {
		return fmt.Errorf("%w: %d items in one list", errs.ErrValueOverflow, len(items))
	}

	if err := cur.WriteBytes(SectionMarker); err != nil {
		return err
	}

	if err := cur.WriteBits(16, uint64(len(items))); err != nil {
		return err
	}

	for i, it := range items {
		if err := Encode(cur, it, ctx); err != nil {
			return errs.Item(i, err)
		}
	}

	return nil
}
