// Package property implements the sentinel-terminated stat lists that carry an
// item's magical attributes.
//
// Each entry is a 9-bit stat id followed by a value whose width, bias and
// optional secondary id (param) are defined by the stat table. Some stats chain
// followers: the values of the followers are written right after the head value
// without ids of their own (minimum/maximum damage pairs, for example). The list
// ends with the reserved id 511.
//
// List order is the wire order and is preserved across a decode/encode cycle.
package property

import (
	"fmt"
	"slices"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/tables"
)

// Property is one decoded stat entry.
type Property struct {
	ID uint16
	// Value is the stat value with the table bias removed. For Raw entries it is
	// the unbiased wire bits.
	Value int64
	// Param is the secondary id (skill, class or charge data) for stats that carry one.
	Param uint32
	// Chained marks a follower written without its own id.
	Chained bool
	// Raw marks an id missing from the stat table, decoded with the fallback width.
	Raw bool
	// RawBits is the value width used for a Raw entry.
	RawBits int
}

// List is an ordered stat list.
type List []Property

// Decode reads a stat list up to and including the sentinel.
//
// Parameters:
//   - cur: Cursor positioned on the first stat id
//   - tb: Stat table used to resolve value widths
//
// Returns:
//   - List: Decoded entries in wire order
//   - error: errs.ErrTruncatedInput if the input ends before the sentinel,
//     errs.ErrUnknownStat for an id missing from the table when no fallback width is set
func Decode(cur *bitstream.Cursor, tb *tables.Tables) (List, error) {
	var list List

	for {
		start := cur.BitPos()
		raw, err := cur.ReadBits(tables.StatIDBits)
		if err != nil {
			return list, fmt.Errorf("stat list missing sentinel: %w", err)
		}

		id := uint16(raw)
		if id == tables.StatSentinel {
			return list, nil
		}

		def, ok := tb.Stat(id)
		if !ok {
			width := tb.UnknownStatWidth()
			if width == 0 {
				return list, fmt.Errorf("%w: id %d at bit %d", errs.ErrUnknownStat, id, start)
			}

			v, err := cur.ReadBits(width)
			if err != nil {
				return list, err
			}
			list = append(list, Property{ID: id, Value: int64(v), Raw: true, RawBits: width}) //nolint:gosec

			continue
		}

		p, err := readEntry(cur, def)
		if err != nil {
			return list, fmt.Errorf("stat %d: %w", id, err)
		}
		list = append(list, p)

		for _, fid := range def.Chain {
			fdef, _ := tb.Stat(fid)
			fp, err := readEntry(cur, fdef)
			if err != nil {
				return list, fmt.Errorf("stat %d: %w", fid, err)
			}
			fp.Chained = true
			list = append(list, fp)
		}
	}
}

// Encode writes list followed by the sentinel.
//
// Chained followers must appear right after their head in table order. Values
// that do not fit their declared width fail with errs.ErrValueOverflow.
func Encode(cur *bitstream.Cursor, list List, tb *tables.Tables) error {
	for i := 0; i < len(list); i++ {
		p := list[i]
		if p.Chained {
			return fmt.Errorf("%w: stat %d is chained without a head", errs.ErrCorruptItem, p.ID)
		}

		if err := cur.WriteBits(tables.StatIDBits, uint64(p.ID)); err != nil {
			return err
		}

		if p.Raw {
			if err := cur.WriteBits(p.RawBits, uint64(p.Value)); err != nil { //nolint:gosec
				return fmt.Errorf("stat %d: %w", p.ID, err)
			}

			continue
		}

		def, ok := tb.Stat(p.ID)
		if !ok {
			return fmt.Errorf("%w: id %d", errs.ErrUnknownStat, p.ID)
		}

		if err := writeEntry(cur, def, p); err != nil {
			return fmt.Errorf("stat %d: %w", p.ID, err)
		}

		for _, fid := range def.Chain {
			i++
			if i >= len(list) || !list[i].Chained || list[i].ID != fid {
				return fmt.Errorf("%w: stat %d must be followed by stat %d", errs.ErrCorruptItem, p.ID, fid)
			}

			fdef, _ := tb.Stat(fid)
			if err := writeEntry(cur, fdef, list[i]); err != nil {
				return fmt.Errorf("stat %d: %w", fid, err)
			}
		}
	}

	return cur.WriteBits(tables.StatIDBits, tables.StatSentinel)
}

func readEntry(cur *bitstream.Cursor, def tables.StatDef) (Property, error) {
	v, err := cur.ReadBits(def.Bits)
	if err != nil {
		return Property{}, err
	}

	p := Property{ID: def.ID, Value: int64(v) - int64(def.Add)} //nolint:gosec
	if def.ParamBits > 0 {
		param, err := cur.ReadBits(def.ParamBits)
		if err != nil {
			return Property{}, err
		}
		p.Param = uint32(param) //nolint:gosec
	}

	return p, nil
}

func writeEntry(cur *bitstream.Cursor, def tables.StatDef, p Property) error {
	stored := p.Value + int64(def.Add)
	if stored < 0 {
		return fmt.Errorf("%w: value %d below bias %d", errs.ErrValueOverflow, p.Value, -def.Add)
	}

	if err := cur.WriteBits(def.Bits, uint64(stored)); err != nil {
		return err
	}

	if def.ParamBits > 0 {
		return cur.WriteBits(def.ParamBits, uint64(p.Param))
	}

	return nil
}

// Clone returns a copy of l.
func (l List) Clone() List {
	return slices.Clone(l)
}

// Lookup returns the first entry with id.
func (l List) Lookup(id uint16) (Property, bool) {
	for _, p := range l {
		if p.ID == id {
			return p, true
		}
	}

	return Property{}, false
}

// Value returns the summed value of every entry with id.
func (l List) Value(id uint16) int64 {
	var total int64
	for _, p := range l {
		if p.ID == id {
			total += p.Value
		}
	}

	return total
}

// Set updates the entry matching (id, param) or appends one. Setting a chain
// head appends zero-valued followers; setting a follower that is not present
// appends its whole group.
func (l List) Set(tb *tables.Tables, id uint16, value int64, param uint32) (List, error) {
	for i := range l {
		if l[i].ID == id && l[i].Param == param && !l[i].Raw {
			l[i].Value = value
			return l, nil
		}
	}

	head := id
	if h, ok := tb.ChainHead(id); ok {
		head = h
	}

	def, ok := tb.Stat(head)
	if !ok {
		return l, fmt.Errorf("%w: id %d", errs.ErrUnknownStat, head)
	}

	group := Property{ID: head, Param: param}
	if head == id {
		group.Value = value
	}
	l = append(l, group)

	for _, fid := range def.Chain {
		f := Property{ID: fid, Chained: true}
		if fid == id {
			f.Value = value
		}
		l = append(l, f)
	}

	return l, nil
}

// Remove deletes the entry with id together with the rest of its chain group.
// It reports whether anything was removed.
func (l List) Remove(tb *tables.Tables, id uint16) (List, bool) {
	head := id
	if h, ok := tb.ChainHead(id); ok {
		head = h
	}

	for i, p := range l {
		if p.ID != head || p.Chained {
			continue
		}

		end := i + 1
		for end < len(l) && l[end].Chained {
			end++
		}

		return slices.Delete(l, i, end), true
	}

	return l, false
}

// FromValues builds an encodable list from table property values, expanding
// chain heads with their followers.
func FromValues(tb *tables.Tables, values []tables.PropertyValue) (List, error) {
	var out List
	for _, v := range values {
		var err error
		out, err = out.Set(tb, v.ID, v.Value, v.Param)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Combined merges lists into one view keyed by (id, param), summing values.
// The result is ordered by id and is not meant to be encoded. Raw entries are
// skipped because their values cannot be interpreted.
func Combined(lists ...List) List {
	type key struct {
		id    uint16
		param uint32
	}

	index := make(map[key]int)
	var out List
	for _, l := range lists {
		for _, p := range l {
			if p.Raw {
				continue
			}

			k := key{p.ID, p.Param}
			if i, ok := index[k]; ok {
				out[i].Value += p.Value
				continue
			}
			index[k] = len(out)
			out = append(out, Property{ID: p.ID, Value: p.Value, Param: p.Param})
		}
	}

	slices.SortStableFunc(out, func(a, b Property) int {
		if a.ID != b.ID {
			return int(a.ID) - int(b.ID)
		}

		return int(a.Param) - int(b.Param) //nolint:gosec
	})

	return out
}
