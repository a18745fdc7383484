package statblock

import (
	"fmt"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
)

// Section markers.
var (
	Marker      = []byte("gf")
	SkillMarker = []byte("if")
)

const (
	idBits   = 9
	sentinel = 1<<idBits - 1
	maskBits = 16
)

// Decode reads the stat block and the skill bytes that follow it.
//
// The wire form is chosen from v alone: versions before 1.07 use the presence
// mask, later versions the id list.
//
// Parameters:
//   - cur: Cursor positioned on the "gf" marker
//   - v: Format version of the containing file
//
// Returns:
//   - *StatBlock: The decoded block
//   - error: errs.ErrTruncatedInput, errs.ErrCorruptSection or errs.ErrUnknownStat
func Decode(cur *bitstream.Cursor, v format.Version) (*StatBlock, error) {
	if err := expect(cur, Marker); err != nil {
		return nil, err
	}

	sb := New()
	var err error
	if v.LegacyStats() {
		err = sb.decodeLegacy(cur)
	} else {
		err = sb.decodeModern(cur)
	}

	if err != nil {
		return nil, err
	}

	pad, _, err := cur.AlignToByte()
	if err != nil {
		return nil, err
	}
	sb.pad = pad

	if err := expect(cur, SkillMarker); err != nil {
		return nil, err
	}

	skills, err := cur.ReadBytes(SkillSlots)
	if err != nil {
		return nil, err
	}
	copy(sb.Skills[:], skills)

	return sb, nil
}

func expect(cur *bitstream.Cursor, marker []byte) error {
	ok, err := cur.ExpectBytes(marker)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: missing %q marker at byte %d", errs.ErrCorruptSection, marker, cur.BytePos())
	}

	return nil
}

func (sb *StatBlock) decodeLegacy(cur *bitstream.Cursor) error {
	mask, err := cur.ReadBits(maskBits)
	if err != nil {
		return err
	}

	for c := Counter(0); c < NumCounters; c++ {
		if mask&(1<<c) == 0 {
			continue
		}

		v, err := cur.ReadBits(counterDefs[c].legacyBits)
		if err != nil {
			return fmt.Errorf("stat %s: %w", c, err)
		}
		sb.values[c] = uint32(v) //nolint:gosec
	}
	sb.present = uint16(mask) //nolint:gosec

	return nil
}

func (sb *StatBlock) decodeModern(cur *bitstream.Cursor) error {
	last := -1
	for {
		id, err := cur.ReadBits(idBits)
		if err != nil {
			return fmt.Errorf("stat list: %w", err)
		}

		if id == sentinel {
			return nil
		}

		if id >= NumCounters {
			return fmt.Errorf("%w: stat block id %d", errs.ErrUnknownStat, id)
		}

		if int(id) <= last {
			return fmt.Errorf("%w: stat id %d follows %d", errs.ErrCorruptSection, id, last)
		}
		last = int(id)

		c := Counter(id)
		v, err := cur.ReadBits(counterDefs[c].bits)
		if err != nil {
			return fmt.Errorf("stat %s: %w", c, err)
		}
		sb.values[c] = uint32(v) //nolint:gosec
		sb.present |= 1 << c
	}
}

// Encode writes sb in the form used by v, followed by the skill bytes.
// Encode writes the stat block in the wire form of v, followed by the skill
// bytes. Nothing is written when a counter does not fit that form.
func Encode(cur *bitstream.Cursor, sb *StatBlock, v format.Version) error {
	if err := sb.Validate(v); err != nil {
		return err
	}

	if err := cur.WriteBytes(Marker); err != nil {
		return err
	}

	var err error
	if v.LegacyStats() {
		err = sb.encodeLegacy(cur)
	} else {
		err = sb.encodeModern(cur)
	}

	if err != nil {
		return err
	}

	n := cur.BitsToAlign()
	pad := sb.pad
	if n == 0 || pad>>n != 0 {
		pad = 0
	}

	if err := cur.WriteBits(n, pad); err != nil {
		return err
	}

	if err := cur.WriteBytes(SkillMarker); err != nil {
		return err
	}

	return cur.WriteBytes(sb.Skills[:])
}

func (sb *StatBlock) encodeLegacy(cur *bitstream.Cursor) error {
	if err := cur.WriteBits(maskBits, uint64(sb.present)); err != nil {
		return err
	}

	for c := Counter(0); c < NumCounters; c++ {
		if !sb.Has(c) {
			continue
		}

		bits := counterDefs[c].legacyBits
		if err := cur.WriteBits(bits, uint64(sb.values[c])); err != nil {
			return err
		}
	}

	return nil
}

func (sb *StatBlock) encodeModern(cur *bitstream.Cursor) error {
	for c := Counter(0); c < NumCounters; c++ {
		if !sb.Has(c) {
			continue
		}

		bits := counterDefs[c].bits
		if err := cur.WriteBits(idBits, uint64(c)); err != nil {
			return err
		}

		if err := cur.WriteBits(bits, uint64(sb.values[c])); err != nil {
			return err
		}
	}

	return cur.WriteBits(idBits, sentinel)
}
