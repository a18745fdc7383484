package statblock

import (
	"testing"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/tables"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, sb *StatBlock, v format.Version) []byte {
	t.Helper()

	cur := bitstream.NewWriter(64)
	require.NoError(t, Encode(cur, sb, v))

	return cur.Bytes()
}

func sampleBlock(t *testing.T) *StatBlock {
	t.Helper()

	sb := New()
	values := map[Counter]uint32{
		Strength:   85,
		Energy:     35,
		Dexterity:  60,
		Vitality:   150,
		StatPoints: 5,
		Life:       605 << 8,
		MaxLife:    605 << 8,
		Mana:       120<<8 | 0x80,
		MaxMana:    121 << 8,
		Level:      42,
		Experience: 26_000_000,
		Gold:       120_000,
	}
	for c, v := range values {
		require.NoError(t, sb.Set(c, v))
	}
	sb.Skills[0] = 20
	sb.Skills[29] = 1

	return sb
}

func TestStatBlock_Defaults(t *testing.T) {
	sb := New()
	require.Equal(t, uint16(0), sb.Mask())
	require.Equal(t, 1, sb.Level())
	require.Equal(t, uint32(0), sb.Get(Strength))
	require.False(t, sb.Has(Level))

	require.NoError(t, sb.Set(Gold, 10))
	require.True(t, sb.Has(Gold))
	sb.Clear(Gold)
	require.False(t, sb.Has(Gold))
	require.Equal(t, uint32(0), sb.Get(Gold))
}

func TestStatBlock_SetRange(t *testing.T) {
	sb := New()
	require.NoError(t, sb.Set(Strength, 1023))
	require.NoError(t, sb.Set(Strength, 0xFFFF))
	require.ErrorIs(t, sb.Set(Strength, 0x10000), errs.ErrValueOverflow)
	require.ErrorIs(t, sb.Set(Level, 256), errs.ErrValueOverflow)
	require.NoError(t, sb.Set(Strength, 1023))
	require.NoError(t, sb.Set(Experience, 0xFFFFFFFF))
	require.ErrorIs(t, sb.Set(Counter(16), 1), errs.ErrUnknownStat)

	require.NoError(t, sb.SetWhole(Life, 300))
	require.Equal(t, uint32(300<<8), sb.Get(Life))
	require.Equal(t, uint32(300), sb.Whole(Life))
	require.Equal(t, uint32(1023), sb.Whole(Strength))
}

func TestStatBlock_RoundTrip(t *testing.T) {
	for _, v := range format.KnownVersions() {
		t.Run(v.String(), func(t *testing.T) {
			sb := sampleBlock(t)
			data := encode(t, sb, v)

			cur := bitstream.NewCursor(data)
			got, err := Decode(cur, v)
			require.NoError(t, err)
			require.Zero(t, cur.Remaining())
			require.Equal(t, sb, got)
			require.Equal(t, data, encode(t, got, v))
		})
	}
}

func TestStatBlock_EmptyBlock(t *testing.T) {
	tests := []struct {
		name string
		v    format.Version
		want []byte
	}{
		// marker, 16-bit zero mask
		{"legacy", format.V100, []byte{'g', 'f', 0x00, 0x00}},
		// marker, 9-bit sentinel padded to two bytes
		{"modern", format.VR24, []byte{'g', 'f', 0xFF, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encode(t, New(), tt.v)
			require.Equal(t, tt.want, data[:len(tt.want)])
			require.Len(t, data, len(tt.want)+2+SkillSlots)

			got, err := Decode(bitstream.NewCursor(data), tt.v)
			require.NoError(t, err)
			require.Equal(t, uint16(0), got.Mask())
			require.Equal(t, 1, got.Level())
		})
	}
}

func TestStatBlock_LegacyWireLayout(t *testing.T) {
	// legacy widths are wider than the modern ones
	sb := New()
	require.NoError(t, sb.Set(Strength, 0x1234))

	data := encode(t, sb, format.V100)
	require.Equal(t, []byte{'g', 'f', 0x01, 0x00, 0x34, 0x12, 'i', 'f'}, data[:8])

	decoded, err := Decode(bitstream.NewCursor(data), format.V100)
	require.NoError(t, err)
	require.Equal(t, uint32(0x1234), decoded.Get(Strength))
}

func TestStatBlock_ValidatePerForm(t *testing.T) {
	sb := New()
	require.NoError(t, sb.Set(Strength, 2000))
	require.NoError(t, sb.Set(Level, 150))

	require.NoError(t, sb.Validate(format.V100))
	require.ErrorIs(t, sb.Validate(format.V110), errs.ErrValueOverflow)
	require.Equal(t, 16, Strength.BitsFor(format.V100))
	require.Equal(t, 10, Strength.BitsFor(format.VR24))

	cur := bitstream.NewWriter(64)
	require.ErrorIs(t, Encode(cur, sb, format.VR24), errs.ErrValueOverflow)
	require.Zero(t, cur.Len())

	require.NoError(t, sb.Set(Strength, 1000))
	require.NoError(t, sb.Set(Level, 99))
	require.NoError(t, sb.Validate(format.VR24))
}

func TestStatBlock_DecodeErrors(t *testing.T) {
	modern := func(build func(w *bitstream.Cursor)) []byte {
		w := bitstream.NewWriter(16)
		require.NoError(t, w.WriteBytes(Marker))
		build(w)
		w.AlignWrite()
		require.NoError(t, w.WriteBytes(SkillMarker))
		require.NoError(t, w.WriteBytes(make([]byte, SkillSlots)))

		return w.Bytes()
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"missing marker", []byte("xx\xff\x01"), errs.ErrCorruptSection},
		{"empty", nil, errs.ErrTruncatedInput},
		{"no sentinel", []byte{'g', 'f', 0x00}, errs.ErrTruncatedInput},
		{"unknown id", modern(func(w *bitstream.Cursor) {
			_ = w.WriteBits(idBits, 16)
			_ = w.WriteBits(8, 0)
			_ = w.WriteBits(idBits, sentinel)
		}), errs.ErrUnknownStat},
		{"descending ids", modern(func(w *bitstream.Cursor) {
			_ = w.WriteBits(idBits, uint64(Dexterity))
			_ = w.WriteBits(10, 20)
			_ = w.WriteBits(idBits, uint64(Strength))
			_ = w.WriteBits(10, 20)
			_ = w.WriteBits(idBits, sentinel)
		}), errs.ErrCorruptSection},
		{"duplicate id", modern(func(w *bitstream.Cursor) {
			_ = w.WriteBits(idBits, uint64(Level))
			_ = w.WriteBits(7, 2)
			_ = w.WriteBits(idBits, uint64(Level))
			_ = w.WriteBits(7, 3)
			_ = w.WriteBits(idBits, sentinel)
		}), errs.ErrCorruptSection},
		{"missing skills", []byte{'g', 'f', 0xFF, 0x01, 'i', 'f', 0x00}, errs.ErrTruncatedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bitstream.NewCursor(tt.data), format.V110)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStatBlock_Progression(t *testing.T) {
	tb := tables.Default()
	cls, ok := tb.Class(4)
	require.True(t, ok)

	sb := New()
	require.NoError(t, sb.SetLevel(tb, 10))
	require.Equal(t, 10, sb.Level())
	require.Equal(t, ExperienceForLevel(tb, 10), sb.Get(Experience))
	require.Equal(t, 10, LevelForExperience(tb, sb.Get(Experience)))
	require.Equal(t, uint32(45), sb.Get(StatPoints))
	require.Equal(t, uint32(9), sb.Get(SkillPoints))

	require.ErrorIs(t, sb.SetLevel(tb, 0), errs.ErrInvalidLevel)
	require.ErrorIs(t, sb.SetLevel(tb, tb.MaxLevel()+1), errs.ErrInvalidLevel)

	require.NoError(t, sb.SetLevel(tb, 5))
	require.Equal(t, uint32(20), sb.Get(StatPoints))
	require.Equal(t, uint32(4), sb.Get(SkillPoints))

	require.Equal(t, 0, StatPointsEarned(1))
	require.Equal(t, 490, StatPointsEarned(99))
	require.Equal(t, 98, SkillPointsEarned(99))
	require.Equal(t, uint32(990_000), GoldLimit(99))

	t.Run("reset attributes", func(t *testing.T) {
		sb := New()
		require.NoError(t, sb.SetLevel(tb, 5))
		require.NoError(t, sb.Set(StatPoints, 0))
		require.NoError(t, sb.Set(Strength, uint32(cls.Strength+15)))
		require.NoError(t, sb.Set(Vitality, uint32(cls.Vitality+5)))
		require.NoError(t, sb.Set(Energy, uint32(cls.Energy)))
		require.NoError(t, sb.Set(Dexterity, uint32(cls.Dexterity)))
		require.Equal(t, 20, sb.StatPointsUsed(cls))

		refund, err := sb.ResetAttributes(cls)
		require.NoError(t, err)
		require.Equal(t, 20, refund)
		require.Equal(t, uint32(20), sb.Get(StatPoints))
		require.Equal(t, uint32(cls.Strength), sb.Get(Strength))
		require.Zero(t, sb.StatPointsUsed(cls))

		wantLife := uint32(float64(cls.Life)+cls.LifePerLevel*4) << 8
		require.Equal(t, wantLife, sb.Get(MaxLife))
		require.Equal(t, sb.Get(MaxLife), sb.Get(Life))
	})

	t.Run("reset skills", func(t *testing.T) {
		sb := New()
		sb.Skills[3] = 4
		sb.Skills[7] = 2
		require.NoError(t, sb.Set(SkillPoints, 1))

		refund, err := sb.ResetSkills()
		require.NoError(t, err)
		require.Equal(t, 6, refund)
		require.Equal(t, uint32(7), sb.Get(SkillPoints))
		require.Zero(t, sb.SkillPointsUsed())

		refund, err = sb.ResetSkills()
		require.NoError(t, err)
		require.Zero(t, refund)
	})
}

func BenchmarkDecodeModern(b *testing.B) {
	sb := New()
	for c := Counter(0); c < NumCounters; c++ {
		_ = sb.Set(c, 1)
	}

	cur := bitstream.NewWriter(64)
	if err := Encode(cur, sb, format.VR24); err != nil {
		b.Fatal(err)
	}
	data := cur.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Decode(bitstream.NewCursor(data), format.VR24)
	}
}
