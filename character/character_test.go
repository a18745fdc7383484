package character

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/internal/fileio"
	"github.com/arloliu/d2s/item"
	"github.com/arloliu/d2s/section"
	"github.com/arloliu/d2s/statblock"
)

const barbarian = 4

// minimalModern builds a file with default stats, no skills and an empty
// main item list.
func minimalModern(t *testing.T) []byte {
	t.Helper()

	h := section.NewHeader(format.VR24)
	require.NoError(t, h.SetName("Warriv"))
	h.SetClass(barbarian)

	data := h.Bytes()
	for _, spec := range []section.RegionSpec{section.QuestSpec, section.WaypointSpec, section.NPCSpec} {
		data = append(data, section.NewRegion(spec).Bytes()...)
	}
	data = append(data, 'g', 'f', 0xFF, 0x01, 'i', 'f')
	data = append(data, make([]byte, statblock.SkillSlots)...)
	data = append(data, 'J', 'M', 0, 0)

	binary.LittleEndian.PutUint32(data[h.Layout().FileSize.Offset:], uint32(len(data))) //nolint:gosec
	section.PatchChecksum(data, h.ChecksumField())

	return data
}

func newImage(t *testing.T, v format.Version) []byte {
	t.Helper()

	c, err := New(v, "Tyrael", barbarian)
	require.NoError(t, err)
	data, err := c.Bytes()
	require.NoError(t, err)

	return data
}

func TestParse_MinimalModern(t *testing.T) {
	data := minimalModern(t)

	c, err := Parse(data, WithStrictValidation())
	require.NoError(t, err)
	require.Equal(t, StateParsed, c.State())
	require.Equal(t, 1, c.Level())
	require.Equal(t, 0, c.NumberOfItems())
	require.Equal(t, "Warriv", c.Name())
	require.True(t, c.ChecksumValid())
	stats := c.Stats()
	require.Zero(t, stats.Mask())

	out, err := c.Bytes()
	require.NoError(t, err)
	require.Equal(t, data, out)

	changed, err := c.Changed()
	require.NoError(t, err)
	require.False(t, changed)
}

func TestNew_RoundTrip(t *testing.T) {
	for _, v := range format.KnownVersions() {
		t.Run(v.String(), func(t *testing.T) {
			data := newImage(t, v)

			c, err := Parse(data, WithStrictValidation())
			require.NoError(t, err)
			require.Equal(t, v, c.Version())
			require.Equal(t, "Tyrael", c.Name())
			require.Equal(t, uint8(barbarian), c.ClassID())
			require.Equal(t, 1, c.Level())
			require.Equal(t, v >= format.V107, c.Status().IsExpansion())

			cls, err := c.Class()
			require.NoError(t, err)
			stats := c.Stats()
			require.Equal(t, uint32(cls.Strength), stats.Get(statblock.Strength))
			require.Equal(t, uint32(cls.Life), stats.Whole(statblock.MaxLife))

			on, err := c.Waypoints().Waypoint(section.Hell, 0)
			require.NoError(t, err)
			require.True(t, on)

			out, err := c.Bytes()
			require.NoError(t, err)
			require.Equal(t, data, out)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(format.Version(95), "Tyrael", barbarian)
	require.ErrorIs(t, err, errs.ErrUnsupportedVersion)

	_, err = New(format.VR24, "Tyrael", 42)
	require.ErrorIs(t, err, errs.ErrUnknownClass)

	_, err = New(format.V100, "Tyrael", 5)
	require.ErrorIs(t, err, errs.ErrUnknownClass)

	_, err = New(format.VR24, "T", barbarian)
	require.ErrorIs(t, err, errs.ErrInvalidName)
}

func TestParse_Errors(t *testing.T) {
	valid := minimalModern(t)
	hs := section.HeaderSize(format.VR24)

	badMagic := append([]byte(nil), valid...)
	badMagic[0] = 0

	badVersion := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badVersion[4:], 93)

	badQuests := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint16(badQuests[hs+8:], 297)

	badStats := append([]byte(nil), valid...)
	badStats[hs+section.QuestSpec.Size+section.WaypointSpec.Size+section.NPCSpec.Size] = 'x'

	tests := []struct {
		name    string
		data    []byte
		want    error
		section string
	}{
		{"bad magic", badMagic, errs.ErrInvalidHeader, ""},
		{"unknown version", badVersion, errs.ErrUnsupportedVersion, ""},
		{"quest length", badQuests, errs.ErrCorruptSection, SectionQuests},
		{"stats marker", badStats, errs.ErrCorruptSection, SectionStats},
		{"truncated items", valid[:len(valid)-1], errs.ErrTruncatedInput, SectionItems},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			require.ErrorIs(t, err, tt.want)

			if tt.section != "" {
				var se *errs.SectionError
				require.True(t, errors.As(err, &se))
				require.Equal(t, tt.section, se.Section)
			}
		})
	}
}

func TestParse_Checksum(t *testing.T) {
	data := newImage(t, format.VR24)
	data[section.HeaderSize(format.VR24)+20] ^= 0xFF

	core, logs := observer.New(zap.WarnLevel)
	c, err := Parse(data, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.False(t, c.ChecksumValid())
	require.Equal(t, 1, logs.FilterMessage("checksum mismatch").Len())

	out, err := c.Bytes()
	require.NoError(t, err)
	ok, _, _ := section.VerifyChecksum(out, c.Header().ChecksumField())
	require.True(t, ok)

	_, err = Parse(data, WithStrictValidation())
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)

	t.Run("no checksum field", func(t *testing.T) {
		old := newImage(t, format.V108)
		old[section.HeaderSize(format.V108)+20] ^= 0xFF

		c, err := Parse(old, WithStrictValidation())
		require.NoError(t, err)
		require.True(t, c.ChecksumValid())
	})
}

func TestParse_FileSizeMismatch(t *testing.T) {
	data := minimalModern(t)
	h, err := section.ParseHeader(data)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(data[h.Layout().FileSize.Offset:], 1)
	section.PatchChecksum(data, h.ChecksumField())

	core, logs := observer.New(zap.WarnLevel)
	c, err := Parse(data, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())

	out, err := c.Bytes()
	require.NoError(t, err)
	require.Equal(t, uint32(len(out)), binary.LittleEndian.Uint32(out[h.Layout().FileSize.Offset:])) //nolint:gosec

	_, err = Parse(data, WithStrictValidation())
	require.ErrorIs(t, err, errs.ErrStrictValidation)
}

func TestParse_DegradedOptionalSection(t *testing.T) {
	data := newImage(t, format.VR24)
	h, err := section.ParseHeader(data)
	require.NoError(t, err)

	// The image ends with "jf", "kf" and the golem flag.
	require.Equal(t, []byte("jfkf\x00"), data[len(data)-5:])
	data[len(data)-5] = 'x'
	section.PatchChecksum(data, h.ChecksumField())

	core, logs := observer.New(zap.WarnLevel)
	c, err := Parse(data, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Equal(t, []string{SectionMerc}, c.Degraded())
	require.Equal(t, 1, logs.FilterMessage("optional section degraded to absent").Len())
	_, err = c.MercenaryItems()
	require.ErrorIs(t, err, errs.ErrNoMercenary)
	_, ok := c.Golem()
	require.False(t, ok)

	out, err := c.Bytes()
	require.NoError(t, err)
	require.Equal(t, data, out, "degraded bytes are kept verbatim")

	_, err = Parse(data, WithStrictValidation())
	require.ErrorIs(t, err, errs.ErrStrictValidation)
	require.ErrorIs(t, err, errs.ErrCorruptSection)
}

func TestParse_ExpansionSections(t *testing.T) {
	data := newImage(t, format.VR24)
	h, err := section.ParseHeader(data)
	require.NoError(t, err)

	// Hire a mercenary: the "jf" section then carries an item list.
	raw := data[:len(data)-3]
	raw = append(raw, 'J', 'M', 0, 0, 'k', 'f', 0)
	binary.LittleEndian.PutUint32(raw[h.Layout().MercID.Offset:], 0xC0FFEE)
	binary.LittleEndian.PutUint32(raw[h.Layout().FileSize.Offset:], uint32(len(raw))) //nolint:gosec
	section.PatchChecksum(raw, h.ChecksumField())

	c, err := Parse(raw, WithStrictValidation())
	require.NoError(t, err)

	merc, ok := c.Mercenary()
	require.True(t, ok)
	require.Equal(t, uint32(0xC0FFEE), merc.ID)

	items, err := c.MercenaryItems()
	require.NoError(t, err)
	require.Zero(t, items.Len())
	require.Empty(t, c.Corpses())

	out, err := c.Bytes()
	require.NoError(t, err)
	require.Equal(t, raw, out)
}

func TestCharacter_Mutations(t *testing.T) {
	c, err := New(format.VR24, "Tyrael", barbarian)
	require.NoError(t, err)
	ctx := item.NewContext(format.VR24)

	require.NoError(t, c.SetLevel(10))
	require.Equal(t, 10, c.Level())
	require.Equal(t, uint8(10), c.Header().Level())
	stats := c.Stats()
	require.Equal(t, uint32(45), stats.Get(statblock.StatPoints))
	require.Equal(t, uint32(9), stats.Get(statblock.SkillPoints))
	require.Equal(t, uint32(55+2*9), stats.Whole(statblock.MaxLife))

	require.NoError(t, c.LevelUp())
	require.Equal(t, 11, c.Level())
	require.ErrorIs(t, c.SetLevel(0), errs.ErrInvalidLevel)

	require.ErrorIs(t, c.SetGold(statblock.GoldLimit(11)+1), errs.ErrValueOverflow)
	require.NoError(t, c.SetGold(5000))
	require.NoError(t, c.SetStashGold(statblock.StashGoldLimit))
	require.ErrorIs(t, c.SetStashGold(statblock.StashGoldLimit+1), errs.ErrValueOverflow)

	n, err := c.ResetSkills()
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = c.ResetStats()
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, c.SetName("Hadriel"))
	require.ErrorIs(t, c.SetName("4ever"), errs.ErrInvalidName)

	helm, err := item.New("cap", ctx)
	require.NoError(t, err)
	helm.Extended.Durability = 3
	require.NoError(t, c.AddItem(helm, item.PanelInventory))
	require.Equal(t, 1, c.NumberOfItems())
	require.NoError(t, c.MoveItem(0, item.PanelCube, 1, 2))

	require.Equal(t, 1, c.RepairAll(item.All))
	require.Zero(t, c.RepairAll(item.All))
	require.Equal(t, StateModified, c.State())

	data, err := c.Bytes()
	require.NoError(t, err)
	parsed, err := Parse(data, WithStrictValidation())
	require.NoError(t, err)
	require.Equal(t, 11, parsed.Level())
	require.Equal(t, "Hadriel", parsed.Name())
	parsedStats := parsed.Stats()
	require.Equal(t, uint32(5000), parsedStats.Get(statblock.Gold))
	require.Equal(t, 1, parsed.NumberOfItems())
	got := parsed.Items().At(0)
	require.Equal(t, item.PanelCube, got.Panel)
	require.Equal(t, helm.Extended.MaxDurability, got.Extended.Durability)

	removed, err := parsed.RemoveItem(0)
	require.NoError(t, err)
	require.Equal(t, "cap", removed.Code)
	require.Zero(t, parsed.NumberOfItems())
	_, err = parsed.RemoveItem(0)
	require.ErrorIs(t, err, errs.ErrItemNotFound)
}

func TestCharacter_OpenAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Tyrael.d2s")
	first := newImage(t, format.VR24)
	require.NoError(t, os.WriteFile(path, first, 0o644))

	c, err := OpenHeader(path, WithBackup(format.CompressionZstd))
	require.NoError(t, err)
	require.Equal(t, StateOpen, c.State())
	require.Equal(t, 1, c.Level())
	_, err = c.Bytes()
	require.ErrorIs(t, err, errs.ErrNotParsed)
	require.ErrorIs(t, c.SetLevel(2), errs.ErrNotParsed)

	require.NoError(t, c.Parse())
	require.Equal(t, StateParsed, c.State())
	require.NoError(t, c.SetLevel(2))

	changed, err := c.Changed()
	require.NoError(t, err)
	require.True(t, changed)

	require.NoError(t, c.Save())
	require.Equal(t, StateSaved, c.State())
	changed, err = c.Changed()
	require.NoError(t, err)
	require.False(t, changed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"Tyrael.d2s", "Tyrael.d2s.bak.zst"}, names)

	backup, err := fileio.ReadBackup(fileio.BackupPath(path, format.CompressionZstd))
	require.NoError(t, err)
	require.Equal(t, first, backup)

	reopened, err := Open(path, WithStrictValidation())
	require.NoError(t, err)
	require.Equal(t, 2, reopened.Level())
	require.Equal(t, path, reopened.Path())
}

func TestCharacter_SaveWithoutPath(t *testing.T) {
	c, err := New(format.VR24, "Tyrael", barbarian)
	require.NoError(t, err)
	require.ErrorIs(t, c.Save(), errs.ErrNotParsed)

	path := filepath.Join(t.TempDir(), "Tyrael.d2s")
	require.NoError(t, c.SaveAs(path))
	require.Equal(t, path, c.Path())

	_, err = os.Stat(fileio.BackupPath(path, format.CompressionNone))
	require.True(t, os.IsNotExist(err))
}

func BenchmarkParse(b *testing.B) {
	c, err := New(format.VR24, "Tyrael", barbarian)
	if err != nil {
		b.Fatal(err)
	}

	ctx := item.NewContext(format.VR24)
	for range 20 {
		it, err := item.New("cap", ctx)
		if err != nil {
			b.Fatal(err)
		}

		if err := c.AddItem(it, item.PanelStash); err != nil {
			break
		}
	}

	data, err := c.Bytes()
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))

	for b.Loop() {
		if _, err := Parse(data); err != nil {
			b.Fatal(err)
		}
	}
}

func TestCharacter_DuplicateItemIDs(t *testing.T) {
	c, err := New(format.VR24, "Tyrael", barbarian)
	require.NoError(t, err)
	ctx := item.NewContext(format.VR24)

	for range 3 {
		it, err := item.New("cap", ctx)
		require.NoError(t, err)
		it.Extended.ID = 0xD2
		require.NoError(t, c.AddItem(it, item.PanelStash))
	}

	require.Len(t, c.DuplicateItemIDs(), 2)
	require.Equal(t, 2, c.FixDuplicateItemIDs())
	require.Empty(t, c.DuplicateItemIDs())
	require.Zero(t, c.FixDuplicateItemIDs())
}
