package section

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/stretchr/testify/require"
)

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		v        format.Version
		epoch    format.Epoch
		size     int
		name     int
		hasMerc  bool
		fileSize bool
	}{
		{format.V100, format.EpochClassic, 0xA0, 0x08, false, false},
		{format.V107, format.EpochTransitional, 0x14F, 0x14, false, true},
		{format.V109, format.EpochTransitional, 0x14F, 0x14, false, true},
		{format.V110, format.EpochModern, 0x14F, 0x14, true, true},
		{format.VR20, format.EpochModern, 0x14F, 0x14, true, true},
		{format.VR24, format.EpochModern, 0x14F, 0x12B, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.v.String(), func(t *testing.T) {
			l := LayoutFor(tt.v)
			require.Equal(t, tt.epoch, l.Epoch)
			require.Equal(t, tt.size, l.Size)
			require.Equal(t, tt.size, HeaderSize(tt.v))
			require.Equal(t, tt.name, l.Name.Offset)
			require.Equal(t, tt.hasMerc, l.MercID.Present())
			require.Equal(t, tt.fileSize, l.FileSize.Present())
			require.LessOrEqual(t, l.MapID.end(), l.Size)
		})
	}
}

func TestHeader_Fields(t *testing.T) {
	for _, v := range format.KnownVersions() {
		t.Run(v.String(), func(t *testing.T) {
			h := NewHeader(v)
			require.Equal(t, v, h.Version())
			require.Equal(t, HeaderSize(v), h.Size())

			require.NoError(t, h.SetName("Tyrael-Two"))
			h.SetClass(4)
			h.SetLevel(42)
			h.SetStatus(Status(0).With(StatusExpansion, true).With(StatusHardcore, true))
			h.SetFileSize(1234)
			played := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			h.SetLastPlayed(played)

			parsed, err := ParseHeader(h.Bytes())
			require.NoError(t, err)

			name, err := parsed.Name()
			require.NoError(t, err)
			require.Equal(t, "Tyrael-Two", name)
			require.Equal(t, uint8(4), parsed.Class())
			require.Equal(t, uint8(42), parsed.Level())
			require.True(t, parsed.Status().IsExpansion())
			require.True(t, parsed.Status().IsHardcore())
			require.False(t, parsed.Status().Has(StatusDied))
			require.Equal(t, played, parsed.LastPlayed())

			if v.HasFileSize() {
				require.Equal(t, uint32(1234), parsed.FileSize())
			} else {
				require.Zero(t, parsed.FileSize())
			}

			require.Equal(t, v.HasChecksum(), parsed.ChecksumField().Present())
			require.Equal(t, h.Bytes(), parsed.Bytes())
		})
	}
}

func TestHeader_SetName(t *testing.T) {
	tests := []struct {
		name    string
		v       format.Version
		input   string
		wantErr error
	}{
		{"ascii", format.V110, "Deckard", nil},
		{"windows-1252", format.V110, "Däckard", nil},
		{"utf-8", format.VR24, "Дэккард", nil},
		{"utf-8 too long for field", format.VR24, "Дэккардааа", errs.ErrNameTooLong},
		{"digits", format.V110, "Deck4rd", errs.ErrInvalidName},
		{"too short", format.V110, "D", errs.ErrInvalidName},
		{"leading dash", format.V110, "-Deckard", errs.ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeader(tt.v)
			err := h.SetName(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			got, err := h.Name()
			require.NoError(t, err)
			require.Equal(t, tt.input, got)
		})
	}
}

func TestParseHeader_Errors(t *testing.T) {
	valid := NewHeader(format.V110).Bytes()

	badMagic := append([]byte(nil), valid...)
	badMagic[0] = 0

	badVersion := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badVersion[versionOffset:], 95)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, errs.ErrInvalidHeader},
		{"bad magic", badMagic, errs.ErrInvalidHeader},
		{"unknown version", badVersion, errs.ErrUnsupportedVersion},
		{"truncated", valid[:0x40], errs.ErrTruncatedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader(tt.data)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHeader_Mercenary(t *testing.T) {
	h := NewHeader(format.V110)
	_, ok := h.Mercenary()
	require.False(t, ok)

	raw := h.Bytes()
	binary.LittleEndian.PutUint32(raw[0xB3:], 0xDEADBEEF)
	binary.LittleEndian.PutUint16(raw[0xB9:], 7)
	binary.LittleEndian.PutUint32(raw[0xBB:], 5000)

	parsed, err := ParseHeader(raw)
	require.NoError(t, err)
	m, ok := parsed.Mercenary()
	require.True(t, ok)
	require.Equal(t, Mercenary{ID: 0xDEADBEEF, Type: 7, Experience: 5000}, m)

	_, ok = NewHeader(format.V100).Mercenary()
	require.False(t, ok)
}
