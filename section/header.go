package section

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/internal/textenc"
)

// Status is the character status byte.
type Status uint8

const (
	StatusHardcore  Status = 1 << 2
	StatusDied      Status = 1 << 3
	StatusExpansion Status = 1 << 5
	StatusLadder    Status = 1 << 6
)

// Has reports whether every bit of mask is set.
func (s Status) Has(mask Status) bool {
	return s&mask == mask
}

// With returns s with mask set or cleared.
func (s Status) With(mask Status, on bool) Status {
	if on {
		return s | mask
	}

	return s &^ mask
}

// IsExpansion reports whether the character is an expansion character.
func (s Status) IsExpansion() bool {
	return s.Has(StatusExpansion)
}

// IsHardcore reports whether the character is hardcore.
func (s Status) IsHardcore() bool {
	return s.Has(StatusHardcore)
}

// Mercenary is the hireling record stored in the header.
type Mercenary struct {
	Dead       bool
	ID         uint32
	NameIndex  uint16
	Type       uint16
	Experience uint32
}

// Header is the fixed-size header of a character file.
//
// The raw bytes are owned by the header; accessors decode and patch fields in
// place.
type Header struct {
	version format.Version
	layout  Layout
	raw     []byte
}

// ParseHeader validates the magic and version of data and copies the header
// bytes.
//
// Parameters:
//   - data: File contents, at least the header
//
// Returns:
//   - *Header: The parsed header
//   - error: errs.ErrInvalidHeader, errs.ErrUnsupportedVersion or errs.ErrTruncatedInput
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < versionOffset+4 {
		return nil, fmt.Errorf("%w: %d bytes", errs.ErrInvalidHeader, len(data))
	}

	if m := binary.LittleEndian.Uint32(data[magicOffset:]); m != Magic {
		return nil, fmt.Errorf("%w: magic %#08x", errs.ErrInvalidHeader, m)
	}

	v := format.Version(binary.LittleEndian.Uint32(data[versionOffset:]))
	if !v.IsKnown() {
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, uint32(v))
	}

	lay := LayoutFor(v)
	if len(data) < lay.Size {
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", errs.ErrTruncatedInput, lay.Size, len(data))
	}

	h := &Header{version: v, layout: lay, raw: make([]byte, lay.Size)}
	copy(h.raw, data)

	return h, nil
}

// NewHeader returns a zeroed header of version v with magic and version set.
func NewHeader(v format.Version) *Header {
	lay := LayoutFor(v)
	h := &Header{version: v, layout: lay, raw: make([]byte, lay.Size)}
	binary.LittleEndian.PutUint32(h.raw[magicOffset:], Magic)
	binary.LittleEndian.PutUint32(h.raw[versionOffset:], uint32(v))

	return h
}

// Version returns the file format version.
func (h *Header) Version() format.Version {
	return h.version
}

// Layout returns the field map of the header.
func (h *Header) Layout() Layout {
	return h.layout
}

// Bytes returns a copy of the header bytes.
func (h *Header) Bytes() []byte {
	out := make([]byte, len(h.raw))
	copy(out, h.raw)

	return out
}

// Size returns the header size in bytes.
func (h *Header) Size() int {
	return len(h.raw)
}

func (h *Header) uint(f Field) uint32 {
	if !f.Present() {
		return 0
	}

	b := h.raw[f.Offset:f.end()]
	switch f.Size {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b))
	default:
		return binary.LittleEndian.Uint32(b)
	}
}

func (h *Header) putUint(f Field, v uint32) {
	if !f.Present() {
		return
	}

	b := h.raw[f.Offset:f.end()]
	switch f.Size {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v)) //nolint:gosec
	default:
		binary.LittleEndian.PutUint32(b, v)
	}
}

// ChecksumField returns the checksum field, absent before 1.09.
func (h *Header) ChecksumField() Field {
	if !h.version.HasChecksum() {
		return absent
	}

	return h.layout.Checksum
}

// Checksum returns the stored checksum.
func (h *Header) Checksum() uint32 {
	return h.uint(h.ChecksumField())
}

// FileSize returns the stored file size, or 0 when the version has none.
func (h *Header) FileSize() uint32 {
	if !h.version.HasFileSize() {
		return 0
	}

	return h.uint(h.layout.FileSize)
}

// SetFileSize stores the file size.
func (h *Header) SetFileSize(n uint32) {
	if h.version.HasFileSize() {
		h.putUint(h.layout.FileSize, n)
	}
}

// Name returns the character name.
func (h *Header) Name() (string, error) {
	f := h.layout.Name

	return textenc.Decode(h.raw[f.Offset:f.end()], h.version)
}

// SetName validates and stores the character name.
//
// Returns:
//   - error: errs.ErrInvalidName or errs.ErrNameTooLong
func (h *Header) SetName(name string) error {
	if err := textenc.ValidateCharacter(name); err != nil {
		return err
	}

	f := h.layout.Name
	field, err := textenc.EncodeField(name, h.version, f.Size)
	if err != nil {
		return err
	}
	copy(h.raw[f.Offset:], field)

	return nil
}

// Status returns the status byte.
func (h *Header) Status() Status {
	return Status(h.uint(h.layout.Status)) //nolint:gosec
}

// SetStatus stores the status byte.
func (h *Header) SetStatus(s Status) {
	h.putUint(h.layout.Status, uint32(s))
}

// Progression returns the title progression byte.
func (h *Header) Progression() uint8 {
	return uint8(h.uint(h.layout.Progression)) //nolint:gosec
}

// Class returns the class id.
func (h *Header) Class() uint8 {
	return uint8(h.uint(h.layout.Class)) //nolint:gosec
}

// SetClass stores the class id.
func (h *Header) SetClass(id uint8) {
	h.putUint(h.layout.Class, uint32(id))
}

// Level returns the level shown on the character selection screen.
func (h *Header) Level() uint8 {
	return uint8(h.uint(h.layout.Level)) //nolint:gosec
}

// SetLevel stores the displayed level.
func (h *Header) SetLevel(level uint8) {
	h.putUint(h.layout.Level, uint32(level))
}

// Created returns the creation time.
func (h *Header) Created() time.Time {
	return time.Unix(int64(h.uint(h.layout.Created)), 0).UTC()
}

// LastPlayed returns the time the character was last saved by the game.
func (h *Header) LastPlayed() time.Time {
	return time.Unix(int64(h.uint(h.layout.LastPlayed)), 0).UTC()
}

// SetLastPlayed stores the last played time with second precision.
func (h *Header) SetLastPlayed(t time.Time) {
	h.putUint(h.layout.LastPlayed, uint32(t.Unix())) //nolint:gosec
}

// Difficulty returns the progression byte of each difficulty.
func (h *Header) Difficulty() [3]uint8 {
	var out [3]uint8
	f := h.layout.Difficulty
	copy(out[:], h.raw[f.Offset:f.end()])

	return out
}

// MapID returns the map seed.
func (h *Header) MapID() uint32 {
	return h.uint(h.layout.MapID)
}

// Hotkeys returns the skill ids bound to the sixteen hotkeys.
func (h *Header) Hotkeys() [16]uint32 {
	var out [16]uint32
	f := h.layout.Hotkeys
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(h.raw[f.Offset+4*i:])
	}

	return out
}

// Mercenary returns the hireling record. The second result is false when the
// layout has no hireling fields or none is hired.
func (h *Header) Mercenary() (Mercenary, bool) {
	l := h.layout
	if !l.MercID.Present() {
		return Mercenary{}, false
	}

	m := Mercenary{
		Dead:       h.uint(l.MercDead) != 0,
		ID:         h.uint(l.MercID),
		NameIndex:  uint16(h.uint(l.MercNameIndex)), //nolint:gosec
		Type:       uint16(h.uint(l.MercType)),      //nolint:gosec
		Experience: h.uint(l.MercExperience),
	}

	return m, m.ID != 0
}
