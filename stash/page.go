package stash

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/item"
	"github.com/arloliu/d2s/section"
	"github.com/arloliu/d2s/statblock"
)

// Version is the only supported stash version.
const Version = format.VR24

// HeaderSize is the size of a page header in bytes.
const HeaderSize = 64

// GoldLimit is the most gold one page holds.
const GoldLimit = statblock.StashGoldLimit

const (
	flagsOffset    = 4
	versionOffset  = 8
	goldOffset     = 12
	lengthOffset   = 16
	reservedOffset = 20
)

// Header is the fixed page header.
type Header struct {
	Flags   uint32
	Version uint32
	Gold    uint32
	// Length is the page size in bytes, header included, as read from the file
	// or written by the last save.
	Length   uint32
	Reserved [HeaderSize - reservedOffset]byte
}

// ParseHeader decodes the page header at the start of data.
//
// Returns:
//   - Header: The decoded header
//   - error: errs.ErrTruncatedInput, errs.ErrInvalidHeader on bad magic or
//     errs.ErrUnsupportedVersion when the version is not 98
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: page header needs %d bytes, have %d", errs.ErrTruncatedInput, HeaderSize, len(data))
	}

	if m := binary.LittleEndian.Uint32(data); m != section.Magic {
		return Header{}, fmt.Errorf("%w: page magic %#08x", errs.ErrInvalidHeader, m)
	}

	h := Header{
		Flags:   binary.LittleEndian.Uint32(data[flagsOffset:]),
		Version: binary.LittleEndian.Uint32(data[versionOffset:]),
		Gold:    binary.LittleEndian.Uint32(data[goldOffset:]),
		Length:  binary.LittleEndian.Uint32(data[lengthOffset:]),
	}
	copy(h.Reserved[:], data[reservedOffset:HeaderSize])

	if format.Version(h.Version) != Version {
		return Header{}, fmt.Errorf("%w: stash version %d", errs.ErrUnsupportedVersion, h.Version)
	}

	if h.Length < HeaderSize {
		return Header{}, fmt.Errorf("%w: page length %d is shorter than its header", errs.ErrCorruptPage, h.Length)
	}

	return h, nil
}

// AppendBytes appends the encoded header to dst.
func (h Header) AppendBytes(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, section.Magic)
	dst = binary.LittleEndian.AppendUint32(dst, h.Flags)
	dst = binary.LittleEndian.AppendUint32(dst, h.Version)
	dst = binary.LittleEndian.AppendUint32(dst, h.Gold)
	dst = binary.LittleEndian.AppendUint32(dst, h.Length)

	return append(dst, h.Reserved[:]...)
}

// Page is one stash page. A page returned by Stash.Page is decoded; its items
// can be changed without touching other pages.
type Page struct {
	index  int
	header Header
	raw    []byte // page bytes as read, nil for new pages
	items  *item.Collection
	ctx    item.Context
	dirty  bool
	rev    uint64
}

func newPage(index int, ctx item.Context) *Page {
	return &Page{
		index:  index,
		header: Header{Version: uint32(Version), Length: HeaderSize + 4},
		items:  item.NewCollection(ctx, nil),
		ctx:    ctx,
		dirty:  true,
	}
}

// decode reads the item list of the page from cur, which must sit right after
// the page header. The list must end exactly at the declared page length.
func (p *Page) decode(cur *bitstream.Cursor, start int) error {
	items, err := item.DecodeSection(cur, p.ctx)
	if err != nil {
		return err
	}

	if used := cur.BytePos() - start; used != int(p.header.Length) {
		return fmt.Errorf("%w: item list ends at %d bytes, page length is %d", errs.ErrCorruptPage, used, p.header.Length)
	}

	p.items = item.NewCollection(p.ctx, items)
	p.rev = p.items.Revision()

	return nil
}

func (p *Page) appendTo(dst []byte) ([]byte, uint32, error) {
	if p.items == nil {
		return append(dst, p.raw...), p.header.Length, nil
	}

	cur := bitstream.NewWriter(max(len(p.raw), 256))
	if err := item.EncodeSection(cur, p.items.Items(), p.ctx); err != nil {
		return dst, 0, errs.Page(p.index, err)
	}

	h := p.header
	h.Length = uint32(HeaderSize + cur.Len()) //nolint:gosec
	dst = h.AppendBytes(dst)

	return append(dst, cur.Bytes()...), h.Length, nil
}

// Index returns the position of the page in the file.
func (p *Page) Index() int {
	return p.index
}

// Header returns a copy of the page header.
func (p *Page) Header() Header {
	return p.header
}

// Decoded reports whether the item list of the page has been decoded.
func (p *Page) Decoded() bool {
	return p.items != nil
}

// Items returns the items of the page, nil when the page is not decoded.
func (p *Page) Items() *item.Collection {
	return p.items
}

// Modified reports whether the page changed since it was read or saved.
func (p *Page) Modified() bool {
	return p.dirty || (p.items != nil && p.items.Revision() != p.rev)
}

// Gold returns the gold kept in the page.
func (p *Page) Gold() uint32 {
	return p.header.Gold
}

// SetGold sets the gold kept in the page.
//
// Returns:
//   - error: errs.ErrValueOverflow above GoldLimit
func (p *Page) SetGold(gold uint32) error {
	if gold > GoldLimit {
		return fmt.Errorf("%w: page gold %d exceeds %d", errs.ErrValueOverflow, gold, GoldLimit)
	}

	if gold != p.header.Gold {
		p.header.Gold = gold
		p.dirty = true
	}

	return nil
}

// AddItem stores it in the first free position of the page.
func (p *Page) AddItem(it *item.Item) error {
	if err := p.mutable(); err != nil {
		return err
	}

	return p.items.Place(it, item.PanelStash)
}

// RemoveItem removes the item at index i and returns it.
func (p *Page) RemoveItem(i int) (*item.Item, error) {
	if err := p.mutable(); err != nil {
		return nil, err
	}

	return p.items.Remove(i)
}

// RepairAll repairs the matching items and returns how many changed.
func (p *Page) RepairAll(f item.Filter) int {
	if p.mutable() != nil {
		return 0
	}

	return p.items.RepairAll(f)
}

// UpgradeGPSAll upgrades the matching gems, potions and skulls to their top
// tier and returns how many changed.
func (p *Page) UpgradeGPSAll(f item.Filter) int {
	if p.mutable() != nil {
		return 0
	}

	return p.items.UpgradeGPSAll(f)
}

// FillStackables fills the matching stackable items and returns how many
// changed.
func (p *Page) FillStackables(f item.Filter) int {
	if p.mutable() != nil {
		return 0
	}

	return p.items.FillStackables(f)
}

func (p *Page) mutable() error {
	if p.items == nil {
		return fmt.Errorf("%w: page %d is not decoded", errs.ErrNotParsed, p.index)
	}

	return nil
}

func (p *Page) saved(length uint32) {
	p.header.Length = length
	p.dirty = false
	if p.items != nil {
		p.rev = p.items.Revision()
	}
}
