package character

import (
	"encoding/binary"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/internal/hash"
	"github.com/arloliu/d2s/item"
	"github.com/arloliu/d2s/section"
	"github.com/arloliu/d2s/statblock"
	"github.com/arloliu/d2s/tables"
)

// Section markers of the expansion sections.
var (
	MercenaryMarker = []byte("jf")
	GolemMarker     = []byte("kf")
)

// Section names used in errors and logs.
const (
	SectionHeader    = "header"
	SectionQuests    = "quests"
	SectionWaypoints = "waypoints"
	SectionNPC       = "npc"
	SectionStats     = "stats"
	SectionItems     = "items"
	SectionCorpses   = "corpses"
	SectionMerc      = "mercenary"
	SectionGolem     = "golem"
)

const corpseHeaderSize = 12

// Corpse is a dead body left in the world together with the items it carries.
type Corpse struct {
	Unknown uint32
	X, Y    uint32
	Items   *item.Collection
}

// Character is one decoded save file.
//
// A Character is not safe for concurrent use. Views returned by its item
// collections must not be kept across a mutating call.
type Character struct {
	cfg   *config
	state State
	path  string
	raw   []byte

	header    *section.Header
	quests    *section.Region
	waypoints *section.Region
	npc       *section.Region
	stats     *statblock.StatBlock
	items     *item.Collection

	hasCorpses bool
	corpses    []*Corpse
	hasMerc    bool
	merc       *item.Collection
	hasGolem   bool
	golem      *item.Item
	trailing   []byte
	degraded   []string

	checksumOK  bool
	fingerprint uint64
}

// Open reads the file at path and decodes all of its sections.
//
// Returns:
//   - *Character: The parsed character in StateParsed
//   - error: errs.ErrInvalidHeader, errs.ErrUnsupportedVersion, an
//     errs.SectionError naming the failing section, or errs.ErrChecksumMismatch
//     under strict validation
func Open(path string, opts ...Option) (*Character, error) {
	c, err := OpenHeader(path, opts...)
	if err != nil {
		return nil, err
	}

	if err := c.Parse(); err != nil {
		return nil, err
	}

	return c, nil
}

// OpenHeader reads the file at path and validates its header and checksum
// without decoding the sections. The result is in StateOpen.
func OpenHeader(path string, opts ...Option) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c, err := open(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.path = path

	return c, nil
}

// Parse decodes data as a save file. The result has no path; use SaveAs to
// write it.
func Parse(data []byte, opts ...Option) (*Character, error) {
	c, err := open(append([]byte(nil), data...), opts)
	if err != nil {
		return nil, err
	}

	if err := c.Parse(); err != nil {
		return nil, err
	}

	return c, nil
}

func open(data []byte, opts []Option) (*Character, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	header, err := section.ParseHeader(data)
	if err != nil {
		return nil, err
	}

	c := &Character{
		cfg:         cfg,
		state:       StateOpen,
		raw:         data,
		header:      header,
		checksumOK:  true,
		fingerprint: hash.Sum(data),
	}

	if err := c.validateImage(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Character) validateImage() error {
	v := c.header.Version()
	if v.HasFileSize() {
		declared := c.header.FileSize()
		if int(declared) != len(c.raw) {
			if c.cfg.strict {
				return errs.Section(SectionHeader, 0, fmt.Errorf("%w: file size field %d, file has %d bytes",
					errs.ErrStrictValidation, declared, len(c.raw)))
			}
			c.cfg.logger.Warn("file size field does not match file",
				zap.Uint32("declared", declared), zap.Int("actual", len(c.raw)))
		}
	}

	ok, stored, computed := section.VerifyChecksum(c.raw, c.header.ChecksumField())
	c.checksumOK = ok
	if ok {
		return nil
	}

	if c.cfg.strict {
		return fmt.Errorf("%w: stored %08x, computed %08x", errs.ErrChecksumMismatch, stored, computed)
	}
	c.cfg.logger.Warn("checksum mismatch",
		zap.String("version", v.String()),
		zap.Uint32("stored", stored),
		zap.Uint32("computed", computed))

	return nil
}

// Parse decodes the sections of a character in StateOpen. It is a no-op for
// characters that are already decoded.
func (c *Character) Parse() error {
	switch {
	case c.state == StateUnopened:
		return fmt.Errorf("%w: character was never opened", errs.ErrNotParsed)
	case c.state.decoded():
		return nil
	}

	cur := bitstream.NewCursor(c.raw)
	cur.Seek(c.header.Size() * 8)
	if err := c.decodeBody(cur); err != nil {
		return err
	}
	c.state = StateParsed

	return nil
}

func (c *Character) itemContext() item.Context {
	return item.Context{Version: c.header.Version(), Tables: c.cfg.tables}
}

func (c *Character) decodeBody(cur *bitstream.Cursor) error {
	v := c.header.Version()
	regions := []struct {
		name string
		spec section.RegionSpec
		dst  **section.Region
	}{
		{SectionQuests, section.QuestSpec, &c.quests},
		{SectionWaypoints, section.WaypointSpec, &c.waypoints},
		{SectionNPC, section.NPCSpec, &c.npc},
	}
	for _, r := range regions {
		off := cur.BytePos()
		region, err := section.DecodeRegion(cur, r.spec)
		if err != nil {
			return errs.Section(r.name, off, err)
		}
		*r.dst = region
	}

	off := cur.BytePos()
	stats, err := statblock.Decode(cur, v)
	if err != nil {
		return errs.Section(SectionStats, off, err)
	}
	c.stats = stats

	ctx := c.itemContext()
	off = cur.BytePos()
	items, err := item.DecodeSection(cur, ctx)
	if err != nil {
		return errs.Section(SectionItems, off, err)
	}
	c.items = item.NewCollection(ctx, items)

	optional := []struct {
		name    string
		present bool
		decode  func(*bitstream.Cursor) error
	}{
		{SectionCorpses, v >= format.V107, c.decodeCorpses},
		{SectionMerc, c.header.Status().IsExpansion(), c.decodeMerc},
		{SectionGolem, c.header.Status().IsExpansion(), c.decodeGolem},
	}
	for _, o := range optional {
		if !o.present || cur.Remaining() == 0 {
			continue
		}

		degraded, err := c.decodeOptional(cur, o.name, o.decode)
		if err != nil {
			return err
		}

		if degraded {
			break
		}
	}

	rest, err := cur.ReadBytes(cur.Remaining() / 8)
	if err != nil {
		return errs.Section("trailing", cur.BytePos(), err)
	}
	c.trailing = append([]byte(nil), rest...)

	return nil
}

// decodeOptional runs decode and, when it fails without strict validation,
// rewinds to the section start so the remaining bytes are kept verbatim.
func (c *Character) decodeOptional(cur *bitstream.Cursor, name string, decode func(*bitstream.Cursor) error) (bool, error) {
	start := cur.BitPos()
	err := decode(cur)
	if err == nil {
		return false, nil
	}

	if c.cfg.strict {
		return false, errs.Section(name, start/8, fmt.Errorf("%w: %w", errs.ErrStrictValidation, err))
	}

	c.cfg.logger.Warn("optional section degraded to absent",
		zap.String("section", name),
		zap.Int("offset", start/8),
		zap.Error(err))
	cur.Seek(start)
	c.degraded = append(c.degraded, name)

	return true, nil
}

func (c *Character) decodeCorpses(cur *bitstream.Cursor) error {
	if err := expect(cur, item.SectionMarker, SectionCorpses); err != nil {
		return err
	}

	count, err := cur.ReadUint16()
	if err != nil {
		return err
	}

	ctx := c.itemContext()
	corpses := make([]*Corpse, 0, count)
	for i := 0; i < int(count); i++ {
		head, err := cur.ReadBytes(corpseHeaderSize)
		if err != nil {
			return err
		}

		items, err := item.DecodeSection(cur, ctx)
		if err != nil {
			return fmt.Errorf("corpse %d: %w", i, err)
		}

		corpses = append(corpses, &Corpse{
			Unknown: binary.LittleEndian.Uint32(head[0:]),
			X:       binary.LittleEndian.Uint32(head[4:]),
			Y:       binary.LittleEndian.Uint32(head[8:]),
			Items:   item.NewCollection(ctx, items),
		})
	}

	c.hasCorpses = true
	c.corpses = corpses

	return nil
}

func (c *Character) decodeMerc(cur *bitstream.Cursor) error {
	if err := expect(cur, MercenaryMarker, SectionMerc); err != nil {
		return err
	}

	var merc *item.Collection
	if _, hired := c.header.Mercenary(); hired {
		ctx := c.itemContext()
		items, err := item.DecodeSection(cur, ctx)
		if err != nil {
			return err
		}
		merc = item.NewCollection(ctx, items)
	}

	c.hasMerc = true
	c.merc = merc

	return nil
}

func (c *Character) decodeGolem(cur *bitstream.Cursor) error {
	if err := expect(cur, GolemMarker, SectionGolem); err != nil {
		return err
	}

	flag, err := cur.ReadUint8()
	if err != nil {
		return err
	}

	var golem *item.Item
	switch flag {
	case 0:
	case 1:
		golem, err = item.Decode(cur, c.itemContext())
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: golem flag %d", errs.ErrCorruptSection, flag)
	}

	c.hasGolem = true
	c.golem = golem

	return nil
}

func expect(cur *bitstream.Cursor, marker []byte, name string) error {
	ok, err := cur.ExpectBytes(marker)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: missing %s marker %q", errs.ErrCorruptSection, name, marker)
	}

	return nil
}

// State returns the lifecycle state.
func (c *Character) State() State {
	return c.state
}

// Path returns the file the character was read from or last saved to.
func (c *Character) Path() string {
	return c.path
}

// Version returns the file format version.
func (c *Character) Version() format.Version {
	return c.header.Version()
}

// Header returns the file header. Changes made through it are not tracked;
// prefer the Character methods.
func (c *Character) Header() *section.Header {
	return c.header
}

// ChecksumValid reports whether the stored checksum matched when the file
// was opened. Files without a checksum field always report true.
func (c *Character) ChecksumValid() bool {
	return c.checksumOK
}

// Degraded returns the names of optional sections that failed to decode and
// were kept as raw bytes.
func (c *Character) Degraded() []string {
	return append([]string(nil), c.degraded...)
}

// Name returns the character name, or "" when the name field is not valid text.
func (c *Character) Name() string {
	name, err := c.header.Name()
	if err != nil {
		return ""
	}

	return name
}

// ClassID returns the class id stored in the header.
func (c *Character) ClassID() uint8 {
	return c.header.Class()
}

// Class returns the class definition of the character.
func (c *Character) Class() (tables.Class, error) {
	cls, ok := c.cfg.tables.Class(c.header.Class())
	if !ok {
		return tables.Class{}, fmt.Errorf("%w: %d", errs.ErrUnknownClass, c.header.Class())
	}

	return cls, nil
}

// Status returns the header status flags.
func (c *Character) Status() section.Status {
	return c.header.Status()
}

// Level returns the character level from the stat block, or the header level
// when the sections are not decoded.
func (c *Character) Level() int {
	if !c.state.decoded() {
		return int(c.header.Level())
	}

	return c.stats.Level()
}

// Stats returns a copy of the stat block. Use the Character mutators to
// change it.
func (c *Character) Stats() statblock.StatBlock {
	if c.stats == nil {
		return *statblock.New()
	}

	return *c.stats
}

// Quests returns the quest region.
func (c *Character) Quests() *section.Region {
	return c.quests
}

// Waypoints returns the waypoint region.
func (c *Character) Waypoints() *section.Region {
	return c.waypoints
}

// Items returns the main item collection. In-place changes to its items are
// detected by Changed, not by State.
func (c *Character) Items() *item.Collection {
	return c.items
}

// NumberOfItems returns the number of top-level items in the main list.
func (c *Character) NumberOfItems() int {
	if c.items == nil {
		return 0
	}

	return c.items.Len()
}

// Corpses returns the corpses.
func (c *Character) Corpses() []*Corpse {
	return c.corpses
}

// Mercenary returns the hired mercenary, if any.
func (c *Character) Mercenary() (section.Mercenary, bool) {
	return c.header.Mercenary()
}

// MercenaryItems returns the items equipped by the mercenary.
//
// Returns:
//   - *item.Collection: The mercenary items
//   - error: errs.ErrNoMercenary when no mercenary section was decoded
func (c *Character) MercenaryItems() (*item.Collection, error) {
	if c.merc == nil {
		return nil, errs.ErrNoMercenary
	}

	return c.merc, nil
}

// Golem returns the item that summoned the iron golem, if any.
func (c *Character) Golem() (*item.Item, bool) {
	return c.golem, c.golem != nil
}

// Changed reports whether the encoded image differs from the one read from
// or last written to disk, including in-place item changes made through Items.
func (c *Character) Changed() (bool, error) {
	data, err := c.Bytes()
	if err != nil {
		return false, err
	}

	return hash.Sum(data) != c.fingerprint, nil
}
