// Package item implements the bit-packed item record, item sections, single-item
// files, and the collections that own decoded items.
//
// An item record starts with a 32-bit flag word and a location block, then the
// type code. Simple items end there. Extended items carry an id, level, quality
// specific record, optional runeword/personalization/realm data, defense,
// durability, quantity, socket count and one or more stat lists. Items filling
// the sockets of an extended item follow their parent record and are owned by
// it.
//
// Every field the decoder reads is kept, including unknown flag bits and the
// padding that aligns each record to a byte, so that re-encoding an unmodified
// item reproduces its input bit for bit.
package item

import (
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/property"
	"github.com/arloliu/d2s/tables"
)

// Context carries the format version and lookup tables through the codec.
type Context struct {
	Version format.Version
	Tables  *tables.Tables

	// OpaqueUnknown keeps the remainder of an extended record with an unknown
	// type code as raw bits instead of failing. Only sound when the record is the
	// last thing in the buffer, as in single-item files.
	OpaqueUnknown bool
}

// NewContext returns a context for v using the default tables.
func NewContext(v format.Version) Context {
	return Context{Version: v, Tables: tables.Default()}
}

// Location is where an item sits.
type Location uint8

const (
	LocationStored   Location = 0
	LocationEquipped Location = 1
	LocationBelt     Location = 2
	LocationCursor   Location = 4
	LocationSocket   Location = 6
)

func (l Location) String() string {
	switch l {
	case LocationStored:
		return "stored"
	case LocationEquipped:
		return "equipped"
	case LocationBelt:
		return "belt"
	case LocationCursor:
		return "cursor"
	case LocationSocket:
		return "socket"
	default:
		return "unknown"
	}
}

// Panel is the storage grid of a stored item.
type Panel uint8

const (
	PanelNone      Panel = 0
	PanelInventory Panel = 1
	PanelCube      Panel = 4
	PanelStash     Panel = 5
)

func (p Panel) String() string {
	switch p {
	case PanelInventory:
		return "inventory"
	case PanelCube:
		return "cube"
	case PanelStash:
		return "stash"
	default:
		return "none"
	}
}

// Quality is the item quality tag.
type Quality uint8

const (
	QualityLow      Quality = 1
	QualityNormal   Quality = 2
	QualitySuperior Quality = 3
	QualityMagic    Quality = 4
	QualitySet      Quality = 5
	QualityRare     Quality = 6
	QualityUnique   Quality = 7
	QualityCrafted  Quality = 8
	QualityTempered Quality = 9
)

func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityNormal:
		return "normal"
	case QualitySuperior:
		return "superior"
	case QualityMagic:
		return "magic"
	case QualitySet:
		return "set"
	case QualityRare:
		return "rare"
	case QualityUnique:
		return "unique"
	case QualityCrafted:
		return "crafted"
	case QualityTempered:
		return "tempered"
	default:
		return "invalid"
	}
}

// Flags is the raw 32-bit flag word at the start of every record. Bits without
// accessors are preserved as read.
type Flags uint32

const (
	FlagIdentified   Flags = 1 << 4
	FlagSocketed     Flags = 1 << 11
	FlagNew          Flags = 1 << 13
	FlagEar          Flags = 1 << 16
	FlagStarter      Flags = 1 << 17
	FlagSimple       Flags = 1 << 21
	FlagEthereal     Flags = 1 << 22
	FlagAlwaysSet    Flags = 1 << 23
	FlagPersonalized Flags = 1 << 24
	FlagRuneword     Flags = 1 << 26
)

// Has reports whether every bit of mask is set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// With returns f with mask set or cleared.
func (f Flags) With(mask Flags, on bool) Flags {
	if on {
		return f | mask
	}

	return f &^ mask
}

// Ear is the record of a player ear.
type Ear struct {
	Class uint8
	Level uint8
	Name  string
}

// Item is one decoded item record and the items socketed into it.
type Item struct {
	Flags     Flags
	Format    uint16 // item format field
	Location  Location
	EquipSlot uint8
	Column    uint8
	Row       uint8
	Panel     Panel

	// Code is the type code without wire padding. Unset for ears.
	Code string
	Ear  *Ear

	// Extended is nil for simple items.
	Extended *Extended

	// Socketed holds the items filling the sockets, in socket order.
	Socketed []Item

	rawCode    string // wire code when its padding is not plain spaces
	pad        uint64 // alignment bits after the record
	tail       []byte // opaque remainder of an unknown record, LSB-first
	tailBits   int
	tailFilled int

	combined property.List
	cached   bool
}

// Extended holds the fields of a non-simple item.
type Extended struct {
	ID      uint32
	Level   uint8
	Quality Quality

	HasPicture bool
	Picture    uint8

	HasClassAffix bool
	ClassAffix    uint16

	Record QualityRecord

	RunewordID    uint16
	RunewordExtra uint8

	// Name is the personalized name.
	Name string

	TomeData uint8

	HasRealm bool
	Realm    [realmWords]uint32

	Defense       int
	MaxDurability int
	Durability    int
	Quantity      int
	TotalSockets  int

	// SetMask selects which set bonus lists follow the property list.
	SetMask uint8

	Properties         property.List
	SetProperties      []property.List
	RunewordProperties property.List
}

// QualityRecord is the quality specific part of an extended item.
type QualityRecord interface {
	accepts(q Quality) bool
}

// LowQualityRecord is the record of low quality items.
type LowQualityRecord struct{ Type uint8 }

// NormalRecord marks normal quality items, which carry no record.
type NormalRecord struct{}

// SuperiorRecord is the record of superior items.
type SuperiorRecord struct{ Type uint8 }

// MagicRecord holds the affix pair of a magic item.
type MagicRecord struct {
	Prefix uint16
	Suffix uint16
}

// SetRecord holds the set item id.
type SetRecord struct{ ID uint16 }

// UniqueRecord holds the unique item id.
type UniqueRecord struct{ ID uint16 }

// Affix is one optional affix slot of a rare-shaped record.
type Affix struct {
	Present bool
	ID      uint16
}

// RareRecord is shared by rare, crafted and tempered items.
type RareRecord struct {
	Name1    uint8
	Name2    uint8
	Prefixes []Affix
	Suffixes []Affix
}

func (LowQualityRecord) accepts(q Quality) bool { return q == QualityLow }
func (NormalRecord) accepts(q Quality) bool     { return q == QualityNormal }
func (SuperiorRecord) accepts(q Quality) bool   { return q == QualitySuperior }
func (MagicRecord) accepts(q Quality) bool      { return q == QualityMagic }
func (SetRecord) accepts(q Quality) bool        { return q == QualitySet }
func (UniqueRecord) accepts(q Quality) bool     { return q == QualityUnique }

func (RareRecord) accepts(q Quality) bool {
	return q == QualityRare || q == QualityCrafted || q == QualityTempered
}

// Simple reports whether the record has no extended fields.
func (it *Item) Simple() bool {
	return it.Flags.Has(FlagSimple)
}

// IsEar reports whether the item is a player ear.
func (it *Item) IsEar() bool {
	return it.Flags.Has(FlagEar)
}

// Ethereal reports whether the ethereal flag is set.
func (it *Item) Ethereal() bool {
	return it.Flags.Has(FlagEthereal)
}

// Runeword reports whether the runeword flag is set.
func (it *Item) Runeword() bool {
	return it.Flags.Has(FlagRuneword)
}

// Personalized reports whether the item carries a personalized name.
func (it *Item) Personalized() bool {
	return it.Flags.Has(FlagPersonalized)
}

// SocketedCount returns the number of filled sockets.
func (it *Item) SocketedCount() int {
	return len(it.Socketed)
}

// Opaque reports whether part of the record was kept as raw bits because its
// type code is unknown.
func (it *Item) Opaque() bool {
	return it.tailBits > 0
}

// Type returns the table entry of the item type.
func (it *Item) Type(tb *tables.Tables) (tables.ItemType, bool) {
	if it.IsEar() {
		return tb.ItemType("ear")
	}

	return tb.ItemType(it.Code)
}

// Size returns the grid footprint of the item in cells.
func (it *Item) Size(tb *tables.Tables) (int, int) {
	t, ok := it.Type(tb)
	if !ok {
		return 1, 1
	}

	return t.Width, t.Height
}

// Clone returns a deep copy of it.
func (it *Item) Clone() *Item {
	cp := *it
	cp.combined = nil
	cp.cached = false
	if it.tail != nil {
		cp.tail = append([]byte(nil), it.tail...)
	}

	if it.Ear != nil {
		e := *it.Ear
		cp.Ear = &e
	}

	if it.Extended != nil {
		ext := *it.Extended
		ext.Properties = it.Extended.Properties.Clone()
		ext.RunewordProperties = it.Extended.RunewordProperties.Clone()
		if it.Extended.SetProperties != nil {
			ext.SetProperties = make([]property.List, len(it.Extended.SetProperties))
			for i, l := range it.Extended.SetProperties {
				ext.SetProperties[i] = l.Clone()
			}
		}

		if rr, ok := ext.Record.(RareRecord); ok {
			rr.Prefixes = append([]Affix(nil), rr.Prefixes...)
			rr.Suffixes = append([]Affix(nil), rr.Suffixes...)
			ext.Record = rr
		}
		cp.Extended = &ext
	}

	if it.Socketed != nil {
		cp.Socketed = make([]Item, len(it.Socketed))
		for i := range it.Socketed {
			cp.Socketed[i] = *it.Socketed[i].Clone()
		}
	}

	return &cp
}

// CombinedProperties returns the merged stat view of the item: its own list,
// active set and runeword lists, and the lists of socketed items. The view is
// rebuilt after any mutation.
func (it *Item) CombinedProperties() property.List {
	if it.cached {
		return it.combined
	}

	var lists []property.List
	if ext := it.Extended; ext != nil {
		lists = append(lists, ext.Properties)
		lists = append(lists, ext.SetProperties...)
		lists = append(lists, ext.RunewordProperties)
	}

	for i := range it.Socketed {
		if child := it.Socketed[i].Extended; child != nil {
			lists = append(lists, child.Properties)
		}
	}

	it.combined = property.Combined(lists...)
	it.cached = true

	return it.combined
}

func (it *Item) invalidate() {
	it.combined = nil
	it.cached = false
}
