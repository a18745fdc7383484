// Package tables holds the immutable lookup tables the codecs consult: stat
// definitions, item types, runewords, character classes and the experience curve.
//
// Tables are a capability, not a singleton: every codec entry point takes a
// *Tables argument. Default returns the tables embedded in this package; Load
// builds them from any fs.FS laid out the same way (stats.yaml, items.yaml,
// runewords.yaml, classes.yaml, experience.yaml), which is how mods and tests
// supply their own data.
//
// A *Tables value is read-only after construction and safe for concurrent use.
package tables

import (
	"slices"
	"strings"
)

// StatSentinel is the reserved stat id that terminates every stat list.
const StatSentinel = 511

// StatIDBits is the width of a stat id on the wire.
const StatIDBits = 9

// StatDef describes how one item stat is stored.
type StatDef struct {
	ID        uint16   `yaml:"id"`
	Name      string   `yaml:"name"`
	Bits      int      `yaml:"bits"`       // value width
	Add       int      `yaml:"add"`        // stored = value + Add
	ParamBits int      `yaml:"param_bits"` // secondary id width, 0 when absent
	Chain     []uint16 `yaml:"chain"`      // stats whose values follow this one without an id
}

// Kind is the structural kind of an item type. It decides which extended fields
// an item record carries.
type Kind uint8

const (
	KindMisc Kind = iota
	KindArmor
	KindWeapon
)

func (k Kind) String() string {
	switch k {
	case KindArmor:
		return "armor"
	case KindWeapon:
		return "weapon"
	default:
		return "misc"
	}
}

// Category groups item types for bulk operations and derived views.
type Category string

const (
	CategoryGem     Category = "gem"
	CategorySkull   Category = "skull"
	CategoryPotion  Category = "potion"
	CategoryRejuv   Category = "rejuv"
	CategoryRune    Category = "rune"
	CategoryJewel   Category = "jewel"
	CategoryCharm   Category = "charm"
	CategoryTome    Category = "tome"
	CategoryScroll  Category = "scroll"
	CategoryAmmo    Category = "ammo"
	CategoryThrown  Category = "thrown"
	CategoryKey     Category = "key"
	CategoryRing    Category = "ring"
	CategoryAmulet  Category = "amulet"
	CategoryQuest   Category = "quest"
	CategoryGold    Category = "gold"
	CategoryEar     Category = "ear"
	CategoryGeneral Category = "general"
)

// ItemType is the template of an item base type, keyed by its type code.
type ItemType struct {
	Code          string   `yaml:"code"`
	Name          string   `yaml:"name"`
	KindName      string   `yaml:"kind"`
	Category      Category `yaml:"category"`
	Width         int      `yaml:"width"`
	Height        int      `yaml:"height"`
	MaxSockets    int      `yaml:"max_sockets"`
	Stackable     bool     `yaml:"stackable"`
	MaxStack      int      `yaml:"max_stack"`
	MaxDurability int      `yaml:"durability"`
	MinDefense    int      `yaml:"min_defense"`
	MaxDefense    int      `yaml:"max_defense"`
	Compact       bool     `yaml:"compact"`
	Upgrade       string   `yaml:"upgrade"` // next gem/potion/skull tier
	Level         int      `yaml:"level"`

	kind Kind
}

// Kind returns the structural kind of the type.
func (t ItemType) Kind() Kind {
	return t.kind
}

// GPS reports whether the type is a gem, potion or skull.
func (t ItemType) GPS() bool {
	switch t.Category {
	case CategoryGem, CategorySkull, CategoryPotion, CategoryRejuv:
		return true
	default:
		return false
	}
}

// IsTome reports whether records of this type carry the tome data field.
func (t ItemType) IsTome() bool {
	return t.Category == CategoryTome
}

// HasDurability reports whether records of this type carry durability fields.
func (t ItemType) HasDurability() bool {
	return t.kind == KindArmor || t.kind == KindWeapon
}

// HasQuantity reports whether records of this type carry a quantity field.
func (t ItemType) HasQuantity() bool {
	return t.Stackable
}

// PropertyValue is one stat entry of a table-defined property list (runewords).
type PropertyValue struct {
	ID    uint16 `yaml:"id"`
	Value int64  `yaml:"value"`
	Param uint32 `yaml:"param"`
}

// Runeword is a rune sequence recipe and the attributes it grants.
type Runeword struct {
	ID         uint16          `yaml:"id"`
	Name       string          `yaml:"name"`
	Runes      []string        `yaml:"runes"`
	Kinds      []string        `yaml:"kinds"`
	Properties []PropertyValue `yaml:"properties"`
}

// Class holds the starting attributes and growth rates of a character class.
// Growth rates are in whole points and may be fractional (1.5 life per level).
type Class struct {
	ID              uint8   `yaml:"id"`
	Name            string  `yaml:"name"`
	Code            string  `yaml:"code"`
	Expansion       bool    `yaml:"expansion"`
	Strength        int     `yaml:"strength"`
	Dexterity       int     `yaml:"dexterity"`
	Vitality        int     `yaml:"vitality"`
	Energy          int     `yaml:"energy"`
	Life            int     `yaml:"life"`
	LifePerLevel    float64 `yaml:"life_per_level"`
	LifePerVitality float64 `yaml:"life_per_vitality"`
	Stamina         int     `yaml:"stamina"`
	StaminaPerLevel float64 `yaml:"stamina_per_level"`
	StaminaPerVit   float64 `yaml:"stamina_per_vitality"`
	Mana            int     `yaml:"mana"`
	ManaPerLevel    float64 `yaml:"mana_per_level"`
	ManaPerEnergy   float64 `yaml:"mana_per_energy"`
}

// Tables is the loaded, immutable set of lookup tables.
type Tables struct {
	stats      map[uint16]StatDef
	items      map[string]ItemType
	runewords  []Runeword
	chainHead  map[uint16]uint16 // follower id -> head id
	classes    map[uint8]Class
	experience []uint32 // experience[i] is the minimum for level i+1

	unknownStatWidth int
}

// Stat returns the definition of stat id.
func (t *Tables) Stat(id uint16) (StatDef, bool) {
	def, ok := t.stats[id]
	return def, ok
}

// ChainHead returns the id of the stat whose chain carries id, if any.
func (t *Tables) ChainHead(id uint16) (uint16, bool) {
	head, ok := t.chainHead[id]
	return head, ok
}

// UnknownStatWidth returns the fallback value width used for stat ids missing
// from the table, or 0 when unknown ids are treated as corrupt.
func (t *Tables) UnknownStatWidth() int {
	return t.unknownStatWidth
}

// ItemType returns the item type for a code. Codes are matched after trimming
// the space padding used on the wire.
func (t *Tables) ItemType(code string) (ItemType, bool) {
	it, ok := t.items[strings.TrimRight(code, " ")]
	return it, ok
}

// ItemTypes returns all item types sorted by code.
func (t *Tables) ItemTypes() []ItemType {
	out := make([]ItemType, 0, len(t.items))
	for _, it := range t.items {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b ItemType) int { return strings.Compare(a.Code, b.Code) })

	return out
}

// Runeword returns the runeword with the given id.
func (t *Tables) Runeword(id uint16) (Runeword, bool) {
	for _, rw := range t.runewords {
		if rw.ID == id {
			return rw, true
		}
	}

	return Runeword{}, false
}

// RunewordByRunes returns the runeword formed by runes in socket order.
func (t *Tables) RunewordByRunes(runes []string) (Runeword, bool) {
	for _, rw := range t.runewords {
		if slices.Equal(rw.Runes, runes) {
			return rw, true
		}
	}

	return Runeword{}, false
}

// RunewordByName returns the runeword with a case-insensitive name match.
func (t *Tables) RunewordByName(name string) (Runeword, bool) {
	for _, rw := range t.runewords {
		if strings.EqualFold(rw.Name, name) {
			return rw, true
		}
	}

	return Runeword{}, false
}

// Class returns the class with the given id.
func (t *Tables) Class(id uint8) (Class, bool) {
	c, ok := t.classes[id]
	return c, ok
}

// MaxLevel returns the highest character level in the experience table.
func (t *Tables) MaxLevel() int {
	return len(t.experience)
}

// ExperienceForLevel returns the minimum experience of level (1-based). Levels
// outside the table are clamped.
func (t *Tables) ExperienceForLevel(level int) uint32 {
	if len(t.experience) == 0 {
		return 0
	}

	if level < 1 {
		level = 1
	}

	if level > len(t.experience) {
		level = len(t.experience)
	}

	return t.experience[level-1]
}

// LevelForExperience returns the level reached with exp experience points.
func (t *Tables) LevelForExperience(exp uint32) int {
	level := 1
	for i, threshold := range t.experience {
		if exp >= threshold {
			level = i + 1
		}
	}

	return level
}
