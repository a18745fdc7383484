// Package statblock implements the character stat block: sixteen named
// counters, the per-skill point bytes, and the two wire forms they are stored
// in.
//
// Files before 1.07 store the counters behind a 16-bit presence mask, later
// files as a sentinel-terminated list of (9-bit id, value) pairs. Both decode
// into the same StatBlock, so callers never see the difference.
package statblock

import (
	"fmt"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/tables"
)

// Counter identifies one stat block counter. The value is also the id of the
// counter in the modern wire form and its bit in the legacy presence mask.
type Counter uint8

const (
	Strength Counter = iota
	Energy
	Dexterity
	Vitality
	StatPoints
	SkillPoints
	Life
	MaxLife
	Mana
	MaxMana
	Stamina
	MaxStamina
	Level
	Experience
	Gold
	StashGold
)

// NumCounters is the number of stat block counters.
const NumCounters = 16

// SkillSlots is the number of per-skill bytes stored after the counters.
const SkillSlots = 30

// StashGoldLimit is the most gold the stash holds.
const StashGoldLimit = 2_500_000

type counterDef struct {
	name       string
	bits       int // width in the modern form
	legacyBits int // width in the presence mask form
	min        uint32
	fixed      bool // 8.8 fixed point
}

var counterDefs = [NumCounters]counterDef{
	Strength:    {name: "strength", bits: 10, legacyBits: 16},
	Energy:      {name: "energy", bits: 10, legacyBits: 16},
	Dexterity:   {name: "dexterity", bits: 10, legacyBits: 16},
	Vitality:    {name: "vitality", bits: 10, legacyBits: 16},
	StatPoints:  {name: "statpts", bits: 10, legacyBits: 16},
	SkillPoints: {name: "newskills", bits: 8, legacyBits: 16},
	Life:        {name: "hitpoints", bits: 21, legacyBits: 32, fixed: true},
	MaxLife:     {name: "maxhp", bits: 21, legacyBits: 32, fixed: true},
	Mana:        {name: "mana", bits: 21, legacyBits: 32, fixed: true},
	MaxMana:     {name: "maxmana", bits: 21, legacyBits: 32, fixed: true},
	Stamina:     {name: "stamina", bits: 21, legacyBits: 32, fixed: true},
	MaxStamina:  {name: "maxstamina", bits: 21, legacyBits: 32, fixed: true},
	Level:       {name: "level", bits: 7, legacyBits: 8, min: 1},
	Experience:  {name: "experience", bits: 32, legacyBits: 32},
	Gold:        {name: "gold", bits: 25, legacyBits: 32},
	StashGold:   {name: "goldbank", bits: 25, legacyBits: 32},
}

func (c Counter) String() string {
	if c < NumCounters {
		return counterDefs[c].name
	}

	return fmt.Sprintf("counter(%d)", uint8(c))
}

// Bits returns the width of c in the modern form.
func (c Counter) Bits() int {
	return counterDefs[c].bits
}

// BitsFor returns the width of c in the wire form used by v.
func (c Counter) BitsFor(v format.Version) int {
	if v.LegacyStats() {
		return counterDefs[c].legacyBits
	}

	return counterDefs[c].bits
}

// FixedPoint reports whether c holds an 8.8 fixed point value.
func (c Counter) FixedPoint() bool {
	return counterDefs[c].fixed
}

// Default returns the value an absent counter reads as.
func (c Counter) Default() uint32 {
	return counterDefs[c].min
}

// StatBlock is the canonical in-memory stat block. The zero value is a valid
// block with every counter absent.
type StatBlock struct {
	values  [NumCounters]uint32
	present uint16

	// Skills holds the points invested in each skill slot of the class.
	Skills [SkillSlots]uint8

	pad uint64 // alignment bits after the counters
}

// New returns an empty stat block.
func New() *StatBlock {
	return &StatBlock{}
}

// Has reports whether c is stored.
func (sb *StatBlock) Has(c Counter) bool {
	return c < NumCounters && sb.present&(1<<c) != 0
}

// Mask returns the presence mask: bit i is set when counter i is stored.
func (sb *StatBlock) Mask() uint16 {
	return sb.present
}

// Get returns the value of c, or its default when c is absent.
func (sb *StatBlock) Get(c Counter) uint32 {
	if !sb.Has(c) {
		return c.Default()
	}

	return sb.values[c]
}

// Set stores v in c. The value must fit one of the wire forms; whether it
// fits the form of a given file is checked by Validate and Encode.
//
// Returns:
//   - error: errs.ErrValueOverflow if v does not fit the counter in any form
func (sb *StatBlock) Set(c Counter, v uint32) error {
	if c >= NumCounters {
		return fmt.Errorf("%w: %s", errs.ErrUnknownStat, c)
	}

	if err := fits(c, v, counterDefs[c].legacyBits); err != nil {
		return err
	}

	sb.values[c] = v
	sb.present |= 1 << c

	return nil
}

// Validate reports the first stored counter whose value does not fit its
// width in the wire form used by v.
//
// Returns:
//   - error: errs.ErrValueOverflow naming the counter
func (sb *StatBlock) Validate(v format.Version) error {
	for c := Counter(0); c < NumCounters; c++ {
		if !sb.Has(c) {
			continue
		}

		if err := fits(c, sb.values[c], c.BitsFor(v)); err != nil {
			return err
		}
	}

	return nil
}

func fits(c Counter, v uint32, bits int) error {
	if bits < 32 && v >= 1<<bits {
		return fmt.Errorf("%w: %s = %d exceeds %d bits", errs.ErrValueOverflow, c, v, bits)
	}

	return nil
}

// Clear removes c so it reads as its default.
func (sb *StatBlock) Clear(c Counter) {
	if c >= NumCounters {
		return
	}
	sb.values[c] = 0
	sb.present &^= 1 << c
}

// Whole returns the integer part of the fixed point counter c.
func (sb *StatBlock) Whole(c Counter) uint32 {
	if c.FixedPoint() {
		return sb.Get(c) >> 8
	}

	return sb.Get(c)
}

// SetWhole stores an integer value in counter c, converting it to 8.8 fixed
// point when needed.
func (sb *StatBlock) SetWhole(c Counter, v uint32) error {
	if c.FixedPoint() {
		v <<= 8
	}

	return sb.Set(c, v)
}

// Level returns the character level.
func (sb *StatBlock) Level() int {
	return int(sb.Get(Level))
}

// SkillPointsUsed returns the total of the per-skill bytes.
func (sb *StatBlock) SkillPointsUsed() int {
	n := 0
	for _, s := range sb.Skills {
		n += int(s)
	}

	return n
}

// StatPointsUsed returns the attribute points spent above the class base.
func (sb *StatBlock) StatPointsUsed(cls tables.Class) int {
	used := 0
	for _, a := range attributes(cls) {
		if v := int(sb.Get(a.counter)) - a.base; v > 0 {
			used += v
		}
	}

	return used
}

// StatPointsEarned returns the attribute points granted by reaching level.
// Quest rewards are not tracked.
func StatPointsEarned(level int) int {
	return 5 * max(level-1, 0)
}

// SkillPointsEarned returns the skill points granted by reaching level.
func SkillPointsEarned(level int) int {
	return max(level-1, 0)
}

// LevelForExperience returns the level reached with exp experience points.
func LevelForExperience(tb *tables.Tables, exp uint32) int {
	return tb.LevelForExperience(exp)
}

// ExperienceForLevel returns the experience needed to reach level.
func ExperienceForLevel(tb *tables.Tables, level int) uint32 {
	return tb.ExperienceForLevel(level)
}

// GoldLimit returns the most gold a character of level carries.
func GoldLimit(level int) uint32 {
	return uint32(max(level, 1)) * 10_000 //nolint:gosec
}

type attribute struct {
	counter Counter
	base    int
}

func attributes(cls tables.Class) [4]attribute {
	return [4]attribute{
		{Strength, cls.Strength},
		{Energy, cls.Energy},
		{Dexterity, cls.Dexterity},
		{Vitality, cls.Vitality},
	}
}

// SetLevel moves the character to level, setting its experience to the
// level's threshold. Points granted or taken by the level change are added to
// or removed from the unspent pools, never below zero.
func (sb *StatBlock) SetLevel(tb *tables.Tables, level int) error {
	if level < 1 || level > tb.MaxLevel() {
		return fmt.Errorf("%w: %d (1-%d)", errs.ErrInvalidLevel, level, tb.MaxLevel())
	}

	old := sb.Level()
	statDelta := StatPointsEarned(level) - StatPointsEarned(old)
	skillDelta := SkillPointsEarned(level) - SkillPointsEarned(old)

	if err := sb.Set(Level, uint32(level)); err != nil { //nolint:gosec
		return err
	}

	if err := sb.Set(Experience, ExperienceForLevel(tb, level)); err != nil {
		return err
	}

	if err := sb.adjust(StatPoints, statDelta); err != nil {
		return err
	}

	return sb.adjust(SkillPoints, skillDelta)
}

func (sb *StatBlock) adjust(c Counter, delta int) error {
	if delta == 0 {
		return nil
	}

	v := max(int(sb.Get(c))+delta, 0)
	if v == 0 {
		sb.Clear(c)
		return nil
	}

	return sb.Set(c, uint32(v)) //nolint:gosec
}

// ResetAttributes returns strength, energy, dexterity and vitality to the
// class base, refunds the spent points to the unspent pool and recomputes the
// life, mana and stamina pools. It returns the number of refunded points.
func (sb *StatBlock) ResetAttributes(cls tables.Class) (int, error) {
	refund := sb.StatPointsUsed(cls)
	for _, a := range attributes(cls) {
		if err := sb.Set(a.counter, uint32(max(a.base, 0))); err != nil { //nolint:gosec
			return 0, err
		}
	}

	if err := sb.adjust(StatPoints, refund); err != nil {
		return 0, err
	}

	if err := sb.RecomputePools(cls); err != nil {
		return 0, err
	}

	return refund, nil
}

// ResetSkills clears the per-skill bytes and refunds their points to the
// unspent pool. It returns the number of refunded points.
func (sb *StatBlock) ResetSkills() (int, error) {
	refund := sb.SkillPointsUsed()
	if refund == 0 {
		return 0, nil
	}

	if err := sb.adjust(SkillPoints, refund); err != nil {
		return 0, err
	}
	sb.Skills = [SkillSlots]uint8{}

	return refund, nil
}

// RecomputePools sets current and maximum life, mana and stamina from the
// class growth rates, the level and the invested attributes.
func (sb *StatBlock) RecomputePools(cls tables.Class) error {
	levels := float64(max(sb.Level()-1, 0))
	vit := float64(int(sb.Get(Vitality)) - cls.Vitality)
	ene := float64(int(sb.Get(Energy)) - cls.Energy)

	pools := []struct {
		cur, max Counter
		value    float64
	}{
		{Life, MaxLife, float64(cls.Life) + cls.LifePerLevel*levels + cls.LifePerVitality*vit},
		{Mana, MaxMana, float64(cls.Mana) + cls.ManaPerLevel*levels + cls.ManaPerEnergy*ene},
		{Stamina, MaxStamina, float64(cls.Stamina) + cls.StaminaPerLevel*levels + cls.StaminaPerVit*vit},
	}

	for _, p := range pools {
		fixed := uint32(max(p.value, 1) * 256) //nolint:gosec
		if err := sb.Set(p.max, fixed); err != nil {
			return err
		}

		if err := sb.Set(p.cur, fixed); err != nil {
			return err
		}
	}

	return nil
}
