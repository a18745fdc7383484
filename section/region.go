package section

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/errs"
)

// RegionSpec describes a fixed-size region that starts with a marker and a
// declared length.
type RegionSpec struct {
	Name   string
	Marker []byte
	// HasVersion is set when a u32 version follows the marker.
	HasVersion bool
	Version    uint32
	// Size is the total region size including marker, version and length.
	Size int
}

func (s RegionSpec) lengthOffset() int {
	if s.HasVersion {
		return len(s.Marker) + 4
	}

	return len(s.Marker)
}

// Quest, waypoint and NPC regions.
var (
	QuestSpec    = RegionSpec{Name: "quests", Marker: []byte("Woo!"), HasVersion: true, Version: 6, Size: 298}
	WaypointSpec = RegionSpec{Name: "waypoints", Marker: []byte("WS"), HasVersion: true, Version: 1, Size: 80}
	NPCSpec      = RegionSpec{Name: "npc", Marker: []byte("w4"), Size: 52}
)

// Region is the verbatim content of one fixed-size region.
type Region struct {
	spec RegionSpec
	raw  []byte
}

// NewRegion returns an empty region with its marker, version and length set.
func NewRegion(spec RegionSpec) *Region {
	r := &Region{spec: spec, raw: make([]byte, spec.Size)}
	copy(r.raw, spec.Marker)
	if spec.HasVersion {
		binary.LittleEndian.PutUint32(r.raw[len(spec.Marker):], spec.Version)
	}
	binary.LittleEndian.PutUint16(r.raw[spec.lengthOffset():], uint16(spec.Size)) //nolint:gosec

	return r
}

// DecodeRegion reads a region and validates its marker and declared length.
//
// Returns:
//   - *Region: The region bytes
//   - error: errs.ErrCorruptSection on marker or length mismatch, errs.ErrTruncatedInput
func DecodeRegion(cur *bitstream.Cursor, spec RegionSpec) (*Region, error) {
	ok, err := cur.ExpectBytes(spec.Marker)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w: missing %q marker", errs.ErrCorruptSection, spec.Marker)
	}

	head, err := cur.ReadBytes(spec.lengthOffset() + 2 - len(spec.Marker))
	if err != nil {
		return nil, err
	}

	declared := int(binary.LittleEndian.Uint16(head[len(head)-2:]))
	if declared != spec.Size {
		return nil, fmt.Errorf("%w: %s declares %d bytes, want %d", errs.ErrCorruptSection, spec.Name, declared, spec.Size)
	}

	body, err := cur.ReadBytes(spec.Size - spec.lengthOffset() - 2)
	if err != nil {
		return nil, err
	}

	r := &Region{spec: spec, raw: make([]byte, 0, spec.Size)}
	r.raw = append(r.raw, spec.Marker...)
	r.raw = append(r.raw, head...)
	r.raw = append(r.raw, body...)

	return r, nil
}

// Encode writes the region bytes.
func (r *Region) Encode(cur *bitstream.Cursor) error {
	return cur.WriteBytes(r.raw)
}

// Spec returns the layout of the region.
func (r *Region) Spec() RegionSpec {
	return r.spec
}

// Bytes returns a copy of the region bytes.
func (r *Region) Bytes() []byte {
	return append([]byte(nil), r.raw...)
}

// Payload returns the bytes after the declared length. The slice aliases the
// region.
func (r *Region) Payload() []byte {
	return r.raw[r.spec.lengthOffset()+2:]
}

// Difficulties in the order the quest and waypoint regions store them.
const (
	Normal = iota
	Nightmare
	Hell
	numDifficulties
)

const (
	questWordsPerDifficulty = 48
	waypointBlockSize       = 24
	waypointBitsOffset      = 2
	// NumWaypoints is the number of waypoints tracked per difficulty.
	NumWaypoints = 39
)

// Quest returns quest word i of difficulty d from the quest region. Bit 0 of a
// word marks the quest completed.
func (r *Region) Quest(d, i int) (uint16, error) {
	off, err := r.questOffset(d, i)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(r.Payload()[off:]), nil
}

// SetQuest stores quest word i of difficulty d.
func (r *Region) SetQuest(d, i int, word uint16) error {
	off, err := r.questOffset(d, i)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(r.Payload()[off:], word)

	return nil
}

func (r *Region) questOffset(d, i int) (int, error) {
	if r.spec.Name != QuestSpec.Name {
		return 0, fmt.Errorf("%w: %s is not the quest region", errs.ErrCorruptSection, r.spec.Name)
	}

	if d < 0 || d >= numDifficulties || i < 0 || i >= questWordsPerDifficulty {
		return 0, fmt.Errorf("%w: quest %d of difficulty %d", errs.ErrValueOverflow, i, d)
	}

	return (d*questWordsPerDifficulty + i) * 2, nil
}

// Waypoint reports whether waypoint i of difficulty d is active.
func (r *Region) Waypoint(d, i int) (bool, error) {
	byteOff, bit, err := r.waypointBit(d, i)
	if err != nil {
		return false, err
	}

	return r.Payload()[byteOff]&(1<<bit) != 0, nil
}

// SetWaypoint activates or clears waypoint i of difficulty d.
func (r *Region) SetWaypoint(d, i int, on bool) error {
	byteOff, bit, err := r.waypointBit(d, i)
	if err != nil {
		return err
	}

	if on {
		r.Payload()[byteOff] |= 1 << bit
	} else {
		r.Payload()[byteOff] &^= 1 << bit
	}

	return nil
}

func (r *Region) waypointBit(d, i int) (int, uint, error) {
	if r.spec.Name != WaypointSpec.Name {
		return 0, 0, fmt.Errorf("%w: %s is not the waypoint region", errs.ErrCorruptSection, r.spec.Name)
	}

	if d < 0 || d >= numDifficulties || i < 0 || i >= NumWaypoints {
		return 0, 0, fmt.Errorf("%w: waypoint %d of difficulty %d", errs.ErrValueOverflow, i, d)
	}

	return d*waypointBlockSize + waypointBitsOffset + i/8, uint(i % 8), nil //nolint:gosec
}
