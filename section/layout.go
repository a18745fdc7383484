package section

import "github.com/arloliu/d2s/format"

// Magic is the little-endian value of the first four bytes of a character file.
const Magic uint32 = 0xAA55AA55

const (
	magicOffset   = 0
	versionOffset = 4
)

// Field is the byte range of one header field. Offset is -1 when the field does
// not exist in the layout.
type Field struct {
	Offset int
	Size   int
}

// Present reports whether the field exists.
func (f Field) Present() bool {
	return f.Offset >= 0
}

func (f Field) end() int {
	return f.Offset + f.Size
}

var absent = Field{Offset: -1}

// Layout is the header field map of one version epoch.
type Layout struct {
	Epoch format.Epoch
	// Size is the number of header bytes before the quest region.
	Size int

	FileSize     Field
	Checksum     Field
	ActiveWeapon Field
	Name         Field
	Status       Field
	Progression  Field
	Class        Field
	Level        Field
	Created      Field
	LastPlayed   Field
	Hotkeys      Field // 16 x u32 skill ids
	MouseSkills  Field // left, right, swap left, swap right
	Appearance   Field
	Difficulty   Field // one progression byte per difficulty
	MapID        Field

	MercDead       Field
	MercID         Field
	MercNameIndex  Field
	MercType       Field
	MercExperience Field
}

var (
	classicLayout = Layout{
		Epoch:          format.EpochClassic,
		Size:           0xA0,
		FileSize:       absent,
		Checksum:       absent,
		ActiveWeapon:   absent,
		Name:           Field{0x08, 16},
		Status:         Field{0x18, 1},
		Progression:    Field{0x19, 1},
		Class:          Field{0x1A, 1},
		Level:          Field{0x1C, 1},
		Created:        Field{0x20, 4},
		LastPlayed:     Field{0x24, 4},
		Hotkeys:        Field{0x28, 64},
		MouseSkills:    Field{0x68, 16},
		Appearance:     Field{0x78, 32},
		Difficulty:     Field{0x98, 3},
		MapID:          Field{0x9B, 4},
		MercDead:       absent,
		MercID:         absent,
		MercNameIndex:  absent,
		MercType:       absent,
		MercExperience: absent,
	}

	transitionalLayout = Layout{
		Epoch:          format.EpochTransitional,
		Size:           0x14F,
		FileSize:       Field{0x08, 4},
		Checksum:       Field{0x0C, 4},
		ActiveWeapon:   Field{0x10, 4},
		Name:           Field{0x14, 16},
		Status:         Field{0x24, 1},
		Progression:    Field{0x25, 1},
		Class:          Field{0x28, 1},
		Level:          Field{0x2B, 1},
		Created:        Field{0x2C, 4},
		LastPlayed:     Field{0x30, 4},
		Hotkeys:        Field{0x38, 64},
		MouseSkills:    Field{0x78, 16},
		Appearance:     Field{0x88, 32},
		Difficulty:     Field{0xA8, 3},
		MapID:          Field{0xAB, 4},
		MercDead:       absent,
		MercID:         absent,
		MercNameIndex:  absent,
		MercType:       absent,
		MercExperience: absent,
	}

	modernLayout = func() Layout {
		l := transitionalLayout
		l.Epoch = format.EpochModern
		l.MercDead = Field{0xB1, 2}
		l.MercID = Field{0xB3, 4}
		l.MercNameIndex = Field{0xB7, 2}
		l.MercType = Field{0xB9, 2}
		l.MercExperience = Field{0xBB, 4}

		return l
	}()

	// from 2.4 the name moved behind the mercenary block
	r24Layout = func() Layout {
		l := modernLayout
		l.Name = Field{0x12B, 16}

		return l
	}()
)

// LayoutFor returns the header layout of version v.
func LayoutFor(v format.Version) Layout {
	switch {
	case v >= format.VR24:
		return r24Layout
	case v.Epoch() == format.EpochModern:
		return modernLayout
	case v.Epoch() == format.EpochTransitional:
		return transitionalLayout
	default:
		return classicLayout
	}
}

// HeaderSize returns the header size of version v in bytes.
func HeaderSize(v format.Version) int {
	return LayoutFor(v).Size
}
