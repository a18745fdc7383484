package item

import "github.com/arloliu/d2s/format"

// recordMarker prefixes every item record up to the remastered formats.
var recordMarker = []byte("JM")

// layout holds the field widths that change between format versions.
type layout struct {
	marker           bool // "JM" before each record
	versionBits      int  // item format field
	huffmanCode      bool // type code is Huffman coded instead of four 8-bit chars
	simpleSocketBits int  // filled-socket field of simple items
	defenseBits      int
	curDurBits       int
	nameCharBits     int // personalized name characters
	rareAffixesAlt   int // affix pairs for jewels and crafted items
}

var (
	layoutLegacy = layout{
		marker:           true,
		versionBits:      10,
		simpleSocketBits: 3,
		defenseBits:      10,
		curDurBits:       8,
		nameCharBits:     7,
		rareAffixesAlt:   3,
	}
	layoutV110 = layout{
		marker:           true,
		versionBits:      10,
		simpleSocketBits: 3,
		defenseBits:      11,
		curDurBits:       9,
		nameCharBits:     7,
		rareAffixesAlt:   3,
	}
	layoutR20 = layout{
		versionBits:      3,
		huffmanCode:      true,
		simpleSocketBits: 1,
		defenseBits:      11,
		curDurBits:       9,
		nameCharBits:     8,
		rareAffixesAlt:   3,
	}
	layoutR24 = layout{
		versionBits:      3,
		huffmanCode:      true,
		simpleSocketBits: 1,
		defenseBits:      11,
		curDurBits:       9,
		nameCharBits:     8,
		rareAffixesAlt:   4,
	}
)

func layoutFor(v format.Version) layout {
	switch {
	case v >= format.VR24:
		return layoutR24
	case v >= format.VR20:
		return layoutR20
	case v >= format.V110:
		return layoutV110
	default:
		return layoutLegacy
	}
}

// Fixed field widths shared by every layout.
const (
	flagBits        = 32
	locationBits    = 3
	equipBits       = 4
	columnBits      = 4
	rowBits         = 4
	panelBits       = 3
	earClassBits    = 3
	earLevelBits    = 7
	socketFillBits  = 3
	idBits          = 32
	levelBits       = 7
	qualityBits     = 4
	pictureBits     = 3
	classAffixBits  = 11
	lowQualityBits  = 3
	superiorBits    = 3
	magicAffixBits  = 11
	setIDBits       = 12
	rareNameBits    = 8
	rareAffixBits   = 11
	uniqueIDBits    = 12
	runewordIDBits  = 12
	runewordPadBits = 4
	tomeBits        = 5
	realmWords      = 3
	maxDurBits      = 8
	quantityBits    = 9
	totalSocketBits = 4
	setMaskBits     = 5
	maxNameLen      = 15
	defenseBias     = 10
	rareAffixPairs  = 3
)
