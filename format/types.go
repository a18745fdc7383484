package format

import "fmt"

type (
	// Version is the file format version stored at byte offset 4 of a character file.
	//
	// It is threaded explicitly through every codec entry point. Layout decisions are
	// made by switching on it, never by inspecting the data.
	Version uint32
	// CompressionType selects the codec used for optional backup files.
	CompressionType uint8
)

const (
	V100 Version = 71 // V100 covers 1.00 through 1.06.
	V107 Version = 87 // V107 is 1.07 and the first expansion release.
	V108 Version = 89 // V108 is 1.08 (standard game files).
	V109 Version = 92 // V109 is 1.09, the first version carrying a checksum.
	V110 Version = 96 // V110 covers 1.10 through 1.14d.
	VR20 Version = 97 // VR20 is the remastered 2.0 - 2.3 format.
	VR24 Version = 98 // VR24 is the remastered 2.4+ format.

	CompressionNone CompressionType = 0x1 // CompressionNone writes backups verbatim.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// Epoch groups versions that share a header byte layout.
type Epoch uint8

const (
	EpochClassic      Epoch = iota + 1 // before the 9-bit stat list
	EpochTransitional                  // 1.07 - 1.09
	EpochModern                        // 1.10 and the remastered releases
)

var knownVersions = []Version{V100, V107, V108, V109, V110, VR20, VR24}

// KnownVersions returns every supported version in ascending order.
func KnownVersions() []Version {
	out := make([]Version, len(knownVersions))
	copy(out, knownVersions)

	return out
}

// IsKnown reports whether v is one of the supported versions.
func (v Version) IsKnown() bool {
	for _, k := range knownVersions {
		if k == v {
			return true
		}
	}

	return false
}

// Epoch returns the header layout epoch of v.
func (v Version) Epoch() Epoch {
	switch {
	case v < V107:
		return EpochClassic
	case v < V110:
		return EpochTransitional
	default:
		return EpochModern
	}
}

// HasChecksum reports whether files of this version carry a checksum field.
func (v Version) HasChecksum() bool {
	return v >= V109
}

// HasFileSize reports whether files of this version carry a file size field.
func (v Version) HasFileSize() bool {
	return v >= V107
}

// LegacyStats reports whether the stat block uses the 16-bit presence mask form.
func (v Version) LegacyStats() bool {
	return v < V107
}

// Remastered reports whether v is one of the remastered formats.
func (v Version) Remastered() bool {
	return v >= VR20
}

func (v Version) String() string {
	switch v {
	case V100:
		return "1.00-1.06"
	case V107:
		return "1.07"
	case V108:
		return "1.08"
	case V109:
		return "1.09"
	case V110:
		return "1.10-1.14d"
	case VR20:
		return "R2.0-2.3"
	case VR24:
		return "R2.4+"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(v))
	}
}

func (e Epoch) String() string {
	switch e {
	case EpochClassic:
		return "Classic"
	case EpochTransitional:
		return "Transitional"
	case EpochModern:
		return "Modern"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a case-sensitive lowercase name to a CompressionType.
func ParseCompression(name string) (CompressionType, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// Extension returns the file suffix appended to backup files for c.
func (c CompressionType) Extension() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionS2:
		return ".s2"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}
