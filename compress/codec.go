package compress

import (
	"fmt"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
)

// MaxImageSize is the largest image the backup codecs accept. Saves and
// stashes are far smaller; larger input on decompression means a damaged
// backup.
const MaxImageSize = 16 << 20

// Compressor compresses a complete save or stash image before it is written
// as a backup file.
//
// Memory management:
//   - Returned slice is newly allocated and owned by the caller
//   - Input slice is not modified
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores an image written by the matching Compressor.
//
// Implementations must be safe for concurrent use. An error is returned when
// the input is corrupted or was produced by a different algorithm.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// Stats describes one compression run, used when logging backup writes.
type Stats struct {
	Algorithm      format.CompressionType
	OriginalSize   int
	CompressedSize int
}

// Ratio returns compressed size / original size, or 0 for an empty input.
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space saved as a percentage (0-100).
func (s Stats) SpaceSavings() float64 {
	return (1 - s.Ratio()) * 100
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for the specified compression type.
//
// Returns:
//   - Codec: Shared codec instance, safe for concurrent use
//   - error: errs.ErrUnsupportedCompression for unknown types
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}

// Compress compresses data with the codec for compressionType and reports
// the sizes involved.
func Compress(compressionType format.CompressionType, data []byte) ([]byte, Stats, error) {
	stats := Stats{Algorithm: compressionType, OriginalSize: len(data)}

	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, stats, err
	}

	out, err := codec.Compress(data)
	if err != nil {
		return nil, stats, fmt.Errorf("%s compression: %w", compressionType, err)
	}
	stats.CompressedSize = len(out)

	return out, stats, nil
}

// Decompress restores data compressed with compressionType.
func Decompress(compressionType format.CompressionType, data []byte) ([]byte, error) {
	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, err
	}

	out, err := codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%s decompression: %w", compressionType, err)
	}

	return out, nil
}
