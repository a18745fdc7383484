package compress

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/d2s/errs"
)

// lz4SizePrefix is the little-endian image length stored before the block;
// LZ4 blocks do not record their decoded size.
const lz4SizePrefix = 4

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor writes a backup image as its length followed by one LZ4 block.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses a complete image.
//
// Returns:
//   - []byte: Size prefix and block (nil if input is empty)
//   - error: errs.ErrImageTooLarge above MaxImageSize
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: %d bytes", errs.ErrImageTooLarge, len(data))
	}

	dst := make([]byte, lz4SizePrefix+lz4.CompressBlockBound(len(data)))
	binary.LittleEndian.PutUint32(dst, uint32(len(data))) //nolint:gosec

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[lz4SizePrefix:])
	if err != nil {
		return nil, err
	}

	return dst[:lz4SizePrefix+n], nil
}

// Decompress restores an image written by Compress. The output buffer is
// sized from the prefix, so a damaged prefix fails before allocating.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if len(data) < lz4SizePrefix {
		return nil, fmt.Errorf("%w: lz4 backup of %d bytes has no size prefix", errs.ErrTruncatedInput, len(data))
	}

	size := binary.LittleEndian.Uint32(data)
	if size > MaxImageSize {
		return nil, fmt.Errorf("%w: lz4 backup declares %d bytes", errs.ErrImageTooLarge, size)
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data[lz4SizePrefix:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}

	if n != int(size) {
		return nil, fmt.Errorf("%w: lz4 backup holds %d of %d bytes", errs.ErrTruncatedInput, n, size)
	}

	return out, nil
}
