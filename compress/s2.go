package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/d2s/errs"
)

// S2Compressor writes a backup image as one S2 block.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor for backup images.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses the input data. Images are small, so the better
// encoder is used.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: %d bytes", errs.ErrImageTooLarge, len(data))
	}

	return s2.EncodeBetter(nil, data), nil
}

// Decompress restores an image written by Compress.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	size, err := s2.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("s2 decompression failed: %w", err)
	}

	if size > MaxImageSize {
		return nil, fmt.Errorf("%w: s2 backup declares %d bytes", errs.ErrImageTooLarge, size)
	}

	out, err := s2.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("s2 decompression failed: %w", err)
	}

	return out, nil
}
