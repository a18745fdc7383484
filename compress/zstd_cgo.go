//go:build gozstd

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"

	"github.com/arloliu/d2s/errs"
)

// zstdLevel matches SpeedBetterCompression of the pure Go encoder.
const zstdLevel = 7

// Compress compresses the input data using Zstandard compression.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: %d bytes", errs.ErrImageTooLarge, len(data))
	}

	return gozstd.CompressLevel(nil, data, zstdLevel), nil
}

// Decompress decompresses Zstd-compressed data.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	if len(out) > MaxImageSize {
		return nil, fmt.Errorf("%w: zstd backup holds %d bytes", errs.ErrImageTooLarge, len(out))
	}

	return out, nil
}
