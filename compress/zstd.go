package compress

// ZstdCompressor provides Zstandard compression for backup images.
//
// Save files are small and highly repetitive (zero padding, repeated item
// headers), so zstd usually shrinks them to a fraction of their size.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd compressor instance
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
