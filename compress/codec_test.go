package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/stretchr/testify/require"
)

// getAllCodecs returns all available codec implementations for testing
func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"LZ4":  NewLZ4Compressor(),
		"S2":   NewS2Compressor(),
		"Zstd": NewZstdCompressor(),
	}
}

// saveLikeImage mimics a character file: a header with padding, fixed regions
// and a run of similar item records.
func saveLikeImage(items int) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x55, 0xAA, 0x55, 0xAA, 0x62, 0x00, 0x00, 0x00})
	buf.Write(make([]byte, 0x147))
	buf.WriteString("Woo!")
	buf.Write(make([]byte, 294))
	buf.WriteString("JM")
	for i := range items {
		buf.Write([]byte{0x10, 0x00, 0x80, 0x00, 0x05, byte(i), 0x64, 0xF4, 0xF6, 0x1E, 0x02, byte(i * 7)})
	}

	return buf.Bytes()
}

func TestGetCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)
			require.NotNil(t, codec)
		})
	}

	_, err := GetCodec(format.CompressionType(0xFF))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestCompress_Stats(t *testing.T) {
	image := saveLikeImage(200)

	packed, stats, err := Compress(format.CompressionZstd, image)
	require.NoError(t, err)
	require.Equal(t, format.CompressionZstd, stats.Algorithm)
	require.Equal(t, len(image), stats.OriginalSize)
	require.Equal(t, len(packed), stats.CompressedSize)
	require.Less(t, stats.Ratio(), 0.5)
	require.Greater(t, stats.SpaceSavings(), 50.0)

	restored, err := Decompress(format.CompressionZstd, packed)
	require.NoError(t, err)
	require.Equal(t, image, restored)

	_, _, err = Compress(format.CompressionType(0), image)
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
	_, err = Decompress(format.CompressionType(0), packed)
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestStats_Calculations(t *testing.T) {
	tests := []struct {
		name            string
		stats           Stats
		expectedRatio   float64
		expectedSavings float64
	}{
		{"good compression", Stats{OriginalSize: 1000, CompressedSize: 300}, 0.3, 70.0},
		{"no benefit", Stats{OriginalSize: 500, CompressedSize: 500}, 1.0, 0.0},
		{"overhead", Stats{OriginalSize: 100, CompressedSize: 120}, 1.2, -20.0},
		{"zero original size", Stats{CompressedSize: 100}, 0.0, 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.expectedRatio, tt.stats.Ratio(), 0.001)
			require.InDelta(t, tt.expectedSavings, tt.stats.SpaceSavings(), 0.001)
		})
	}
}

func TestNoOpCompressor_Aliases(t *testing.T) {
	data := []byte{1, 2, 3}
	out, err := NewNoOpCompressor().Compress(data)
	require.NoError(t, err)
	require.Same(t, &data[0], &out[0])

	out, err = NewNoOpCompressor().Decompress(data)
	require.NoError(t, err)
	require.Same(t, &data[0], &out[0])
}

func TestAllCodecs_EmptyData(t *testing.T) {
	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Nil(t, compressed)

			decompressed, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Nil(t, decompressed)
		})
	}
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"single_byte", []byte{0x42}},
		{"header_only", saveLikeImage(0)},
		{"small_save", saveLikeImage(10)},
		{"full_save", saveLikeImage(1000)},
		{"stash_pages", bytes.Repeat(saveLikeImage(50), 9)},
		{"zeros", make([]byte, 64*1024)},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)
					require.NotNil(t, compressed)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.Equal(t, tc.data, decompressed)
				})
			}
		})
	}
}

func TestAllCodecs_InvalidData(t *testing.T) {
	invalidInputs := []struct {
		name string
		data []byte
	}{
		{"random_bytes", []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{"text_as_compressed", []byte("this is not compressed data")},
		{"corrupted_header", []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}},
	}

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}

		t.Run(codecName, func(t *testing.T) {
			for _, input := range invalidInputs {
				t.Run(input.name, func(t *testing.T) {
					_, err := codec.Decompress(input.data)
					require.Error(t, err)
				})
			}
		})
	}
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	const numGoroutines = 16
	image := saveLikeImage(100)

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed, err := codec.Compress(image)
			require.NoError(t, err)

			done := make(chan error, numGoroutines*2)
			for range numGoroutines {
				go func() {
					_, err := codec.Compress(image)
					done <- err
				}()

				go func() {
					out, err := codec.Decompress(compressed)
					if err == nil && !bytes.Equal(image, out) {
						err = fmt.Errorf("decompressed data mismatch")
					}
					done <- err
				}()
			}

			for range numGoroutines * 2 {
				require.NoError(t, <-done)
			}
		})
	}
}

func TestLZ4Compressor_SizePrefix(t *testing.T) {
	codec := NewLZ4Compressor()
	image := saveLikeImage(20)

	packed, err := codec.Compress(image)
	require.NoError(t, err)
	require.Equal(t, uint32(len(image)), binary.LittleEndian.Uint32(packed))

	t.Run("short prefix", func(t *testing.T) {
		_, err := codec.Decompress(packed[:3])
		require.ErrorIs(t, err, errs.ErrTruncatedInput)
	})

	t.Run("oversized prefix", func(t *testing.T) {
		bad := append([]byte(nil), packed...)
		binary.LittleEndian.PutUint32(bad, MaxImageSize+1)
		_, err := codec.Decompress(bad)
		require.ErrorIs(t, err, errs.ErrImageTooLarge)
	})

	t.Run("prefix larger than block", func(t *testing.T) {
		bad := append([]byte(nil), packed...)
		binary.LittleEndian.PutUint32(bad, uint32(len(image)+10))
		_, err := codec.Decompress(bad)
		require.ErrorIs(t, err, errs.ErrTruncatedInput)
	})
}

func TestAllCodecs_RejectOversizedImage(t *testing.T) {
	image := make([]byte, MaxImageSize+1)

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}

		t.Run(codecName, func(t *testing.T) {
			_, err := codec.Compress(image)
			require.ErrorIs(t, err, errs.ErrImageTooLarge)
		})
	}
}
