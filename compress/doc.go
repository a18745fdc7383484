// Package compress provides the codecs used for optional backup copies of
// save and stash files.
//
// Save files themselves are never compressed; the game reads them verbatim.
// Before a container overwrites a file it can keep the previous image next to
// it, and that copy may be compressed with one of:
//   - None: verbatim copy (format.CompressionNone)
//   - Zstd: best ratio, used by default for backups (format.CompressionZstd)
//   - S2: fast with a good ratio (format.CompressionS2)
//   - LZ4: fastest decompression (format.CompressionLZ4)
//
// The backup file name carries the codec through format.CompressionType.Extension,
// so a restore only needs the path:
//
//	ct, _ := format.ParseCompression("zstd")
//	packed, stats, err := compress.Compress(ct, image)
//	if err != nil {
//		return err
//	}
//	log.Info("backup", zap.Float64("ratio", stats.Ratio()))
//
//	image, err = compress.Decompress(ct, packed)
//
// # Build Tags
//
// Zstd is provided by klauspost/compress by default. Building with the gozstd
// tag switches to the cgo binding from valyala/gozstd.
package compress
