// Package fileio writes save images to disk: atomic replacement of the target
// file and optional, possibly compressed, backups of the previous image.
package fileio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arloliu/d2s/compress"
	"github.com/arloliu/d2s/format"
)

// BackupSuffix is appended to the file name of a backup, before the
// compression extension.
const BackupSuffix = ".bak"

// WriteAtomic writes data to a temporary file in the directory of path and
// renames it over path. Readers see either the old or the new image, and a
// failed write leaves no temporary file behind.
func WriteAtomic(path string, data []byte, perm fs.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmpFile, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	success = true

	return nil
}

// BackupPath returns the backup file name of path for compression type ct.
func BackupPath(path string, ct format.CompressionType) string {
	return path + BackupSuffix + ct.Extension()
}

// Backup copies the current content of path to its backup file, compressed
// with ct. A missing path is not an error; it returns an empty backup path.
//
// Returns:
//   - string: The backup file written, empty when path did not exist
//   - compress.Stats: Sizes before and after compression
//   - error: I/O or compression error
func Backup(path string, ct format.CompressionType) (string, compress.Stats, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", compress.Stats{Algorithm: ct}, nil
	}

	if err != nil {
		return "", compress.Stats{Algorithm: ct}, fmt.Errorf("reading %s for backup: %w", path, err)
	}

	packed, stats, err := compress.Compress(ct, data)
	if err != nil {
		return "", stats, err
	}

	out := BackupPath(path, ct)
	if err := WriteAtomic(out, packed, 0o644); err != nil {
		return "", stats, err
	}

	return out, stats, nil
}

// ReadBackup reads a backup written by Backup. The compression type is taken
// from the file extension.
func ReadBackup(backupPath string) ([]byte, error) {
	ct := format.CompressionNone
	for _, c := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		if strings.HasSuffix(backupPath, BackupSuffix+c.Extension()) {
			ct = c
			break
		}
	}

	data, err := os.ReadFile(backupPath)
	if err != nil {
		return nil, err
	}

	return compress.Decompress(ct, data)
}
