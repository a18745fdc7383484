// Package d2s reads and writes Diablo II save data: character files (.d2s),
// the paged shared stash (.d2i) and header-less single-item files.
//
// The format changed many times over the life of the game. Every codec takes
// the file version explicitly and branches on it, so one decoded model covers
// the classic, the transitional and the modern layouts.
//
// # Core Features
//
//   - Bit-exact round trip: decoding and re-encoding an unmodified file
//     reproduces its bytes
//   - Checksum and file size fields patched on every save
//   - Lazy shared stash pages, decoded one at a time on demand
//   - Soft failures (checksum mismatch, corrupt optional sections) reported
//     through a zap logger unless strict validation is requested
//   - Atomic saves with optional compressed backups (Zstd, S2, LZ4)
//
// # Basic Usage
//
// Reading a character and raising its level:
//
//	import "github.com/arloliu/d2s"
//
//	c, err := d2s.OpenCharacter("Tyrael.d2s", character.WithBackup(format.CompressionZstd))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(c.Name(), c.Level(), c.NumberOfItems())
//	if err := c.SetLevel(42); err != nil {
//	    log.Fatal(err)
//	}
//	repaired := c.RepairAll(item.All)
//
//	// Writes Tyrael.d2s.bak.zst, then replaces Tyrael.d2s atomically
//	err = c.Save()
//
// Reading the shared stash:
//
//	s, err := d2s.OpenStash("SharedStashSoftCoreV2.d2i")
//	page, err := s.Page(0)
//	fmt.Println(page.Gold(), page.Items().Len())
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the character,
// stash and item packages. For fine-grained control, such as header-only
// opening or lazy stash pages, use those packages directly.
package d2s

import (
	"github.com/arloliu/d2s/character"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/internal/hash"
	"github.com/arloliu/d2s/item"
	"github.com/arloliu/d2s/stash"
)

// OpenCharacter opens and fully decodes the character file at path.
//
// Available options:
//   - character.WithLogger(logger)
//   - character.WithStrictValidation()
//   - character.WithBackup(format.CompressionNone|Zstd|S2|LZ4)
//   - character.WithTables(tb)
//
// Parameters:
//   - path: Path of the .d2s file
//   - opts: Character options
//
// Returns:
//   - *character.Character: The decoded character in StateParsed
//   - error: A header, section or validation error wrapped with the path
func OpenCharacter(path string, opts ...character.Option) (*character.Character, error) {
	return character.Open(path, opts...)
}

// OpenStash opens the shared stash at path and decodes every page.
//
// When a page is corrupt the returned stash is still non-nil: the pages
// decoded before the corrupt one can be read through Page. It cannot be
// saved.
//
// Parameters:
//   - path: Path of the .d2i file
//   - opts: Stash options
//
// Returns:
//   - *stash.Stash: The stash
//   - error: An errs.PageError naming the first corrupt page
func OpenStash(path string, opts ...stash.Option) (*stash.Stash, error) {
	s, err := stash.Open(path, opts...)
	if err != nil {
		return nil, err
	}

	if err := s.Refresh(); err != nil {
		return s, err
	}

	return s, nil
}

// ReadItemFile reads a single-item file written for version v with the
// embedded tables. Unknown item types are kept opaque.
func ReadItemFile(path string, v format.Version) (*item.Item, error) {
	return item.ReadFile(path, item.NewContext(v))
}

// WriteItemFile writes it as a single-item file for version v.
func WriteItemFile(path string, it *item.Item, v format.Version) error {
	return item.WriteFile(path, it, item.NewContext(v))
}

// Fingerprint returns the 64-bit xxHash of a file image. Two images with the
// same fingerprint are treated as identical by the Changed and Modified
// checks of the character and stash packages.
func Fingerprint(data []byte) uint64 {
	return hash.Sum(data)
}
