// Package errs defines the error values shared by every d2s codec.
//
// Low-level codec failures (bit cursor, property lists) are returned as the
// sentinel values below, optionally wrapped with fmt.Errorf("...: %w").
// Container-level code adds a unit-scoped wrapper (SectionError, PageError,
// ItemError) so that callers can match both the unit error and the cause
// with errors.Is.
package errs

import "errors"

// Decode failures.
var (
	ErrTruncatedInput     = errors.New("truncated input")
	ErrInvalidHeader      = errors.New("invalid header")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrCorruptItem        = errors.New("corrupt item")
	ErrCorruptSection     = errors.New("corrupt section")
	ErrCorruptPage        = errors.New("corrupt page")
	ErrChecksumMismatch   = errors.New("checksum mismatch")
	ErrUnknownItemType    = errors.New("unknown item type")
	ErrUnknownStat        = errors.New("unknown stat id")
	ErrInvalidBitWidth    = errors.New("invalid bit width")
	ErrValueOverflow      = errors.New("value does not fit in field width")
	ErrUnaligned          = errors.New("cursor is not byte aligned")
)

// Operation failures.
var (
	ErrNotSocketable    = errors.New("item cannot hold sockets")
	ErrSocketsFull      = errors.New("no free socket")
	ErrTooManySockets   = errors.New("socket count exceeds item maximum")
	ErrNotUpgradable    = errors.New("item has no higher tier")
	ErrRunewordMismatch = errors.New("socketed runes do not form the runeword")
	ErrAlreadyRuneword  = errors.New("item is already a runeword")
	ErrNameTooLong      = errors.New("name too long")
	ErrInvalidName      = errors.New("invalid name")
	ErrItemNotFound     = errors.New("item not found")
	ErrNoFreeSlot       = errors.New("no free slot for item")
	ErrInvalidLevel     = errors.New("invalid character level")
	ErrPageOutOfRange   = errors.New("stash page out of range")
	ErrNotParsed        = errors.New("container is not parsed")
	ErrStrictValidation = errors.New("file failed strict validation")
	ErrNoMercenary      = errors.New("character has no mercenary")
	ErrUnknownClass     = errors.New("unknown character class")
)

// Backup codec errors.
var (
	ErrUnsupportedCompression = errors.New("unsupported backup compression")
	ErrImageTooLarge          = errors.New("image exceeds backup size limit")
)
