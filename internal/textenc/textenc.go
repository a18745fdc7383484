// Package textenc converts character and item names between Go strings and the
// byte encodings used on the wire.
//
// Files before the remastered formats store Windows-1252 bytes; the remastered
// formats store UTF-8.
package textenc

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
)

// Character name limits.
const (
	MinNameLen = 2
	MaxNameLen = 15
)

// Decode converts a NUL-terminated fixed-size name field to a string.
func Decode(field []byte, v format.Version) (string, error) {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}

	if v.Remastered() || isASCII(field) {
		return string(field), nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(field)
	if err != nil {
		return "", fmt.Errorf("decode Windows-1252 name: %w", err)
	}

	return string(decoded), nil
}

// Encode converts name to wire bytes without a terminator.
func Encode(name string, v format.Version) ([]byte, error) {
	if v.Remastered() {
		if !utf8.ValidString(name) {
			return nil, fmt.Errorf("%w: not valid UTF-8", errs.ErrInvalidName)
		}

		return []byte(name), nil
	}

	if isASCII([]byte(name)) {
		return []byte(name), nil
	}

	encoded, err := charmap.Windows1252.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q has no Windows-1252 form", errs.ErrInvalidName, name)
	}

	return encoded, nil
}

// EncodeField encodes name into a zero-padded field of size bytes. The last
// byte is always left as a terminator.
func EncodeField(name string, v format.Version, size int) ([]byte, error) {
	b, err := Encode(name, v)
	if err != nil {
		return nil, err
	}

	if len(b) >= size {
		return nil, fmt.Errorf("%w: %d bytes, field holds %d", errs.ErrNameTooLong, len(b), size-1)
	}

	field := make([]byte, size)
	copy(field, b)

	return field, nil
}

// ValidateCharacter checks the naming rules of characters: 2 to 15 letters with
// at most one dash or underscore that is neither first nor last.
func ValidateCharacter(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinNameLen || n > MaxNameLen {
		return fmt.Errorf("%w: %q must be %d-%d characters", errs.ErrInvalidName, name, MinNameLen, MaxNameLen)
	}

	separators := 0
	i := 0
	for _, r := range name {
		switch {
		case r == '-' || r == '_':
			separators++
			if i == 0 || i == n-1 {
				return fmt.Errorf("%w: %q cannot start or end with %q", errs.ErrInvalidName, name, r)
			}
		case !unicode.IsLetter(r):
			return fmt.Errorf("%w: %q contains %q", errs.ErrInvalidName, name, r)
		}
		i++
	}

	if separators > 1 {
		return fmt.Errorf("%w: %q has more than one separator", errs.ErrInvalidName, name)
	}

	return nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}

	return true
}
