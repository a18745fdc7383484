package item

import (
	"fmt"
	"os"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/internal/fileio"
)

// DecodeFile decodes a header-less single-item file. Records with unknown type
// codes are kept opaque so the file still round-trips.
func DecodeFile(data []byte, ctx Context) (*Item, error) {
	ctx.OpaqueUnknown = true

	it, err := Decode(bitstream.NewCursor(data), ctx)
	if err != nil {
		return nil, fmt.Errorf("item file: %w", err)
	}

	return it, nil
}

// EncodeFile encodes it as a single-item file.
func EncodeFile(it *Item, ctx Context) ([]byte, error) {
	cur := bitstream.NewWriter(64)
	if err := Encode(cur, it, ctx); err != nil {
		return nil, fmt.Errorf("item file: %w", err)
	}
	cur.AlignWrite()

	return cur.Bytes(), nil
}

// ReadFile reads and decodes the single-item file at path.
func ReadFile(path string, ctx Context) (*Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return DecodeFile(data, ctx)
}

// WriteFile encodes it and atomically replaces path with the record.
func WriteFile(path string, it *Item, ctx Context) error {
	data, err := EncodeFile(it, ctx)
	if err != nil {
		return err
	}

	return fileio.WriteAtomic(path, data, 0o644)
}
