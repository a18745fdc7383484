package character

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/internal/fileio"
	"github.com/arloliu/d2s/internal/hash"
	"github.com/arloliu/d2s/internal/pool"
	"github.com/arloliu/d2s/item"
	"github.com/arloliu/d2s/section"
	"github.com/arloliu/d2s/statblock"
)

// Bytes encodes the character. The file size and checksum fields are patched
// for the new image; the in-memory header is left as is.
//
// Returns:
//   - []byte: The complete file image
//   - error: errs.ErrNotParsed before Parse, or an errs.SectionError
func (c *Character) Bytes() ([]byte, error) {
	if !c.state.decoded() {
		return nil, errs.ErrNotParsed
	}

	body := bitstream.NewWriter(max(len(c.raw)-c.header.Size(), 1024))
	if err := c.encodeBody(body); err != nil {
		return nil, err
	}

	buf := pool.GetSaveBuffer()
	defer pool.PutSaveBuffer(buf)

	buf.Grow(c.header.Size() + body.Len())
	buf.MustWrite(c.header.Bytes())
	buf.MustWrite(body.Bytes())
	out := buf.Clone()

	if f := c.header.Layout().FileSize; f.Present() {
		binary.LittleEndian.PutUint32(out[f.Offset:], uint32(len(out))) //nolint:gosec
	}
	section.PatchChecksum(out, c.header.ChecksumField())

	return out, nil
}

func (c *Character) encodeBody(cur *bitstream.Cursor) error {
	base := c.header.Size()
	for _, r := range []struct {
		name   string
		region *section.Region
	}{
		{SectionQuests, c.quests},
		{SectionWaypoints, c.waypoints},
		{SectionNPC, c.npc},
	} {
		if err := r.region.Encode(cur); err != nil {
			return errs.Section(r.name, base+cur.BytePos(), err)
		}
	}

	v := c.header.Version()
	if err := statblock.Encode(cur, c.stats, v); err != nil {
		return errs.Section(SectionStats, base+cur.BytePos(), err)
	}

	ctx := c.itemContext()
	if err := item.EncodeSection(cur, c.items.Items(), ctx); err != nil {
		return errs.Section(SectionItems, base+cur.BytePos(), err)
	}

	if c.hasCorpses {
		if err := c.encodeCorpses(cur); err != nil {
			return errs.Section(SectionCorpses, base+cur.BytePos(), err)
		}
	}

	if c.hasMerc {
		if err := c.encodeMerc(cur); err != nil {
			return errs.Section(SectionMerc, base+cur.BytePos(), err)
		}
	}

	if c.hasGolem {
		if err := c.encodeGolem(cur); err != nil {
			return errs.Section(SectionGolem, base+cur.BytePos(), err)
		}
	}

	return cur.WriteBytes(c.trailing)
}

func (c *Character) encodeCorpses(cur *bitstream.Cursor) error {
	if len(c.corpses) > 0xFFFF {
		return fmt.Errorf("%w: %d corpses", errs.ErrValueOverflow, len(c.corpses))
	}

	if err := cur.WriteBytes(item.SectionMarker); err != nil {
		return err
	}

	if err := cur.WriteBits(16, uint64(len(c.corpses))); err != nil {
		return err
	}

	var head [corpseHeaderSize]byte
	for i, corpse := range c.corpses {
		binary.LittleEndian.PutUint32(head[0:], corpse.Unknown)
		binary.LittleEndian.PutUint32(head[4:], corpse.X)
		binary.LittleEndian.PutUint32(head[8:], corpse.Y)
		if err := cur.WriteBytes(head[:]); err != nil {
			return err
		}

		if err := item.EncodeSection(cur, corpse.Items.Items(), c.itemContext()); err != nil {
			return fmt.Errorf("corpse %d: %w", i, err)
		}
	}

	return nil
}

func (c *Character) encodeMerc(cur *bitstream.Cursor) error {
	if err := cur.WriteBytes(MercenaryMarker); err != nil {
		return err
	}

	if c.merc == nil {
		return nil
	}

	return item.EncodeSection(cur, c.merc.Items(), c.itemContext())
}

func (c *Character) encodeGolem(cur *bitstream.Cursor) error {
	if err := cur.WriteBytes(GolemMarker); err != nil {
		return err
	}

	if c.golem == nil {
		return cur.WriteBits(8, 0)
	}

	if err := cur.WriteBits(8, 1); err != nil {
		return err
	}

	return item.Encode(cur, c.golem, c.itemContext())
}

// Save writes the character back to the file it was opened from.
func (c *Character) Save() error {
	if c.path == "" {
		return fmt.Errorf("%w: character has no path, use SaveAs", errs.ErrNotParsed)
	}

	return c.SaveAs(c.path)
}

// SaveAs encodes the character and atomically replaces path with the image.
// With WithBackup the previous content of path is kept as a backup first.
// On success path becomes the character's path and the state is StateSaved.
func (c *Character) SaveAs(path string) error {
	data, err := c.Bytes()
	if err != nil {
		return err
	}

	if c.cfg.backup {
		out, stats, err := fileio.Backup(path, c.cfg.codec)
		if err != nil {
			return fmt.Errorf("backup of %s: %w", path, err)
		}

		if out != "" {
			c.cfg.logger.Info("backup written",
				zap.String("path", out),
				zap.String("compression", stats.Algorithm.String()),
				zap.Int("original_size", stats.OriginalSize),
				zap.Int("compressed_size", stats.CompressedSize),
				zap.Float64("ratio", stats.Ratio()))
		}
	}

	if err := fileio.WriteAtomic(path, data, 0o644); err != nil {
		return err
	}

	header, err := section.ParseHeader(data)
	if err != nil {
		return err
	}

	c.header = header
	c.raw = data
	c.path = path
	c.checksumOK = true
	c.fingerprint = hash.Sum(data)
	c.state = StateSaved
	c.cfg.logger.Debug("character saved", zap.String("path", path), zap.Int("size", len(data)))

	return nil
}
