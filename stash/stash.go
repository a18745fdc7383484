package stash

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/internal/fileio"
	"github.com/arloliu/d2s/internal/hash"
	"github.com/arloliu/d2s/internal/pool"
	"github.com/arloliu/d2s/item"
)

// Stash is a shared stash file. It is not safe for concurrent use.
type Stash struct {
	cfg         *config
	path        string
	raw         []byte
	pages       []*Page
	scanned     bool
	scanErr     error // first corrupt page, the pages after it are unknown
	fingerprint uint64
}

// New returns an empty stash without pages or path.
func New(opts ...Option) (*Stash, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Stash{cfg: cfg, scanned: true, fingerprint: hash.Sum(nil)}, nil
}

// Open reads the stash at path and validates its first page header. Pages
// are indexed by ScanPages or decoded by Page and Refresh.
func Open(path string, opts ...Option) (*Stash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.path = path

	return s, nil
}

// Parse wraps a stash image held in memory. An empty image is a stash without
// pages.
//
// Returns:
//   - *Stash: The stash, no page decoded yet
//   - error: errs.ErrInvalidHeader or errs.ErrUnsupportedVersion from the first page header
func Parse(data []byte, opts ...Option) (*Stash, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		if _, err := ParseHeader(data); err != nil {
			return nil, errs.Page(0, err)
		}
	}

	return &Stash{
		cfg:         cfg,
		raw:         append([]byte(nil), data...),
		fingerprint: hash.Sum(data),
	}, nil
}

// Path returns the file the stash was opened from or last saved to.
func (s *Stash) Path() string {
	return s.path
}

func (s *Stash) itemContext() item.Context {
	return item.Context{Version: Version, Tables: s.cfg.tables}
}

// ScanPages indexes the pages by walking their headers without decoding any
// item list. It is a no-op once the pages are indexed. On error the pages
// found before the bad header stay indexed and the error is returned again
// by every later call.
//
// Returns:
//   - int: The number of pages
//   - error: errs.PageError for a bad header or a length running past the end
func (s *Stash) ScanPages() (int, error) {
	if s.scanned {
		return len(s.pages), s.scanErr
	}
	s.scanned = true

	ctx := s.itemContext()
	for off := 0; off < len(s.raw); {
		index := len(s.pages)
		h, err := ParseHeader(s.raw[off:])
		if err != nil {
			s.scanErr = errs.Page(index, err)
			return index, s.scanErr
		}

		end := off + int(h.Length)
		if end > len(s.raw) {
			s.scanErr = errs.Page(index, fmt.Errorf("%w: page length %d runs past the end of the file",
				errs.ErrTruncatedInput, h.Length))
			return index, s.scanErr
		}

		s.pages = append(s.pages, &Page{index: index, header: h, raw: s.raw[off:end], ctx: ctx})
		off = end
	}

	return len(s.pages), nil
}

// Refresh decodes every page in file order and replaces the pages held by the
// stash, discarding unsaved changes. It stops at the first corrupt page; the
// pages decoded before it stay available through Page, and the stash cannot
// be encoded until a later Refresh succeeds.
//
// Returns:
//   - error: errs.PageError; errors.Is matches errs.ErrCorruptPage and the cause
func (s *Stash) Refresh() error {
	s.pages = nil
	s.scanned = true
	s.scanErr = nil

	ctx := s.itemContext()
	cur := bitstream.NewCursor(s.raw)
	for cur.BytePos() < len(s.raw) {
		index := len(s.pages)
		start := cur.BytePos()
		h, err := ParseHeader(s.raw[start:])
		if err != nil {
			s.scanErr = errs.Page(index, err)
			return s.scanErr
		}

		p := &Page{index: index, header: h, ctx: ctx}
		cur.Seek((start + HeaderSize) * 8)
		if err := p.decode(cur, start); err != nil {
			s.scanErr = errs.Page(index, err)
			return s.scanErr
		}
		p.raw = s.raw[start:cur.BytePos()]

		s.pages = append(s.pages, p)
		s.cfg.logger.Debug("stash page decoded", zap.Int("page", index), zap.Int("items", p.items.Len()))
	}

	return nil
}

// Len returns the number of pages, indexing them first when needed.
func (s *Stash) Len() (int, error) {
	return s.ScanPages()
}

// Page returns page i, decoding its item list on first access.
//
// Returns:
//   - *Page: The decoded page
//   - error: errs.ErrPageOutOfRange, or errs.PageError when the page is corrupt
func (s *Stash) Page(i int) (*Page, error) {
	n, err := s.ScanPages()
	if i < 0 || i >= len(s.pages) {
		if err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("%w: page %d of %d", errs.ErrPageOutOfRange, i, n)
	}

	p := s.pages[i]
	if p.Decoded() {
		return p, nil
	}

	cur := bitstream.NewCursor(p.raw)
	cur.Seek(HeaderSize * 8)
	if err := p.decode(cur, 0); err != nil {
		return nil, errs.Page(i, err)
	}
	s.cfg.logger.Debug("stash page decoded", zap.Int("page", i), zap.Int("items", p.items.Len()))

	return p, nil
}

// Pages decodes and returns every page.
func (s *Stash) Pages() ([]*Page, error) {
	n, err := s.ScanPages()
	if err != nil {
		return nil, err
	}

	out := make([]*Page, 0, n)
	for i := range n {
		p, err := s.Page(i)
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}

	return out, nil
}

// AddPage appends an empty page and returns it.
func (s *Stash) AddPage() (*Page, error) {
	n, err := s.ScanPages()
	if err != nil {
		return nil, err
	}

	p := newPage(n, s.itemContext())
	s.pages = append(s.pages, p)

	return p, nil
}

// NumberOfItems returns the number of top-level items over all pages.
func (s *Stash) NumberOfItems() (int, error) {
	pages, err := s.Pages()
	if err != nil {
		return 0, err
	}

	n := 0
	for _, p := range pages {
		n += p.items.Len()
	}

	return n, nil
}

// Bytes encodes the stash. Decoded pages are re-encoded with their length
// recomputed; pages never decoded are copied as read.
func (s *Stash) Bytes() ([]byte, error) {
	data, _, err := s.encode()
	return data, err
}

func (s *Stash) encode() ([]byte, []uint32, error) {
	if _, err := s.ScanPages(); err != nil {
		return nil, nil, err
	}

	buf := pool.GetStashBuffer()
	defer pool.PutStashBuffer(buf)

	buf.Grow(len(s.raw))
	lengths := make([]uint32, len(s.pages))
	for i, p := range s.pages {
		var err error
		buf.B, lengths[i], err = p.appendTo(buf.B)
		if err != nil {
			return nil, nil, err
		}
	}

	return buf.Clone(), lengths, nil
}

// Modified reports whether the encoded stash differs from the bytes it was
// read from or last saved as.
func (s *Stash) Modified() (bool, error) {
	data, err := s.Bytes()
	if err != nil {
		return false, err
	}

	return hash.Sum(data) != s.fingerprint, nil
}

// Save writes the stash back to the file it was opened from.
func (s *Stash) Save() error {
	if s.path == "" {
		return fmt.Errorf("%w: stash has no path, use SaveAs", errs.ErrNotParsed)
	}

	return s.SaveAs(s.path)
}

// SaveAs encodes every page and atomically replaces path with the result,
// keeping a backup of the previous file first when WithBackup is set.
func (s *Stash) SaveAs(path string) error {
	data, lengths, err := s.encode()
	if err != nil {
		return err
	}

	if s.cfg.backup {
		out, stats, err := fileio.Backup(path, s.cfg.codec)
		if err != nil {
			return fmt.Errorf("backup of %s: %w", path, err)
		}

		if out != "" {
			s.cfg.logger.Info("backup written",
				zap.String("path", out),
				zap.String("compression", stats.Algorithm.String()),
				zap.Float64("ratio", stats.Ratio()))
		}
	}

	if err := fileio.WriteAtomic(path, data, 0o644); err != nil {
		return err
	}

	off := 0
	for i, p := range s.pages {
		p.saved(lengths[i])
		p.raw = data[off : off+int(lengths[i])]
		off += int(lengths[i])
	}

	s.raw = data
	s.path = path
	s.fingerprint = hash.Sum(data)
	s.cfg.logger.Debug("stash saved", zap.String("path", path), zap.Int("pages", len(s.pages)))

	return nil
}
