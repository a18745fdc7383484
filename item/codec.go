package item

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/property"
	"github.com/arloliu/d2s/tables"
)

// fieldReader reads consecutive fields and keeps the first error.
type fieldReader struct {
	cur *bitstream.Cursor
	err error
}

func (r *fieldReader) read(n int) uint64 {
	if r.err != nil {
		return 0
	}

	v, err := r.cur.ReadBits(n)
	if err != nil {
		r.err = err
	}

	return v
}

func (r *fieldReader) flag() bool {
	return r.read(1) == 1
}

// fieldWriter writes consecutive fields and keeps the first error.
type fieldWriter struct {
	cur *bitstream.Cursor
	err error
}

func (w *fieldWriter) write(n int, v uint64) {
	if w.err != nil {
		return
	}
	w.err = w.cur.WriteBits(n, v)
}

func (w *fieldWriter) flag(on bool) {
	if on {
		w.write(1, 1)
		return
	}
	w.write(1, 0)
}

// Decode reads one item record and the records of its socketed items.
//
// Parameters:
//   - cur: Cursor positioned on the record (byte aligned)
//   - ctx: Format version and tables
//
// Returns:
//   - *Item: The decoded item
//   - error: errs.ErrTruncatedInput, errs.ErrUnknownItemType or errs.ErrCorruptItem
func Decode(cur *bitstream.Cursor, ctx Context) (*Item, error) {
	lay := layoutFor(ctx.Version)
	start := cur.BytePos()

	if lay.marker {
		ok, err := cur.ExpectBytes(recordMarker)
		if err != nil {
			return nil, err
		}

		if !ok {
			return nil, fmt.Errorf("%w: missing record marker at byte %d", errs.ErrCorruptItem, start)
		}
	}

	r := &fieldReader{cur: cur}
	it := &Item{}
	it.Flags = Flags(r.read(flagBits))
	it.Format = uint16(r.read(lay.versionBits))  //nolint:gosec
	it.Location = Location(r.read(locationBits)) //nolint:gosec
	it.EquipSlot = uint8(r.read(equipBits))      //nolint:gosec
	it.Column = uint8(r.read(columnBits))        //nolint:gosec
	it.Row = uint8(r.read(rowBits))              //nolint:gosec
	it.Panel = Panel(r.read(panelBits))          //nolint:gosec
	if r.err != nil {
		return nil, r.err
	}

	if it.IsEar() {
		ear := &Ear{
			Class: uint8(r.read(earClassBits)), //nolint:gosec
			Level: uint8(r.read(earLevelBits)), //nolint:gosec
		}
		if r.err != nil {
			return nil, r.err
		}

		name, err := readName(cur, lay.nameCharBits)
		if err != nil {
			return nil, fmt.Errorf("ear name: %w", err)
		}
		ear.Name = name
		it.Ear = ear

		if err := it.readPad(cur); err != nil {
			return nil, err
		}

		return it, nil
	}

	if err := it.readCode(cur, lay); err != nil {
		return nil, err
	}

	filledBits := socketFillBits
	if it.Simple() {
		filledBits = lay.simpleSocketBits
	}
	filled := int(r.read(filledBits)) //nolint:gosec
	if r.err != nil {
		return nil, r.err
	}

	if !it.Simple() {
		typ, known := ctx.Tables.ItemType(it.Code)
		if !known {
			if !ctx.OpaqueUnknown {
				return nil, fmt.Errorf("%w: %q at byte %d", errs.ErrUnknownItemType, it.Code, start)
			}
			it.readTail(cur, filled)

			return it, nil
		}

		ext, err := decodeExtended(cur, it.Flags, typ, ctx, lay)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", it.Code, err)
		}
		it.Extended = ext
	}

	if err := it.readPad(cur); err != nil {
		return nil, err
	}

	if filled > 0 {
		if !it.Flags.Has(FlagSocketed) || (it.Extended != nil && filled > it.Extended.TotalSockets) {
			return nil, fmt.Errorf("%w: %q declares %d socketed items", errs.ErrCorruptItem, it.Code, filled)
		}

		childCtx := ctx
		childCtx.OpaqueUnknown = false
		it.Socketed = make([]Item, 0, filled)
		for i := 0; i < filled; i++ {
			child, err := Decode(cur, childCtx)
			if err != nil {
				return nil, fmt.Errorf("socketed item %d of %q: %w", i, it.Code, err)
			}

			if child.Location != LocationSocket {
				return nil, fmt.Errorf("%w: socketed item %d of %q has location %s", errs.ErrCorruptItem, i, it.Code, child.Location)
			}
			it.Socketed = append(it.Socketed, *child)
		}
	}

	return it, nil
}

func (it *Item) readCode(cur *bitstream.Cursor, lay layout) error {
	var raw string
	var err error
	if lay.huffmanCode {
		raw, err = readHuffmanCode(cur)
	} else {
		raw, err = readPlainCode(cur)
	}

	if err != nil {
		return err
	}

	it.Code = strings.TrimRight(raw, " ")
	if padded, err := padCode(it.Code); err != nil || padded != raw {
		it.rawCode = raw
	}

	return nil
}

func (it *Item) readPad(cur *bitstream.Cursor) error {
	pad, _, err := cur.AlignToByte()
	if err != nil {
		return err
	}
	it.pad = pad

	return nil
}

// readTail keeps every remaining bit of the buffer.
func (it *Item) readTail(cur *bitstream.Cursor, filled int) {
	n := cur.Remaining()
	it.tailBits = n
	it.tailFilled = filled
	it.tail = make([]byte, 0, (n+7)/8)

	for n > 0 {
		take := min(8, n)
		v, _ := cur.ReadBits(take)
		it.tail = append(it.tail, byte(v))
		n -= take
	}
}

func decodeExtended(cur *bitstream.Cursor, flags Flags, typ tables.ItemType, ctx Context, lay layout) (*Extended, error) {
	r := &fieldReader{cur: cur}
	ext := &Extended{}

	ext.ID = uint32(r.read(idBits))            //nolint:gosec
	ext.Level = uint8(r.read(levelBits))       //nolint:gosec
	ext.Quality = Quality(r.read(qualityBits)) //nolint:gosec

	if ext.HasPicture = r.flag(); ext.HasPicture {
		ext.Picture = uint8(r.read(pictureBits)) //nolint:gosec
	}

	if ext.HasClassAffix = r.flag(); ext.HasClassAffix {
		ext.ClassAffix = uint16(r.read(classAffixBits)) //nolint:gosec
	}

	if r.err != nil {
		return nil, r.err
	}

	rec, err := readRecord(r, ext.Quality, rareAffixCount(typ, ext.Quality, lay))
	if err != nil {
		return nil, err
	}
	ext.Record = rec

	if flags.Has(FlagRuneword) {
		ext.RunewordID = uint16(r.read(runewordIDBits))    //nolint:gosec
		ext.RunewordExtra = uint8(r.read(runewordPadBits)) //nolint:gosec
	}

	if r.err != nil {
		return nil, r.err
	}

	if flags.Has(FlagPersonalized) {
		name, err := readName(cur, lay.nameCharBits)
		if err != nil {
			return nil, fmt.Errorf("personalized name: %w", err)
		}
		ext.Name = name
	}

	if typ.IsTome() {
		ext.TomeData = uint8(r.read(tomeBits)) //nolint:gosec
	}

	if ext.HasRealm = r.flag(); ext.HasRealm {
		for i := range ext.Realm {
			ext.Realm[i] = uint32(r.read(32)) //nolint:gosec
		}
	}

	if typ.Kind() == tables.KindArmor {
		ext.Defense = int(r.read(lay.defenseBits)) - defenseBias //nolint:gosec
	}

	if typ.HasDurability() {
		ext.MaxDurability = int(r.read(maxDurBits)) //nolint:gosec
		if ext.MaxDurability > 0 {
			ext.Durability = int(r.read(lay.curDurBits)) //nolint:gosec
		}
	}

	if typ.HasQuantity() {
		ext.Quantity = int(r.read(quantityBits)) //nolint:gosec
	}

	if flags.Has(FlagSocketed) {
		ext.TotalSockets = int(r.read(totalSocketBits)) //nolint:gosec
	}

	if ext.Quality == QualitySet {
		ext.SetMask = uint8(r.read(setMaskBits)) //nolint:gosec
	}

	if r.err != nil {
		return nil, r.err
	}

	if ext.Properties, err = property.Decode(cur, ctx.Tables); err != nil {
		return nil, err
	}

	for bit := 0; bit < setMaskBits; bit++ {
		if ext.SetMask&(1<<bit) == 0 {
			continue
		}

		list, err := property.Decode(cur, ctx.Tables)
		if err != nil {
			return nil, fmt.Errorf("set list %d: %w", bit, err)
		}
		ext.SetProperties = append(ext.SetProperties, list)
	}

	if flags.Has(FlagRuneword) {
		if ext.RunewordProperties, err = property.Decode(cur, ctx.Tables); err != nil {
			return nil, fmt.Errorf("runeword list: %w", err)
		}
	}

	return ext, nil
}

func rareAffixCount(typ tables.ItemType, q Quality, lay layout) int {
	if typ.Category == tables.CategoryJewel || q == QualityCrafted {
		return lay.rareAffixesAlt
	}

	return rareAffixPairs
}

func readRecord(r *fieldReader, q Quality, pairs int) (QualityRecord, error) {
	var rec QualityRecord
	switch q {
	case QualityLow:
		rec = LowQualityRecord{Type: uint8(r.read(lowQualityBits))} //nolint:gosec
	case QualityNormal:
		rec = NormalRecord{}
	case QualitySuperior:
		rec = SuperiorRecord{Type: uint8(r.read(superiorBits))} //nolint:gosec
	case QualityMagic:
		prefix := uint16(r.read(magicAffixBits)) //nolint:gosec
		suffix := uint16(r.read(magicAffixBits)) //nolint:gosec
		rec = MagicRecord{Prefix: prefix, Suffix: suffix}
	case QualitySet:
		rec = SetRecord{ID: uint16(r.read(setIDBits))} //nolint:gosec
	case QualityUnique:
		rec = UniqueRecord{ID: uint16(r.read(uniqueIDBits))} //nolint:gosec
	case QualityRare, QualityCrafted, QualityTempered:
		name1 := uint8(r.read(rareNameBits)) //nolint:gosec
		name2 := uint8(r.read(rareNameBits)) //nolint:gosec
		rare := RareRecord{
			Name1:    name1,
			Name2:    name2,
			Prefixes: make([]Affix, pairs),
			Suffixes: make([]Affix, pairs),
		}
		for i := 0; i < pairs; i++ {
			if rare.Prefixes[i].Present = r.flag(); rare.Prefixes[i].Present {
				rare.Prefixes[i].ID = uint16(r.read(rareAffixBits)) //nolint:gosec
			}

			if rare.Suffixes[i].Present = r.flag(); rare.Suffixes[i].Present {
				rare.Suffixes[i].ID = uint16(r.read(rareAffixBits)) //nolint:gosec
			}
		}
		rec = rare
	default:
		return nil, fmt.Errorf("%w: invalid quality %d", errs.ErrCorruptItem, q)
	}

	if r.err != nil {
		return nil, r.err
	}

	return rec, nil
}

func readName(cur *bitstream.Cursor, charBits int) (string, error) {
	var buf []byte
	for {
		c, err := cur.ReadBits(charBits)
		if err != nil {
			return "", err
		}

		if c == 0 {
			return string(buf), nil
		}

		if len(buf) == maxNameLen {
			return "", fmt.Errorf("%w: name longer than %d characters", errs.ErrCorruptItem, maxNameLen)
		}
		buf = append(buf, byte(c))
	}
}

// Encode writes it and its socketed items. The output is bit-identical to the
// decoder input for unmodified items. Socket states Decode rejects fail with
// errs.ErrCorruptItem before anything is written.
func Encode(cur *bitstream.Cursor, it *Item, ctx Context) error {
	if err := it.checkSockets(); err != nil {
		return err
	}

	return encodeRecord(cur, it, ctx)
}

func (it *Item) checkSockets() error {
	n := len(it.Socketed)
	if n == 0 {
		return nil
	}

	if !it.Flags.Has(FlagSocketed) {
		return fmt.Errorf("%w: %q holds %d socketed items without the socketed flag", errs.ErrCorruptItem, it.Code, n)
	}

	if it.Extended != nil && n > it.Extended.TotalSockets {
		return fmt.Errorf("%w: %q holds %d socketed items in %d sockets", errs.ErrCorruptItem, it.Code, n, it.Extended.TotalSockets)
	}

	for i := range it.Socketed {
		if loc := it.Socketed[i].Location; loc != LocationSocket {
			return fmt.Errorf("%w: socketed item %d of %q has location %s", errs.ErrCorruptItem, i, it.Code, loc)
		}
	}

	return nil
}

func encodeRecord(cur *bitstream.Cursor, it *Item, ctx Context) error {
	lay := layoutFor(ctx.Version)

	if lay.marker {
		if err := cur.WriteBytes(recordMarker); err != nil {
			return err
		}
	}

	w := &fieldWriter{cur: cur}
	w.write(flagBits, uint64(it.Flags))
	w.write(lay.versionBits, uint64(it.Format))
	w.write(locationBits, uint64(it.Location))
	w.write(equipBits, uint64(it.EquipSlot))
	w.write(columnBits, uint64(it.Column))
	w.write(rowBits, uint64(it.Row))
	w.write(panelBits, uint64(it.Panel))
	if w.err != nil {
		return w.err
	}

	if it.IsEar() {
		if it.Ear == nil {
			return fmt.Errorf("%w: ear flag without ear record", errs.ErrCorruptItem)
		}
		w.write(earClassBits, uint64(it.Ear.Class))
		w.write(earLevelBits, uint64(it.Ear.Level))
		if w.err != nil {
			return w.err
		}

		if err := writeName(cur, it.Ear.Name, lay.nameCharBits); err != nil {
			return err
		}
		it.writePad(cur)

		return nil
	}

	if err := it.writeCode(cur, lay); err != nil {
		return err
	}

	filledBits := socketFillBits
	if it.Simple() {
		filledBits = lay.simpleSocketBits
	}

	if it.Opaque() {
		w.write(filledBits, uint64(it.tailFilled)) //nolint:gosec
		it.writeTail(cur)

		return w.err
	}
	w.write(filledBits, uint64(len(it.Socketed)))
	if w.err != nil {
		return fmt.Errorf("item %q socket count: %w", it.Code, w.err)
	}

	if !it.Simple() {
		typ, known := ctx.Tables.ItemType(it.Code)
		if !known {
			return fmt.Errorf("%w: %q", errs.ErrUnknownItemType, it.Code)
		}

		if it.Extended == nil {
			return fmt.Errorf("%w: %q is not simple but has no extended fields", errs.ErrCorruptItem, it.Code)
		}

		if err := encodeExtended(cur, it.Flags, it.Extended, typ, ctx, lay); err != nil {
			return fmt.Errorf("item %q: %w", it.Code, err)
		}
	}
	it.writePad(cur)

	for i := range it.Socketed {
		if err := Encode(cur, &it.Socketed[i], ctx); err != nil {
			return fmt.Errorf("socketed item %d of %q: %w", i, it.Code, err)
		}
	}

	return nil
}

func (it *Item) writeCode(cur *bitstream.Cursor, lay layout) error {
	code := it.Code
	if it.rawCode != "" && strings.TrimRight(it.rawCode, " ") == it.Code {
		code = it.rawCode
	}

	if lay.huffmanCode {
		return writeHuffmanCode(cur, code)
	}

	return writePlainCode(cur, code)
}

func (it *Item) writePad(cur *bitstream.Cursor) {
	n := cur.BitsToAlign()
	pad := it.pad
	if n == 0 || pad>>n != 0 {
		pad = 0
	}
	_ = cur.WriteBits(n, pad)
}

func (it *Item) writeTail(cur *bitstream.Cursor) {
	n := it.tailBits
	for _, b := range it.tail {
		take := min(8, n)
		_ = cur.WriteBits(take, uint64(b)&(1<<take-1))
		n -= take
	}
}

func encodeExtended(cur *bitstream.Cursor, flags Flags, ext *Extended, typ tables.ItemType, ctx Context, lay layout) error {
	w := &fieldWriter{cur: cur}

	w.write(idBits, uint64(ext.ID))
	w.write(levelBits, uint64(ext.Level))
	w.write(qualityBits, uint64(ext.Quality))

	w.flag(ext.HasPicture)
	if ext.HasPicture {
		w.write(pictureBits, uint64(ext.Picture))
	}

	w.flag(ext.HasClassAffix)
	if ext.HasClassAffix {
		w.write(classAffixBits, uint64(ext.ClassAffix))
	}

	if w.err != nil {
		return w.err
	}

	if err := writeRecord(w, ext, rareAffixCount(typ, ext.Quality, lay)); err != nil {
		return err
	}

	if flags.Has(FlagRuneword) {
		w.write(runewordIDBits, uint64(ext.RunewordID))
		w.write(runewordPadBits, uint64(ext.RunewordExtra))
	}

	if w.err != nil {
		return w.err
	}

	if flags.Has(FlagPersonalized) {
		if err := writeName(cur, ext.Name, lay.nameCharBits); err != nil {
			return fmt.Errorf("personalized name: %w", err)
		}
	}

	if typ.IsTome() {
		w.write(tomeBits, uint64(ext.TomeData))
	}

	w.flag(ext.HasRealm)
	if ext.HasRealm {
		for _, v := range ext.Realm {
			w.write(32, uint64(v))
		}
	}

	if typ.Kind() == tables.KindArmor {
		if ext.Defense < -defenseBias {
			return fmt.Errorf("%w: defense %d", errs.ErrValueOverflow, ext.Defense)
		}
		w.write(lay.defenseBits, uint64(ext.Defense+defenseBias)) //nolint:gosec
	}

	if typ.HasDurability() {
		w.write(maxDurBits, uint64(ext.MaxDurability)) //nolint:gosec
		if ext.MaxDurability > 0 {
			w.write(lay.curDurBits, uint64(ext.Durability)) //nolint:gosec
		}
	}

	if typ.HasQuantity() {
		w.write(quantityBits, uint64(ext.Quantity)) //nolint:gosec
	}

	if flags.Has(FlagSocketed) {
		w.write(totalSocketBits, uint64(ext.TotalSockets)) //nolint:gosec
	}

	if ext.Quality == QualitySet {
		w.write(setMaskBits, uint64(ext.SetMask))
	}

	if w.err != nil {
		return w.err
	}

	if err := property.Encode(cur, ext.Properties, ctx.Tables); err != nil {
		return err
	}

	lists := 0
	for bit := 0; bit < setMaskBits; bit++ {
		if ext.SetMask&(1<<bit) != 0 {
			lists++
		}
	}

	if lists != len(ext.SetProperties) {
		return fmt.Errorf("%w: set mask selects %d lists, have %d", errs.ErrCorruptItem, lists, len(ext.SetProperties))
	}

	for i, list := range ext.SetProperties {
		if err := property.Encode(cur, list, ctx.Tables); err != nil {
			return fmt.Errorf("set list %d: %w", i, err)
		}
	}

	if flags.Has(FlagRuneword) {
		if err := property.Encode(cur, ext.RunewordProperties, ctx.Tables); err != nil {
			return fmt.Errorf("runeword list: %w", err)
		}
	}

	return nil
}

func writeRecord(w *fieldWriter, ext *Extended, pairs int) error {
	rec := ext.Record
	if rec == nil && ext.Quality == QualityNormal {
		rec = NormalRecord{}
	}

	if rec == nil || !rec.accepts(ext.Quality) {
		return fmt.Errorf("%w: record %T does not match quality %s", errs.ErrCorruptItem, rec, ext.Quality)
	}

	switch rec := rec.(type) {
	case LowQualityRecord:
		w.write(lowQualityBits, uint64(rec.Type))
	case NormalRecord:
	case SuperiorRecord:
		w.write(superiorBits, uint64(rec.Type))
	case MagicRecord:
		w.write(magicAffixBits, uint64(rec.Prefix))
		w.write(magicAffixBits, uint64(rec.Suffix))
	case SetRecord:
		w.write(setIDBits, uint64(rec.ID))
	case UniqueRecord:
		w.write(uniqueIDBits, uint64(rec.ID))
	case RareRecord:
		if len(rec.Prefixes) > pairs || len(rec.Suffixes) > pairs {
			return fmt.Errorf("%w: rare record has more than %d affix pairs", errs.ErrCorruptItem, pairs)
		}
		w.write(rareNameBits, uint64(rec.Name1))
		w.write(rareNameBits, uint64(rec.Name2))
		for i := 0; i < pairs; i++ {
			writeAffix(w, rec.Prefixes, i)
			writeAffix(w, rec.Suffixes, i)
		}
	}

	return w.err
}

func writeAffix(w *fieldWriter, affixes []Affix, i int) {
	if i >= len(affixes) || !affixes[i].Present {
		w.flag(false)
		return
	}
	w.flag(true)
	w.write(rareAffixBits, uint64(affixes[i].ID))
}

func writeName(cur *bitstream.Cursor, name string, charBits int) error {
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: %q", errs.ErrNameTooLong, name)
	}

	if charBits < 8 {
		for i := 0; i < len(name); i++ {
			if name[i] >= utf8.RuneSelf {
				return fmt.Errorf("%w: %q is not ASCII", errs.ErrInvalidName, name)
			}
		}
	}

	for i := 0; i < len(name); i++ {
		if name[i] == 0 {
			return fmt.Errorf("%w: %q contains NUL", errs.ErrInvalidName, name)
		}

		if err := cur.WriteBits(charBits, uint64(name[i])); err != nil {
			return err
		}
	}

	return cur.WriteBits(charBits, 0)
}
