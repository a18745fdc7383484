package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/d2s/character"
	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/item"
	"github.com/arloliu/d2s/stash"
	"github.com/arloliu/d2s/statblock"
)

type command struct {
	args    []string
	summary string
	run     func(a *app, args []string) error
}

var commands = map[string]command{
	"info":         {[]string{"file.d2s"}, "print the character summary", cmdInfo},
	"verify":       {[]string{"file.d2s"}, "decode with strict validation", cmdVerify},
	"fix-checksum": {[]string{"file.d2s"}, "rewrite the checksum and file size", cmdFixChecksum},
	"repair":       {[]string{"file.d2s"}, "repair every item of the character and mercenary", cmdRepair},
	"export-item":  {[]string{"file.d2s", "index", "out.d2i"}, "write one item to a single-item file", cmdExportItem},
	"stash-info":   {[]string{"file.d2i"}, "print the shared stash pages", cmdStashInfo},
}

func cmdInfo(a *app, args []string) error {
	c, err := character.Open(args[0], a.characterOptions()...)
	if err != nil {
		return err
	}

	class := fmt.Sprintf("class %d", c.ClassID())
	if cls, err := c.Class(); err == nil {
		class = cls.Name
	}

	var flags []string
	if c.Status().IsExpansion() {
		flags = append(flags, "expansion")
	}

	if c.Status().IsHardcore() {
		flags = append(flags, "hardcore")
	}

	stats := c.Stats()
	fmt.Fprintf(a.out, "name:      %s\n", c.Name())
	fmt.Fprintf(a.out, "version:   %s (%d)\n", c.Version(), uint32(c.Version()))
	fmt.Fprintf(a.out, "class:     %s\n", class)
	fmt.Fprintf(a.out, "level:     %d\n", c.Level())
	fmt.Fprintf(a.out, "status:    %s\n", strings.Join(flags, ", "))
	fmt.Fprintf(a.out, "gold:      %d / %d stash\n", stats.Get(statblock.Gold), stats.Get(statblock.StashGold))
	fmt.Fprintf(a.out, "items:     %d\n", c.NumberOfItems())
	fmt.Fprintf(a.out, "checksum:  %s\n", validity(c.ChecksumValid()))

	if merc, ok := c.Mercenary(); ok {
		n := 0
		if items, err := c.MercenaryItems(); err == nil {
			n = items.Len()
		}
		fmt.Fprintf(a.out, "mercenary: id %08x, %d items\n", merc.ID, n)
	}

	if dupes := c.DuplicateItemIDs(); len(dupes) > 0 {
		fmt.Fprintf(a.out, "duplicate: %d items share an id\n", len(dupes))
	}

	if d := c.Degraded(); len(d) > 0 {
		fmt.Fprintf(a.out, "degraded:  %s\n", strings.Join(d, ", "))
	}

	return nil
}

func validity(ok bool) string {
	if ok {
		return "valid"
	}

	return "mismatch"
}

func cmdVerify(a *app, args []string) error {
	opts := append(a.characterOptions(), character.WithStrictValidation())
	c, err := character.Open(args[0], opts...)
	if err != nil {
		return err
	}

	if _, err := c.Bytes(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: ok\n", args[0])

	return nil
}

func cmdFixChecksum(a *app, args []string) error {
	c, err := character.Open(args[0], a.characterOptions()...)
	if err != nil {
		return err
	}

	changed, err := c.Changed()
	if err != nil {
		return err
	}

	if !changed {
		fmt.Fprintf(a.out, "%s: checksum already valid\n", args[0])
		return nil
	}

	if err := c.Save(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: checksum fixed\n", args[0])

	return nil
}

func cmdRepair(a *app, args []string) error {
	c, err := character.Open(args[0], a.characterOptions()...)
	if err != nil {
		return err
	}

	n := c.RepairAll(item.All)
	if n == 0 {
		fmt.Fprintf(a.out, "%s: nothing to repair\n", args[0])
		return nil
	}

	if err := c.Save(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: repaired %d items\n", args[0], n)

	return nil
}

func cmdExportItem(a *app, args []string) error {
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("item index %q: %w", args[1], err)
	}

	c, err := character.Open(args[0], a.characterOptions()...)
	if err != nil {
		return err
	}

	items := c.Items()
	if index < 0 || index >= items.Len() {
		return fmt.Errorf("%w: index %d of %d", errs.ErrItemNotFound, index, items.Len())
	}

	it := items.At(index)
	if err := item.WriteFile(args[2], it, items.Context()); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: wrote %s\n", args[2], it.Code)

	return nil
}

func cmdStashInfo(a *app, args []string) error {
	s, err := stash.Open(args[0], a.stashOptions()...)
	if err != nil {
		return err
	}

	// Pages before a corrupt one are still listed.
	refreshErr := s.Refresh()
	n, _ := s.Len()
	for i := range n {
		p, err := s.Page(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "page %d: %d items, %d gold, %d bytes\n", i, p.Items().Len(), p.Gold(), p.Header().Length)
	}

	return refreshErr
}
