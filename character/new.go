package character

import (
	"fmt"
	"time"

	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/item"
	"github.com/arloliu/d2s/section"
	"github.com/arloliu/d2s/statblock"
)

// New creates a level 1 character of class classID with empty quest,
// waypoint and item sections. Versions from 1.07 on create expansion
// characters. The result is in StateModified and has no path.
func New(v format.Version, name string, classID uint8, opts ...Option) (*Character, error) {
	if !v.IsKnown() {
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, uint32(v))
	}

	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	cls, ok := cfg.tables.Class(classID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", errs.ErrUnknownClass, classID)
	}

	expansion := v >= format.V107
	if cls.Expansion && !expansion {
		return nil, fmt.Errorf("%w: %s needs an expansion file version", errs.ErrUnknownClass, cls.Name)
	}

	header := section.NewHeader(v)
	if err := header.SetName(name); err != nil {
		return nil, err
	}
	header.SetClass(classID)
	header.SetLevel(1)
	header.SetStatus(section.Status(0).With(section.StatusExpansion, expansion))
	header.SetLastPlayed(time.Now())

	stats := statblock.New()
	if err := stats.SetLevel(cfg.tables, 1); err != nil {
		return nil, err
	}

	if _, err := stats.ResetAttributes(cls); err != nil {
		return nil, err
	}

	ctx := item.Context{Version: v, Tables: cfg.tables}
	c := &Character{
		cfg:        cfg,
		state:      StateModified,
		header:     header,
		quests:     section.NewRegion(section.QuestSpec),
		waypoints:  section.NewRegion(section.WaypointSpec),
		npc:        section.NewRegion(section.NPCSpec),
		stats:      stats,
		items:      item.NewCollection(ctx, nil),
		hasCorpses: v >= format.V107,
		hasMerc:    expansion,
		hasGolem:   expansion,
		checksumOK: true,
	}

	// The first waypoint of each difficulty is always active.
	for d := section.Normal; d <= section.Hell; d++ {
		if err := c.waypoints.SetWaypoint(d, 0, true); err != nil {
			return nil, err
		}
	}

	return c, nil
}
