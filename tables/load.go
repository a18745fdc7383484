package tables

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/d2s/internal/options"
)

//go:embed data/*.yaml
var embedded embed.FS

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// Option configures table loading.
type Option = options.Option[*Tables]

// WithUnknownStatWidth keeps stat ids missing from the stat table as opaque
// entries of the given value width instead of failing the decode. The width
// cannot be validated, so lists decoded this way are only as precise as the
// guess.
func WithUnknownStatWidth(bits int) Option {
	return options.New(func(t *Tables) error {
		if bits < 1 || bits > 32 {
			return fmt.Errorf("unknown stat width %d out of range [1, 32]", bits)
		}
		t.unknownStatWidth = bits

		return nil
	})
}

// Default returns the embedded tables. They are parsed once on first use.
func Default() *Tables {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			defaultErr = err
			return
		}
		defaultTables, defaultErr = Load(sub)
	})

	if defaultErr != nil {
		panic(fmt.Sprintf("embedded tables are invalid: %v", defaultErr))
	}

	return defaultTables
}

// Load parses tables from fsys. Additional options are applied after parsing.
func Load(fsys fs.FS, opts ...Option) (*Tables, error) {
	t := &Tables{
		stats:     make(map[uint16]StatDef),
		chainHead: make(map[uint16]uint16),
		items:     make(map[string]ItemType),
		classes:   make(map[uint8]Class),
	}

	var doc struct {
		Stats      []StatDef  `yaml:"stats"`
		Items      []ItemType `yaml:"items"`
		Runewords  []Runeword `yaml:"runewords"`
		Classes    []Class    `yaml:"classes"`
		Experience []uint32   `yaml:"experience"`
	}

	for _, name := range []string{"stats.yaml", "items.yaml", "runewords.yaml", "classes.yaml", "experience.yaml"} {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}

	for _, def := range doc.Stats {
		if err := validateStat(def); err != nil {
			return nil, err
		}

		if _, dup := t.stats[def.ID]; dup {
			return nil, fmt.Errorf("duplicate stat id %d", def.ID)
		}
		t.stats[def.ID] = def
	}

	for id, def := range t.stats {
		for _, follower := range def.Chain {
			if _, ok := t.stats[follower]; !ok {
				return nil, fmt.Errorf("stat %d chains unknown stat %d", id, follower)
			}
			t.chainHead[follower] = id
		}
	}

	for _, it := range doc.Items {
		kind, err := parseKind(it.KindName)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", it.Code, err)
		}
		it.kind = kind

		if len(it.Code) == 0 || len(it.Code) > 4 {
			return nil, fmt.Errorf("item code %q must be 1-4 characters", it.Code)
		}

		if it.Width == 0 {
			it.Width = 1
		}

		if it.Height == 0 {
			it.Height = 1
		}
		t.items[it.Code] = it
	}

	for _, rw := range doc.Runewords {
		for _, r := range rw.Runes {
			if _, ok := t.items[r]; !ok {
				return nil, fmt.Errorf("runeword %q uses unknown rune %q", rw.Name, r)
			}
		}
	}
	t.runewords = doc.Runewords

	for _, c := range doc.Classes {
		t.classes[c.ID] = c
	}

	for i := 1; i < len(doc.Experience); i++ {
		if doc.Experience[i] <= doc.Experience[i-1] {
			return nil, fmt.Errorf("experience table not increasing at level %d", i+1)
		}
	}
	t.experience = doc.Experience

	if err := options.Apply(t, opts...); err != nil {
		return nil, err
	}

	return t, nil
}

// With returns a copy of t with opts applied. The lookup maps are shared.
func (t *Tables) With(opts ...Option) (*Tables, error) {
	cp := *t
	if err := options.Apply(&cp, opts...); err != nil {
		return nil, err
	}

	return &cp, nil
}

func validateStat(def StatDef) error {
	if def.ID >= StatSentinel {
		return fmt.Errorf("stat id %d collides with the sentinel", def.ID)
	}

	if def.Bits < 1 || def.Bits > 32 {
		return fmt.Errorf("stat %d: bits %d out of range", def.ID, def.Bits)
	}

	if def.ParamBits < 0 || def.ParamBits > 32 {
		return fmt.Errorf("stat %d: param bits %d out of range", def.ID, def.ParamBits)
	}

	return nil
}

func parseKind(name string) (Kind, error) {
	switch name {
	case "", "misc":
		return KindMisc, nil
	case "armor":
		return KindArmor, nil
	case "weapon":
		return KindWeapon, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", name)
	}
}
