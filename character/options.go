package character

import (
	"go.uber.org/zap"

	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/internal/options"
	"github.com/arloliu/d2s/tables"
)

type config struct {
	logger *zap.Logger
	tables *tables.Tables
	strict bool
	backup bool
	codec  format.CompressionType
}

func defaultConfig() *config {
	return &config{
		logger: zap.NewNop(),
		codec:  format.CompressionNone,
	}
}

// Option configures a Character.
type Option = options.Option[*config]

// WithLogger routes soft failures (checksum mismatches, degraded sections,
// backups) to logger. The default discards them.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithTables decodes items and classes with tb instead of the embedded tables.
func WithTables(tb *tables.Tables) Option {
	return options.NoError(func(c *config) {
		c.tables = tb
	})
}

// WithStrictValidation turns checksum mismatches, file size mismatches and
// corrupt optional sections into errors.
func WithStrictValidation() Option {
	return options.NoError(func(c *config) {
		c.strict = true
	})
}

// WithBackup keeps the previous file next to the target when saving over it,
// compressed with ct.
func WithBackup(ct format.CompressionType) Option {
	return options.NoError(func(c *config) {
		c.backup = true
		c.codec = ct
	})
}

func newConfig(opts []Option) (*config, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.tables == nil {
		cfg.tables = tables.Default()
	}

	return cfg, nil
}
