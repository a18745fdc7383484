package stash

import (
	"go.uber.org/zap"

	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/internal/options"
	"github.com/arloliu/d2s/tables"
)

type config struct {
	logger *zap.Logger
	tables *tables.Tables
	backup bool
	codec  format.CompressionType
}

// Option configures a Stash.
type Option = options.Option[*config]

// WithLogger sets the logger for page decoding and backups.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithTables decodes items with tb instead of the embedded tables.
func WithTables(tb *tables.Tables) Option {
	return options.NoError(func(c *config) {
		c.tables = tb
	})
}

// WithBackup keeps the previous file, compressed with ct, when saving over it.
func WithBackup(ct format.CompressionType) Option {
	return options.NoError(func(c *config) {
		c.backup = true
		c.codec = ct
	})
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{logger: zap.NewNop(), codec: format.CompressionNone}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.tables == nil {
		cfg.tables = tables.Default()
	}

	return cfg, nil
}
