package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	width  int
	strict bool
	calls  []string
}

func withWidth(w int) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if w < 0 {
			return errors.New("negative width")
		}
		c.width = w
		c.calls = append(c.calls, "width")

		return nil
	})
}

func withStrict() Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.strict = true
		c.calls = append(c.calls, "strict")
	})
}

func TestApply(t *testing.T) {
	t.Run("AppliesInOrder", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg, withStrict(), withWidth(9)))
		require.True(t, cfg.strict)
		require.Equal(t, 9, cfg.width)
		require.Equal(t, []string{"strict", "width"}, cfg.calls)
	})

	t.Run("StopsAtFirstError", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withWidth(-1), withStrict())
		require.ErrorContains(t, err, "option 0: negative width")
		require.False(t, cfg.strict)
	})

	t.Run("SkipsNil", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg, nil, withStrict()))
		require.True(t, cfg.strict)
	})

	t.Run("NoOptions", func(t *testing.T) {
		cfg := &testConfig{width: 3}
		require.NoError(t, Apply(cfg))
		require.Equal(t, 3, cfg.width)
	})
}
