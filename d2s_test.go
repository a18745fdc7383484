package d2s

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/d2s/character"
	"github.com/arloliu/d2s/errs"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/item"
	"github.com/arloliu/d2s/stash"
)

// TestOpenCharacter verifies a saved character opens fully decoded
func TestOpenCharacter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Tyrael.d2s")

	c, err := character.New(format.VR24, "Tyrael", 4)
	require.NoError(t, err)
	require.NoError(t, c.SetLevel(7))
	require.NoError(t, c.SaveAs(path))

	got, err := OpenCharacter(path, character.WithStrictValidation())
	require.NoError(t, err)
	require.Equal(t, character.StateParsed, got.State())
	require.Equal(t, 7, got.Level())

	_, err = OpenCharacter(path + ".missing")
	require.Error(t, err)
}

// TestOpenStash verifies every page is decoded and a corrupt page still
// returns the stash
func TestOpenStash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SharedStash.d2i")

	s, err := stash.New()
	require.NoError(t, err)
	for range 2 {
		p, err := s.AddPage()
		require.NoError(t, err)
		it, err := item.New("cap", item.NewContext(stash.Version))
		require.NoError(t, err)
		require.NoError(t, p.AddItem(it))
	}
	require.NoError(t, s.SaveAs(path))

	got, err := OpenStash(path)
	require.NoError(t, err)
	n, err := got.NumberOfItems()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	bad := filepath.Join(dir, "bad.d2i")
	require.NoError(t, os.WriteFile(bad, data[:len(data)-1], 0o644))

	partial, err := OpenStash(bad)
	require.ErrorIs(t, err, errs.ErrCorruptPage)
	require.NotNil(t, partial)
	first, err := partial.Page(0)
	require.NoError(t, err)
	require.Equal(t, 1, first.Items().Len())
}

// TestItemFile verifies single-item files round trip through the wrappers
func TestItemFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cap.d2i")

	it, err := item.New("cap", item.NewContext(format.VR24))
	require.NoError(t, err)
	require.NoError(t, WriteItemFile(path, it, format.VR24))

	got, err := ReadItemFile(path, format.VR24)
	require.NoError(t, err)
	require.Equal(t, "cap", got.Code)
	require.Equal(t, it.Extended.ID, got.Extended.ID)
}

// TestFingerprint verifies fingerprints are deterministic
func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("Woo!"))
	require.Equal(t, a, Fingerprint([]byte("Woo!")))
	require.NotZero(t, a)
	require.NotEqual(t, a, Fingerprint([]byte("WS")))
}
