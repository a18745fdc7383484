package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/d2s/character"
	"github.com/arloliu/d2s/format"
	"github.com/arloliu/d2s/item"
	"github.com/arloliu/d2s/section"
	"github.com/arloliu/d2s/stash"
)

func writeCharacter(t *testing.T, dir string) string {
	t.Helper()

	c, err := character.New(format.VR24, "Tyrael", 4)
	require.NoError(t, err)

	helm, err := item.New("cap", item.NewContext(format.VR24))
	require.NoError(t, err)
	helm.Extended.Durability = 1
	require.NoError(t, c.AddItem(helm, item.PanelInventory))

	path := filepath.Join(dir, "Tyrael.d2s")
	require.NoError(t, c.SaveAs(path))

	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	base := []string{"--config", "", "--log-level", "error"}
	code := run(append(base, args...), &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig("", false)
		require.NoError(t, err)
		require.Equal(t, defaults(), cfg)

		cfg, err = loadConfig(filepath.Join(dir, "missing.toml"), false)
		require.NoError(t, err)
		require.True(t, cfg.Save.Backup)
	})

	t.Run("explicit missing", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(dir, "missing.toml"), true)
		require.Error(t, err)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		data := "[save]\nbackup = false\ncompression = \"lz4\"\nstrict = true\n\n[logging]\nlevel = \"debug\"\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

		cfg, err := loadConfig(path, true)
		require.NoError(t, err)
		require.False(t, cfg.Save.Backup)
		require.True(t, cfg.Save.Strict)
		require.Equal(t, "debug", cfg.Logging.Level)
		require.Equal(t, "console", cfg.Logging.Format)

		ct, err := cfg.compression()
		require.NoError(t, err)
		require.Equal(t, format.CompressionLZ4, ct)
	})

	t.Run("bad compression", func(t *testing.T) {
		path := filepath.Join(dir, "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[save]\ncompression = \"gzip\"\n"), 0o600))

		_, err := loadConfig(path, true)
		require.Error(t, err)
	})

	t.Run("bad toml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.toml")
		require.NoError(t, os.WriteFile(path, []byte("[save\n"), 0o600))

		_, err := loadConfig(path, true)
		require.Error(t, err)
	})
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	require.Equal(t, exitUsage, code)
	require.Contains(t, stderr, "stash-info")

	code, _, stderr = runCLI(t, "explode")
	require.Equal(t, exitUsage, code)
	require.Contains(t, stderr, "unknown command")

	code, _, stderr = runCLI(t, "export-item", "a.d2s")
	require.Equal(t, exitUsage, code)
	require.Contains(t, stderr, "<file.d2s> <index> <out.d2i>")

	code, _, _ = runCLI(t, "--compression", "gzip", "info", "a.d2s")
	require.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "--help")
	require.Equal(t, exitOK, code)
}

func TestRun_CharacterCommands(t *testing.T) {
	dir := t.TempDir()
	path := writeCharacter(t, dir)

	code, out, stderr := runCLI(t, "info", path)
	require.Equal(t, exitOK, code, stderr)
	require.Contains(t, out, "Tyrael")
	require.Contains(t, out, "Barbarian")
	require.Contains(t, out, "items:     1")
	require.Contains(t, out, "checksum:  valid")

	code, out, _ = runCLI(t, "verify", path)
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "ok")

	code, out, _ = runCLI(t, "fix-checksum", path)
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "already valid")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[section.HeaderSize(format.VR24)+20] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	code, _, stderr = runCLI(t, "verify", path)
	require.Equal(t, exitError, code)
	require.Contains(t, stderr, "checksum mismatch")

	code, out, _ = runCLI(t, "info", path)
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "checksum:  mismatch")

	code, out, _ = runCLI(t, "fix-checksum", path)
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "checksum fixed")
	require.FileExists(t, path+".bak.zst")

	code, _, _ = runCLI(t, "verify", path)
	require.Equal(t, exitOK, code)

	code, out, _ = runCLI(t, "--backup=false", "repair", path)
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "repaired 1 items")

	code, out, _ = runCLI(t, "repair", path)
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "nothing to repair")

	itemPath := filepath.Join(dir, "cap.d2i")
	code, out, _ = runCLI(t, "export-item", path, "0", itemPath)
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "cap")

	got, err := item.ReadFile(itemPath, item.NewContext(format.VR24))
	require.NoError(t, err)
	require.Equal(t, "cap", got.Code)

	code, _, stderr = runCLI(t, "export-item", path, "3", itemPath)
	require.Equal(t, exitError, code)
	require.Contains(t, stderr, "item not found")

	code, _, _ = runCLI(t, "export-item", path, "first", itemPath)
	require.Equal(t, exitError, code)
}

func TestRun_StashInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SharedStash.d2i")

	s, err := stash.New()
	require.NoError(t, err)
	for range 2 {
		p, err := s.AddPage()
		require.NoError(t, err)
		require.NoError(t, p.SetGold(250))
	}
	require.NoError(t, s.SaveAs(path))

	code, out, stderr := runCLI(t, "stash-info", path)
	require.Equal(t, exitOK, code, stderr)
	require.Contains(t, out, "page 0: 0 items, 250 gold, 68 bytes")
	require.Contains(t, out, "page 1:")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-1], 0o644))

	code, out, stderr = runCLI(t, "stash-info", path)
	require.Equal(t, exitError, code)
	require.Contains(t, out, "page 0:")
	require.NotContains(t, out, "page 1:")
	require.Contains(t, stderr, "stash page 1")
}
