package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "tululu")
}

func TestConfigRootFollowsXDG(t *testing.T) {
	root := isolate(t)
	assert.Equal(t, root, ConfigRoot())
	assert.Equal(t, filepath.Join(root, "configs", "work.yaml"), ProfilePath("work"))
}

func TestLoadMergedWithoutProfile(t *testing.T) {
	isolate(t)

	cfg, used, err := LoadMerged(Options{Category: "l70"})
	require.NoError(t, err)
	assert.Contains(t, used, "default config in memory")
	assert.Equal(t, "l70", cfg.Category)
	assert.Equal(t, defaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Pause)
	assert.Equal(t, "../", cfg.PathPrefix)
}

func TestInitSwitchAndLoad(t *testing.T) {
	isolate(t)

	path, err := InitDefaultConfig()
	require.NoError(t, err)

	label, err := CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, DefaultLabel, label)

	custom := DefaultConfig()
	custom.DestFolder = "library"
	custom.Pause = 5 * time.Second
	custom.BooksPerPage = 20
	require.NoError(t, SaveYAML(custom, ProfilePath("work")))

	require.NoError(t, SwitchConfig("work"))

	empty := ""
	cfg, used, err := LoadMerged(Options{BooksPerPage: 10, PathPrefix: &empty})
	require.NoError(t, err)
	assert.Equal(t, ProfilePath("work"), used)
	assert.Equal(t, "library", cfg.DestFolder)
	assert.Equal(t, 5*time.Second, cfg.Pause)
	assert.Equal(t, 10, cfg.BooksPerPage)
	assert.Equal(t, "", cfg.PathPrefix)

	list, err := ListConfigs()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, DefaultLabel, list[0].Label)
	assert.Equal(t, path, list[0].Path)
	assert.False(t, list[0].Active)
	assert.True(t, list[1].Active)

	_, err = InitDefaultConfig()
	assert.True(t, errors.Is(err, os.ErrExist))
}

func TestMissingKeysKeepDefaults(t *testing.T) {
	isolate(t)
	require.NoError(t, os.MkdirAll(ConfigsDir(), 0755))
	require.NoError(t, os.WriteFile(ProfilePath("old"), []byte("category: l71\npause: 3s\n"), 0644))
	require.NoError(t, SwitchConfig("old"))

	cfg, _, err := LoadMerged(Options{})
	require.NoError(t, err)
	assert.Equal(t, "l71", cfg.Category)
	assert.Equal(t, 3*time.Second, cfg.Pause)
	assert.Equal(t, defaultTemplate, cfg.Template)
	assert.Equal(t, defaultBooksPerPage, cfg.BooksPerPage)
}

func TestZeroPauseOverridesProfile(t *testing.T) {
	isolate(t)
	custom := DefaultConfig()
	custom.Pause = 5 * time.Second
	require.NoError(t, SaveYAML(custom, ProfilePath("slow")))
	require.NoError(t, SwitchConfig("slow"))

	cfg, _, err := LoadMerged(Options{})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Pause)

	off := time.Duration(0)
	cfg, _, err = LoadMerged(Options{Pause: &off})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.Pause)
}

func TestIgnoreConfig(t *testing.T) {
	isolate(t)
	custom := DefaultConfig()
	custom.Category = "l99"
	require.NoError(t, SaveYAML(custom, ProfilePath("x")))
	require.NoError(t, SwitchConfig("x"))

	cfg, used, err := LoadMerged(Options{IgnoreConfig: true, Debug: true})
	require.NoError(t, err)
	assert.Equal(t, "(ignored config)", used)
	assert.Equal(t, defaultCategory, cfg.Category)
	assert.True(t, cfg.Debug)
}

func TestSwitchUnknownProfile(t *testing.T) {
	isolate(t)
	assert.ErrorContains(t, SwitchConfig("nope"), "does not exist")
	assert.Error(t, SwitchConfig("  "))
}

func TestValidate(t *testing.T) {
	isolate(t)

	_, _, err := LoadMerged(Options{IgnoreConfig: true, BooksPerPage: -1})
	assert.ErrorContains(t, err, "books_per_page")

	negative := -time.Second
	_, _, err = LoadMerged(Options{IgnoreConfig: true, Pause: &negative})
	assert.ErrorContains(t, err, "pause")
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	DefaultConfig().Fprint(&buf)

	out := buf.String()
	assert.Contains(t, out, " -base_url: https://tululu.org\n")
	assert.Contains(t, out, " -pause: 2s\n")
	assert.Contains(t, out, ` -path_prefix: "../"`)
	assert.NotContains(t, out, "skip_imgs")
}
