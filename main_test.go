package main

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icednano/app"
	"icednano/nano/store"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewStatsRender(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pair.json")

	out, err := execute(t, "new", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	out, err = execute(t, "stats", path)
	require.NoError(t, err)
	assert.Contains(t, out, "name:        pair\n")
	assert.Contains(t, out, "helices:     2\n")
	assert.Contains(t, out, "strands:     2\n")
	assert.Contains(t, out, "free ends:   4\n")

	pngPath := filepath.Join(dir, "pair.png")
	_, err = execute(t, "render", path, pngPath, "--width", "320", "--height", "120")
	require.NoError(t, err)
	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
}

func TestNewIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "new", dir, "--name", "demo")
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "icednano"))

	d, err := store.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", d.Name)
}

func TestStatsMissingFile(t *testing.T) {
	_, err := execute(t, "stats", filepath.Join(t.TempDir(), "none.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("window:\n  width: 1024\nlog:\n  level: warn\n"), 0o600))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--log-level", "debug", "--height", "400"}))
	cfg, err := loadConfig(cmd, options{configPath: cfgPath, logLevel: "debug", height: 400})
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 400, cfg.Window.Height)
	assert.Equal(t, "debug", cfg.Log.Level)

	cmd = newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--width", "5"}))
	_, err = loadConfig(cmd, options{configPath: cfgPath, width: 5})
	require.Error(t, err)
}

func TestLoadDesign(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	d, recovered, err := loadDesign(ctx, filepath.Join(dir, "fresh.json"), nil, false, logger)
	require.NoError(t, err)
	assert.False(t, recovered)
	assert.Equal(t, "fresh", d.Name)

	path := filepath.Join(dir, "saved.json")
	orig, err := app.SampleDesign("saved")
	require.NoError(t, err)
	require.NoError(t, store.SaveFile(path, orig))

	j, err := store.OpenJournal(store.JournalConfig{InMemory: true})
	require.NoError(t, err)
	defer j.Close()

	d, recovered, err = loadDesign(ctx, path, j, true, logger)
	require.NoError(t, err)
	assert.False(t, recovered)
	assert.Equal(t, "saved", d.Name)

	autosaved := orig.Clone()
	autosaved.Name = "autosaved"
	require.NoError(t, j.Append(ctx, autosaved))
	d, recovered, err = loadDesign(ctx, path, j, true, logger)
	require.NoError(t, err)
	assert.True(t, recovered)
	assert.Equal(t, "autosaved", d.Name)

	_, _, err = loadDesign(ctx, path, nil, true, logger)
	require.Error(t, err)
}

func TestHeadlessRunsAndQuits(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  save_dir: "+dir+"\n  journal_path: "+filepath.Join(dir, "journal")+"\n"), 0o600))
	design := filepath.Join(dir, "h.json")

	_, err := execute(t, "--config", cfgPath, "--headless", "--hz", "200", "--ticks", "5", "--width", "320", "--height", "200", design)
	require.NoError(t, err)
}
