package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/YungFritz/kyys-letters/pkg/config"
	"github.com/YungFritz/kyys-letters/pkg/kv"
	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRows(t *testing.T) {
	store := library.New(kv.NewAdapter(kv.NewMemory(), 0, nil), nil)
	assert.Empty(t, historyRows(store, 0))

	frieren, err := store.AddSeries(library.NewSeries{Title: "Frieren"})
	require.NoError(t, err)
	chapter, err := store.AddChapter(frieren.ID, library.NewChapter{Number: 12.5})
	require.NoError(t, err)
	gone, err := store.AddSeries(library.NewSeries{Title: "Supprimée"})
	require.NoError(t, err)

	require.NoError(t, store.RecordView(frieren.ID, ""))
	require.NoError(t, store.RecordView(gone.ID, ""))
	require.NoError(t, store.RecordView(frieren.ID, chapter.ID))
	require.NoError(t, store.DeleteSeries(t.Context(), gone.ID))

	rows := historyRows(store, 0)
	require.Len(t, rows, 2)
	assert.Equal(t, "Frieren · Chapitre 12.5", rows[0].read)
	assert.Equal(t, "Frieren", rows[1].read)
	assert.NotEmpty(t, rows[0].when)

	assert.Len(t, historyRows(store, 1), 1)
}

func TestWriteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &config.Config{DataDir: "/srv/kyys", LogLevel: "debug"}

	require.NoError(t, writeConfig(cfg, path, false))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "data_dir: /srv/kyys")

	err = writeConfig(cfg, path, false)
	assert.ErrorContains(t, err, "already exists")

	cfg.LogLevel = "warn"
	require.NoError(t, writeConfig(cfg, path, true))
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "log_level: warn")
}
