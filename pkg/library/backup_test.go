package library

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImport(t *testing.T) {
	source := seedCatalog(t)
	_, err := source.Register("kyy", "secret")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, source.Export(&buf))

	var snap data.Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	assert.Equal(t, data.SchemaVersion, snap.Version)
	assert.Len(t, snap.Series, 4)
	assert.Len(t, snap.Chapters, 4)
	assert.Len(t, snap.Members, 1)
	for _, s := range snap.Series {
		assert.Nil(t, s.Chapters)
	}

	target, _ := setupTestStore(t)
	mustAddSeries(t, target, "Sera remplacée")
	require.NoError(t, target.Import(&buf))

	if diff := cmp.Diff(source.ListSeries(), target.ListSeries()); diff != "" {
		t.Errorf("imported catalog mismatch (-want +got):\n%s", diff)
	}
	_, err = target.Login("kyy", "secret")
	assert.NoError(t, err)
}

func TestImportEmbeddedChapters(t *testing.T) {
	store, _ := setupTestStore(t)

	snapshot := `{"version":1,"series":[{"id":"serie_1","title":"Vieux Format",
		"chapters":[{"id":"chap_2","number":2},{"id":"chap_1","number":"1","date":"2022-10-01T08:00:00Z"}]}]}`
	require.NoError(t, store.Import(strings.NewReader(snapshot)))

	series, ok := store.FindBySlug("vieux-format")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, chapterNumbers(series.Chapters))
	assert.Equal(t, "2022-10-01", series.Chapters[0].ReleaseDate)
}

func TestImportSeriesOnlyKeepsChapters(t *testing.T) {
	store, _ := setupTestStore(t)
	series := mustAddSeries(t, store, "Mon Manga")
	mustAddChapter(t, store, series.ID, 1)
	mustAddChapter(t, store, series.ID, 2)

	snapshot := `{"series":[{"id":"` + series.ID + `","title":"Mon Manga Renommé"}]}`
	require.NoError(t, store.Import(strings.NewReader(snapshot)))

	assert.Len(t, store.ListChapters(), 2)
	got, ok := store.GetSeries(series.ID)
	require.True(t, ok)
	assert.Equal(t, "Mon Manga Renommé", got.Title)
	assert.Equal(t, []float64{1, 2}, chapterNumbers(got.Chapters))
}

func TestImportRejectsGarbage(t *testing.T) {
	store, _ := setupTestStore(t)
	mustAddSeries(t, store, "Intacte")

	assert.Error(t, store.Import(strings.NewReader("pas du json")))
	assert.Error(t, store.Import(strings.NewReader(`{"version":99}`)))
	assert.Len(t, store.ListSeries(), 1)
}

func TestSeriesSnapshotEmbedsImages(t *testing.T) {
	ctx := context.Background()
	store, _ := setupBlobStore(t)
	series := mustAddSeries(t, store, "Mon Manga")
	chapter := mustAddChapter(t, store, series.ID, 1)

	_, err := store.StoreCover(ctx, series.ID, bytes.NewReader(testPNG(t, 12, 12)))
	require.NoError(t, err)
	result := store.StorePages(ctx, series.ID, chapter.ID, readers(testPNG(t, 12, 12)))
	require.NoError(t, result.Err)

	snap, err := store.SeriesSnapshot(ctx, series.ID)
	require.NoError(t, err)
	require.Len(t, snap.Series, 1)
	require.Len(t, snap.Chapters, 1)
	assert.True(t, snap.Series[0].Cover.IsInline())
	require.Len(t, snap.Chapters[0].Pages, 1)
	assert.True(t, snap.Chapters[0].Pages[0].IsInline())

	_, err = store.SeriesSnapshot(ctx, "serie_missing")
	assert.ErrorIs(t, err, ErrSeriesNotFound)

	// Merging the snapshot into another store makes the series readable there.
	other, _ := setupTestStore(t)
	require.NoError(t, other.Merge(snap))
	merged, ok := other.FindBySlug("mon-manga")
	require.True(t, ok)
	require.Len(t, merged.Chapters, 1)

	content, _, err := other.OpenImage(ctx, merged.Chapters[0].Pages[0])
	require.NoError(t, err)
	assert.NotEmpty(t, content)
}
