package library

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"github.com/YungFritz/kyys-letters/pkg/blobs"
	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)

func testOptions() []Option {
	return []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithPasswordCost(bcrypt.MinCost),
	}
}

// setupTestStore returns an inline-image store over an in-memory substrate.
func setupTestStore(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	return New(kv.NewAdapter(mem, kv.DefaultQuota, nil), nil, testOptions()...), mem
}

// setupBlobStore returns a store backed by a SQLite blob adapter.
func setupBlobStore(t *testing.T, opts ...blobs.Option) (*Store, *blobs.Adapter) {
	t.Helper()
	adapter := blobs.NewAdapter(filepath.Join(t.TempDir(), "images.db"), opts...)
	t.Cleanup(func() { adapter.Close() })
	store := New(kv.NewAdapter(kv.NewMemory(), kv.DefaultQuota, nil), adapter, testOptions()...)
	return store, adapter
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 7), uint8(y * 3), 90, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func mustAddSeries(t *testing.T, s *Store, title string) data.Series {
	t.Helper()
	series, err := s.AddSeries(NewSeries{Title: title}, WithSlugSuffix())
	require.NoError(t, err)
	return series
}

func mustAddChapter(t *testing.T, s *Store, seriesID string, number float64) data.Chapter {
	t.Helper()
	chapter, err := s.AddChapter(seriesID, NewChapter{Number: number})
	require.NoError(t, err)
	return chapter
}

func chapterNumbers(chapters []data.Chapter) []float64 {
	out := make([]float64, len(chapters))
	for i, c := range chapters {
		out[i] = c.Number
	}
	return out
}

func TestEmptyStore(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.Empty(t, store.ListSeries())
	assert.Empty(t, store.ListChapters())
	assert.Empty(t, store.Popular(10))
	assert.Empty(t, store.Latest(10))
	assert.Equal(t, Stats{}, store.Stats())
}

func TestAddSeries_Slugs(t *testing.T) {
	store, _ := setupTestStore(t)

	first, err := store.AddSeries(NewSeries{Title: "Mon Manga", Tags: []string{"Action"}})
	require.NoError(t, err)
	assert.Equal(t, "mon-manga", first.Slug)
	assert.Regexp(t, `^serie_[0-9a-f]{7}$`, first.ID)
	assert.Equal(t, fixedNow.UnixMilli(), first.CreatedAt)

	t.Run("collision is reported", func(t *testing.T) {
		_, err := store.AddSeries(NewSeries{Title: "Mon Manga"})
		assert.ErrorIs(t, err, ErrSlugTaken)
		assert.Len(t, store.ListSeries(), 1)
	})

	t.Run("collision resolved with suffix", func(t *testing.T) {
		second, err := store.AddSeries(NewSeries{Title: "Mon Manga"}, WithSlugSuffix())
		require.NoError(t, err)
		assert.NotEqual(t, first.Slug, second.Slug)
		assert.Regexp(t, `^mon-manga-[0-9a-f]{4}$`, second.Slug)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("explicit slug is normalized", func(t *testing.T) {
		s, err := store.AddSeries(NewSeries{Title: "Autre", Slug: "Mon Slug À Moi"})
		require.NoError(t, err)
		assert.Equal(t, "mon-slug-a-moi", s.Slug)
		assert.True(t, store.SlugExists("mon-slug-a-moi"))
	})

	found, ok := store.FindBySlug("mon-manga")
	require.True(t, ok)
	assert.Equal(t, first.ID, found.ID)

	_, ok = store.FindBySlug("absent")
	assert.False(t, ok)
}

func TestAddChapter_SortedByNumber(t *testing.T) {
	store, _ := setupTestStore(t)
	series := mustAddSeries(t, store, "Mon Manga")
	other := mustAddSeries(t, store, "Autre")

	mustAddChapter(t, store, series.ID, 2)
	mustAddChapter(t, store, other.ID, 9)
	mustAddChapter(t, store, series.ID, 1)
	mustAddChapter(t, store, series.ID, 1.5)

	assert.Equal(t, []float64{1, 1.5, 2}, chapterNumbers(store.ChaptersOf(series.ID)))

	got, ok := store.GetSeries(series.ID)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 1.5, 2}, chapterNumbers(got.Chapters))

	// The stored list is kept sorted per series as well.
	var stored []float64
	for _, c := range store.ListChapters() {
		if c.SeriesID == series.ID {
			stored = append(stored, c.Number)
		}
	}
	assert.Equal(t, []float64{1, 1.5, 2}, stored)
}

func TestAddChapter_TiesKeepInsertionOrder(t *testing.T) {
	store, _ := setupTestStore(t)
	series := mustAddSeries(t, store, "Mon Manga")

	first, err := store.AddChapter(series.ID, NewChapter{Number: 3, Name: "premier"})
	require.NoError(t, err)
	mustAddChapter(t, store, series.ID, 1)
	second, err := store.AddChapter(series.ID, NewChapter{Number: 3, Name: "second"})
	require.NoError(t, err)

	chapters := store.ChaptersOf(series.ID)
	require.Len(t, chapters, 3)
	assert.Equal(t, first.ID, chapters[1].ID)
	assert.Equal(t, second.ID, chapters[2].ID)
}

func TestAddChapter_Defaults(t *testing.T) {
	store, _ := setupTestStore(t)
	series := mustAddSeries(t, store, "Mon Manga")

	chapter, err := store.AddChapter(series.ID, NewChapter{Number: 1, Name: "  Début "})
	require.NoError(t, err)

	assert.Equal(t, "Début", chapter.Name)
	assert.Equal(t, "FR", chapter.Lang)
	assert.Equal(t, "2024-05-17", chapter.ReleaseDate)
	assert.Equal(t, []data.ImageRef{}, chapter.Pages)
	assert.Regexp(t, `^chap_`, chapter.ID)
}

func TestAddChapter_UnknownSeries(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.AddChapter("serie_missing", NewChapter{Number: 1})
	assert.ErrorIs(t, err, ErrSeriesNotFound)
	assert.Empty(t, store.ListChapters())
}

func TestUpdateAndDeleteChapter(t *testing.T) {
	store, _ := setupTestStore(t)
	series := mustAddSeries(t, store, "Mon Manga")
	one := mustAddChapter(t, store, series.ID, 1)
	mustAddChapter(t, store, series.ID, 2)

	one.Number = 5
	one.Name = "renommé"
	require.NoError(t, store.UpdateChapter(one))
	assert.Equal(t, []float64{2, 5}, chapterNumbers(store.ChaptersOf(series.ID)))

	err := store.UpdateChapter(data.Chapter{ID: "chap_missing"})
	assert.ErrorIs(t, err, ErrChapterNotFound)

	require.NoError(t, store.DeleteChapter(context.Background(), one.ID))
	assert.Equal(t, []float64{2}, chapterNumbers(store.ChaptersOf(series.ID)))

	assert.NoError(t, store.DeleteChapter(context.Background(), "chap_missing"))
}

func TestUpsertSeries(t *testing.T) {
	store, _ := setupTestStore(t)
	series := mustAddSeries(t, store, "Mon Manga")
	mustAddChapter(t, store, series.ID, 1)

	series.Description = "Nouvelle description"
	series.Hot = true
	require.NoError(t, store.UpsertSeries(series))

	got, ok := store.GetSeries(series.ID)
	require.True(t, ok)
	assert.Equal(t, "Nouvelle description", got.Description)
	assert.True(t, got.Hot)
	assert.Len(t, got.Chapters, 1)
	assert.Len(t, store.ListSeries(), 1)

	require.NoError(t, store.UpsertSeries(data.Series{Title: "Sans ID"}))
	created, ok := store.FindBySlug("sans-id")
	require.True(t, ok)
	assert.NotEmpty(t, created.ID)
}

func TestDeleteSeries_Cascade(t *testing.T) {
	store, _ := setupTestStore(t)
	doomed := mustAddSeries(t, store, "Mon Manga")
	kept := mustAddSeries(t, store, "Autre")
	mustAddChapter(t, store, doomed.ID, 1)
	mustAddChapter(t, store, doomed.ID, 2)
	keptChapter := mustAddChapter(t, store, kept.ID, 1)

	require.NoError(t, store.DeleteSeries(context.Background(), doomed.ID))

	for _, c := range store.ListChapters() {
		assert.NotEqual(t, doomed.ID, c.SeriesID)
	}
	require.Len(t, store.ListChapters(), 1)
	assert.Equal(t, keptChapter.ID, store.ListChapters()[0].ID)

	series := store.ListSeries()
	require.Len(t, series, 1)
	assert.Equal(t, kept.ID, series[0].ID)

	assert.NoError(t, store.DeleteSeries(context.Background(), "serie_missing"))
}

// failingSubstrate rejects writes to one key.
type failingSubstrate struct {
	*kv.Memory
	failKey string
}

func (f *failingSubstrate) Set(key, value string) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.Memory.Set(key, value)
}

func TestDeleteSeries_RollsBackOnChapterFailure(t *testing.T) {
	mem := kv.NewMemory()
	store := New(kv.NewAdapter(mem, 0, nil), nil, testOptions()...)
	series := mustAddSeries(t, store, "Mon Manga")
	mustAddChapter(t, store, series.ID, 1)

	failing := New(kv.NewAdapter(&failingSubstrate{Memory: mem, failKey: kv.KeyChapters}, 0, nil), nil, testOptions()...)
	err := failing.DeleteSeries(context.Background(), series.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	got, ok := store.GetSeries(series.ID)
	require.True(t, ok)
	assert.Len(t, got.Chapters, 1)
}

func TestWriteSurfacesQuota(t *testing.T) {
	mem := kv.NewMemory()
	roomy := New(kv.NewAdapter(mem, 0, nil), nil, testOptions()...)
	mustAddSeries(t, roomy, "Mon Manga")

	used, err := mem.Usage()
	require.NoError(t, err)

	tight := New(kv.NewAdapter(mem, used+16, nil), nil, testOptions()...)
	_, err = tight.AddSeries(NewSeries{Title: "Une série au titre bien trop long pour le quota"})
	assert.ErrorIs(t, err, kv.ErrQuotaExceeded)
	assert.Len(t, tight.ListSeries(), 1)
}

func TestLegacyLibraryMigration(t *testing.T) {
	mem := kv.NewMemory()
	legacy := `[{"id":"serie_old","name":"Ancienne Série","tags":"Drame","views":"12",
		"chapters":[{"id":"chap_b","number":"2","date":"2023-02-01"},{"id":"chap_a","number":1,"language":"EN"}]}]`
	require.NoError(t, mem.Set(kv.KeyLegacyLibrary, legacy))

	store := New(kv.NewAdapter(mem, 0, nil), nil, testOptions()...)

	series := store.ListSeries()
	require.Len(t, series, 1)
	assert.Equal(t, "Ancienne Série", series[0].Title)
	assert.Equal(t, "ancienne-serie", series[0].Slug)
	assert.Equal(t, 12, series[0].Views)
	assert.Equal(t, []float64{1, 2}, chapterNumbers(series[0].Chapters))
	assert.Equal(t, "EN", series[0].Chapters[0].Lang)

	_, ok, err := mem.Get(kv.KeyLegacyLibrary)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMalformedStateReadsEmpty(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(kv.KeySeries, "{not json"))
	require.NoError(t, mem.Set(kv.KeyChapters, `{"id":"x"}`))

	store := New(kv.NewAdapter(mem, 0, nil), nil, testOptions()...)
	assert.Empty(t, store.ListSeries())
	assert.Empty(t, store.ListChapters())

	mustAddSeries(t, store, "Repart de zéro")
	assert.Len(t, store.ListSeries(), 1)
}
