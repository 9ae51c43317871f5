package screens

import (
	"context"
	"errors"
	"testing"

	"github.com/YungFritz/kyys-letters/pkg/kv"
	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/YungFritz/kyys-letters/pkg/services"
	"github.com/YungFritz/kyys-letters/pkg/sources"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var windowSize = tea.WindowSizeMsg{Width: 100, Height: 40}

type fakeSource struct {
	results []sources.Manga
	err     error
}

func (f *fakeSource) Search(_ context.Context, _ string) ([]sources.Manga, error) {
	return f.results, f.err
}

func (f *fakeSource) GetManga(_ context.Context, id string) (sources.Manga, error) {
	return sources.Manga{}, errors.New("not implemented")
}

func (f *fakeSource) GetChapters(_ context.Context, _ string, _ []string) ([]sources.Chapter, error) {
	return nil, nil
}

func (f *fakeSource) GetPages(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func newStore() *library.Store {
	return library.New(kv.NewAdapter(kv.NewMemory(), 0, nil), nil)
}

func seed(t *testing.T, store *library.Store) (string, string) {
	t.Helper()
	series, err := store.AddSeries(library.NewSeries{Title: "Mon Manga", Tags: []string{"Action"}, Views: 1500, Hot: true})
	require.NoError(t, err)
	chapter, err := store.AddChapter(series.ID, library.NewChapter{Name: "Le départ", Number: 1, Lang: "FR", ReleaseDate: "2024-05-17"})
	require.NoError(t, err)
	return series.ID, chapter.ID
}

// run executes cmd and feeds its message back into model.
func run(t *testing.T, model tea.Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	model.Update(cmd())
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestHomeScreen_Empty(t *testing.T) {
	home := NewHomeScreen(newStore())
	assert.Equal(t, "Loading...", home.View())

	home.Update(windowSize)
	run(t, home, home.Init())

	view := home.View()
	assert.Contains(t, view, "No series yet")
	assert.Contains(t, view, "0 séries · 0 chapitres")
}

func TestHomeScreen_Lists(t *testing.T) {
	store := newStore()
	seriesID, _ := seed(t, store)

	home := NewHomeScreen(store)
	home.Update(windowSize)
	run(t, home, home.Init())

	view := home.View()
	assert.Contains(t, view, "Mon Manga")
	assert.Contains(t, view, "1.5k vues")
	assert.Contains(t, view, "HOT")
	assert.Contains(t, view, "Action")

	home.Update(key("l"))
	view = home.View()
	assert.Contains(t, view, "Chapitre 1")
	assert.Contains(t, view, "2024-05-17")

	_, cmd := home.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, SwitchScreenMsg{Screen: "details", Data: seriesID}, cmd())
}

func TestLibraryScreen(t *testing.T) {
	store := newStore()
	seriesID, _ := seed(t, store)

	screen := NewLibraryScreen(store, nil)
	screen.Update(windowSize)
	run(t, screen, screen.Init())
	assert.Contains(t, screen.View(), "Mon Manga")

	_, cmd := screen.Update(key("f"))
	run(t, screen, cmd)
	require.Len(t, store.Favorites(), 1)

	_, cmd = screen.Update(key("d"))
	require.NotNil(t, cmd)
	_, reload := screen.Update(cmd())
	run(t, screen, reload)

	_, ok := store.GetSeries(seriesID)
	assert.False(t, ok)
	assert.Contains(t, screen.View(), "No series yet")
}

func TestLibraryScreen_Export(t *testing.T) {
	store := newStore()
	seed(t, store)

	var exported string
	export := func(_ context.Context, slug string) (string, error) {
		exported = slug
		return "/tmp/" + slug + ".epub", nil
	}

	screen := NewLibraryScreen(store, export)
	screen.Update(windowSize)
	run(t, screen, screen.Init())

	_, cmd := screen.Update(key("e"))
	run(t, screen, cmd)
	assert.Equal(t, "mon-manga", exported)
	assert.Contains(t, screen.View(), "EPub written to /tmp/mon-manga.epub")
}

func TestDetailsScreen(t *testing.T) {
	store := newStore()
	seriesID, _ := seed(t, store)

	screen := NewDetailsScreen(store, nil, seriesID)
	screen.Update(windowSize)
	run(t, screen, screen.Init())

	view := screen.View()
	assert.Contains(t, view, "Mon Manga")
	assert.Contains(t, view, "Action")
	assert.Contains(t, view, "1 chapitres")
	assert.Contains(t, view, "Chapitre 1: Le départ")

	_, cmd := screen.Update(key("enter"))
	require.NotNil(t, cmd)
	_, reload := screen.Update(cmd())
	run(t, screen, reload)

	series, ok := store.GetSeries(seriesID)
	require.True(t, ok)
	assert.Equal(t, 1501, series.Views)
	assert.Len(t, store.History(), 1)

	_, cmd = screen.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, SwitchScreenMsg{Screen: "library"}, cmd())
}

func TestDetailsScreen_NotFound(t *testing.T) {
	screen := NewDetailsScreen(newStore(), nil, "serie_missing")
	screen.Update(windowSize)
	run(t, screen, screen.Init())
	assert.Contains(t, screen.View(), "Series not found")
}

func TestSearchScreen(t *testing.T) {
	source := &fakeSource{results: []sources.Manga{
		{ID: "md-1", Series: library.NewSeries{Title: "Frieren", Description: "After the journey"}},
		{ID: "md-2", Series: library.NewSeries{Title: "Berserk"}},
	}}
	screen := NewSearchScreen(source, nil, nil)
	screen.Update(windowSize)

	screen.Update(key("f"))
	assert.Equal(t, "f", screen.input.Value())

	screen.input.SetValue("frieren")
	_, cmd := screen.Update(key("enter"))
	assert.True(t, screen.searching)
	assert.Contains(t, screen.View(), "Searching...")
	run(t, screen, cmd)

	assert.False(t, screen.searching)
	assert.False(t, screen.input.Focused())
	view := screen.View()
	assert.Contains(t, view, "2 résultats")
	assert.Contains(t, view, "Frieren")
	assert.Contains(t, view, "ID: md-2")

	screen.Update(key("j"))
	assert.Equal(t, 1, screen.selected)
	screen.Update(key("j"))
	assert.Equal(t, 0, screen.selected)
	screen.Update(key("k"))
	assert.Equal(t, 1, screen.selected)
}

func TestSearchScreen_Error(t *testing.T) {
	screen := NewSearchScreen(&fakeSource{err: errors.New("catalog unavailable")}, nil, nil)
	screen.Update(windowSize)
	screen.input.SetValue("x")

	_, cmd := screen.Update(key("enter"))
	run(t, screen, cmd)
	assert.Contains(t, screen.View(), "Error: catalog unavailable")
}

func TestRootScreen_Tabs(t *testing.T) {
	root := NewRootScreen(newStore(), &fakeSource{}, nil, nil, nil)
	root.Update(windowSize)
	assert.Equal(t, homeView, root.currentView)

	for _, want := range []screenType{libraryView, searchView, homeView} {
		root.Update(key("tab"))
		assert.Equal(t, want, root.currentView)
	}

	root.Update(key("tab"))
	root.Update(key("tab"))
	root.Update(key("q"))
	assert.Equal(t, searchView, root.currentView)
	assert.Equal(t, "q", root.search.input.Value())

	root.Update(SwitchScreenMsg{Screen: "home"})
	_, cmd := root.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestRootScreen_Details(t *testing.T) {
	store := newStore()
	seriesID, _ := seed(t, store)

	root := NewRootScreen(store, &fakeSource{}, nil, nil, nil)
	root.Update(windowSize)

	_, cmd := root.Update(SwitchScreenMsg{Screen: "details", Data: seriesID})
	assert.Equal(t, detailsView, root.currentView)
	run(t, root, cmd)
	assert.Contains(t, root.View(), "Chapitre 1: Le départ")
	assert.NotContains(t, root.View(), "Bibliothèque")

	root.Update(key("tab"))
	assert.Equal(t, detailsView, root.currentView)
}

func TestRootScreen_ImportProgress(t *testing.T) {
	root := NewRootScreen(newStore(), &fakeSource{}, nil, nil, nil)
	root.Update(windowSize)

	root.Update(importProgressMsg{SeriesID: "serie_1", ChapterID: "c1", ChapterNumber: 3, CurrentPage: 2, TotalPages: 4, Status: "downloading"})
	assert.Contains(t, root.View(), "Imports en cours")
	assert.Contains(t, root.View(), "Chapitre 3")

	root.Update(importProgressMsg{SeriesID: "serie_1", ChapterID: "c1", Status: "complete"})
	assert.NotContains(t, root.View(), "Imports en cours")

	root.Update(ImportFinishedMsg{Title: "Frieren", Report: services.ImportReport{Imported: 2, Skipped: 1}})
	assert.Contains(t, root.View(), "Imported Frieren: 2 chapters, 1 skipped")

	root.Update(ImportFinishedMsg{Title: "Berserk", Err: errors.New("manga not found")})
	assert.Contains(t, root.View(), "Import of Berserk failed: manga not found")
}
