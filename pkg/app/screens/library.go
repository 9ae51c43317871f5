package screens

import (
	"context"
	"fmt"

	"github.com/YungFritz/kyys-letters/pkg/app/components"
	"github.com/YungFritz/kyys-letters/pkg/app/styles"
	"github.com/YungFritz/kyys-letters/pkg/library"
	tea "github.com/charmbracelet/bubbletea"
)

type LibraryScreen struct {
	store      *library.Store
	export     Exporter
	seriesList *components.SeriesList
	status     string
	width      int
	height     int
	err        error
}

func NewLibraryScreen(store *library.Store, export Exporter) *LibraryScreen {
	return &LibraryScreen{
		store:      store,
		export:     export,
		seriesList: components.NewSeriesList("No series yet"),
	}
}

func (s *LibraryScreen) Init() tea.Cmd {
	return s.loadLibrary
}

func (s *LibraryScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.seriesList.Width = msg.Width - 4
		s.seriesList.Height = msg.Height - 10

	case tea.KeyMsg:
		selected := s.seriesList.Selected()
		switch msg.String() {
		case "up", "k":
			s.seriesList.Prev()
		case "down", "j":
			s.seriesList.Next()
		case "r":
			return s, s.loadLibrary
		case "d":
			if selected != nil {
				return s, s.deleteSeries(selected.Series.ID)
			}
		case "f":
			if selected != nil {
				return s, s.toggleFavorite(selected.Series.ID)
			}
		case "e":
			if selected != nil && s.export != nil {
				return s, s.generateEPUB(selected.Series.Slug)
			}
		case "enter":
			if selected != nil {
				id := selected.Series.ID
				return s, func() tea.Msg { return SwitchScreenMsg{Screen: "details", Data: id} }
			}
		}

	case libraryLoadedMsg:
		s.seriesList.SetItems(msg.items)

	case epubGeneratedMsg:
		s.err = msg.err
		if msg.err == nil {
			s.status = "EPub written to " + msg.path
		}

	case libraryChangedMsg:
		s.err = msg.err
		return s, s.loadLibrary
	}

	return s, nil
}

func (s *LibraryScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("Bibliothèque")

	var notice string
	if s.err != nil {
		notice = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)) + "\n\n"
	} else if s.status != "" {
		notice = styles.StatusCompleted.Render(s.status) + "\n\n"
	}

	help := styles.HelpStyle.Render(
		"↑/k: up · ↓/j: down · enter: details · f: favorite · e: EPub · d: delete · r: refresh · tab: switch view · q: quit",
	)
	return fmt.Sprintf("%s\n\n%s%s\n%s", header, notice, s.seriesList.View(), help)
}

// Messages
type libraryLoadedMsg struct {
	items []components.SeriesListItem
}

type libraryChangedMsg struct {
	err error
}

// Commands
func (s *LibraryScreen) loadLibrary() tea.Msg {
	favorites := map[string]bool{}
	for _, f := range s.store.Favorites() {
		favorites[f.ID] = true
	}
	series := s.store.ListSeries()
	items := make([]components.SeriesListItem, len(series))
	for i, item := range series {
		items[i] = components.SeriesListItem{Series: item, Favorite: favorites[item.ID]}
	}
	return libraryLoadedMsg{items: items}
}

func (s *LibraryScreen) deleteSeries(id string) tea.Cmd {
	return func() tea.Msg {
		return libraryChangedMsg{err: s.store.DeleteSeries(context.Background(), id)}
	}
}

func (s *LibraryScreen) toggleFavorite(id string) tea.Cmd {
	return func() tea.Msg {
		_, err := s.store.ToggleFavorite(id)
		return libraryChangedMsg{err: err}
	}
}

func (s *LibraryScreen) generateEPUB(slug string) tea.Cmd {
	return func() tea.Msg {
		path, err := s.export(context.Background(), slug)
		return epubGeneratedMsg{path: path, err: err}
	}
}
