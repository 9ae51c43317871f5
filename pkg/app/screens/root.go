package screens

import (
	"fmt"

	"github.com/YungFritz/kyys-letters/pkg/app/components"
	"github.com/YungFritz/kyys-letters/pkg/app/styles"
	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/YungFritz/kyys-letters/pkg/services"
	"github.com/YungFritz/kyys-letters/pkg/sources"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type screenType int

const (
	homeView screenType = iota
	libraryView
	searchView
	detailsView
)

var tabNames = []string{"Accueil", "Bibliothèque", "Recherche"}

type RootScreen struct {
	store    *library.Store
	importer *services.Importer
	export   Exporter

	currentView screenType
	home        *HomeScreen
	library     *LibraryScreen
	search      *SearchScreen
	details     *DetailsScreen
	progress    *components.ProgressTracker
	status      string

	width  int
	height int
}

// NewRootScreen wires the screens over one store. importer feeds the
// progress panel; export may be nil to disable EPub generation.
func NewRootScreen(store *library.Store, source sources.Source, importer *services.Importer, export Exporter, langs []string) *RootScreen {
	return &RootScreen{
		store:       store,
		importer:    importer,
		export:      export,
		currentView: homeView,
		home:        NewHomeScreen(store),
		library:     NewLibraryScreen(store, export),
		search:      NewSearchScreen(source, importer, langs),
		progress:    components.NewProgressTracker(0),
	}
}

func (r *RootScreen) Init() tea.Cmd {
	return tea.Batch(r.home.Init(), r.listenForProgress())
}

type importProgressMsg services.ImportProgress

func (r *RootScreen) listenForProgress() tea.Cmd {
	if r.importer == nil {
		return nil
	}
	progress := r.importer.Progress()
	return func() tea.Msg {
		p, ok := <-progress
		if !ok {
			return nil
		}
		return importProgressMsg(p)
	}
}

func (r *RootScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
		r.progress.SetWidth(msg.Width - 4)
		// Every screen keeps its size, not just the visible one.
		r.home.Update(msg)
		r.library.Update(msg)
		r.search.Update(msg)
		if r.details != nil {
			r.details.Update(msg)
		}
		return r, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return r, tea.Quit
		case "q":
			// q is a plain character while typing a query.
			if r.currentView != searchView {
				return r, tea.Quit
			}
		case "tab":
			if r.currentView == detailsView {
				break
			}
			r.currentView = (r.currentView + 1) % detailsView
			return r, r.activeInit()
		}

	case importProgressMsg:
		r.progress.Update(services.ImportProgress(msg))
		return r, r.listenForProgress()

	case ImportFinishedMsg:
		r.status = importStatus(msg)
		return r, tea.Batch(r.home.Init(), r.library.Init())

	case SwitchScreenMsg:
		switch msg.Screen {
		case "home":
			r.currentView = homeView
		case "library":
			r.currentView = libraryView
		case "search":
			r.currentView = searchView
		case "details":
			seriesID, ok := msg.Data.(string)
			if !ok {
				return r, nil
			}
			r.details = NewDetailsScreen(r.store, r.export, seriesID)
			r.details.Update(tea.WindowSizeMsg{Width: r.width, Height: r.height})
			r.currentView = detailsView
		}
		return r, r.activeInit()
	}

	// Forward message to active screen
	switch r.currentView {
	case homeView:
		_, cmd = r.home.Update(msg)
	case libraryView:
		_, cmd = r.library.Update(msg)
	case searchView:
		_, cmd = r.search.Update(msg)
	case detailsView:
		if r.details != nil {
			_, cmd = r.details.Update(msg)
		}
	}
	return r, cmd
}

func (r *RootScreen) activeInit() tea.Cmd {
	switch r.currentView {
	case homeView:
		return r.home.Init()
	case libraryView:
		return r.library.Init()
	case searchView:
		return r.search.Init()
	case detailsView:
		if r.details != nil {
			return r.details.Init()
		}
	}
	return nil
}

func importStatus(msg ImportFinishedMsg) string {
	if msg.Err != nil {
		return styles.StatusError.Render(fmt.Sprintf("Import of %s failed: %s", msg.Title, msg.Err))
	}
	text := fmt.Sprintf("Imported %s: %d chapters, %d skipped", msg.Title, msg.Report.Imported, msg.Report.Skipped)
	if n := len(msg.Report.Errors); n > 0 {
		return styles.StatusError.Render(fmt.Sprintf("%s, %d failed", text, n))
	}
	return styles.StatusCompleted.Render(text)
}

func (r *RootScreen) View() string {
	var content string
	switch r.currentView {
	case homeView:
		content = r.home.View()
	case libraryView:
		content = r.library.View()
	case searchView:
		content = r.search.View()
	case detailsView:
		if r.details != nil {
			content = r.details.View()
		}
	}

	parts := []string{}
	if tabs := r.renderTabs(); tabs != "" {
		parts = append(parts, tabs, "")
	}
	parts = append(parts, content)
	if r.progress.HasActive() {
		parts = append(parts, "", r.progress.View())
	}
	if r.status != "" {
		parts = append(parts, "", r.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (r *RootScreen) renderTabs() string {
	if r.currentView == detailsView {
		return ""
	}

	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if screenType(i) == r.currentView {
			tabs[i] = styles.ActiveTabStyle.Render(name)
		} else {
			tabs[i] = styles.InactiveTabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
