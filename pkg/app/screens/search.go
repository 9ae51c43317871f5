package screens

import (
	"context"
	"fmt"

	"github.com/YungFritz/kyys-letters/pkg/app/components"
	"github.com/YungFritz/kyys-letters/pkg/app/styles"
	"github.com/YungFritz/kyys-letters/pkg/services"
	"github.com/YungFritz/kyys-letters/pkg/sources"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SearchScreen searches the catalog source and imports the chosen series.
type SearchScreen struct {
	source    sources.Source
	importer  *services.Importer
	langs     []string
	input     textinput.Model
	results   []sources.Manga
	selected  int
	searching bool
	width     int
	height    int
	err       error
}

func NewSearchScreen(source sources.Source, importer *services.Importer, langs []string) *SearchScreen {
	ti := textinput.New()
	ti.Placeholder = "Rechercher une série..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	return &SearchScreen{
		source:   source,
		importer: importer,
		langs:    langs,
		input:    ti,
	}
}

func (s *SearchScreen) Init() tea.Cmd {
	return textinput.Blink
}

func (s *SearchScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height

	case tea.KeyMsg:
		if s.searching {
			return s, nil
		}

		switch msg.String() {
		case "enter":
			if s.input.Focused() {
				if query := s.input.Value(); query != "" {
					s.searching = true
					return s, s.performSearch(query)
				}
			} else if len(s.results) > 0 {
				return s, s.startImport(s.results[s.selected])
			}

		case "esc":
			if s.input.Focused() {
				s.input.Blur()
			} else {
				cmd = s.input.Focus()
			}
			return s, cmd

		case "up", "k":
			if !s.input.Focused() && len(s.results) > 0 {
				s.selected--
				if s.selected < 0 {
					s.selected = len(s.results) - 1
				}
			}

		case "down", "j":
			if !s.input.Focused() && len(s.results) > 0 {
				s.selected = (s.selected + 1) % len(s.results)
			}
		}

	case searchResultMsg:
		s.searching = false
		s.results = msg.results
		s.selected = 0
		s.err = msg.err
		if len(s.results) > 0 {
			s.input.Blur()
		}
	}

	if s.input.Focused() {
		s.input, cmd = s.input.Update(msg)
	}
	return s, cmd
}

func (s *SearchScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("Recherche")

	inputStyle := styles.InputStyle
	if s.input.Focused() {
		inputStyle = styles.FocusedInputStyle
	}
	inputView := inputStyle.Render(s.input.View())

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)) + "\n\n"
	}

	var resultsView string
	switch {
	case s.searching:
		resultsView = styles.StatusActive.Render("Searching...")
	case len(s.results) > 0:
		resultsView = s.renderResults()
	case s.input.Value() != "":
		resultsView = styles.MutedStyle.Render("No results found")
	}

	help := styles.HelpStyle.Render(
		"enter: search/import · esc: switch focus · ↑/k ↓/j: navigate · tab: switch view · ctrl+c: quit",
	)
	return fmt.Sprintf("%s\n\n%s\n\n%s%s\n\n%s", header, inputView, errorMsg, resultsView, help)
}

func (s *SearchScreen) renderResults() string {
	result := styles.SubtitleStyle.Render(fmt.Sprintf("%d résultats :", len(s.results)))
	result += "\n\n"

	for i, manga := range s.results {
		cardStyle := styles.CardStyle
		if i == s.selected && !s.input.Focused() {
			cardStyle = styles.ActiveCardStyle
		}
		content := lipgloss.JoinVertical(lipgloss.Left,
			styles.TitleStyle.Render(manga.Series.Title),
			styles.TextStyle.Render(components.Truncate(manga.Series.Description, 120)),
			styles.MutedStyle.Render("ID: "+manga.ID),
		)
		result += cardStyle.Width(max(s.width-6, 20)).Render(content) + "\n"
	}
	return result
}

// Messages
type searchResultMsg struct {
	results []sources.Manga
	err     error
}

// Commands
func (s *SearchScreen) performSearch(query string) tea.Cmd {
	return func() tea.Msg {
		results, err := s.source.Search(context.Background(), query)
		return searchResultMsg{results: results, err: err}
	}
}

// startImport switches to the library right away and reports back with an
// ImportFinishedMsg once the import returns.
func (s *SearchScreen) startImport(manga sources.Manga) tea.Cmd {
	run := func() tea.Msg {
		report, err := s.importer.ImportSeries(context.Background(), manga.ID, services.ImportOptions{Langs: s.langs})
		return ImportFinishedMsg{Title: manga.Series.Title, Report: report, Err: err}
	}
	return tea.Batch(run, func() tea.Msg { return SwitchScreenMsg{Screen: "library"} })
}
