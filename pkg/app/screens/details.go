package screens

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/app/styles"
	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/library"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type DetailsScreen struct {
	store           *library.Store
	export          Exporter
	seriesID        string
	series          data.Series
	found           bool
	favorite        bool
	selectedChapter int
	status          string
	width           int
	height          int
	err             error
}

func NewDetailsScreen(store *library.Store, export Exporter, seriesID string) *DetailsScreen {
	return &DetailsScreen{store: store, export: export, seriesID: seriesID}
}

func (s *DetailsScreen) Init() tea.Cmd {
	return s.loadDetails
}

func (s *DetailsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selectedChapter > 0 {
				s.selectedChapter--
			}
		case "down", "j":
			if s.selectedChapter < len(s.series.Chapters)-1 {
				s.selectedChapter++
			}
		case "enter":
			if s.selectedChapter < len(s.series.Chapters) {
				return s, s.markRead(s.series.Chapters[s.selectedChapter].ID)
			}
		case "f":
			return s, s.toggleFavorite
		case "e":
			if s.export != nil && s.found {
				return s, s.generateEPUB(s.series.Slug)
			}
		case "r":
			return s, s.loadDetails
		case "esc", "backspace":
			return s, func() tea.Msg { return SwitchScreenMsg{Screen: "library"} }
		}

	case detailsLoadedMsg:
		s.series = msg.series
		s.found = msg.found
		s.favorite = msg.favorite
		if s.selectedChapter >= len(s.series.Chapters) {
			s.selectedChapter = 0
		}

	case detailsChangedMsg:
		s.err = msg.err
		return s, s.loadDetails

	case epubGeneratedMsg:
		s.err = msg.err
		if msg.err == nil {
			s.status = "EPub written to " + msg.path
		}
	}

	return s, nil
}

func (s *DetailsScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}
	if !s.found {
		return styles.MutedStyle.Render("Series not found") + "\n" + styles.HelpStyle.Render("esc: back")
	}

	series := s.series
	title := styles.TitleStyle.Render(series.Title)
	if s.favorite {
		title = "★ " + title
	}
	if series.Hot {
		title += " " + styles.HotBadge.Render("HOT")
	}

	lines := []string{title}
	if len(series.Tags) > 0 {
		lines = append(lines, styles.TagStyle.Render(strings.Join(series.Tags, " · ")))
	}
	lines = append(lines, styles.ViewsStyle.Render(library.FormatViews(series.Views)))
	if series.Description != "" {
		lines = append(lines, "", styles.TextStyle.Width(max(s.width-4, 20)).Render(series.Description))
	}
	lines = append(lines, "", styles.SubtitleStyle.Render(fmt.Sprintf("%d chapitres", len(series.Chapters))))

	for i, c := range series.Chapters {
		row := fmt.Sprintf("Chapitre %s", strconv.FormatFloat(c.Number, 'f', -1, 64))
		if c.Name != "" {
			row += ": " + c.Name
		}
		row += styles.MutedStyle.Render(fmt.Sprintf("  %s · %s · %d pages", c.Lang, c.ReleaseDate, len(c.Pages)))
		if i == s.selectedChapter {
			row = styles.TitleStyle.Render("> ") + row
		} else {
			row = "  " + row
		}
		lines = append(lines, row)
	}

	if s.err != nil {
		lines = append(lines, "", styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)))
	} else if s.status != "" {
		lines = append(lines, "", styles.StatusCompleted.Render(s.status))
	}

	lines = append(lines, styles.HelpStyle.Render("↑/k ↓/j: navigate · enter: mark read · f: favorite · e: EPub · esc: back · q: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Messages
type detailsLoadedMsg struct {
	series   data.Series
	found    bool
	favorite bool
}

type detailsChangedMsg struct {
	err error
}

// Commands
func (s *DetailsScreen) loadDetails() tea.Msg {
	series, found := s.store.GetSeries(s.seriesID)
	favorite := false
	for _, f := range s.store.Favorites() {
		if f.ID == s.seriesID {
			favorite = true
		}
	}
	return detailsLoadedMsg{series: series, found: found, favorite: favorite}
}

func (s *DetailsScreen) markRead(chapterID string) tea.Cmd {
	return func() tea.Msg {
		return detailsChangedMsg{err: s.store.RecordView(s.seriesID, chapterID)}
	}
}

func (s *DetailsScreen) toggleFavorite() tea.Msg {
	_, err := s.store.ToggleFavorite(s.seriesID)
	return detailsChangedMsg{err: err}
}

func (s *DetailsScreen) generateEPUB(slug string) tea.Cmd {
	return func() tea.Msg {
		path, err := s.export(context.Background(), slug)
		return epubGeneratedMsg{path: path, err: err}
	}
}
