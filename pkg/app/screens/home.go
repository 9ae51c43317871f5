package screens

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/app/styles"
	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/library"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const homeLimit = 10

type homeTab int

const (
	popularTab homeTab = iota
	latestTab
)

// HomeScreen shows the most viewed series and the latest chapters.
type HomeScreen struct {
	store *library.Store

	tab      homeTab
	popular  []data.Series
	latest   []data.LatestEntry
	stats    library.Stats
	tags     []string
	selected int

	width  int
	height int
}

func NewHomeScreen(store *library.Store) *HomeScreen {
	return &HomeScreen{store: store}
}

type homeLoadedMsg struct {
	popular []data.Series
	latest  []data.LatestEntry
	stats   library.Stats
	tags    []string
}

func (s *HomeScreen) Init() tea.Cmd {
	return s.load
}

func (s *HomeScreen) load() tea.Msg {
	return homeLoadedMsg{
		popular: s.store.Popular(homeLimit),
		latest:  s.store.Latest(homeLimit),
		stats:   s.store.Stats(),
		tags:    s.store.Tags(),
	}
}

func (s *HomeScreen) count() int {
	if s.tab == latestTab {
		return len(s.latest)
	}
	return len(s.popular)
}

func (s *HomeScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height

	case homeLoadedMsg:
		s.popular = msg.popular
		s.latest = msg.latest
		s.stats = msg.stats
		s.tags = msg.tags
		if s.selected >= s.count() {
			s.selected = 0
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h", "right", "l":
			if s.tab == popularTab {
				s.tab = latestTab
			} else {
				s.tab = popularTab
			}
			s.selected = 0
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < s.count()-1 {
				s.selected++
			}
		case "r":
			return s, s.load
		case "enter":
			if id := s.selectedSeriesID(); id != "" {
				return s, func() tea.Msg { return SwitchScreenMsg{Screen: "details", Data: id} }
			}
		}
	}
	return s, nil
}

func (s *HomeScreen) selectedSeriesID() string {
	switch {
	case s.tab == popularTab && s.selected < len(s.popular):
		return s.popular[s.selected].ID
	case s.tab == latestTab && s.selected < len(s.latest):
		return s.latest[s.selected].Series.ID
	}
	return ""
}

func (s *HomeScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("Kyy's Letters")
	summary := styles.MutedStyle.Render(fmt.Sprintf("%d séries · %d chapitres", s.stats.Series, s.stats.Chapters))

	if s.stats.Series == 0 {
		empty := styles.EmptyStateStyle.Render("No series yet\n\nUse the Search tab to import one,\nor run `kyys series add`.")
		return lipgloss.JoinVertical(lipgloss.Left, header, summary, "", empty)
	}

	popularTabLabel := styles.InactiveTabStyle.Render("Populaires")
	latestTabLabel := styles.InactiveTabStyle.Render("Dernières sorties")
	if s.tab == popularTab {
		popularTabLabel = styles.ActiveTabStyle.Render("Populaires")
	} else {
		latestTabLabel = styles.ActiveTabStyle.Render("Dernières sorties")
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, popularTabLabel, latestTabLabel)
	if len(s.tags) > 0 {
		summary = lipgloss.JoinVertical(lipgloss.Left, summary, styles.TagStyle.Render(strings.Join(s.tags, " · ")))
	}

	var rows []string
	if s.tab == popularTab {
		for i, series := range s.popular {
			row := fmt.Sprintf("%2d. %s  %s", i+1, series.Title, styles.ViewsStyle.Render(library.FormatViews(series.Views)))
			if series.Hot {
				row += " " + styles.HotBadge.Render("HOT")
			}
			rows = append(rows, s.renderRow(i, row))
		}
	} else {
		for i, entry := range s.latest {
			row := fmt.Sprintf("%s · Chapitre %s  %s", entry.Series.Title,
				strconv.FormatFloat(entry.Chapter.Number, 'f', -1, 64),
				styles.MutedStyle.Render(entry.Chapter.ReleaseDate))
			rows = append(rows, s.renderRow(i, row))
		}
		if len(rows) == 0 {
			rows = append(rows, styles.MutedStyle.Render("No chapters yet"))
		}
	}

	help := styles.HelpStyle.Render("←/→: switch list · ↑/k ↓/j: navigate · enter: details · r: refresh · tab: switch view · q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, summary, "", tabs, "", strings.Join(rows, "\n"), help)
}

func (s *HomeScreen) renderRow(i int, row string) string {
	if i == s.selected {
		return styles.TitleStyle.Render("> ") + row
	}
	return "  " + row
}
