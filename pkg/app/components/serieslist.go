package components

import (
	"fmt"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/app/styles"
	"github.com/YungFritz/kyys-letters/pkg/data"
	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/charmbracelet/lipgloss"
)

type SeriesListItem struct {
	Series   data.Series
	Favorite bool
}

// SeriesList is a scrollable list of series cards.
type SeriesList struct {
	Items         []SeriesListItem
	SelectedIndex int
	Width         int
	Height        int
	EmptyText     string
}

func NewSeriesList(emptyText string) *SeriesList {
	return &SeriesList{
		Items:     []SeriesListItem{},
		Width:     80,
		Height:    20,
		EmptyText: emptyText,
	}
}

func (l *SeriesList) SetItems(items []SeriesListItem) {
	l.Items = items
	if l.SelectedIndex >= len(items) && len(items) > 0 {
		l.SelectedIndex = len(items) - 1
	}
	if len(items) == 0 {
		l.SelectedIndex = 0
	}
}

func (l *SeriesList) Next() {
	if len(l.Items) == 0 {
		return
	}
	l.SelectedIndex = (l.SelectedIndex + 1) % len(l.Items)
}

func (l *SeriesList) Prev() {
	if len(l.Items) == 0 {
		return
	}
	l.SelectedIndex--
	if l.SelectedIndex < 0 {
		l.SelectedIndex = len(l.Items) - 1
	}
}

func (l *SeriesList) Selected() *SeriesListItem {
	if len(l.Items) == 0 || l.SelectedIndex >= len(l.Items) {
		return nil
	}
	return &l.Items[l.SelectedIndex]
}

func (l *SeriesList) View() string {
	if len(l.Items) == 0 {
		return lipgloss.Place(l.Width, l.Height, lipgloss.Center, lipgloss.Center,
			styles.EmptyStateStyle.Render(l.EmptyText))
	}

	var b strings.Builder
	for i, item := range l.Items {
		style := styles.CardStyle
		if i == l.SelectedIndex {
			style = styles.ActiveCardStyle
		}
		b.WriteString(style.Width(max(l.Width-4, 20)).Render(SeriesCard(item)))
		b.WriteString("\n")
	}
	return b.String()
}

// SeriesCard renders the body of a series card.
func SeriesCard(item SeriesListItem) string {
	s := item.Series

	title := styles.TitleStyle.Render(s.Title)
	if item.Favorite {
		title = "★ " + title
	}
	if s.Hot {
		title += " " + styles.HotBadge.Render("HOT")
	}

	lines := []string{title}
	if len(s.Tags) > 0 {
		lines = append(lines, styles.TagStyle.Render(strings.Join(s.Tags, " · ")))
	}
	if s.Description != "" {
		lines = append(lines, styles.TextStyle.Render(Truncate(s.Description, 80)))
	}
	info := fmt.Sprintf("%d chapitres · %s", len(s.Chapters), library.FormatViews(s.Views))
	lines = append(lines, styles.ViewsStyle.Render(info))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Truncate shortens s to at most n runes, ending with "..." when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
