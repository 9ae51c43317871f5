package components

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/YungFritz/kyys-letters/pkg/app/styles"
	"github.com/YungFritz/kyys-letters/pkg/services"
)

// ProgressTracker keeps the latest state of every running chapter import.
type ProgressTracker struct {
	imports map[string]*services.ImportProgress
	width   int
}

func NewProgressTracker(width int) *ProgressTracker {
	return &ProgressTracker{
		imports: make(map[string]*services.ImportProgress),
		width:   width,
	}
}

func (p *ProgressTracker) SetWidth(width int) {
	p.width = width
}

func (p *ProgressTracker) Update(progress services.ImportProgress) {
	key := progress.SeriesID + ":" + progress.ChapterID
	if progress.Status == "complete" && progress.ChapterID != "" {
		delete(p.imports, key)
		return
	}
	prog := progress
	p.imports[key] = &prog
}

func (p *ProgressTracker) Clear() {
	p.imports = make(map[string]*services.ImportProgress)
}

func (p *ProgressTracker) HasActive() bool {
	return len(p.imports) > 0
}

func (p *ProgressTracker) View() string {
	if len(p.imports) == 0 {
		return ""
	}

	keys := make([]string, 0, len(p.imports))
	for k := range p.imports {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Imports en cours"))
	b.WriteString("\n\n")

	for _, key := range keys {
		progress := p.imports[key]
		b.WriteString(styles.TextStyle.Render("Chapitre " + strconv.FormatFloat(progress.ChapterNumber, 'f', -1, 64)))
		b.WriteString("\n")

		statusText := progress.Status
		if progress.TotalPages > 0 {
			percentage := float64(progress.CurrentPage) / float64(progress.TotalPages) * 100
			statusText = fmt.Sprintf("%s (%d/%d pages - %.0f%%)",
				progress.Status, progress.CurrentPage, progress.TotalPages, percentage)
			b.WriteString(renderProgressBar(progress.CurrentPage, progress.TotalPages, p.width-4))
			b.WriteString("\n")
		}
		b.WriteString(styles.StatusStyle(progress.Status).Render(statusText))
		b.WriteString("\n")

		if progress.Error != nil {
			b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", progress.Error)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderProgressBar(current, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}
	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return styles.ProgressBarStyle.Render(bar)
}

// SimpleProgress renders a simple progress bar
func SimpleProgress(current, total, width int) string {
	return renderProgressBar(current, total, width)
}
