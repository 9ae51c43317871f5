package app

import (
	"github.com/YungFritz/kyys-letters/pkg/app/screens"
	"github.com/YungFritz/kyys-letters/pkg/services"
	tea "github.com/charmbracelet/bubbletea"
)

type App struct {
	ctrl  *services.Controller
	langs []string
}

// NewApp returns the terminal UI over ctrl. Imports started from the search
// screen keep the chapters in langs, all languages when empty.
func NewApp(ctrl *services.Controller, langs ...string) *App {
	return &App{ctrl: ctrl, langs: langs}
}

func (a *App) Run() error {
	// The importer is not closed on exit: an import may still be sending
	// progress when the program returns.
	importer := a.ctrl.NewImporter()
	model := screens.NewRootScreen(a.ctrl.Store, a.ctrl.Source, importer, a.ctrl.ExportEPub, a.langs)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
