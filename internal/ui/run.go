package ui

import (
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"
)

// TerminalSize returns the size of stdout, falling back to 80x24.
func TerminalSize() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return defaultWidth, defaultHeight
	}
	return w, h
}

// Run starts the interactive program. Width or height of 0 is detected from
// the terminal. Extra ProgramOptions (e.g. custom IO) are passed through.
func Run(p Params, opts ...tea.ProgramOption) error {
	if p.Width <= 0 || p.Height <= 0 {
		w, h := TerminalSize()
		if p.Width <= 0 {
			p.Width = w
		}
		if p.Height <= 0 {
			p.Height = h
		}
	}
	m, err := New(p)
	if err != nil {
		return err
	}
	defer m.Close()
	return RunModel(m, opts...)
}

// RunModel runs an already built model.
func RunModel(m *Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithWindowSize(m.width, m.height)}, opts...)
	prog := tea.NewProgram(m, opts...)
	_, err := prog.Run()
	if err == nil {
		m.log.V(1).Info("program exited", "edits", m.history.Len())
	}
	return err
}
