// Package tui embeds the kvgrid terminal grid in host applications.
//
//	rows := []Order{...}
//	if err := tui.Run(rows, tui.Config{Sort: "total:desc"}); err != nil {
//		log.Fatal(err)
//	}
package tui

import (
	"io"
	"os"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"golang.org/x/term"

	"github.com/oakwood-commons/kvgrid/internal/ui"
	"github.com/oakwood-commons/kvgrid/pkg/loader"
)

// defaultFallbackTermWidth is used when terminal size cannot be detected.
const defaultFallbackTermWidth = 120

// DetectTerminalSize returns the best-effort terminal width and height by
// probing stdout, stderr and stdin, then the COLUMNS environment variable.
// When nothing answers it returns 120x24.
func DetectTerminalSize() (width int, height int) {
	fds := []uintptr{os.Stdout.Fd(), os.Stderr.Fd(), os.Stdin.Fd()}
	for _, fd := range fds {
		if w, h, err := term.GetSize(int(fd)); err == nil && (w > 0 || h > 0) {
			return w, h
		}
	}
	if col := os.Getenv("COLUMNS"); col != "" {
		if w, err := strconv.Atoi(col); err == nil && w > 0 {
			return w, 24
		}
	}
	return defaultFallbackTermWidth, 24
}

// Load converts records into a dataset: a slice of structs or maps, or a
// decoded document when cfg.Path points at the records inside it.
func Load(records any, cfg Config) (*loader.Dataset, error) {
	resolved, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	opts := loader.Options{IDField: resolved.Data.IDField, AutoID: resolved.Data.AutoID, Path: resolved.Data.Path}
	if opts.Path != "" {
		return loader.FromDocuments([]any{records}, opts)
	}
	return loader.FromObjects(records, opts)
}

func params(records any, cfg Config) (ui.Params, error) {
	resolved, err := cfg.resolve()
	if err != nil {
		return ui.Params{}, err
	}
	ds, err := Load(records, cfg)
	if err != nil {
		return ui.Params{}, err
	}
	log := cfg.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return ui.Params{
		Dataset: ds,
		Config:  resolved,
		Logger:  log,
		Width:   cfg.Width,
		Height:  cfg.Height,
		NoColor: cfg.NoColor,
		Now:     cfg.Now,
	}, nil
}

// Run starts the interactive grid over records. Host applications can pass
// tea.ProgramOption values to control IO.
func Run(records any, cfg Config, opts ...tea.ProgramOption) error {
	p, err := params(records, cfg)
	if err != nil {
		return err
	}
	return ui.Run(p, opts...)
}

// RenderSnapshot renders the first screen of the grid over records and
// returns it as text. Deferred work is completed before rendering.
func RenderSnapshot(records any, cfg Config) (string, error) {
	p, err := params(records, cfg)
	if err != nil {
		return "", err
	}
	if p.Width <= 0 || p.Height <= 0 {
		w, h := DetectTerminalSize()
		if p.Width <= 0 {
			p.Width = w
		}
		if p.Height <= 0 {
			p.Height = h
		}
	}
	m, err := ui.New(p)
	if err != nil {
		return "", err
	}
	defer m.Close()
	return ui.Snapshot(m, ui.SnapshotOptions{ActiveRow: -1})
}

// WithIO returns tea.ProgramOptions to set custom input/output.
func WithIO(in io.Reader, out io.Writer) []tea.ProgramOption {
	opts := []tea.ProgramOption{}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return opts
}
