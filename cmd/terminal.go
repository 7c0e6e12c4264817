package cmd

import (
	"context"
	"os"
	"runtime"
	"time"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"
)

// Seams replaced by tests.
var (
	stdinIsPiped = func() bool {
		fi, err := os.Stdin.Stat()
		return err == nil && fi.Mode()&os.ModeCharDevice == 0
	}
	stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
	openTerminalIOFn = openTerminalIO
	termGetSize      = term.GetSize
	newResizeTicker  = func(d time.Duration) resizeTicker { return wallTicker{time.NewTicker(d)} }
	sendWindowSize   = func(p *tea.Program, msg tea.WindowSizeMsg) { p.Send(msg) }
)

const resizePollInterval = 250 * time.Millisecond

type resizeTicker interface {
	C() <-chan time.Time
	Stop()
}

type wallTicker struct{ t *time.Ticker }

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

// tty is the controlling terminal reopened for a grid whose items were piped
// in. out may equal in.
type tty struct {
	in, out *os.File
}

func (t tty) close() {
	if t.in != nil {
		_ = t.in.Close()
	}
	if t.out != nil && t.out != t.in {
		_ = t.out.Close()
	}
}

// programOptions points the program at the controlling terminal when the
// items arrived on stdin. Without one (CI, detached runs) no options are
// returned and the program reads the exhausted stdin. The returned func
// stops the resize watcher and closes the terminal.
func programOptions() ([]tea.ProgramOption, func()) {
	if !stdinIsPiped() {
		return nil, func() {}
	}
	in, out, err := openTerminalIOFn()
	if err != nil {
		tty{in: in, out: out}.close()
		return nil, func() {}
	}
	t := tty{in: in, out: out}

	ctx, stop := context.WithCancel(context.Background())
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithInput(t.in)}
	if t.out != nil {
		opts = append(opts, tea.WithOutput(t.out), withResizeWatcher(ctx, t.out))
	}
	return opts, func() {
		stop()
		t.close()
	}
}

func openTerminalIO() (*os.File, *os.File, error) {
	inName, outName := terminalDeviceNames(runtime.GOOS)
	in, err := os.OpenFile(inName, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}
	if outName == inName {
		return in, in, nil
	}
	out, err := os.OpenFile(outName, os.O_RDWR, 0)
	if err != nil {
		_ = in.Close()
		return nil, nil, err
	}
	return in, out, nil
}

func terminalDeviceNames(goos string) (in, out string) {
	if goos == "windows" {
		return "CONIN$", "CONOUT$"
	}
	return "/dev/tty", "/dev/tty"
}

// withResizeWatcher reports size changes of out as WindowSizeMsg until ctx
// ends. SIGWINCH is not delivered to a program reading a pipe on every
// platform, so the size is polled.
func withResizeWatcher(ctx context.Context, out *os.File) tea.ProgramOption {
	return func(p *tea.Program) {
		if out == nil {
			return
		}
		go watchSize(ctx, p, int(out.Fd()))
	}
}

func watchSize(ctx context.Context, p *tea.Program, fd int) {
	ticker := newResizeTicker(resizePollInterval)
	defer ticker.Stop()

	var last tea.WindowSizeMsg
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
		w, h, err := termGetSize(fd)
		if err != nil {
			continue
		}
		size := tea.WindowSizeMsg{Width: w, Height: h}
		if size == last {
			continue
		}
		last = size
		sendWindowSize(p, size)
	}
}
