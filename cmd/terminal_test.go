package cmd

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResizeTicker struct {
	ch <-chan time.Time
}

func (f *fakeResizeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeResizeTicker) Stop()               {}

func makePipe(t *testing.T) (*os.File, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})
	return r, w
}

func TestProgramOptionsPipedUsesTerminal(t *testing.T) {
	origPiped, origOpen := stdinIsPiped, openTerminalIOFn
	t.Cleanup(func() { stdinIsPiped, openTerminalIOFn = origPiped, origOpen })

	inFile, err := os.CreateTemp(t.TempDir(), "tty-in-*")
	require.NoError(t, err)
	outFile, err := os.CreateTemp(t.TempDir(), "tty-out-*")
	require.NoError(t, err)
	stdinIsPiped = func() bool { return true }
	openTerminalIOFn = func() (*os.File, *os.File, error) { return inFile, outFile, nil }

	opts, release := programOptions()
	require.NotNil(t, release)
	assert.Len(t, opts, 4)

	release()
	assert.Error(t, inFile.Close(), "release closes the input handle")
	assert.Error(t, outFile.Close(), "release closes the output handle")
}

func TestProgramOptionsNotPiped(t *testing.T) {
	origPiped, origOpen := stdinIsPiped, openTerminalIOFn
	t.Cleanup(func() { stdinIsPiped, openTerminalIOFn = origPiped, origOpen })

	stdinIsPiped = func() bool { return false }
	openTerminalIOFn = func() (*os.File, *os.File, error) {
		return nil, nil, errors.New("should not be called")
	}

	opts, release := programOptions()
	assert.Nil(t, opts)
	assert.NotPanics(t, release)
}

func TestProgramOptionsWithoutTerminal(t *testing.T) {
	origPiped, origOpen := stdinIsPiped, openTerminalIOFn
	t.Cleanup(func() { stdinIsPiped, openTerminalIOFn = origPiped, origOpen })

	stdinIsPiped = func() bool { return true }
	openTerminalIOFn = func() (*os.File, *os.File, error) {
		return nil, nil, errors.New("no tty")
	}

	opts, release := programOptions()
	assert.Nil(t, opts)
	assert.NotPanics(t, release)
}

func TestTerminalDeviceNames(t *testing.T) {
	in, out := terminalDeviceNames("windows")
	assert.Equal(t, "CONIN$", in)
	assert.Equal(t, "CONOUT$", out)

	in, out = terminalDeviceNames("linux")
	assert.Equal(t, "/dev/tty", in)
	assert.Equal(t, "/dev/tty", out)
}

// stubResize swaps the watcher seams and returns the tick and message
// channels.
func stubResize(t *testing.T, sizes func(call int32) (int, int)) (chan time.Time, chan tea.WindowSizeMsg) {
	t.Helper()
	origSize, origTicker, origSend := termGetSize, newResizeTicker, sendWindowSize

	var calls atomic.Int32
	termGetSize = func(int) (int, int, error) {
		w, h := sizes(calls.Add(1))
		return w, h, nil
	}
	ticks := make(chan time.Time, 3)
	newResizeTicker = func(time.Duration) resizeTicker { return &fakeResizeTicker{ch: ticks} }
	msgs := make(chan tea.WindowSizeMsg, 3)
	sendWindowSize = func(_ *tea.Program, msg tea.WindowSizeMsg) { msgs <- msg }

	t.Cleanup(func() { termGetSize, newResizeTicker, sendWindowSize = origSize, origTicker, origSend })
	return ticks, msgs
}

func recvSize(t *testing.T, msgs <-chan tea.WindowSizeMsg) tea.WindowSizeMsg {
	t.Helper()
	select {
	case m := <-msgs:
		return m
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for resize message")
		return tea.WindowSizeMsg{}
	}
}

func TestResizeWatcherSendsOnChange(t *testing.T) {
	ticks, msgs := stubResize(t, func(call int32) (int, int) {
		if call == 1 {
			return 80, 24
		}
		return 81, 24
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	_, out := makePipe(t)
	var p tea.Program
	withResizeWatcher(ctx, out)(&p)

	ticks <- time.Now()
	ticks <- time.Now()
	assert.Equal(t, tea.WindowSizeMsg{Width: 80, Height: 24}, recvSize(t, msgs))
	assert.Equal(t, tea.WindowSizeMsg{Width: 81, Height: 24}, recvSize(t, msgs))
}

func TestResizeWatcherSkipsUnchangedSize(t *testing.T) {
	ticks, msgs := stubResize(t, func(call int32) (int, int) {
		if call <= 2 {
			return 80, 24
		}
		return 100, 30
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	_, out := makePipe(t)
	var p tea.Program
	withResizeWatcher(ctx, out)(&p)

	ticks <- time.Now()
	assert.Equal(t, tea.WindowSizeMsg{Width: 80, Height: 24}, recvSize(t, msgs))

	ticks <- time.Now()
	select {
	case m := <-msgs:
		t.Fatalf("unexpected resize message for an unchanged size: %+v", m)
	case <-time.After(150 * time.Millisecond):
	}

	ticks <- time.Now()
	assert.Equal(t, tea.WindowSizeMsg{Width: 100, Height: 30}, recvSize(t, msgs))
}

func TestResizeWatcherNilOutput(t *testing.T) {
	var p tea.Program
	assert.NotPanics(t, func() { withResizeWatcher(context.Background(), nil)(&p) })
}
