// Package termio wraps the controlling terminal: raw-mode entry/exit, ANSI
// sequence emission, window-size queries, and SIGWINCH notification.
package termio

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Cursor styles, emitted as DECSCUSR sequences.
const (
	CursorBlock = "\x1b[2 q" // normal mode
	CursorBar   = "\x1b[6 q" // insert mode

	pasteEnable  = "\x1b[?2004h"
	pasteDisable = "\x1b[?2004l"
)

// Terminal owns the raw-mode lifecycle and a buffered ANSI writer for a
// single controlling tty.
type Terminal struct {
	fd       int
	in       *os.File
	out      *bufio.Writer
	saved    *term.State
	sigCh    chan os.Signal
	resizeCh chan struct{}
}

// New wraps the given input/output files, normally os.Stdin and os.Stdout.
func New(in, out *os.File) *Terminal {
	return &Terminal{
		fd:  int(in.Fd()),
		in:  in,
		out: bufio.NewWriter(out),
	}
}

// IsTTY reports whether the wrapped input is a terminal.
func (t *Terminal) IsTTY() bool {
	return term.IsTerminal(t.fd)
}

// EnterRaw captures the current tty attributes and switches to raw mode:
// canonical mode, local echo, and ISIG are disabled; VMIN=1, VTIME=0.
// Idempotent with respect to the saved attributes. Fails silently
// (returns nil) if stdin is not a tty.
func (t *Terminal) EnterRaw() error {
	if !t.IsTTY() {
		return nil
	}
	if t.saved != nil {
		return nil
	}
	saved, err := term.MakeRaw(t.fd)
	if err != nil {
		return nil
	}
	t.saved = saved
	t.WriteString(pasteEnable)
	t.Flush()
	return nil
}

// LeaveRaw disables bracketed paste and restores the saved tty attributes.
func (t *Terminal) LeaveRaw() error {
	if t.saved == nil {
		return nil
	}
	t.WriteString(pasteDisable)
	t.Flush()
	err := term.Restore(t.fd, t.saved)
	t.saved = nil
	return err
}

// QuerySize returns (cols, rows); on failure it returns (80, 24).
func (t *Terminal) QuerySize() (cols, rows int) {
	ws, err := unix.IoctlGetWinsize(t.fd, unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 80, 24
	}
	return int(ws.Col), int(ws.Row)
}

// resizeFlag is a process-wide atomic boolean the SIGWINCH handler sets.
// Kept process-wide (rather than per-Terminal) since the signal handler
// cannot be handed a receiver argument, so it needs a name it can reach
// without one.
var resizeFlag atomic.Bool

// InstallResizeNotifier arranges for resizeFlag to be set on SIGWINCH and
// returns a function to check-and-clear it.
func InstallResizeNotifier() (pending func() bool) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	go func() {
		for range ch {
			resizeFlag.Store(true)
		}
	}()
	return func() bool {
		return resizeFlag.Swap(false)
	}
}

// ResizeChannel arranges for a notification on SIGWINCH and returns a
// channel that receives one value per signal. The channel is buffered so a
// resize arriving while the reader is busy isn't lost, but coalesces:
// a burst of SIGWINCHes while the reader is away still only wakes it once.
// Unlike InstallResizeNotifier's poll-and-clear flag, this lets a blocking
// reader (the Line Editor's decode loop) select on the signal directly
// instead of only noticing it between commands.
func ResizeChannel() <-chan struct{} {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGWINCH)
	out := make(chan struct{}, 1)
	go func() {
		for range sig {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out
}

// Reader returns the raw input stream for byte-at-a-time reads.
func (t *Terminal) Reader() io.Reader { return t.in }

// Write buffers ANSI output; it is flushed explicitly, never on every call.
func (t *Terminal) Write(p []byte) (int, error) { return t.out.Write(p) }

// WriteString buffers a string the same way Write does.
func (t *Terminal) WriteString(s string) (int, error) { return t.out.WriteString(s) }

// Flush emits everything buffered since the last Flush.
func (t *Terminal) Flush() error { return t.out.Flush() }

// SetCursorStyle emits the DECSCUSR sequence for the given mode.
func (t *Terminal) SetCursorStyle(style string) { t.WriteString(style) }

// ClearScreen emits ESC[2J ESC[H.
func (t *Terminal) ClearScreen() { t.WriteString("\x1b[2J\x1b[H") }
