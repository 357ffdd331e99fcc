package editor

import (
	"bufio"
	"io"
	"time"
)

// escapeProbeTimeout bounds how long Decoder waits for the bytes following
// a bare ESC before concluding it was a standalone Escape key (which the
// vi binding below maps to a Normal-mode switch).
const escapeProbeTimeout = 20 * time.Millisecond

// Decoder turns a raw byte stream into Actions. It owns the paste-mode
// flag and vim-mode-enabled flag, since both alter how a byte is
// classified.
type Decoder struct {
	r              *bufio.Reader
	bytesCh        chan byte
	errCh          chan error
	vimModeEnabled bool
	mode           Mode
	inPasteMode    bool
	pending        []byte          // bytes probed-but-unconsumed, replayed by the next readByte
	pendingOp      byte            // 'd' while waiting for the motion half of a d{motion} operator, else 0
	resizeCh       <-chan struct{} // optional; set by SetResizeChannel
}

// NewDecoder wraps r (normally a Terminal's raw input stream).
func NewDecoder(r io.Reader, vimModeEnabled bool) *Decoder {
	d := &Decoder{
		r:              bufio.NewReader(r),
		bytesCh:        make(chan byte, 64),
		errCh:          make(chan error, 1),
		vimModeEnabled: vimModeEnabled,
		mode:           ModeInsert,
	}
	go d.pump()
	return d
}

// pump feeds single bytes from the underlying reader into bytesCh so
// Next can apply a short non-blocking probe after ESC without blocking
// the whole process on the blocking Read call.
func (d *Decoder) pump() {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			d.errCh <- err
			return
		}
		d.bytesCh <- b
	}
}

func (d *Decoder) readByte() (byte, error) {
	if len(d.pending) > 0 {
		b := d.pending[0]
		d.pending = d.pending[1:]
		return b, nil
	}
	select {
	case b := <-d.bytesCh:
		return b, nil
	case err := <-d.errCh:
		return 0, err
	}
}

// pushBack requeues a probed byte so the next readByte call returns it.
func (d *Decoder) pushBack(b byte) {
	d.pending = append([]byte{b}, d.pending...)
}

// tryReadByte probes for one more byte within escapeProbeTimeout, used to
// distinguish a bare ESC from the start of an escape sequence.
func (d *Decoder) tryReadByte() (byte, bool) {
	select {
	case b := <-d.bytesCh:
		return b, true
	case <-time.After(escapeProbeTimeout):
		return 0, false
	}
}

// SetMode updates the mode used to interpret subsequent bytes (the Editor
// calls this after acting on a mode-switching Action).
func (d *Decoder) SetMode(m Mode) { d.mode = m }

// SetVimModeEnabled mirrors the editor's vim_mode_enabled flag into the
// decoder, which needs it to decide whether Normal-mode bytes are vi
// bindings or plain input.
func (d *Decoder) SetVimModeEnabled(enabled bool) { d.vimModeEnabled = enabled }

// Mode reports the decoder's current mode.
func (d *Decoder) Mode() Mode { return d.mode }

// SetResizeChannel wires a terminal resize notification (see
// termio.ResizeChannel) into the decode loop, so a SIGWINCH arriving
// while Next is blocked waiting for a keystroke is noticed immediately
// instead of only between commands.
func (d *Decoder) SetResizeChannel(ch <-chan struct{}) { d.resizeCh = ch }

// Next reads and decodes one Action. A terminal resize arriving while
// waiting for the next keystroke yields ActionRedrawLine without
// consuming any input, so the caller can redraw against the new size
// immediately.
func (d *Decoder) Next() (Action, error) {
	if len(d.pending) == 0 && d.resizeCh != nil {
		select {
		case b := <-d.bytesCh:
			d.pushBack(b)
		case err := <-d.errCh:
			return Action{}, err
		case <-d.resizeCh:
			return Action{Kind: ActionRedrawLine}, nil
		}
	}

	b, err := d.readByte()
	if err != nil {
		return Action{}, err
	}

	if d.inPasteMode {
		return d.decodePasteByte(b)
	}

	if b == 0x1b {
		d.pendingOp = 0
		return d.decodeEscape()
	}

	switch b {
	case 0x03: // Ctrl-C
		d.pendingOp = 0
		return Action{Kind: ActionCancel}, nil
	case 0x14: // Ctrl-T
		return Action{Kind: ActionVimMode, VimOp: VimToggleEnabled}, nil
	case 0x0c: // Ctrl-L
		return Action{Kind: ActionClearScreen}, nil
	case 0x04: // Ctrl-D
		return Action{Kind: ActionExitShell}, nil
	case 0x02: // Ctrl-B
		return Action{Kind: ActionToggleBookmark}, nil
	case '\t':
		return Action{Kind: ActionTapComplete}, nil
	case 8, 127:
		return Action{Kind: ActionBackspace}, nil
	case '\r', '\n':
		return Action{Kind: ActionExecuteCommand}, nil
	}

	if d.mode == ModeNormal && d.vimModeEnabled {
		if d.pendingOp == 'd' {
			d.pendingOp = 0
			if a, ok := decodeNormalByte(b); ok && a.Kind == ActionMoveCursor {
				return Action{Kind: ActionDeleteMotion, Motion: a.Motion}, nil
			}
			// Unrecognized or non-motion byte after 'd': drop the pending
			// operator rather than guessing at whole-line/text-object deletes.
			return Action{Kind: ActionNone}, nil
		}
		if b == 'd' {
			d.pendingOp = 'd'
			return Action{Kind: ActionNone}, nil
		}
		if a, ok := decodeNormalByte(b); ok {
			return a, nil
		}
	}
	if d.mode == ModeSearch {
		return Action{Kind: ActionInputChar, Char: b}, nil
	}
	if b >= 32 && b <= 126 {
		return Action{Kind: ActionInputChar, Char: b}, nil
	}
	return Action{Kind: ActionNone}, nil
}

// decodeNormalByte implements the vi Normal-mode binding table:
// h l 0 $ w W b B e E j k i a A I x D p P y u, plus the 'd' operator
// prefix handled by Next before bytes reach this table.
func decodeNormalByte(b byte) (Action, bool) {
	switch b {
	case 'h':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionRelative, Delta: -1}}, true
	case 'l':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionRelative, Delta: 1}}, true
	case '0':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineStart}}, true
	case '$':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineEnd}}, true
	case 'w':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionWordForward, Boundary: BoundaryWord}}, true
	case 'W':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionWordForward, Boundary: BoundaryWORD}}, true
	case 'b':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionWordBackward, Boundary: BoundaryWord}}, true
	case 'B':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionWordBackward, Boundary: BoundaryWORD}}, true
	case 'e':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionWordEnd, Boundary: BoundaryWord}}, true
	case 'E':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionWordEnd, Boundary: BoundaryWORD}}, true
	case 'j':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineDown}}, true
	case 'k':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineUp}}, true
	case 'i':
		return Action{Kind: ActionInsertAtPosition, InsertPos: InsertAtCursor}, true
	case 'a':
		return Action{Kind: ActionInsertAtPosition, InsertPos: InsertAfterCursor}, true
	case 'A':
		return Action{Kind: ActionInsertAtPosition, InsertPos: InsertAtLineEnd}, true
	case 'I':
		return Action{Kind: ActionInsertAtPosition, InsertPos: InsertAtLineStart}, true
	case 'x':
		return Action{Kind: ActionDeleteCharUnderCursor}, true
	case 'D':
		return Action{Kind: ActionDeleteToLineEnd}, true
	case 'p':
		return Action{Kind: ActionPaste, Dir: DirForward}, true
	case 'P':
		return Action{Kind: ActionPaste, Dir: DirBackward}, true
	case 'y':
		return Action{Kind: ActionYankLine}, true
	case 'u':
		return Action{Kind: ActionUndo}, true
	case '/':
		return Action{Kind: ActionEnterSearchMode, Dir: DirForward}, true
	case '?':
		return Action{Kind: ActionEnterSearchMode, Dir: DirBackward}, true
	}
	return Action{}, false
}

func (d *Decoder) decodePasteByte(b byte) (Action, error) {
	if b == '\r' || b == '\n' {
		return Action{Kind: ActionInputChar, Char: '\n'}, nil
	}
	// The end sequence ESC[201~ begins with ESC even mid-paste.
	if b == 0x1b {
		rest, ok := d.probeFixed(5)
		if ok && string(rest) == "[201~" {
			d.inPasteMode = false
			return Action{Kind: ActionExitPasteMode}, nil
		}
		// Not the end marker: treat the probed bytes as literal input.
		return Action{Kind: ActionInputChar, Char: b}, nil
	}
	if b >= 32 && b <= 126 || b == '\t' {
		return Action{Kind: ActionInputChar, Char: b}, nil
	}
	return Action{Kind: ActionNone}, nil
}

// probeFixed reads exactly n more bytes within escapeProbeTimeout total,
// used for multi-byte markers whose length is known in advance.
func (d *Decoder) probeFixed(n int) ([]byte, bool) {
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		b, ok := d.tryReadByte()
		if !ok {
			return out, false
		}
		out = append(out, b)
	}
	return out, true
}

// decodeEscape implements the escape-sequence table: a non-blocking probe
// after ESC; no follow-up bytes means a bare Escape, which switches to
// Normal mode.
func (d *Decoder) decodeEscape() (Action, error) {
	b1, ok := d.tryReadByte()
	if !ok {
		d.inPasteMode = false
		return Action{Kind: ActionVimMode, VimOp: VimSetMode, VimMode: ModeNormal}, nil
	}
	if b1 != '[' && b1 != 'O' {
		// Not a recognized sequence opener: ESC was standalone, and b1 is
		// the next real keystroke.
		d.pushBack(b1)
		return Action{Kind: ActionVimMode, VimOp: VimSetMode, VimMode: ModeNormal}, nil
	}
	b2, ok := d.tryReadByte()
	if !ok {
		return Action{Kind: ActionNone}, nil
	}
	switch b2 {
	case 'A':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineUp}}, nil
	case 'B':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineDown}}, nil
	case 'C':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionRelative, Delta: 1}}, nil
	case 'D':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionRelative, Delta: -1}}, nil
	case 'Z':
		return Action{Kind: ActionCycleComplete, Dir: DirBackward}, nil
	case 'H':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineStart}}, nil
	case 'F':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineEnd}}, nil
	case '1', '2', '3', '4', '7', '8':
		return d.decodeTildeSequence(b2)
	}
	return Action{Kind: ActionNone}, nil
}

// decodeTildeSequence handles ESC[<digits>~ and ESC[1;5<letter> forms.
func (d *Decoder) decodeTildeSequence(first byte) (Action, error) {
	digits := []byte{first}
	for {
		b, ok := d.tryReadByte()
		if !ok {
			return Action{Kind: ActionNone}, nil
		}
		if b == '~' {
			return tildeAction(string(digits)), nil
		}
		if b == ';' {
			// ESC[1;5C style Ctrl-Arrow / Ctrl-Home / Ctrl-End.
			modifier, ok := d.tryReadByte()
			if !ok {
				return Action{Kind: ActionNone}, nil
			}
			letter, ok := d.tryReadByte()
			if !ok {
				return Action{Kind: ActionNone}, nil
			}
			_ = modifier
			return ctrlArrowAction(letter), nil
		}
		digits = append(digits, b)
	}
}

func tildeAction(code string) Action {
	switch code {
	case "1", "7":
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineStart}}
	case "4", "8":
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineEnd}}
	case "3":
		return Action{Kind: ActionDeleteCharUnderCursor}
	case "200":
		return Action{Kind: ActionEnterPasteMode}
	case "201":
		return Action{Kind: ActionExitPasteMode}
	}
	return Action{Kind: ActionNone}
}

func ctrlArrowAction(letter byte) Action {
	switch letter {
	case 'C':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionWordForward, Boundary: BoundaryWord}}
	case 'D':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionWordBackward, Boundary: BoundaryWord}}
	case 'A':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineStart}}
	case 'B':
		return Action{Kind: ActionMoveCursor, Motion: Motion{Kind: MotionLineEnd}}
	}
	return Action{Kind: ActionNone}
}

// EnterPasteMode flips the paste flag on; called by the Editor when
// decodeEscape/tildeAction yields ActionEnterPasteMode, since the decoder
// itself only recognizes the marker embedded in decodePasteByte's own
// lookahead (the marker seen cold, outside paste, arrives through the
// normal escape path above).
func (d *Decoder) EnterPasteMode() { d.inPasteMode = true }

// ExitPasteMode flips the paste flag off unconditionally: leaving Normal
// mode always clears paste mode, regardless of how it got cleared.
func (d *Decoder) ExitPasteMode() { d.inPasteMode = false }
