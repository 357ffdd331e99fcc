package editor

import (
	"strings"

	"github.com/atotto/clipboard"
)

// TerminalIO is the narrow slice of *termio.Terminal the editor needs to
// redraw: querying size and writing/flushing buffered ANSI output.
type TerminalIO interface {
	QuerySize() (cols, rows int)
	WriteString(s string) (int, error)
	Flush() error
	SetCursorStyle(style string)
	ClearScreen()
}

// HistoryProvider is the narrow view of internal/history.Store the editor
// needs for Up/Down navigation and bookmarking.
type HistoryProvider interface {
	Len() int
	Command(idx int) string
	ToggleBookmark(idx int)
}

// maxUndoDepth bounds the undo stack.
const maxUndoDepth = 50

type undoSnapshot struct {
	text   string
	cursor int
}

// Editor holds the Line Editor's live state: the buffer being edited,
// its clipboard and search sub-buffers, completion menu state, mode, and
// the terminal/history/completion collaborators it reads and writes
// through.
type Editor struct {
	Buf        *Buffer
	Clip       *Clipboard
	Search     *SearchBuffer
	Completion *CompletionState

	Mode           Mode
	VimModeEnabled bool
	PasteMode      bool

	Prompt  string
	RPrompt string

	Term     TerminalIO
	Decoder  *Decoder
	History  HistoryProvider
	Complete Provider
	Cwd      func() string

	displayedLines int

	historyIndex     int // -1 = none selected
	historyPrefixLen int
	historyPrefix    string
	preHistoryText   string

	undoStack []undoSnapshot

	searchDir Direction
}

// New constructs an Editor bound to term (redraw target) and decoder
// (which turns the raw input stream into Actions); history and complete
// may be nil in non-interactive use.
func New(term TerminalIO, decoder *Decoder, history HistoryProvider, complete Provider, cwd func() string) *Editor {
	return &Editor{
		Buf:          NewBuffer(),
		Clip:         &Clipboard{},
		Search:       &SearchBuffer{},
		Mode:         ModeInsert,
		Term:         term,
		Decoder:      decoder,
		History:      history,
		Complete:     complete,
		Cwd:          cwd,
		historyIndex: -1,
		displayedLines: 1,
	}
}

// ReadLineResult reports how ReadLine finished.
type ReadLineResult struct {
	Line      string
	Cancelled bool
	ExitShell bool
}

// ReadLine runs the read-decode-apply-redraw loop until the user executes
// a command, cancels, or requests shell exit. It is the Line Editor's one
// blocking point.
func (e *Editor) ReadLine(prompt, rprompt string) (ReadLineResult, error) {
	e.Prompt = prompt
	e.RPrompt = rprompt
	e.Buf.Reset()
	e.historyIndex = -1
	e.Mode = ModeInsert
	e.displayedLines = 1
	e.Term.SetCursorStyle(cursorStyleFor(e.Mode))
	e.redraw()

	for {
		action, err := e.Decoder.Next()
		if err != nil {
			return ReadLineResult{}, err
		}
		result, done := e.apply(action)
		if done {
			return result, nil
		}
		e.Term.SetCursorStyle(cursorStyleFor(e.Mode))
		e.redraw()
	}
}

func cursorStyleFor(m Mode) string {
	if m == ModeNormal {
		return "\x1b[2 q"
	}
	return "\x1b[6 q"
}

// apply executes one Action against the editor's state. done reports
// whether ReadLine should return, with result populated.
func (e *Editor) apply(a Action) (result ReadLineResult, done bool) {
	switch a.Kind {
	case ActionNone:
		return result, false

	case ActionCancel:
		if e.Mode == ModeSearch {
			e.exitSearch(false)
			return result, false
		}
		return ReadLineResult{Cancelled: true}, true

	case ActionExitShell:
		if e.Buf.Len() == 0 {
			return ReadLineResult{ExitShell: true}, true
		}
		return result, false

	case ActionExecuteCommand:
		if e.Mode == ModeSearch {
			e.exitSearch(true)
			return result, false
		}
		return ReadLineResult{Line: e.Buf.String()}, true

	case ActionClearScreen:
		e.Term.ClearScreen()
		e.displayedLines = 1
		return result, false

	case ActionToggleBookmark:
		if e.History != nil && e.historyIndex >= 0 {
			e.History.ToggleBookmark(e.historyIndex)
		}
		return result, false

	case ActionTapComplete:
		e.tapComplete()
		return result, false

	case ActionCycleComplete:
		e.cycleComplete(a.Dir)
		return result, false

	case ActionInputChar:
		e.closeCompletion()
		if e.Mode == ModeSearch {
			e.Search.Append(a.Char)
			e.runSearch()
			return result, false
		}
		e.snapshot()
		e.Buf.InsertChar(a.Char)
		return result, false

	case ActionBackspace:
		e.closeCompletion()
		if e.Mode == ModeSearch {
			e.Search.Backspace()
			e.runSearch()
			return result, false
		}
		e.snapshot()
		e.Buf.Backspace()
		return result, false

	case ActionDeleteCharUnderCursor:
		e.closeCompletion()
		e.snapshot()
		e.Buf.DeleteCharUnderCursor()
		return result, false

	case ActionDeleteToLineEnd:
		e.closeCompletion()
		e.snapshot()
		cut := e.Buf.DeleteToLineEnd()
		e.Clip.Set(cut)
		return result, false

	case ActionMoveCursor:
		e.applyMotion(a.Motion)
		return result, false

	case ActionDeleteMotion:
		e.deleteMotion(a.Motion)
		return result, false

	case ActionHistoryNav:
		if a.Dir == DirUp {
			e.historyUp()
		} else {
			e.historyDown()
		}
		return result, false

	case ActionEnterSearchMode:
		e.Mode = ModeSearch
		e.searchDir = a.Dir
		e.Search.Reset()
		e.Decoder.SetMode(ModeSearch)
		return result, false

	case ActionExitSearchMode:
		e.exitSearch(a.Execute)
		return result, false

	case ActionYankLine:
		e.yank(e.Buf.String()[e.Buf.LineStart():e.Buf.LineEnd()])
		return result, false

	case ActionYankSelection:
		e.yank(e.Buf.String()[a.SelStart:a.SelEnd])
		return result, false

	case ActionPaste:
		e.closeCompletion()
		e.snapshot()
		if a.Dir == DirForward && e.Buf.Cursor() < e.Buf.Len() {
			e.Buf.SetCursor(e.Buf.Cursor() + 1)
		}
		e.Buf.InsertString(e.Clip.Get())
		return result, false

	case ActionInsertAtPosition:
		e.applyInsertAtPosition(a.InsertPos)
		return result, false

	case ActionVimMode:
		e.applyVimMode(a)
		return result, false

	case ActionEnterPasteMode:
		e.PasteMode = true
		e.Decoder.EnterPasteMode()
		return result, false

	case ActionExitPasteMode:
		e.PasteMode = false
		e.Decoder.ExitPasteMode()
		return result, false

	case ActionUndo:
		e.undo()
		return result, false

	case ActionRedrawLine:
		return result, false
	}
	return result, false
}

// yank sets the in-buffer clipboard and mirrors it to the OS clipboard
// when one is available; clipboard.WriteAll's error (no clipboard
// utility installed, headless session, etc.) is silently ignored since
// the in-buffer clip still serves p/P.
func (e *Editor) yank(text string) {
	e.Clip.Set(text)
	_ = clipboard.WriteAll(text)
}

func (e *Editor) snapshot() {
	e.undoStack = append(e.undoStack, undoSnapshot{text: e.Buf.String(), cursor: e.Buf.Cursor()})
	if len(e.undoStack) > maxUndoDepth {
		e.undoStack = e.undoStack[len(e.undoStack)-maxUndoDepth:]
	}
}

func (e *Editor) undo() {
	if len(e.undoStack) == 0 {
		return
	}
	last := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]
	e.Buf.SetText(last.text)
	e.Buf.SetCursor(last.cursor)
}

func (e *Editor) applyVimMode(a Action) {
	switch a.VimOp {
	case VimToggleEnabled:
		e.VimModeEnabled = !e.VimModeEnabled
		e.Decoder.SetVimModeEnabled(e.VimModeEnabled)
		if !e.VimModeEnabled {
			e.Mode = ModeInsert
		}
	case VimToggleMode:
		if e.Mode == ModeNormal {
			e.Mode = ModeInsert
		} else {
			e.Mode = ModeNormal
		}
	case VimSetMode:
		e.Mode = a.VimMode
	}
	if e.Mode != ModeSearch {
		e.PasteMode = false
		e.Decoder.ExitPasteMode()
	}
	e.Decoder.SetMode(e.Mode)
}

func (e *Editor) applyInsertAtPosition(pos InsertPosition) {
	switch pos {
	case InsertAtCursor:
	case InsertAfterCursor:
		if e.Buf.Cursor() < e.Buf.Len() {
			e.Buf.SetCursor(e.Buf.Cursor() + 1)
		}
	case InsertAtLineStart:
		e.Buf.SetCursor(e.Buf.LineStart())
	case InsertAtLineEnd:
		e.Buf.SetCursor(e.Buf.LineEnd())
	}
	e.Mode = ModeInsert
	e.Decoder.SetMode(ModeInsert)
}

// applyMotion moves the cursor: line-up/line-down try a physical line
// within the buffer first, falling back to history navigation at buffer
// boundaries; in Insert mode they always fall straight through to
// history.
func (e *Editor) applyMotion(m Motion) {
	text := e.Buf.String()
	switch m.Kind {
	case MotionRelative:
		e.Buf.SetCursor(e.Buf.Cursor() + m.Delta)
	case MotionAbsolute:
		e.Buf.SetCursor(m.Pos)
	case MotionLineStart:
		e.Buf.SetCursor(e.Buf.LineStart())
	case MotionLineEnd:
		e.Buf.SetCursor(e.Buf.LineEnd())
	case MotionWordForward:
		e.Buf.SetCursor(wordForward(text, e.Buf.Cursor(), m.Boundary))
	case MotionWordBackward:
		e.Buf.SetCursor(wordBackward(text, e.Buf.Cursor(), m.Boundary))
	case MotionWordEnd:
		e.Buf.SetCursor(wordEnd(text, e.Buf.Cursor(), m.Boundary))
	case MotionLineUp:
		if e.Mode != ModeInsert && e.Buf.LineStart() > 0 {
			e.moveToLineRelative(-1)
			return
		}
		e.historyUp()
	case MotionLineDown:
		if e.Mode != ModeInsert && e.Buf.LineEnd() < e.Buf.Len() {
			e.moveToLineRelative(1)
			return
		}
		e.historyDown()
	}
}

// deleteMotion implements the `d{motion}` operator: it spans the cursor
// to the motion's target the same way applyMotion would for a plain
// cursor move, then deletes that span instead of just moving into it.
// Line-up/line-down are excluded since a vertical span reaching into
// history has no defined deletion semantics here.
func (e *Editor) deleteMotion(m Motion) {
	text := e.Buf.String()
	cur := e.Buf.Cursor()
	var target int
	switch m.Kind {
	case MotionRelative:
		target = cur + m.Delta
	case MotionAbsolute:
		target = m.Pos
	case MotionLineStart:
		target = e.Buf.LineStart()
	case MotionLineEnd:
		target = e.Buf.LineEnd()
	case MotionWordForward:
		target = wordForward(text, cur, m.Boundary)
	case MotionWordBackward:
		target = wordBackward(text, cur, m.Boundary)
	case MotionWordEnd:
		target = wordEnd(text, cur, m.Boundary) + 1 // vi's word-end motions are inclusive
	default:
		return
	}
	if target < 0 {
		target = 0
	}
	if target > len(text) {
		target = len(text)
	}
	start, end := cur, target
	if start > end {
		start, end = end, start
	}
	if start == end {
		return
	}
	e.closeCompletion()
	e.snapshot()
	e.yank(text[start:end])
	e.Buf.DeleteRange(start, end)
	e.Buf.SetCursor(start)
}

func (e *Editor) moveToLineRelative(delta int) {
	lines := e.Buf.Lines()
	text := e.Buf.String()
	col := e.Buf.Cursor() - e.Buf.LineStart()
	lineIdx := strings.Count(text[:e.Buf.LineStart()], "\n")
	target := lineIdx + delta
	if target < 0 || target >= len(lines) {
		return
	}
	start := 0
	for i := 0; i < target; i++ {
		start += len(lines[i]) + 1
	}
	if col > len(lines[target]) {
		col = len(lines[target])
	}
	e.Buf.SetCursor(start + col)
}

func wordForward(text string, pos int, boundary WordBoundary) int {
	n := len(text)
	inWord := func(b byte) bool { return isWordByte(b, boundary) }
	if pos < n && inWord(text[pos]) {
		for pos < n && inWord(text[pos]) {
			pos++
		}
	}
	for pos < n && !inWord(text[pos]) {
		pos++
	}
	return pos
}

func wordBackward(text string, pos int, boundary WordBoundary) int {
	inWord := func(b byte) bool { return isWordByte(b, boundary) }
	if pos > len(text) {
		pos = len(text)
	}
	for pos > 0 && !inWord(text[pos-1]) {
		pos--
	}
	for pos > 0 && inWord(text[pos-1]) {
		pos--
	}
	return pos
}

func wordEnd(text string, pos int, boundary WordBoundary) int {
	n := len(text)
	inWord := func(b byte) bool { return isWordByte(b, boundary) }
	pos++
	for pos < n && !inWord(text[pos]) {
		pos++
	}
	for pos < n && inWord(text[pos]) {
		pos++
	}
	if pos > 0 {
		pos--
	}
	return pos
}

func isWordByte(b byte, boundary WordBoundary) bool {
	if boundary == BoundaryWORD {
		return b != ' ' && b != '\t' && b != '\n'
	}
	return b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// historyUp implements prefix-filtered history navigation: Up/Down only
// recalls entries sharing the prefix typed before navigation started.
func (e *Editor) historyUp() {
	if e.History == nil || e.History.Len() == 0 {
		return
	}
	if e.historyIndex == -1 {
		e.historyPrefixLen = e.Buf.Len()
		e.historyPrefix = e.Buf.String()[:e.historyPrefixLen]
		e.preHistoryText = e.Buf.String()
	}
	for i := e.historyIndex + 1; i < e.History.Len(); i++ {
		cmd := e.History.Command(e.History.Len() - 1 - i)
		if strings.HasPrefix(cmd, e.historyPrefix) {
			e.historyIndex = i
			e.Buf.SetText(cmd)
			return
		}
	}
}

func (e *Editor) historyDown() {
	if e.historyIndex == -1 {
		return
	}
	for i := e.historyIndex - 1; i >= 0; i-- {
		cmd := e.History.Command(e.History.Len() - 1 - i)
		if strings.HasPrefix(cmd, e.historyPrefix) {
			e.historyIndex = i
			e.Buf.SetText(cmd)
			return
		}
	}
	e.historyIndex = -1
	e.Buf.SetText(e.preHistoryText)
}

func (e *Editor) exitSearch(execute bool) {
	e.Mode = ModeInsert
	e.Decoder.SetMode(ModeInsert)
	if !execute {
		e.Search.Reset()
	}
}

func (e *Editor) runSearch() {
	if e.History == nil {
		return
	}
	query := e.Search.String()
	if query == "" {
		return
	}
	for i := e.History.Len() - 1; i >= 0; i-- {
		if strings.Contains(e.History.Command(i), query) {
			e.Buf.SetText(e.History.Command(i))
			return
		}
	}
}

func (e *Editor) closeCompletion() {
	e.Completion = nil
}

// tapComplete implements the first-Tab behavior: a single candidate
// auto-inserts; multiple candidates with a longer common prefix insert
// that prefix; otherwise the menu opens with nothing selected.
func (e *Editor) tapComplete() {
	if e.Completion != nil {
		e.cycleComplete(DirForward)
		return
	}
	if e.Complete == nil {
		return
	}
	line := e.Buf.String()
	start, end := wordBoundsAtCursor(line, e.Buf.Cursor())
	cwd := ""
	if e.Cwd != nil {
		cwd = e.Cwd()
	}
	candidates := e.Complete.Candidates(line, start, end, cwd)
	if len(candidates) == 0 {
		return
	}
	pattern := line[start:end]
	if len(candidates) == 1 {
		e.replaceWord(start, end, candidates[0])
		return
	}
	prefix := commonPrefix(candidates)
	if len(prefix) > len(pattern) {
		e.replaceWord(start, end, prefix)
		return
	}
	e.Completion = newCompletionState(candidates, start, end, e.Buf.Len())
}

func (e *Editor) cycleComplete(dir Direction) {
	if e.Completion == nil {
		e.tapComplete()
		return
	}
	n := len(e.Completion.Candidates)
	if n == 0 {
		return
	}
	if dir == DirForward {
		e.Completion.Selected = (e.Completion.Selected + 1) % n
	} else {
		e.Completion.Selected = (e.Completion.Selected - 1 + n) % n
	}
	candidate := e.Completion.Candidates[e.Completion.Selected]
	e.replaceWord(e.Completion.WordStart, e.Completion.WordEnd, candidate)
	e.Completion.WordEnd = e.Completion.WordStart + len(candidate)
}

func (e *Editor) replaceWord(start, end int, replacement string) {
	e.Buf.SetCursor(start)
	e.Buf.DeleteRange(start, end)
	e.Buf.InsertString(replacement)
}
