package editor

// ActionKind tags the Action variant produced by decoding one key press.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionCancel
	ActionExitShell
	ActionExecuteCommand
	ActionClearScreen
	ActionToggleBookmark
	ActionTapComplete
	ActionCycleComplete
	ActionInputChar
	ActionBackspace
	ActionDeleteCharUnderCursor
	ActionDeleteToLineEnd
	ActionDeleteCharAt
	ActionMoveCursor
	ActionDeleteMotion
	ActionHistoryNav
	ActionEnterSearchMode
	ActionExitSearchMode
	ActionYankLine
	ActionYankSelection
	ActionPaste
	ActionInsertAtPosition
	ActionVimMode
	ActionEnterPasteMode
	ActionExitPasteMode
	ActionUndo
	ActionRedrawLine
)

// Direction parameterizes CycleComplete, HistoryNav and EnterSearchMode.
type Direction int

const (
	DirForward Direction = iota
	DirBackward
	DirUp
	DirDown
)

// InsertPosition parameterizes InsertAtPosition (the vi `i a A I` family).
type InsertPosition int

const (
	InsertAtCursor InsertPosition = iota
	InsertAfterCursor
	InsertAtLineStart
	InsertAtLineEnd
)

// VimModeOp parameterizes the VimMode action.
type VimModeOp int

const (
	VimToggleEnabled VimModeOp = iota
	VimToggleMode
	VimSetMode
)

// MotionKind tags a cursor motion.
type MotionKind int

const (
	MotionRelative MotionKind = iota
	MotionAbsolute
	MotionLineStart
	MotionLineEnd
	MotionWordForward
	MotionWordBackward
	MotionWordEnd
	MotionLineUp
	MotionLineDown
)

// Motion describes a cursor movement. Boundary selects alphanumeric+'_'
// runs ("word") vs. non-whitespace runs ("WORD") for the word motions;
// Delta carries the step count for MotionRelative; Pos carries the target
// index for MotionAbsolute.
type Motion struct {
	Kind     MotionKind
	Boundary WordBoundary
	Delta    int
	Pos      int
}

// WordBoundary distinguishes the vi `word` vs `WORD` classes.
type WordBoundary int

const (
	BoundaryWord WordBoundary = iota
	BoundaryWORD
)

// Action is the tagged-variant result of one key-read. Only the fields
// relevant to Kind are populated; it is returned by value since it
// carries no allocation beyond the embedded Motion/string.
type Action struct {
	Kind ActionKind

	Char byte
	Pos  int

	Motion Motion

	Dir Direction

	SelStart, SelEnd int

	InsertPos InsertPosition
	VimOp     VimModeOp
	VimMode   Mode

	Execute bool // for ExitSearchMode
}

// Mode is the editor's current input mode.
type Mode int

const (
	ModeInsert Mode = iota
	ModeNormal
	ModeSearch
)
