package editor

import (
	"strings"

	"github.com/kir-gadjello/zish/internal/termio"
)

// continuationMarker replaces each embedded newline when redrawing a
// multiline buffer.
const continuationMarker = "│ " // visible width 2

// menuMaxRows bounds the completion menu's visible height: a long
// candidate list pages instead of pushing the prompt off the top of the
// terminal.
const menuMaxRows = 8

const (
	menuHighlightOn  = "\x1b[7m"
	menuHighlightOff = "\x1b[0m"
)

// completionMenuLines renders the editor's completion menu, if one is
// open, as a column grid sized to width: candidates are padded to the
// widest entry, laid out in as many columns as fit, and paged so the
// selected candidate is always on screen. Records the page's row count on
// e.Completion.MenuRows.
func (e *Editor) completionMenuLines(width int) []string {
	c := e.Completion
	if c == nil || len(c.Candidates) == 0 {
		return nil
	}
	if width <= 0 {
		width = 80
	}

	colWidth := 0
	for _, cand := range c.Candidates {
		if len(cand) > colWidth {
			colWidth = len(cand)
		}
	}
	colWidth += 2

	numCols := width / colWidth
	if numCols < 1 {
		numCols = 1
	}

	perPage := numCols * menuMaxRows
	selected := c.Selected
	if selected < 0 {
		selected = 0
	}
	page := selected / perPage
	pageStart := page * perPage
	pageEnd := pageStart + perPage
	if pageEnd > len(c.Candidates) {
		pageEnd = len(c.Candidates)
	}
	visible := c.Candidates[pageStart:pageEnd]

	rows := (len(visible) + numCols - 1) / numCols
	c.MenuRows = rows

	lines := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		var b strings.Builder
		for col := 0; col < numCols; col++ {
			idx := r*numCols + col
			if idx >= len(visible) {
				break
			}
			cand := visible[idx]
			padded := cand + strings.Repeat(" ", colWidth-len(cand))
			if pageStart+idx == c.Selected {
				b.WriteString(menuHighlightOn)
				b.WriteString(padded)
				b.WriteString(menuHighlightOff)
			} else {
				b.WriteString(padded)
			}
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return lines
}

// layoutLines renders buf's text (with prompt prefixed to the first line)
// into the exact strings that will occupy the terminal, accounting for
// embedded newlines and soft-wrap at width columns. It also returns the
// (row, col) of cursorPos within that layout, 0-indexed.
func layoutLines(prompt, text string, width, cursorPos int) (lines []string, cursorRow, cursorCol int) {
	if width <= 0 {
		width = 80
	}
	var cur strings.Builder
	col := 0
	row := 0
	cursorRow, cursorCol = 0, 0

	emit := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		col = 0
		row++
	}

	write := func(s string, visibleWidth int) {
		cur.WriteString(s)
		col += visibleWidth
	}

	write(prompt, displayWidth(prompt))

	for i := 0; i < len(text); i++ {
		if i == cursorPos {
			cursorRow, cursorCol = row, col
		}
		c := text[i]
		if c == '\n' {
			emit()
			write(continuationMarker, 2)
			continue
		}
		if col >= width {
			emit()
		}
		cur.WriteByte(c)
		col++
	}
	if cursorPos == len(text) {
		cursorRow, cursorCol = row, col
	}
	lines = append(lines, cur.String())
	return lines, cursorRow, cursorCol
}

// displayWidth approximates a prompt's on-screen width, stripping ANSI
// SGR sequences (ESC '[' ... 'm') which carry zero visible width.
func displayWidth(s string) int {
	w := 0
	i := 0
	for i < len(s) {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j + 1
			continue
		}
		w++
		i++
	}
	return w
}

// redraw implements the buffer's six-step clear/redraw/reposition cycle,
// with the completion menu (if open) rendered as extra lines below the
// buffer.
func (e *Editor) redraw() {
	cols, _ := e.Term.QuerySize()
	text := e.Buf.String()
	lines, curRow, curCol := layoutLines(e.Prompt, text, cols, e.Buf.Cursor())

	menu := e.completionMenuLines(cols)
	allLines := lines
	if len(menu) > 0 {
		allLines = append(append([]string{}, lines...), menu...)
	}

	oldLines := e.displayedLines
	newLines := len(allLines)
	maxLines := oldLines
	if newLines > maxLines {
		maxLines = newLines
	}

	if oldLines > 1 {
		e.Term.WriteString(termio.CursorUp(oldLines - 1))
	}
	e.Term.WriteString(termio.CursorColumn(1))
	for i := 0; i < maxLines; i++ {
		e.Term.WriteString(termio.ClearLine)
		if i < maxLines-1 {
			e.Term.WriteString("\r\n")
		}
	}
	if maxLines > 1 {
		e.Term.WriteString(termio.CursorUp(maxLines - 1))
	}
	e.Term.WriteString(termio.CursorColumn(1))

	for i, l := range allLines {
		e.Term.WriteString(l)
		if i < len(allLines)-1 {
			e.Term.WriteString("\r\n")
		}
	}

	endRow := len(allLines) - 1
	if endRow > curRow {
		e.Term.WriteString(termio.CursorUp(endRow - curRow))
	}
	e.Term.WriteString(termio.CursorColumn(curCol + 1))

	e.displayedLines = newLines
	e.Term.Flush()
}
