package termio

import "fmt"

// CursorUp returns the CUU sequence moving the cursor up n rows (n>0).
func CursorUp(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("\x1b[%dA", n)
}

// CursorDown returns the CUD sequence.
func CursorDown(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("\x1b[%dB", n)
}

// CursorForward returns the CUF sequence.
func CursorForward(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("\x1b[%dC", n)
}

// CursorBack returns the CUB sequence.
func CursorBack(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("\x1b[%dD", n)
}

// CursorColumn moves to absolute column col (1-based).
func CursorColumn(col int) string {
	return fmt.Sprintf("\x1b[%dG", col)
}

// ClearLine clears the entire current line (EL2).
const ClearLine = "\x1b[2K"

// ClearToEnd clears from cursor to end of line (EL0).
const ClearToEnd = "\x1b[K"

// ClearToScreenEnd clears from cursor to end of screen.
const ClearToScreenEnd = "\x1b[0J"
