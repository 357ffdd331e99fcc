package editor

import "testing"

func TestLayoutLinesSingleLine(t *testing.T) {
	lines, row, col := layoutLines("$ ", "echo hi", 80, 7)
	if len(lines) != 1 || lines[0] != "$ echo hi" {
		t.Fatalf("unexpected layout: %#v", lines)
	}
	if row != 0 || col != 9 {
		t.Fatalf("expected cursor at (0,9), got (%d,%d)", row, col)
	}
}

func TestLayoutLinesEmbeddedNewlineUsesContinuationMarker(t *testing.T) {
	lines, _, _ := layoutLines("$ ", "if true\nthen", 80, 0)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %#v", len(lines), lines)
	}
	if lines[1] != continuationMarker+"then" {
		t.Fatalf("expected continuation marker prefix, got %q", lines[1])
	}
}

func TestLayoutLinesSoftWrapsAtWidth(t *testing.T) {
	lines, _, _ := layoutLines("", "abcdefghij", 5, 0)
	if len(lines) != 2 || lines[0] != "abcde" || lines[1] != "fghij" {
		t.Fatalf("unexpected wrap: %#v", lines)
	}
}

func TestDisplayWidthIgnoresANSISequences(t *testing.T) {
	if w := displayWidth("\x1b[32m$\x1b[0m "); w != 2 {
		t.Fatalf("expected visible width 2, got %d", w)
	}
}

func TestCompletionMenuLinesGridsCandidatesByWidth(t *testing.T) {
	e := &Editor{Completion: newCompletionState([]string{"aa", "bb", "cc", "dd"}, 0, 0, 0)}
	e.Completion.Selected = 0

	lines := e.completionMenuLines(10)
	if len(lines) == 0 {
		t.Fatal("expected non-empty menu")
	}
	if e.Completion.MenuRows != len(lines) {
		t.Fatalf("MenuRows %d does not match rendered row count %d", e.Completion.MenuRows, len(lines))
	}
	if lines[0] == "" {
		t.Fatal("expected first row to contain candidates")
	}
}

func TestCompletionMenuLinesNilWhenNoCompletionOpen(t *testing.T) {
	e := &Editor{}
	if lines := e.completionMenuLines(80); lines != nil {
		t.Fatalf("expected no menu lines, got %#v", lines)
	}
}

func TestCompletionMenuLinesBoundsHeightAndPagesToSelected(t *testing.T) {
	candidates := make([]string, menuMaxRows*3+5)
	for i := range candidates {
		candidates[i] = "x"
	}
	e := &Editor{Completion: newCompletionState(candidates, 0, 0, 0)}
	e.Completion.Selected = len(candidates) - 1

	lines := e.completionMenuLines(40)
	if len(lines) > menuMaxRows {
		t.Fatalf("expected at most %d rows, got %d", menuMaxRows, len(lines))
	}
	if len(lines) == 0 {
		t.Fatal("expected the page containing the selected candidate to render")
	}
}
