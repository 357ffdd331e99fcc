package editor

// CompletionState is live only while the completion menu is shown.
type CompletionState struct {
	Candidates []string
	Selected   int // -1 = none-selected sentinel
	WordStart  int
	WordEnd    int
	OrigLen    int
	MenuRows   int // rows occupied by the last-rendered menu page, set by completionMenuLines
}

// noneSelected is CompletionState.Selected's sentinel value.
const noneSelected = -1

// newCompletionState builds a fresh state for a menu covering
// [wordStart,wordEnd) in the buffer, with nothing selected initially.
func newCompletionState(candidates []string, wordStart, wordEnd, origLen int) *CompletionState {
	return &CompletionState{
		Candidates: candidates,
		Selected:   noneSelected,
		WordStart:  wordStart,
		WordEnd:    wordEnd,
		OrigLen:    origLen,
	}
}

// Provider resolves completion candidates for the token under the cursor,
// implemented by internal/completion.
type Provider interface {
	Candidates(line string, wordStart, wordEnd int, cwd string) []string
}

// commonPrefix returns the longest string that prefixes every candidate.
func commonPrefix(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	prefix := candidates[0]
	for _, c := range candidates[1:] {
		prefix = sharedPrefix(prefix, c)
		if prefix == "" {
			break
		}
	}
	return prefix
}

func sharedPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// wordBoundsAtCursor returns the [start,end) span of the token touching
// the cursor, splitting on whitespace.
func wordBoundsAtCursor(line string, cursor int) (start, end int) {
	start = cursor
	for start > 0 && !isSpace(line[start-1]) {
		start--
	}
	end = cursor
	for end < len(line) && !isSpace(line[end]) {
		end++
	}
	return start, end
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }
