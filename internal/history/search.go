package history

import (
	"sort"
	"strings"
	"time"
)

const (
	ageUnder1Hour  = 3600
	ageUnder24Hour = 24 * 3600
)

// score ranks a history entry for fuzzy recall: frequency plus a recency
// bonus that decays from "used in the last hour" to "used in the last day"
// to nothing.
func score(e Entry, cmd, query string, now uint32) float64 {
	s := 1.0
	s += 0.1 * float64(e.Frequency)

	age := int64(now) - int64(e.LastUsed)
	switch {
	case age < ageUnder1Hour:
		s += 2.0
	case age < ageUnder24Hour:
		s += 1.0
	}

	if e.successful() {
		s += 0.5
	}
	if strings.HasPrefix(cmd, query) {
		s += 2.0
	}
	if cmd == query {
		s += 5.0
	}
	return s
}

// Search validates query identically to Add, finds every entry whose
// command contains it as a substring, scores each with score, and returns
// the top 10 by descending score with a stable tie-break on ascending
// entry index.
func (s *Store) Search(query string) ([]ScoredEntry, error) {
	if !validate(query) {
		return nil, ErrInvalidCommand
	}

	now := s.now()
	var candidates []ScoredEntry
	for idx, e := range s.entries {
		cmd := s.Command(idx)
		if !strings.Contains(cmd, query) {
			continue
		}
		candidates = append(candidates, ScoredEntry{
			Entry: e,
			Index: idx,
			Score: score(e, cmd, query, now),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > 10 {
		candidates = candidates[:10]
	}
	return candidates, nil
}

// WithClock overrides the store's time source; used by tests to control
// the "age" term of the scoring formula.
func (s *Store) WithClock(now func() uint32) { s.now = now }

// fixedClock returns a clock (for WithClock) that always reports t; it is
// unexported, so only code inside this package can use it.
func fixedClock(t time.Time) func() uint32 {
	return func() uint32 { return uint32(t.Unix()) }
}
