// Package history implements the in-memory deduped command history and
// its encrypted on-disk log.
package history

import (
	"hash/fnv"
)

// Store owns the entry sequence, the byte pool backing every command
// string, a hash→index dedup map, and the bookmark set. It is mutated only
// from the main task.
type Store struct {
	entries []Entry
	pool    []byte
	poolCap int
	dedup   map[uint64]int
	bookmarks map[int]struct{}

	now func() uint32 // injectable for tests
}

// NewStore creates a Store with the given byte-pool capacity.
func NewStore(poolCap int) *Store {
	return &Store{
		pool:      make([]byte, 0, poolCap),
		poolCap:   poolCap,
		dedup:     make(map[uint64]int),
		bookmarks: make(map[int]struct{}),
		now:       nowUnix,
	}
}

// validate enforces the command-history entry constraints: length in
// (0, 2048], bytes restricted to printable ASCII, tab, or newline.
func validate(cmd string) bool {
	if len(cmd) == 0 || len(cmd) > MaxCommandLength {
		return false
	}
	for i := 0; i < len(cmd); i++ {
		b := cmd[i]
		if b == '\t' || b == '\n' {
			continue
		}
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}

func contentHash(cmd string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(cmd))
	return h.Sum64()
}

// Command returns the command string backing entries[idx].
func (s *Store) Command(idx int) string {
	e := s.entries[idx]
	return string(s.pool[e.Offset : e.Offset+e.Length])
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Entry returns a copy of entries[idx].
func (s *Store) Entry(idx int) Entry { return s.entries[idx] }

// Add appends a command execution to the store. If the command's content
// hash already exists, frequency/timestamp/exit-status are updated in
// place and no pool bytes are written. Otherwise a new Entry is created,
// evicting the oldest-by-timestamp entry first if the cap is reached.
func (s *Store) Add(cmd string, exitCode int, successful bool) (*Entry, error) {
	if !validate(cmd) {
		return nil, ErrInvalidCommand
	}
	h := contentHash(cmd)
	now := s.now()

	if idx, ok := s.dedup[h]; ok {
		e := &s.entries[idx]
		e.Frequency = bumpFrequency(e.Frequency)
		e.LastUsed = now
		e.ExitCode = uint8(exitCode)
		e.setSuccessful(successful)
		return e, nil
	}

	if len(s.entries) >= MaxHistoryEntries {
		s.evictOldest()
	}

	if len(cmd) > s.poolCap-len(s.pool) {
		return nil, ErrPoolFull
	}

	offset := len(s.pool)
	s.pool = append(s.pool, cmd...)

	e := Entry{
		Hash:      h,
		Offset:    offset,
		Length:    len(cmd),
		Frequency: 1,
		LastUsed:  now,
		ExitCode:  uint8(exitCode),
	}
	e.setSuccessful(successful)

	s.entries = append(s.entries, e)
	s.dedup[h] = len(s.entries) - 1
	return &s.entries[len(s.entries)-1], nil
}

// evictOldest removes the entry with the minimum LastUsed timestamp,
// an O(n) scan acceptable at the cap, and re-indexes dedup/bookmarks.
func (s *Store) evictOldest() {
	if len(s.entries) == 0 {
		return
	}
	minIdx := 0
	for i := 1; i < len(s.entries); i++ {
		if s.entries[i].LastUsed < s.entries[minIdx].LastUsed {
			minIdx = i
		}
	}

	s.entries = append(s.entries[:minIdx], s.entries[minIdx+1:]...)

	s.dedup = make(map[uint64]int, len(s.entries))
	newBookmarks := make(map[int]struct{}, len(s.bookmarks))
	for i := range s.entries {
		s.dedup[s.entries[i].Hash] = i
	}
	for b := range s.bookmarks {
		switch {
		case b == minIdx:
			// dropped
		case b > minIdx:
			newBookmarks[b-1] = struct{}{}
		default:
			newBookmarks[b] = struct{}{}
		}
	}
	s.bookmarks = newBookmarks
}

// ToggleBookmark flips the bookmark flag on entries[idx].
func (s *Store) ToggleBookmark(idx int) {
	if idx < 0 || idx >= len(s.entries) {
		return
	}
	if _, ok := s.bookmarks[idx]; ok {
		delete(s.bookmarks, idx)
		s.entries[idx].setBookmarked(false)
	} else {
		s.bookmarks[idx] = struct{}{}
		s.entries[idx].setBookmarked(true)
	}
}

// IsBookmarked reports whether entries[idx] is bookmarked.
func (s *Store) IsBookmarked(idx int) bool {
	_, ok := s.bookmarks[idx]
	return ok
}

// Bookmarks returns the bookmarked entry indices in ascending order.
func (s *Store) Bookmarks() []int {
	out := make([]int, 0, len(s.bookmarks))
	for idx := range s.bookmarks {
		out = append(out, idx)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Restore replays a decoded record (used when loading the log at startup):
// a command already in the store has its frequency bumped and its
// lastUsed, exit code, success and bookmark state taken from the record;
// a new command is appended under the same pool/cap invariants as Add.
func (s *Store) Restore(cmd string, exitCode int, successful bool, lastUsed uint32, bookmarked bool) error {
	if !validate(cmd) {
		return ErrInvalidCommand
	}
	h := contentHash(cmd)
	if idx, ok := s.dedup[h]; ok {
		e := &s.entries[idx]
		e.Frequency = bumpFrequency(e.Frequency)
		e.LastUsed = lastUsed
		e.ExitCode = uint8(exitCode)
		e.setSuccessful(successful)
		if bookmarked {
			s.bookmarks[idx] = struct{}{}
			e.setBookmarked(true)
		}
		return nil
	}

	if len(s.entries) >= MaxHistoryEntries {
		s.evictOldest()
	}
	if len(cmd) > s.poolCap-len(s.pool) {
		return ErrPoolFull
	}

	offset := len(s.pool)
	s.pool = append(s.pool, cmd...)
	e := Entry{
		Hash:      h,
		Offset:    offset,
		Length:    len(cmd),
		Frequency: 1,
		LastUsed:  lastUsed,
		ExitCode:  uint8(exitCode),
	}
	e.setSuccessful(successful)
	if bookmarked {
		e.setBookmarked(true)
	}
	s.entries = append(s.entries, e)
	idx := len(s.entries) - 1
	s.dedup[h] = idx
	if bookmarked {
		s.bookmarks[idx] = struct{}{}
	}
	return nil
}
