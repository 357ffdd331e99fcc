// Package editor implements a modal, vi-like line editor: a bounded edit
// buffer, clipboard and search sub-buffers, a key-to-action decoder, and
// the redraw algorithm that keeps the terminal in sync with the buffer
// across multi-line commands and soft wraps.
package editor

import "strings"

// BufferCapacity is the edit buffer's byte capacity; one byte is always
// kept free so len(buf) can never reach capacity.
const BufferCapacity = 8 * 1024

// ClipboardCapacity bounds the yank/cut clipboard.
const ClipboardCapacity = 8 * 1024

// SearchBufferCapacity bounds the history-search sub-buffer.
const SearchBufferCapacity = 256

// Buffer is the command currently being edited: a bounded byte sequence
// with a cursor index. It may hold embedded newlines for multiline
// commands entered via paste or explicit continuation.
type Buffer struct {
	bytes  []byte
	cursor int
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{bytes: make([]byte, 0, BufferCapacity)}
}

// String returns the buffer's full text.
func (b *Buffer) String() string { return string(b.bytes) }

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int { return len(b.bytes) }

// Cursor returns the current cursor index, 0 <= cursor <= Len().
func (b *Buffer) Cursor() int { return b.cursor }

// SetCursor clamps and sets the cursor index.
func (b *Buffer) SetCursor(c int) {
	if c < 0 {
		c = 0
	}
	if c > len(b.bytes) {
		c = len(b.bytes)
	}
	b.cursor = c
}

// Reset empties the buffer and resets the cursor, keeping the underlying
// array (and its capacity) for reuse across commands.
func (b *Buffer) Reset() {
	b.bytes = b.bytes[:0]
	b.cursor = 0
}

// SetText replaces the buffer's contents wholesale, truncating to capacity
// and placing the cursor at the end. Used when recalling history entries.
func (b *Buffer) SetText(s string) {
	if len(s) > BufferCapacity-1 {
		s = s[:BufferCapacity-1]
	}
	b.bytes = append(b.bytes[:0], s...)
	b.cursor = len(b.bytes)
}

// InsertChar inserts a single byte at the cursor and advances it, silently
// dropping the insertion if the buffer is at capacity.
func (b *Buffer) InsertChar(c byte) {
	if len(b.bytes) >= BufferCapacity-1 {
		return
	}
	b.bytes = append(b.bytes, 0)
	copy(b.bytes[b.cursor+1:], b.bytes[b.cursor:len(b.bytes)-1])
	b.bytes[b.cursor] = c
	b.cursor++
}

// InsertString inserts s at the cursor, advancing it past the inserted
// text (used for paste and completion insertion).
func (b *Buffer) InsertString(s string) {
	for i := 0; i < len(s); i++ {
		b.InsertChar(s[i])
	}
}

// Backspace deletes the byte before the cursor, if any.
func (b *Buffer) Backspace() (deleted byte, ok bool) {
	if b.cursor == 0 {
		return 0, false
	}
	deleted = b.bytes[b.cursor-1]
	b.bytes = append(b.bytes[:b.cursor-1], b.bytes[b.cursor:]...)
	b.cursor--
	return deleted, true
}

// DeleteCharUnderCursor deletes the byte at the cursor, if any.
func (b *Buffer) DeleteCharUnderCursor() (deleted byte, ok bool) {
	if b.cursor >= len(b.bytes) {
		return 0, false
	}
	deleted = b.bytes[b.cursor]
	b.bytes = append(b.bytes[:b.cursor], b.bytes[b.cursor+1:]...)
	return deleted, true
}

// DeleteToLineEnd deletes from the cursor to the end of the current
// logical line (up to the next '\n' or end of buffer) and returns the cut
// text, for the clipboard.
func (b *Buffer) DeleteToLineEnd() string {
	end := b.cursor
	for end < len(b.bytes) && b.bytes[end] != '\n' {
		end++
	}
	cut := string(b.bytes[b.cursor:end])
	b.bytes = append(b.bytes[:b.cursor], b.bytes[end:]...)
	return cut
}

// DeleteRange removes [start,end) and returns the cut text.
func (b *Buffer) DeleteRange(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(b.bytes) {
		end = len(b.bytes)
	}
	if start >= end {
		return ""
	}
	cut := string(b.bytes[start:end])
	b.bytes = append(b.bytes[:start], b.bytes[end:]...)
	if b.cursor > start {
		b.cursor = start
	}
	return cut
}

// LineStart returns the index of the start of the logical line containing
// the cursor (the byte after the nearest preceding '\n', or 0).
func (b *Buffer) LineStart() int {
	i := b.cursor
	for i > 0 && b.bytes[i-1] != '\n' {
		i--
	}
	return i
}

// LineEnd returns the index one past the end of the logical line
// containing the cursor (the nearest following '\n', or Len()).
func (b *Buffer) LineEnd() int {
	i := b.cursor
	for i < len(b.bytes) && b.bytes[i] != '\n' {
		i++
	}
	return i
}

// Lines splits the buffer text at '\n', mirroring how the redraw
// algorithm walks continuation markers.
func (b *Buffer) Lines() []string {
	return strings.Split(string(b.bytes), "\n")
}

// Clipboard holds the byte sequence most recently populated by a
// yank/change/cut operator, read back by paste.
type Clipboard struct {
	text string
}

// Set stores text, truncating to ClipboardCapacity.
func (c *Clipboard) Set(text string) {
	if len(text) > ClipboardCapacity {
		text = text[:ClipboardCapacity]
	}
	c.text = text
}

// Get returns the stored text.
func (c *Clipboard) Get() string { return c.text }

// SearchBuffer is a small bounded buffer populated while the editor is in
// Search mode.
type SearchBuffer struct {
	bytes []byte
}

// Append adds a byte, silently dropping it past capacity.
func (s *SearchBuffer) Append(c byte) {
	if len(s.bytes) >= SearchBufferCapacity {
		return
	}
	s.bytes = append(s.bytes, c)
}

// Backspace removes the last byte, if any.
func (s *SearchBuffer) Backspace() {
	if len(s.bytes) > 0 {
		s.bytes = s.bytes[:len(s.bytes)-1]
	}
}

// String returns the accumulated query text.
func (s *SearchBuffer) String() string { return string(s.bytes) }

// Reset empties the search buffer.
func (s *SearchBuffer) Reset() { s.bytes = s.bytes[:0] }
