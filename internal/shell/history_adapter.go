package shell

import (
	"os"

	"github.com/kir-gadjello/zish/internal/eval"
	"github.com/kir-gadjello/zish/internal/history"
	"github.com/kir-gadjello/zish/internal/vault"
)

// historyAdapter satisfies both eval.HistoryRecorder (what the `history`
// builtin hooks into) and editor.HistoryProvider (what the Line Editor's
// Up/Down recall and Ctrl-B bookmarking hook into), fronting the in-memory
// Store and its on-disk encrypted Log. Add offers a finished command to the
// Store, then seals and appends it to the Log, so the record is on disk
// before the next prompt is drawn.
type historyAdapter struct {
	store *history.Store
	log   *history.Log
	now   func() uint64
	debug *debugLog
}

func newHistoryAdapter(store *history.Store, log *history.Log, now func() uint64, debug *debugLog) *historyAdapter {
	return &historyAdapter{store: store, log: log, now: now, debug: debug}
}

func (h *historyAdapter) Add(cmd string, exitCode int, successful bool) error {
	entry, err := h.store.Add(cmd, exitCode, successful)
	if err != nil {
		// PoolFull and ErrInvalidCommand are non-fatal skips.
		h.debug.Printf("history: add skipped: %v", err)
		return nil
	}
	if h.log == nil {
		return nil
	}
	bookmarked := h.store.IsBookmarked(h.indexOf(entry))
	plaintext := history.EncodePlaintext(cmd, uint8(exitCode), successful, bookmarked)
	if err := h.log.Append(plaintext, h.now()); err != nil {
		h.debug.Printf("history: log append failed: %v", err)
	}
	return nil
}

// indexOf finds entry's position in the store by hash; used only to read
// back its current bookmark state for the record we're about to seal.
func (h *historyAdapter) indexOf(entry *history.Entry) int {
	for i := 0; i < h.store.Len(); i++ {
		if h.store.Entry(i).Hash == entry.Hash {
			return i
		}
	}
	return -1
}

func (h *historyAdapter) Entries() []eval.HistoryItem {
	out := make([]eval.HistoryItem, h.store.Len())
	for i := 0; i < h.store.Len(); i++ {
		out[i] = eval.HistoryItem{Index: i, Command: h.store.Command(i)}
	}
	return out
}

// Len, Command, and ToggleBookmark satisfy editor.HistoryProvider directly
// by delegating to the Store.
func (h *historyAdapter) Len() int               { return h.store.Len() }
func (h *historyAdapter) Command(idx int) string { return h.store.Command(idx) }
func (h *historyAdapter) ToggleBookmark(idx int) { h.store.ToggleBookmark(idx) }

// restoreFromLog replays every on-disk record into the Store at startup, so
// recall and dedup behave as if the process never restarted. A record that
// fails to decode under DecodePlaintext is skipped rather than treated as
// fatal.
func restoreFromLog(store *history.Store, path string, v *vault.Vault, debug *debugLog) error {
	records, err := history.ReadAll(path, v)
	if err != nil {
		return err
	}
	for _, r := range records {
		cmd, exitCode, successful, bookmarked, ok := history.DecodePlaintext(r.Plaintext)
		if !ok {
			debug.Printf("history: skipping undecodable record at sequence %d", r.Sequence)
			continue
		}
		if err := store.Restore(cmd, int(exitCode), successful, uint32(r.Timestamp), bookmarked); err != nil {
			debug.Printf("history: restore skipped for %q: %v", cmd, err)
		}
	}
	return nil
}

// debugLog is the optional debug-file logger: messages that would
// otherwise be silently swallowed are appended here when configured;
// nil-safe so callers needn't check before every Printf.
type debugLog struct {
	logf func(format string, args ...interface{})
	file *os.File
}

func (d *debugLog) Printf(format string, args ...interface{}) {
	if d == nil || d.logf == nil {
		return
	}
	d.logf(format, args...)
}

// Close releases the backing file, if any.
func (d *debugLog) Close() {
	if d != nil && d.file != nil {
		d.file.Close()
	}
}
