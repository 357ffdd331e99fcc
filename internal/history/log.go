package history

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/kir-gadjello/zish/internal/vault"
)

const (
	logMagic   uint32 = 0x7a495348 // "zISH"
	logVersion uint8  = 1

	headerLen = 4 + 1 + 1 + 1 + 1 + 8 + 8 + 4 // = 28
	aadLen    = 4 + 1 + 1 + 1 + 1 + 8 + 8     // = 24
)

// Record is one decoded on-disk history record.
type Record struct {
	Sequence  uint64
	Timestamp uint64
	Plaintext []byte
}

// Log is the append-only encrypted on-disk history log.
type Log struct {
	path     string
	vault    *vault.Vault
	instance byte
	sequence uint64
}

// LogPath returns $HOME/.config/zish/history.d/current.log.enc, creating
// the history.d directory if necessary.
func LogPath(dir string) (string, error) {
	d := filepath.Join(dir, "history.d")
	if err := os.MkdirAll(d, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(d, "current.log.enc"), nil
}

// OpenLog opens the log at path for appending (creating its directory if
// absent; the file itself is created by the first Append), with a
// fresh per-process instance nonce-domain tag and a sequence counter
// continuing from the highest sequence already on disk.
func OpenLog(path string, v *vault.Vault) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	seq, err := highestSequence(path, v)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		// A corrupt or unreadable log is not reported: the sequence
		// restarts at 0 and appends continue.
		seq = 0
	}

	id := uuid.New()
	return &Log{
		path:     path,
		vault:    v,
		instance: id[0],
		sequence: seq,
	}, nil
}

func highestSequence(path string, v *vault.Vault) (uint64, error) {
	records, err := ReadAll(path, v)
	if err != nil {
		return 0, err
	}
	var max uint64
	for _, r := range records {
		if r.Sequence+1 > max {
			max = r.Sequence + 1
		}
	}
	return max, nil
}

// Append seals plaintext and writes one record to the log.
func (l *Log) Append(plaintext []byte, timestamp uint64) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, aadLen)
	binary.LittleEndian.PutUint32(header[0:4], logMagic)
	header[4] = logVersion
	header[5] = 0
	header[6] = l.instance
	header[7] = 0
	binary.LittleEndian.PutUint64(header[8:16], l.sequence)
	binary.LittleEndian.PutUint64(header[16:24], timestamp)

	blob, err := l.vault.Seal(plaintext, header)
	if err != nil {
		return err
	}

	record := make([]byte, headerLen+len(blob))
	copy(record, header)
	binary.LittleEndian.PutUint32(record[24:28], uint32(len(blob)))
	copy(record[headerLen:], blob)

	if _, err := f.Write(record); err != nil {
		return err
	}
	l.sequence++
	return nil
}

// ReadAll decrypts every record in the log at path with v, returning them
// in file order. A truncated trailing record is ignored rather than
// treated as fatal.
func ReadAll(path string, v *vault.Vault) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var records []Record
	for {
		header := make([]byte, headerLen)
		n, err := io.ReadFull(r, header)
		if err == io.EOF || (err == io.ErrUnexpectedEOF && n == 0) {
			break
		}
		if err != nil {
			break
		}

		magic := binary.LittleEndian.Uint32(header[0:4])
		if magic != logMagic {
			return records, fmt.Errorf("history: bad magic in %s", path)
		}
		sequence := binary.LittleEndian.Uint64(header[8:16])
		timestamp := binary.LittleEndian.Uint64(header[16:24])
		entryLen := binary.LittleEndian.Uint32(header[24:28])

		blob := make([]byte, entryLen)
		if _, err := io.ReadFull(r, blob); err != nil {
			break // truncated trailing record
		}

		aad := header[:aadLen]
		plaintext, err := v.Open(blob, aad)
		if err != nil {
			return records, err
		}

		records = append(records, Record{Sequence: sequence, Timestamp: timestamp, Plaintext: plaintext})
	}
	return records, nil
}

// Rekey decrypts every record at path with oldVault, then atomically
// overwrites the log with the same records resealed under newVault.
func Rekey(path string, oldVault, newVault *vault.Vault) error {
	records, err := ReadAll(path, oldVault)
	if err != nil {
		return err
	}

	tmp := path + ".rekey-tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	id := uuid.New()
	instance := id[0]

	for seq, rec := range records {
		header := make([]byte, aadLen)
		binary.LittleEndian.PutUint32(header[0:4], logMagic)
		header[4] = logVersion
		header[6] = instance
		binary.LittleEndian.PutUint64(header[8:16], uint64(seq))
		binary.LittleEndian.PutUint64(header[16:24], rec.Timestamp)

		blob, err := newVault.Seal(rec.Plaintext, header)
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}

		record := make([]byte, headerLen+len(blob))
		copy(record, header)
		binary.LittleEndian.PutUint32(record[24:28], uint32(len(blob)))
		copy(record[headerLen:], blob)

		if _, err := f.Write(record); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
