package vault

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// OpenPolicy drives the startup key-acquisition flow: with password mode
// enabled on an interactive tty, prompt up to three times, validating each
// candidate key with validate (which attempts to decrypt the first
// on-disk history record); after three failures, offer to reset by
// renaming the log aside and starting fresh. Without password mode, load
// the key file or generate one.
//
// validate may be nil (nothing to validate against yet, e.g. an empty log);
// in that case any derived key is accepted.
type OpenPolicy struct {
	Dir           string
	PasswordMode  bool
	Interactive   bool
	BypassEnvSet  bool // ZISH_BYPASS_PASSWORD
	PromptReader  io.Reader
	PromptWriter  io.Writer
	Validate      func(*Vault) bool
	ResetLog      func() error // rename current log aside, clear password mode marker
}

func Open(p OpenPolicy) (*Vault, error) {
	if !p.PasswordMode || !p.Interactive || p.BypassEnvSet {
		return LoadOrCreateKey(p.Dir)
	}

	reader := p.PromptReader
	if reader == nil {
		reader = os.Stdin
	}
	writer := p.PromptWriter
	if writer == nil {
		writer = os.Stderr
	}

	for attempt := 0; attempt < 3; attempt++ {
		pw, err := readPassword(reader, writer, fmt.Sprintf("zish password (attempt %d/3): ", attempt+1))
		if err != nil {
			return nil, err
		}
		v, err := DeriveFromPassword(p.Dir, pw)
		zero(pw)
		if err != nil {
			return nil, err
		}
		if p.Validate == nil || p.Validate(v) {
			return v, nil
		}
	}

	fmt.Fprintln(writer, "three incorrect attempts; reset history and start fresh? [y/N]")
	answer, _ := bufio.NewReader(reader).ReadString('\n')
	if answer != "y\n" && answer != "Y\n" {
		return nil, ErrAuthenticationFailed
	}

	if p.ResetLog != nil {
		if err := p.ResetLog(); err != nil {
			return nil, err
		}
	}
	if err := DisablePasswordMode(p.Dir); err != nil {
		return nil, err
	}
	return LoadOrCreateKey(p.Dir)
}

func readPassword(r io.Reader, w io.Writer, prompt string) ([]byte, error) {
	fmt.Fprint(w, prompt)
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(w)
		return pw, err
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		return nil, err
	}
	return []byte(trimNewline(line)), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// CorruptedLogName returns the timestamp-suffixed rename-aside name for path.
func CorruptedLogName(dir string) string {
	return fmt.Sprintf("corrupted_%d.log.enc", time.Now().Unix())
}
