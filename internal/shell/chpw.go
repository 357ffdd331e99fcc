package shell

import (
	"bufio"
	"fmt"

	"github.com/kir-gadjello/zish/internal/history"
	"github.com/kir-gadjello/zish/internal/vault"
	"golang.org/x/term"
)

// Chpw exposes the `chpw` builtin's logic to callers outside the package,
// such as the `zish chpw` cobra subcommand, so password rotation works
// identically whether invoked from a running shell or from the command line.
func (s *Shell) Chpw(args []string) (int, error) {
	return s.chpw(args)
}

// chpw implements the `chpw` builtin's password lifecycle: with no flags,
// prompt for a new password twice and re-encrypt the log under the
// derived key; `-r` drops password mode back to a plain key file; `-s`
// reports current status.
func (s *Shell) chpw(args []string) (int, error) {
	for _, a := range args {
		switch a {
		case "-s":
			s.reportPasswordStatus()
			return 0, nil
		case "-r":
			return s.disablePasswordMode()
		}
	}
	return s.enablePasswordMode()
}

func (s *Shell) reportPasswordStatus() {
	if vault.PasswordModeEnabled(s.dir) {
		fmt.Fprintln(s.env.Stdout, "password mode: enabled")
	} else {
		fmt.Fprintln(s.env.Stdout, "password mode: disabled")
	}
}

func (s *Shell) enablePasswordMode() (int, error) {
	pw1, err := s.promptPassword("new password: ")
	if err != nil {
		return 1, err
	}
	pw2, err := s.promptPassword("confirm password: ")
	if err != nil {
		return 1, err
	}
	if string(pw1) != string(pw2) {
		fmt.Fprintln(s.env.Stderr, "zish: chpw: passwords do not match")
		return 1, nil
	}

	newVault, err := vault.DeriveFromPassword(s.dir, pw1)
	if err != nil {
		return 1, err
	}
	if err := s.rekeyTo(newVault); err != nil {
		return 1, err
	}
	if err := vault.EnablePasswordMode(s.dir); err != nil {
		return 1, err
	}
	fmt.Fprintln(s.env.Stdout, "password mode enabled")
	return 0, nil
}

func (s *Shell) disablePasswordMode() (int, error) {
	newVault, err := vault.LoadOrCreateKey(s.dir)
	if err != nil {
		return 1, err
	}
	if err := s.rekeyTo(newVault); err != nil {
		return 1, err
	}
	if err := vault.DisablePasswordMode(s.dir); err != nil {
		return 1, err
	}
	fmt.Fprintln(s.env.Stdout, "password mode disabled")
	return 0, nil
}

// rekeyTo decrypts the on-disk log under the shell's current vault,
// reseals it under newVault, reopens the log, and swaps both handles in.
// The old key is zeroed once the swap is safely complete.
func (s *Shell) rekeyTo(newVault *vault.Vault) error {
	path, err := history.LogPath(s.dir)
	if err != nil {
		return err
	}
	if err := history.Rekey(path, s.vault, newVault); err != nil {
		return err
	}
	newLog, err := history.OpenLog(path, newVault)
	if err != nil {
		return err
	}
	oldVault := s.vault
	s.vault = newVault
	s.log = newLog
	s.hist.log = newLog
	oldVault.Close()
	return nil
}

func (s *Shell) promptPassword(label string) ([]byte, error) {
	fmt.Fprint(s.env.Stderr, label)
	if f, ok := s.env.Stdin.(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(s.env.Stderr)
		return pw, err
	}
	line, err := bufio.NewReader(s.env.Stdin).ReadString('\n')
	if err != nil {
		return nil, err
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return []byte(line), nil
}
