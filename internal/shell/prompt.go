package shell

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const (
	sgrUserHost = "\x1b[1;32m"
	sgrCwd      = "\x1b[1;34m"
	sgrBranch   = "\x1b[0;33m"
	sgrReset    = "\x1b[0m"
)

// renderPrompt builds the left prompt (user@host cwd (branch) $ ) and an
// empty right prompt, styled with minimal 8-color SGR rather than a full
// theming system.
func (s *Shell) renderPrompt() (prompt, rprompt string) {
	user := s.env.Vars["USER"]
	host, _ := os.Hostname()
	cwd := shortenHome(s.env.Cwd, s.env.Vars["HOME"])

	var b strings.Builder
	b.WriteString(sgrUserHost)
	b.WriteString(user)
	b.WriteByte('@')
	b.WriteString(host)
	b.WriteString(sgrReset)
	b.WriteByte(' ')
	b.WriteString(sgrCwd)
	b.WriteString(cwd)
	b.WriteString(sgrReset)

	if s.env.Options["git_prompt"] {
		if branch := currentGitBranch(s.env.Cwd); branch != "" {
			b.WriteByte(' ')
			b.WriteString(sgrBranch)
			b.WriteByte('(')
			b.WriteString(branch)
			b.WriteByte(')')
			b.WriteString(sgrReset)
		}
	}

	marker := "$"
	if os.Geteuid() == 0 {
		marker = "#"
	}
	b.WriteString(fmt.Sprintf(" %s ", marker))
	return b.String(), ""
}

func shortenHome(cwd, home string) string {
	if home != "" && strings.HasPrefix(cwd, home) {
		return "~" + strings.TrimPrefix(cwd, home)
	}
	return cwd
}

// currentGitBranch shells out to `git rev-parse --abbrev-ref HEAD`,
// returning "" (no branch shown) on any failure — a non-repo cwd,
// detached HEAD notwithstanding, or git not installed.
func currentGitBranch(cwd string) string {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = cwd
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
