// Package completion resolves tab-completion candidates for the token
// under the cursor: git-aware subcommand completion when the line starts
// with "git " inside a repository, filesystem enumeration otherwise.
package completion

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Completer implements editor.Provider, wired to the current working
// directory and the line's other tokens (to suppress repeats).
type Completer struct {
	Home string
}

// New returns a Completer that expands a leading "~" using home.
func New(home string) *Completer {
	return &Completer{Home: home}
}

// Candidates resolves completions for line's [wordStart,wordEnd) token,
// run from the given working directory.
func (c *Completer) Candidates(line string, wordStart, wordEnd int, cwd string) []string {
	token := line[wordStart:wordEnd]
	present := presentElsewhere(line, wordStart, wordEnd)

	var candidates []string
	if strings.HasPrefix(line, "git ") && isGitRepo(cwd) {
		candidates = gitCandidates(line, token, cwd)
	} else {
		candidates = filesystemCandidates(token, cwd, c.Home)
	}

	return suppressPresent(candidates, present)
}

// presentElsewhere collects the basenames of every other token on the
// line, so candidates already typed elsewhere can be suppressed.
func presentElsewhere(line string, wordStart, wordEnd int) map[string]bool {
	present := map[string]bool{}
	for _, field := range strings.Fields(line[:wordStart] + " " + line[wordEnd:]) {
		present[filepath.Base(strings.TrimSuffix(field, "/"))] = true
	}
	return present
}

func suppressPresent(candidates []string, present map[string]bool) []string {
	out := candidates[:0:0]
	for _, cand := range candidates {
		base := filepath.Base(strings.TrimSuffix(cand, "/"))
		if present[base] {
			continue
		}
		out = append(out, cand)
	}
	return out
}

func isGitRepo(cwd string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = cwd
	return cmd.Run() == nil
}

// gitCandidates dispatches completion by git subcommand: file-modifying
// subcommands complete against dirty files, ref-consuming ones against
// local branch names.
func gitCandidates(line, token, cwd string) []string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil
	}
	subcommand := fields[1]

	switch subcommand {
	case "add", "restore", "diff":
		return gitStatusFiles(cwd, token)
	case "checkout", "switch", "merge", "rebase":
		return branchNames(cwd, token)
	case "branch":
		for _, f := range fields {
			if f == "-d" || f == "-D" || f == "--delete" {
				return branchNames(cwd, token)
			}
		}
	}
	return nil
}

// gitStatusFiles parses `git status --porcelain` for modified, deleted,
// and untracked files.
func gitStatusFiles(cwd, token string) []string {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = cwd
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil
	}

	var candidates []string
	for _, line := range strings.Split(out.String(), "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		if arrow := strings.Index(path, " -> "); arrow >= 0 {
			path = path[arrow+4:]
		}
		if strings.HasPrefix(path, token) {
			candidates = append(candidates, path)
		}
	}
	return candidates
}

// branchNames reads .git/refs/heads for local branch names.
func branchNames(cwd, token string) []string {
	gitDir := filepath.Join(cwd, ".git")
	if out, err := exec.Command("git", "-C", cwd, "rev-parse", "--git-dir").Output(); err == nil {
		gd := strings.TrimSpace(string(out))
		if filepath.IsAbs(gd) {
			gitDir = gd
		} else {
			gitDir = filepath.Join(cwd, gd)
		}
	}

	refsDir := filepath.Join(gitDir, "refs", "heads")
	var candidates []string
	filepath.Walk(refsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(refsDir, path)
		if rerr != nil {
			return nil
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, token) {
			candidates = append(candidates, name)
		}
		return nil
	})
	return candidates
}

// filesystemCandidates is the non-git completion path: split on '/' to
// get (directory, prefix), expand a leading '~', enumerate.
func filesystemCandidates(token, cwd, home string) []string {
	dir := cwd
	prefix := token
	dirPrefix := ""

	if slash := strings.LastIndexByte(token, '/'); slash >= 0 {
		dirPrefix = token[:slash+1]
		prefix = token[slash+1:]
		expanded := expandTilde(dirPrefix, home)
		if filepath.IsAbs(expanded) {
			dir = expanded
		} else {
			dir = filepath.Join(cwd, expanded)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var candidates []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		full := dirPrefix + name
		if entry.IsDir() {
			full += "/"
		}
		candidates = append(candidates, full)
	}
	return candidates
}

func expandTilde(path, home string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		return home + path[1:]
	}
	return path
}
