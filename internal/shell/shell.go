// Package shell owns the Shell State and Shell Driver: the top-level
// read-eval-print loop, prompt rendering, alias/function loading from
// ~/.zishrc, and the startup/teardown sequence that wires the Crypto
// Vault, History Store, Line Editor, and Evaluator together.
package shell

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/kir-gadjello/zish/internal/ast"
	"github.com/kir-gadjello/zish/internal/completion"
	"github.com/kir-gadjello/zish/internal/config"
	"github.com/kir-gadjello/zish/internal/editor"
	"github.com/kir-gadjello/zish/internal/eval"
	"github.com/kir-gadjello/zish/internal/history"
	"github.com/kir-gadjello/zish/internal/parser"
	"github.com/kir-gadjello/zish/internal/termio"
	"github.com/kir-gadjello/zish/internal/vault"
	"github.com/mattn/go-isatty"
)

// Shell holds every long-lived handle the Shell State names: the
// terminal, the crypto vault and history log, the in-memory store,
// the environment the Evaluator walks against, and the Line Editor that
// drives it all from keystrokes.
type Shell struct {
	term     *termio.Terminal
	vault    *vault.Vault
	log      *history.Log
	store    *history.Store
	hist     *historyAdapter
	env      *eval.Environment
	ed       *editor.Editor
	complete *completion.Completer
	rc       config.RC
	settings config.Settings

	dir     string
	running bool
	debug   *debugLog
}

// Options configures New's startup sequence; zero values pick the normal
// interactive-process defaults (real stdio, $HOME/.config/zish).
type Options struct {
	Stdin, Stdout, Stderr *os.File
	// BypassPassword mirrors ZISH_BYPASS_PASSWORD: skip the password
	// prompt even when password mode is enabled.
	BypassPassword bool
	// DebugLogPath, if set, enables the optional debug logger: messages
	// that would otherwise be swallowed are appended to this file instead.
	DebugLogPath string
}

// New runs the full startup sequence: resolve the config directory,
// acquire the crypto key (prompting for a password if that mode is
// enabled), open the history log and replay it into the Store, load
// ~/.zishrc, and wire the Line Editor and Evaluator. Startup failures here
// (an unresolvable config dir or log path, a vault or history log that
// can't be opened) are returned as errors; anything recoverable is logged
// and swallowed instead. Raw mode is entered later, by Run.
func New(opts Options) (*Shell, error) {
	stdin, stdout, stderr := opts.Stdin, opts.Stdout, opts.Stderr
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	dbg := newDebugLog(opts.DebugLogPath)

	dir, err := vault.Dir()
	if err != nil {
		return nil, fmt.Errorf("shell: resolve config dir: %w", err)
	}

	term := termio.New(stdin, stdout)
	interactive := isatty.IsTerminal(stdin.Fd()) || isatty.IsCygwinTerminal(stdin.Fd())

	logPath, err := history.LogPath(dir)
	if err != nil {
		return nil, fmt.Errorf("shell: resolve history log path: %w", err)
	}

	v, err := openVault(dir, interactive, opts.BypassPassword, logPath, stdin, stderr, dbg)
	if err != nil {
		return nil, err
	}

	settings, err := config.LoadSettings(dir)
	if err != nil {
		dbg.Printf("config: settings load failed, using defaults: %v", err)
		settings = config.DefaultSettings()
	}

	store := history.NewStore(settings.History.PoolCapacityKB * 1024)
	if err := restoreFromLog(store, logPath, v, dbg); err != nil && !os.IsNotExist(err) {
		dbg.Printf("history: replay failed: %v", err)
	}

	hlog, err := history.OpenLog(logPath, v)
	if err != nil {
		return nil, fmt.Errorf("shell: open history log: %w", err)
	}

	home, _ := os.UserHomeDir()
	rc, err := config.LoadRC(filepath.Join(home, ".zishrc"))
	if err != nil {
		dbg.Printf("config: .zishrc load failed: %v", err)
	}

	cwd, _ := os.Getwd()
	env := eval.NewEnvironment()
	env.Stdin, env.Stdout, env.Stderr = stdin, stdout, stderr
	env.Cwd = cwd
	env.Vars["HOME"] = home
	env.Vars["USER"] = os.Getenv("USER")
	env.Vars["PWD"] = cwd
	for name, value := range rc.Aliases {
		env.Aliases[name] = value
	}
	for name, body := range rc.Functions {
		env.Functions[name] = body
	}
	env.Options["git_prompt"] = settings.Prompt.GitStatus
	env.Options["vim"] = settings.VimModeEnabled

	hist := newHistoryAdapter(store, hlog, func() uint64 { return uint64(time.Now().Unix()) }, dbg)
	env.History = hist
	env.Term = term
	env.Execute = func(e *eval.Environment, source string) (int, error) {
		arena := ast.NewArena()
		node, err := parser.Parse(source, arena)
		if err != nil {
			return 1, err
		}
		return eval.Eval(node, e)
	}

	sh := &Shell{
		term:     term,
		vault:    v,
		log:      hlog,
		store:    store,
		hist:     hist,
		env:      env,
		rc:       rc,
		settings: settings,
		dir:      dir,
		debug:    dbg,
	}

	env.Chpw = sh.chpw
	env.Exit = func(code int) { sh.running = false; sh.env.ExitCode = code }

	sh.complete = completion.New(home)
	decoder := editor.NewDecoder(term.Reader(), settings.VimModeEnabled)
	decoder.SetResizeChannel(termio.ResizeChannel())
	sh.ed = editor.New(term, decoder, hist, sh.complete, func() string { return sh.env.Cwd })
	sh.ed.VimModeEnabled = settings.VimModeEnabled

	return sh, nil
}

func openVault(dir string, interactive, bypass bool, logPath string, stdin, stderr *os.File, dbg *debugLog) (*vault.Vault, error) {
	passwordMode := vault.PasswordModeEnabled(dir)
	policy := vault.OpenPolicy{
		Dir:          dir,
		PasswordMode: passwordMode,
		Interactive:  interactive,
		BypassEnvSet: bypass,
		PromptReader: stdin,
		PromptWriter: stderr,
		Validate: func(candidate *vault.Vault) bool {
			_, err := history.ReadAll(logPath, candidate)
			if err != nil {
				// An empty or absent log has nothing to validate against;
				// any derived key is accepted. Any other
				// failure (bad magic, failed AEAD open) rejects the key.
				return os.IsNotExist(err)
			}
			return true
		},
		ResetLog: func() error {
			dest := filepath.Join(filepath.Dir(logPath), vault.CorruptedLogName(dir))
			if err := vault.RenameAside(logPath, dest); err != nil && !os.IsNotExist(err) {
				return err
			}
			dbg.Printf("history: log reset, moved aside to %s", dest)
			return nil
		},
	}
	return vault.Open(policy)
}

func newDebugLog(path string) *debugLog {
	if path == "" {
		return &debugLog{}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return &debugLog{}
	}
	logger := log.New(f, "zish: ", log.LstdFlags)
	return &debugLog{logf: logger.Printf, file: f}
}

// Run drives the interactive read-eval-print loop until the user exits
// the shell (builtin `exit`, Ctrl-D) or ReadLine returns a fatal error.
// Every command's exit code and history bookkeeping follow a strict
// ordering: a command is offered to the History Store and its sealed
// record hits disk before the next prompt is drawn.
func (s *Shell) Run() int {
	defer s.teardown()

	if err := s.term.EnterRaw(); err != nil {
		return 1
	}
	s.running = true

	for s.running {
		prompt, rprompt := s.renderPrompt()
		result, err := s.ed.ReadLine(prompt, rprompt)
		if err != nil {
			s.debug.Printf("readline: %v", err)
			break
		}
		if result.ExitShell {
			break
		}
		if result.Cancelled {
			fmt.Fprintln(s.env.Stdout)
			continue
		}

		line := result.Line
		if line == "" {
			continue
		}
		s.runLine(line)
	}
	return s.env.ExitCode
}

// RunOnce parses and evaluates a single command string non-interactively
// (the `-c` flag), skipping the Line Editor and prompt entirely.
func (s *Shell) RunOnce(line string) int {
	s.runLine(line)
	return s.env.ExitCode
}

func (s *Shell) runLine(line string) {
	arena := ast.NewArena()
	node, err := parser.Parse(line, arena)
	if err != nil {
		// A parse error prints and returns straight to the prompt.
		fmt.Fprintf(s.env.Stderr, "zish: %v\n", err)
		s.env.ExitCode = 1
		s.recordHistory(line, 1, false)
		return
	}

	code, evalErr := eval.Eval(node, s.env)
	if evalErr != nil {
		fmt.Fprintf(s.env.Stderr, "zish: %v\n", evalErr)
	}
	s.env.ExitCode = code
	s.recordHistory(line, code, evalErr == nil && code == 0)
}

func (s *Shell) recordHistory(line string, code int, successful bool) {
	if s.env.History == nil {
		return
	}
	if err := s.env.History.Add(line, code, successful); err != nil {
		s.debug.Printf("history: add failed: %v", err)
	}
}

func (s *Shell) teardown() {
	s.term.LeaveRaw()
	if s.vault != nil {
		s.vault.Close()
	}
	s.debug.Close()
}
