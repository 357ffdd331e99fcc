package eval

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/sahilm/fuzzy"
)

// spawnExternal runs argv as a child process inheriting the Environment's
// current stdio and the process environment. The terminal is returned to
// cooked mode for the duration, so a typed Ctrl-C raises SIGINT for the
// foreground child; the shell receives and discards its own copy of the
// signal until the child exits.
func spawnExternal(env *Environment, argv []string) (int, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = env.Stdin
	cmd.Stdout = env.Stdout
	cmd.Stderr = env.Stderr
	cmd.Env = os.Environ()

	wasTTY := env.Term != nil && env.Term.IsTTY()
	if wasTTY {
		env.Term.LeaveRaw()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			// swallowed: the child, not the shell, owns the terminal
		}
	}()

	if err := cmd.Start(); err != nil {
		if wasTTY {
			env.Term.EnterRaw()
		}
		fmt.Fprintf(env.Stderr, "zish: %s: command not found\n", argv[0])
		if suggestion := closestKnownName(env, argv[0]); suggestion != "" {
			fmt.Fprintf(env.Stderr, "zish: did you mean %q?\n", suggestion)
		}
		return 127, nil
	}

	err := cmd.Wait()

	if wasTTY {
		env.Term.EnterRaw()
	}

	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return 128 + int(status.Signal()), nil
			}
			return status.ExitStatus(), nil
		}
		return exitErr.ExitCode(), nil
	}
	return 127, nil
}

// closestKnownName ranks the user's aliases and functions against name
// with a fuzzy matcher, for the command-not-found "did you mean" hint.
// History recall's own scoring stays hand-rolled; this auxiliary
// suggestion is the only user of the fuzzy-matching library.
func closestKnownName(env *Environment, name string) string {
	var candidates []string
	for alias := range env.Aliases {
		candidates = append(candidates, alias)
	}
	for fn := range env.Functions {
		candidates = append(candidates, fn)
	}
	if len(candidates) == 0 {
		return ""
	}
	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
