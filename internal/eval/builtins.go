package eval

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type builtinFunc func(env *Environment, argv []string) (int, error)

var builtins = map[string]builtinFunc{
	"exit":    builtinExit,
	"echo":    builtinEcho,
	"pwd":     builtinPwd,
	"cd":      builtinCd,
	"..":      builtinCdUp,
	"...":     builtinCdUpUp,
	"-":       builtinCdDash,
	"true":    builtinTrue,
	"false":   builtinFalse,
	"export":  builtinExport,
	"local":   builtinLocal,
	"unset":   builtinUnset,
	"set":     builtinSet,
	"history": builtinHistory,
	"chpw":    builtinChpw,
}

func builtinExit(env *Environment, argv []string) (int, error) {
	code := 0
	if len(argv) > 1 {
		if n, err := strconv.Atoi(argv[1]); err == nil {
			code = n
		}
	}
	if env.Exit != nil {
		env.Exit(code)
	}
	return code, nil
}

func builtinEcho(env *Environment, argv []string) (int, error) {
	fmt.Fprintln(env.Stdout, strings.Join(argv[1:], " "))
	return 0, nil
}

func builtinPwd(env *Environment, argv []string) (int, error) {
	fmt.Fprintln(env.Stdout, env.Cwd)
	return 0, nil
}

func builtinCd(env *Environment, argv []string) (int, error) {
	target := env.Vars["HOME"]
	if len(argv) > 1 {
		target = argv[1]
	}
	return changeDir(env, target)
}

func builtinCdUp(env *Environment, argv []string) (int, error) {
	return changeDir(env, "..")
}

func builtinCdUpUp(env *Environment, argv []string) (int, error) {
	return changeDir(env, "../..")
}

func builtinCdDash(env *Environment, argv []string) (int, error) {
	return changeDir(env, "-")
}

func changeDir(env *Environment, target string) (int, error) {
	if target == "-" {
		target = env.OldCwd
	}
	if strings.HasPrefix(target, "~") {
		if target == "~" {
			target = env.Vars["HOME"]
		} else if strings.HasPrefix(target, "~/") {
			target = env.Vars["HOME"] + target[1:]
		}
	}
	if target == "" {
		target = "/"
	}
	if err := os.Chdir(target); err != nil {
		fmt.Fprintf(env.Stderr, "zish: cd: %v\n", err)
		return 1, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return 1, nil
	}
	env.OldCwd = env.Cwd
	env.Cwd = wd
	env.Vars["OLDPWD"] = env.OldCwd
	env.Vars["PWD"] = env.Cwd
	return 0, nil
}

func builtinTrue(env *Environment, argv []string) (int, error)  { return 0, nil }
func builtinFalse(env *Environment, argv []string) (int, error) { return 1, nil }

func builtinExport(env *Environment, argv []string) (int, error) {
	for _, arg := range argv[1:] {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		env.Vars[name] = value
		os.Setenv(name, value)
	}
	return 0, nil
}

func builtinLocal(env *Environment, argv []string) (int, error) {
	for _, arg := range argv[1:] {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			name, value = arg, ""
		}
		if len(env.locals) == 0 {
			env.PushLocals()
		}
		env.locals[len(env.locals)-1][name] = value
	}
	return 0, nil
}

func builtinUnset(env *Environment, argv []string) (int, error) {
	for _, name := range argv[1:] {
		delete(env.Vars, name)
		for _, frame := range env.locals {
			delete(frame, name)
		}
	}
	return 0, nil
}

func builtinSet(env *Environment, argv []string) (int, error) {
	if len(argv) < 2 {
		return 1, nil
	}
	option := argv[1]
	switch option {
	case "git_prompt", "vim":
	default:
		fmt.Fprintf(env.Stderr, "zish: set: unrecognized option %q\n", option)
		return 1, nil
	}
	value := true
	if len(argv) > 2 {
		value = argv[2] != "off"
	}
	env.Options[option] = value
	return 0, nil
}

func builtinHistory(env *Environment, argv []string) (int, error) {
	if env.History == nil {
		return 0, nil
	}
	for _, item := range env.History.Entries() {
		fmt.Fprintf(env.Stdout, "%5d  %s\n", item.Index, item.Command)
	}
	return 0, nil
}

func builtinChpw(env *Environment, argv []string) (int, error) {
	if env.Chpw == nil {
		fmt.Fprintln(env.Stderr, "zish: chpw: password management is unavailable")
		return 1, nil
	}
	return env.Chpw(argv[1:])
}
