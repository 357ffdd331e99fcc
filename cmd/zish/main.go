// Command zish is the entrypoint for the zish shell: a cobra root command
// that either drives the interactive read-eval-print loop or, with -c,
// evaluates a single command string and exits.
package main

import (
	"fmt"
	"os"

	"github.com/kir-gadjello/zish/internal/shell"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "zish",
		Short: "zish - a small POSIX-ish interactive shell",
		Args:  cobra.ArbitraryArgs,
		RunE:  run,
	}

	rootCmd.Flags().StringP("command", "c", "", "run COMMAND non-interactively and exit")
	rootCmd.Flags().String("debug-log", "", "append debug/warning messages to this file instead of swallowing them")
	rootCmd.Flags().Bool("no-password", false, "skip the password prompt even if password mode is enabled (same as ZISH_BYPASS_PASSWORD)")

	chpwCmd := &cobra.Command{
		Use:   "chpw",
		Short: "change or inspect the history log's password mode",
		Args:  cobra.ArbitraryArgs,
		RunE:  runChpw,
	}
	chpwCmd.Flags().Bool("status", false, "report whether password mode is enabled (same as chpw -s)")
	chpwCmd.Flags().Bool("remove", false, "disable password mode (same as chpw -r)")
	rootCmd.AddCommand(chpwCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "zish:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	command, _ := cmd.Flags().GetString("command")
	debugLog, _ := cmd.Flags().GetString("debug-log")
	noPassword, _ := cmd.Flags().GetBool("no-password")

	bypass := noPassword || os.Getenv("ZISH_BYPASS_PASSWORD") != ""

	sh, err := shell.New(shell.Options{
		Stdin:          os.Stdin,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		BypassPassword: bypass,
		DebugLogPath:   debugLog,
	})
	if err != nil {
		return err
	}

	var code int
	if command != "" {
		code = sh.RunOnce(command)
	} else {
		code = sh.Run()
	}

	os.Exit(code)
	return nil
}

func runChpw(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetBool("status")
	remove, _ := cmd.Flags().GetBool("remove")

	chpwArgs := args
	if status {
		chpwArgs = append(chpwArgs, "-s")
	}
	if remove {
		chpwArgs = append(chpwArgs, "-r")
	}

	// Opening the shell already authenticates against the current vault
	// (password-prompting if password mode is enabled); chpw then rotates
	// or reports on top of that authenticated vault.
	sh, err := shell.New(shell.Options{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		return err
	}

	code, err := sh.Chpw(chpwArgs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "zish: chpw:", err)
	}
	os.Exit(code)
	return nil
}
