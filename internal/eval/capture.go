package eval

import (
	"io"
	"os/exec"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// maxCaptureBytes bounds command-substitution output.
const maxCaptureBytes = 4096

// NewCommandCapture returns an expand.CommandRunner that spawns
// `/bin/sh -c <cmd>` under a pty (so the captured program sees a
// controlling terminal, matching interactive-tool expectations) and
// returns up to maxCaptureBytes of its output. The pty's line discipline
// defaults to OPOST|ONLCR, which would otherwise rewrite every \n the
// child writes into \r\n before it reaches the buffer, so that's turned
// off right after the child starts.
func NewCommandCapture() func(cmd string) (string, error) {
	return func(cmd string) (string, error) {
		c := exec.Command("/bin/sh", "-c", cmd)
		ptmx, err := pty.Start(c)
		if err != nil {
			return "", err
		}
		defer ptmx.Close()
		disablePostProcessing(int(ptmx.Fd()))

		buf := make([]byte, maxCaptureBytes)
		n, readErr := io.ReadFull(ptmx, buf)
		if readErr == io.ErrUnexpectedEOF || readErr == io.EOF {
			readErr = nil
		}
		_ = c.Wait()
		if readErr != nil && n == 0 {
			return "", nil
		}
		return string(buf[:n]), nil
	}
}

// disablePostProcessing clears OPOST/ONLCR on the pty so the child's
// newlines come back exactly as written instead of being translated by
// the line discipline.
func disablePostProcessing(fd int) {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return
	}
	termios.Oflag &^= unix.OPOST | unix.ONLCR
	_ = unix.IoctlSetTermios(fd, unix.TCSETS, termios)
}
