// Package ptyexec implements Lumesh's interactive command path: running
// a program (an editor, a pager, a nested shell) with a pseudo-terminal
// as its stdio instead of the plain pipe/inherit plumbing package
// interp uses for pipelines.
//
// Grounded on _examples/titpetric-atkins/psexec/executor.go's
// runInteractive (pty.Start, term.MakeRaw/Restore, two io.Copy
// goroutines joined with a sync.WaitGroup) and
// _examples/mvdan-sh/interp/terminal_test.go's use of
// github.com/creack/pty to drive a command through a pty.Open/pty.Start
// pair. The exact lifecycle — open pty at the current window size, put
// the controlling terminal in raw mode, spawn with the slave wired to
// stdin/stdout/stderr, forward both directions until the child exits,
// restore terminal state on every exit path — is ported from
// _examples/original_source/src/expression/pty2.rs's exec_in_pty.
package ptyexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"

	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// Command describes an interactive program to run through a pty.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string

	// Stdin/Stdout are the host's terminal streams to forward the pty
	// to; nil defaults to os.Stdin/os.Stdout.
	Stdin  *os.File
	Stdout *os.File
}

// interactiveNames lists external programs known to need a controlling
// terminal rather than plain stdio plumbing, matching spec §4.4.6's
// "implementer may hard-code a small set" allowance. Full-screen TUIs
// that read raw keystrokes belong here; anything that behaves under a
// pipe does not.
var interactiveNames = map[string]bool{
	"vi": true, "vim": true, "nvim": true, "nano": true, "emacs": true,
	"less": true, "more": true, "man": true,
	"top": true, "htop": true,
	"bash": true, "sh": true, "zsh": true, "fish": true,
	"ssh": true, "mysql": true, "psql": true, "python": true, "python3": true,
}

// IsInteractive reports whether name is a program that should run
// through Run rather than the plain pipeline executor.
func IsInteractive(name string) bool {
	return interactiveNames[name]
}

// Run spawns cmd with a pseudo-terminal as its stdio, puts the host
// terminal into raw mode for the duration, forwards bytes in both
// directions, and blocks until the child exits. Terminal state is
// restored on every return path, including a panic recovered by the
// deferred restore (Go's defer still runs during a panicking unwind).
//
// SIGINT delivered to the Lumesh process while a child runs here is
// forwarded to the child instead of the default "print trace and
// abort"; the shell is not torn down by an interactive child's own
// interrupt handling.
func Run(ctx context.Context, c Command) (exitCode int, err error) {
	in := c.Stdin
	if in == nil {
		in = os.Stdin
	}
	out := c.Stdout
	if out == nil {
		out = os.Stdout
	}

	execCmd := exec.Command(c.Path, c.Args...)
	execCmd.Dir = c.Dir
	execCmd.Env = c.Env

	size, sizeErr := pty.GetsizeFull(in)
	var master *os.File
	if sizeErr == nil {
		master, err = pty.StartWithSize(execCmd, size)
	} else {
		master, err = pty.Start(execCmd)
	}
	if err != nil {
		return 1, fmt.Errorf("ptyexec: start %s: %w", c.Path, err)
	}
	defer master.Close()

	fd := int(in.Fd())
	oldState, rawErr := term.MakeRaw(fd)
	if rawErr == nil {
		defer term.Restore(fd, oldState)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			_ = execCmd.Process.Signal(os.Interrupt)
		}
	}()

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, cerr := io.Copy(master, in)
		if errors.Is(cerr, io.EOF) {
			return nil
		}
		return cerr
	})
	g.Go(func() error {
		_, cerr := io.Copy(out, master)
		if errors.Is(cerr, io.EOF) {
			return nil
		}
		return cerr
	})

	waitErr := execCmd.Wait()

	// master.Close unblocks the stdout-forwarding goroutine's pending
	// Read once the slave side has gone away; the stdin-forwarding
	// goroutine is left to exit on the host's next EOF/keystroke, the
	// same "don't block the child's exit on an idle stdin copy" shape
	// runInteractive accepts by not waiting on that goroutine either.
	master.Close()
	_ = g.Wait()

	status := 0
	var exitErr *exec.ExitError
	if waitErr != nil {
		if errors.As(waitErr, &exitErr) {
			status = exitErr.ExitCode()
		} else {
			return 1, fmt.Errorf("ptyexec: wait %s: %w", c.Path, waitErr)
		}
	}
	return status, nil
}
