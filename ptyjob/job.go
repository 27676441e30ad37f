// Package ptyjob runs session child processes on a pseudo-terminal.
package ptyjob

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/creack/pty"

	"github.com/termloom/termloom"
)

const readBufSize = 4096

// Starter launches PTY-backed jobs. Its Start method satisfies
// termloom.JobStarter.
type Starter struct {
	// Logger receives read-loop diagnostics; nil disables them.
	Logger termloom.Logger
	// Shell overrides the default shell lookup for empty commands.
	Shell string
	// Term overrides the TERM the child sees, default xterm-256color.
	Term string
}

// Start spawns the command on a fresh PTY sized per spec and begins
// delivering output. Closed fires exactly once, after the final Output.
func (st *Starter) Start(spec termloom.JobSpec, events termloom.JobEvents) (termloom.Job, error) {
	logger := st.Logger
	if logger == nil {
		logger = termloom.NopLogger{}
	}
	argv := spec.Command
	if len(argv) == 0 {
		shell := st.Shell
		if shell == "" {
			shell = DefaultShell()
		}
		argv = []string{shell}
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", argv[0], err)
	}
	cmd := exec.Command(path, argv[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = BuildEnv(st.Term, spec.Env)

	rows, cols := spec.Rows, spec.Cols
	if rows < 1 {
		rows = 24
	}
	if cols < 1 {
		cols = 80
	}
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("start %q: %w", argv[0], err)
	}

	j := &Job{
		cmd:    cmd,
		ptmx:   ptmx,
		events: events,
		logger: logger,
	}
	j.status.Store(int32(termloom.JobRunning))
	logger.Debug("job started", "command", argv[0], "pid", cmd.Process.Pid, "rows", rows, "cols", cols)
	go j.readLoop()
	return j, nil
}

// Job is one child process on a PTY.
type Job struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	events termloom.JobEvents
	logger termloom.Logger

	status   atomic.Int32
	released atomic.Bool
	writeMu  sync.Mutex
}

// readLoop pumps PTY output until the child side closes, then reaps the
// process and reports the close.
func (j *Job) readLoop() {
	buf := make([]byte, readBufSize)
	for {
		n, err := j.ptmx.Read(buf)
		if n > 0 {
			j.events.Output(buf[:n])
		}
		if err != nil {
			break
		}
	}
	if err := j.cmd.Wait(); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			j.status.Store(int32(termloom.JobEnded))
			j.logger.Debug("job exited", "pid", j.cmd.Process.Pid, "code", exit.ExitCode())
		} else {
			j.status.Store(int32(termloom.JobFailed))
			j.logger.Warn("job wait failed", "pid", j.cmd.Process.Pid, "error", err)
		}
	} else {
		j.status.Store(int32(termloom.JobEnded))
		j.logger.Debug("job exited", "pid", j.cmd.Process.Pid, "code", 0)
	}
	j.events.Closed()
}

func (j *Job) Send(p []byte) error {
	if termloom.JobStatus(j.status.Load()) != termloom.JobRunning {
		return fmt.Errorf("job not running")
	}
	j.writeMu.Lock()
	defer j.writeMu.Unlock()
	if _, err := j.ptmx.Write(p); err != nil {
		return fmt.Errorf("write to pty: %w", err)
	}
	return nil
}

func (j *Job) Status() termloom.JobStatus {
	return termloom.JobStatus(j.status.Load())
}

func (j *Job) Stop(signal string) {
	if j.cmd.Process == nil {
		return
	}
	if err := j.cmd.Process.Signal(namedSignal(signal)); err != nil {
		j.logger.Debug("signal failed", "pid", j.cmd.Process.Pid, "signal", signal, "error", err)
	}
}

func (j *Job) NotifyResize(rows, cols int) {
	if err := pty.Setsize(j.ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
		j.logger.Debug("pty resize failed", "error", err)
	}
}

// Release closes the PTY master. The read loop observes the close and
// still delivers the Closed event after reaping the child.
func (j *Job) Release() {
	if j.released.Swap(true) {
		return
	}
	j.ptmx.Close()
}

func namedSignal(name string) os.Signal {
	switch name {
	case "kill":
		return syscall.SIGKILL
	case "hup":
		return syscall.SIGHUP
	case "int":
		return syscall.SIGINT
	case "quit":
		return syscall.SIGQUIT
	case "winch":
		return syscall.SIGWINCH
	default:
		return syscall.SIGTERM
	}
}
