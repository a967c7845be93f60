// Package runner starts the command for an armoured block, streams the
// block to the command's standard input and reports how it terminated.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/minfrin/xarmour"
)

// ErrEmptyArgv is returned when no command is configured.
var ErrEmptyArgv = errors.New("empty argv")

// ErrSpawn wraps every failure to create the pipe or start the command.
var ErrSpawn = errors.New("could not execute")

// Runner starts one process per armoured block. The command and its
// arguments are fixed for the lifetime of the Runner.
type Runner struct {
	Argv      []string
	Workspace string // when set, the command's working directory must stay inside it
	Dir       string // working directory, relative to Workspace unless absolute
	Env       []string

	// Stdout and Stderr receive the command's output. Nil inherits the
	// parent's standard output and error.
	Stdout io.Writer
	Stderr io.Writer

	// Capture collects each command's output into its Result instead,
	// keeping at most MaxOutput bytes per stream.
	Capture   bool
	MaxOutput int
}

// Block carries the counters exported to the command's environment.
type Block struct {
	Index int    // zero-based ordinal of the block
	Count int    // successes before this block
	Times int    // threshold; zero when unset
	Label string // block label
}

// Environ returns base extended with the XARMOUR_* variables for b.
// Later entries win, so inherited values are overridden.
func (b Block) Environ(base []string) []string {
	times := ""
	if b.Times > 0 {
		times = strconv.Itoa(b.Times)
	}
	return append(slices.Clip(base),
		xarmour.EnvIndex+"="+strconv.Itoa(b.Index),
		xarmour.EnvCount+"="+strconv.Itoa(b.Count),
		xarmour.EnvTimes+"="+times,
		xarmour.EnvLabel+"="+b.Label,
	)
}

// Name returns the command name used in diagnostics.
func (r *Runner) Name() string {
	if len(r.Argv) == 0 {
		return ""
	}
	return r.Argv[0]
}

// Validate checks the command and working directory without starting
// anything.
func (r *Runner) Validate() error {
	if len(r.Argv) == 0 {
		return ErrEmptyArgv
	}
	_, err := r.resolveDir(r.Dir)
	return err
}

// Start spawns the command for b with its standard input connected to a
// pipe held by the returned Process. Errors wrap ErrSpawn.
func (r *Runner) Start(ctx context.Context, b Block) (*Process, error) {
	if len(r.Argv) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrSpawn, ErrEmptyArgv)
	}

	dir, err := r.resolveDir(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	cmd := exec.CommandContext(ctx, r.Argv[0], r.Argv[1:]...)
	cmd.Dir = dir
	base := r.Env
	if base == nil {
		base = os.Environ()
	}
	cmd.Env = b.Environ(base)

	p := &Process{cmd: cmd}
	switch {
	case r.Capture:
		p.stdout = &limitWriter{buf: &bytes.Buffer{}, limit: r.MaxOutput}
		p.stderr = &limitWriter{buf: &bytes.Buffer{}, limit: r.MaxOutput}
		cmd.Stdout = p.stdout
		cmd.Stderr = p.stderr
	default:
		cmd.Stdout = writerOr(r.Stdout, os.Stdout)
		cmd.Stderr = writerOr(r.Stderr, os.Stderr)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: creating pipe: %w", ErrSpawn, err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("%w %s: %w", ErrSpawn, r.Argv[0], err)
	}
	p.stdin = stdin
	p.started = time.Now()
	return p, nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

// Process is a running command owned by one open block.
type Process struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *limitWriter
	stderr  *limitWriter
	started time.Time

	written  int64
	writeErr error
}

// Feed writes line to the command's standard input. Write failures are
// remembered but not returned: a command that stopped reading reports
// the problem through its termination status.
func (p *Process) Feed(line []byte) {
	if p.writeErr != nil {
		return
	}
	n, err := p.stdin.Write(line)
	p.written += int64(n)
	if err != nil {
		p.writeErr = err
	}
}

// Finish closes the command's standard input and blocks until it exits.
func (p *Process) Finish() *Result {
	_ = p.stdin.Close()

	// os.Process.Wait retries waits interrupted by EINTR.
	waitErr := p.cmd.Wait()

	res := &Result{
		Bytes:    p.written,
		WriteErr: p.writeErr,
		Duration: time.Since(p.started),
	}
	if p.stdout != nil {
		res.Stdout = p.stdout.buf.Bytes()
		res.Stderr = p.stderr.buf.Bytes()
		res.Truncated = p.stdout.truncated || p.stderr.truncated
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			res.Outcome = WaitFailed
			res.Err = waitErr
			return res
		}
	}
	classify(res, p.cmd.ProcessState)
	return res
}

func classify(res *Result, ps *os.ProcessState) {
	if ps == nil {
		res.Outcome = WaitFailed
		res.Err = errors.New("no process state")
		return
	}
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok {
		res.Code = ps.ExitCode()
		res.Outcome = ExitedWithCode
		if res.Code == 0 {
			res.Outcome = ExitedOK
		}
		return
	}
	switch {
	case ws.Exited():
		res.Code = ws.ExitStatus()
		res.Outcome = ExitedWithCode
		if res.Code == 0 {
			res.Outcome = ExitedOK
		}
	case ws.Signaled():
		res.Outcome = Signaled
		res.Signal = int(ws.Signal())
	default:
		res.Outcome = Abnormal
		res.Err = fmt.Errorf("unrecognised wait status: %s", ps)
	}
}

// resolveDir resolves cwd relative to the workspace and validates it
// is within the workspace boundary.
func (r *Runner) resolveDir(cwd string) (string, error) {
	if r.Workspace == "" {
		return cwd, nil
	}
	if cwd == "" {
		return r.Workspace, nil
	}

	var dir string
	if filepath.IsAbs(cwd) {
		dir = filepath.Clean(cwd)
	} else {
		dir = filepath.Clean(filepath.Join(r.Workspace, cwd))
	}

	rel, err := filepath.Rel(r.Workspace, dir)
	if err != nil {
		return "", fmt.Errorf("resolving cwd: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("cwd %q is outside workspace %q", cwd, r.Workspace)
	}
	return dir, nil
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf       *bytes.Buffer
	limit     int
	truncated bool
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			w.truncated = true
		}
		return len(p), nil // discard
	}
	if len(p) > remaining {
		// Write only what fits, but report all bytes as consumed
		// to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		w.truncated = true
		return len(p), nil
	}
	return w.buf.Write(p)
}
