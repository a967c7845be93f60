package runner

import "time"

// Outcome classifies how a block's command terminated.
type Outcome int

const (
	ExitedOK       Outcome = iota // exited with status 0
	ExitedWithCode                // exited with a non-zero status
	Signaled                      // terminated by a signal
	Abnormal                      // wait returned a status that is neither
	WaitFailed                    // the command could not be waited for
	SpawnFailed                   // the pipe or process could not be created
)

func (o Outcome) String() string {
	switch o {
	case ExitedOK:
		return "ok"
	case ExitedWithCode:
		return "exited"
	case Signaled:
		return "signaled"
	case Abnormal:
		return "abnormal"
	case WaitFailed:
		return "wait-failed"
	case SpawnFailed:
		return "spawn-failed"
	}
	return "unknown"
}

// Result holds the termination outcome of one block's command.
type Result struct {
	Outcome Outcome
	Code    int   // exit status, for ExitedOK and ExitedWithCode
	Signal  int   // signal number, for Signaled
	Err     error // cause, for Abnormal, WaitFailed and SpawnFailed

	Bytes    int64 // bytes written to the command's standard input
	WriteErr error // first write failure, if any
	Duration time.Duration

	Stdout    []byte // captured stdout (Capture only, may be truncated)
	Stderr    []byte // captured stderr (Capture only, may be truncated)
	Truncated bool   // true if output exceeded the size cap
}

// Success reports whether the command exited with status 0.
func (r *Result) Success() bool { return r.Outcome == ExitedOK }

// SpawnFailure returns the Result recorded for a block whose command
// could not be started.
func SpawnFailure(err error) *Result {
	return &Result{Outcome: SpawnFailed, Err: err}
}
