package pipeline

import "github.com/minfrin/xarmour/internal/runner"

// Exit statuses of a run.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitOSErr   = 71 // EX_OSERR: wait returned a status that is neither exit nor signal
	SignalBase  = 128
)

// Tally aggregates block outcomes. With Times unset the first failure ends
// the run; with Times set every block is processed and the decision is
// deferred to Final.
type Tally struct {
	Times     int // required successes; zero means give up on first failure
	Successes int
}

// Record applies one block's result. When the run must stop, Record
// returns stop=true and the exit status for the whole run.
func (t *Tally) Record(res *runner.Result) (code int, stop bool) {
	switch res.Outcome {
	case runner.SpawnFailed, runner.WaitFailed:
		return ExitFailure, true
	case runner.ExitedOK:
		t.Successes++
		return ExitSuccess, false
	}

	if t.Times > 0 {
		return ExitSuccess, false
	}

	switch res.Outcome {
	case runner.ExitedWithCode:
		return res.Code, true
	case runner.Signaled:
		return SignalBase + res.Signal, true
	default:
		return ExitOSErr, true
	}
}

// Final returns the exit status once the input is exhausted.
func (t *Tally) Final() int {
	if t.Times > 0 && t.Successes < t.Times {
		return ExitFailure
	}
	return ExitSuccess
}

// Reached reports whether the threshold, if any, has been met.
func (t *Tally) Reached() bool {
	return t.Final() == ExitSuccess
}
