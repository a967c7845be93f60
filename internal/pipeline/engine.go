// Package pipeline scans input for armoured blocks, runs the command once
// per block and aggregates the outcomes into an exit status.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/minfrin/xarmour/internal/armour"
	"github.com/minfrin/xarmour/internal/report"
	"github.com/minfrin/xarmour/internal/runner"
)

// Engine holds the fixed settings of a run. Blocks are processed strictly
// one at a time: a command is started, fed, closed and waited for before
// the next block is looked for.
type Engine struct {
	Runner   *runner.Runner
	Times    int // required successes; zero gives up on first failure
	MaxLine  int // input chunk size; zero uses armour.DefaultMaxLine
	MaxLabel int // label cap; zero uses armour.DefaultMaxLabel
	Logger   *log.Logger
}

// Run processes in until end of input or until a failure ends the run.
// The exit status is in the returned RunResult. An error is returned only
// when the input could not be read; the RunResult is still valid then.
func (e *Engine) Run(ctx context.Context, in io.Reader) (*report.RunResult, error) {
	logger := e.logger()
	name := e.Runner.Name()

	rr := &report.RunResult{
		ID:      uuid.New().String(),
		Command: e.Runner.Argv,
		Times:   e.Times,
	}
	tally := &Tally{Times: e.Times}
	sc := armour.NewScanner(armour.NewReader(in, e.MaxLine), e.MaxLabel)

	var (
		proc  *runner.Process
		index int
	)
	for {
		ev, err := sc.Scan()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if proc != nil {
				label, _ := sc.Open()
				e.reap(rr, proc, index, label)
			}
			logger.Error("input failed", "command", name, "err", err)
			rr.Successes = tally.Successes
			rr.ExitCode = ExitFailure
			rr.Aborted = true
			return rr, err
		}

		switch ev.Kind {
		case armour.Outside:
			continue

		case armour.Begin:
			logger.Debug("block opened", "index", index, "label", ev.Label)
			proc, err = e.Runner.Start(ctx, runner.Block{
				Index: index,
				Count: tally.Successes,
				Times: e.Times,
				Label: ev.Label,
			})
			if err != nil {
				rr.Blocks = append(rr.Blocks, blockReport(index, ev.Label, runner.SpawnFailure(err)))
				logger.Error("could not execute, giving up", "command", name, "err", err)
				rr.Successes = tally.Successes
				rr.ExitCode = ExitFailure
				rr.Aborted = true
				return rr, nil
			}
			proc.Feed(ev.Line)

		case armour.Body:
			proc.Feed(ev.Line)

		case armour.End:
			proc.Feed(ev.Line)
			res := proc.Finish()
			proc = nil
			rr.Blocks = append(rr.Blocks, blockReport(index, ev.Label, res))
			logger.Debug("block closed", "index", index, "label", ev.Label, "outcome", res.Outcome, "bytes", res.Bytes)
			if res.WriteErr != nil {
				logger.Debug("command stopped reading its input", "index", index, "err", res.WriteErr)
			}
			index++

			code, stop := tally.Record(res)
			if !res.Success() && e.Times > 0 {
				logger.Warn("command failed", "command", name, "label", ev.Label, "status", describe(res))
			}
			if stop {
				logFatal(logger, name, res)
				rr.Successes = tally.Successes
				rr.ExitCode = code
				rr.Aborted = true
				return rr, nil
			}
		}
	}

	if proc != nil {
		label, _ := sc.Open()
		e.reap(rr, proc, index, label)
	}

	rr.Successes = tally.Successes
	rr.ExitCode = tally.Final()
	if e.Times > 0 {
		summary := fmt.Sprintf("%d %s, %d required", tally.Successes, plural(tally.Successes), e.Times)
		if tally.Reached() {
			logger.Info(summary+": success", "command", name)
		} else {
			logger.Error(summary+": failed", "command", name)
		}
	}
	return rr, nil
}

// reap closes the input of a block left open at end of input and waits
// for its command. The outcome is recorded but never affects the exit
// status.
func (e *Engine) reap(rr *report.RunResult, proc *runner.Process, index int, label string) {
	res := proc.Finish()
	b := blockReport(index, label, res)
	b.Outcome = report.OutcomeUnterminated
	rr.Blocks = append(rr.Blocks, b)
	e.logger().Debug("unterminated block discarded", "index", index, "label", label, "status", describe(res))
}

func (e *Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}

func logFatal(logger *log.Logger, name string, res *runner.Result) {
	switch res.Outcome {
	case runner.ExitedWithCode:
		logger.Error("command returned", "command", name, "status", res.Code)
	case runner.Signaled:
		logger.Error("command signaled", "command", name, "signal", res.Signal)
	case runner.WaitFailed:
		logger.Error("wait failed", "command", name, "err", res.Err)
	default:
		logger.Error("command failed", "command", name, "err", res.Err)
	}
}

func describe(res *runner.Result) string {
	switch res.Outcome {
	case runner.ExitedOK, runner.ExitedWithCode:
		return fmt.Sprintf("exit %d", res.Code)
	case runner.Signaled:
		return fmt.Sprintf("signal %d", res.Signal)
	}
	if res.Err != nil {
		return res.Outcome.String() + ": " + res.Err.Error()
	}
	return res.Outcome.String()
}

func plural(n int) string {
	if n == 1 {
		return "success"
	}
	return "successes"
}

func blockReport(index int, label string, res *runner.Result) report.Block {
	b := report.Block{
		Index:     index,
		Label:     label,
		Outcome:   outcomeName(res.Outcome),
		Bytes:     res.Bytes,
		Duration:  res.Duration,
		Stdout:    string(res.Stdout),
		Stderr:    string(res.Stderr),
		Truncated: res.Truncated,
	}
	switch res.Outcome {
	case runner.ExitedWithCode:
		b.ExitCode = res.Code
	case runner.Signaled:
		b.Signal = res.Signal
	}
	if res.Err != nil {
		b.Error = res.Err.Error()
	}
	if res.WriteErr != nil {
		b.WriteError = res.WriteErr.Error()
	}
	return b
}

func outcomeName(o runner.Outcome) string {
	switch o {
	case runner.ExitedOK:
		return report.OutcomeOK
	case runner.ExitedWithCode:
		return report.OutcomeExited
	case runner.Signaled:
		return report.OutcomeSignaled
	case runner.Abnormal:
		return report.OutcomeAbnormal
	case runner.WaitFailed:
		return report.OutcomeWaitFailed
	default:
		return report.OutcomeSpawnFailed
	}
}
