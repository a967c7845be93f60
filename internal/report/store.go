// Package report provides structured persistence and retrieval of
// xarmour run results. Results are stored as typed structs and can be
// queried by block label or index.
package report

import (
	"fmt"
	"time"
)

// Outcome names recorded for a block. The runner's outcomes map onto these,
// plus Unterminated for a block still open at end of input.
const (
	OutcomeOK           = "ok"
	OutcomeExited       = "exited"
	OutcomeSignaled     = "signaled"
	OutcomeAbnormal     = "abnormal"
	OutcomeWaitFailed   = "wait-failed"
	OutcomeSpawnFailed  = "spawn-failed"
	OutcomeUnterminated = "unterminated"
)

// Store persists and retrieves run results.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
}

// RunResult holds the structured output of one pass over the input.
type RunResult struct {
	ID        string   `json:"id"`
	Command   []string `json:"command"`
	Times     int      `json:"times,omitempty"` // zero when no threshold is set
	Successes int      `json:"successes"`
	ExitCode  int      `json:"exit_code"`
	Aborted   bool     `json:"aborted,omitempty"` // stopped before end of input
	Blocks    []Block  `json:"blocks,omitempty"`
}

// Block records one armoured block and what its command did with it.
type Block struct {
	Index      int           `json:"index"`
	Label      string        `json:"label"`
	Outcome    string        `json:"outcome"`
	ExitCode   int           `json:"exit_code,omitempty"`
	Signal     int           `json:"signal,omitempty"`
	Error      string        `json:"error,omitempty"`
	Bytes      int64         `json:"bytes"`
	WriteError string        `json:"write_error,omitempty"` // first failed write to the command's stdin
	Duration   time.Duration `json:"duration"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	Truncated  bool          `json:"truncated,omitempty"`
}

// Passed reports whether the block's command exited with status 0.
func (b Block) Passed() bool { return b.Outcome == OutcomeOK }

// Status renders the outcome with its detail, e.g. "exited 7".
func (b Block) Status() string {
	switch b.Outcome {
	case OutcomeExited:
		return fmt.Sprintf("exited %d", b.ExitCode)
	case OutcomeSignaled:
		return fmt.Sprintf("signaled %d", b.Signal)
	case OutcomeAbnormal, OutcomeWaitFailed, OutcomeSpawnFailed:
		if b.Error != "" {
			return b.Outcome + ": " + b.Error
		}
	}
	return b.Outcome
}

// Passed reports whether the run as a whole succeeded.
func (r *RunResult) Passed() bool { return r.ExitCode == 0 }

// ByLabel returns all blocks carrying label, in input order.
func ByLabel(result *RunResult, label string) []Block {
	var out []Block
	for _, b := range result.Blocks {
		if b.Label == label {
			out = append(out, b)
		}
	}
	return out
}

// ByIndex returns the block with the given index.
func ByIndex(result *RunResult, index int) (Block, bool) {
	for _, b := range result.Blocks {
		if b.Index == index {
			return b, true
		}
	}
	return Block{}, false
}

// Failures returns every block whose command did not exit with status 0.
func Failures(result *RunResult) []Block {
	var out []Block
	for _, b := range result.Blocks {
		if !b.Passed() {
			out = append(out, b)
		}
	}
	return out
}
