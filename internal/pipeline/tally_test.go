package pipeline

import (
	"errors"
	"testing"

	"github.com/minfrin/xarmour/internal/runner"
)

func TestTally_Record(t *testing.T) {
	tests := []struct {
		name     string
		times    int
		res      runner.Result
		wantCode int
		wantStop bool
		wantOK   int
	}{
		{"ok", 0, runner.Result{Outcome: runner.ExitedOK}, 0, false, 1},
		{"exit code", 0, runner.Result{Outcome: runner.ExitedWithCode, Code: 7}, 7, true, 0},
		{"signal", 0, runner.Result{Outcome: runner.Signaled, Signal: 9}, 137, true, 0},
		{"abnormal", 0, runner.Result{Outcome: runner.Abnormal}, ExitOSErr, true, 0},
		{"wait failed", 0, runner.Result{Outcome: runner.WaitFailed, Err: errors.New("ECHILD")}, 1, true, 0},
		{"spawn failed", 0, runner.Result{Outcome: runner.SpawnFailed}, 1, true, 0},
		{"threshold exit code", 2, runner.Result{Outcome: runner.ExitedWithCode, Code: 7}, 0, false, 0},
		{"threshold signal", 2, runner.Result{Outcome: runner.Signaled, Signal: 15}, 0, false, 0},
		{"threshold abnormal", 2, runner.Result{Outcome: runner.Abnormal}, 0, false, 0},
		{"threshold wait failed", 2, runner.Result{Outcome: runner.WaitFailed}, 1, true, 0},
		{"threshold spawn failed", 2, runner.Result{Outcome: runner.SpawnFailed}, 1, true, 0},
		{"threshold ok", 2, runner.Result{Outcome: runner.ExitedOK}, 0, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally := &Tally{Times: tt.times}
			code, stop := tally.Record(&tt.res)
			if code != tt.wantCode || stop != tt.wantStop {
				t.Errorf("Record = (%d, %v), want (%d, %v)", code, stop, tt.wantCode, tt.wantStop)
			}
			if tally.Successes != tt.wantOK {
				t.Errorf("Successes = %d, want %d", tally.Successes, tt.wantOK)
			}
		})
	}
}

func TestTally_Final(t *testing.T) {
	tests := []struct {
		times, successes, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{2, 1, 1},
		{2, 2, 0},
		{2, 3, 0},
	}
	for _, tt := range tests {
		tally := &Tally{Times: tt.times, Successes: tt.successes}
		if got := tally.Final(); got != tt.want {
			t.Errorf("Tally{Times: %d, Successes: %d}.Final() = %d, want %d", tt.times, tt.successes, got, tt.want)
		}
	}
}
