package report

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func sampleRun() *RunResult {
	return &RunResult{
		ID:        uuid.New().String(),
		Command:   []string{"gpg", "--verify", "-", "file"},
		Times:     2,
		Successes: 2,
		Blocks: []Block{
			{Index: 0, Label: "PGP SIGNATURE", Outcome: OutcomeExited, ExitCode: 1, Bytes: 120},
			{Index: 1, Label: "PGP SIGNATURE", Outcome: OutcomeOK, Bytes: 118},
			{Index: 2, Label: "CERTIFICATE", Outcome: OutcomeOK, Bytes: 900, Stdout: "verified\n"},
		},
	}
}

func TestQueries(t *testing.T) {
	run := sampleRun()

	if got := ByLabel(run, "PGP SIGNATURE"); len(got) != 2 {
		t.Errorf("ByLabel returned %d blocks, want 2", len(got))
	}
	if got := ByLabel(run, "MISSING"); got != nil {
		t.Errorf("ByLabel(MISSING) = %v, want nil", got)
	}

	b, ok := ByIndex(run, 2)
	if !ok || b.Label != "CERTIFICATE" {
		t.Errorf("ByIndex(2) = (%+v, %v), want CERTIFICATE block", b, ok)
	}
	if _, ok := ByIndex(run, 7); ok {
		t.Error("ByIndex(7) found a block")
	}

	fails := Failures(run)
	if len(fails) != 1 || fails[0].Index != 0 {
		t.Errorf("Failures = %+v, want block 0 only", fails)
	}
}

func TestBlockStatus(t *testing.T) {
	tests := []struct {
		block Block
		want  string
	}{
		{Block{Outcome: OutcomeOK}, "ok"},
		{Block{Outcome: OutcomeExited, ExitCode: 7}, "exited 7"},
		{Block{Outcome: OutcomeSignaled, Signal: 9}, "signaled 9"},
		{Block{Outcome: OutcomeSpawnFailed, Error: "not found"}, "spawn-failed: not found"},
		{Block{Outcome: OutcomeUnterminated}, "unterminated"},
	}
	for _, tt := range tests {
		if got := tt.block.Status(); got != tt.want {
			t.Errorf("Status() = %q, want %q", got, tt.want)
		}
	}
}

func TestDiskStore_RoundTrip(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	run := sampleRun()
	if err := s.Save(run); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(run.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("loaded run mismatch (-want +got):\n%s", diff)
	}
}

func TestDiskStore_RejectsNonUUID(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	if _, err := s.Load("../../etc/passwd"); err == nil {
		t.Fatal("Load accepted a path as run id")
	}
}

// countingStore records backing-store traffic.
type countingStore struct {
	runs  map[string]*RunResult
	loads int
}

func (c *countingStore) Save(r *RunResult) error {
	c.runs[r.ID] = r
	return nil
}

func (c *countingStore) Load(id string) (*RunResult, error) {
	c.loads++
	r, ok := c.runs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func TestLRUStore_Eviction(t *testing.T) {
	back := &countingStore{runs: map[string]*RunResult{}}
	s := NewLRUStore(2, back)

	a, b, c := sampleRun(), sampleRun(), sampleRun()
	for _, r := range []*RunResult{a, b, c} {
		if err := s.Save(r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	// b and c are cached; a was evicted and must come from the backing store.
	if _, err := s.Load(c.ID); err != nil {
		t.Fatalf("Load(c): %v", err)
	}
	if back.loads != 0 {
		t.Errorf("backing loads = %d after cache hit, want 0", back.loads)
	}
	got, err := s.Load(a.ID)
	if err != nil {
		t.Fatalf("Load(a): %v", err)
	}
	if got != a || back.loads != 1 {
		t.Errorf("Load(a) = %p with %d backing loads, want %p with 1", got, back.loads, a)
	}

	// Loading a promoted it and evicted b, the least recently used.
	if _, err := s.Load(b.ID); err != nil {
		t.Fatalf("Load(b): %v", err)
	}
	if back.loads != 2 {
		t.Errorf("backing loads = %d, want 2", back.loads)
	}
}

func TestLRUStore_MissingRun(t *testing.T) {
	s := NewLRUStore(1, &countingStore{runs: map[string]*RunResult{}})
	if _, err := s.Load(uuid.New().String()); err == nil {
		t.Fatal("expected error for unknown run")
	}
}
