package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestRunner(t *testing.T, script string) *Runner {
	t.Helper()
	return &Runner{
		Argv:      []string{"/bin/sh", "-c", script},
		Workspace: t.TempDir(),
		Env:       []string{"PATH=" + os.Getenv("PATH")},
		Capture:   true,
		MaxOutput: 1 << 20,
	}
}

func runBlock(t *testing.T, r *Runner, b Block, lines ...string) *Result {
	t.Helper()
	p, err := r.Start(context.Background(), b)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, l := range lines {
		p.Feed([]byte(l))
	}
	return p.Finish()
}

func TestStart_Success(t *testing.T) {
	r := newTestRunner(t, "cat")
	in := []string{"-----BEGIN X-----\n", "abc\n", "-----END X-----\n"}
	res := runBlock(t, r, Block{Label: "X"}, in...)
	if res.Outcome != ExitedOK {
		t.Fatalf("Outcome = %v, want ok (err %v)", res.Outcome, res.Err)
	}
	if got, want := string(res.Stdout), strings.Join(in, ""); got != want {
		t.Errorf("Stdout = %q, want %q", got, want)
	}
	if res.Bytes != int64(len(strings.Join(in, ""))) {
		t.Errorf("Bytes = %d, want %d", res.Bytes, len(strings.Join(in, "")))
	}
}

func TestStart_NonZeroExit(t *testing.T) {
	r := newTestRunner(t, "cat >/dev/null; exit 7")
	res := runBlock(t, r, Block{}, "data\n")
	if res.Outcome != ExitedWithCode || res.Code != 7 {
		t.Errorf("result = %v/%d, want exited/7", res.Outcome, res.Code)
	}
	if res.Success() {
		t.Error("Success() = true for exit 7")
	}
}

func TestStart_Signaled(t *testing.T) {
	r := newTestRunner(t, "kill -9 $$")
	res := runBlock(t, r, Block{}, "data\n")
	if res.Outcome != Signaled || res.Signal != 9 {
		t.Errorf("result = %v/%d, want signaled/9", res.Outcome, res.Signal)
	}
}

func TestStart_Environment(t *testing.T) {
	r := newTestRunner(t, `cat >/dev/null; printf '%s|%s|%s|%s' "$XARMOUR_INDEX" "$XARMOUR_COUNT" "$XARMOUR_TIMES" "$XARMOUR_LABEL"`)
	res := runBlock(t, r, Block{Index: 3, Count: 2, Times: 5, Label: "PGP SIGNATURE"})
	if got, want := string(res.Stdout), "3|2|5|PGP SIGNATURE"; got != want {
		t.Errorf("environment = %q, want %q", got, want)
	}
}

func TestStart_TimesUnsetOverridesInherited(t *testing.T) {
	r := newTestRunner(t, `printf '[%s]' "${XARMOUR_TIMES-unset}"`)
	r.Env = append(r.Env, "XARMOUR_TIMES=9")
	res := runBlock(t, r, Block{})
	if got := string(res.Stdout); got != "[]" {
		t.Errorf("XARMOUR_TIMES = %s, want []", got)
	}
}

func TestStart_BinaryNotFound(t *testing.T) {
	r := &Runner{Argv: []string{"nonexistent-binary-xyz-123"}}
	_, err := r.Start(context.Background(), Block{})
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("err = %v, want ErrSpawn", err)
	}
	if !strings.Contains(err.Error(), "nonexistent-binary-xyz-123") {
		t.Errorf("error = %q, want to mention the binary name", err)
	}
}

func TestStart_EmptyArgv(t *testing.T) {
	r := &Runner{}
	_, err := r.Start(context.Background(), Block{})
	if !errors.Is(err, ErrEmptyArgv) {
		t.Fatalf("err = %v, want ErrEmptyArgv", err)
	}
	if err := r.Validate(); !errors.Is(err, ErrEmptyArgv) {
		t.Errorf("Validate = %v, want ErrEmptyArgv", err)
	}
}

func TestStart_CWDWithinWorkspace(t *testing.T) {
	r := newTestRunner(t, "pwd")
	sub := filepath.Join(r.Workspace, "subdir")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	r.Dir = "subdir"
	res := runBlock(t, r, Block{})
	if !strings.Contains(string(res.Stdout), "subdir") {
		t.Errorf("Stdout = %q, want to contain 'subdir'", res.Stdout)
	}
}

func TestStart_CWDOutsideWorkspace(t *testing.T) {
	r := newTestRunner(t, "pwd")
	r.Dir = "../../etc"
	if err := r.Validate(); err == nil {
		t.Fatal("Validate: expected error for cwd outside workspace")
	}
	_, err := r.Start(context.Background(), Block{})
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("err = %v, want ErrSpawn", err)
	}
}

func TestFeed_AfterCommandExitIsIgnored(t *testing.T) {
	r := newTestRunner(t, "exit 0")
	p, err := r.Start(context.Background(), Block{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	chunk := bytes.Repeat([]byte("z"), 64<<10)
	for i := 0; i < 16; i++ {
		p.Feed(chunk)
	}
	res := p.Finish()
	if res.Outcome != ExitedOK {
		t.Errorf("Outcome = %v, want ok", res.Outcome)
	}
	if res.WriteErr == nil {
		t.Error("WriteErr = nil, want the failed write to be recorded")
	}
}

func TestCapture_Truncated(t *testing.T) {
	r := newTestRunner(t, "cat")
	r.MaxOutput = 4
	res := runBlock(t, r, Block{}, "0123456789\n")
	if string(res.Stdout) != "0123" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "0123")
	}
	if !res.Truncated {
		t.Error("Truncated = false, want true")
	}
}

func TestStart_InheritedWriters(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := &Runner{
		Argv:   []string{"/bin/sh", "-c", "cat; echo oops >&2"},
		Stdout: &stdout,
		Stderr: &stderr,
	}
	res := runBlock(t, r, Block{}, "line\n")
	if res.Outcome != ExitedOK {
		t.Fatalf("Outcome = %v, want ok", res.Outcome)
	}
	if diff := cmp.Diff([]string{"line\n", "oops\n"}, []string{stdout.String(), stderr.String()}); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if res.Stdout != nil {
		t.Errorf("Stdout captured without Capture: %q", res.Stdout)
	}
}

func TestBlockEnviron(t *testing.T) {
	got := Block{Index: 1, Count: 0, Label: "A"}.Environ([]string{"HOME=/root"})
	want := []string{"HOME=/root", "XARMOUR_INDEX=1", "XARMOUR_COUNT=0", "XARMOUR_TIMES=", "XARMOUR_LABEL=A"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Environ mismatch (-want +got):\n%s", diff)
	}
}
