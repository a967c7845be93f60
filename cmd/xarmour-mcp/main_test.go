package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	armourmcp "github.com/minfrin/xarmour/internal/mcp"
)

func TestInstructionsFlag(t *testing.T) {
	cmd := newRootCmd(log.New(io.Discard))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--instructions"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.String() != armourmcp.Instructions {
		t.Errorf("instructions output differs from embedded text:\n%s", out.String())
	}
}

func TestRejectsArguments(t *testing.T) {
	cmd := newRootCmd(log.New(io.Discard))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"cat"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for positional arguments")
	}
}
