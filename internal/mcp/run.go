package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/minfrin/xarmour/internal/pipeline"
	"github.com/minfrin/xarmour/internal/report"
	"github.com/minfrin/xarmour/internal/runner"
)

type runParams struct {
	Input   string   `json:"input" jsonschema:"text containing one or more armoured blocks (-----BEGIN x----- ... -----END x-----)"`
	Command []string `json:"command" jsonschema:"command and arguments to run once per block, e.g. [\"openssl\", \"x509\", \"-noout\", \"-subject\"]"`
	Times   int      `json:"times,omitempty" jsonschema:"number of successful commands required; when omitted the run stops at the first failure"`
	Cwd     string   `json:"cwd,omitempty" jsonschema:"working directory relative to the workspace root"`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	if len(params.Command) == 0 {
		return errorResult("command is required")
	}
	if params.Times < 0 {
		return errorResult("times must be bigger than 0")
	}

	r := &runner.Runner{
		Argv:      params.Command,
		Workspace: h.currentWorkspace(),
		Dir:       params.Cwd,
		Capture:   true,
		MaxOutput: h.cfg.MaxOutputBytes(),
	}
	if err := r.Validate(); err != nil {
		return errorResult(fmt.Sprintf("invalid run: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout())
	defer cancel()

	eng := &pipeline.Engine{
		Runner:   r,
		Times:    params.Times,
		MaxLine:  h.cfg.MaxLine(),
		MaxLabel: h.cfg.MaxLabel(),
		Logger:   h.logger,
	}
	rr, err := eng.Run(ctx, strings.NewReader(params.Input))
	if err != nil {
		return errorResult(fmt.Sprintf("run failed: %v", err))
	}

	// Save results for xarmour_inspect.
	if err := h.store.Save(rr); err != nil {
		h.logger.Warn("saving run", "run", rr.ID, "err", err)
	}

	return textResult(formatRun(rr))
}

func formatRun(rr *report.RunResult) string {
	var b strings.Builder

	if rr.Passed() {
		fmt.Fprintln(&b, "Status: PASS")
	} else {
		fmt.Fprintln(&b, "Status: FAIL")
	}
	fmt.Fprintf(&b, "Run: %s\n", rr.ID)
	fmt.Fprintf(&b, "Exit code: %d\n", rr.ExitCode)
	if rr.Times > 0 {
		fmt.Fprintf(&b, "Successes: %d of %d required\n", rr.Successes, rr.Times)
	} else {
		fmt.Fprintf(&b, "Successes: %d\n", rr.Successes)
	}
	if rr.Aborted {
		fmt.Fprintln(&b, "Stopped before end of input.")
	}
	fmt.Fprintln(&b)

	if len(rr.Blocks) == 0 {
		fmt.Fprintln(&b, "No armoured blocks found.")
		return b.String()
	}

	if failed := report.Failures(rr); len(failed) > 0 {
		fmt.Fprintf(&b, "Not passed: %d of %d\n", len(failed), len(rr.Blocks))
		for _, blk := range failed {
			fmt.Fprintf(&b, "  %d %s: %s\n", blk.Index, blk.Label, blk.Status())
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, "Blocks:")
	for _, blk := range rr.Blocks {
		fmt.Fprintf(&b, "  %d %s: %s\n", blk.Index, blk.Label, blk.Status())
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Inspect with xarmour_inspect(run_id=%q, label=\"<label>\").\n", rr.ID)

	return b.String()
}
