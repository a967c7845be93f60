package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/minfrin/xarmour/internal/report"
)

type inspectParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from an xarmour_run result"`
	Label string `json:"label,omitempty" jsonschema:"block label to show, e.g. CERTIFICATE"`
	Index *int   `json:"index,omitempty" jsonschema:"zero-based index of the block to show"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	result, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	var blocks []report.Block
	switch {
	case params.Index != nil:
		if b, ok := report.ByIndex(result, *params.Index); ok {
			blocks = []report.Block{b}
		}
	case params.Label != "":
		blocks = report.ByLabel(result, params.Label)
	default:
		blocks = result.Blocks
	}
	if len(blocks) == 0 {
		return textResult(fmt.Sprintf("No blocks found in run %s.", params.RunID))
	}

	return textResult(formatInspectOutput(result, blocks))
}

func formatInspectOutput(result *report.RunResult, blocks []report.Block) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (%s)\n", result.ID, strings.Join(result.Command, " "))
	fmt.Fprintln(&b)

	for _, blk := range blocks {
		fmt.Fprintf(&b, "Block %d %q: %s\n", blk.Index, blk.Label, blk.Status())
		fmt.Fprintf(&b, "  bytes: %d, duration: %s\n", blk.Bytes, blk.Duration)
		if blk.WriteError != "" {
			fmt.Fprintf(&b, "  write error: %s\n", blk.WriteError)
		}
		writeOutput(&b, "stdout", blk.Stdout)
		writeOutput(&b, "stderr", blk.Stderr)
		if blk.Truncated {
			fmt.Fprintln(&b, "  (output truncated)")
		}
		fmt.Fprintln(&b)
	}

	return b.String()
}

func writeOutput(b *strings.Builder, name, out string) {
	if out == "" {
		return
	}
	fmt.Fprintf(b, "  %s:\n", name)
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		fmt.Fprintf(b, "    %s\n", line)
	}
}
