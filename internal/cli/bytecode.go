package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/astviz/astviz/pkg/astgraph"
	"github.com/astviz/astviz/pkg/bytecode"
	"github.com/astviz/astviz/pkg/pipeline"
	"github.com/astviz/astviz/pkg/syntax"
)

// bytecodeOpts holds the command-line flags for the bytecode command.
type bytecodeOpts struct {
	mode     string // graph mode: "raw" or "optimized"
	context  string // parse context: "module" or "expression"
	python   string // python interpreter to disassemble with
	asJSON   bool   // emit machine-readable JSON instead of a table
	maxDepth int    // tree depth bound (0 = default)
}

// newBytecodeCmd creates the bytecode command for inspecting a snippet's
// compiled instructions alongside its graph.
func newBytecodeCmd() *cobra.Command {
	var opts bytecodeOpts

	cmd := &cobra.Command{
		Use:   "bytecode [file]",
		Short: "Disassemble a snippet and align instructions to graph nodes",
		Long: `Disassemble a source snippet and align each instruction to the
innermost graph node whose span covers the instruction's source line.

The input is a file path, or "-" to read from stdin. Requires a Python
interpreter on PATH (override with --python). Instructions without line
information align to no node.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBytecode(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "raw", "graph mode: raw (default), optimized")
	cmd.Flags().StringVar(&opts.context, "context", "module", "parse context: module (default), expression")
	cmd.Flags().StringVar(&opts.python, "python", "", "python interpreter (default: python3 on PATH)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "emit JSON instead of a table")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "tree depth bound (0 = default)")

	return cmd
}

func runBytecode(ctx context.Context, input string, opts *bytecodeOpts) error {
	logger := loggerFromContext(ctx)

	source, err := readSource(input)
	if err != nil {
		return err
	}

	mode, err := astgraph.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	parseMode, err := syntax.ParseModeString(opts.context)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, bytecode.NewCPython(opts.python), logger)
	defer runner.Close()

	prog := newProgress(logger)
	result, err := runner.Bytecode(ctx, pipeline.Options{
		Source:   source,
		Mode:     mode,
		Context:  parseMode,
		MaxDepth: opts.maxDepth,
		Fallback: true,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Aligned %d instructions to %d nodes",
		len(result.Instructions), len(result.Graph.Nodes)))

	if opts.asJSON {
		return writeBytecodeJSON(result)
	}
	printBytecodeTable(result)
	return nil
}

// alignedInstruction is the JSON shape of one instruction with its aligned
// node id, null when no node covers the instruction's line.
type alignedInstruction struct {
	bytecode.Instruction
	Node *int `json:"node"`
}

func writeBytecodeJSON(result *pipeline.BytecodeResult) error {
	instrs := make([]alignedInstruction, len(result.Instructions))
	for i, instr := range result.Instructions {
		instrs[i] = alignedInstruction{Instruction: instr}
		if id := result.Alignment[i]; id != bytecode.NoNode {
			v := id
			instrs[i].Node = &v
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Graph        *astgraph.Graph      `json:"graph"`
		Instructions []alignedInstruction `json:"instructions"`
	}{Graph: result.Graph, Instructions: instrs})
}

var (
	bytecodeHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	bytecodeDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// printBytecodeTable renders instructions as an aligned terminal table. The
// Node column shows the label of the aligned graph node.
func printBytecodeTable(result *pipeline.BytecodeResult) {
	rows := make([][]string, len(result.Instructions))
	for i, instr := range result.Instructions {
		line := ""
		if instr.Line > 0 {
			line = strconv.Itoa(instr.Line)
		}
		node := "—"
		if id := result.Alignment[i]; id != bytecode.NoNode {
			node = fmt.Sprintf("#%d %s", id, firstLine(result.Graph.Nodes[id].Label))
		}
		rows[i] = []string{
			strconv.Itoa(instr.Offset),
			instr.Opcode,
			instr.ArgRepr,
			line,
			node,
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(bytecodeDimStyle).
		Headers("Offset", "Opcode", "Arg", "Line", "Node").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return bytecodeHeaderStyle
			}
			return lipgloss.NewStyle()
		})

	fmt.Println(t.Render())
}

// firstLine truncates a multi-line node label to its first line.
func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
