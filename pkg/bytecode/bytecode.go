// Package bytecode obtains low-level instructions for a source snippet and
// aligns them back to graph nodes for side-by-side display.
//
// The disassembler is an external collaborator: the bundled implementation
// shells out to a CPython interpreter, which prints one instruction per
// line in a stable tab-separated format. The format parser is exposed
// separately so it can be exercised without a Python runtime.
package bytecode

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Instruction is one low-level operation with its originating source line.
// Line is 0 for synthetic instructions that carry no position information.
type Instruction struct {
	Offset  int    `json:"offset"`
	Opcode  string `json:"opcode"`
	Arg     string `json:"arg,omitempty"`
	ArgRepr string `json:"arg_repr,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// Disassembler produces the instruction sequence for a source snippet.
type Disassembler interface {
	Disassemble(ctx context.Context, source string) ([]Instruction, error)
}

// disProgram compiles stdin and prints every instruction, recursing into
// nested code objects (function and class bodies), as tab-separated
// "offset opname arg argrepr line" records. Line numbers come from
// line_number (3.13+) or starts_line on older interpreters; missing
// positions print as 0.
const disProgram = `import dis, sys

def line_of(ins):
    ln = getattr(ins, "line_number", None)
    if ln is None:
        ln = getattr(ins, "starts_line", None)
    return ln if isinstance(ln, int) else 0

def walk(code):
    for ins in dis.get_instructions(code):
        arg = "" if ins.arg is None else ins.arg
        print("%d\t%s\t%s\t%s\t%d" % (ins.offset, ins.opname, arg, ins.argrepr, line_of(ins)))
    for const in code.co_consts:
        if hasattr(const, "co_code"):
            walk(const)

walk(compile(sys.stdin.read(), "<astviz>", "exec"))
`

// CPython disassembles source by invoking a Python interpreter.
type CPython struct {
	// Python is the interpreter binary. Defaults to "python3".
	Python string
}

// NewCPython creates a CPython disassembler. An empty python argument
// selects the default interpreter.
func NewCPython(python string) *CPython {
	if python == "" {
		python = "python3"
	}
	return &CPython{Python: python}
}

// Disassemble compiles and disassembles source via the interpreter.
// Compilation failures (the interpreter exiting non-zero) are returned with
// the interpreter's stderr attached.
func (c *CPython) Disassemble(ctx context.Context, source string) ([]Instruction, error) {
	cmd := exec.CommandContext(ctx, c.Python, "-c", disProgram)
	cmd.Stdin = strings.NewReader(source)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("disassemble: %w: %s", err, lastLine(stderr.String()))
	}
	return ParseInstructions(&stdout)
}

// ParseInstructions decodes the disassembler's tab-separated output.
func ParseInstructions(r io.Reader) ([]Instruction, error) {
	var out []Instruction

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 5)
		if len(fields) != 5 {
			return nil, fmt.Errorf("malformed instruction record: %q", line)
		}
		offset, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("malformed instruction offset in %q: %w", line, err)
		}
		srcLine, err := strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("malformed instruction line in %q: %w", line, err)
		}
		out = append(out, Instruction{
			Offset:  offset,
			Opcode:  fields[1],
			Arg:     fields[2],
			ArgRepr: fields[3],
			Line:    srcLine,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read instructions: %w", err)
	}
	return out, nil
}

// lastLine extracts the final non-empty line of interpreter stderr, which
// for compile errors is the SyntaxError summary.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return "no error output"
}
