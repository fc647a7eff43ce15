package bytecode

import (
	"strings"
	"testing"
)

func TestParseInstructions(t *testing.T) {
	input := strings.Join([]string{
		"0\tRESUME\t0\t\t0",
		"2\tLOAD_CONST\t0\t1\t1",
		"4\tSTORE_NAME\t0\tx\t1",
		"6\tRETURN_CONST\t1\tNone\t1",
	}, "\n") + "\n"

	instrs, err := ParseInstructions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseInstructions failed: %v", err)
	}
	if len(instrs) != 4 {
		t.Fatalf("got %d instructions, want 4", len(instrs))
	}

	want := Instruction{Offset: 2, Opcode: "LOAD_CONST", Arg: "0", ArgRepr: "1", Line: 1}
	if instrs[1] != want {
		t.Errorf("instruction 1 = %+v, want %+v", instrs[1], want)
	}

	// RESUME carries no source line; the parser keeps it with Line 0.
	if instrs[0].Line != 0 {
		t.Errorf("synthetic instruction line = %d, want 0", instrs[0].Line)
	}
}

func TestParseInstructionsSkipsBlankLines(t *testing.T) {
	input := "0\tRESUME\t0\t\t0\n\n2\tRETURN_CONST\t0\tNone\t1\n\n"

	instrs, err := ParseInstructions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseInstructions failed: %v", err)
	}
	if len(instrs) != 2 {
		t.Errorf("got %d instructions, want 2", len(instrs))
	}
}

func TestParseInstructionsEmptyArg(t *testing.T) {
	instrs, err := ParseInstructions(strings.NewReader("0\tPOP_TOP\t\t\t3\n"))
	if err != nil {
		t.Fatalf("ParseInstructions failed: %v", err)
	}
	if instrs[0].Arg != "" || instrs[0].ArgRepr != "" {
		t.Errorf("empty arg fields parsed as %q/%q", instrs[0].Arg, instrs[0].ArgRepr)
	}
	if instrs[0].Line != 3 {
		t.Errorf("line = %d, want 3", instrs[0].Line)
	}
}

func TestParseInstructionsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few fields", "0\tLOAD_CONST\t0\n"},
		{"bad offset", "zero\tLOAD_CONST\t0\t1\t1\n"},
		{"bad line", "0\tLOAD_CONST\t0\t1\tten\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseInstructions(strings.NewReader(tt.input)); err == nil {
				t.Error("malformed input accepted")
			}
		})
	}
}

func TestNewCPythonDefault(t *testing.T) {
	if got := NewCPython("").Python; got != "python3" {
		t.Errorf("default interpreter = %q, want python3", got)
	}
	if got := NewCPython("python3.12").Python; got != "python3.12" {
		t.Errorf("interpreter = %q, want python3.12", got)
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Traceback\n  File x\nSyntaxError: invalid syntax\n", "SyntaxError: invalid syntax"},
		{"one line", "one line"},
		{"", "no error output"},
		{"\n\n  \n", "no error output"},
	}
	for _, tt := range tests {
		if got := lastLine(tt.in); got != tt.want {
			t.Errorf("lastLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
