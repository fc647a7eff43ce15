package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/astviz/astviz/pkg/astgraph"
	"github.com/astviz/astviz/pkg/bytecode"
	"github.com/astviz/astviz/pkg/cache"
	apperrors "github.com/astviz/astviz/pkg/errors"
	"github.com/astviz/astviz/pkg/render"
	"github.com/astviz/astviz/pkg/syntax"
)

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{Source: "x = 1\n"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if opts.Format != FormatJSON {
		t.Errorf("Format = %q, want json default", opts.Format)
	}
	if opts.MaxDepth != syntax.DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", opts.MaxDepth, syntax.DefaultMaxDepth)
	}
	if opts.MaxSourceBytes != DefaultMaxSourceBytes {
		t.Errorf("MaxSourceBytes = %d, want %d", opts.MaxSourceBytes, DefaultMaxSourceBytes)
	}
	if opts.Style == (render.Style{}) {
		t.Error("zero style not replaced with defaults")
	}
}

func TestOptionsValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code apperrors.Code
	}{
		{"empty source", Options{}, apperrors.ErrCodeInvalidInput},
		{"oversized source", Options{Source: strings.Repeat("a", 100), MaxSourceBytes: 10}, apperrors.ErrCodeSourceTooBig},
		{"bad format", Options{Source: "x", Format: "yaml"}, apperrors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !apperrors.Is(err, tt.code) {
				t.Errorf("got %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{FormatJSON, FormatDOT, FormatSVG, FormatPNG} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	if err := ValidateFormat("pdf"); !apperrors.Is(err, apperrors.ErrCodeInvalidFormat) {
		t.Errorf("ValidateFormat(pdf) = %v, want INVALID_FORMAT", err)
	}
}

func TestExecuteJSON(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{Source: "x = 1\n"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.CacheHit {
		t.Error("uncached run reported a cache hit")
	}

	g, err := astgraph.Read(bytes.NewReader(result.Artifact))
	if err != nil {
		t.Fatalf("artifact is not a valid graph: %v", err)
	}
	root, ok := g.Root()
	if !ok || root.Label != "module" {
		t.Errorf("root = %+v, want module", root)
	}
}

func TestExecuteDOT(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), Options{Source: "x = 1\n", Format: FormatDOT})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !bytes.Contains(result.Artifact, []byte("digraph G {")) {
		t.Errorf("DOT artifact malformed:\n%s", result.Artifact)
	}
}

func TestExecuteCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	defer r.Close()

	ctx := context.Background()
	opts := Options{Source: "x = 1\n"}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	second, err := r.Execute(ctx, Options{Source: "x = 1\n"})
	if err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}

	if !second.CacheHit {
		t.Error("second run missed the cache")
	}
	if !bytes.Equal(first.Artifact, second.Artifact) {
		t.Error("cached artifact differs from the original")
	}

	// Refresh bypasses the cache read.
	third, err := r.Execute(ctx, Options{Source: "x = 1\n", Refresh: true})
	if err != nil {
		t.Fatalf("refresh Execute failed: %v", err)
	}
	if third.CacheHit {
		t.Error("refresh run served from cache")
	}
}

func TestExecuteModesDiffer(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	ctx := context.Background()
	raw, err := r.BuildGraph(ctx, Options{Source: "x = 1\n", Mode: astgraph.Raw})
	if err != nil {
		t.Fatalf("raw build failed: %v", err)
	}
	opt, err := r.BuildGraph(ctx, Options{Source: "x = 1\n", Mode: astgraph.Optimized})
	if err != nil {
		t.Fatalf("optimized build failed: %v", err)
	}

	if len(opt.Nodes) >= len(raw.Nodes) {
		t.Errorf("optimized graph has %d nodes, raw has %d; want fewer", len(opt.Nodes), len(raw.Nodes))
	}
	if err := raw.Validate(); err != nil {
		t.Errorf("raw graph invalid: %v", err)
	}
	if err := opt.Validate(); err != nil {
		t.Errorf("optimized graph invalid: %v", err)
	}
}

func TestBuildGraphErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	defer r.Close()

	ctx := context.Background()

	_, err := r.BuildGraph(ctx, Options{Source: "def f(:\n    pass\n"})
	if !apperrors.Is(err, apperrors.ErrCodeParse) {
		t.Errorf("syntax error mapped to %v, want PARSE_ERROR", err)
	}

	_, err = r.BuildGraph(ctx, Options{Source: "f(g(h(1)))\n", MaxDepth: 3})
	if !apperrors.Is(err, apperrors.ErrCodeRecursionLimit) {
		t.Errorf("depth error mapped to %v, want RECURSION_LIMIT_EXCEEDED", err)
	}
}

// stubDisassembler returns a canned instruction list.
type stubDisassembler struct {
	instrs []bytecode.Instruction
}

func (s *stubDisassembler) Disassemble(ctx context.Context, source string) ([]bytecode.Instruction, error) {
	return s.instrs, nil
}

func TestBytecode(t *testing.T) {
	dis := &stubDisassembler{instrs: []bytecode.Instruction{
		{Offset: 0, Opcode: "RESUME", Line: 0},
		{Offset: 2, Opcode: "LOAD_CONST", ArgRepr: "1", Line: 1},
	}}
	r := NewRunner(nil, dis, nil)
	defer r.Close()

	result, err := r.Bytecode(context.Background(), Options{Source: "x = 1\n"})
	if err != nil {
		t.Fatalf("Bytecode failed: %v", err)
	}

	if len(result.Alignment) != len(result.Instructions) {
		t.Fatalf("alignment length %d != instruction count %d",
			len(result.Alignment), len(result.Instructions))
	}
	if result.Alignment[0] != bytecode.NoNode {
		t.Errorf("line-less instruction aligned to node %d, want NoNode", result.Alignment[0])
	}
	if result.Alignment[1] == bytecode.NoNode {
		t.Error("line 1 instruction aligned to no node")
	}
}
