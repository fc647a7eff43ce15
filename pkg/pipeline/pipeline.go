// Package pipeline provides the core parse → build → render pipeline.
//
// The pipeline is shared by the CLI and the HTTP server so both surfaces
// behave identically: same validation, same cache keys, same error codes.
// Each run is a pure function of its options; results are cached by a hash
// of the full input tuple.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/astviz/astviz/pkg/astgraph"
	"github.com/astviz/astviz/pkg/bytecode"
	"github.com/astviz/astviz/pkg/cache"
	"github.com/astviz/astviz/pkg/classify"
	apperrors "github.com/astviz/astviz/pkg/errors"
	"github.com/astviz/astviz/pkg/render"
	"github.com/astviz/astviz/pkg/syntax"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperrors.New(apperrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg, png)", format)
	}
	return nil
}

const (
	// DefaultMaxSourceBytes bounds accepted source size. Inputs are single
	// snippets, not multi-file programs; anything bigger is rejected at
	// the request boundary.
	DefaultMaxSourceBytes = 64 * 1024

	// DefaultTTL is how long cached artifacts live.
	DefaultTTL = 24 * time.Hour
)

// Options configures one pipeline run.
type Options struct {
	// Source is the code snippet to visualize.
	Source string

	// Mode selects raw or optimized graph output.
	Mode astgraph.Mode

	// Context selects module or expression parsing.
	Context syntax.Mode

	// Format selects the artifact encoding (json, dot, svg, png).
	Format string

	// Style controls DOT/SVG/PNG appearance. Zero value means defaults.
	Style render.Style

	// MaxDepth bounds tree depth; zero means syntax.DefaultMaxDepth.
	MaxDepth int

	// MaxSourceBytes bounds input size; zero means DefaultMaxSourceBytes.
	MaxSourceBytes int

	// Fallback renders unsupported node kinds generically instead of
	// failing the whole run.
	Fallback bool

	// Refresh bypasses the cache read (the result is still stored).
	Refresh bool

	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Source == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "empty source")
	}
	if o.MaxSourceBytes <= 0 {
		o.MaxSourceBytes = DefaultMaxSourceBytes
	}
	if len(o.Source) > o.MaxSourceBytes {
		return apperrors.New(apperrors.ErrCodeSourceTooBig,
			"source is %d bytes, limit is %d", len(o.Source), o.MaxSourceBytes)
	}
	if o.Format == "" {
		o.Format = FormatJSON
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = syntax.DefaultMaxDepth
	}
	if o.Style == (render.Style{}) {
		o.Style = render.DefaultStyle()
	}
	o.validated = true
	return nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the built graph. Nil when the artifact came from cache.
	Graph *astgraph.Graph

	// Artifact is the rendered output in the requested format.
	Artifact []byte

	// CacheHit reports whether the artifact was served from cache.
	CacheHit bool

	// BuildTime and RenderTime cover parse+build and artifact encoding.
	BuildTime  time.Duration
	RenderTime time.Duration
}

// BytecodeResult pairs disassembled instructions with their graph alignment.
type BytecodeResult struct {
	Graph        *astgraph.Graph
	Instructions []bytecode.Instruction

	// Alignment maps instruction index to graph node id, bytecode.NoNode
	// for instructions without line information.
	Alignment []int
}

// Runner executes pipeline runs against a cache and a disassembler.
type Runner struct {
	cache  cache.Cache
	dis    bytecode.Disassembler
	logger *log.Logger
}

// NewRunner creates a pipeline runner. A nil cache disables caching and a
// nil disassembler defaults to the CPython adapter.
func NewRunner(c cache.Cache, dis bytecode.Disassembler, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if dis == nil {
		dis = bytecode.NewCPython("")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{cache: c, dis: dis, logger: logger}
}

// Execute runs parse → build → render and returns the artifact.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	key := cache.Key("render", opts.Source, opts.Mode.String(), int(opts.Context),
		opts.Format, opts.Style, opts.MaxDepth, opts.Fallback)
	if !opts.Refresh {
		if data, ok, err := r.cache.Get(ctx, key); err != nil {
			r.logger.Warnf("cache read failed: %v", err)
		} else if ok {
			r.logger.Debugf("cache hit for %s artifact", opts.Format)
			return &Result{Artifact: data, CacheHit: true}, nil
		}
	}

	buildStart := time.Now()
	g, err := r.BuildGraph(ctx, opts)
	if err != nil {
		return nil, err
	}
	buildTime := time.Since(buildStart)

	renderStart := time.Now()
	artifact, err := r.encode(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	renderTime := time.Since(renderStart)

	if err := r.cache.Set(ctx, key, artifact, DefaultTTL); err != nil {
		r.logger.Warnf("cache write failed: %v", err)
	}

	return &Result{
		Graph:      g,
		Artifact:   artifact,
		BuildTime:  buildTime,
		RenderTime: renderTime,
	}, nil
}

// BuildGraph parses the source and builds the graph without rendering.
func (r *Runner) BuildGraph(ctx context.Context, opts Options) (*astgraph.Graph, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	parser := syntax.NewParser(syntax.WithMaxDepth(opts.MaxDepth))
	tree, err := parser.Parse(ctx, opts.Source, opts.Context)
	if err != nil {
		return nil, classifyError(err)
	}

	g, err := astgraph.Build(tree, astgraph.Options{
		Mode:     opts.Mode,
		MaxDepth: opts.MaxDepth,
		Fallback: opts.Fallback,
	})
	if err != nil {
		return nil, classifyError(err)
	}
	return g, nil
}

// Bytecode disassembles the source and aligns instructions to graph nodes.
func (r *Runner) Bytecode(ctx context.Context, opts Options) (*BytecodeResult, error) {
	g, err := r.BuildGraph(ctx, opts)
	if err != nil {
		return nil, err
	}

	instrs, err := r.dis.Disassemble(ctx, opts.Source)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "disassembly failed")
	}

	return &BytecodeResult{
		Graph:        g,
		Instructions: instrs,
		Alignment:    bytecode.Align(instrs, g),
	}, nil
}

func (r *Runner) encode(ctx context.Context, g *astgraph.Graph, opts Options) ([]byte, error) {
	switch opts.Format {
	case FormatJSON:
		return astgraph.Marshal(g)
	case FormatDOT:
		return []byte(render.ToDOT(g, opts.Style)), nil
	case FormatSVG:
		return render.RenderSVG(ctx, render.ToDOT(g, opts.Style))
	case FormatPNG:
		return render.RenderPNG(ctx, render.ToDOT(g, opts.Style))
	}
	return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "invalid format: %q", opts.Format)
}

// classifyError maps core package failures onto the application error
// taxonomy, so CLI and server report identical codes.
func classifyError(err error) error {
	var parseErr *syntax.ParseError
	if errors.As(err, &parseErr) {
		return apperrors.Wrap(apperrors.ErrCodeParse, err, "%s", parseErr.Error())
	}
	var depthErr *syntax.DepthError
	if errors.As(err, &depthErr) {
		return apperrors.Wrap(apperrors.ErrCodeRecursionLimit, err, "%s", depthErr.Error())
	}
	if errors.Is(err, classify.ErrUnsupportedKind) {
		return apperrors.Wrap(apperrors.ErrCodeUnsupportedKind, err, "%s", err.Error())
	}
	if errors.Is(err, astgraph.ErrMalformedTree) {
		return apperrors.Wrap(apperrors.ErrCodeMalformedTree, err, "%s", err.Error())
	}
	return apperrors.Wrap(apperrors.ErrCodeInternal, err, "build failed")
}

// Close releases the runner's cache backend.
func (r *Runner) Close() error {
	if err := r.cache.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}
	return nil
}
