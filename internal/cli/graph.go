package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/astviz/astviz/pkg/astgraph"
	"github.com/astviz/astviz/pkg/cache"
	"github.com/astviz/astviz/pkg/pipeline"
	"github.com/astviz/astviz/pkg/render"
	"github.com/astviz/astviz/pkg/syntax"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output   string // output file path (default: stdout)
	mode     string // graph mode: "raw" or "optimized"
	context  string // parse context: "module" or "expression"
	format   string // output format: "json", "dot", "svg", "png"
	style    string // path to a TOML style file
	maxDepth int    // tree depth bound (0 = default)
	strict   bool   // fail on unsupported node kinds instead of rendering generically
	noCache  bool   // disable the artifact cache
	refresh  bool   // bypass cache reads, recompute and store
	cacheDir string // cache directory override
}

// newGraphCmd creates the graph command for rendering a snippet as a graph.
//
// Default settings:
//   - mode: raw (every tree node becomes a graph node)
//   - context: module
//   - format: json
//   - caching: file cache under the user cache directory
func newGraphCmd() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph [file]",
		Short: "Render a source snippet as a syntax-tree graph",
		Long: `Parse a source snippet and render its syntax tree as a graph.

The input is a file path, or "-" to read from stdin. The graph is written
to stdout unless --output is given. In optimized mode, single-child wrapper
nodes are elided and leaf values are inlined into their parent's label.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "raw", "graph mode: raw (default), optimized")
	cmd.Flags().StringVar(&opts.context, "context", "module", "parse context: module (default), expression")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "output format: json (default), dot, svg, png")
	cmd.Flags().StringVar(&opts.style, "style", "", "TOML style file for dot/svg/png output")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "tree depth bound (0 = default)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail on unsupported node kinds")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if cached")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "cache directory (default: user cache dir)")

	return cmd
}

// runGraph reads the source, executes the pipeline, and writes the artifact.
func runGraph(ctx context.Context, input string, opts *graphOpts) error {
	logger := loggerFromContext(ctx)

	source, err := readSource(input)
	if err != nil {
		return err
	}

	pipeOpts, err := buildPipelineOpts(source, opts)
	if err != nil {
		return err
	}

	runner, err := newRunner(ctx, opts.cacheDir, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	result, err := runner.Execute(ctx, pipeOpts)
	if err != nil {
		return err
	}

	switch {
	case result.CacheHit:
		logger.Debugf("Served %s from cache", opts.format)
	default:
		logger.Debugf("Built graph in %s, rendered %s in %s",
			result.BuildTime, opts.format, result.RenderTime)
	}
	if result.Graph != nil {
		prog.done(fmt.Sprintf("Rendered %d nodes, %d edges", len(result.Graph.Nodes), len(result.Graph.Edges)))
	}

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(result.Artifact); err != nil {
		return err
	}
	if opts.output != "" {
		logger.Infof("Generated %s", opts.output)
	}
	return nil
}

// buildPipelineOpts translates command flags into pipeline options.
func buildPipelineOpts(source string, opts *graphOpts) (pipeline.Options, error) {
	mode, err := astgraph.ParseMode(opts.mode)
	if err != nil {
		return pipeline.Options{}, err
	}
	parseMode, err := syntax.ParseModeString(opts.context)
	if err != nil {
		return pipeline.Options{}, err
	}

	pipeOpts := pipeline.Options{
		Source:   source,
		Mode:     mode,
		Context:  parseMode,
		Format:   opts.format,
		MaxDepth: opts.maxDepth,
		Fallback: !opts.strict,
		Refresh:  opts.refresh,
	}

	if opts.style != "" {
		st, err := render.LoadStyle(opts.style)
		if err != nil {
			return pipeline.Options{}, fmt.Errorf("load style: %w", err)
		}
		pipeOpts.Style = st
	}
	return pipeOpts, nil
}

// newRunner constructs a pipeline runner backed by a file cache, or an
// uncached one when noCache is set.
func newRunner(ctx context.Context, dir string, noCache bool) (*pipeline.Runner, error) {
	logger := loggerFromContext(ctx)

	if noCache {
		return pipeline.NewRunner(nil, nil, logger), nil
	}

	if dir == "" {
		var err error
		dir, err = defaultCacheDir()
		if err != nil {
			return nil, err
		}
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return pipeline.NewRunner(c, nil, logger), nil
}

// defaultCacheDir returns the per-user cache directory for astviz.
func defaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return filepath.Join(base, "astviz"), nil
}

// readSource reads the snippet from path, or from stdin when path is "-".
func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
