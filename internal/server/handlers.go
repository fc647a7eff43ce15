package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/astviz/astviz/pkg/astgraph"
	"github.com/astviz/astviz/pkg/bytecode"
	apperrors "github.com/astviz/astviz/pkg/errors"
	"github.com/astviz/astviz/pkg/pipeline"
	"github.com/astviz/astviz/pkg/syntax"
)

type ctxKey int

const requestIDKey ctxKey = 0

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// renderRequest is the body of POST /api/render.
type renderRequest struct {
	Source  string `json:"source"`
	Mode    string `json:"mode,omitempty"`    // "raw" (default) or "optimized"
	Context string `json:"context,omitempty"` // "module" (default) or "expression"
	Format  string `json:"format,omitempty"`  // "json" (default), "dot", "svg", "png"
	Refresh bool   `json:"refresh,omitempty"`
}

// errorResponse is the body of any non-2xx response.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// bytecodeResponse is the body of POST /api/bytecode. Alignment entries are
// graph node ids, null for instructions without line information.
type bytecodeResponse struct {
	Graph        *astgraph.Graph        `json:"graph"`
	Instructions []bytecode.Instruction `json:"instructions"`
	Alignment    []*int                 `json:"alignment"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType(opts.Format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifact)
}

func (s *Server) handleBytecode(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.decodeOptions(w, r)
	if !ok {
		return
	}

	result, err := s.runner.Bytecode(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	alignment := make([]*int, len(result.Alignment))
	for i, id := range result.Alignment {
		if id != bytecode.NoNode {
			v := id
			alignment[i] = &v
		}
	}

	s.writeJSON(w, http.StatusOK, bytecodeResponse{
		Graph:        result.Graph,
		Instructions: result.Instructions,
		Alignment:    alignment,
	})
}

// decodeOptions parses and validates the request body into pipeline
// options. On failure it writes the error response and returns ok=false.
func (s *Server) decodeOptions(w http.ResponseWriter, r *http.Request) (pipeline.Options, bool) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid request body"))
		return pipeline.Options{}, false
	}

	opts := pipeline.Options{
		Source:         req.Source,
		Format:         req.Format,
		Refresh:        req.Refresh,
		Fallback:       true,
		MaxSourceBytes: s.maxSourceBytes,
		MaxDepth:       s.maxDepth,
	}

	if req.Mode != "" {
		mode, err := astgraph.ParseMode(req.Mode)
		if err != nil {
			s.writeError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidMode, err, "%s", err.Error()))
			return pipeline.Options{}, false
		}
		opts.Mode = mode
	}
	if req.Context != "" {
		parseMode, err := syntax.ParseModeString(req.Context)
		if err != nil {
			s.writeError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidMode, err, "%s", err.Error()))
			return pipeline.Options{}, false
		}
		opts.Context = parseMode
	}

	return opts, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", requestIDFrom(r.Context()), "error", err)
	} else {
		s.logger.Debug("request rejected", "id", requestIDFrom(r.Context()), "error", err)
	}
	s.writeJSON(w, status, errorResponse{
		Code:    string(code),
		Message: apperrors.UserMessage(err),
	})
}

// statusFor maps application error codes to HTTP status codes.
func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidMode, apperrors.ErrCodeInvalidFormat, apperrors.ErrCodeInvalidStyle:
		return http.StatusBadRequest
	case apperrors.ErrCodeSourceTooBig:
		return http.StatusRequestEntityTooLarge
	case apperrors.ErrCodeParse, apperrors.ErrCodeRecursionLimit, apperrors.ErrCodeUnsupportedKind:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatJSON:
		return "application/json"
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	default:
		return "text/plain; charset=utf-8"
	}
}
