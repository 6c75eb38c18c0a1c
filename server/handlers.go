package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"fern/build"
	"fern/config"
	"fern/generate"
	"fern/host"
	"fern/report"
	"fern/toys"
	"fern/wasm"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/gosimple/slug"
	"github.com/spf13/cast"
)

// compileRequest is the body of /compile and /run.
type compileRequest struct {
	Source string `json:"source"`
	File   string `json:"file"`

	// Inline and InlineThreshold override the configured build options.
	Inline          *bool `json:"inline"`
	InlineThreshold int   `json:"inline_threshold"`

	// Emit selects the extra outputs of /compile: "dis", "llvm" or "all".
	// The module bytes are always returned.
	Emit string `json:"emit"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Line    int    `json:"line,omitempty"`
	Col     int    `json:"col,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	OK    bool       `json:"ok"`
	Error *errorBody `json:"error"`
}

type functionInfo struct {
	Name     string `json:"name"`
	Index    uint32 `json:"index"`
	Type     string `json:"type"`
	Exported bool   `json:"exported"`
	Locals   int    `json:"locals"`
}

type compileResponse struct {
	OK          bool           `json:"ok"`
	Artifact    string         `json:"artifact"`
	Wasm        []byte         `json:"wasm"`
	Size        int            `json:"size"`
	Functions   []functionInfo `json:"functions"`
	Disassembly string         `json:"disassembly,omitempty"`
	LLVM        string         `json:"llvm,omitempty"`
}

type runResponse struct {
	OK      bool      `json:"ok"`
	Output  []float64 `json:"output"`
	Text    string    `json:"text"`
	Results []float64 `json:"results,omitempty"`
}

// -----------------------------------------------------------------------------

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	res, ok := s.compile(w, r, req)
	if !ok {
		return
	}

	resp := compileResponse{
		OK:       true,
		Artifact: artifactName(req.File),
		Wasm:     res.Bytes,
		Size:     len(res.Bytes),
	}

	for _, fn := range res.Functions {
		resp.Functions = append(resp.Functions, functionInfo{
			Name:     fn.Name,
			Index:    fn.Index,
			Type:     fn.Type.String(),
			Exported: fn.Exported,
			Locals:   len(fn.Locals),
		})
	}

	if req.Emit == config.EmitDis || req.Emit == "all" {
		resp.Disassembly = wasm.Disassemble(res.Program.Module())
	}

	if req.Emit == config.EmitLLVM || req.Emit == "all" {
		mod, err := generate.Generate(res.Program)
		if err != nil {
			writeCompileError(w, err)
			return
		}

		resp.LLVM = mod.String()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	res, ok := s.compile(w, r, req)
	if !ok {
		return
	}

	s.run(r.Context(), w, res.Bytes, "")
}

func (s *Server) handleToy(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	var (
		prog  *wasm.Program
		err   error
		entry string
	)
	switch toy := chi.URLParam(r, "toy"); toy {
	case "brainfuck":
		prog, err = toys.Brainfuck(req.Source)
	case "calc":
		prog, err = toys.Calc(req.Source)
		entry = "main"
	default:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: &errorBody{
			Kind:    "request",
			Message: fmt.Sprintf("unknown toy `%s`", toy),
		}})
		return
	}

	if err != nil {
		writeCompileError(w, err)
		return
	}

	b, err := prog.Encode()
	if err != nil {
		writeCompileError(w, err)
		return
	}

	s.run(r.Context(), w, b, entry)
}

// -----------------------------------------------------------------------------

// decodeRequest decodes the request body.  Query parameters `inline` and
// `threshold` override the body.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*compileRequest, bool) {
	req := &compileRequest{}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(req); err != nil {
		writeRequestError(w, "invalid request body: "+err.Error())
		return nil, false
	}

	query := r.URL.Query()
	if v := query.Get("inline"); v != "" {
		inline, err := cast.ToBoolE(v)
		if err != nil {
			writeRequestError(w, fmt.Sprintf("invalid value for `inline`: %s", v))
			return nil, false
		}
		req.Inline = &inline
	}

	if v := query.Get("threshold"); v != "" {
		threshold, err := cast.ToIntE(v)
		if err != nil || threshold < 1 {
			writeRequestError(w, fmt.Sprintf("invalid value for `threshold`: %s", v))
			return nil, false
		}
		req.InlineThreshold = threshold
	}

	if req.File == "" {
		req.File = "playground.fern"
	}

	return req, true
}

// compile compiles the source of a request and records the metrics.  On
// failure the error response has been written.
func (s *Server) compile(w http.ResponseWriter, r *http.Request, req *compileRequest) (*build.Result, bool) {
	opts := build.Options{
		Inline:          s.cfg.Build.Inline,
		InlineThreshold: s.cfg.Build.InlineThreshold,
	}

	if req.Inline != nil {
		opts.Inline = *req.Inline
	}

	if req.InlineThreshold > 0 {
		opts.InlineThreshold = req.InlineThreshold
	}

	start := time.Now()
	res, err := build.Compile(req.Source, req.File, 1, opts)
	s.metrics.compileDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		result := "internal"
		if cerr, ok := report.AsError(err); ok {
			result = cerr.Kind.String()
		}

		s.metrics.compilations.WithLabelValues(result).Inc()
		writeCompileError(w, err)
		return nil, false
	}

	s.metrics.compilations.WithLabelValues("ok").Inc()
	s.metrics.moduleBytes.Observe(float64(len(res.Bytes)))
	return res, true
}

// run executes a module and writes the run response.
func (s *Server) run(ctx context.Context, w http.ResponseWriter, module []byte, entry string) {
	out, err := host.Run(ctx, module, host.Config{Entry: entry, Timeout: s.cfg.Serve.RunTimeout})
	if err != nil {
		s.metrics.runs.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: &errorBody{
			Kind:    "runtime",
			Message: err.Error(),
		}})
		return
	}

	s.metrics.runs.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, runResponse{
		OK:      true,
		Output:  out.Values,
		Text:    out.Text,
		Results: out.Results,
	})
}

// -----------------------------------------------------------------------------

// artifactName derives a download name for the module compiled from a file.
func artifactName(file string) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	name := slug.Make(base)
	if name == "" {
		name = "program"
	}

	return name + ".wasm"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeRequestError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: &errorBody{Kind: "request", Message: msg}})
}

// writeCompileError writes a compilation error.  Compile errors carry their
// kind and position.
func writeCompileError(w http.ResponseWriter, err error) {
	body := &errorBody{Kind: "internal", Message: err.Error()}
	if cerr, ok := report.AsError(err); ok {
		body.Kind = cerr.Kind.String()
		body.Message = cerr.Message
		if cerr.HasPos {
			body.Line = cerr.Pos.Line
			body.Col = cerr.Pos.Col
		}
	}

	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: body})
}
