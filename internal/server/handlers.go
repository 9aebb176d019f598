package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nestflow/nestflow/pkg/errors"
	"github.com/nestflow/nestflow/pkg/graph"
	"github.com/nestflow/nestflow/pkg/layout"
	"github.com/nestflow/nestflow/pkg/pipeline"
	"github.com/nestflow/nestflow/pkg/render"
	"github.com/nestflow/nestflow/pkg/store"
)

// layoutRequest is the body of POST /v1/layout and PUT /v1/layouts/{name}.
type layoutRequest struct {
	Nodes   []graph.Node     `json:"nodes"`
	Edges   []graph.Edge     `json:"edges,omitempty"`
	Options pipeline.Options `json:"options,omitempty"`
}

// layoutResponse is the body returned by layout computation endpoints.
// Artifacts are base64-encoded by JSON marshaling of []byte.
type layoutResponse struct {
	GraphHash string            `json:"graph_hash"`
	Layout    *layout.Result    `json:"layout"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	resp, err := s.computeFromBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "layout store not configured"))
		return
	}
	name := chi.URLParam(r, "name")

	resp, err := s.computeFromBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	err = s.opts.Store.Save(r.Context(), store.StoredLayout{
		Name:      name,
		GraphHash: resp.GraphHash,
		Layout:    resp.Layout,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "layout store not configured"))
		return
	}
	doc, err := s.opts.Store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "layout store not configured"))
		return
	}
	docs, err := s.opts.Store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		writeError(w, errors.New(errors.ErrCodeUnsupported, "layout store not configured"))
		return
	}
	if err := s.opts.Store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// computeFromBody decodes a layout request and runs the pipeline.
func (s *Server) computeFromBody(r *http.Request) (*layoutResponse, error) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	g, err := graph.FromDocument(graph.Document{Nodes: req.Nodes, Edges: req.Edges})
	if err != nil {
		return nil, err
	}

	// API callers usually only want transforms; render formats are
	// opt-in per request.
	if len(req.Options.Formats) == 0 {
		req.Options.Formats = []string{render.FormatJSON}
	}
	req.Options.Logger = s.opts.Logger

	result, err := s.opts.Runner.Execute(r.Context(), g, req.Options)
	if err != nil {
		return nil, err
	}

	resp := &layoutResponse{
		GraphHash: result.GraphHash,
		Layout:    result.Layout,
		Artifacts: result.Artifacts,
	}
	// The layout itself is already in the response; drop the duplicate
	// JSON artifact.
	delete(resp.Artifacts, render.FormatJSON)
	return resp, nil
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps engine error codes to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidNode, errors.ErrCodeInvalidEdge,
		errors.ErrCodeInvalidFlow, errors.ErrCodeInvalidPort,
		errors.ErrCodeCycle, errors.ErrCodeDanglingReference:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeLayoutNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeUnsupported:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}
