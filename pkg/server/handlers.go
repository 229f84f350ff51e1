package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/parsimony/pkg/errors"
	"github.com/matzehuels/parsimony/pkg/pipeline"
	"github.com/matzehuels/parsimony/pkg/render"
)

type runFunc func(context.Context, pipeline.Options) (*pipeline.Result, error)

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, s.Runner.Score)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, s.Runner.Search)
}

// run decodes options, executes fn and archives the result.
func (s *Server) run(w http.ResponseWriter, r *http.Request, fn runFunc) {
	var opts pipeline.Options
	body := http.MaxBytesReader(w, r.Body, s.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid request body: %v", err))
		return
	}

	res, err := fn(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.Store != nil && !res.Cached {
		if err := s.Store.Save(r.Context(), res); err != nil {
			s.Logger.Warn("archive failed", "id", res.ID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// resultSummary is one row of the results listing.
type resultSummary struct {
	ID        string        `json:"id"`
	Kind      pipeline.Kind `json:"kind"`
	CreatedAt time.Time     `json:"created_at"`
	Length    int           `json:"length"`
	Trees     int           `json:"trees"`
	Summary   string        `json:"summary"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	results, err := s.Store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]resultSummary, len(results))
	for i, res := range results {
		out[i] = resultSummary{
			ID:        res.ID,
			Kind:      res.Kind,
			CreatedAt: res.CreatedAt,
			Length:    res.Length,
			Trees:     len(res.Trees),
			Summary:   res.Summary(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "%v", err))
		return
	}
	index := 1
	if v := r.URL.Query().Get("tree"); v != "" {
		if index, err = strconv.Atoi(v); err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid tree number %q", v))
			return
		}
	}
	res, ok := s.lookup(w, r)
	if !ok {
		return
	}
	data, err := pipeline.RenderTree(res, index-1, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	if !s.requireStore(w, r) {
		return nil, false
	}
	res, err := s.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return res, true
}

func (s *Server) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if s.Store == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "result archive is disabled"))
		return false
	}
	return true
}
