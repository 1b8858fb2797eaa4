package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/chartgen/application"
	"github.com/felixgeelhaar/chartgen/domain/chart"
	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/validation"
	"github.com/felixgeelhaar/chartgen/infrastructure/export"
	"github.com/felixgeelhaar/chartgen/infrastructure/render"
)

// maxBody bounds request bodies.
const maxBody = 1 << 20

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type dataResponse struct {
	Session string                 `json:"session"`
	Summary dataset.Summary        `json:"summary"`
	Data    *dataset.GeneratedData `json:"data,omitempty"`
}

type chartResponse struct {
	ID        string          `json:"id"`
	Type      chart.Type      `json:"type"`
	Title     string          `json:"title"`
	Points    int             `json:"points"`
	CreatedAt time.Time       `json:"created_at"`
	Options   json.RawMessage `json:"options"`
}

type chartTypeInfo struct {
	Type     chart.Type `json:"type"`
	Inputs   []string   `json:"inputs"`
	Optional []string   `json:"optional,omitempty"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", fmt.Sprintf("invalid request body: %v", err), "")
		return false
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must hold a single JSON object", "")
		return false
	}
	return true
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	id := s.sessionOf(w, r)
	writeJSON(w, http.StatusOK, map[string]any{
		"healthy": s.workbench.Health(r.Context()),
		"state":   s.workbench.State(id),
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := s.sessionOf(w, r)

	var req dataset.GenerationRequest
	if !decode(w, r, &req) {
		return
	}
	data, err := s.workbench.Generate(r.Context(), id, req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Session: id, Summary: data.Summary()})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	id := s.sessionOf(w, r)

	data, err := s.workbench.Data(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	resp := dataResponse{Session: id, Summary: data.Summary()}
	if raw, _ := strconv.ParseBool(r.URL.Query().Get("raw")); raw {
		resp.Data = data
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChartTypes(w http.ResponseWriter, _ *http.Request) {
	types := chart.Types()
	out := make([]chartTypeInfo, 0, len(types))
	for _, t := range types {
		spec, _ := chart.Lookup(t)
		info := chartTypeInfo{Type: t}
		for _, b := range spec.Bindings {
			if b.Optional {
				info.Optional = append(info.Optional, string(b.Input))
				continue
			}
			info.Inputs = append(info.Inputs, string(b.Input))
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateChart(w http.ResponseWriter, r *http.Request) {
	id := s.sessionOf(w, r)

	var form validation.Form
	if !decode(w, r, &form) {
		return
	}
	h, err := s.workbench.CreateChart(r.Context(), id, form)
	if err != nil {
		writeFailure(w, err)
		return
	}
	options, err := render.Options(h.Config)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chartResponse{
		ID:        h.ID,
		Type:      h.Config.Type,
		Title:     h.Config.Title,
		Points:    h.Config.PointCount(),
		CreatedAt: h.CreatedAt,
		Options:   options,
	})
}

func (s *Server) handleCurrentChart(w http.ResponseWriter, r *http.Request) {
	id := s.sessionOf(w, r)

	h, err := s.workbench.Current(id)
	if err != nil {
		writeFailure(w, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "html":
		var buf bytes.Buffer
		if err := render.HTML(&buf, h.Config, render.WithPageTitle(h.Config.Title)); err != nil {
			writeFailure(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = buf.WriteTo(w)
	case "json":
		options, err := render.Options(h.Config)
		if err != nil {
			writeFailure(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(options)
	case "config":
		writeJSON(w, http.StatusOK, h.Config)
	default:
		writeError(w, http.StatusBadRequest, "invalid_format", fmt.Sprintf("unknown format %q", format), "format")
	}
}

func (s *Server) handleReleaseChart(w http.ResponseWriter, r *http.Request) {
	id := s.sessionOf(w, r)
	if !s.workbench.Release(id) {
		writeFailure(w, application.ErrNoChart)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := s.sessionOf(w, r)

	var form validation.Form
	if !decode(w, r, &form) {
		return
	}
	p, err := s.workbench.Prepare(r.Context(), id, form)
	if err != nil {
		writeFailure(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Workbook(&buf, p.Records, p.Descriptor, export.WithSummary(p.Summary)); err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="chartgen.xlsx"`)
	_, _ = buf.WriteTo(w)
}
