package api

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowplan/pkg/buildinfo"
	"github.com/matzehuels/flowplan/pkg/errors"
	"github.com/matzehuels/flowplan/pkg/graph"
	"github.com/matzehuels/flowplan/pkg/httputil"
	flowio "github.com/matzehuels/flowplan/pkg/io"
	"github.com/matzehuels/flowplan/pkg/pipeline"
	"github.com/matzehuels/flowplan/pkg/solver/ratio"
	"github.com/matzehuels/flowplan/pkg/trace"
	"github.com/matzehuels/flowplan/pkg/worker"
)

// DefaultTraceLimit is the page size of /v1/traces.
const DefaultTraceLimit = 20

var contentTypes = map[string]string{
	pipeline.FormatDOT: "text/vnd.graphviz",
	pipeline.FormatSVG: "image/svg+xml",
	pipeline.FormatPNG: "image/png",
	pipeline.FormatPDF: "application/pdf",
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) error {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: buildinfo.Get().Version})
	return nil
}

func decodeSolve(r *http.Request) (SolveRequest, error) {
	var req SolveRequest
	if err := httputil.DecodeJSON(r, &req, httputil.MaxBodyBytes); err != nil {
		return req, err
	}
	return req, req.Snapshot.Validate()
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeSolve(r)
	if err != nil {
		return err
	}
	if s.ttl > 0 {
		req.Options.TTL = s.ttl
	}
	req.Options.Logger = nil

	start := time.Now()
	res, err := s.runner.Solve(r.Context(), req.Snapshot, req.Options)
	if err != nil {
		return err
	}
	httputil.WriteJSON(w, http.StatusOK, SolveResponse{
		SnapshotHash: res.SnapshotHash,
		Report:       res.Report,
		CacheHit:     res.Stats.CacheHit,
		DurationMS:   millis(time.Since(start)),
	})
	return nil
}

func (s *Server) handleFlows(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeSolve(r)
	if err != nil {
		return err
	}
	start := time.Now()
	report, hit, err := s.runner.Flows(r.Context(), req.Snapshot)
	if err != nil {
		return err
	}
	httputil.WriteJSON(w, http.StatusOK, SolveResponse{
		Report:     report,
		CacheHit:   hit,
		DurationMS: millis(time.Since(start)),
	})
	return nil
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeSolve(r)
	if err != nil {
		return err
	}
	out, err := s.worker.Submit(worker.Request{Snapshot: req.Snapshot})
	if err != nil {
		return err
	}

	var resp DiagnoseResponse
	for msg := range out {
		resp.RequestID = msg.RequestID
		report := flowio.NewReport(msg.Result)
		switch msg.Mode {
		case worker.ModeStrict:
			resp.Strict = report
		case worker.ModePermissive:
			resp.Permissive = &report
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handlePropagate(w http.ResponseWriter, r *http.Request) error {
	var req PropagateRequest
	if err := httputil.DecodeJSON(r, &req, httputil.MaxBodyBytes); err != nil {
		return err
	}
	if err := req.Snapshot.Validate(); err != nil {
		return err
	}

	edit := ratio.Edit{NodeID: req.NodeID, OldCount: req.OldCount, NewCount: req.NewCount}
	if req.Handle != nil {
		side, err := graph.ParseSide(req.Handle.Side)
		if err != nil {
			return err
		}
		edit.Handle = &ratio.Handle{Side: side, Index: req.Handle.Index}
	}

	counts, t, err := s.runner.Propagate(r.Context(), req.Snapshot, edit)
	if err != nil {
		return err
	}
	httputil.WriteJSON(w, http.StatusOK, PropagateResponse{Counts: counts, TraceID: t.ID})
	return nil
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeSolve(r)
	if err != nil {
		return err
	}
	res, t, err := s.runner.Balance(r.Context(), req.Snapshot, req.Options)
	if err != nil {
		return err
	}

	resp := BalanceResponse{
		Counts:    res.Counts,
		Passes:    res.Passes,
		Balanced:  res.Balanced,
		Remaining: flowio.DeficiencyStatus(res.Remaining),
		Trace:     t,
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) error {
	req, err := decodeSolve(r)
	if err != nil {
		return err
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return errors.Wrap(errors.ErrCodeUnsupported, err, "render")
	}
	req.Options.Formats = []string{format}

	artifacts, _, err := s.runner.Render(r.Context(), req.Snapshot, req.Options)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(artifacts[format])
	return err
}

func (s *Server) handleRecentTraces(w http.ResponseWriter, r *http.Request) error {
	if s.runner.Traces == nil {
		return errors.New(errors.ErrCodeUnsupported, "trace archive is not configured")
	}
	limit := DefaultTraceLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer, got %q", v)
		}
		limit = n
	}
	traces, err := s.runner.Traces.Recent(r.Context(), limit)
	if err != nil {
		return err
	}
	if traces == nil {
		traces = []*trace.Trace{}
	}
	httputil.WriteJSON(w, http.StatusOK, traces)
	return nil
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) error {
	if s.runner.Traces == nil {
		return errors.New(errors.ErrCodeUnsupported, "trace archive is not configured")
	}
	id := chi.URLParam(r, "id")
	t, err := s.runner.Traces.Load(r.Context(), id)
	if stderrors.Is(err, trace.ErrNotFound) {
		return errors.Wrap(errors.ErrCodeNotFound, err, "trace %s", id)
	}
	if err != nil {
		return err
	}
	httputil.WriteJSON(w, http.StatusOK, t)
	return nil
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
