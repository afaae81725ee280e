package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/huntgraph"
	"github.com/zero-day-ai/huntgraph/finding"
	"github.com/zero-day-ai/huntgraph/graph"
	"github.com/zero-day-ai/huntgraph/health"
	"github.com/zero-day-ai/huntgraph/pipeline"
	"github.com/zero-day-ai/huntgraph/queue"
	"github.com/zero-day-ai/huntgraph/telemetry"
)

// GraphRequest is the body of POST /api/graph and POST /api/graph/jobs.
type GraphRequest struct {
	Findings []finding.Finding `json:"findings"`
	Filter   *finding.Filter   `json:"filter,omitempty"`
}

// GraphResponse is the body returned by POST /api/graph.
type GraphResponse struct {
	GraphID string       `json:"graph_id"`
	Nodes   []graph.Node `json:"nodes"`
	Edges   []graph.Edge `json:"edges"`
	Stats   graph.Stats  `json:"stats"`
}

// JobResponse is the body returned by POST /api/graph/jobs.
type JobResponse struct {
	JobID   string `json:"job_id"`
	Channel string `json:"channel"`
}

// LegendResponse is the body returned by GET /api/graph/legend.
type LegendResponse struct {
	Kinds      []graph.LegendEntry         `json:"kinds"`
	Severities map[finding.Severity]string `json:"severities"`
}

// handleBuildGraph handles POST /api/graph
func (s *Server) handleBuildGraph(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r, pipeline.SourceHTTP)
	if !ok {
		return
	}

	out, err := s.builder.Build(r.Context(), pipeline.SourceHTTP, req.Findings, req.Filter)
	if err != nil {
		s.writeBuildError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, GraphResponse{
		GraphID: uuid.New().String(),
		Nodes:   out.Graph.Nodes,
		Edges:   out.Graph.Edges,
		Stats:   out.Stats,
	})
}

// handleSubmitJob handles POST /api/graph/jobs
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	if s.queue == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, huntgraph.ErrQueueUnavailable.Error())
		return
	}

	req, ok := s.decodeRequest(w, r, pipeline.SourceJob)
	if !ok {
		return
	}

	tracer := s.builder.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer(nil)
	}
	ctx, span := tracer.Start(r.Context(), "api.SubmitJob")
	defer span.End()

	job, err := queue.NewJob(req.Findings, req.Filter)
	if err != nil {
		s.builder.Metrics.IncrementInvalid(pipeline.SourceJob)
		s.writeBuildError(w, r, huntgraph.NewValidationError("api.SubmitJob", err))
		return
	}
	job.TraceID, job.SpanID = telemetry.SpanIDs(ctx)

	if err := s.queue.Push(ctx, s.queueName, *job); err != nil {
		loggerFrom(r.Context(), s.logger).Error("failed to enqueue job", "job_id", job.JobID, "error", err)
		writeErrorResponse(w, http.StatusServiceUnavailable, huntgraph.ErrQueueUnavailable.Error())
		return
	}

	loggerFrom(r.Context(), s.logger).Info("job enqueued", "job_id", job.JobID, "findings", len(job.Findings))

	writeJSONResponse(w, http.StatusAccepted, JobResponse{
		JobID:   job.JobID,
		Channel: queue.ResultChannel(job.JobID),
	})
}

// handleLegend handles GET /api/graph/legend
func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, LegendResponse{
		Kinds:      graph.Legend(),
		Severities: graph.SeverityColors(),
	})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), health.DefaultTimeout)
	defer cancel()

	report := health.Run(ctx, s.checks)

	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSONResponse(w, status, report)
}

// decodeRequest reads, schema-checks and decodes a GraphRequest. On failure
// it writes the error response and returns false.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, source string) (*GraphRequest, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeErrorResponse(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}

	if err := s.schema.validate(body); err != nil {
		s.builder.Metrics.IncrementInvalid(source)
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	var req GraphRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		s.builder.Metrics.IncrementInvalid(source)
		writeErrorResponse(w, http.StatusBadRequest, "invalid JSON request body")
		return nil, false
	}

	return &req, true
}

func (s *Server) writeBuildError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, huntgraph.ErrInvalidInput) {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	loggerFrom(r.Context(), s.logger).Error("graph build failed", "error", err)
	writeErrorResponse(w, http.StatusInternalServerError, "internal error")
}

// writeJSONResponse writes a JSON response
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes an error response
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]interface{}{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
