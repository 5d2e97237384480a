package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"tincgraph/internal/adapter"
	"tincgraph/internal/codec"
	"tincgraph/internal/domain"
	"tincgraph/internal/service"
)

const (
	defaultPollLimit = 50
	maxPollLimit     = 1000
)

// SnapshotSource is the read side of the snapshot service
type SnapshotSource interface {
	Graph(ctx context.Context) (*domain.Graph, error)
	Status() service.Status
	RecentPolls(ctx context.Context, limit int) ([]domain.PollRecord, error)
	Stats(ctx context.Context) (*domain.PollStats, error)
}

// PollTrigger allows triggering polls from the handler
type PollTrigger interface {
	TriggerSync(ctx context.Context, name string) error
	ListAdapters() []adapter.AdapterInfo
}

// GraphHandler handles graph API requests
type GraphHandler struct {
	snapshots SnapshotSource
	trigger   PollTrigger
	exporters map[string]codec.Exporter
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(snapshots SnapshotSource) *GraphHandler {
	return &GraphHandler{
		snapshots: snapshots,
		exporters: codec.Exporters(),
	}
}

// SetPollTrigger sets the poll trigger (adapter registry)
func (h *GraphHandler) SetPollTrigger(t PollTrigger) {
	h.trigger = t
}

// ErrorResponse is the body of every non-2xx JSON reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusResponse combines the last poll outcome with journal totals
type StatusResponse struct {
	Status  service.Status    `json:"status"`
	Journal *domain.PollStats `json:"journal,omitempty"`
}

// GetGraph returns the last published graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := h.snapshots.Graph(r.Context())
	if err != nil {
		log.Printf("Failed to get graph: %v", err)
		h.writeError(w, "Failed to get graph", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, graph, http.StatusOK)
}

// ExportJSON exports the graph as a downloadable JSON file
func (h *GraphHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "json", "nodes.json")
}

// ExportYAML exports the graph as YAML
func (h *GraphHandler) ExportYAML(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "yaml", "graph.yml")
}

func (h *GraphHandler) export(w http.ResponseWriter, r *http.Request, format, filename string) {
	exporter, ok := h.exporters[format]
	if !ok {
		h.writeError(w, "Unsupported format", format, http.StatusNotFound)
		return
	}

	graph, err := h.snapshots.Graph(r.Context())
	if err != nil {
		log.Printf("Failed to get graph: %v", err)
		h.writeError(w, "Failed to get graph", err.Error(), http.StatusInternalServerError)
		return
	}

	// Encode before writing headers so failures can still produce an error response
	var buf bytes.Buffer
	if err := exporter.Export(graph, &buf); err != nil {
		log.Printf("Failed to export %s: %v", format, err)
		h.writeError(w, "Failed to export graph", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write(buf.Bytes())
}

// GetStatus returns the outcome of the most recent poll
func (h *GraphHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Status: h.snapshots.Status()}

	stats, err := h.snapshots.Stats(r.Context())
	if err != nil {
		log.Printf("Failed to get journal stats: %v", err)
	} else {
		resp.Journal = stats
	}

	h.writeJSON(w, resp, http.StatusOK)
}

// ListPolls returns recent journaled polls, newest first
func (h *GraphHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	limit := defaultPollLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, "Invalid limit", "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxPollLimit)
	}

	polls, err := h.snapshots.RecentPolls(r.Context(), limit)
	if err != nil {
		log.Printf("Failed to list polls: %v", err)
		h.writeError(w, "Failed to list polls", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, polls, http.StatusOK)
}

// ListAdapters returns the registered topology sources
func (h *GraphHandler) ListAdapters(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		h.writeJSON(w, []adapter.AdapterInfo{}, http.StatusOK)
		return
	}
	h.writeJSON(w, h.trigger.ListAdapters(), http.StatusOK)
}

// TriggerPoll runs an immediate poll and returns its outcome.
// The adapter defaults to tinc and can be chosen with ?adapter=.
func (h *GraphHandler) TriggerPoll(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		h.writeError(w, "Polling not available", "no adapters configured", http.StatusServiceUnavailable)
		return
	}

	name := r.URL.Query().Get("adapter")
	if name == "" {
		name = adapter.TincAdapterName
	}

	if !h.hasAdapter(name) {
		h.writeError(w, "Not found", fmt.Sprintf("adapter %s not found", name), http.StatusNotFound)
		return
	}

	if err := h.trigger.TriggerSync(r.Context(), name); err != nil {
		log.Printf("Triggered poll of %s failed: %v", name, err)
		h.writeJSON(w, h.snapshots.Status(), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, h.snapshots.Status(), http.StatusOK)
}

func (h *GraphHandler) hasAdapter(name string) bool {
	for _, info := range h.trigger.ListAdapters() {
		if info.Name == name {
			return true
		}
	}
	return false
}

// Helper methods

func (h *GraphHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *GraphHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
