// Package analysis exposes the pipeline over HTTP: upload-and-analyze,
// insight persistence and retrieval of recently stored insights.
package analysis

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"attention_guiding/pkg/core/dataset"
	"attention_guiding/pkg/core/extract"
	"attention_guiding/pkg/core/pipeline"
	"attention_guiding/pkg/core/store"
	"attention_guiding/pkg/models"
)

const maxUploadBytes = 32 << 20

// Handler serves the analysis endpoints.
type Handler struct {
	orch    *pipeline.Orchestrator
	insight store.InsightStore
}

func NewHandler(orch *pipeline.Orchestrator, insightStore store.InsightStore) *Handler {
	if insightStore == nil {
		insightStore = store.NoopStore{}
	}
	return &Handler{orch: orch, insight: insightStore}
}

// RegisterRoutes mounts all analysis endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/analysis", h.HandleAnalyze)
	r.Post("/api/insights/save", h.HandleSaveInsights)
	r.Get("/api/insights/recent", h.HandleRecentInsights)
}

type analyzeResponse struct {
	Result             *models.AnalysisResult `json:"result"`
	OverallSummaryHTML string                 `json:"overall_summary_html,omitempty"`
}

// HandleAnalyze accepts a multipart upload (file plus optional context,
// follow_up_question and previous result) and runs the pipeline. The
// response is always a structured result document; pipeline failures
// arrive as its error field, not as HTTP errors.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid multipart form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file upload", http.StatusBadRequest)
		return
	}
	defer file.Close()

	d, err := parseUpload(file, header.Filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := pipeline.Request{
		Dataset:           d,
		Filename:          header.Filename,
		AdditionalContext: r.FormValue("context"),
		FollowUpQuestion:  r.FormValue("follow_up_question"),
	}

	if prev := r.FormValue("previous"); prev != "" {
		var prevResult models.AnalysisResult
		if err := json.Unmarshal([]byte(prev), &prevResult); err != nil {
			http.Error(w, fmt.Sprintf("invalid previous result: %v", err), http.StatusBadRequest)
			return
		}
		req.PreviousResult = &prevResult
	}

	if err := h.orch.PersistRawSummary(r.Context(), d, header.Filename); err != nil {
		fmt.Printf("[API] failed to persist raw data summary for %q: %v\n", header.Filename, err)
	}

	result := h.orch.Analyze(r.Context(), req)

	resp := analyzeResponse{Result: result}
	if !result.IsError() && result.OverallSummary != "" {
		if html, err := extract.RenderHTML(result.OverallSummary); err == nil {
			resp.OverallSummaryHTML = html
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseUpload reads the uploaded file into a dataset based on its
// extension. Plain text carries no table and is rejected here; it
// belongs in the context form field.
func parseUpload(file io.Reader, filename string) (*dataset.Dataset, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		d, err := dataset.ParseCSV(file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV upload: %w", err)
		}
		return d, nil
	case ".html", ".htm":
		d, err := dataset.ParseHTMLTable(file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML upload: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q: upload a .csv or .html table", filepath.Ext(filename))
	}
}

type saveInsightsRequest struct {
	Result   *models.AnalysisResult `json:"result"`
	Filename string                 `json:"filename"`
}

type saveInsightsResponse struct {
	Saved  int `json:"saved"`
	Failed int `json:"failed"`
}

// HandleSaveInsights persists the insights of a result. Per-record
// failures do not fail the request; the caller gets both counts.
func (h *Handler) HandleSaveInsights(w http.ResponseWriter, r *http.Request) {
	var req saveInsightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Result == nil {
		http.Error(w, "missing result", http.StatusBadRequest)
		return
	}

	saved, failed := h.orch.PersistInsights(r.Context(), req.Result, req.Filename)
	writeJSON(w, http.StatusOK, saveInsightsResponse{Saved: saved, Failed: failed})
}

// HandleRecentInsights returns the most recently stored insights.
func (h *Handler) HandleRecentInsights(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	docs, err := h.insight.FindRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []models.StoredInsight{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
