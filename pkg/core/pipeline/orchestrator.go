// Package pipeline runs one analysis request end to end: KPI
// enrichment, aggregation, anomaly extraction, prompt assembly, the
// two-stage GENERATE/REVIEW model calls and response extraction.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"attention_guiding/pkg/core/calc"
	"attention_guiding/pkg/core/dataset"
	"attention_guiding/pkg/core/extract"
	"attention_guiding/pkg/core/kpi"
	"attention_guiding/pkg/core/llm"
	"attention_guiding/pkg/core/prompt"
	"attention_guiding/pkg/core/store"
	"attention_guiding/pkg/models"
)

// Config carries the tunables of one orchestrator. Zero values are
// replaced with the documented defaults.
type Config struct {
	Model        string
	Temperature  float64
	Seed         int
	MaxTokens    int
	AnomalyTopN  int
	HistoryLimit int
}

// DefaultConfig returns the production defaults: deterministic sampling
// with the model taken from OPENAI_MODEL (gpt-4o when unset).
func DefaultConfig() Config {
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o"
	}
	return Config{
		Model:        model,
		Temperature:  0.0,
		Seed:         123,
		MaxTokens:    3000,
		AnomalyTopN:  calc.DefaultAnomalyTopN,
		HistoryLimit: 5,
	}
}

// Request is one analysis invocation. The dataset is owned by the
// request; the pipeline only produces enriched copies.
type Request struct {
	Dataset           *dataset.Dataset
	Filename          string
	AdditionalContext string

	// FollowUpQuestion plus PreviousResult switch the request into
	// follow-up mode; either one alone keeps it an initial analysis.
	FollowUpQuestion string
	PreviousResult   *models.AnalysisResult
}

// Orchestrator wires the pipeline collaborators together. One instance
// serves sequential requests; it holds no per-request state.
type Orchestrator struct {
	provider  llm.Provider
	store     store.InsightStore
	extractor *extract.Extractor
	config    Config
}

// NewOrchestrator creates an orchestrator. A nil insight store is
// replaced by the no-op store so the pipeline never branches on nil.
func NewOrchestrator(provider llm.Provider, insightStore store.InsightStore, config Config) *Orchestrator {
	if insightStore == nil {
		insightStore = store.NoopStore{}
	}
	defaults := DefaultConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaults.MaxTokens
	}
	if config.Seed == 0 {
		config.Seed = defaults.Seed
	}
	if config.AnomalyTopN == 0 {
		config.AnomalyTopN = defaults.AnomalyTopN
	}
	if config.HistoryLimit == 0 {
		config.HistoryLimit = defaults.HistoryLimit
	}
	return &Orchestrator{
		provider:  provider,
		store:     insightStore,
		extractor: extract.NewExtractor(),
		config:    config,
	}
}

// Analyze runs the full pipeline strictly sequentially and returns a
// structured result. All failures come back as result values carrying an
// error field; nothing is retried and nothing propagates as a fault.
func (o *Orchestrator) Analyze(ctx context.Context, req Request) *models.AnalysisResult {
	if o.provider == nil {
		return models.ErrorResult("The language model client is not configured. Please check the API key.", "")
	}
	if req.Dataset == nil || req.Dataset.NumRows() == 0 {
		return models.ErrorResult("No dataset supplied for analysis.", "")
	}

	requestID := uuid.NewString()
	fmt.Printf("[PIPELINE] %s: analyzing %q (%d rows, %d columns)\n",
		requestID, req.Filename, req.Dataset.NumRows(), req.Dataset.NumCols())

	enriched := kpi.Enrich(req.Dataset)
	summary := dataset.Summarize(enriched)
	aggregations := calc.Aggregate(enriched)
	anomalies := calc.ExtractAnomalies(enriched, o.config.AnomalyTopN)

	historicalContext := o.fetchHistoricalContext(ctx, requestID, summary)

	followUp := req.FollowUpQuestion != "" && req.PreviousResult != nil
	previousSummary := ""
	answeredQuestion := ""
	if followUp {
		previousSummary = prompt.CondensePreviousAnalysis(req.PreviousResult)
		answeredQuestion = req.FollowUpQuestion
	}

	in := prompt.ContextInput{
		Summary:           summary,
		Aggregations:      aggregations,
		Anomalies:         anomalies,
		PreviousSummary:   previousSummary,
		FollowUpQuestion:  answeredQuestion,
		UserContext:       req.AdditionalContext,
		HistoricalContext: historicalContext,
	}

	opts := llm.Options{
		Model:       o.config.Model,
		Temperature: o.config.Temperature,
		Seed:        o.config.Seed,
		MaxTokens:   o.config.MaxTokens,
	}

	// GENERATE: one attempt, failure is fatal to the request.
	genReq := prompt.BuildGenerateRequest(in)
	firstPass, err := o.provider.GenerateResponse(ctx, genReq.System, genReq.User, opts)
	if err != nil {
		fmt.Printf("[PIPELINE] %s: generate call failed: %v\n", requestID, err)
		return models.ErrorResult(fmt.Sprintf("Language model request failed: %v", err), "")
	}

	// REVIEW: one attempt, failure falls back to the pre-review output.
	reviewReq := prompt.BuildReviewRequest(in, firstPass)
	finalText, err := o.provider.GenerateResponse(ctx, reviewReq.System, reviewReq.User, opts)
	if err != nil {
		fmt.Printf("[PIPELINE] %s: review call failed, using pre-review result: %v\n", requestID, err)
		finalText = firstPass
	}

	return o.extractor.Parse(finalText, answeredQuestion)
}

// fetchHistoricalContext retrieves recent stored insights when a store
// is configured and the summary has usable numeric content. Any failure
// silently degrades to empty context.
func (o *Orchestrator) fetchHistoricalContext(ctx context.Context, requestID string, summary dataset.Summary) string {
	if !o.store.Available() {
		return ""
	}
	query := prompt.HistoricalQuery(summary)
	if query == "" {
		return ""
	}
	docs, err := o.store.FindRecent(ctx, o.config.HistoryLimit)
	if err != nil {
		fmt.Printf("[PIPELINE] %s: historical insight retrieval failed: %v\n", requestID, err)
		return ""
	}
	return prompt.RenderHistoricalInsights(docs)
}

// PersistInsights copies each insight of a successful result into the
// store, stamped with timestamp, source filename and follow-up lineage.
// Failures are per document; the caller gets both counts.
func (o *Orchestrator) PersistInsights(ctx context.Context, result *models.AnalysisResult, filename string) (saved int, failed int) {
	if result == nil || result.IsError() {
		return 0, 0
	}
	now := time.Now()
	for _, insight := range result.Insights {
		doc := models.NewStoredInsight(insight, result, filename, now)
		if doc.InsightID == "" {
			doc.InsightID = uuid.NewString()
		}
		if _, err := o.store.SaveInsight(ctx, doc); err != nil {
			fmt.Printf("[PIPELINE] failed to persist insight %q: %v\n", doc.InsightID, err)
			failed++
			continue
		}
		saved++
	}
	return saved, failed
}

// PersistRawSummary stores a summary of the uploaded dataset. Failure is
// non-fatal and only reported to the caller.
func (o *Orchestrator) PersistRawSummary(ctx context.Context, d *dataset.Dataset, filename string) error {
	if !o.store.Available() {
		return nil
	}
	_, err := o.store.SaveRawSummary(ctx, filename, dataset.Summarize(d))
	return err
}
