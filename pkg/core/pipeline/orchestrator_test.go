package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"attention_guiding/pkg/core/dataset"
	"attention_guiding/pkg/core/kpi"
	"attention_guiding/pkg/core/llm"
	"attention_guiding/pkg/models"
)

type scriptedCall struct {
	response string
	err      error
}

// scriptedProvider replays a fixed sequence of model responses and
// records every request it receives.
type scriptedProvider struct {
	calls       []scriptedCall
	systemSeen  []string
	userSeen    []string
	optionsSeen []llm.Options
}

func (p *scriptedProvider) GenerateResponse(ctx context.Context, systemPrompt, userPrompt string, opts llm.Options) (string, error) {
	p.systemSeen = append(p.systemSeen, systemPrompt)
	p.userSeen = append(p.userSeen, userPrompt)
	p.optionsSeen = append(p.optionsSeen, opts)
	if len(p.calls) == 0 {
		return "", errors.New("no scripted call left")
	}
	call := p.calls[0]
	p.calls = p.calls[1:]
	return call.response, call.err
}

func (p *scriptedProvider) Name() string { return "scripted" }

// countingStore records store interactions without persisting anything.
type countingStore struct {
	available       bool
	findRecentCalls int
	savedDocs       []models.StoredInsight
	saveErr         error
	recentDocs      []models.StoredInsight
}

func (s *countingStore) Available() bool { return s.available }

func (s *countingStore) SaveInsight(ctx context.Context, doc models.StoredInsight) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.savedDocs = append(s.savedDocs, doc)
	return doc.InsightID, nil
}

func (s *countingStore) FindRecent(ctx context.Context, limit int) ([]models.StoredInsight, error) {
	s.findRecentCalls++
	return s.recentDocs, nil
}

func (s *countingStore) SaveRawSummary(ctx context.Context, filename string, summary dataset.Summary) (string, error) {
	return "raw-id", nil
}

func pipelineDataset() *dataset.Dataset {
	d := dataset.New([]string{
		kpi.ColDate, kpi.ColCountry, kpi.ColPaymentMethod,
		kpi.ColOrderCount, kpi.ColGrossSales, kpi.ColReturns, kpi.ColChargebacks,
		kpi.ColWriteOffs, kpi.ColDunningLevel1, kpi.ColDunningLevel2,
	})
	d.Rows = [][]dataset.Value{
		{
			dataset.Text("2024-03-01"), dataset.Text("DE"), dataset.Text("Invoice"),
			dataset.Number(10), dataset.Number(1000), dataset.Number(100), dataset.Number(10),
			dataset.Number(0), dataset.Number(20), dataset.Number(5),
		},
	}
	return d
}

const validResponse = "```json\n{\"overall_summary\": \"Sales are stable.\", \"insights\": [{\"insight_id\": \"INS_1\", \"title\": \"t1\"}, {\"insight_id\": \"INS_2\", \"title\": \"t2\"}]}\n```"

func TestAnalyzeHappyPath(t *testing.T) {
	provider := &scriptedProvider{calls: []scriptedCall{
		{response: "first pass draft"},
		{response: validResponse},
	}}
	orch := NewOrchestrator(provider, nil, Config{Model: "test-model"})

	res := orch.Analyze(context.Background(), Request{Dataset: pipelineDataset(), Filename: "data.csv"})
	if res.IsError() {
		t.Fatalf("unexpected error: %q", res.Error)
	}
	if res.OverallSummary != "Sales are stable." {
		t.Errorf("unexpected summary: %q", res.OverallSummary)
	}
	if len(provider.systemSeen) != 2 {
		t.Fatalf("expected two model calls, got %d", len(provider.systemSeen))
	}
	if !strings.Contains(provider.userSeen[1], "first pass draft") {
		t.Errorf("review call should embed the first-pass response")
	}
	for i, opts := range provider.optionsSeen {
		if opts.Model != "test-model" || opts.Temperature != 0 || opts.Seed != 123 || opts.MaxTokens != 3000 {
			t.Errorf("call %d: unexpected options %+v", i, opts)
		}
	}
}

func TestAnalyzeReviewFailureFallsBackToFirstPass(t *testing.T) {
	provider := &scriptedProvider{calls: []scriptedCall{
		{response: validResponse},
		{err: errors.New("review model down")},
	}}
	orch := NewOrchestrator(provider, nil, Config{})

	res := orch.Analyze(context.Background(), Request{Dataset: pipelineDataset()})
	if res.IsError() {
		t.Fatalf("review failure must not fail the request, got %q", res.Error)
	}
	if res.OverallSummary != "Sales are stable." {
		t.Errorf("expected the pre-review output to be used, got %q", res.OverallSummary)
	}
}

func TestAnalyzeGenerateFailure(t *testing.T) {
	provider := &scriptedProvider{calls: []scriptedCall{
		{err: errors.New("model down")},
	}}
	orch := NewOrchestrator(provider, nil, Config{})

	res := orch.Analyze(context.Background(), Request{Dataset: pipelineDataset()})
	if !res.IsError() {
		t.Fatalf("expected an error result")
	}
	if !strings.Contains(res.Error, "Language model request failed") {
		t.Errorf("unexpected error message: %q", res.Error)
	}
	if len(res.Insights) != 0 {
		t.Errorf("a failed request must not carry insights")
	}
	if len(provider.systemSeen) != 1 {
		t.Errorf("no review call should follow a failed generate call, got %d calls", len(provider.systemSeen))
	}
}

func TestAnalyzeNilProvider(t *testing.T) {
	orch := NewOrchestrator(nil, nil, Config{})
	res := orch.Analyze(context.Background(), Request{Dataset: pipelineDataset()})
	if !res.IsError() || !strings.Contains(res.Error, "not configured") {
		t.Errorf("expected a configuration error, got %+v", res)
	}
}

func TestAnalyzeEmptyDataset(t *testing.T) {
	provider := &scriptedProvider{}
	orch := NewOrchestrator(provider, nil, Config{})

	res := orch.Analyze(context.Background(), Request{Dataset: nil})
	if !res.IsError() {
		t.Fatalf("expected an error result for a missing dataset")
	}
	if len(provider.systemSeen) != 0 {
		t.Errorf("no model call should happen without data")
	}
}

func TestAnalyzeSkipsHistoryWithoutStore(t *testing.T) {
	provider := &scriptedProvider{calls: []scriptedCall{
		{response: validResponse},
		{response: validResponse},
	}}
	st := &countingStore{available: false}
	orch := NewOrchestrator(provider, st, Config{})

	orch.Analyze(context.Background(), Request{Dataset: pipelineDataset()})
	if st.findRecentCalls != 0 {
		t.Errorf("retrieval must be skipped when no store is available, got %d calls", st.findRecentCalls)
	}
}

func TestAnalyzeEmbedsHistoricalContext(t *testing.T) {
	provider := &scriptedProvider{calls: []scriptedCall{
		{response: validResponse},
		{response: validResponse},
	}}
	st := &countingStore{
		available:  true,
		recentDocs: []models.StoredInsight{{InsightID: "OLD_1", Title: "historic finding"}},
	}
	orch := NewOrchestrator(provider, st, Config{})

	orch.Analyze(context.Background(), Request{Dataset: pipelineDataset()})
	if st.findRecentCalls != 1 {
		t.Fatalf("expected one retrieval call, got %d", st.findRecentCalls)
	}
	if !strings.Contains(provider.userSeen[0], "historic finding") {
		t.Errorf("historical insights missing from generate prompt")
	}
}

func TestAnalyzeFollowUpStamping(t *testing.T) {
	provider := &scriptedProvider{calls: []scriptedCall{
		{response: validResponse},
		{response: validResponse},
	}}
	orch := NewOrchestrator(provider, nil, Config{})

	prev := &models.AnalysisResult{
		OverallSummary: "previous summary",
		Insights:       []models.Insight{{Title: "earlier insight", Description: "d"}},
	}
	res := orch.Analyze(context.Background(), Request{
		Dataset:          pipelineDataset(),
		FollowUpQuestion: "What changed?",
		PreviousResult:   prev,
	})
	if !res.IsFollowUp || res.AnsweredQuestion != "What changed?" {
		t.Errorf("follow-up lineage not stamped: %+v", res)
	}
	if !strings.Contains(provider.userSeen[0], "earlier insight") {
		t.Errorf("condensed previous analysis missing from generate prompt")
	}
}

func TestAnalyzeQuestionWithoutPreviousResult(t *testing.T) {
	provider := &scriptedProvider{calls: []scriptedCall{
		{response: validResponse},
		{response: validResponse},
	}}
	orch := NewOrchestrator(provider, nil, Config{})

	res := orch.Analyze(context.Background(), Request{
		Dataset:          pipelineDataset(),
		FollowUpQuestion: "question with nothing to follow up on",
	})
	if res.IsFollowUp {
		t.Errorf("a question without a previous result must run as an initial analysis")
	}
}

func TestPersistInsights(t *testing.T) {
	st := &countingStore{available: true}
	orch := NewOrchestrator(&scriptedProvider{}, st, Config{})

	result := &models.AnalysisResult{Insights: []models.Insight{
		{InsightID: "INS_1", Title: "a"},
		{Title: "missing id gets one"},
	}}
	saved, failed := orch.PersistInsights(context.Background(), result, "data.csv")
	if saved != 2 || failed != 0 {
		t.Fatalf("expected 2 saved, got saved=%d failed=%d", saved, failed)
	}
	if st.savedDocs[0].SourceFilename != "data.csv" {
		t.Errorf("source filename not stamped")
	}
	if st.savedDocs[1].InsightID == "" {
		t.Errorf("missing insight id should be generated before persisting")
	}
	if st.savedDocs[0].AnalysisTimestamp == "" {
		t.Errorf("analysis timestamp not stamped")
	}
}

func TestPersistInsightsCountsFailures(t *testing.T) {
	st := &countingStore{available: true, saveErr: errors.New("insert failed")}
	orch := NewOrchestrator(&scriptedProvider{}, st, Config{})

	result := &models.AnalysisResult{Insights: []models.Insight{{InsightID: "a"}, {InsightID: "b"}}}
	saved, failed := orch.PersistInsights(context.Background(), result, "data.csv")
	if saved != 0 || failed != 2 {
		t.Errorf("expected all saves to fail, got saved=%d failed=%d", saved, failed)
	}
}

func TestPersistInsightsSkipsErrorResults(t *testing.T) {
	st := &countingStore{available: true}
	orch := NewOrchestrator(&scriptedProvider{}, st, Config{})

	saved, failed := orch.PersistInsights(context.Background(), models.ErrorResult("broken", ""), "data.csv")
	if saved != 0 || failed != 0 || len(st.savedDocs) != 0 {
		t.Errorf("error results must not be persisted")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Temperature != 0 || cfg.Seed != 123 || cfg.MaxTokens != 3000 {
		t.Errorf("unexpected sampling defaults: %+v", cfg)
	}
	if cfg.AnomalyTopN != 7 || cfg.HistoryLimit != 5 {
		t.Errorf("unexpected pipeline defaults: %+v", cfg)
	}
}
