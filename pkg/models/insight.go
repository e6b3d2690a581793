// Package models holds the shared result and persistence types exchanged
// between the analysis pipeline, the HTTP API and the insight store.
package models

import (
	"time"
)

// Insight is one structured finding reported by the model.
type Insight struct {
	InsightID            string                   `json:"insight_id"`
	Title                string                   `json:"title"`
	Type                 string                   `json:"type"`
	Description          string                   `json:"description"`
	AffectedArea         string                   `json:"affected_area"`
	Period               string                   `json:"period"`
	QuantitativeImpact   string                   `json:"quantitative_impact"`
	SupportingDataPoints []map[string]interface{} `json:"supporting_data_points"`
	ConfidenceLevel      string                   `json:"confidence_level"`
}

// AnalysisResult is the final document produced by one analysis request.
// Either the analysis fields or the Error field is populated, never both.
type AnalysisResult struct {
	DataOverview           map[string]interface{} `json:"data_overview,omitempty"`
	Insights               []Insight              `json:"insights,omitempty"`
	OverallSummary         string                 `json:"overall_summary,omitempty"`
	PotentialNextQuestions []string               `json:"potential_next_questions,omitempty"`

	// Stamped by the pipeline, not reported by the model.
	IsFollowUp       bool   `json:"is_follow_up"`
	AnsweredQuestion string `json:"answered_question,omitempty"`

	Error       string `json:"error,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
	// AttemptedSpan is the extracted text span that failed to parse,
	// kept for manual diagnosis.
	AttemptedSpan string `json:"attempted_span,omitempty"`
}

// IsError reports whether the result carries a request-level failure.
func (r *AnalysisResult) IsError() bool {
	return r != nil && r.Error != ""
}

// ErrorResult builds a failure result. raw may be empty when no model
// output exists to attach for diagnosis.
func ErrorResult(message string, raw string) *AnalysisResult {
	return &AnalysisResult{Error: message, RawResponse: raw}
}

// StoredInsight is the persisted form of a single insight. One document
// per insight, written once at explicit persistence time and never updated.
type StoredInsight struct {
	InsightID            string                   `json:"insight_id"`
	Title                string                   `json:"title"`
	Type                 string                   `json:"type"`
	Description          string                   `json:"description"`
	AffectedArea         string                   `json:"affected_area"`
	Period               string                   `json:"period"`
	QuantitativeImpact   string                   `json:"quantitative_impact"`
	SupportingDataPoints []map[string]interface{} `json:"supporting_data_points"`
	ConfidenceLevel      string                   `json:"confidence_level"`

	AnalysisTimestamp          string `json:"analysis_timestamp"`
	SourceFilename             string `json:"source_filename"`
	IsFollowUpInsight          bool   `json:"is_follow_up_insight"`
	AnsweredQuestionForInsight string `json:"answered_question_for_insight,omitempty"`
}

// NewStoredInsight copies an insight out of a result and stamps it with
// persistence metadata.
func NewStoredInsight(in Insight, result *AnalysisResult, filename string, now time.Time) StoredInsight {
	doc := StoredInsight{
		InsightID:            in.InsightID,
		Title:                in.Title,
		Type:                 in.Type,
		Description:          in.Description,
		AffectedArea:         in.AffectedArea,
		Period:               in.Period,
		QuantitativeImpact:   in.QuantitativeImpact,
		SupportingDataPoints: in.SupportingDataPoints,
		ConfidenceLevel:      in.ConfidenceLevel,
		AnalysisTimestamp:    now.UTC().Format(time.RFC3339),
		SourceFilename:       filename,
	}
	if result != nil && result.IsFollowUp {
		doc.IsFollowUpInsight = true
		doc.AnsweredQuestionForInsight = result.AnsweredQuestion
	}
	return doc
}
