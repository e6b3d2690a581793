package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"attention_guiding/pkg/core/calc"
	"attention_guiding/pkg/core/dataset"
	"attention_guiding/pkg/models"
)

// PreviousInsightLimit caps how many insights of the previous result are
// condensed into a follow-up prompt.
const PreviousInsightLimit = 3

// NoPreviousAnalysis marks the absence of a direct predecessor result.
const NoPreviousAnalysis = "No previous analysis was supplied as direct context."

// Request is one (system instruction, user content) pair for a single
// model call.
type Request struct {
	System string
	User   string
}

// ContextInput carries everything the assembler may embed into the user
// content. Optional fields degrade to empty text, never block assembly.
type ContextInput struct {
	Summary      dataset.Summary
	Aggregations calc.AggregationTables
	Anomalies    calc.AnomalyResult

	// Condensed summary of the directly preceding result; empty for an
	// initial analysis.
	PreviousSummary  string
	FollowUpQuestion string

	UserContext       string
	HistoricalContext string
}

// IsFollowUp reports whether the input describes a targeted follow-up
// rather than a first-time analysis.
func (in ContextInput) IsFollowUp() bool {
	return in.FollowUpQuestion != "" && in.PreviousSummary != ""
}

// BuildGenerateRequest assembles the first-pass call. The embedding
// order is fixed: data summary, aggregation tables, anomaly slices,
// previous-analysis summary and question (follow-up only), then user
// context, then historical context. Later text wins on contradiction by
// the usual most-recent-context-wins convention, so appending order
// matters.
func BuildGenerateRequest(in ContextInput) Request {
	var sb strings.Builder

	if in.IsFollowUp() {
		sb.WriteString("Please answer the following specific question based on the provided data and the previous analysis. Concentrate fully on answering the question.\n\n")
		fmt.Fprintf(&sb, "**The follow-up question to investigate:**\n'%s'\n\n", in.FollowUpQuestion)
	} else {
		sb.WriteString("Please analyse the following business data according to the instructions in the system prompt. Focus on the findings that matter most for business decisions.\n\n")
	}

	writeDataSections(&sb, in)

	if in.IsFollowUp() {
		sb.WriteString("\n")
		sb.WriteString(in.PreviousSummary)
		fmt.Fprintf(&sb, "\n**Your specific follow-up question:** %s\n", in.FollowUpQuestion)
	}

	appendOptionalContext(&sb, in)

	id := IDInitial
	if in.IsFollowUp() {
		id = IDFollowUp
	}
	return Request{System: Get().SystemPrompt(id), User: sb.String()}
}

// BuildReviewRequest assembles the independent second-pass call that
// checks and, if needed, corrects the first-pass response.
func BuildReviewRequest(in ContextInput, firstPassResponse string) Request {
	var sb strings.Builder

	sb.WriteString("Here are the data sections that were available to the analysis under review:\n\n")
	writeDataSections(&sb, in)

	if in.IsFollowUp() {
		sb.WriteString("\nThe AI performed a **follow-up analysis** of this specific question:\n")
		fmt.Fprintf(&sb, "**Follow-up question:** '%s'\n\n", in.FollowUpQuestion)
		sb.WriteString("Context of the directly preceding analysis (summary):\n")
		sb.WriteString(in.PreviousSummary)
		sb.WriteString("\n")
	}

	sb.WriteString("\nHere is the analysis that was generated and now has to be reviewed:\n\n")
	sb.WriteString(firstPassResponse)
	sb.WriteString("\n\nPlease review this analysis thoroughly against the criteria above and the provided data sections. ")
	if in.IsFollowUp() {
		sb.WriteString("Since this was a follow-up analysis, make especially sure the specific question was answered completely and correctly. ")
	}
	sb.WriteString("Correct the analysis where necessary and output the final, corrected (or confirmed) JSON response.")

	appendOptionalContext(&sb, in)

	return Request{System: Get().SystemPrompt(IDReview), User: sb.String()}
}

func writeDataSections(sb *strings.Builder, in ContextInput) {
	sb.WriteString("**Detailed overview of the enriched dataset (structure and statistics):**\n")
	sb.WriteString("```json\n")
	sb.WriteString(FormatSummary(in.Summary))
	sb.WriteString("\n```\n\n")

	sb.WriteString("**Global aggregations for higher-level trends and comparisons:**\n\n")
	fmt.Fprintf(sb, "**1. Aggregation per country AND payment method (across all months):**\n```csv\n%s\n```\n\n", in.Aggregations.ByCountryPaymentMethod)
	fmt.Fprintf(sb, "**2. Aggregation per country only:**\n```csv\n%s\n```\n\n", in.Aggregations.ByCountry)
	fmt.Fprintf(sb, "**3. Aggregation per payment method only:**\n```csv\n%s\n```\n\n", in.Aggregations.ByPaymentMethod)

	n := in.Anomalies.N
	slices := in.Anomalies.Slices
	sb.WriteString("**Specific extreme values and noteworthy rows from the monthly data:**\n\n")
	fmt.Fprintf(sb, "**Top %d transactions by gross sales:**\n```csv\n%s\n```\n\n", n, sliceText(slices, calc.SliceTopGrossSales))
	fmt.Fprintf(sb, "**Top %d highest return rates:**\n```csv\n%s\n```\n\n", n, sliceText(slices, calc.SliceTopReturnRate))
	fmt.Fprintf(sb, "**All rows with write-offs (EUR Write-Offs > 0):**\n```csv\n%s\n```\n\n", sliceText(slices, calc.SliceAllWriteOffsGtZero))
	fmt.Fprintf(sb, "**Top %d highest chargeback rates:**\n```csv\n%s\n```\n\n", n, sliceText(slices, calc.SliceTopChargebackRate))
	fmt.Fprintf(sb, "**Top %d highest dunning level 2 amounts (highest risk):**\n```csv\n%s\n```\n\n", n, sliceText(slices, calc.SliceTopDunningLevel2))
	fmt.Fprintf(sb, "**Bottom %d lowest average order values:**\n```csv\n%s\n```\n", n, sliceText(slices, calc.SliceBottomAvgOrder))
}

func appendOptionalContext(sb *strings.Builder, in ContextInput) {
	if in.UserContext != "" {
		fmt.Fprintf(sb, "\n\n**Additional context/instructions from the user:**\n%s", in.UserContext)
	}
	if in.HistoricalContext != "" {
		sb.WriteString(in.HistoricalContext)
	}
}

func sliceText(slices map[string]string, name string) string {
	if s, ok := slices[name]; ok && s != "" {
		return s
	}
	return calc.SliceNotAvailable
}

// FormatSummary renders the dataset summary as indented JSON for prompt
// embedding.
func FormatSummary(s dataset.Summary) string {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// CondensePreviousAnalysis reduces the preceding result to the first
// PreviousInsightLimit insight titles/descriptions plus the overall
// summary, so the follow-up prompt stays bounded.
func CondensePreviousAnalysis(prev *models.AnalysisResult) string {
	if prev == nil {
		return NoPreviousAnalysis
	}
	var sb strings.Builder
	sb.WriteString("\n\n**Summary of the key statements of the directly preceding analysis (for answering the follow-up question):**\n")
	if len(prev.Insights) == 0 {
		sb.WriteString("The previous analysis contained no specific key findings in the expected format.\n")
	} else {
		limit := len(prev.Insights)
		if limit > PreviousInsightLimit {
			limit = PreviousInsightLimit
		}
		for _, insight := range prev.Insights[:limit] {
			fmt.Fprintf(&sb, "- **Previous insight title:** %s\n  **Description:** %s\n", insight.Title, insight.Description)
		}
	}
	fmt.Fprintf(&sb, "**Overall summary of the previous analysis:** %s\n", prev.OverallSummary)
	return sb.String()
}

// RenderHistoricalInsights turns stored insights into the bullet block
// appended as historical context. Empty input yields empty context.
func RenderHistoricalInsights(docs []models.StoredInsight) string {
	if len(docs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n**Historical and similar findings (for context and comparison):**\n")
	for _, doc := range docs {
		fmt.Fprintf(&sb,
			"- **Insight ID (historical):** %s\n  **Title:** %s\n  **Type:** %s\n  **Description:** %s\n  **Affected area:** %s\n  **Period:** %s\n  **Quantitative impact:** %s\n  **Confidence level:** %s\n\n",
			orNA(doc.InsightID), orNA(doc.Title), orNA(doc.Type), orNA(doc.Description),
			orNA(doc.AffectedArea), orNA(doc.Period), orNA(doc.QuantitativeImpact), orNA(doc.ConfidenceLevel))
	}
	return sb.String()
}

// HistoricalQuery builds the retrieval query text for similar stored
// insights. It returns empty when the summary lacks usable column or
// numeric information, which disables retrieval.
func HistoricalQuery(s dataset.Summary) string {
	if !s.HasNumericData() {
		return ""
	}
	numeric, err := json.Marshal(s.NumericalSummary)
	if err != nil {
		numeric = []byte("{}")
	}
	return fmt.Sprintf("Dataset overview: columns %v, rows %d. Focus on numerical data: %s",
		s.ColumnNames, s.NumRows, numeric)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
