package extract

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"

	"attention_guiding/pkg/models"
)

// Error messages surfaced in failed results.
const (
	ErrMsgNoResponse  = "No response received from the language model."
	ErrMsgNoJSON      = "No JSON block found in the model response."
	ErrMsgParseFailed = "Model response could not be parsed as JSON."
)

// Extractor turns raw model output into an AnalysisResult. With Lenient
// set, a strict parse failure is retried through JSON repair and then
// Hjson before giving up.
type Extractor struct {
	Lenient bool
}

// NewExtractor returns an extractor with lenient parsing enabled, the
// default the pipeline uses against real model output.
func NewExtractor() *Extractor {
	return &Extractor{Lenient: true}
}

// Parse extracts and parses the final response text and stamps the
// follow-up lineage onto the result. Every failure mode comes back as a
// structured error result; nothing panics out of this stage.
func (e *Extractor) Parse(raw string, followUpQuestion string) (result *models.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			result = models.ErrorResult(fmt.Sprintf("Unexpected error while processing the model response: %v", r), raw)
		}
	}()

	if raw == "" {
		return models.ErrorResult(ErrMsgNoResponse, "")
	}

	span, ok := ExtractJSONBlock(raw)
	if !ok {
		return models.ErrorResult(ErrMsgNoJSON, raw)
	}

	var parsed models.AnalysisResult
	if err := e.unmarshal(span, &parsed); err != nil {
		res := models.ErrorResult(ErrMsgParseFailed, raw)
		res.AttemptedSpan = span
		return res
	}

	if followUpQuestion != "" {
		parsed.IsFollowUp = true
		parsed.AnsweredQuestion = followUpQuestion
	} else {
		parsed.IsFollowUp = false
	}
	return &parsed
}

// unmarshal tries strict JSON first, then the lenient tiers when
// enabled: repair, then Hjson.
func (e *Extractor) unmarshal(span string, out *models.AnalysisResult) error {
	strictErr := json.Unmarshal([]byte(span), out)
	if strictErr == nil {
		return nil
	}
	if !e.Lenient {
		return strictErr
	}

	if repaired, err := jsonrepair.RepairJSON(span); err == nil {
		if err := json.Unmarshal([]byte(repaired), out); err == nil {
			return nil
		}
	}

	var loose interface{}
	if err := hjson.Unmarshal([]byte(span), &loose); err == nil {
		if data, err := json.Marshal(loose); err == nil {
			if err := json.Unmarshal(data, out); err == nil {
				return nil
			}
		}
	}

	return strictErr
}
