package store

import (
	"context"

	"attention_guiding/pkg/core/dataset"
	"attention_guiding/pkg/models"
)

// InsightStore is the document-store capability: insert-only writes plus
// a recency query. Absence or failure of the store must never abort an
// analysis, so callers treat every error here as a degradation.
type InsightStore interface {
	// SaveInsight inserts one insight document and returns its id.
	SaveInsight(ctx context.Context, doc models.StoredInsight) (string, error)
	// FindRecent returns up to limit stored insights, most recent first.
	FindRecent(ctx context.Context, limit int) ([]models.StoredInsight, error)
	// SaveRawSummary stores a dataset summary alongside its filename.
	SaveRawSummary(ctx context.Context, filename string, summary dataset.Summary) (string, error)
	// Available reports whether a real backing store is configured.
	Available() bool
}
