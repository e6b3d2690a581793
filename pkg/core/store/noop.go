package store

import (
	"context"
	"fmt"

	"attention_guiding/pkg/core/dataset"
	"attention_guiding/pkg/models"
)

// ErrUnavailable is returned by NoopStore writes.
var ErrUnavailable = fmt.Errorf("insight store is not configured")

// NoopStore stands in when no document store is configured: retrieval
// yields empty context, persistence reports unavailability.
type NoopStore struct{}

var _ InsightStore = (*NoopStore)(nil)

func (NoopStore) Available() bool { return false }

func (NoopStore) SaveInsight(ctx context.Context, doc models.StoredInsight) (string, error) {
	return "", ErrUnavailable
}

func (NoopStore) FindRecent(ctx context.Context, limit int) ([]models.StoredInsight, error) {
	return nil, nil
}

func (NoopStore) SaveRawSummary(ctx context.Context, filename string, summary dataset.Summary) (string, error) {
	return "", ErrUnavailable
}
