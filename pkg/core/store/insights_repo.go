package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"attention_guiding/pkg/core/dataset"
	"attention_guiding/pkg/models"
)

// InsightRepo is the Postgres-backed InsightStore. Documents are written
// once and never updated.
type InsightRepo struct{}

var _ InsightStore = (*InsightRepo)(nil)

// NewInsightRepo creates a new repository instance.
func NewInsightRepo() *InsightRepo {
	return &InsightRepo{}
}

func (r *InsightRepo) Available() bool {
	return GetPool() != nil
}

// EnsureSchema creates the backing tables when they do not exist yet.
func EnsureSchema(ctx context.Context) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS insights (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			analysis_timestamp TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS raw_data_summaries (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			summary JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveInsight inserts one insight document and returns its generated id.
func (r *InsightRepo) SaveInsight(ctx context.Context, doc models.StoredInsight) (string, error) {
	pool := GetPool()
	if pool == nil {
		return "", fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal insight: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, doc.AnalysisTimestamp)
	if err != nil {
		ts = time.Now().UTC()
	}

	id := uuid.NewString()
	_, err = pool.Exec(ctx,
		`INSERT INTO insights (id, doc, analysis_timestamp) VALUES ($1, $2, $3)`,
		id, jsonData, ts)
	if err != nil {
		return "", fmt.Errorf("failed to save insight: %w", err)
	}
	return id, nil
}

// FindRecent returns up to limit insight documents, most recent first.
func (r *InsightRepo) FindRecent(ctx context.Context, limit int) ([]models.StoredInsight, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := pool.Query(ctx,
		`SELECT doc FROM insights ORDER BY analysis_timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	var out []models.StoredInsight
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan insight row: %w", err)
		}
		var doc models.StoredInsight
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal insight: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// SaveRawSummary stores a dataset summary document for later reference.
func (r *InsightRepo) SaveRawSummary(ctx context.Context, filename string, summary dataset.Summary) (string, error) {
	pool := GetPool()
	if pool == nil {
		return "", fmt.Errorf("database pool not initialized")
	}

	jsonData, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	id := uuid.NewString()
	_, err = pool.Exec(ctx,
		`INSERT INTO raw_data_summaries (id, filename, summary, created_at) VALUES ($1, $2, $3, $4)`,
		id, filename, jsonData, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to save raw data summary: %w", err)
	}
	return id, nil
}
