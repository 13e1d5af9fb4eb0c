package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"babyweight_service/internal/domain/model"

	"github.com/jmoiron/sqlx"
)

type PredictionRecorder interface {
	SavePredictions(ctx context.Context, records []model.PredictionRecord) error
}

type PostgresPredictionRecorder struct {
	db *sqlx.DB
}

func NewPostgresPredictionRecorder(db *sqlx.DB) *PostgresPredictionRecorder {
	return &PostgresPredictionRecorder{db: db}
}

// SavePredictions inserts all records in one transaction.
func (r *PostgresPredictionRecorder) SavePredictions(ctx context.Context, records []model.PredictionRecord) error {
	if len(records) == 0 {
		return nil
	}

	const query = `
		INSERT INTO babyweight_predictions (
			key, predicted_weight, actual_weight, predicted_at
		) VALUES (
			:key, :predicted_weight, :actual_weight, :predicted_at
		)`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range records {
		if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
			return fmt.Errorf("failed to insert prediction for %q: %w", rec.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit predictions: %w", err)
	}
	return nil
}

// CSVRecorder writes key,predicted_weight,actual_weight rows.
type CSVRecorder struct {
	mu sync.Mutex
	w  *csv.Writer
}

func NewCSVRecorder(w io.Writer) *CSVRecorder {
	return &CSVRecorder{w: csv.NewWriter(w)}
}

func (r *CSVRecorder) SavePredictions(_ context.Context, records []model.PredictionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		actual := ""
		if rec.ActualWeight != nil {
			actual = strconv.FormatFloat(*rec.ActualWeight, 'f', -1, 64)
		}
		row := []string{rec.Key, strconv.FormatFloat(rec.PredictedWeight, 'f', -1, 64), actual}
		if err := r.w.Write(row); err != nil {
			return fmt.Errorf("failed to write prediction for %q: %w", rec.Key, err)
		}
	}
	r.w.Flush()
	return r.w.Error()
}
