package model

import (
	"context"
	"iter"
)

// Predictor is the contract of the prediction service client. The HTTP client
// and the offline mock both implement it so either can be selected by config.
type Predictor interface {
	// PredictOne returns the prediction for a single record, or defaultValue
	// when the service returns no predictions.
	PredictOne(ctx context.Context, rec Record, defaultValue float64) (float64, error)

	// PredictBatch returns predictions in request order. The result may be
	// shorter than the input.
	PredictBatch(ctx context.Context, recs iter.Seq[Record]) ([]float64, error)

	// PredictIndexed is PredictBatch plus the input position of each value.
	PredictIndexed(ctx context.Context, recs iter.Seq[Record]) (*BatchResult, error)
}

// BatchResult pairs each predicted value with the input position of the record it belongs to.
type BatchResult struct {
	Values  []float64
	Indices []int
}

// Len returns the number of predicted records.
func (r *BatchResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Values)
}
