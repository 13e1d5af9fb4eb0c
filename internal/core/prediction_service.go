package core

import (
	"context"
	"fmt"
	"iter"
	"time"

	"babyweight_service/internal/domain/model"
	"babyweight_service/internal/domain/repository"
	"babyweight_service/internal/metric"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
)

const DefaultBatchSize = 100

type Options struct {
	BatchSize int
	SaveData  bool
	Metrics   statsd.ClientInterface
}

// Summary counts what a Run did. Records that were read but got no
// prediction are Unpredicted.
type Summary struct {
	Records     int `json:"records"`
	Predicted   int `json:"predicted"`
	Unpredicted int `json:"unpredicted"`
	Batches     int `json:"batches"`
}

type PredictionService struct {
	source    repository.RecordSource
	predictor model.Predictor
	recorder  repository.PredictionRecorder
	batchSize int
	saveData  bool
	metrics   statsd.ClientInterface
	now       func() time.Time
}

func NewPredictionService(
	source repository.RecordSource,
	predictor model.Predictor,
	recorder repository.PredictionRecorder,
	opts Options,
) *PredictionService {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = &statsd.NoOpClient{}
	}
	return &PredictionService{
		source:    source,
		predictor: predictor,
		recorder:  recorder,
		batchSize: batchSize,
		saveData:  opts.SaveData,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Run predicts every record of the source, one request per batch. On error the
// summary covers the batches completed so far.
func (s *PredictionService) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	if s.source == nil {
		return summary, fmt.Errorf("no record source configured")
	}

	for offset := 0; ; {
		babies, err := s.source.Fetch(ctx, offset, s.batchSize)
		if err != nil {
			return summary, fmt.Errorf("failed to fetch records at offset %d: %w", offset, err)
		}
		if len(babies) == 0 {
			break
		}

		predictions, err := s.PredictBabies(ctx, babies)
		if err != nil {
			return summary, fmt.Errorf("batch %d: %w", summary.Batches+1, err)
		}

		summary.Batches++
		summary.Records += len(babies)
		summary.Predicted += len(predictions)
		summary.Unpredicted += len(babies) - len(predictions)
		log.Info().Int("batch", summary.Batches).Int("records", len(babies)).Int("predicted", len(predictions)).
			Msg("Batch predicted")

		offset += len(babies)
		if len(babies) < s.batchSize {
			break
		}
	}

	log.Info().Int("records", summary.Records).Int("predicted", summary.Predicted).
		Int("unpredicted", summary.Unpredicted).Int("batches", summary.Batches).Msg("Prediction run finished")
	return summary, nil
}

// PredictBabies predicts one batch and pairs each value with its record.
// Records the service returned no value for are left out.
func (s *PredictionService) PredictBabies(ctx context.Context, babies []model.Baby) ([]model.PredictionRecord, error) {
	_ = s.metrics.Histogram(metric.PredictionBatchSize, float64(len(babies)), nil, 1)

	result, err := s.predictor.PredictIndexed(ctx, records(babies))
	if err != nil {
		_ = s.metrics.Incr(metric.PredictionBatchCount, outcomeTags(metric.OutcomeFailure), 1)
		return nil, fmt.Errorf("prediction failed: %w", err)
	}
	_ = s.metrics.Incr(metric.PredictionBatchCount, outcomeTags(metric.OutcomeSuccess), 1)

	predictedAt := s.now()
	n := min(len(result.Values), len(result.Indices))
	predictions := make([]model.PredictionRecord, 0, n)
	for i, idx := range result.Indices[:n] {
		if idx < 0 || idx >= len(babies) {
			return nil, fmt.Errorf("prediction %d refers to unknown record %d", i, idx)
		}
		baby := babies[idx]
		rec := model.PredictionRecord{
			Key:             baby.Key(),
			PredictedWeight: result.Values[i],
			PredictedAt:     predictedAt,
		}
		if w, ok := baby.ActualWeight(); ok {
			rec.ActualWeight = &w
		}
		predictions = append(predictions, rec)
	}

	if s.saveData && s.recorder != nil {
		if err := s.recorder.SavePredictions(ctx, predictions); err != nil {
			return nil, fmt.Errorf("failed to save predictions: %w", err)
		}
	}
	return predictions, nil
}

func (s *PredictionService) PredictBaby(ctx context.Context, baby model.Baby, defaultValue float64) (float64, error) {
	value, err := s.predictor.PredictOne(ctx, baby, defaultValue)
	if err != nil {
		return 0, fmt.Errorf("prediction failed: %w", err)
	}
	return value, nil
}

func records(babies []model.Baby) iter.Seq[model.Record] {
	return func(yield func(model.Record) bool) {
		for _, b := range babies {
			if !yield(b) {
				return
			}
		}
	}
}

func outcomeTags(outcome string) []string {
	return []string{metric.TagAsString(metric.TagOutcome, outcome)}
}
