package mlclient

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"babyweight_service/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// Sender executes one prediction request and returns the raw body.
type Sender interface {
	Send(ctx context.Context, req *Request) ([]byte, error)
}

var _ model.Predictor = (*HTTPMLClient)(nil)

// HTTPMLClient runs build -> send -> decode for the babyweight model.
type HTTPMLClient struct {
	sender  Sender
	builder RequestBuilder
}

func NewHTTPMLClient(sender Sender, skipInvalid bool) *HTTPMLClient {
	return &HTTPMLClient{
		sender:  sender,
		builder: RequestBuilder{SkipInvalid: skipInvalid},
	}
}

// PredictOne returns the first prediction for rec, or defaultValue when the
// service answered with no predictions.
func (c *HTTPMLClient) PredictOne(ctx context.Context, rec model.Record, defaultValue float64) (float64, error) {
	inst, err := NewInstance(rec)
	if err != nil {
		return 0, err
	}
	resp, err := c.execute(ctx, &Request{Instances: []Instance{inst}})
	if err != nil {
		return 0, err
	}
	values := resp.PredictedValues()
	if len(values) == 0 {
		log.Warn().Float64("default", defaultValue).Msg("Prediction service returned no predictions, using default")
		return defaultValue, nil
	}
	return values[0], nil
}

func (c *HTTPMLClient) PredictBatch(ctx context.Context, recs iter.Seq[model.Record]) ([]float64, error) {
	result, err := c.PredictIndexed(ctx, recs)
	if err != nil {
		return nil, err
	}
	return result.Values, nil
}

// PredictIndexed sends every readable record in one request. When the
// service returns fewer predictions than instances, the result is truncated
// to the predictions received.
func (c *HTTPMLClient) PredictIndexed(ctx context.Context, recs iter.Seq[model.Record]) (*model.BatchResult, error) {
	req, indices, err := c.builder.Build(recs)
	if err != nil {
		return nil, err
	}
	resp, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}

	values := resp.PredictedValues()
	if len(values) != len(req.Instances) {
		log.Warn().Int("instances", len(req.Instances)).Int("predictions", len(values)).
			Msg("Prediction count does not match instance count")
	}
	n := min(len(values), len(indices))
	return &model.BatchResult{
		Values:  values[:n],
		Indices: slices.Clone(indices[:n]),
	}, nil
}

func (c *HTTPMLClient) execute(ctx context.Context, req *Request) (*Response, error) {
	raw, err := c.sender.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	return DecodeResponse(raw)
}
