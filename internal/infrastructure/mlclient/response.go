package mlclient

import (
	"encoding/json"
	"fmt"
)

type Prediction struct {
	Outputs float64 `json:"outputs"`
}

// Response holds predictions in the same order as the request instances.
type Response struct {
	Predictions []Prediction `json:"predictions"`
}

type wirePrediction struct {
	Outputs *float64 `json:"outputs"`
}

type wireResponse struct {
	Predictions *[]wirePrediction `json:"predictions"`
	Error       string            `json:"error"`
}

// DecodeResponse parses a prediction response body.
func DecodeResponse(raw []byte) (*Response, error) {
	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w (body: %q)", ErrDecode, err, snippet(raw))
	}
	if wire.Error != "" {
		return nil, fmt.Errorf("%w: service reported error %q", ErrDecode, wire.Error)
	}
	if wire.Predictions == nil {
		return nil, fmt.Errorf("%w: missing predictions (body: %q)", ErrDecode, snippet(raw))
	}

	resp := &Response{Predictions: make([]Prediction, len(*wire.Predictions))}
	for i, p := range *wire.Predictions {
		if p.Outputs == nil {
			return nil, fmt.Errorf("%w: prediction %d has no outputs (body: %q)", ErrDecode, i, snippet(raw))
		}
		resp.Predictions[i] = Prediction{Outputs: *p.Outputs}
	}
	return resp, nil
}

// PredictedValues projects the outputs in response order.
func (r *Response) PredictedValues() []float64 {
	values := make([]float64, len(r.Predictions))
	for i, p := range r.Predictions {
		values[i] = p.Outputs
	}
	return values
}
