package mlclient

import (
	"fmt"
	"iter"

	"babyweight_service/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// Request is the prediction payload. Instance order determines which
// prediction belongs to which record.
type Request struct {
	Instances []Instance `json:"instances"`
}

// RequestBuilder turns a record stream into a single Request.
type RequestBuilder struct {
	// SkipInvalid drops records whose fields cannot be read instead of
	// aborting the whole build.
	SkipInvalid bool
}

// Build consumes recs in order and returns the request together with the
// input position of every instance it holds.
func (b RequestBuilder) Build(recs iter.Seq[model.Record]) (*Request, []int, error) {
	req := &Request{Instances: []Instance{}}
	var indices []int
	idx := 0
	for rec := range recs {
		inst, err := NewInstance(rec)
		if err != nil {
			if !b.SkipInvalid {
				return nil, nil, fmt.Errorf("record %d: %w", idx, err)
			}
			log.Warn().Err(err).Int("index", idx).Msg("Skipping record with unreadable fields")
			idx++
			continue
		}
		req.Instances = append(req.Instances, inst)
		indices = append(indices, idx)
		idx++
	}
	return req, indices, nil
}
