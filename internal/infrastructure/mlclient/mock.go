package mlclient

import (
	"context"
	"iter"
	"math/rand/v2"
	"sync"

	"babyweight_service/internal/domain/model"

	"github.com/rs/zerolog/log"
)

// MockMaxWeight bounds mock predictions to [0, MockMaxWeight).
const MockMaxWeight = 10.0

var _ model.Predictor = (*MockClient)(nil)

// MockClient produces random predictions without any network I/O.
type MockClient struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewMockClient(seed uint64) *MockClient {
	return &MockClient{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (m *MockClient) PredictOne(_ context.Context, _ model.Record, _ float64) (float64, error) {
	log.Info().Msg("Mock prediction for 1 instances")
	return m.draw(1)[0], nil
}

func (m *MockClient) PredictBatch(ctx context.Context, recs iter.Seq[model.Record]) ([]float64, error) {
	result, err := m.PredictIndexed(ctx, recs)
	if err != nil {
		return nil, err
	}
	return result.Values, nil
}

func (m *MockClient) PredictIndexed(_ context.Context, recs iter.Seq[model.Record]) (*model.BatchResult, error) {
	n := 0
	for range recs {
		n++
	}
	log.Info().Msgf("Mock prediction for %d instances", n)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return &model.BatchResult{Values: m.draw(n), Indices: indices}, nil
}

func (m *MockClient) draw(n int) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	values := make([]float64, n)
	for i := range values {
		values[i] = m.rng.Float64() * MockMaxWeight
	}
	return values
}
