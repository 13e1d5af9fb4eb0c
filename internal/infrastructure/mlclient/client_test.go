package mlclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"babyweight_service/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type senderFunc func(ctx context.Context, req *Request) ([]byte, error)

func (f senderFunc) Send(ctx context.Context, req *Request) ([]byte, error) {
	return f(ctx, req)
}

func staticSender(body string) senderFunc {
	return func(context.Context, *Request) ([]byte, error) {
		return []byte(body), nil
	}
}

func threeBabies(t *testing.T) []model.Record {
	return records(
		mustBaby(t, "7,True,20,White,1,38,True,,,a"),
		mustBaby(t, "6,False,31,Black,2,36,False,,,b"),
		mustBaby(t, "8,True,27,Chinese,1,41,True,,,c"),
	)
}

func TestHTTPMLClient_PredictOneMatchesBatch(t *testing.T) {
	client := NewHTTPMLClient(staticSender(`{"predictions":[{"outputs":7.25}]}`), false)
	rec := mustBaby(t, "7,True,20,White,1,38,True,,,a")

	one, err := client.PredictOne(context.Background(), rec, -1)
	require.NoError(t, err)

	batch, err := client.PredictBatch(context.Background(), slices.Values([]model.Record{rec}))
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, batch[0], one)
}

func TestHTTPMLClient_PredictOneDefault(t *testing.T) {
	client := NewHTTPMLClient(staticSender(`{"predictions":[]}`), false)

	got, err := client.PredictOne(context.Background(), mustBaby(t, "7,True,20,White,1,38,True,,,a"), -1)
	require.NoError(t, err)
	assert.Equal(t, -1.0, got)
}

func TestHTTPMLClient_PredictOneErrorIsNotMasked(t *testing.T) {
	client := NewHTTPMLClient(staticSender(`<html>oops</html>`), false)

	got, err := client.PredictOne(context.Background(), mustBaby(t, "7,True,20,White,1,38,True,,,a"), -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Zero(t, got)
}

func TestHTTPMLClient_PredictOneInvalidRecord(t *testing.T) {
	called := false
	client := NewHTTPMLClient(senderFunc(func(context.Context, *Request) ([]byte, error) {
		called = true
		return nil, nil
	}), false)

	_, err := client.PredictOne(context.Background(), model.NewBaby(nil), -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFieldAccess)
	assert.False(t, called)
}

func TestHTTPMLClient_PredictBatchKeepsOrder(t *testing.T) {
	var seen []float64
	client := NewHTTPMLClient(senderFunc(func(_ context.Context, req *Request) ([]byte, error) {
		for _, inst := range req.Instances {
			seen = append(seen, inst.MotherAge)
		}
		return []byte(`{"predictions":[{"outputs":3},{"outputs":1},{"outputs":2}]}`), nil
	}), false)

	got, err := client.PredictBatch(context.Background(), slices.Values(threeBabies(t)))
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 31, 27}, seen)
	assert.Equal(t, []float64{3, 1, 2}, got)
}

func TestHTTPMLClient_PredictBatchShortResponse(t *testing.T) {
	client := NewHTTPMLClient(staticSender(`{"predictions":[{"outputs":4.5}]}`), false)

	result, err := client.PredictIndexed(context.Background(), slices.Values(threeBabies(t)))
	require.NoError(t, err)
	assert.Equal(t, []float64{4.5}, result.Values)
	assert.Equal(t, []int{0}, result.Indices)
	assert.Equal(t, 1, result.Len())
}

func TestHTTPMLClient_PredictIndexedSkipsInvalid(t *testing.T) {
	recs := records(
		mustBaby(t, "7,True,20,White,1,38,True,,,a"),
		mustBaby(t, "7,True,,White,1,38,True,,,b"),
		mustBaby(t, "8,True,27,Chinese,1,41,True,,,c"),
	)
	client := NewHTTPMLClient(senderFunc(func(_ context.Context, req *Request) ([]byte, error) {
		assert.Len(t, req.Instances, 2)
		return []byte(`{"predictions":[{"outputs":6.1},{"outputs":8.2}]}`), nil
	}), true)

	result, err := client.PredictIndexed(context.Background(), slices.Values(recs))
	require.NoError(t, err)
	assert.Equal(t, []float64{6.1, 8.2}, result.Values)
	assert.Equal(t, []int{0, 2}, result.Indices)
}

func TestHTTPMLClient_SendErrorPropagates(t *testing.T) {
	client := NewHTTPMLClient(senderFunc(func(context.Context, *Request) ([]byte, error) {
		return nil, &StatusError{Endpoint: "http://x", StatusCode: http.StatusBadGateway, Body: "bad gateway"}
	}), false)

	_, err := client.PredictBatch(context.Background(), slices.Values(threeBabies(t)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsuccessfulResponse)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestHTTPMLClient_OverTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[{"outputs":7.263242959976196},{"outputs":6.5},{"outputs":8.0}]}`))
	}))
	defer server.Close()

	client := NewHTTPMLClient(NewTransport(testConfig(server.URL), nil), false)
	got, err := client.PredictBatch(context.Background(), slices.Values(threeBabies(t)))
	require.NoError(t, err)
	assert.Equal(t, []float64{7.263242959976196, 6.5, 8.0}, got)
}

func TestMockClient(t *testing.T) {
	mock := NewMockClient(42)

	got, err := mock.PredictBatch(context.Background(), slices.Values(threeBabies(t)))
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, v := range got {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, MockMaxWeight)
	}

	result, err := mock.PredictIndexed(context.Background(), slices.Values(threeBabies(t)))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, result.Indices)

	empty, err := mock.PredictBatch(context.Background(), slices.Values([]model.Record{}))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMockClient_Deterministic(t *testing.T) {
	a, err := NewMockClient(7).PredictBatch(context.Background(), slices.Values(threeBabies(t)))
	require.NoError(t, err)
	b, err := NewMockClient(7).PredictBatch(context.Background(), slices.Values(threeBabies(t)))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	one, err := NewMockClient(7).PredictOne(context.Background(), model.NewBaby(nil), -1)
	require.NoError(t, err)
	assert.Equal(t, a[0], one)
}
