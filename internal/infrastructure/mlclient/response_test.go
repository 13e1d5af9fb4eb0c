package mlclient

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponse(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"predictions":[{"outputs":7.5},{"outputs":3.25},{"outputs":9}]}`))
	require.NoError(t, err)
	assert.Equal(t, []float64{7.5, 3.25, 9}, resp.PredictedValues())
}

func TestDecodeResponse_KeepsArrayOrder(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"predictions":[{"outputs":9},{"outputs":1},{"outputs":5}]}`))
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 1, 5}, resp.PredictedValues())
}

func TestDecodeResponse_Empty(t *testing.T) {
	resp, err := DecodeResponse([]byte(`{"predictions":[]}`))
	require.NoError(t, err)
	assert.Empty(t, resp.PredictedValues())
}

func TestDecodeResponse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "malformed json", body: `{not json`, wantMsg: "{not json"},
		{name: "missing predictions", body: `{"outputs":[1]}`, wantMsg: "missing predictions"},
		{name: "null predictions", body: `{"predictions":null}`, wantMsg: "missing predictions"},
		{name: "non numeric outputs", body: `{"predictions":[{"outputs":"seven"}]}`, wantMsg: "seven"},
		{name: "missing outputs", body: `{"predictions":[{"value":1}]}`, wantMsg: "prediction 0 has no outputs"},
		{name: "service error", body: `{"error":"Prediction failed: unknown model"}`, wantMsg: "unknown model"},
		{name: "not an object", body: `[1,2]`, wantMsg: "[1,2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDecodeResponse_SnippetIsBounded(t *testing.T) {
	body := "{" + strings.Repeat("x", 4*maxSnippetLen)
	_, err := DecodeResponse([]byte(body))
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 2*maxSnippetLen)
}
