package metric

import (
	"fmt"
	"strconv"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
)

const (
	PredictionRequestLatency   = "prediction_request_latency"
	PredictionRequestCount     = "prediction_request_count"
	PredictionRoundTripLatency = "prediction_round_trip_latency"
	PredictionRetryCount       = "prediction_retry_count"
	PredictionBatchSize        = "prediction_batch_size"
	PredictionBatchCount       = "prediction_batch_count"

	TagService    = "service"
	TagStatusCode = "status_code"
	TagModel      = "model"
	TagVersion    = "version"
	TagOutcome    = "outcome"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Config carries what New needs to build a client.
type Config struct {
	Enabled bool
	Address string
	Service string
}

// New returns a statsd client, or a no-op client when metrics are disabled.
func New(conf Config) (statsd.ClientInterface, error) {
	if !conf.Enabled {
		return &statsd.NoOpClient{}, nil
	}
	client, err := statsd.New(conf.Address, statsd.WithTags([]string{TagAsString(TagService, conf.Service)}))
	if err != nil {
		return nil, fmt.Errorf("statsd client initialization failed: %w", err)
	}
	log.Info().Msgf("Metrics client initialized with address - %s", conf.Address)
	return client, nil
}

func TagAsString(key, value string) string {
	return key + ":" + value
}

// StatusTag renders an HTTP status code, 0 when no response was received.
func StatusTag(code int) string {
	return TagAsString(TagStatusCode, strconv.Itoa(code))
}

func BuildModelTags(model, version string) []string {
	return []string{
		TagAsString(TagModel, model),
		TagAsString(TagVersion, version),
	}
}
