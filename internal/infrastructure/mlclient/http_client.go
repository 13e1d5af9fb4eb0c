package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"babyweight_service/internal/metric"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
)

const (
	DefaultBaseURL = "https://ml.googleapis.com"
	DefaultTimeout = 5 * time.Minute

	RequestIDHeader = "X-Request-Id"
)

// Endpoint identifies one deployed model version.
type Endpoint struct {
	BaseURL string
	Project string
	Model   string
	Version string
}

func (e Endpoint) URL() string {
	base := strings.TrimSuffix(e.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return fmt.Sprintf("%s/v1/projects/%s/models/%s/versions/%s:predict",
		base, url.PathEscape(e.Project), url.PathEscape(e.Model), url.PathEscape(e.Version))
}

// Config is what the prediction client needs from application config.
type Config struct {
	Endpoint   Endpoint
	Timeout    time.Duration
	BackOff    BackOffConfig
	MaxTries   uint
	MaxElapsed time.Duration
}

// Transport posts prediction requests and returns raw response bodies.
// Non-2xx replies are retried under the backoff policy; connection errors
// are returned immediately.
type Transport struct {
	endpoint   Endpoint
	client     *http.Client
	auth       Authorizer
	newBackOff BackOffFactory
	maxTries   uint
	maxElapsed time.Duration
	timeout    time.Duration
	metrics    statsd.ClientInterface
	tags       []string
}

type TransportOption func(*Transport)

func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *Transport) { t.client = client }
}

func WithBackOff(factory BackOffFactory) TransportOption {
	return func(t *Transport) { t.newBackOff = factory }
}

func WithMetrics(client statsd.ClientInterface) TransportOption {
	return func(t *Transport) { t.metrics = client }
}

func NewTransport(conf Config, auth Authorizer, opts ...TransportOption) *Transport {
	if auth == nil {
		auth = NoAuth{}
	}
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := &Transport{
		endpoint:   conf.Endpoint,
		client:     &http.Client{},
		auth:       auth,
		newBackOff: ExponentialBackOff(conf.BackOff),
		maxTries:   conf.MaxTries,
		maxElapsed: conf.MaxElapsed,
		timeout:    timeout,
		metrics:    &statsd.NoOpClient{},
		tags:       metric.BuildModelTags(conf.Endpoint.Model, conf.Endpoint.Version),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send serializes req, posts it and returns the response body. The whole
// round trip, retries included, is bounded by the configured timeout.
func (t *Transport) Send(ctx context.Context, req *Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	endpoint := t.endpoint.URL()
	requestID := uuid.NewString()
	logger := log.With().Str("requestId", requestID).Str("endpoint", endpoint).Logger()
	logger.Debug().RawJSON("body", body).Msg("Sending prediction request")

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		logger.Debug().Msgf("%d msecs overall", elapsed.Milliseconds())
		_ = t.metrics.Timing(metric.PredictionRoundTripLatency, elapsed, t.tags, 1)
	}()

	attempts := 0
	operation := func() ([]byte, error) {
		attempts++
		return t.attempt(ctx, endpoint, requestID, body)
	}
	opts := []backoff.RetryOption{
		backoff.WithBackOff(t.newBackOff()),
		backoff.WithMaxElapsedTime(t.maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn().Err(err).Int("attempt", attempts).Dur("retryIn", next).Msg("Prediction request unsuccessful, retrying")
			_ = t.metrics.Incr(metric.PredictionRetryCount, t.tags, 1)
		}),
	}
	if t.maxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(t.maxTries))
	}

	raw, err := backoff.Retry(ctx, operation, opts...)
	if err != nil {
		return nil, t.classify(ctx, logger, endpoint, attempts, err)
	}
	logger.Debug().Int("attempts", attempts).Bytes("response", raw).Msg("Received prediction response")
	return raw, nil
}

func (t *Transport) classify(ctx context.Context, logger zerolog.Logger, endpoint string, attempts int, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.Error().Err(err).Int("attempts", attempts).Msg("Prediction request timed out")
		return fmt.Errorf("%w: %s after %s (%d attempts): %w", ErrTransportTimeout, endpoint, t.timeout, attempts, err)
	}
	logger.Error().Err(err).Int("attempts", attempts).Msg("Prediction request failed")
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("prediction request to %s aborted: %w", endpoint, ctxErr)
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}

func (t *Transport) attempt(ctx context.Context, endpoint, requestID string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create prediction request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)

	signed, err := t.auth.Authorize(httpReq)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrAuthorization, err))
	}

	start := time.Now()
	resp, err := t.client.Do(signed)
	if err != nil {
		t.emit(start, 0)
		return nil, backoff.Permanent(fmt.Errorf("%w: %s: %w", ErrConnection, endpoint, err))
	}
	defer resp.Body.Close()
	t.emit(start, resp.StatusCode)

	if err := googleapi.CheckResponse(resp); err != nil {
		statusErr := &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			statusErr.Body = snippet([]byte(apiErr.Body))
		}
		return nil, statusErr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: failed to read response from %s: %w", ErrConnection, endpoint, err))
	}
	return raw, nil
}

func (t *Transport) emit(start time.Time, statusCode int) {
	tags := append([]string{metric.StatusTag(statusCode)}, t.tags...)
	_ = t.metrics.Timing(metric.PredictionRequestLatency, time.Since(start), tags, 1)
	_ = t.metrics.Incr(metric.PredictionRequestCount, tags, 1)
}
