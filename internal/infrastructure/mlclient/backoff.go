package mlclient

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// BackOffFactory returns a fresh retry policy for one call. Policies are
// stateful, so calls must not share one.
type BackOffFactory func() backoff.BackOff

type BackOffConfig struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

// ExponentialBackOff builds policies from conf; zero fields keep the
// library defaults.
func ExponentialBackOff(conf BackOffConfig) BackOffFactory {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		if conf.InitialInterval > 0 {
			b.InitialInterval = conf.InitialInterval
		}
		if conf.MaxInterval > 0 {
			b.MaxInterval = conf.MaxInterval
		}
		if conf.Multiplier > 0 {
			b.Multiplier = conf.Multiplier
		}
		if conf.RandomizationFactor > 0 {
			b.RandomizationFactor = conf.RandomizationFactor
		}
		b.Reset()
		return b
	}
}

// ZeroBackOff retries immediately.
func ZeroBackOff() BackOffFactory {
	return func() backoff.BackOff {
		return &backoff.ZeroBackOff{}
	}
}
