package lastfm

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/logging"
	"github.com/jpp0ca/ListeningStats/internal/metrics"
	"github.com/jpp0ca/ListeningStats/internal/ports"
)

// BreakerConfig configures the circuit breaker around a metadata provider.
type BreakerConfig struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// MaxFailures is the number of consecutive failures before the breaker opens.
	MaxFailures uint32

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// BreakerProvider wraps a MetadataProvider so that a dead network fails fast
// instead of costing one timeout per remaining item. A "not found" answer is a
// success and never trips the breaker.
type BreakerProvider struct {
	next ports.MetadataProvider
	cb   *gobreaker.CircuitBreaker[[]byte]
}

// NewBreakerProvider wraps next in a circuit breaker.
func NewBreakerProvider(next ports.MetadataProvider, cfg BreakerConfig) *BreakerProvider {
	if cfg.Name == "" {
		cfg.Name = next.Name()
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}

	log := logging.Component("lastfm")
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrMissingAPIKey)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &BreakerProvider{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (b *BreakerProvider) Name() string {
	return b.next.Name()
}

// State returns the current breaker state.
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerProvider) FetchTrack(ctx context.Context, artist, track string) ([]byte, error) {
	return b.cb.Execute(func() ([]byte, error) {
		return b.next.FetchTrack(ctx, artist, track)
	})
}

func (b *BreakerProvider) FetchArtist(ctx context.Context, artist string) ([]byte, error) {
	return b.cb.Execute(func() ([]byte, error) {
		return b.next.FetchArtist(ctx, artist)
	})
}

func (b *BreakerProvider) DecodeTrack(payload []byte) (*domain.TrackInfo, error) {
	return b.next.DecodeTrack(payload)
}

func (b *BreakerProvider) DecodeArtist(payload []byte) (*domain.ArtistInfo, error) {
	return b.next.DecodeArtist(payload)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
