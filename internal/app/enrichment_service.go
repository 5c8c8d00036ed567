package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/logging"
	"github.com/jpp0ca/ListeningStats/internal/metrics"
	"github.com/jpp0ca/ListeningStats/internal/ports"
)

const (
	namespaceTrack  = "track"
	namespaceArtist = "artist"
)

// EnrichmentOptions tunes an EnrichmentService.
type EnrichmentOptions struct {
	// MinInterval is the floor every successful external lookup is held to,
	// measured from the start of the resolution.
	MinInterval time.Duration

	// Progress receives the progress bar; nil disables it.
	Progress io.Writer
}

// EnrichmentService implements ports.EnrichmentService with a cache-first
// policy. Items are resolved one at a time, in input order.
type EnrichmentService struct {
	cache       ports.MetadataCache
	provider    ports.MetadataProvider
	minInterval time.Duration
	progress    io.Writer
}

// NewEnrichmentService creates a new enrichment service over the given cache and provider.
func NewEnrichmentService(cache ports.MetadataCache, provider ports.MetadataProvider, opts EnrichmentOptions) *EnrichmentService {
	if opts.MinInterval < 0 {
		opts.MinInterval = 0
	}
	return &EnrichmentService{
		cache:       cache,
		provider:    provider,
		minInterval: opts.MinInterval,
		progress:    opts.Progress,
	}
}

// ResolveTrack returns the cached payload for trackID, or performs exactly one
// lookup by artist and title. Failed lookups are neither cached nor delayed; a
// fetch whose cache write fails is still held to the floor.
func (s *EnrichmentService) ResolveTrack(ctx context.Context, artist, track, trackID string) domain.EnrichmentResult {
	start := time.Now()
	log := logging.FromContext(ctx, "enrich")

	if trackID != "" {
		entry, ok, err := s.cache.GetTrack(ctx, trackID)
		if err != nil {
			log.Warn().Err(err).Str("track_id", trackID).Msg("Cache read failed, treating as miss")
		} else if ok {
			return s.record(namespaceTrack, domain.EnrichmentResult{
				Status:  domain.EnrichmentStatusCached,
				Payload: entry.Payload,
			})
		}
	}

	if artist == "" || track == "" {
		return s.record(namespaceTrack, domain.EnrichmentResult{
			Status: domain.EnrichmentStatusSkipped,
			Error:  "artist and track name are required for a lookup",
		})
	}

	payload, err := s.provider.FetchTrack(ctx, artist, track)
	if err != nil {
		return s.record(namespaceTrack, domain.EnrichmentResult{
			Status: domain.EnrichmentStatusFailed,
			Error:  err.Error(),
		})
	}

	result := domain.EnrichmentResult{Status: domain.EnrichmentStatusFetched, Payload: payload}
	if trackID != "" {
		if err := s.cache.PutTrack(ctx, trackID, payload); err != nil {
			result = domain.EnrichmentResult{
				Status: domain.EnrichmentStatusFailed,
				Error:  fmt.Sprintf("failed to cache track: %v", err),
			}
		}
	}

	s.throttle(ctx, start)
	return s.record(namespaceTrack, result)
}

// ResolveArtist follows the ResolveTrack contract, keyed by display name.
func (s *EnrichmentService) ResolveArtist(ctx context.Context, artist string) domain.EnrichmentResult {
	start := time.Now()
	log := logging.FromContext(ctx, "enrich")

	if artist == "" {
		return s.record(namespaceArtist, domain.EnrichmentResult{
			Status: domain.EnrichmentStatusSkipped,
			Error:  "artist name is required for a lookup",
		})
	}

	entry, ok, err := s.cache.GetArtist(ctx, artist)
	if err != nil {
		log.Warn().Err(err).Str("artist", artist).Msg("Cache read failed, treating as miss")
	} else if ok {
		return s.record(namespaceArtist, domain.EnrichmentResult{
			Status:  domain.EnrichmentStatusCached,
			Payload: entry.Payload,
		})
	}

	payload, err := s.provider.FetchArtist(ctx, artist)
	if err != nil {
		return s.record(namespaceArtist, domain.EnrichmentResult{
			Status: domain.EnrichmentStatusFailed,
			Error:  err.Error(),
		})
	}

	result := domain.EnrichmentResult{Status: domain.EnrichmentStatusFetched, Payload: payload}
	if err := s.cache.PutArtist(ctx, artist, payload); err != nil {
		result = domain.EnrichmentResult{
			Status: domain.EnrichmentStatusFailed,
			Error:  fmt.Sprintf("failed to cache artist: %v", err),
		}
	}

	s.throttle(ctx, start)
	return s.record(namespaceArtist, result)
}

// EnrichTracks resolves every distinct track of the history in first-seen
// order. Events without a track id, artist or title are counted as skipped.
func (s *EnrichmentService) EnrichTracks(ctx context.Context, events []domain.ListeningEvent) domain.EnrichmentReport {
	log := logging.FromContext(ctx, "enrich")
	report := domain.EnrichmentReport{Namespace: namespaceTrack}

	seen := make(map[string]bool)
	var refs []domain.TrackRef
	for _, e := range events {
		if e.TrackID == "" || e.ArtistName == "" || e.TrackName == "" {
			report.Skipped++
			report.Total++
			continue
		}
		if seen[e.TrackID] {
			continue
		}
		seen[e.TrackID] = true
		refs = append(refs, domain.TrackRef{TrackID: e.TrackID, TrackName: e.TrackName, ArtistName: e.ArtistName})
	}

	log.Info().Int("tracks", len(refs)).Int("skipped_events", report.Skipped).Msg("Enriching tracks")
	bar := s.newBar(len(refs), "tracks")

	for i, ref := range refs {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Int("remaining", len(refs)-i).Msg("Track enrichment interrupted")
			break
		}

		res := s.ResolveTrack(ctx, ref.ArtistName, ref.TrackName, ref.TrackID)
		report.Record(res)
		logProgress(log, i+1, len(refs), res).
			Str("artist", ref.ArtistName).
			Str("track", ref.TrackName).
			Str("track_id", ref.TrackID).
			Msg("Track resolved")
		bar.Add(1)
	}
	bar.Finish()

	log.Info().
		Int("cached", report.Cached).
		Int("fetched", report.Fetched).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("Track enrichment complete")
	return report
}

// EnrichArtists resolves each distinct, non-empty name in the given order.
func (s *EnrichmentService) EnrichArtists(ctx context.Context, names []string) domain.EnrichmentReport {
	log := logging.FromContext(ctx, "enrich")
	report := domain.EnrichmentReport{Namespace: namespaceArtist}

	seen := make(map[string]bool)
	var unique []string
	for _, name := range names {
		if name == "" {
			report.Skipped++
			report.Total++
			continue
		}
		if !seen[name] {
			seen[name] = true
			unique = append(unique, name)
		}
	}

	log.Info().Int("artists", len(unique)).Msg("Enriching artists")
	bar := s.newBar(len(unique), "artists")

	for i, name := range unique {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Int("remaining", len(unique)-i).Msg("Artist enrichment interrupted")
			break
		}

		res := s.ResolveArtist(ctx, name)
		report.Record(res)
		logProgress(log, i+1, len(unique), res).Str("artist", name).Msg("Artist resolved")
		bar.Add(1)
	}
	bar.Finish()

	log.Info().
		Int("cached", report.Cached).
		Int("fetched", report.Fetched).
		Int("failed", report.Failed).
		Msg("Artist enrichment complete")
	return report
}

// throttle holds a successful lookup until minInterval has passed since start.
func (s *EnrichmentService) throttle(ctx context.Context, start time.Time) {
	remaining := s.minInterval - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *EnrichmentService) record(namespace string, res domain.EnrichmentResult) domain.EnrichmentResult {
	metrics.EnrichmentLookups.WithLabelValues(namespace, string(res.Status)).Inc()
	return res
}

func (s *EnrichmentService) newBar(total int, what string) *progressbar.ProgressBar {
	w := s.progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Enriching "+what),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}

// logProgress picks the level for one resolved item: network fetches and
// failures are always visible, cache hits only at debug.
func logProgress(log zerolog.Logger, index, total int, res domain.EnrichmentResult) *zerolog.Event {
	var ev *zerolog.Event
	switch res.Status {
	case domain.EnrichmentStatusFailed:
		ev = log.Warn().Str("error", res.Error)
	case domain.EnrichmentStatusFetched:
		ev = log.Info().Bool("no_data", res.Payload == nil)
	default:
		ev = log.Debug()
	}
	return ev.Int("index", index).Int("total", total).Str("source", string(res.Status))
}
