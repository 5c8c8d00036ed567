package app

import (
	"context"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/stats"
)

// StatsService implements ports.StatsService over one loaded history.
// The events are read-only, so the service is safe for concurrent use.
type StatsService struct {
	agg    *stats.Aggregator
	events []domain.ListeningEvent
}

// NewStatsService creates a stats service for events.
func NewStatsService(agg *stats.Aggregator, events []domain.ListeningEvent) *StatsService {
	return &StatsService{agg: agg, events: events}
}

func (s *StatsService) Summary(ctx context.Context) (*domain.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	summary := s.agg.Summarize(s.events)
	return &summary, nil
}

// TopTracks ranks tracks by substantial plays; limit <= 0 returns all.
func (s *StatsService) TopTracks(ctx context.Context, limit int) ([]domain.TrackStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.agg.TopTracks(s.events, limit), nil
}

// TopArtists ranks artists by total play time; limit <= 0 returns all.
func (s *StatsService) TopArtists(ctx context.Context, limit int) ([]domain.ArtistStat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ranked := s.agg.TopArtistsByPlaytime(s.events, limit)
	out := make([]domain.ArtistStat, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, domain.ArtistStat{Rank: r.Rank, Name: r.Identity, Hours: r.Value / 3600000})
	}
	return out, nil
}

// MonthlyActivity counts substantial plays per month with empty months filled in.
func (s *StatsService) MonthlyActivity(ctx context.Context) ([]domain.SeriesPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	series := s.agg.MonthlyPlays(s.events)
	if series == nil {
		series = []domain.SeriesPoint{}
	}
	return series, nil
}

func (s *StatsService) WeekdayActivity(ctx context.Context) ([]domain.SeriesPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.agg.WeekdayPlays(s.events), nil
}
