package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/stats"
)

func statsEvents() []domain.ListeningEvent {
	jan := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	return []domain.ListeningEvent{
		{Timestamp: jan, TrackID: "a", TrackName: "A", ArtistName: "X", PlayedMs: 3600000},
		{Timestamp: jan, TrackID: "b", TrackName: "B", ArtistName: "Y", PlayedMs: 30000},
		{Timestamp: mar, TrackID: "b", TrackName: "B", ArtistName: "Y", PlayedMs: 30000},
		{Timestamp: mar, TrackID: "c", TrackName: "C", ArtistName: "Y", PlayedMs: 1000},
	}
}

func TestStatsService_Summary(t *testing.T) {
	svc := NewStatsService(stats.New(20000, time.UTC), statsEvents())

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, s.TotalPlays)
	assert.Equal(t, 3, s.SubstantialPlays)
	assert.Equal(t, 3, s.DistinctTracks)
	assert.Equal(t, 2, s.ActiveDays)
}

func TestStatsService_TopTracks(t *testing.T) {
	svc := NewStatsService(stats.New(20000, time.UTC), statsEvents())

	top, err := svc.TopTracks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, domain.TrackStat{Rank: 1, TrackID: "b", TrackName: "B", ArtistName: "Y", Plays: 2}, top[0])
}

func TestStatsService_TopArtists(t *testing.T) {
	svc := NewStatsService(stats.New(20000, time.UTC), statsEvents())

	top, err := svc.TopArtists(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "X", top[0].Name)
	assert.InDelta(t, 1.0, top[0].Hours, 1e-9)
	assert.Equal(t, 2, top[1].Rank)
}

func TestStatsService_MonthlyActivity(t *testing.T) {
	svc := NewStatsService(stats.New(20000, time.UTC), statsEvents())

	series, err := svc.MonthlyActivity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.SeriesPoint{
		{Key: "2024-01", Value: 2},
		{Key: "2024-02", Value: 0},
		{Key: "2024-03", Value: 1},
	}, series)
}

func TestStatsService_ActivityIgnoresShortPlays(t *testing.T) {
	monday := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	events := []domain.ListeningEvent{
		{Timestamp: monday, TrackID: "a", TrackName: "A", ArtistName: "X", PlayedMs: 25000},
		{Timestamp: monday.Add(time.Minute), TrackID: "b", TrackName: "B", ArtistName: "X", PlayedMs: 5000},
		{Timestamp: monday.Add(2 * time.Minute), TrackID: "c", TrackName: "C", ArtistName: "X", PlayedMs: 19999},
	}
	svc := NewStatsService(stats.New(20000, time.UTC), events)

	monthly, err := svc.MonthlyActivity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.SeriesPoint{{Key: "2024-01", Value: 1}}, monthly)

	week, err := svc.WeekdayActivity(context.Background())
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, domain.SeriesPoint{Key: "Monday", Value: 1}, week[0])
}

func TestStatsService_Empty(t *testing.T) {
	svc := NewStatsService(stats.New(20000, time.UTC), nil)

	series, err := svc.MonthlyActivity(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, series)
	assert.Empty(t, series)

	week, err := svc.WeekdayActivity(context.Background())
	require.NoError(t, err)
	assert.Len(t, week, 7)
}

func TestStatsService_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatsService(stats.New(20000, time.UTC), statsEvents()).TopTracks(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
