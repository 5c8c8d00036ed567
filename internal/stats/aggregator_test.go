package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpp0ca/ListeningStats/internal/domain"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func play(id, name, artist, at string, ms int64) domain.ListeningEvent {
	return domain.ListeningEvent{
		TrackID:    id,
		TrackName:  name,
		ArtistName: artist,
		Timestamp:  ts(at),
		PlayedMs:   ms,
	}
}

func TestFilterSubstantial_SubsetAboveThreshold(t *testing.T) {
	agg := New(20000, nil)
	events := []domain.ListeningEvent{
		play("T1", "One", "A", "2024-01-01T10:00:00Z", 25000),
		play("T1", "One", "A", "2024-01-01T11:00:00Z", 15000),
		play("", "Podcast", "", "2024-01-01T12:00:00Z", 90000),
		play("T2", "", "A", "2024-01-01T13:00:00Z", 90000),
		play("T3", "Three", "B", "2024-01-01T14:00:00Z", 20000),
	}

	out := agg.FilterSubstantial(events)

	require.Len(t, out, 2)
	for _, e := range out {
		assert.GreaterOrEqual(t, e.PlayedMs, int64(20000))
		assert.Contains(t, events, e)
	}
	assert.Equal(t, "T1", out[0].TrackID)
	assert.Equal(t, "T3", out[1].TrackID)
}

func TestRank_StableOnTies(t *testing.T) {
	items := []domain.RankedEntity{
		{Identity: "A", Value: 3},
		{Identity: "B", Value: 5},
		{Identity: "C", Value: 3},
	}

	ranked := Rank(items, 2)

	assert.Equal(t, []domain.RankedEntity{
		{Identity: "B", Value: 5, Rank: 1},
		{Identity: "A", Value: 3, Rank: 2},
	}, ranked)
	assert.Equal(t, "A", items[0].Identity, "input must not be reordered")

	all := Rank(items, 0)
	require.Len(t, all, 3)
	assert.Equal(t, "C", all[2].Identity)
	assert.Equal(t, 3, all[2].Rank)
}

func TestTally_RankUsesFirstSeenOrder(t *testing.T) {
	tally := NewTally()
	tally.Add("A", 1)
	tally.Add("B", 2)
	tally.Add("C", 1)
	tally.Add("A", 1)

	ranked := tally.Rank(0)
	assert.Equal(t, "A", ranked[0].Identity)
	assert.Equal(t, "B", ranked[1].Identity)
	assert.Equal(t, "C", ranked[2].Identity)
	assert.Equal(t, float64(5), tally.Total())
}

func TestGroupBy_PreservesFirstSeenKeys(t *testing.T) {
	events := []domain.ListeningEvent{
		play("T1", "One", "Queen", "2024-01-01T10:00:00Z", 1),
		play("T2", "Two", "ABBA", "2024-01-01T10:00:00Z", 1),
		play("T3", "Three", "Queen", "2024-01-01T10:00:00Z", 1),
		play("T4", "Four", "", "2024-01-01T10:00:00Z", 1),
	}

	g := GroupBy(events, ByArtist)

	assert.Equal(t, []string{"Queen", "ABBA"}, g.Keys)
	assert.Len(t, g.Items["Queen"], 2)
	_, hasEmpty := g.Items[""]
	assert.False(t, hasEmpty)
}

func TestPlayCountByIdentity_EndToEnd(t *testing.T) {
	agg := New(20000, nil)
	events := []domain.ListeningEvent{
		play("T1", "One", "A", "2024-01-01T10:00:00Z", 25000),
		play("T1", "One", "A", "2024-01-02T10:00:00Z", 15000),
		play("T1", "One", "A", "2024-01-03T10:00:00Z", 30000),
		play("T2", "Two", "B", "2024-01-04T10:00:00Z", 40000),
		play("", "No id", "C", "2024-01-05T10:00:00Z", 40000),
	}

	assert.Len(t, agg.FilterSubstantial(events), 3)
	assert.Equal(t, map[string]int{"T1": 2, "T2": 1}, agg.PlayCountByIdentity(events))
}

func TestDenseTimeSeries_FillsMissingMonths(t *testing.T) {
	events := []domain.ListeningEvent{
		play("T1", "One", "A", "2024-01-15T10:00:00Z", 1),
		play("T1", "One", "A", "2024-01-20T10:00:00Z", 1),
		play("T2", "Two", "A", "2024-03-01T10:00:00Z", 1),
		{TrackID: "T3", TrackName: "No time", PlayedMs: 1},
	}

	series := DenseTimeSeries(events, MonthBucket(time.UTC), One)

	assert.Equal(t, []domain.SeriesPoint{
		{Key: "2024-01", Value: 2},
		{Key: "2024-02", Value: 0},
		{Key: "2024-03", Value: 1},
	}, series)
	assert.Nil(t, DenseTimeSeries(nil, MonthBucket(time.UTC), One))
}

func TestDenseTimeSeriesBetween_FixedSpan(t *testing.T) {
	events := []domain.ListeningEvent{
		play("T1", "One", "A", "2024-02-10T10:00:00Z", 60000),
	}

	series := DenseTimeSeriesBetween(events, MonthBucket(time.UTC), Minutes,
		ts("2023-12-31T00:00:00Z"), ts("2024-03-05T00:00:00Z"))

	require.Len(t, series, 4)
	assert.Equal(t, "2023-12", series[0].Key)
	assert.Equal(t, domain.SeriesPoint{Key: "2024-02", Value: 1}, series[2])
}

func TestMonthBucket_HonoursTimezone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 23:30 UTC on Jan 31 is already February in Berlin.
	at := ts("2024-01-31T23:30:00Z")
	assert.Equal(t, "2024-01", MonthBucket(time.UTC).Key(at))
	assert.Equal(t, "2024-02", MonthBucket(berlin).Key(at))
}

func TestQuarterBucket(t *testing.T) {
	q := QuarterBucket(time.UTC)
	assert.Equal(t, "2024-Q1", q.Key(ts("2024-03-31T10:00:00Z")))
	assert.Equal(t, "2024-Q4", q.Key(ts("2024-11-02T10:00:00Z")))
	assert.Equal(t, "2025-Q1", q.Format(q.Next(q.Truncate(ts("2024-12-02T10:00:00Z")))))
}

func TestWeekdayDailyAverage(t *testing.T) {
	agg := New(0, nil)
	events := []domain.ListeningEvent{
		// Two Mondays: 3 plays on one, 1 on the other.
		play("T1", "One", "A", "2024-01-01T08:00:00Z", 1),
		play("T1", "One", "A", "2024-01-01T09:00:00Z", 1),
		play("T1", "One", "A", "2024-01-01T10:00:00Z", 1),
		play("T1", "One", "A", "2024-01-08T10:00:00Z", 1),
		// One Wednesday.
		play("T1", "One", "A", "2024-01-03T10:00:00Z", 1),
	}

	series := agg.WeekdayDailyAverage(events)

	require.Len(t, series, 7)
	assert.Equal(t, domain.SeriesPoint{Key: "Monday", Value: 2}, series[0])
	assert.Equal(t, domain.SeriesPoint{Key: "Tuesday", Value: 0}, series[1])
	assert.Equal(t, domain.SeriesPoint{Key: "Wednesday", Value: 1}, series[2])
	assert.Equal(t, "Sunday", series[6].Key)
}

func TestSummarize_UsesSourceOrderForRange(t *testing.T) {
	agg := New(20000, nil)
	events := []domain.ListeningEvent{
		play("T1", "One", "A", "2024-01-01T10:00:00Z", 30000),
		{TrackID: "T2", TrackName: "Two", PlayedMs: 60000},
		play("T1", "One", "A", "2024-01-01T22:00:00Z", 10000),
		play("T3", "Three", "B", "2024-01-10T10:00:00Z", 20000),
	}
	events[3].ReasonEnd = domain.ReasonTrackDone

	s := agg.Summarize(events)

	assert.Equal(t, 4, s.TotalPlays)
	assert.Equal(t, 3, s.SubstantialPlays)
	assert.Equal(t, 1, s.CompletedPlays)
	assert.Equal(t, 3, s.DistinctTracks)
	assert.Equal(t, int64(120000), s.TotalPlayedMs)
	assert.Equal(t, 2, s.ActiveDays)
	assert.Equal(t, 10, s.SpanDays)
	assert.Equal(t, 2.0, s.TotalMinutes())
}

func TestTopTracksAndArtists(t *testing.T) {
	agg := New(20000, nil)
	events := []domain.ListeningEvent{
		play("T1", "One", "Queen", "2024-01-01T10:00:00Z", 30000),
		play("T2", "Two", "ABBA", "2024-01-01T11:00:00Z", 300000),
		play("T1", "One", "Queen", "2024-02-01T10:00:00Z", 30000),
		play("T3", "Three", "Queen", "2024-02-01T11:00:00Z", 5000),
	}

	tracks := agg.TopTracks(events, 0)
	require.Len(t, tracks, 2)
	assert.Equal(t, domain.TrackStat{Rank: 1, TrackID: "T1", TrackName: "One", ArtistName: "Queen", Plays: 2}, tracks[0])

	artists := agg.TopArtistsByPlaytime(events, 0)
	require.Len(t, artists, 2)
	assert.Equal(t, "ABBA", artists[0].Identity)
	assert.Equal(t, float64(65000), artists[1].Value)

	monthly := agg.MonthlyTopTracks(events, 10)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2024-01", monthly[0].Month)
	assert.Len(t, monthly[0].Tracks, 2)
	assert.Len(t, monthly[1].Tracks, 1)

	queen := agg.ArtistTopTracks(events, "Queen", 25)
	require.Len(t, queen, 1)
	assert.Equal(t, "T1", queen[0].TrackID)
}

func TestTrackMonthlyPlays_SpansWholeHistory(t *testing.T) {
	agg := New(20000, nil)
	events := []domain.ListeningEvent{
		play("T1", "One", "A", "2024-01-01T10:00:00Z", 30000),
		play("T2", "Two", "A", "2024-04-01T10:00:00Z", 30000),
	}

	series := agg.TrackMonthlyPlays(events, "T1")
	require.Len(t, series, 4)
	assert.Equal(t, float64(1), series[0].Value)
	assert.Equal(t, float64(0), series[3].Value)

	assert.Nil(t, agg.TrackMonthlyPlays(events, "T9"))
}

func TestArtistMonthlyHours(t *testing.T) {
	agg := New(0, nil)
	events := []domain.ListeningEvent{
		play("T1", "One", "Queen", "2024-01-01T10:00:00Z", 3600000),
		play("T2", "Two", "ABBA", "2024-03-01T10:00:00Z", 1800000),
	}

	labels, series := agg.ArtistMonthlyHours(events, []string{"Queen", "ABBA"})

	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, labels)
	require.Len(t, series, 2)
	assert.Equal(t, []float64{1, 0, 0}, series[0].Values)
	assert.Equal(t, []float64{0, 0, 0.5}, series[1].Values)
}

func TestHourlyActivityByQuarter(t *testing.T) {
	agg := New(0, nil)
	events := []domain.ListeningEvent{
		// Monday 2024-01-01 and Monday 2024-01-08 at 10:xx, 30 and 10 minutes.
		play("T1", "One", "A", "2024-01-01T10:00:00Z", 30*60000),
		play("T1", "One", "A", "2024-01-08T10:30:00Z", 10*60000),
		play("T1", "One", "A", "2024-07-02T10:30:00Z", 60000),
	}

	quarters := agg.HourlyActivityByQuarter(events)

	require.Len(t, quarters, 3)
	assert.Equal(t, "2024-Q1", quarters[0].Quarter)
	assert.Equal(t, "2024-Q2", quarters[1].Quarter)
	assert.Equal(t, float64(20), quarters[0].Minutes[0][10])
	assert.Equal(t, float64(0), quarters[1].Minutes[0][10])
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), quarters[0].End)
	assert.Equal(t, float64(1), quarters[2].Minutes[1][10])
}

func TestMonthlyAndWeekdayPlays_CountSubstantialOnly(t *testing.T) {
	agg := New(20000, nil)
	// 2024-01-01 is a Monday.
	events := []domain.ListeningEvent{
		play("T1", "One", "A", "2024-01-01T10:00:00Z", 25000),
		play("T2", "Two", "A", "2024-01-01T11:00:00Z", 5000),
		play("T3", "Three", "A", "2024-01-01T12:00:00Z", 19999),
		play("T2", "Two", "A", "2024-03-04T12:00:00Z", 1000),
	}

	assert.Equal(t, []domain.SeriesPoint{{Key: "2024-01", Value: 1}}, agg.MonthlyPlays(events))

	week := agg.WeekdayPlays(events)
	require.Len(t, week, 7)
	assert.Equal(t, domain.SeriesPoint{Key: "Monday", Value: 1}, week[0])
	for _, p := range week[1:] {
		assert.Zero(t, p.Value, p.Key)
	}
}

func TestIndex_MatchesPerCallAggregates(t *testing.T) {
	agg := New(20000, nil)
	events := []domain.ListeningEvent{
		play("T1", "One", "Queen", "2024-01-01T10:00:00Z", 30000),
		play("T2", "Two", "ABBA", "2024-01-15T11:00:00Z", 300000),
		play("T1", "One", "Queen", "2024-02-01T10:00:00Z", 10000),
		play("T3", "Three", "Queen", "2024-04-01T11:00:00Z", 60000),
	}

	idx := agg.NewIndex(events)

	assert.Equal(t, 1, idx.Plays("T1"))
	assert.Equal(t, 0, idx.Plays("T9"))
	assert.Equal(t, agg.TrackMonthlyPlays(events, "T1"), idx.TrackMonthlyPlays("T1"))
	assert.Len(t, idx.TrackMonthlyPlays("T1"), 4)
	assert.Nil(t, idx.TrackMonthlyPlays("T9"))
	assert.Equal(t, agg.ArtistTopTracks(events, "Queen", 10), idx.ArtistTopTracks("Queen", 10))
	assert.Len(t, idx.ArtistTopTracks("Queen", 10), 2)
	assert.Equal(t, agg.ArtistMonthlyMinutes(events, "Queen"), idx.ArtistMonthlyMinutes("Queen"))
	assert.Equal(t, float64(3), idx.PlayCounts().Total())
}
