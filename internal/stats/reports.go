package stats

import (
	"sort"
	"time"

	"github.com/jpp0ca/ListeningStats/internal/domain"
)

// Summarize computes the headline numbers. The date range comes from the first
// and last timestamped events in source order; events are never re-sorted.
func (a *Aggregator) Summarize(events []domain.ListeningEvent) domain.Summary {
	s := domain.Summary{TotalPlays: len(events)}
	day := a.Day()

	var first, last *domain.ListeningEvent
	active := make(map[string]bool)
	tracks := make(map[string]bool)

	for i := range events {
		e := &events[i]
		s.TotalPlayedMs += e.PlayedMs
		if a.IsSubstantial(*e) {
			s.SubstantialPlays++
		}
		if e.Completed() {
			s.CompletedPlays++
		}
		if e.TrackID != "" {
			tracks[e.TrackID] = true
		}
		if !e.HasTimestamp() {
			continue
		}
		if first == nil {
			first = e
		}
		last = e
		active[day.Key(e.Timestamp)] = true
	}

	s.DistinctTracks = len(tracks)
	s.ActiveDays = len(active)
	if first != nil {
		s.FirstDay = day.Truncate(first.Timestamp)
		s.LastDay = day.Truncate(last.Timestamp)
		s.SpanDays = daysBetween(s.FirstDay, s.LastDay) + 1
		if s.SpanDays < 1 {
			s.SpanDays = 1
		}
	}
	return s
}

// daysBetween counts calendar days from a to b, both local midnights.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// TrackRefs returns the display identity of every track id as first seen.
func TrackRefs(events []domain.ListeningEvent) map[string]domain.TrackRef {
	refs := make(map[string]domain.TrackRef)
	for _, e := range events {
		if e.TrackID == "" {
			continue
		}
		if _, ok := refs[e.TrackID]; ok {
			continue
		}
		refs[e.TrackID] = domain.TrackRef{TrackID: e.TrackID, TrackName: e.TrackName, ArtistName: e.ArtistName}
	}
	return refs
}

// TopTracks ranks tracks by substantial plays. limit <= 0 keeps all.
func (a *Aggregator) TopTracks(events []domain.ListeningEvent, limit int) []domain.TrackStat {
	return toTrackStats(a.PlayCounts(events).Rank(limit), TrackRefs(events))
}

func toTrackStats(ranked []domain.RankedEntity, refs map[string]domain.TrackRef) []domain.TrackStat {
	out := make([]domain.TrackStat, 0, len(ranked))
	for _, r := range ranked {
		ref := refs[r.Identity]
		out = append(out, domain.TrackStat{
			Rank:       r.Rank,
			TrackID:    r.Identity,
			TrackName:  ref.TrackName,
			ArtistName: ref.ArtistName,
			Plays:      int(r.Value),
		})
	}
	return out
}

// TopArtistsByPlaytime ranks artists by raw played milliseconds over all events.
func (a *Aggregator) TopArtistsByPlaytime(events []domain.ListeningEvent, limit int) []domain.RankedEntity {
	return RankGroups(GroupBy(events, ByArtist), PlayedMs, limit)
}

// ArtistTopTracks ranks one artist's tracks by substantial plays.
func (a *Aggregator) ArtistTopTracks(events []domain.ListeningEvent, artist string, limit int) []domain.TrackStat {
	return a.NewIndex(events).ArtistTopTracks(artist, limit)
}

// MonthlyTracks is the top-tracks list of one month.
type MonthlyTracks struct {
	Month  string
	Tracks []domain.TrackStat
}

// MonthlyTopTracks ranks tracks per month for months with substantial plays,
// oldest month first.
func (a *Aggregator) MonthlyTopTracks(events []domain.ListeningEvent, limit int) []MonthlyTracks {
	refs := TrackRefs(events)
	groups := GroupBy(a.FilterSubstantial(events), ByBucket(a.Month()))

	months := sortedKeys(groups.Keys)
	out := make([]MonthlyTracks, 0, len(months))
	for _, m := range months {
		out = append(out, MonthlyTracks{
			Month:  m,
			Tracks: toTrackStats(a.PlayCounts(groups.Items[m]).Rank(limit), refs),
		})
	}
	return out
}

// MonthlyArtists is the top-artists list of one month.
type MonthlyArtists struct {
	Month   string
	Artists []domain.RankedEntity
}

// MonthlyTopArtists ranks artists by played milliseconds per month, oldest first.
func (a *Aggregator) MonthlyTopArtists(events []domain.ListeningEvent, limit int) []MonthlyArtists {
	groups := GroupBy(events, ByBucket(a.Month()))

	months := sortedKeys(groups.Keys)
	out := make([]MonthlyArtists, 0, len(months))
	for _, m := range months {
		out = append(out, MonthlyArtists{
			Month:   m,
			Artists: a.TopArtistsByPlaytime(groups.Items[m], limit),
		})
	}
	return out
}

// ArtistMonthlyHours returns a dense month axis over the whole history and, per
// artist in the given order, the hours played in each month.
func (a *Aggregator) ArtistMonthlyHours(events []domain.ListeningEvent, artists []string) ([]string, []domain.ChartSeries) {
	month := a.Month()
	first, last, ok := BucketSpan(events, month)
	if !ok {
		return nil, nil
	}

	byArtist := GroupBy(events, ByArtist)
	var labels []string
	var series []domain.ChartSeries
	for i, name := range artists {
		points := DenseTimeSeriesBetween(byArtist.Items[name], month, Hours, first, last)
		values := make([]float64, len(points))
		for j, p := range points {
			values[j] = p.Value
			if i == 0 {
				labels = append(labels, p.Key)
			}
		}
		series = append(series, domain.ChartSeries{Name: name, Values: values})
	}
	return labels, series
}

// TrackMonthlyPlays counts substantial plays of one track per month over the
// month span of the whole history.
func (a *Aggregator) TrackMonthlyPlays(events []domain.ListeningEvent, trackID string) []domain.SeriesPoint {
	return a.NewIndex(events).TrackMonthlyPlays(trackID)
}

// ArtistMonthlyMinutes sums one artist's minutes per month over the artist's own span.
func (a *Aggregator) ArtistMonthlyMinutes(events []domain.ListeningEvent, artist string) []domain.SeriesPoint {
	return a.NewIndex(events).ArtistMonthlyMinutes(artist)
}

// MonthlyPlays counts substantial plays per month, empty months included.
func (a *Aggregator) MonthlyPlays(events []domain.ListeningEvent) []domain.SeriesPoint {
	return DenseTimeSeries(a.FilterSubstantial(events), a.Month(), One)
}

// WeekdayPlays is WeekdayDailyAverage over substantial plays only.
func (a *Aggregator) WeekdayPlays(events []domain.ListeningEvent) []domain.SeriesPoint {
	return a.WeekdayDailyAverage(a.FilterSubstantial(events))
}

// Index groups a history once for repeated per-track and per-artist queries.
type Index struct {
	agg      *Aggregator
	counts   *Tally
	byTrack  Groups[string] // substantial plays only
	byArtist Groups[string]

	first, last time.Time
	hasSpan     bool
}

// NewIndex scans events once. The index keeps references into events.
func (a *Aggregator) NewIndex(events []domain.ListeningEvent) *Index {
	x := &Index{
		agg:      a,
		counts:   a.PlayCounts(events),
		byTrack:  GroupBy(a.FilterSubstantial(events), ByTrack),
		byArtist: GroupBy(events, ByArtist),
	}
	x.first, x.last, x.hasSpan = BucketSpan(events, a.Month())
	return x
}

// Plays returns the substantial play count of a track.
func (x *Index) Plays(trackID string) int {
	return int(x.counts.Get(trackID))
}

// PlayCounts returns the substantial play tally of the whole history.
func (x *Index) PlayCounts() *Tally {
	return x.counts
}

// TrackMonthlyPlays counts substantial plays of one track per month over the
// month span of the indexed history. A track without such plays yields nil.
func (x *Index) TrackMonthlyPlays(trackID string) []domain.SeriesPoint {
	own := x.byTrack.Items[trackID]
	if !x.hasSpan || len(own) == 0 {
		return nil
	}
	return DenseTimeSeriesBetween(own, x.agg.Month(), One, x.first, x.last)
}

// ArtistTopTracks ranks one artist's tracks by substantial plays.
func (x *Index) ArtistTopTracks(artist string, limit int) []domain.TrackStat {
	return x.agg.TopTracks(x.byArtist.Items[artist], limit)
}

// ArtistMonthlyMinutes sums one artist's minutes per month over the artist's own span.
func (x *Index) ArtistMonthlyMinutes(artist string) []domain.SeriesPoint {
	return DenseTimeSeries(x.byArtist.Items[artist], x.agg.Month(), Minutes)
}

// QuarterActivity is the average listening minutes per hour of day for each
// weekday within one calendar quarter.
type QuarterActivity struct {
	Quarter string
	Start   time.Time
	End     time.Time // last day of the quarter
	// Minutes is indexed by position in Weekdays, then by hour.
	Minutes [7][24]float64
}

// HourlyActivityByQuarter covers every quarter between the first and last
// event. Each weekday's hourly minutes are divided by the number of distinct
// dates of that weekday with activity in the quarter (at least 1).
func (a *Aggregator) HourlyActivityByQuarter(events []domain.ListeningEvent) []QuarterActivity {
	quarter := a.Quarter()
	first, last, ok := BucketSpan(events, quarter)
	if !ok {
		return nil
	}

	type acc struct {
		minutes [7][24]float64
		dates   [7]map[string]bool
	}
	byQuarter := make(map[string]*acc)
	day := a.Day()

	for _, e := range events {
		if !e.HasTimestamp() || e.PlayedMs <= 0 {
			continue
		}
		local := e.Timestamp.In(a.loc)
		q := quarter.Key(local)
		ac := byQuarter[q]
		if ac == nil {
			ac = &acc{}
			byQuarter[q] = ac
		}
		wd := weekdayIndex(local.Weekday())
		ac.minutes[wd][local.Hour()] += Minutes(e)
		if ac.dates[wd] == nil {
			ac.dates[wd] = make(map[string]bool)
		}
		ac.dates[wd][day.Key(local)] = true
	}

	var out []QuarterActivity
	for cur := first; !cur.After(last); cur = quarter.Next(cur) {
		qa := QuarterActivity{
			Quarter: quarter.Format(cur),
			Start:   cur,
			End:     quarter.Next(cur).AddDate(0, 0, -1),
		}
		if ac := byQuarter[qa.Quarter]; ac != nil {
			for wd := range Weekdays {
				denom := float64(len(ac.dates[wd]))
				if denom == 0 {
					denom = 1
				}
				for h := 0; h < 24; h++ {
					qa.Minutes[wd][h] = ac.minutes[wd][h] / denom
				}
			}
		}
		out = append(out, qa)
	}
	return out
}

// weekdayIndex maps a weekday to its position in Weekdays.
func weekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func sortedKeys(keys []string) []string {
	out := make([]string, len(keys))
	copy(out, keys)
	sort.Strings(out)
	return out
}
