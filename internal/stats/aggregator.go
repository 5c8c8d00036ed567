// Package stats aggregates listening events. Everything here is pure: no I/O,
// and every ordered result is deterministic for a given input.
package stats

import (
	"sort"
	"time"

	"github.com/jpp0ca/ListeningStats/internal/domain"
)

// Aggregator holds the configuration aggregates depend on. The threshold
// decides which plays count, the location only affects bucketing.
type Aggregator struct {
	thresholdMs int64
	loc         *time.Location
}

// New creates an aggregator. A nil location means UTC.
func New(thresholdMs int64, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{thresholdMs: thresholdMs, loc: loc}
}

// Threshold returns the minimum played duration in milliseconds.
func (a *Aggregator) Threshold() int64 { return a.thresholdMs }

// Location returns the bucketing time zone.
func (a *Aggregator) Location() *time.Location { return a.loc }

// Month returns the month bucketing in the configured zone.
func (a *Aggregator) Month() TimeBucket { return MonthBucket(a.loc) }

// Day returns the date bucketing in the configured zone.
func (a *Aggregator) Day() TimeBucket { return DayBucket(a.loc) }

// Quarter returns the quarter bucketing in the configured zone.
func (a *Aggregator) Quarter() TimeBucket { return QuarterBucket(a.loc) }

// IsSubstantial reports whether e counts as a real listen.
func (a *Aggregator) IsSubstantial(e domain.ListeningEvent) bool {
	return e.PlayedMs >= a.thresholdMs && e.TrackID != "" && e.TrackName != ""
}

// FilterSubstantial keeps events played for at least the threshold that carry a
// track id and title. The result is an ordered subset of events.
func (a *Aggregator) FilterSubstantial(events []domain.ListeningEvent) []domain.ListeningEvent {
	out := make([]domain.ListeningEvent, 0, len(events))
	for _, e := range events {
		if a.IsSubstantial(e) {
			out = append(out, e)
		}
	}
	return out
}

// -- Grouping ----------------------------------------------------------------

// Groups is the result of GroupBy. Keys are in first-seen order.
type Groups[K comparable] struct {
	Keys  []K
	Items map[K][]domain.ListeningEvent
}

// GroupBy partitions events by key. Events for which key reports false are dropped.
func GroupBy[K comparable](events []domain.ListeningEvent, key func(domain.ListeningEvent) (K, bool)) Groups[K] {
	g := Groups[K]{Items: make(map[K][]domain.ListeningEvent)}
	for _, e := range events {
		k, ok := key(e)
		if !ok {
			continue
		}
		if _, seen := g.Items[k]; !seen {
			g.Keys = append(g.Keys, k)
		}
		g.Items[k] = append(g.Items[k], e)
	}
	return g
}

// ByTrack keys events by track id.
func ByTrack(e domain.ListeningEvent) (string, bool) {
	return e.TrackID, e.TrackID != ""
}

// ByArtist keys events by artist display name.
func ByArtist(e domain.ListeningEvent) (string, bool) {
	return e.ArtistName, e.ArtistName != ""
}

// ByBucket keys timestamped events by bucket key.
func ByBucket(b TimeBucket) func(domain.ListeningEvent) (string, bool) {
	return func(e domain.ListeningEvent) (string, bool) {
		if !e.HasTimestamp() {
			return "", false
		}
		return b.Key(e.Timestamp), true
	}
}

// ByWeekday keys timestamped events by weekday in the configured zone.
func (a *Aggregator) ByWeekday(e domain.ListeningEvent) (time.Weekday, bool) {
	if !e.HasTimestamp() {
		return 0, false
	}
	return e.Timestamp.In(a.loc).Weekday(), true
}

// ByHour keys timestamped events by hour of day in the configured zone.
func (a *Aggregator) ByHour(e domain.ListeningEvent) (int, bool) {
	if !e.HasTimestamp() {
		return 0, false
	}
	return e.Timestamp.In(a.loc).Hour(), true
}

// -- Ranking -----------------------------------------------------------------

// Tally is an insertion-ordered map from identity to metric.
type Tally struct {
	keys   []string
	values map[string]float64
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{values: make(map[string]float64)}
}

// Add increases key by v, registering key on first use.
func (t *Tally) Add(key string, v float64) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] += v
}

// Get returns the metric for key.
func (t *Tally) Get(key string) float64 { return t.values[key] }

// Keys returns identities in first-seen order.
func (t *Tally) Keys() []string { return t.keys }

// Len returns the number of identities.
func (t *Tally) Len() int { return len(t.keys) }

// Total returns the sum of all metrics.
func (t *Tally) Total() float64 {
	var sum float64
	for _, k := range t.keys {
		sum += t.values[k]
	}
	return sum
}

// Rank orders the tally by descending metric, keeping first-seen order on ties.
func (t *Tally) Rank(limit int) []domain.RankedEntity {
	items := make([]domain.RankedEntity, 0, len(t.keys))
	for _, k := range t.keys {
		items = append(items, domain.RankedEntity{Identity: k, Value: t.values[k]})
	}
	return Rank(items, limit)
}

// Rank sorts items by descending Value with a stable sort, truncates to limit
// (limit <= 0 keeps all) and assigns 1-based ranks. The input is not modified.
func Rank(items []domain.RankedEntity, limit int) []domain.RankedEntity {
	out := make([]domain.RankedEntity, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// RankGroups ranks groups by metric in the groups' first-seen order.
func RankGroups(g Groups[string], metric func([]domain.ListeningEvent) float64, limit int) []domain.RankedEntity {
	t := NewTally()
	for _, k := range g.Keys {
		t.Add(k, metric(g.Items[k]))
	}
	return t.Rank(limit)
}

// Count is a metric counting events.
func Count(events []domain.ListeningEvent) float64 {
	return float64(len(events))
}

// PlayedMs is a metric summing played milliseconds.
func PlayedMs(events []domain.ListeningEvent) float64 {
	var sum int64
	for _, e := range events {
		sum += e.PlayedMs
	}
	return float64(sum)
}

// PlayCounts tallies substantial plays per track id in first-seen order.
func (a *Aggregator) PlayCounts(events []domain.ListeningEvent) *Tally {
	t := NewTally()
	for _, e := range events {
		if a.IsSubstantial(e) {
			t.Add(e.TrackID, 1)
		}
	}
	return t
}

// PlayCountByIdentity counts substantial plays per track id. Events without a
// track id never appear under any key.
func (a *Aggregator) PlayCountByIdentity(events []domain.ListeningEvent) map[string]int {
	t := a.PlayCounts(events)
	out := make(map[string]int, t.Len())
	for _, k := range t.Keys() {
		out[k] = int(t.Get(k))
	}
	return out
}

// -- Time series -------------------------------------------------------------

// DenseTimeSeries sums value per bucket over timestamped events and covers every
// bucket between the earliest and latest one, filling gaps with zero.
func DenseTimeSeries(events []domain.ListeningEvent, b TimeBucket, value func(domain.ListeningEvent) float64) []domain.SeriesPoint {
	first, last, ok := BucketSpan(events, b)
	if !ok {
		return nil
	}
	return DenseTimeSeriesBetween(events, b, value, first, last)
}

// DenseTimeSeriesBetween is DenseTimeSeries over a caller-fixed span. Events
// outside [from, to] are ignored.
func DenseTimeSeriesBetween(events []domain.ListeningEvent, b TimeBucket, value func(domain.ListeningEvent) float64, from, to time.Time) []domain.SeriesPoint {
	from, to = b.Truncate(from), b.Truncate(to)
	if to.Before(from) {
		return nil
	}

	sums := make(map[string]float64)
	for _, e := range events {
		if !e.HasTimestamp() {
			continue
		}
		sums[b.Key(e.Timestamp)] += value(e)
	}

	var series []domain.SeriesPoint
	for cur := from; !cur.After(to); cur = b.Next(cur) {
		key := b.Format(cur)
		series = append(series, domain.SeriesPoint{Key: key, Value: sums[key]})
	}
	return series
}

// BucketSpan returns the first and last bucket start over timestamped events.
func BucketSpan(events []domain.ListeningEvent, b TimeBucket) (first, last time.Time, ok bool) {
	for _, e := range events {
		if !e.HasTimestamp() {
			continue
		}
		start := b.Truncate(e.Timestamp)
		if !ok || start.Before(first) {
			first = start
		}
		if !ok || start.After(last) {
			last = start
		}
		ok = true
	}
	return first, last, ok
}

// One is a value function counting events.
func One(domain.ListeningEvent) float64 { return 1 }

// Minutes is a value function summing played minutes.
func Minutes(e domain.ListeningEvent) float64 { return float64(e.PlayedMs) / 60000 }

// Hours is a value function summing played hours.
func Hours(e domain.ListeningEvent) float64 { return float64(e.PlayedMs) / 3600000 }

// WeekdayDailyAverage returns, Monday to Sunday, the number of events per
// weekday divided by the number of distinct dates on which that weekday had at
// least one event. A weekday without such a date divides by 1.
func (a *Aggregator) WeekdayDailyAverage(events []domain.ListeningEvent) []domain.SeriesPoint {
	day := a.Day()
	counts := make(map[time.Weekday]float64)
	dates := make(map[time.Weekday]map[string]bool)

	for _, e := range events {
		if !e.HasTimestamp() {
			continue
		}
		local := e.Timestamp.In(a.loc)
		wd := local.Weekday()
		counts[wd]++
		if dates[wd] == nil {
			dates[wd] = make(map[string]bool)
		}
		dates[wd][day.Key(local)] = true
	}

	series := make([]domain.SeriesPoint, 0, len(Weekdays))
	for _, wd := range Weekdays {
		denom := len(dates[wd])
		if denom == 0 {
			denom = 1
		}
		series = append(series, domain.SeriesPoint{Key: wd.String(), Value: counts[wd] / float64(denom)})
	}
	return series
}
