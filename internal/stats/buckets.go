package stats

import (
	"fmt"
	"time"
)

// Weekdays lists weekday names in report order, Monday first.
var Weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// TimeBucket describes a calendar bucketing. Truncate maps an instant to the start
// of its bucket, Next advances one bucket and Format renders the bucket key.
type TimeBucket struct {
	Truncate func(time.Time) time.Time
	Next     func(time.Time) time.Time
	Format   func(time.Time) string
}

// Key returns the bucket key of t.
func (b TimeBucket) Key(t time.Time) string {
	return b.Format(b.Truncate(t))
}

// MonthBucket buckets by calendar month in loc ("2006-01").
func MonthBucket(loc *time.Location) TimeBucket {
	return TimeBucket{
		Truncate: func(t time.Time) time.Time {
			t = t.In(loc)
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		},
		Next: func(t time.Time) time.Time {
			return t.AddDate(0, 1, 0)
		},
		Format: func(t time.Time) string {
			return t.Format("2006-01")
		},
	}
}

// DayBucket buckets by calendar date in loc ("2006-01-02").
func DayBucket(loc *time.Location) TimeBucket {
	return TimeBucket{
		Truncate: func(t time.Time) time.Time {
			t = t.In(loc)
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		},
		Next: func(t time.Time) time.Time {
			return t.AddDate(0, 0, 1)
		},
		Format: func(t time.Time) string {
			return t.Format("2006-01-02")
		},
	}
}

// QuarterBucket buckets by calendar quarter in loc ("2006-Q1").
func QuarterBucket(loc *time.Location) TimeBucket {
	return TimeBucket{
		Truncate: func(t time.Time) time.Time {
			t = t.In(loc)
			month := time.Month((int(t.Month())-1)/3*3 + 1)
			return time.Date(t.Year(), month, 1, 0, 0, 0, 0, loc)
		},
		Next: func(t time.Time) time.Time {
			return t.AddDate(0, 3, 0)
		},
		Format: func(t time.Time) string {
			return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
		},
	}
}
