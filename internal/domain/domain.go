package domain

import (
	"strings"
	"time"
)

// ReasonTrackDone is the completion reason Spotify records when playback reached
// the natural end of a track.
const ReasonTrackDone = "trackdone"

// trackURIPrefix is stripped from track ids when building file names.
const trackURIPrefix = "spotify:track:"

// ListeningEvent is one play attempt from the streaming-history export.
// Events are never mutated after loading.
type ListeningEvent struct {
	Timestamp   time.Time `json:"ts"`
	TrackID     string    `json:"track_id,omitempty"`
	TrackName   string    `json:"track_name,omitempty"`
	ArtistName  string    `json:"artist_name,omitempty"`
	AlbumName   string    `json:"album_name,omitempty"`
	PlayedMs    int64     `json:"ms_played"`
	ReasonStart string    `json:"reason_start,omitempty"`
	ReasonEnd   string    `json:"reason_end,omitempty"`
	Shuffle     bool      `json:"shuffle"`
	Skipped     bool      `json:"skipped"`
	Platform    string    `json:"platform,omitempty"`
}

// HasTimestamp reports whether the event can take part in time-based aggregates.
func (e ListeningEvent) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}

// Completed reports whether playback reached the end of the track.
func (e ListeningEvent) Completed() bool {
	return e.ReasonEnd == ReasonTrackDone
}

// TrackSlug returns the file-name friendly form of a track id
// ("spotify:track:abc" -> "abc").
func TrackSlug(trackID string) string {
	return strings.TrimPrefix(trackID, trackURIPrefix)
}

// TrackRef is the display identity of a track as first seen in the history.
type TrackRef struct {
	TrackID    string `json:"track_id"`
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
}

// Image is one sized artwork URL from the metadata service.
type Image struct {
	URL  string `json:"url"`
	Size string `json:"size"`
}

// Tag is a genre/tag label attached to a track or artist.
type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// AlbumInfo describes the album a track belongs to.
type AlbumInfo struct {
	Title  string  `json:"title"`
	Artist string  `json:"artist,omitempty"`
	URL    string  `json:"url,omitempty"`
	Images []Image `json:"images,omitempty"`
}

// Cover returns the URL of the image with the given size, or "".
func (a *AlbumInfo) Cover(size string) string {
	if a == nil {
		return ""
	}
	for _, img := range a.Images {
		if img.Size == size && img.URL != "" {
			return img.URL
		}
	}
	return ""
}

// Wiki is free text published for a track or artist.
type Wiki struct {
	Published string `json:"published,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Content   string `json:"content,omitempty"`
}

// ArtistRef is the short artist reference embedded in track metadata.
type ArtistRef struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// TrackInfo is the enrichment data for one track, decoded from a cached payload.
// Any field may be empty; renderers omit the dependent section in that case.
type TrackInfo struct {
	Name       string     `json:"name"`
	URL        string     `json:"url,omitempty"`
	DurationMs int64      `json:"duration_ms,omitempty"`
	Artist     ArtistRef  `json:"artist"`
	Album      *AlbumInfo `json:"album,omitempty"`
	Tags       []Tag      `json:"tags,omitempty"`
	Wiki       *Wiki      `json:"wiki,omitempty"`
}

// ArtistInfo is the enrichment data for one artist.
type ArtistInfo struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Tags []Tag  `json:"tags,omitempty"`
	Bio  *Wiki  `json:"bio,omitempty"`
}

// CacheEntry is a row of the metadata cache. A nil Payload on a found entry is the
// "looked up, nothing found" sentinel.
type CacheEntry struct {
	Key     string
	Payload []byte
}

// NoData reports whether the entry records a lookup that found no match.
func (c CacheEntry) NoData() bool {
	return c.Payload == nil
}

// EnrichmentStatus describes how a single lookup was resolved.
type EnrichmentStatus string

const (
	EnrichmentStatusCached  EnrichmentStatus = "cache"
	EnrichmentStatusFetched EnrichmentStatus = "api"
	EnrichmentStatusFailed  EnrichmentStatus = "failed"
	EnrichmentStatusSkipped EnrichmentStatus = "skipped"
)

// EnrichmentResult holds the outcome of resolving one track or artist.
// Payload is nil both for failures and for lookups that found no match.
type EnrichmentResult struct {
	Status  EnrichmentStatus `json:"status"`
	Payload []byte           `json:"-"`
	Error   string           `json:"error,omitempty"`
}

// EnrichmentReport summarizes a batch enrichment pass.
type EnrichmentReport struct {
	Namespace string `json:"namespace"`
	Total     int    `json:"total"`
	Cached    int    `json:"cached"`
	Fetched   int    `json:"fetched"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// Record updates the counters for one result.
func (r *EnrichmentReport) Record(res EnrichmentResult) {
	r.Total++
	switch res.Status {
	case EnrichmentStatusCached:
		r.Cached++
	case EnrichmentStatusFetched:
		r.Fetched++
	case EnrichmentStatusFailed:
		r.Failed++
	case EnrichmentStatusSkipped:
		r.Skipped++
	}
}

// RankedEntity is one row of a top-N list. Rank starts at 1.
type RankedEntity struct {
	Identity string  `json:"identity"`
	Value    float64 `json:"value"`
	Rank     int     `json:"rank"`
}

// SeriesPoint is one bucket of a time series.
type SeriesPoint struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Summary holds the headline numbers of a listening history.
type Summary struct {
	FirstDay         time.Time `json:"first_day"`
	LastDay          time.Time `json:"last_day"`
	SpanDays         int       `json:"span_days"`
	ActiveDays       int       `json:"active_days"`
	TotalPlays       int       `json:"total_plays"`
	SubstantialPlays int       `json:"substantial_plays"`
	CompletedPlays   int       `json:"completed_plays"`
	DistinctTracks   int       `json:"distinct_tracks"`
	TotalPlayedMs    int64     `json:"total_played_ms"`
}

// TotalMinutes returns the raw listening time in minutes.
func (s Summary) TotalMinutes() float64 {
	return float64(s.TotalPlayedMs) / 60000
}

// TotalHours returns the raw listening time in hours.
func (s Summary) TotalHours() float64 {
	return s.TotalMinutes() / 60
}

// TotalDays returns the raw listening time in days.
func (s Summary) TotalDays() float64 {
	return s.TotalHours() / 24
}

// TrackStat is a top-songs row as served over the HTTP API.
type TrackStat struct {
	Rank       int    `json:"rank"`
	TrackID    string `json:"track_id"`
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
	Plays      int    `json:"plays"`
}

// ArtistStat is a top-artists row as served over the HTTP API.
type ArtistStat struct {
	Rank  int     `json:"rank"`
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

// ReportSummary describes what a report generation run produced.
type ReportSummary struct {
	OutputDir    string `json:"output_dir"`
	Documents    int    `json:"documents"`
	SongPages    int    `json:"song_pages"`
	ArtistPages  int    `json:"artist_pages"`
	TagPages     int    `json:"tag_pages"`
	Charts       int    `json:"charts"`
	SkippedPages int    `json:"skipped_pages"`
}

// RunSummary is returned by the orchestrator after a full run.
type RunSummary struct {
	RunID   string           `json:"run_id"`
	Input   string           `json:"input"`
	Events  int              `json:"events"`
	Tracks  EnrichmentReport `json:"tracks"`
	Artists EnrichmentReport `json:"artists"`
	Report  *ReportSummary   `json:"report,omitempty"`
}
