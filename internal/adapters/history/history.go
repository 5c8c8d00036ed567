// Package history loads Spotify extended streaming-history exports.
package history

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/jpp0ca/ListeningStats/internal/domain"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// Store implements ports.EventSource for files on disk. It keeps the last
// successfully loaded file, so a caller can validate the input up front and
// hand the same store to the pipeline without reading the file twice.
type Store struct {
	mu     sync.Mutex
	path   string
	events []domain.ListeningEvent
}

// NewStore creates a history store.
func NewStore() *Store {
	return &Store{}
}

// -- Export record types (internal) ------------------------------------------

// record is one entry of the export. Older tool versions wrapped it in a
// {"spotify_data": {...}} envelope; both shapes decode to the same event.
type record struct {
	TS          string `json:"ts"`
	MsPlayed    int64  `json:"ms_played"`
	TrackName   string `json:"master_metadata_track_name"`
	ArtistName  string `json:"master_metadata_album_artist_name"`
	AlbumName   string `json:"master_metadata_album_album_name"`
	TrackURI    string `json:"spotify_track_uri"`
	ReasonStart string `json:"reason_start"`
	ReasonEnd   string `json:"reason_end"`
	Shuffle     bool   `json:"shuffle"`
	Skipped     bool   `json:"skipped"`
	Platform    string `json:"platform"`
}

type envelope struct {
	SpotifyData json.RawMessage `json:"spotify_data"`
}

// -- EventSource implementation ----------------------------------------------

func (s *Store) Load(path string) ([]domain.ListeningEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.events != nil && s.path == path {
		return s.events, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("history: failed to open %s: %w", path, err)
	}
	defer f.Close()

	events, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.path, s.events = path, events
	return events, nil
}

// Decode reads a whole export from r and normalizes every entry.
func Decode(r io.Reader) ([]domain.ListeningEvent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("history: failed to read source: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	events := make([]domain.ListeningEvent, 0, len(raw))
	for i, item := range raw {
		rec, err := decodeRecord(item)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", domain.ErrParse, i, err)
		}
		events = append(events, toEvent(rec))
	}
	return events, nil
}

func decodeRecord(item json.RawMessage) (record, error) {
	var rec record

	var env envelope
	if err := json.Unmarshal(item, &env); err != nil {
		return rec, err
	}

	body := []byte(item)
	if len(env.SpotifyData) > 0 && !bytes.Equal(bytes.TrimSpace(env.SpotifyData), []byte("null")) {
		body = env.SpotifyData
	}

	if err := json.Unmarshal(body, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func toEvent(rec record) domain.ListeningEvent {
	e := domain.ListeningEvent{
		TrackID:     rec.TrackURI,
		TrackName:   rec.TrackName,
		ArtistName:  rec.ArtistName,
		AlbumName:   rec.AlbumName,
		PlayedMs:    rec.MsPlayed,
		ReasonStart: rec.ReasonStart,
		ReasonEnd:   rec.ReasonEnd,
		Shuffle:     rec.Shuffle,
		Skipped:     rec.Skipped,
		Platform:    rec.Platform,
	}
	if e.PlayedMs < 0 {
		e.PlayedMs = 0
	}
	if rec.TS != "" {
		if ts, err := parseTimestamp(rec.TS); err == nil {
			e.Timestamp = ts
		}
	}
	return e
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(timestampLayout, s); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
