package ports

import (
	"context"

	"github.com/jpp0ca/ListeningStats/internal/domain"
)

// EventSource loads the immutable listening history.
type EventSource interface {
	// Load returns the events in source order. It fails with domain.ErrSourceNotFound
	// or domain.ErrParse.
	Load(path string) ([]domain.ListeningEvent, error)
}

// MetadataCache is the durable key-value store for enrichment payloads. Tracks are
// keyed by track id, artists by display name. Writes are committed before returning.
type MetadataCache interface {
	GetTrack(ctx context.Context, trackID string) (domain.CacheEntry, bool, error)
	PutTrack(ctx context.Context, trackID string, payload []byte) error
	HasTrack(ctx context.Context, trackID string) (bool, error)

	GetArtist(ctx context.Context, name string) (domain.CacheEntry, bool, error)
	PutArtist(ctx context.Context, name string, payload []byte) error

	Close() error
}

// MetadataProvider is the driven port for the external music-information service.
type MetadataProvider interface {
	// FetchTrack looks a track up by artist and title. A nil payload with a nil
	// error means the service answered but knows no such track.
	FetchTrack(ctx context.Context, artist, track string) ([]byte, error)

	// FetchArtist looks an artist up by display name, with the same nil-payload contract.
	FetchArtist(ctx context.Context, artist string) ([]byte, error)

	// DecodeTrack turns a payload returned by FetchTrack into track metadata.
	// It returns nil, nil when the payload carries no track.
	DecodeTrack(payload []byte) (*domain.TrackInfo, error)

	// DecodeArtist turns a payload returned by FetchArtist into artist metadata.
	DecodeArtist(payload []byte) (*domain.ArtistInfo, error)

	// Name returns the provider identifier (e.g., "lastfm").
	Name() string
}

// MetadataLookup gives renderers decoded metadata without touching the network.
// Missing, empty and undecodable entries all come back as nil.
type MetadataLookup interface {
	Track(ctx context.Context, trackID string) *domain.TrackInfo
	Artist(ctx context.Context, name string) *domain.ArtistInfo

	// HasArtist reports whether an artist lookup completed, with or without data.
	HasArtist(ctx context.Context, name string) bool
}

// ChartRenderer turns an aggregated series into an image file inside dir and returns
// the file name. It returns domain.ErrNoChartData when there is nothing to draw.
type ChartRenderer interface {
	Render(dir string, chart domain.Chart) (string, error)
}

// ReportGenerator writes the cross-linked report tree for one history.
type ReportGenerator interface {
	Generate(ctx context.Context, name string, events []domain.ListeningEvent) (*domain.ReportSummary, error)
}

// EnrichmentService is the driving port for metadata resolution.
type EnrichmentService interface {
	ResolveTrack(ctx context.Context, artist, track, trackID string) domain.EnrichmentResult
	ResolveArtist(ctx context.Context, artist string) domain.EnrichmentResult
	EnrichTracks(ctx context.Context, events []domain.ListeningEvent) domain.EnrichmentReport
	EnrichArtists(ctx context.Context, names []string) domain.EnrichmentReport
}

// StatsService is the driving port behind the read-only HTTP API.
type StatsService interface {
	Summary(ctx context.Context) (*domain.Summary, error)
	TopTracks(ctx context.Context, limit int) ([]domain.TrackStat, error)
	TopArtists(ctx context.Context, limit int) ([]domain.ArtistStat, error)
	MonthlyActivity(ctx context.Context) ([]domain.SeriesPoint, error)
	WeekdayActivity(ctx context.Context) ([]domain.SeriesPoint, error)
}
