package app

import (
	"context"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/logging"
	"github.com/jpp0ca/ListeningStats/internal/ports"
)

// Catalog implements ports.MetadataLookup over the cache. It never calls the
// network; the provider is only used to decode stored payloads. Results,
// including misses, are memoized for the lifetime of the catalog.
type Catalog struct {
	cache   ports.MetadataCache
	decoder ports.MetadataProvider

	tracks  map[string]*domain.TrackInfo
	artists map[string]*domain.ArtistInfo
}

// NewCatalog creates a lookup over cache using decoder for payloads.
func NewCatalog(cache ports.MetadataCache, decoder ports.MetadataProvider) *Catalog {
	return &Catalog{
		cache:   cache,
		decoder: decoder,
		tracks:  make(map[string]*domain.TrackInfo),
		artists: make(map[string]*domain.ArtistInfo),
	}
}

func (c *Catalog) Track(ctx context.Context, trackID string) *domain.TrackInfo {
	if trackID == "" {
		return nil
	}
	if info, ok := c.tracks[trackID]; ok {
		return info
	}

	var info *domain.TrackInfo
	entry, ok, err := c.cache.GetTrack(ctx, trackID)
	switch {
	case err != nil:
		log := logging.FromContext(ctx, "catalog")
		log.Warn().Err(err).Str("track_id", trackID).Msg("Cache read failed")
	case ok && !entry.NoData():
		info, err = c.decoder.DecodeTrack(entry.Payload)
		if err != nil {
			log := logging.FromContext(ctx, "catalog")
			log.Warn().Err(err).Str("track_id", trackID).Msg("Cached track payload is unreadable, treating as no data")
			info = nil
		}
	}

	c.tracks[trackID] = info
	return info
}

func (c *Catalog) Artist(ctx context.Context, name string) *domain.ArtistInfo {
	if name == "" {
		return nil
	}
	if info, ok := c.artists[name]; ok {
		return info
	}

	var info *domain.ArtistInfo
	entry, ok, err := c.cache.GetArtist(ctx, name)
	switch {
	case err != nil:
		log := logging.FromContext(ctx, "catalog")
		log.Warn().Err(err).Str("artist", name).Msg("Cache read failed")
	case ok && !entry.NoData():
		info, err = c.decoder.DecodeArtist(entry.Payload)
		if err != nil {
			log := logging.FromContext(ctx, "catalog")
			log.Warn().Err(err).Str("artist", name).Msg("Cached artist payload is unreadable, treating as no data")
			info = nil
		}
	}

	c.artists[name] = info
	return info
}

// HasArtist reports whether an artist lookup succeeded, including lookups that
// found no data. Artist pages are written for both.
func (c *Catalog) HasArtist(ctx context.Context, name string) bool {
	if name == "" {
		return false
	}
	_, ok, err := c.cache.GetArtist(ctx, name)
	return err == nil && ok
}
