// Package report writes the cross-linked markdown report tree for one
// listening history.
package report

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/logging"
	"github.com/jpp0ca/ListeningStats/internal/metrics"
	"github.com/jpp0ca/ListeningStats/internal/ports"
	"github.com/jpp0ca/ListeningStats/internal/stats"
)

const (
	dirSongs   = "songs"
	dirArtists = "artists"
	dirTags    = "tags"
	dirImages  = "img"

	coverSize = "extralarge"
)

// Options configures list sizes and page regeneration.
type Options struct {
	OutputDir string

	// Force regenerates detail pages that already exist on disk.
	Force bool

	TopSongs       int
	TopArtists     int
	ArtistPages    int
	ArtistSongs    int
	MonthlyArtists int
}

// Generator implements ports.ReportGenerator.
type Generator struct {
	agg    *stats.Aggregator
	lookup ports.MetadataLookup
	charts ports.ChartRenderer
	opts   Options
}

// NewGenerator creates a report generator.
func NewGenerator(agg *stats.Aggregator, lookup ports.MetadataLookup, charts ports.ChartRenderer, opts Options) *Generator {
	if opts.TopSongs <= 0 {
		opts.TopSongs = 25
	}
	if opts.TopArtists <= 0 {
		opts.TopArtists = 40
	}
	if opts.ArtistPages <= 0 {
		opts.ArtistPages = 500
	}
	if opts.ArtistSongs <= 0 {
		opts.ArtistSongs = 25
	}
	if opts.MonthlyArtists <= 0 {
		opts.MonthlyArtists = 10
	}
	return &Generator{agg: agg, lookup: lookup, charts: charts, opts: opts}
}

// Generate writes <OutputDir>/<name>/ for events. Detail page failures are
// logged and skipped; failures writing the aggregate documents are returned.
func (g *Generator) Generate(ctx context.Context, name string, events []domain.ListeningEvent) (*domain.ReportSummary, error) {
	root := filepath.Join(g.opts.OutputDir, name)
	for _, dir := range []string{root, filepath.Join(root, dirSongs), filepath.Join(root, dirArtists), filepath.Join(root, dirTags), filepath.Join(root, dirImages)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("report: failed to create %s: %w", dir, err)
		}
	}

	r := &run{
		ctx:         ctx,
		g:           g,
		log:         logging.FromContext(ctx, "report"),
		root:        root,
		events:      events,
		refs:        stats.TrackRefs(events),
		summary:     g.agg.Summarize(events),
		index:       g.agg.NewIndex(events),
		songPages:   make(map[string]bool),
		artistPages: make(map[string]bool),
		artistFiles: make(map[string]string),
		tags:        make(map[string]*tagEntry),
		artistURLs:  make(map[string]string),
		result:      &domain.ReportSummary{OutputDir: root},
	}

	r.log.Info().Str("output", root).Int("events", len(events)).Msg("Generating report")

	r.buildIndex()
	r.writeSongPages()
	topArtists := g.agg.TopArtistsByPlaytime(events, g.opts.ArtistPages)
	r.writeArtistPages(topArtists)
	r.writeTagPages()

	for _, write := range []func() error{
		r.writeGeneral,
		func() error { return r.writeArtistsDocument(topArtists) },
		r.writeSongsDocument,
	} {
		if err := write(); err != nil {
			return nil, err
		}
		r.result.Documents++
	}

	r.log.Info().
		Int("song_pages", r.result.SongPages).
		Int("artist_pages", r.result.ArtistPages).
		Int("tag_pages", r.result.TagPages).
		Int("charts", r.result.Charts).
		Int("skipped_pages", r.result.SkippedPages).
		Msg("Report complete")
	return r.result, nil
}

// -- Per-run state -----------------------------------------------------------

type tagEntry struct {
	name   string
	file   string
	tracks []string
}

type run struct {
	ctx     context.Context
	g       *Generator
	log     zerolog.Logger
	root    string
	events  []domain.ListeningEvent
	refs    map[string]domain.TrackRef
	summary domain.Summary
	index   *stats.Index

	// trackOrder lists track ids in first-seen order.
	trackOrder []string

	// songPages and artistPages record, per identity, that the page was
	// already handled this run and whether it is available to link to.
	songPages   map[string]bool
	artistPages map[string]bool

	// artistFiles maps a page file name to the artist that claimed it.
	artistFiles map[string]string

	tags       map[string]*tagEntry
	tagOrder   []string
	artistURLs map[string]string

	result *domain.ReportSummary
}

// buildIndex collects the tag index and artist profile URLs from track metadata.
func (r *run) buildIndex() {
	seen := make(map[string]bool)
	for _, e := range r.events {
		if e.TrackID == "" || seen[e.TrackID] {
			continue
		}
		seen[e.TrackID] = true
		r.trackOrder = append(r.trackOrder, e.TrackID)

		info := r.g.lookup.Track(r.ctx, e.TrackID)
		if info == nil {
			continue
		}
		if info.Artist.URL != "" && e.ArtistName != "" {
			if _, ok := r.artistURLs[e.ArtistName]; !ok {
				r.artistURLs[e.ArtistName] = info.Artist.URL
			}
		}
		for _, tag := range info.Tags {
			file := SanitizeFilename(tag.Name)
			if file == "" {
				continue
			}
			entry, ok := r.tags[file]
			if !ok {
				entry = &tagEntry{name: tag.Name, file: file}
				r.tags[file] = entry
				r.tagOrder = append(r.tagOrder, file)
			} else if entry.name != tag.Name {
				r.log.Warn().Str("tag", tag.Name).Str("page_owner", entry.name).Msg("Tag file name already taken, tag not indexed")
				continue
			}
			if n := len(entry.tracks); n == 0 || entry.tracks[n-1] != e.TrackID {
				entry.tracks = append(entry.tracks, e.TrackID)
			}
		}
	}
}

func (r *run) path(parts ...string) string {
	return filepath.Join(append([]string{r.root}, parts...)...)
}

// chart renders c into img/ and returns the relative image path, or false when
// no chart was produced.
func (r *run) chart(c domain.Chart) (string, bool) {
	name, err := r.g.charts.Render(r.path(dirImages), c)
	if err != nil {
		if errors.Is(err, domain.ErrNoChartData) {
			r.log.Debug().Str("chart", c.Name).Msg("No data for chart, omitting image")
		} else {
			r.log.Warn().Err(err).Str("chart", c.Name).Msg("Chart rendering failed, omitting image")
		}
		return "", false
	}
	r.result.Charts++
	return dirImages + "/" + name, true
}

// -- Links -------------------------------------------------------------------

// songLink links to the song page when it is available; prefix is "./" from the
// report root and "../" from a detail page.
func (r *run) songLink(trackID, text, prefix string) string {
	if trackID != "" && r.songPages[trackID] {
		return wikiLink(prefix+dirSongs+"/"+domain.TrackSlug(trackID)+".md", text)
	}
	return text
}

// artistLink prefers the artist page, then the Last.fm profile, then plain text.
func (r *run) artistLink(name, prefix string) string {
	if r.artistPages[name] {
		return wikiLink(prefix+dirArtists+"/"+SanitizeFilename(name)+".md", name)
	}
	if url := r.artistURLs[name]; url != "" {
		return fmt.Sprintf("[%s](%s)", name, url)
	}
	return name
}

func (r *run) tagLink(tag domain.Tag, prefix string) string {
	file := SanitizeFilename(tag.Name)
	if entry, ok := r.tags[file]; ok && entry.name == tag.Name {
		return wikiLink(prefix+dirTags+"/"+file+".md", tag.Name)
	}
	return tag.Name
}

func (r *run) pageOutcome(kind, outcome string) {
	metrics.ReportPages.WithLabelValues(kind, outcome).Inc()
}

// artistChartName is the image stem for an artist; the hash keeps names that
// slug identically apart.
func artistChartName(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprintf("artist_%s_%08x", slug(name), h.Sum32())
}
