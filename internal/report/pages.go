package report

import (
	"fmt"
	"strings"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/stats"
)

// -- Song pages --------------------------------------------------------------

func (r *run) writeSongPages() {
	for _, id := range r.trackOrder {
		if r.ctx.Err() != nil {
			return
		}
		r.ensureSongPage(id)
	}
}

// ensureSongPage handles a song page at most once per run and reports whether
// it can be linked to.
func (r *run) ensureSongPage(trackID string) bool {
	if available, done := r.songPages[trackID]; done {
		return available
	}

	path := r.path(dirSongs, domain.TrackSlug(trackID)+".md")
	if !r.g.opts.Force && fileExists(path) {
		r.songPages[trackID] = true
		r.result.SkippedPages++
		r.pageOutcome("song", "existing")
		return true
	}

	info := r.g.lookup.Track(r.ctx, trackID)
	if info == nil {
		r.songPages[trackID] = false
		r.pageOutcome("song", "unavailable")
		r.log.Debug().Str("track_id", trackID).Msg("No metadata for song, page skipped")
		return false
	}

	if err := r.writeSongPage(path, trackID, info); err != nil {
		r.songPages[trackID] = false
		r.log.Warn().Err(err).Str("track_id", trackID).Msg("Song page could not be written")
		return false
	}

	r.songPages[trackID] = true
	r.result.SongPages++
	r.pageOutcome("song", "generated")
	return true
}

func (r *run) writeSongPage(path, trackID string, info *domain.TrackInfo) error {
	ref := r.refs[trackID]

	name := info.Name
	if name == "" {
		name = ref.TrackName
	}
	artist := info.Artist.Name
	if artist == "" {
		artist = ref.ArtistName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", name)

	if info.Album != nil && info.Album.Title != "" {
		if info.Album.URL != "" {
			fmt.Fprintf(&b, "from Album **[%s](%s)**\n", info.Album.Title, info.Album.URL)
		} else {
			fmt.Fprintf(&b, "from Album **%s**\n", info.Album.Title)
		}
	}

	if artist != "" {
		if info.Artist.URL != "" {
			fmt.Fprintf(&b, "by **[%s](%s)**\n", artist, info.Artist.URL)
		} else {
			fmt.Fprintf(&b, "by **%s**\n", artist)
		}
	}

	if info.DurationMs > 0 {
		fmt.Fprintf(&b, "**Duration:** %s\n", formatDuration(info.DurationMs))
	}

	fmt.Fprintf(&b, "You've listened to this song **%d** times.\n", r.index.Plays(trackID))

	if cover := info.Album.Cover(coverSize); cover != "" {
		fmt.Fprintf(&b, "\n![%s](%s)\n", info.Album.Title, cover)
	}

	switch {
	case info.Wiki != nil && info.Wiki.Content != "":
		fmt.Fprintf(&b, "### Wiki\n%s\n", HTMLToMarkdownLinks(info.Wiki.Content))
		if info.Wiki.Published != "" {
			fmt.Fprintf(&b, "\n(**Published:** %s)\n", info.Wiki.Published)
		}
	case info.URL != "":
		fmt.Fprintf(&b, "\n[%s](%s)\n", info.URL, info.URL)
	}

	if len(info.Tags) > 0 {
		b.WriteString("### Tags / Genres\n")
		for _, tag := range info.Tags {
			fmt.Fprintf(&b, "- %s\n", r.tagLink(tag, "../"))
		}
	}

	series := r.index.TrackMonthlyPlays(trackID)
	c := domain.SingleSeries(domain.ChartBar,
		domain.TrackSlug(trackID)+"_listening_over_time",
		fmt.Sprintf("Listening activity per month: %s - %s", name, artist),
		"times listened", series)
	if img, ok := r.chart(c); ok {
		b.WriteString("### Listening Activity per Month\n")
		fmt.Fprintf(&b, "![listening activity per month](../%s)\n", img)
	}

	doc := NewDocument(path)
	doc.Append(b.String())
	return doc.Err()
}

// -- Artist pages ------------------------------------------------------------

func (r *run) writeArtistPages(ranked []domain.RankedEntity) {
	for _, a := range ranked {
		if r.ctx.Err() != nil {
			return
		}
		r.ensureArtistPage(a.Identity, a.Value)
	}
}

// ensureArtistPage writes the page when the artist lookup completed, even if it
// found no data; the page then has no profile, tags or bio.
func (r *run) ensureArtistPage(name string, playedMs float64) bool {
	if available, done := r.artistPages[name]; done {
		return available
	}

	file := SanitizeFilename(name)
	if owner, taken := r.artistFiles[file]; taken {
		r.artistPages[name] = false
		r.pageOutcome("artist", "collision")
		r.log.Warn().Str("artist", name).Str("page_owner", owner).Msg("Artist file name already taken, page skipped")
		return false
	}
	r.artistFiles[file] = name

	path := r.path(dirArtists, file+".md")
	if !r.g.opts.Force && fileExists(path) {
		r.artistPages[name] = true
		r.result.SkippedPages++
		r.pageOutcome("artist", "existing")
		return true
	}

	if !r.g.lookup.HasArtist(r.ctx, name) {
		r.artistPages[name] = false
		r.pageOutcome("artist", "unavailable")
		return false
	}

	if err := r.writeArtistPage(path, name, playedMs); err != nil {
		r.artistPages[name] = false
		r.log.Warn().Err(err).Str("artist", name).Msg("Artist page could not be written")
		return false
	}

	r.artistPages[name] = true
	r.result.ArtistPages++
	r.pageOutcome("artist", "generated")
	return true
}

func (r *run) writeArtistPage(path, name string, playedMs float64) error {
	info := r.g.lookup.Artist(r.ctx, name)
	doc := NewDocument(path)

	doc.Appendf("# %s", name)

	url := r.artistURLs[name]
	if info != nil && info.URL != "" {
		url = info.URL
	}
	if url != "" {
		doc.Appendf("[Last.fm profile](%s)\n", url)
	}

	if info != nil && len(info.Tags) > 0 {
		links := make([]string, 0, len(info.Tags))
		for _, tag := range info.Tags {
			links = append(links, r.tagLink(tag, "../"))
		}
		doc.Appendf("**Tags**: %s", strings.Join(links, ", "))
	} else {
		doc.Append("No tags found.")
	}

	if info != nil && info.Bio != nil && info.Bio.Summary != "" {
		doc.Append("\n" + HTMLToMarkdownLinks(info.Bio.Summary))
	} else {
		doc.Append("\nNo description available.")
	}

	if total := r.summary.TotalPlayedMs; total > 0 {
		doc.Appendf("\n**Share of total listening time:** %.2f%% (%.2f hours)",
			playedMs/float64(total)*100, playedMs/3600000)
	}

	c := domain.SingleSeries(domain.ChartBar, artistChartName(name),
		fmt.Sprintf("Minutes listened per month: %s", name), "minutes",
		r.index.ArtistMonthlyMinutes(name))
	if img, ok := r.chart(c); ok {
		doc.Appendf("### Listening activity per month\n![minutes per month](../%s)", img)
	}

	songs := r.index.ArtistTopTracks(name, r.g.opts.ArtistSongs)
	if len(songs) == 0 {
		doc.Append("\n**No songs found.**")
		return doc.Err()
	}

	doc.Append("\n### Most played songs\n")
	for i, s := range songs {
		if heading, ok := rankBand(i); ok {
			doc.Append(heading)
		}
		doc.Appendf("%d. **%s** – **%d** plays", s.Rank, r.songLink(s.TrackID, s.TrackName, "../"), s.Plays)
	}
	return doc.Err()
}

// -- Tag pages ---------------------------------------------------------------

// writeTagPages rewrites every tag page on each run; they only index songs.
func (r *run) writeTagPages() {
	counts := r.index.PlayCounts()

	for _, file := range r.tagOrder {
		if r.ctx.Err() != nil {
			return
		}
		entry := r.tags[file]

		tally := stats.NewTally()
		for _, id := range entry.tracks {
			tally.Add(id, counts.Get(id))
		}

		doc := NewDocument(r.path(dirTags, file+".md"))
		doc.Appendf("# %s\n", entry.name)
		doc.Appendf("### Songs tagged %s\n", entry.name)
		for _, ranked := range tally.Rank(0) {
			ref := r.refs[ranked.Identity]
			doc.Appendf("%d. **%s** by %s – **%d** plays",
				ranked.Rank, r.songLink(ranked.Identity, ref.TrackName, "../"), ref.ArtistName, int(ranked.Value))
		}

		if err := doc.Err(); err != nil {
			r.log.Warn().Err(err).Str("tag", entry.name).Msg("Tag page could not be written")
			r.pageOutcome("tag", "failed")
			continue
		}
		r.result.TagPages++
		r.pageOutcome("tag", "generated")
	}
}
