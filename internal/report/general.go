package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/stats"
)

const (
	fileGeneral = "general.md"
	fileArtists = "artists.md"
	fileSongs   = "songs.md"

	topArtistsChart = 10
)

func (r *run) writeGeneral() error {
	doc := NewDocument(r.path(fileGeneral))
	seconds := float64(r.g.agg.Threshold()) / 1000

	doc.Appendf("# Notes\n"+
		"- Some statistics only count songs that were played for at least %.0f seconds.\n"+
		"- Songs without tags on Last.fm are not part of any tag statistics.\n", seconds)
	doc.Append("# Analysis")

	r.writeGeneralStats(doc, seconds)
	r.writeActivity(doc)
	r.writeTopSongs(doc)
	r.writeTopArtists(doc)

	doc.Appendf("### %s\n%s", wikiLink("./"+fileArtists, "More artist information"), wikiLink("./"+fileSongs, "All songs"))
	return doc.Err()
}

func (r *run) writeGeneralStats(doc *Document, seconds float64) {
	s := r.summary
	span := float64(max(s.SpanDays, 1))
	active := float64(max(s.ActiveDays, 1))
	plays := float64(max(s.TotalPlays, 1))

	var b strings.Builder
	b.WriteString("## General statistics\n")
	if s.SpanDays > 0 {
		fmt.Fprintf(&b, "- **Time span:** %s to %s (%d days)\n",
			s.FirstDay.Format("2006-01-02"), s.LastDay.Format("2006-01-02"), s.SpanDays)
	}
	fmt.Fprintf(&b, "- **Days with listening activity:** %d\n", s.ActiveDays)
	fmt.Fprintf(&b, "- **Songs played:** %d\n", s.TotalPlays)
	fmt.Fprintf(&b, "- **Songs played for at least %.0f seconds:** %d\n", seconds, s.SubstantialPlays)
	fmt.Fprintf(&b, "- **Songs played to the end:** %d\n", s.CompletedPlays)
	fmt.Fprintf(&b, "- **Different songs:** %d\n", s.DistinctTracks)
	fmt.Fprintf(&b, "- **Total listening time:** %.2f days (%.2f hours) (%.2f minutes)\n",
		s.TotalDays(), s.TotalHours(), s.TotalMinutes())
	fmt.Fprintf(&b, "- **Average listening time per day:** %.2f minutes\n", s.TotalMinutes()/span)
	fmt.Fprintf(&b, "- **Average listening time per active day:** %.2f minutes\n", s.TotalMinutes()/active)
	fmt.Fprintf(&b, "- **Average listening time per song:** %.2f minutes\n", s.TotalMinutes()/plays)
	fmt.Fprintf(&b, "- **Average songs (min %.0fs) per day:** %.2f\n", seconds, float64(s.SubstantialPlays)/span)
	fmt.Fprintf(&b, "- **Average songs (min %.0fs) per active day:** %.2f\n", seconds, float64(s.SubstantialPlays)/active)
	doc.Append(b.String())
}

func (r *run) writeActivity(doc *Document) {
	agg := r.g.agg
	doc.Append("## Listening activity over time")
	if r.summary.SpanDays == 0 {
		return
	}

	monthly := domain.SingleSeries(domain.ChartBar, "songs_per_month", "Songs per month", "songs",
		agg.MonthlyPlays(r.events))
	if img, ok := r.chart(monthly); ok {
		doc.Appendf("### Listening activity per month\n![songs per month](./%s)", img)
	}

	weekday := domain.SingleSeries(domain.ChartBar, "songs_per_day_in_week", "Average songs per weekday", "songs",
		agg.WeekdayPlays(r.events))
	if img, ok := r.chart(weekday); ok {
		doc.Appendf("### Listening activity per weekday\n![average songs per weekday](./%s)", img)
	}

	hours := make([]string, 24)
	for h := range hours {
		hours[h] = strconv.Itoa(h)
	}
	for _, q := range agg.HourlyActivityByQuarter(r.events) {
		c := domain.Chart{
			Kind:   domain.ChartLine,
			Name:   "songs_per_hour_" + q.Quarter,
			Title:  fmt.Sprintf("Average minutes per hour: %s to %s", q.Start.Format("2006-01-02"), q.End.Format("2006-01-02")),
			YLabel: "minutes",
			YMax:   60,
			Labels: hours,
		}
		for i, wd := range stats.Weekdays {
			c.Series = append(c.Series, domain.ChartSeries{Name: wd.String(), Values: q.Minutes[i][:]})
		}
		if img, ok := r.chart(c); ok {
			doc.Appendf("### Listening activity per hour: %s to %s\n![minutes per hour %s](./%s)",
				q.Start.Format("2006-01-02"), q.End.Format("2006-01-02"), q.Quarter, img)
		}
	}
}

func (r *run) writeTopSongs(doc *Document) {
	agg := r.g.agg
	doc.Append("## Top songs")

	doc.Append("### Top songs (overall)")
	r.appendTrackList(doc, agg.TopTracks(r.events, r.g.opts.TopSongs))

	for _, m := range agg.MonthlyTopTracks(r.events, r.g.opts.TopSongs) {
		doc.Appendf("\n### Top songs in %s", m.Month)
		r.appendTrackList(doc, m.Tracks)
	}
}

func (r *run) appendTrackList(doc *Document, tracks []domain.TrackStat) {
	for i, t := range tracks {
		if heading, ok := rankBand(i); ok {
			doc.Append(heading)
		}
		doc.Appendf("%d. **%s** by %s – **%d** plays",
			t.Rank, r.songLink(t.TrackID, t.TrackName, "./"), r.artistLink(t.ArtistName, "./"), t.Plays)
	}
}

func (r *run) writeTopArtists(doc *Document) {
	agg := r.g.agg
	doc.Append("## Top artists")

	doc.Append("### Top artists (overall)")
	top := agg.TopArtistsByPlaytime(r.events, r.g.opts.TopArtists)
	for i, a := range top {
		if heading, ok := rankBand(i); ok {
			doc.Append(heading)
		}
		doc.Appendf("%d. **%s** with **%.2f hours** played", a.Rank, r.artistLink(a.Identity, "./"), a.Value/3600000)
	}

	for _, m := range agg.MonthlyTopArtists(r.events, r.g.opts.MonthlyArtists) {
		doc.Appendf("\n### Top artists in %s", m.Month)
		for _, a := range m.Artists {
			doc.Appendf("%d. **%s** – **%.2f hours**", a.Rank, r.artistLink(a.Identity, "./"), a.Value/3600000)
		}
	}

	names := make([]string, 0, topArtistsChart)
	for _, a := range agg.TopArtistsByPlaytime(r.events, topArtistsChart) {
		names = append(names, a.Identity)
	}
	labels, series := agg.ArtistMonthlyHours(r.events, names)
	c := domain.Chart{
		Kind:   domain.ChartLine,
		Name:   "top10_artists_per_month",
		Title:  "Top 10 artists: hours per month",
		YLabel: "hours",
		Labels: labels,
		Series: series,
	}
	if img, ok := r.chart(c); ok {
		doc.Appendf("### Top 10 artists: hours per month\n![top 10 artists per month](./%s)", img)
	}
}

// writeArtistsDocument lists the artists that were considered for detail pages.
func (r *run) writeArtistsDocument(top []domain.RankedEntity) error {
	doc := NewDocument(r.path(fileArtists))
	doc.Appendf("# Artists\n### Top %d artists", len(top))
	for _, a := range top {
		doc.Appendf("%d. **%s** with **%.2f hours** played", a.Rank, r.artistLink(a.Identity, "./"), a.Value/3600000)
	}
	doc.Appendf("\n%s", wikiLink("./"+fileGeneral, "Back to the overview"))
	return doc.Err()
}

func (r *run) writeSongsDocument() error {
	doc := NewDocument(r.path(fileSongs))
	tracks := r.g.agg.TopTracks(r.events, 0)
	doc.Appendf("# Songs\n### All %d songs", len(tracks))
	for _, t := range tracks {
		doc.Appendf("%d. **%s** by %s – **%d** plays",
			t.Rank, r.songLink(t.TrackID, t.TrackName, "./"), r.artistLink(t.ArtistName, "./"), t.Plays)
	}
	doc.Appendf("\n%s", wikiLink("./"+fileGeneral, "Back to the overview"))
	return doc.Err()
}
