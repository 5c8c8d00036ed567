package lastfm

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/jpp0ca/ListeningStats/internal/domain"
)

// -- API response types (internal) ------------------------------------------

type trackResponse struct {
	Track *trackData `json:"track"`
}

type trackData struct {
	Name     string     `json:"name"`
	URL      string     `json:"url"`
	Duration looseInt   `json:"duration"`
	Artist   artistRef  `json:"artist"`
	Album    *albumData `json:"album"`
	TopTags  tagList    `json:"toptags"`
	Wiki     *wikiData  `json:"wiki"`
}

type artistRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type albumData struct {
	Artist string      `json:"artist"`
	Title  string      `json:"title"`
	URL    string      `json:"url"`
	Image  []imageData `json:"image"`
}

type imageData struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

type wikiData struct {
	Published string `json:"published"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
}

type artistResponse struct {
	Artist *artistData `json:"artist"`
}

type artistData struct {
	Name string    `json:"name"`
	URL  string    `json:"url"`
	Tags tagList   `json:"tags"`
	Bio  *wikiData `json:"bio"`
}

type tagData struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// tagList accepts {"tag": [...]}, {"tag": {...}} and the empty string Last.fm
// sends when an entity has no tags.
type tagList []tagData

func (t *tagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*t = nil
		return nil
	}

	var wrapper struct {
		Tag json.RawMessage `json:"tag"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}

	raw := bytes.TrimSpace(wrapper.Tag)
	switch {
	case len(raw) == 0:
		*t = nil
	case raw[0] == '[':
		var tags []tagData
		if err := json.Unmarshal(raw, &tags); err != nil {
			return err
		}
		*t = tags
	case raw[0] == '{':
		var tag tagData
		if err := json.Unmarshal(raw, &tag); err != nil {
			return err
		}
		*t = []tagData{tag}
	default:
		*t = nil
	}
	return nil
}

// looseInt accepts a JSON number or a numeric string.
type looseInt int64

func (n *looseInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		v = int64(f)
	}
	*n = looseInt(v)
	return nil
}

// -- Decoding ----------------------------------------------------------------

// DecodeTrack turns a track.getInfo payload into track metadata.
// It returns nil, nil for an empty payload or one without a track object.
func (p *Provider) DecodeTrack(payload []byte) (*domain.TrackInfo, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}

	var resp trackResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse track payload: %w", err)
	}
	if resp.Track == nil {
		return nil, nil
	}

	t := resp.Track
	info := &domain.TrackInfo{
		Name:       t.Name,
		URL:        t.URL,
		DurationMs: int64(t.Duration),
		Artist:     domain.ArtistRef{Name: t.Artist.Name, URL: t.Artist.URL},
		Tags:       toTags(t.TopTags),
		Wiki:       toWiki(t.Wiki),
	}

	if t.Album != nil && (t.Album.Title != "" || t.Album.URL != "") {
		album := &domain.AlbumInfo{
			Title:  t.Album.Title,
			Artist: t.Album.Artist,
			URL:    t.Album.URL,
		}
		for _, img := range t.Album.Image {
			if img.URL == "" {
				continue
			}
			album.Images = append(album.Images, domain.Image{URL: img.URL, Size: img.Size})
		}
		info.Album = album
	}

	return info, nil
}

// DecodeArtist turns an artist.getinfo payload into artist metadata.
func (p *Provider) DecodeArtist(payload []byte) (*domain.ArtistInfo, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}

	var resp artistResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse artist payload: %w", err)
	}
	if resp.Artist == nil {
		return nil, nil
	}

	a := resp.Artist
	return &domain.ArtistInfo{
		Name: a.Name,
		URL:  a.URL,
		Tags: toTags(a.Tags),
		Bio:  toWiki(a.Bio),
	}, nil
}

// -- Helpers -----------------------------------------------------------------

func toTags(list tagList) []domain.Tag {
	if len(list) == 0 {
		return nil
	}
	tags := make([]domain.Tag, 0, len(list))
	for _, t := range list {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		tags = append(tags, domain.Tag{Name: t.Name, URL: t.URL})
	}
	return tags
}

func toWiki(w *wikiData) *domain.Wiki {
	if w == nil || (w.Summary == "" && w.Content == "") {
		return nil
	}
	return &domain.Wiki{Published: w.Published, Summary: w.Summary, Content: w.Content}
}
