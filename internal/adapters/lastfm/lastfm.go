// Package lastfm implements ports.MetadataProvider on the Last.fm web API.
package lastfm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/metrics"
)

// DefaultBaseURL is the public Last.fm API root.
const DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

const (
	methodTrackInfo  = "track.getInfo"
	methodArtistInfo = "artist.getinfo"

	// errNotFound is the Last.fm error code for an unknown track or artist.
	errNotFound = 6
)

// Provider implements ports.MetadataProvider for Last.fm.
type Provider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewProvider creates a new Last.fm provider with the given HTTP client.
// If client is nil, http.DefaultClient is used; an empty baseURL means DefaultBaseURL.
func NewProvider(client *http.Client, baseURL, apiKey string) *Provider {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{client: client, baseURL: baseURL, apiKey: apiKey}
}

func (p *Provider) Name() string {
	return "lastfm"
}

// -- API error envelope (internal) -------------------------------------------

type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// APIError is a Last.fm error returned inside an HTTP 200 response.
type APIError struct {
	Method  string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lastfm: %s returned error %d: %s", e.Method, e.Code, e.Message)
}

// -- MetadataProvider implementation -----------------------------------------

func (p *Provider) FetchTrack(ctx context.Context, artist, track string) ([]byte, error) {
	params := url.Values{}
	params.Set("artist", artist)
	params.Set("track", track)

	body, err := p.call(ctx, methodTrackInfo, params)
	if err != nil {
		return nil, fmt.Errorf("lastfm: failed to get track info for %q - %q: %w", artist, track, err)
	}
	return body, nil
}

func (p *Provider) FetchArtist(ctx context.Context, artist string) ([]byte, error) {
	params := url.Values{}
	params.Set("artist", artist)

	body, err := p.call(ctx, methodArtistInfo, params)
	if err != nil {
		return nil, fmt.Errorf("lastfm: failed to get artist info for %q: %w", artist, err)
	}
	return body, nil
}

// call performs one API method and classifies the answer. A "not found" error
// comes back as a nil body and nil error.
func (p *Provider) call(ctx context.Context, method string, params url.Values) ([]byte, error) {
	if p.apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}

	params.Set("method", method)
	params.Set("api_key", p.apiKey)
	params.Set("format", "json")

	body, err := p.doGet(ctx, method, p.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", method, err)
	}
	switch apiErr.Code {
	case 0:
		return body, nil
	case errNotFound:
		return nil, nil
	default:
		return nil, &APIError{Method: method, Code: apiErr.Code, Message: apiErr.Message}
	}
}

// -- HTTP helpers ------------------------------------------------------------

func (p *Provider) doGet(ctx context.Context, method, endpoint string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.ProviderRequestDuration.WithLabelValues(p.Name(), method).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lastfm API returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
