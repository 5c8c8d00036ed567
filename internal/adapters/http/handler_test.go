package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpp0ca/ListeningStats/internal/domain"
)

// -- Mock service ------------------------------------------------------------

type mockStatsService struct {
	summary   *domain.Summary
	tracks    []domain.TrackStat
	artists   []domain.ArtistStat
	monthly   []domain.SeriesPoint
	weekday   []domain.SeriesPoint
	lastLimit int
	err       error
}

func (m *mockStatsService) Summary(context.Context) (*domain.Summary, error) {
	return m.summary, m.err
}

func (m *mockStatsService) TopTracks(_ context.Context, limit int) ([]domain.TrackStat, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.tracks, nil
}

func (m *mockStatsService) TopArtists(_ context.Context, limit int) ([]domain.ArtistStat, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.artists, nil
}

func (m *mockStatsService) MonthlyActivity(context.Context) ([]domain.SeriesPoint, error) {
	return m.monthly, m.err
}

func (m *mockStatsService) WeekdayActivity(context.Context) ([]domain.SeriesPoint, error) {
	return m.weekday, m.err
}

// -- Helpers -----------------------------------------------------------------

func setupRouter(svc *mockStatsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(svc)
	h.RegisterRoutes(r)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

// -- Tests -------------------------------------------------------------------

func TestHealth(t *testing.T) {
	r := setupRouter(&mockStatsService{})

	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestSummary_Success(t *testing.T) {
	r := setupRouter(&mockStatsService{summary: &domain.Summary{TotalPlays: 42, ActiveDays: 3}})

	w := get(r, "/api/v1/summary")
	assert.Equal(t, http.StatusOK, w.Code)

	var s domain.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, 42, s.TotalPlays)
	assert.Equal(t, 3, s.ActiveDays)
}

func TestTopSongs_DefaultLimit(t *testing.T) {
	svc := &mockStatsService{
		tracks: []domain.TrackStat{
			{Rank: 1, TrackID: "spotify:track:1", TrackName: "Bohemian Rhapsody", ArtistName: "Queen", Plays: 12},
		},
	}
	r := setupRouter(svc)

	w := get(r, "/api/v1/top/songs")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultTopSongs, svc.lastLimit)

	var tracks []domain.TrackStat
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tracks))
	assert.Len(t, tracks, 1)
	assert.Equal(t, 12, tracks[0].Plays)
}

func TestTopSongs_ExplicitLimit(t *testing.T) {
	svc := &mockStatsService{}
	r := setupRouter(svc)

	w := get(r, "/api/v1/top/songs?limit=5")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, svc.lastLimit)
}

func TestTopSongs_InvalidLimit(t *testing.T) {
	r := setupRouter(&mockStatsService{})

	for _, q := range []string{"abc", "-1"} {
		w := get(r, "/api/v1/top/songs?limit="+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestTopArtists_Success(t *testing.T) {
	svc := &mockStatsService{artists: []domain.ArtistStat{{Rank: 1, Name: "Queen", Hours: 4.5}}}
	r := setupRouter(svc)

	w := get(r, "/api/v1/top/artists")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultTopArtists, svc.lastLimit)

	var artists []domain.ArtistStat
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artists))
	assert.Equal(t, "Queen", artists[0].Name)
}

func TestActivity(t *testing.T) {
	svc := &mockStatsService{
		monthly: []domain.SeriesPoint{{Key: "2024-01", Value: 3}, {Key: "2024-02", Value: 0}},
		weekday: []domain.SeriesPoint{{Key: "Monday", Value: 1.5}},
	}
	r := setupRouter(svc)

	w := get(r, "/api/v1/activity/monthly")
	assert.Equal(t, http.StatusOK, w.Code)
	var monthly []domain.SeriesPoint
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &monthly))
	assert.Equal(t, svc.monthly, monthly)

	w = get(r, "/api/v1/activity/weekday")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Monday")
}

func TestServiceError(t *testing.T) {
	r := setupRouter(&mockStatsService{err: errors.New("boom")})

	w := get(r, "/api/v1/summary")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body.Error)
	assert.Equal(t, "boom", body.Message)
}

func TestMetrics(t *testing.T) {
	r := setupRouter(&mockStatsService{})

	w := get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "go_goroutines"))
}
