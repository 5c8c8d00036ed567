package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpp0ca/ListeningStats/internal/logging"
	"github.com/jpp0ca/ListeningStats/internal/ports"
)

const (
	defaultTopSongs   = 25
	defaultTopArtists = 40
)

// Handler holds the HTTP handlers for the listening statistics API.
type Handler struct {
	service ports.StatsService
}

// NewHandler creates a new HTTP handler with the given stats service.
func NewHandler(service ports.StatsService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up all API routes on the given Gin engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.GET("/summary", h.Summary)
		api.GET("/top/songs", h.TopSongs)
		api.GET("/top/artists", h.TopArtists)
		api.GET("/activity/monthly", h.MonthlyActivity)
		api.GET("/activity/weekday", h.WeekdayActivity)
	}
}

// Health returns a simple health check response.
//
//	@Summary		Health check
//	@Description	Returns the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Summary returns the headline numbers of the loaded history.
//
//	@Summary		History summary
//	@Description	Returns date range, active days, play counts and total listening time of the loaded history.
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	domain.Summary
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/summary [get]
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// TopSongs returns the most played songs.
//
//	@Summary		Top songs
//	@Description	Ranks songs by plays that lasted at least the configured minimum duration.
//	@Tags			stats
//	@Produce		json
//	@Param			limit	query		int	false	"Number of songs (0 for all)"	default(25)
//	@Success		200		{array}		domain.TrackStat
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/v1/top/songs [get]
func (h *Handler) TopSongs(c *gin.Context) {
	limit, ok := parseLimit(c, defaultTopSongs)
	if !ok {
		return
	}

	tracks, err := h.service.TopTracks(c.Request.Context(), limit)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, tracks)
}

// TopArtists returns the artists with the most listening time.
//
//	@Summary		Top artists
//	@Description	Ranks artists by total listening time in hours.
//	@Tags			stats
//	@Produce		json
//	@Param			limit	query		int	false	"Number of artists (0 for all)"	default(40)
//	@Success		200		{array}		domain.ArtistStat
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/v1/top/artists [get]
func (h *Handler) TopArtists(c *gin.Context) {
	limit, ok := parseLimit(c, defaultTopArtists)
	if !ok {
		return
	}

	artists, err := h.service.TopArtists(c.Request.Context(), limit)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, artists)
}

// MonthlyActivity returns the number of plays per month.
//
//	@Summary		Plays per month
//	@Description	Returns one point per calendar month between the first and last play, empty months included.
//	@Tags			activity
//	@Produce		json
//	@Success		200	{array}		domain.SeriesPoint
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/activity/monthly [get]
func (h *Handler) MonthlyActivity(c *gin.Context) {
	series, err := h.service.MonthlyActivity(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// WeekdayActivity returns the average number of plays per weekday.
//
//	@Summary		Average plays per weekday
//	@Description	Returns Monday to Sunday the plays divided by the number of days with activity on that weekday.
//	@Tags			activity
//	@Produce		json
//	@Success		200	{array}		domain.SeriesPoint
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/activity/weekday [get]
func (h *Handler) WeekdayActivity(c *gin.Context) {
	series, err := h.service.WeekdayActivity(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// parseLimit reads ?limit=, writing a 400 response when it is not a
// non-negative integer.
func parseLimit(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "query parameter 'limit' must be a non-negative integer",
		})
		return 0, false
	}
	return limit, true
}

func internalError(c *gin.Context, err error) {
	log := logging.Component("http")
	log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}
