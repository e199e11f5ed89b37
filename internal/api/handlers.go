// Package api serves the punt archive and live feed over HTTP: recent and
// top punts, a what-if calculator, today's slate, and the websocket feed.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/andrew-shackelford/Surrender-Index/internal/hub"
	"github.com/andrew-shackelford/Surrender-Index/internal/nfl"
	"github.com/andrew-shackelford/Surrender-Index/internal/poller"
	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
	"github.com/andrew-shackelford/Surrender-Index/pkg/surrender"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// PuntStore reads the punt archive.
type PuntStore interface {
	RecentPunts(ctx context.Context, limit int) ([]models.PuntRecord, error)
	TopPunts(ctx context.Context, season, limit int) ([]models.PuntRecord, error)
	GetPunt(ctx context.Context, puntID int64) (*models.PuntRecord, error)
	CountPunts(ctx context.Context, season int) (int, error)
	Ping(ctx context.Context) error
}

// GameCache reads the cached scoreboard.
type GameCache interface {
	ReadScoreboard(ctx context.Context) ([]models.ScheduledGame, error)
	Ping(ctx context.Context) error
}

// TweetBucket reports the remaining main account budget.
type TweetBucket interface {
	Tokens(ctx context.Context) (int, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	store       PuntStore
	cache       GameCache
	hub         *hub.Hub
	bucket      TweetBucket
	percentiles *surrender.PercentileIndex
	season      int
	startedAt   time.Time
	ctx         context.Context // lifetime of websocket pumps
	logger      *zap.SugaredLogger
}

// NewHandler creates a new handler with dependencies
func NewHandler(
	store PuntStore,
	cache GameCache,
	h *hub.Hub,
	bucket TweetBucket,
	percentiles *surrender.PercentileIndex,
	season int,
	ctx context.Context,
	logger *zap.SugaredLogger,
) *Handler {
	return &Handler{
		store:       store,
		cache:       cache,
		hub:         h,
		bucket:      bucket,
		percentiles: percentiles,
		season:      season,
		startedAt:   time.Now(),
		ctx:         ctx,
		logger:      logger,
	}
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
		return
	}
	if err := h.cache.Ping(ctx); err != nil {
		h.respondError(w, http.StatusServiceUnavailable, "cache unhealthy", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "surrender-index",
	})
}

// GetStatus reports what the bot is tracking this season.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := h.store.CountPunts(ctx, h.season)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to count punts", err)
		return
	}

	status := map[string]interface{}{
		"season":            h.season,
		"uptime":            time.Since(h.startedAt).Round(time.Second).String(),
		"punts_this_season": count,
		"season_samples":    h.percentiles.SeasonCount(),
		"history_samples":   h.percentiles.HistoryCount(),
		"hub":               h.hub.Metrics(),
	}
	if games, err := h.cache.ReadScoreboard(ctx); err == nil {
		status["games_today"] = len(games)
	}
	if h.bucket != nil {
		if tokens, err := h.bucket.Tokens(ctx); err == nil {
			status["tweet_tokens"] = tokens
		}
	}

	h.respondJSON(w, http.StatusOK, status)
}

// GetRecentPunts retrieves the latest detected punts
// Query params: limit
func (h *Handler) GetRecentPunts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := parseIntParam(r, "limit", 25)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 1
	}

	punts, err := h.store.RecentPunts(ctx, limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve punts", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"punts": punts,
		"count": len(punts),
		"limit": limit,
	})
}

// GetTopPunts retrieves the highest Surrender Indices of a season
// Query params: limit, season
func (h *Handler) GetTopPunts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := parseIntParam(r, "limit", 10)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 1
	}
	season := parseIntParam(r, "season", h.season)

	punts, err := h.store.TopPunts(ctx, season, limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve punts", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"punts":  punts,
		"count":  len(punts),
		"season": season,
	})
}

// GetPunt retrieves a single punt by ID
func (h *Handler) GetPunt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	puntID, err := strconv.ParseInt(chi.URLParam(r, "puntID"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "punt ID must be an integer", nil)
		return
	}

	punt, err := h.store.GetPunt(ctx, puntID)
	if errors.Is(err, sql.ErrNoRows) {
		h.respondError(w, http.StatusNotFound, "punt not found", nil)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve punt", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"punt": punt})
}

type scheduledGameStatus struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Kickoff time.Time `json:"kickoff"`
	Active  bool      `json:"active"`
}

// GetTodaysGames returns this week's slate with a flag for games currently
// inside their polling window.
func (h *Handler) GetTodaysGames(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	games, err := h.cache.ReadScoreboard(ctx)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to retrieve scoreboard", err)
		return
	}

	now := time.Now()
	statuses := make([]scheduledGameStatus, 0, len(games))
	for _, game := range games {
		statuses = append(statuses, scheduledGameStatus{
			ID:      game.ID,
			Name:    game.Name,
			Kickoff: game.Kickoff,
			Active:  poller.InActiveWindow(game.Kickoff, now),
		})
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"games": statuses,
		"count": len(statuses),
	})
}

type previewRequest struct {
	Team                 string `json:"team,omitempty"` // full name or abbreviation
	YardLine             int    `json:"yard_line"`
	OpposingTerritory    bool   `json:"opposing_territory"`
	Distance             int    `json:"distance"`
	ScoreDiff            int    `json:"score_diff"`
	Quarter              int    `json:"quarter"`
	SecondsSinceHalftime int    `json:"seconds_since_halftime"`
}

// PreviewSurrender scores a hypothetical punt without recording it.
func (h *Handler) PreviewSurrender(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if req.YardLine < 0 || req.YardLine > 50 {
		h.respondError(w, http.StatusBadRequest, "yard_line must be between 0 and 50", nil)
		return
	}
	if req.Distance < 0 {
		h.respondError(w, http.StatusBadRequest, "distance must not be negative", nil)
		return
	}
	if req.SecondsSinceHalftime < 0 {
		req.SecondsSinceHalftime = 0
	}

	index := surrender.Index(surrender.Situation{
		YardLine:             req.YardLine,
		OpposingTerritory:    req.OpposingTerritory,
		Distance:             req.Distance,
		ScoreDiff:            req.ScoreDiff,
		Quarter:              req.Quarter,
		SecondsSinceHalftime: req.SecondsSinceHalftime,
	})
	seasonPct, historyPct := h.percentiles.Rank(index)

	result := map[string]interface{}{
		"surrender_index":    index,
		"season_percentile":  seasonPct,
		"history_percentile": historyPct,
	}
	if req.Team != "" {
		result["team"] = nfl.GetTeamName(nfl.GetTeamAbbreviation(req.Team))
	}

	h.respondJSON(w, http.StatusOK, result)
}

// HandleWebSocket upgrades HTTP connections to the live punt feed
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("WebSocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.New().String()
	c := hub.NewClient(clientID, conn, h.hub, h.logger)

	h.hub.Register(c)
	c.SendWelcome()

	// Pumps outlive the request, so they run on the handler context.
	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx)

	h.logger.Infow("WebSocket connection established", "client_id", clientID)
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorw("Failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.logger.Errorw(message, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		h.logger.Errorw("Failed to encode error response", "error", err)
	}
}
