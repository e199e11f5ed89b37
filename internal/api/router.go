package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter assembles the route table with the middleware stack shared by
// every endpoint, the websocket upgrade included.
func NewRouter(h *Handler, corsOrigins []string, logger *zap.SugaredLogger) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.GetStatus)

		// Punts
		r.Get("/punts", h.GetRecentPunts)
		r.Get("/punts/top", h.GetTopPunts)
		r.Get("/punts/{puntID}", h.GetPunt)

		// Games on today's scoreboard
		r.Get("/games/today", h.GetTodaysGames)

		// Hypothetical punt scoring
		r.Post("/surrender/preview", h.PreviewSurrender)
	})

	r.Get("/ws", h.HandleWebSocket)

	return r
}

// requestLogger emits one structured line per request after the response is
// written. Websocket upgrades hijack the connection, so their line carries a
// zero status and the connection lifetime as the duration.
func requestLogger(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Infow("Request served",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", chimiddleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
