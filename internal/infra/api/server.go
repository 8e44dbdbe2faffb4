package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"newsmap/internal/usecase"
)

type Server struct {
	jobs    usecase.Dispatcher
	news    usecase.NewsAggregator
	quota   usecase.QuotaArbiter
	auth    *AuthManager
	limiter Limiter
	ws      http.Handler
	opts    Options
	log     *zerolog.Logger
}

type Options struct {
	RequestTimeout  time.Duration
	SubmitPerMinute int
}

// NewServer wires the handlers. limiter and ws may be nil; the submit limit
// and the /ws route are then left out.
func NewServer(
	jobs usecase.Dispatcher,
	news usecase.NewsAggregator,
	quota usecase.QuotaArbiter,
	auth *AuthManager,
	limiter Limiter,
	ws http.Handler,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{
		jobs:    jobs,
		news:    news,
		quota:   quota,
		auth:    auth,
		limiter: limiter,
		ws:      ws,
		opts:    opts,
		log:     &l,
	}
}

// Routes builds the full HTTP surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	if s.ws != nil {
		// long-lived; kept outside the request timeout
		r.Handle("/ws", s.ws)
	}

	r.Group(func(r chi.Router) {
		r.Use(Timeout(s.opts.RequestTimeout))

		r.Route("/api/bias", func(r chi.Router) {
			r.With(RateLimit(s.limiter, "submit", s.opts.SubmitPerMinute, time.Minute, s.log)).
				Post("/jobs", s.handleSubmit)
			r.Get("/jobs/{jobId}", s.handleStatus)
			r.Get("/queue/stats", s.handleStats)
		})

		r.Route("/api/news", func(r chi.Router) {
			r.Get("/", s.handleNews)
			r.Get("/category/{category}", s.handleNewsByCategory)
			r.Get("/quota", s.handleQuota)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(s.auth.RequireAdmin)
			r.Post("/news/invalidate", s.handleInvalidate)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"mode":   s.jobs.Mode(),
		"time":   time.Now().UTC(),
	})
}
