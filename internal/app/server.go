package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/mindease/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/mindease/internal/api/middlewares"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	app        *App
}

// NewServer builds and wires all routes.
func NewServer(a *App, health handlers.Pinger) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           Routes(a, health),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, app: a}
}

// Routes returns the API router.
func Routes(a *App, health handlers.Pinger) http.Handler {
	personaHandler := handlers.NewPersonaHandler(a.Personas)
	chatHandler := handlers.NewChatHandler(a.Chat)
	journalHandler := handlers.NewJournalHandler(a.Journals, a.Moods)
	healthHandler := handlers.NewHealthHandler(health)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", healthHandler.Healthz)

	r.Route("/api", func(api chi.Router) {
		api.Get("/questionnaire", personaHandler.Questionnaire)

		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(a.Config.JWTSecret))

			protected.Post("/persona", personaHandler.Assign)
			protected.Get("/persona", personaHandler.Get)

			protected.Post("/chat", chatHandler.Send)
			protected.Get("/chat/history", chatHandler.History)

			protected.Post("/journal", journalHandler.Create)
			protected.Post("/journal/analyze", journalHandler.Analyze)
			protected.Get("/journal", journalHandler.List)

			protected.Post("/moods", journalHandler.LogMood)
			protected.Get("/insights", journalHandler.Insights)
		})
	})

	return r
}

// Start runs the HTTP server and, when configured, the reminder ticker.
// It returns when ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s.app.Config.NotifyInterval > 0 {
		go s.app.Notifier.Run(ctx, s.app.Config.NotifyInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		s.app.Logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
