package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/secmon-lab/docrev/pkg/usecase"
	"github.com/secmon-lab/docrev/pkg/utils/safe"
)

// Server is the HTTP front of the review service
type Server struct {
	router   *chi.Mux
	usecases *usecase.UseCases
}

type Options func(*Server)

// New creates the HTTP server for the given use cases
func New(usecases *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		usecases: usecases,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", chatHandler(usecases.Chat))
		r.Post("/workflow", workflowHandler(usecases.Workflow))
		r.Get("/history", historyHandler(usecases.History))
	})

	r.Get("/health", healthHandler)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	safe.Write(r.Context(), w, []byte(`{"status":"ok"}`))
}
