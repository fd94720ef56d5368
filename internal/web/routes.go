package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/facewatch/internal/web/handlers"
)

func (s *Server) setupRoutes(deps Deps) {
	peopleHandler := handlers.NewPeopleHandler(deps.Store, deps.Detector, deps.Embedder)
	matchHandler := handlers.NewMatchHandler(deps.Store, deps.Detector, deps.Embedder, deps.Controller)
	streamHandler := handlers.NewStreamHandler(deps.Controller)
	statsHandler := handlers.NewStatsHandler(deps.Store, deps.Controller)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Gallery
		r.Get("/people", peopleHandler.List)
		r.Post("/people", peopleHandler.Create)
		r.Get("/people/{id}", peopleHandler.Get)

		// One-shot photo matching
		r.Post("/match", matchHandler.Match)

		// Live feed
		r.Get("/stream", streamHandler.Stream)

		// Stats
		r.Get("/stats", statsHandler.Get)
	})

	s.router.Get("/", s.serveIndex)
}

// serveIndex serves a minimal landing page pointing at the live feed.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Facewatch</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        img { border-radius: 8px; max-width: 90vw; }
        a { color: #00d9ff; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Facewatch</h1>
        <img src="/api/v1/stream" alt="live feed">
        <p>API is available at <a href="/api/v1/health">/api/v1/health</a></p>
    </div>
</body>
</html>`))
}
