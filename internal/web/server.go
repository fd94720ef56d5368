// Package web exposes the recognition system over HTTP: a JSON API for the
// enrolled gallery, photo matching, and a browser-friendly MJPEG feed.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/facewatch/internal/gallery"
	"github.com/kozaktomas/facewatch/internal/stream"
	"github.com/kozaktomas/facewatch/internal/vision"
	"github.com/kozaktomas/facewatch/internal/web/handlers"
	"github.com/kozaktomas/facewatch/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
}

// Deps are the collaborators the handlers need. The stream controller is
// optional; without one the MJPEG endpoint reports the camera unavailable.
type Deps struct {
	Store      gallery.Store
	Detector   vision.Detector
	Embedder   vision.Embedder
	Controller *stream.Controller
}

// NewServer creates a new web server
func NewServer(deps Deps, host string, port int) *Server {
	r := chi.NewRouter()

	s := &Server{router: r}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes(deps)

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// The MJPEG feed writes for as long as the browser stays; no write
		// timeout on purpose.
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
