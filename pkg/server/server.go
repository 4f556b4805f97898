/*
Roles of server:
- Edit recordings posted by clients and hand back the result
- Keep a journal of saved edits
- Replay saved edits to viewers via websocket
*/
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/qnkhuat/castedit/pkg/journal"
)

type Server struct {
	addr   string
	db     *journal.DB
	server *http.Server
}

func New(addr string, db *journal.DB) *Server {
	return &Server{
		addr: addr,
		db:   db,
	}
}

// Handler returns the routes of the server wrapped with CORS.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", handleHealth).Methods("GET")
	router.HandleFunc("/api/edit", s.handleEdit).Methods("POST")
	router.HandleFunc("/api/edits", s.handleListEdits).Methods("GET")
	router.HandleFunc("/api/edits/{id:[0-9]+}", s.handleGetEdit).Methods("GET")
	router.HandleFunc("/api/edits/{id:[0-9]+}/cast", s.handleGetCast).Methods("GET")
	router.HandleFunc("/api/edits/{id:[0-9]+}/ws", s.handleReplay).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		ExposedHeaders: []string{"X-Edit-Id"},
	})
	return c.Handler(router)
}

// Start serves until the server is stopped.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Serving at: %s", s.addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) { // blocking call
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
