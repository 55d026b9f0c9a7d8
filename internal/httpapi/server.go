// Package httpapi exposes the assembled chat data over HTTP and
// WebSocket. It owns request-scoped concerns the reader deliberately
// does not: timeouts, attachment path resolution, and not-found
// mapping.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"imsgd/internal/chatdb"
	"imsgd/internal/send"
	"imsgd/internal/status"
)

// Store is the read surface the API serves. *chatdb.Reader satisfies
// it.
type Store interface {
	ListConversations() ([]chatdb.Conversation, error)
	GetConversation(id int64) (*chatdb.Conversation, error)
	GetMessages(convID int64, limit int, beforeMS int64) (*chatdb.MessagePage, error)
}

// Options configures the server.
type Options struct {
	ListenAddr     string
	AttachmentRoot string
}

// Server serves the REST and WebSocket API.
type Server struct {
	opts    Options
	store   Store
	hub     *Hub
	sender  send.Sender // nil disables sending
	machine *status.Machine
	logger  *zap.Logger
	httpSrv *http.Server
}

// NewServer builds the server and its routes. sender and machine may
// be nil.
func NewServer(opts Options, store Store, hub *Hub, sender send.Sender, machine *status.Machine, logger *zap.Logger) *Server {
	s := &Server{
		opts:    opts,
		store:   store,
		hub:     hub,
		sender:  sender,
		machine: machine,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ws", s.handleWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(15 * time.Second))
			r.Get("/status", s.handleStatus)
			r.Get("/conversations", s.handleListConversations)
			r.Get("/conversations/{id}", s.handleGetConversation)
			r.Get("/conversations/{id}/messages", s.handleGetMessages)
			r.Post("/conversations/{id}/messages", s.handleSendMessage)
			r.Get("/attachments/*", s.handleAttachment)
		})
	})

	s.httpSrv = &http.Server{
		Addr:              opts.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the route tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start serves until Shutdown. Blocks.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("addr", s.opts.ListenAddr))
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown performs a graceful shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping")
	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
