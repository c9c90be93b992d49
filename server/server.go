// Package server exposes a Client over a WebSocket endpoint.
//
// A client connects to /stream with the query in the URL, the server
// runs it and writes one Event per message, followed by an end event
// or an error event.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xhd2015/clau/cli"
	"github.com/xhd2015/clau/session"
	"github.com/xhd2015/clau/types"
)

// ServerOptions represents the configuration options for the stream server
type ServerOptions struct {
	Verbose bool // Enable verbose logging

	// Config is the base configuration of every query,
	// request parameters override it
	Config types.Config

	// ClientOptions are passed to cli.NewClient, e.g. cli.WithExecutor
	ClientOptions []cli.ClientOption

	// Sessions records the session ids seen in responses,
	// a fresh manager is used when nil
	Sessions *session.Manager
}

// Server represents the stream server
type Server struct {
	port     int
	opts     ServerOptions
	sessions *session.Manager
	server   *http.Server
}

// NewServer creates a new stream server
func NewServer(port int, opts ServerOptions) (*Server, error) {
	if opts.Config.Binary == "" {
		opts.Config = types.DefaultConfig()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewManager()
	}
	return &Server{
		port:     port,
		opts:     opts,
		sessions: sessions,
	}, nil
}

// Start starts the HTTP server
func Start(port int, opts ServerOptions) error {
	server, err := NewServer(port, opts)
	if err != nil {
		return err
	}
	return server.Start()
}

// Handler serves /stream, /sessions and /shutdown
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.handleWebSocket)
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/shutdown", s.handleShutdown)
	return mux
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting stream server on %s", addr)
	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.server = server

	err := server.ListenAndServe()
	if err != nil {
		if err == http.ErrServerClosed {
			log.Println("Server shutdown gracefully")
			return nil
		}
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Sessions returns the session registry of the server
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	req, err := parseStreamRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the peer going away aborts the query, which kills the child
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("WebSocket error: %v", err)
				}
				return
			}
		}
	}()

	if err := s.stream(ctx, conn, req); err != nil {
		log.Printf("Stream failed: %v", err)
		s.sendError(conn, err.Error())
		return
	}

	if err := conn.WriteJSON(Event{Type: EventType_End, Time: time.Now().UTC()}); err != nil {
		log.Printf("Failed to send stream end event: %v", err)
		return
	}

	// Close the connection gracefully
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) stream(ctx context.Context, conn *websocket.Conn, req StreamRequest) error {
	cfg := s.opts.Config.Clone()
	var opts []types.ConfigOption
	if req.SessionID != "" {
		sess, err := s.sessions.Resume(req.SessionID)
		if err != nil {
			return err
		}
		opts = append(opts, sess.ConfigOptions()...)
	}
	if req.Model != "" {
		opts = append(opts, types.WithModel(req.Model))
	}
	if req.SystemPrompt != "" {
		opts = append(opts, types.WithSystemPrompt(req.SystemPrompt))
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := cli.NewClient(cfg, s.opts.ClientOptions...)
	if err != nil {
		return err
	}
	query := client.Query(req.Query).Format(req.Format)
	if req.SessionID != "" {
		query = query.Session(req.SessionID)
	}
	stream, err := query.Stream(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	recorded := make(map[string]bool)
	for {
		msg, err := stream.Next(ctx)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if id := msg.SessionID; id != "" && !recorded[id] {
			recorded[id] = true
			s.sessions.Record(types.SessionID(id), session.WithSystemPrompt(cfg.SystemPrompt))
		}
		if s.opts.Verbose {
			log.Printf("Sending %s message", msg.Type)
		}
		msg = msg.TimeFilled()
		if err := conn.WriteJSON(Event{Type: EventType_Message, Message: &msg, Time: *msg.Timestamp}); err != nil {
			return fmt.Errorf("failed to send event: %w", err)
		}
	}
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ids := s.sessions.List()
	list := make([]*session.Session, 0, len(ids))
	for _, id := range ids {
		if sess, ok := s.sessions.Get(id); ok {
			list = append(list, sess)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		log.Printf("Failed to write sessions: %v", err)
	}
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down...\n"))
	go func() {
		time.Sleep(200 * time.Millisecond)
		s.Shutdown(context.Background())
	}()
}

func (s *Server) sendError(conn *websocket.Conn, errorMsg string) {
	errorEvent := Event{
		Type:  EventType_Error,
		Error: errorMsg,
		Time:  time.Now().UTC(),
	}
	if err := conn.WriteJSON(errorEvent); err != nil {
		log.Printf("Failed to send error message: %v", err)
	}
}
