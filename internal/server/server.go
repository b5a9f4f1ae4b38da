package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/suika/internal/core/events/bus"
	"github.com/zeusync/suika/internal/core/game"
	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/observability/log"
)

// Server is the network front door of one game: players send commands over
// a websocket and receive snapshots and game events.
type Server struct {
	loop    *game.Loop
	session *game.Session
	palette *kinds.Palette
	auth    TokenAuth

	httpServer *http.Server
	listener   net.Listener

	clients     sync.Map // map[*client]struct{}
	clientCount int64    // atomic
	sub         bus.Subscription

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	config Config
	logger log.Log
}

// Config holds server configuration
type Config struct {
	ListenAddr string
	MaxClients int
	// Token, when set, is required as the "token" query parameter on /ws.
	Token string

	WriteTimeout   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8080",
		MaxClients:     1000,
		WriteTimeout:   5 * time.Second,
		MaxMessageSize: 4 * 1024,
		SendBuffer:     64,
	}
}

// NewServer creates a server for the loop's session. It starts relaying
// session events to connected clients right away, so Handler can be served
// without Start.
func NewServer(config Config, loop *game.Loop, palette *kinds.Palette, logger log.Log) (*Server, error) {
	def := DefaultServerConfig()
	if config.MaxClients <= 0 {
		config.MaxClients = def.MaxClients
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = def.MaxMessageSize
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = def.SendBuffer
	}
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		loop:    loop,
		session: loop.Session(),
		palette: palette,
		auth:    TokenAuth{Token: config.Token},
		config:  config,
		logger:  logger.With(log.String("component", "server")),
	}

	sub, err := s.session.Bus().Subscribe(bus.WildcardType, s.relay)
	if err != nil {
		return nil, err
	}
	s.sub = sub

	s.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.Int("max_clients", config.MaxClients))
	return s, nil
}

// Handler routes /ws, /snapshot and /kinds.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /kinds", s.handleKinds)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return err
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the HTTP server down and disconnects every client.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")
	err := s.httpServer.Shutdown(ctx)
	s.disconnectAll()
	s.logger.Info("Server stopped")
	return err
}

// Close stops the server if needed and detaches it from the session.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&s.running) == 1 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}
	s.disconnectAll()
	return s.session.Bus().Unsubscribe(s.sub)
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	return int(atomic.LoadInt64(&s.clientCount))
}

func (s *Server) disconnectAll() {
	s.clients.Range(func(key, _ any) bool {
		key.(*client).close()
		return true
	})
}
