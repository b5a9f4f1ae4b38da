package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/suika/internal/core/events/bus"
	"github.com/zeusync/suika/internal/core/game"
	"github.com/zeusync/suika/internal/core/models"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/core/systems/physics"
	"github.com/zeusync/suika/pkg/generic"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

var framePool = generic.NewPool(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 1024)) },
	func(b *bytes.Buffer) { b.Reset() },
)

// encodeFrame marshals v into a frame that is safe to hand to several writers.
func encodeFrame(v any) ([]byte, error) {
	buf := framePool.Get()
	defer framePool.Put(buf)
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return bytes.Clone(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// ClientMessage is a command frame sent by a player.
type ClientMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
	ID   string  `json:"id,omitempty"`
}

// Frame types sent to players.
const (
	FrameSnapshot = "snapshot"
	FrameEvent    = "event"
	FrameError    = "error"
)

type snapshotFrame struct {
	Type string `json:"type"`
	game.Snapshot
}

type eventFrame struct {
	Type      string    `json:"type"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Command converts the frame into a loop command.
func (m ClientMessage) Command() (game.Command, error) {
	switch game.CommandKind(m.Type) {
	case game.CmdTap:
		return game.Tap(physics.V(m.X, m.Y)), nil
	case game.CmdPress:
		return game.Press(physics.V(m.X, m.Y)), nil
	case game.CmdRelease:
		return game.Release(), nil
	case game.CmdTilt:
		return game.Tilt(m.X, m.Y), nil
	case game.CmdRemove:
		if m.ID == "" {
			return game.Command{}, fmt.Errorf("%w: remove needs an id", ErrInvalidMessage)
		}
		return game.Remove(models.EntityID(m.ID)), nil
	case game.CmdDrag:
		if m.ID == "" {
			return game.Command{}, fmt.Errorf("%w: drag needs an id", ErrInvalidMessage)
		}
		return game.Drag(models.EntityID(m.ID), physics.V(m.X, m.Y)), nil
	default:
		return game.Command{}, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, m.Type)
	}
}

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
	logger    log.Log
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// enqueue hands a frame to the writer without blocking. A full buffer means
// the client cannot keep up, and it is dropped.
func (c *client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.close()
		return false
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.OnConnect(r); err != nil {
		s.logger.Warn("Rejected connection",
			log.String("remote_addr", r.RemoteAddr), log.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	// reserve before upgrading; the count includes handshakes in flight
	if !s.reserveSlot() {
		s.logger.Warn("Maximum clients reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.releaseSlot()
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}
	conn.SetReadLimit(s.config.MaxMessageSize)

	id := uuid.NewString()
	ctx := log.ContextWithRequestID(r.Context(), id)
	c := &client{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, s.config.SendBuffer),
		done:   make(chan struct{}),
		logger: s.logger.WithContext(ctx),
	}
	s.clients.Store(c, struct{}{})
	c.logger.Info("Client connected",
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))

	if frame, err := encodeFrame(snapshotFrame{Type: FrameSnapshot, Snapshot: s.session.Snapshot()}); err == nil {
		c.enqueue(frame)
	}

	go s.writePump(c)
	s.readPump(ctx, c)
}

func (s *Server) reserveSlot() bool {
	if atomic.AddInt64(&s.clientCount, 1) > int64(s.config.MaxClients) {
		s.releaseSlot()
		return false
	}
	return true
}

func (s *Server) releaseSlot() { atomic.AddInt64(&s.clientCount, -1) }

func (s *Server) readPump(ctx context.Context, c *client) {
	defer func() {
		s.clients.Delete(c)
		s.releaseSlot()
		c.close()
		c.logger.Info("Client disconnected",
			log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.reject(c, fmt.Errorf("%w: %w", ErrInvalidMessage, err))
				continue
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("Read failed", log.Error(err))
			}
			return
		}

		cmd, err := msg.Command()
		if err != nil {
			s.reject(c, err)
			continue
		}
		if _, err = s.loop.Submit(ctx, cmd); err != nil {
			switch {
			case errors.Is(err, game.ErrLoopClosed), errors.Is(err, context.Canceled):
				return
			case errors.Is(err, game.ErrNotFound):
				// removing an entity that already merged is routine
			default:
				c.logger.Debug("Command failed", log.String("type", msg.Type), log.Error(err))
			}
		}
	}
}

func (s *Server) writePump(c *client) {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("Write failed", log.Error(err))
				c.close()
				return
			}
		}
	}
}

func (s *Server) reject(c *client, err error) {
	c.logger.Debug("Invalid message", log.Error(err))
	if frame, mErr := encodeFrame(errorFrame{Type: FrameError, Error: err.Error()}); mErr == nil {
		c.enqueue(frame)
	}
}

// relay runs on the game loop for every session event and must not block.
func (s *Server) relay(event bus.Event) error {
	var v any
	if snap, ok := event.Data.(game.Snapshot); ok && event.Type == bus.TypeStepped {
		v = snapshotFrame{Type: FrameSnapshot, Snapshot: snap}
	} else {
		v = eventFrame{Type: FrameEvent, Event: event.Type, Timestamp: event.Timestamp, Data: event.Data}
	}
	frame, err := encodeFrame(v)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", event.Type, err)
	}
	s.broadcast(frame)
	return nil
}

func (s *Server) broadcast(frame []byte) {
	s.clients.Range(func(key, _ any) bool {
		key.(*client).enqueue(frame)
		return true
	})
}
