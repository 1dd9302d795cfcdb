// Package remote exposes a running slideshow over HTTP and WebSocket so
// another device can drive it and follow along.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"stories/internal/eventloop"
	"stories/internal/slideshow"
)

// Actions accepted over HTTP and WebSocket.
const (
	ActionNext      = "next"
	ActionPrev      = "prev"
	ActionToggle    = "toggle"
	ActionHoldStart = "hold-start"
	ActionHoldEnd   = "hold-end"
)

// ErrUnknownAction is returned for an action the server does not know.
var ErrUnknownAction = errors.New("unknown action")

const (
	writeWait     = 10 * time.Second
	requestWait   = 5 * time.Second
	maxMessageLen = 1024
)

// State is a snapshot of the slideshow.
type State struct {
	Index       int    `json:"index"`
	Len         int    `json:"len"`
	Path        string `json:"path,omitempty"`
	Paused      bool   `json:"paused"`
	Holding     bool   `json:"holding"`
	RemainingMs int64  `json:"remainingMs"`
}

// Command is a WebSocket request from a client.
type Command struct {
	Action string `json:"action"`
	Tap    string `json:"tap,omitempty"`
}

// Executor runs fn on the goroutine that owns the slideshow and waits for
// it. *eventloop.Loop is one.
type Executor interface {
	Do(ctx context.Context, fn func()) error
}

var _ Executor = (*eventloop.Loop)(nil)

// Server routes remote requests onto the goroutine that owns the slideshow.
type Server struct {
	exec     Executor
	show     *slideshow.Slideshow
	hub      *Hub
	router   *mux.Router
	upgrader websocket.Upgrader
	logger   func(string)
}

// NewServer builds the router. The slideshow must only be used through exec.
func NewServer(exec Executor, show *slideshow.Slideshow, hub *Hub, logger func(string)) *Server {
	s := &Server{
		exec:   exec,
		show:   show,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/next", s.handleAction(ActionNext)).Methods(http.MethodPost)
	api.HandleFunc("/prev", s.handleAction(ActionPrev)).Methods(http.MethodPost)
	api.HandleFunc("/toggle", s.handleAction(ActionToggle)).Methods(http.MethodPost)
	api.HandleFunc("/hold/start", s.handleAction(ActionHoldStart)).Methods(http.MethodPost)
	api.HandleFunc("/hold/end", s.handleAction(ActionHoldEnd)).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	s.router = r

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logf("remote: listening on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger(fmt.Sprintf(format, args...))
		return
	}
	log.Printf(format, args...)
}

// Apply runs a command on the slideshow and returns the resulting state. tap is
// "next", "prev" or empty and only matters for ActionHoldEnd.
func (s *Server) Apply(ctx context.Context, action, tap string) (State, error) {
	var (
		st  State
		err error
	)
	doErr := s.exec.Do(ctx, func() {
		switch action {
		case ActionNext:
			s.show.Next()
		case ActionPrev:
			s.show.Prev()
		case ActionToggle:
			s.show.TogglePlayPause()
		case ActionHoldStart:
			s.show.OnHoldStart()
		case ActionHoldEnd:
			s.show.OnHoldEnd(parseTap(tap))
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
		st = s.snapshot()
	})
	if doErr != nil {
		return State{}, doErr
	}
	return st, err
}

// State reads a snapshot of the slideshow.
func (s *Server) State(ctx context.Context) (State, error) {
	var st State
	err := s.exec.Do(ctx, func() { st = s.snapshot() })
	return st, err
}

func (s *Server) snapshot() State {
	return State{
		Index:       s.show.Index(),
		Len:         s.show.Len(),
		Path:        itemPath(s.show.Item(s.show.Index())),
		Paused:      s.show.Paused(),
		Holding:     s.show.Holding(),
		RemainingMs: s.show.Remaining().Milliseconds(),
	}
}

func parseTap(tap string) slideshow.Direction {
	switch tap {
	case ActionNext:
		return slideshow.Forward
	case ActionPrev:
		return slideshow.Backward
	default:
		return slideshow.None
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}

// GET /api/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestWait)
	defer cancel()
	st, err := s.State(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tap := r.URL.Query().Get("tap")
		if tap != "" && tap != ActionNext && tap != ActionPrev {
			http.Error(w, "tap must be next or prev", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestWait)
		defer cancel()
		st, err := s.Apply(ctx, action, tap)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// GET /ws
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logf("remote: websocket upgrade failed: %v", err)
		return
	}

	st, err := s.State(r.Context())
	if err != nil {
		conn.Close()
		return
	}

	c := s.hub.register(func(id uuid.UUID) Event {
		return Event{Type: EventHello, Client: id.String(), Index: st.Index, Path: st.Path}
	})

	go s.writePump(conn, c)
	s.readPump(conn, c)
}

func (s *Server) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		s.hub.unregister(c)
		conn.Close()
	}()
	conn.SetReadLimit(maxMessageLen)

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logf("remote: client %s read error: %v", c.id, err)
			}
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestWait)
		_, err := s.Apply(ctx, cmd.Action, cmd.Tap)
		cancel()
		if err != nil {
			s.logf("remote: client %s: %v", c.id, err)
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, c *client) {
	defer conn.Close()
	for ev := range c.send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			s.logf("remote: client %s write error: %v", c.id, err)
			return
		}
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
