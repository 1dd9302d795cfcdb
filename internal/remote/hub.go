package remote

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"stories/internal/slideshow"
)

// Event types pushed to clients.
const (
	EventHello    = "hello"
	EventActivate = "activate"
	EventDuration = "duration"
	EventPause    = "pause"
	EventResume   = "resume"
)

// Event is a slideshow notification sent to every connected client.
type Event struct {
	Type       string `json:"type"`
	Client     string `json:"client,omitempty"`
	Index      int    `json:"index"`
	Path       string `json:"path,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

const clientBuffer = 32

type client struct {
	id   uuid.UUID
	send chan Event
}

// Hub fans slideshow events out to connected clients. A client that cannot
// keep up is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*client
	logger  func(string)
}

// NewHub creates an empty hub.
func NewHub(logger func(string)) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*client),
		logger:  logger,
	}
}

func (h *Hub) logf(format string, args ...interface{}) {
	if h.logger != nil {
		h.logger(fmt.Sprintf(format, args...))
		return
	}
	log.Printf(format, args...)
}

// register adds a client whose queue starts with the event built by first.
func (h *Hub) register(first func(id uuid.UUID) Event) *client {
	c := &client{id: uuid.New(), send: make(chan Event, clientBuffer)}
	c.send <- first(c.id)
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.logf("remote: client %s connected", c.id)
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
		h.logf("remote: client %s disconnected", c.id)
	}
}

// Broadcast queues ev for every client without blocking.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- ev:
		default:
			delete(h.clients, id)
			close(c.send)
			h.logf("remote: dropping slow client %s", id)
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

// Hooks returns slideshow hooks that broadcast each notification.
func (h *Hub) Hooks() slideshow.Hooks {
	index := 0
	return slideshow.Hooks{
		OnActivate: func(i int, item slideshow.Item) {
			index = i
			h.Broadcast(Event{Type: EventActivate, Index: i, Path: itemPath(item)})
		},
		OnAutoplayDurationSet: func(i int, d time.Duration) {
			h.Broadcast(Event{Type: EventDuration, Index: i, DurationMs: d.Milliseconds()})
		},
		OnPause:  func() { h.Broadcast(Event{Type: EventPause, Index: index}) },
		OnResume: func() { h.Broadcast(Event{Type: EventResume, Index: index}) },
	}
}

type pather interface {
	Path() string
}

func itemPath(item slideshow.Item) string {
	if p, ok := item.(pather); ok {
		return p.Path()
	}
	return ""
}
