package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

// EventType names a change pushed to connected clients.
type EventType string

const (
	TaskCreated    EventType = "task_created"
	TaskUpdated    EventType = "task_updated"
	TaskDeleted    EventType = "task_deleted"
	QueryCreated   EventType = "query_created"
	QueryUpdated   EventType = "query_updated"
	QueryDeleted   EventType = "query_deleted"
	QueryCommented EventType = "query_commented"
)

// Event is the message body pushed over the websocket. It only names the
// resource; clients refetch it through the API, which applies access rules.
type Event struct {
	Type       EventType `json:"type"`
	ResourceID string    `json:"resourceId"`
	ActorID    string    `json:"actorId"`
	At         time.Time `json:"at"`
}

// Client represents a single websocket client connection.
// The actual network conn is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub maintains active user connections and pushes events to them.
type Hub struct {
	mu              sync.RWMutex
	userIDToClients map[string]map[Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		userIDToClients: make(map[string]map[Client]struct{}),
	}
}

// Register adds a client under a user ID.
func (h *Hub) Register(userID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.userIDToClients[userID]; !ok {
		h.userIDToClients[userID] = make(map[Client]struct{})
	}
	h.userIDToClients[userID][client] = struct{}{}
}

// Unregister removes a client; if user has no more clients, cleans up map.
func (h *Hub) Unregister(userID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.userIDToClients[userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userIDToClients, userID)
		}
	}
}

// Connections returns the number of clients registered for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userIDToClients[userID])
}

// Notify sends ev to every client of the given users. Duplicate and empty ids
// are skipped. Failed writes are logged and otherwise ignored; the handler
// owning the connection cleans it up.
func (h *Hub) Notify(userIDs []string, ev Event) {
	clients := h.clientsOf(userIDs)
	if len(clients) == 0 {
		return
	}
	message, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to encode realtime event", "type", ev.Type, "error", err)
		return
	}

	var wg conc.WaitGroup
	for _, c := range clients {
		wg.Go(func() {
			if !c.Send(message) {
				slog.Debug("realtime send failed", "type", ev.Type, "resource_id", ev.ResourceID)
			}
		})
	}
	if r := wg.WaitAndRecover(); r != nil {
		slog.Error("realtime send panicked", "error", r.AsError())
	}
}

func (h *Hub) clientsOf(userIDs []string) []Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{}, len(userIDs))
	var out []Client
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		for c := range h.userIDToClients[id] {
			out = append(out, c)
		}
	}
	return out
}
