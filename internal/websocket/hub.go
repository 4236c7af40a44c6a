package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed reports a send to a connection that is already
// closed or too far behind to keep up.
var ErrClientClosed = errors.New("client is closed")

// ClientInterface is what the hub needs from a connection. The
// concrete *Client satisfies it; tests substitute lighter doubles.
type ClientInterface interface {
	ID() string
	WorkspaceID() int32
	Send(data []byte) error
	Close() error
}

// Hub tracks live connections grouped by workspace and fans events
// out to them. Events never cross workspace boundaries. All methods
// are safe for concurrent use.
type Hub struct {
	workspaces map[int32]map[string]ClientInterface
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		workspaces: make(map[int32]map[string]ClientInterface),
	}
}

// Register files a connection under its workspace.
func (h *Hub) Register(client ClientInterface) {
	workspaceID := client.WorkspaceID()
	clientID := client.ID()

	h.mu.Lock()
	clients := h.workspaces[workspaceID]
	if clients == nil {
		clients = make(map[string]ClientInterface)
		h.workspaces[workspaceID] = clients
	}
	clients[clientID] = client
	h.mu.Unlock()

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister drops a connection. Workspaces with no connections left
// are removed entirely so the map does not accumulate empty buckets.
// Unregistering a connection the hub never saw is a no-op.
func (h *Hub) Unregister(client ClientInterface) {
	workspaceID := client.WorkspaceID()
	clientID := client.ID()

	h.mu.Lock()
	clients, ok := h.workspaces[workspaceID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, exists := clients[clientID]; !exists {
		h.mu.Unlock()
		return
	}
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(h.workspaces, workspaceID)
	}
	h.mu.Unlock()

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", clientID).
		Msg("WebSocket client unregistered")
}

// Broadcast serializes the event once and delivers it to every
// connection in the workspace. Delivery happens off the hub lock, one
// goroutine per connection, so one slow reader cannot stall the rest.
func (h *Hub) Broadcast(workspaceID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("workspace_id", workspaceID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	targets := h.snapshot(workspaceID)
	if len(targets) == 0 {
		return
	}

	for _, client := range targets {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Int32("workspace_id", workspaceID).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("event_type", event.Type).
		Int("client_count", len(targets)).
		Msg("Broadcast event")
}

// snapshot copies the workspace's connection list so Broadcast can
// send without holding the lock.
func (h *Hub) snapshot(workspaceID int32) []ClientInterface {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.workspaces[workspaceID]
	if len(clients) == 0 {
		return nil
	}
	targets := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		targets = append(targets, client)
	}
	return targets
}

// ClientCount reports how many connections a workspace has.
func (h *Hub) ClientCount(workspaceID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.workspaces[workspaceID])
}

// TotalClientCount reports connections across every workspace.
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.workspaces {
		total += len(clients)
	}
	return total
}
