package websocket

// EventPublisher is the seam services publish through, so they never
// depend on the hub directly.
type EventPublisher interface {
	// Publish delivers an event to every client in the workspace.
	Publish(workspaceID int32, event Event)
}

var _ EventPublisher = (*Hub)(nil)

// Publish satisfies EventPublisher by fanning out through Broadcast.
func (h *Hub) Publish(workspaceID int32, event Event) {
	h.Broadcast(workspaceID, event)
}

// NoOpPublisher discards events. Used when WebSocket support is
// disabled and as a default in tests.
type NoOpPublisher struct{}

func (n *NoOpPublisher) Publish(workspaceID int32, event Event) {}
