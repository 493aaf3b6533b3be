package controller

import (
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// FeedEvent is pushed to subscribers when an announcement goes live.
type FeedEvent struct {
	AnnouncementID uint   `json:"announcement_id"`
	Importance     string `json:"importance"`
	TeamIDs        []uint `json:"team_ids"`
}

// FeedRegistry tracks live websocket subscribers per team. Constructed
// in main and injected into the controllers and workers that publish,
// so its lifecycle is explicit rather than a package-level map.
type FeedRegistry struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]map[uint]bool
	logger *log.Logger
}

func NewFeedRegistry(logger *log.Logger) *FeedRegistry {
	return &FeedRegistry{
		conns:  make(map[*websocket.Conn]map[uint]bool),
		logger: logger,
	}
}

func (r *FeedRegistry) subscribe(conn *websocket.Conn, teamIDs []uint) {
	teams := make(map[uint]bool, len(teamIDs))
	for _, id := range teamIDs {
		teams[id] = true
	}
	r.mu.Lock()
	r.conns[conn] = teams
	r.mu.Unlock()
}

func (r *FeedRegistry) unsubscribe(conn *websocket.Conn) {
	r.mu.Lock()
	delete(r.conns, conn)
	r.mu.Unlock()
}

// Broadcast pushes the event to every connection subscribed to any of
// the event's teams. A failed write drops the connection; it never
// blocks or fails the sender.
func (r *FeedRegistry) Broadcast(event FeedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for conn, teams := range r.conns {
		interested := false
		for _, id := range event.TeamIDs {
			if teams[id] {
				interested = true
				break
			}
		}
		if !interested {
			continue
		}
		if err := conn.WriteJSON(event); err != nil {
			r.logger.Printf("Dropping feed subscriber: %v", err)
			conn.Close()
			delete(r.conns, conn)
		}
	}
}

// SubscriberCount reports the number of live connections.
func (r *FeedRegistry) SubscriberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// HandleAnnouncementFeedWS serves one feed subscription. The client
// opens with a JSON frame naming the teams it wants, then receives
// FeedEvent frames until it disconnects.
func (r *FeedRegistry) HandleAnnouncementFeedWS(c *websocket.Conn) {
	defer func() {
		r.unsubscribe(c)
		c.Close()
	}()

	var input struct {
		TeamIDs []uint `json:"team_ids"`
	}
	if err := c.ReadJSON(&input); err != nil {
		r.logger.Printf("Error reading subscription frame: %v", err)
		return
	}
	if len(input.TeamIDs) == 0 {
		return
	}

	r.subscribe(c, input.TeamIDs)

	// Block until the peer goes away; reads only serve to detect close.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
