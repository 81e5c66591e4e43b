// Package realtime runs the WebSocket team chat. Rooms are keyed by team id; with Redis
// configured, messages fan out to every server instance through pub/sub.
package realtime

import (
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains team id -> set of connections and broadcasts messages.
type Hub struct {
	// teamID -> map[clientID]*Client
	rooms       map[string]map[string]*Client
	subs        map[string]func() // cancel Redis subscription per team
	subscribing map[string]bool   // subscription attempt in flight
	mu          sync.RWMutex
	logger      *zap.Logger
	redis       Publisher
	redisSub    Subscriber
}

// Publisher publishes team events to other instances.
type Publisher interface {
	PublishTeamEvent(teamID, event string, payload []byte) error
}

// Subscriber subscribes to a team channel and invokes handler for incoming events.
type Subscriber interface {
	SubscribeTeam(teamID string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a hub. pub and sub may be nil for a single instance.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:       make(map[string]map[string]*Client),
		subs:        make(map[string]func()),
		subscribing: make(map[string]bool),
		logger:      logger,
		redis:       pub,
		redisSub:    sub,
	}
}

// Register adds a client to its team room. A room without a Redis subscription (first
// client, or an earlier attempt failed) subscribes outside the hub lock.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.TeamID] == nil {
		h.rooms[c.TeamID] = make(map[string]*Client)
	}
	h.rooms[c.TeamID][c.ID] = c
	needSub := h.redisSub != nil && h.subs[c.TeamID] == nil && !h.subscribing[c.TeamID]
	if needSub {
		h.subscribing[c.TeamID] = true
	}
	h.mu.Unlock()
	h.logger.Debug("client joined team chat", zap.String("client_id", c.ID), zap.String("team_id", c.TeamID), zap.String("username", c.Username))

	if needSub {
		h.subscribe(c.TeamID)
	}
}

func (h *Hub) subscribe(teamID string) {
	cancel, err := h.redisSub.SubscribeTeam(teamID, func(event string, payload []byte) {
		h.BroadcastToTeam(teamID, event, json.RawMessage(payload))
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribing, teamID)
	if err != nil {
		h.logger.Warn("team subscription failed, delivering locally", zap.String("team_id", teamID), zap.Error(err))
		return
	}
	if _, ok := h.rooms[teamID]; !ok {
		// everyone left while subscribing
		cancel()
		return
	}
	h.subs[teamID] = cancel
}

// Subscribed reports whether this instance receives a team's events through Redis.
func (h *Hub) Subscribed(teamID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subs[teamID] != nil
}

// Unregister removes a client and closes its send channel. The last client leaving a room
// cancels the Redis subscription.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.TeamID]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.rooms, c.TeamID)
			if cancel, ok := h.subs[c.TeamID]; ok {
				cancel()
				delete(h.subs, c.TeamID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left team chat", zap.String("client_id", c.ID), zap.String("team_id", c.TeamID))
}

// BroadcastToTeam sends a message to the local clients of a team.
func (h *Hub) BroadcastToTeam(teamID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[teamID] {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("dropping message for slow client", zap.String("client_id", c.ID))
		}
	}
}

// PublishToTeam delivers an event to every instance. When this instance holds the team's
// Redis subscription the subscriber callback performs the local broadcast, so local clients
// receive it exactly once; otherwise local clients are served directly.
func (h *Hub) PublishToTeam(teamID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis == nil {
		h.BroadcastToTeam(teamID, event, data)
		return
	}
	if err := h.redis.PublishTeamEvent(teamID, event, data); err != nil {
		h.logger.Warn("publish team event failed, delivering locally", zap.Error(err))
		h.BroadcastToTeam(teamID, event, data)
		return
	}
	if !h.Subscribed(teamID) {
		h.BroadcastToTeam(teamID, event, data)
	}
}

// Online returns the usernames connected to a team on this instance, sorted.
func (h *Hub) Online(teamID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, c := range h.rooms[teamID] {
		seen[c.Username] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
