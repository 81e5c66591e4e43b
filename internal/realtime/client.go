package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/internhub/backend/internal/session"
	"github.com/internhub/backend/pkg/response"
)

// MaxChatLength bounds a chat message in characters.
const MaxChatLength = 2000

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the token query parameter authenticates the socket
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChatMessage is the payload of a chat_message event as delivered to teammates. Messages
// are relayed only, never stored.
type ChatMessage struct {
	ID     string    `json:"id"`
	TeamID string    `json:"teamId"`
	From   string    `json:"from"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

// TokenValidator turns a bearer token into a session.
type TokenValidator func(token string) (session.Session, error)

// TeamLookup returns the ids of the teams listing username.
type TeamLookup func(ctx context.Context, username string) ([]string, error)

// Client represents a single WebSocket connection in a team room.
type Client struct {
	ID       string
	TeamID   string
	Username string
	hub      *Hub
	conn     *websocket.Conn
	send     chan WSMessage
	logger   *zap.Logger
}

// ServeWs authenticates the caller, resolves their team and runs the client loop. Callers
// listed in several teams must pick one with the team query parameter.
func ServeWs(hub *Hub, logger *zap.Logger, validate TokenValidator, teamsOf TeamLookup) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			response.BadRequest(c, "token required")
			return
		}
		sess, err := validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}
		teams, err := teamsOf(c.Request.Context(), sess.Username)
		if err != nil {
			logger.Error("team lookup failed", zap.Error(err))
			response.Internal(c, "failed to load teams")
			return
		}
		teamID := c.Query("team")
		switch {
		case len(teams) == 0:
			response.Forbidden(c, "you are not assigned to a team")
			return
		case teamID == "" && len(teams) > 1:
			response.BadRequest(c, "member of several teams: team query parameter required")
			return
		case teamID == "":
			teamID = teams[0]
		case !slices.Contains(teams, teamID):
			response.Forbidden(c, "not a member of this team")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			TeamID:   teamID,
			Username: sess.Username,
			hub:      hub,
			conn:     conn,
			send:     make(chan WSMessage, 256),
			logger:   logger,
		}
		hub.Register(client)
		go client.writePump()
		hub.BroadcastToTeam(teamID, "presence", map[string]interface{}{"online": hub.Online(teamID)})
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
		c.hub.BroadcastToTeam(c.TeamID, "presence", map[string]interface{}{"online": c.hub.Online(c.TeamID)})
	}()

	c.conn.SetReadLimit(16384)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "chat_message":
			var in struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(msg.Data, &in); err != nil {
				continue
			}
			text := strings.TrimSpace(in.Text)
			if text == "" || utf8.RuneCountInString(text) > MaxChatLength {
				continue
			}
			c.hub.PublishToTeam(c.TeamID, "chat_message", ChatMessage{
				ID:     uuid.New().String(),
				TeamID: c.TeamID,
				From:   c.Username,
				Text:   text,
				SentAt: time.Now().UTC(),
			})
		case "typing":
			c.hub.PublishToTeam(c.TeamID, "typing", map[string]string{"from": c.Username})
		default:
			// ignore
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
