package network

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sablehall/vesper/server/internal/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 2048
	// Minimum gap between anchor challenges from a single connection.
	challengeCooldown = 2 * time.Second
)

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, loop *engine.Loop, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		loop: loop,
		conn: conn,
		send: make(chan []byte, hub.sendBuffer),
	}
}

// inboundMessage is the envelope for commands arriving from the frontend.
type inboundMessage struct {
	Kind    string          `json:"kind"` // "PLAYER_ACTION", "AGENT_EVENT", "SWARM_MOOD", "CHALLENGE"
	Payload json.RawMessage `json:"payload"`
}

// challengePayload is a narrative attempt to contradict an agent's anchor.
type challengePayload struct {
	AgentID   string `json:"agent_id"`
	RegionID  string `json:"region_id"`
	Invariant string `json:"invariant"`
	Action    string `json:"action"` // free-text description of the attempt
}

// challengeResponse carries the dispatcher's verdict back to the frontend.
type challengeResponse struct {
	Kind     string          `json:"kind"` // always "CHALLENGE_RESULT"
	Decision engine.Decision `json:"decision"`
}

// swarmMoodPayload reports the population model's aggregate irritability.
type swarmMoodPayload struct {
	IrritableFraction float64 `json:"irritable_fraction"`
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection into the loop.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket read error: %v", err)
			}
			break
		}

		var msg inboundMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.logger.Error("Failed to parse inbound message: %v", err)
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg inboundMessage) {
	switch msg.Kind {
	case "PLAYER_ACTION":
		var action engine.PlayerAction
		if err := json.Unmarshal(msg.Payload, &action); err != nil {
			c.hub.logger.Warn("Failed to parse player action payload: %v", err)
			return
		}
		c.loop.SubmitPlayerAction(action)

	case "AGENT_EVENT":
		var event engine.AgentEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			c.hub.logger.Warn("Failed to parse agent event payload: %v", err)
			return
		}
		c.loop.SubmitAgentEvent(event)

	case "SWARM_MOOD":
		var mood swarmMoodPayload
		if err := json.Unmarshal(msg.Payload, &mood); err != nil {
			return
		}
		c.loop.ReportSwarmMood(mood.IrritableFraction)

	case "CHALLENGE":
		c.handleChallenge(msg.Payload)

	default:
		c.hub.logger.Warn("Unknown inbound message kind: %s", msg.Kind)
	}
}

// handleChallenge routes a contradiction attempt through the owning loop and
// writes the verdict back to this connection only.
func (c *Client) handleChallenge(raw json.RawMessage) {
	if time.Since(c.lastChallenge) < challengeCooldown {
		c.hub.logger.Warn("Challenge rate limit exceeded for connection")
		return
	}
	c.lastChallenge = time.Now()

	var ch challengePayload
	if err := json.Unmarshal(raw, &ch); err != nil {
		c.hub.logger.Warn("Failed to parse challenge payload: %v", err)
		return
	}

	decision := c.loop.DispatchAction(engine.ActionContext{
		AgentID:   ch.AgentID,
		RegionID:  ch.RegionID,
		Invariant: ch.Invariant,
		Action:    ch.Action,
	}, 0)

	response, err := json.Marshal(challengeResponse{Kind: "CHALLENGE_RESULT", Decision: decision})
	if err != nil {
		return
	}
	select {
	case c.send <- response:
	default:
		// Connection is backed up; the verdict is also visible in the feed.
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
