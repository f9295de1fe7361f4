// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package websocket

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/skysurvey/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 64 * 1024 // 64 KB
)

// Message types understood on the inbound side of the live channel.
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message is an inbound control message.
type Message struct {
	Type string `json:"type"`
}

var pongPayload, _ = json.Marshal(Message{Type: MessageTypePong})

// ClientConfig holds connection timing. Zero values fall back to the
// package defaults.
type ClientConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.WriteWait <= 0 {
		c.WriteWait = writeWait
	}
	if c.PongWait <= 0 {
		c.PongWait = pongWait
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = maxMessageSize
	}
	return c
}

// pingPeriod must stay below the pong wait.
func (c ClientConfig) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

// Client is a middleman between the websocket connection and a hub
// subscription.
type Client struct {
	sub     *Subscription
	conn    *websocket.Conn
	cfg     ClientConfig
	control chan []byte
	done    chan struct{}
}

// NewClient binds conn to sub.
func NewClient(sub *Subscription, conn *websocket.Conn, cfg ClientConfig) *Client {
	return &Client{
		sub:     sub,
		conn:    conn,
		cfg:     cfg.withDefaults(),
		control: make(chan []byte, 4),
		done:    make(chan struct{}),
	}
}

// readPump watches the connection for disconnects and answers pings.
func (c *Client) readPump() {
	defer func() {
		close(c.done)
		c.sub.Close()
		_ = c.conn.Close() // best-effort cleanup
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Debug().Err(err).Int64("mission_id", c.sub.MissionID()).Msg("unexpected websocket close")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == MessageTypePing {
			select {
			case c.control <- pongPayload:
			default:
			}
		}
	}
}

// writePump forwards subscription events and control replies to the
// connection and keeps it alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // best-effort cleanup
	}()

	events := c.sub.Events()
	for {
		select {
		case payload, ok := <-events:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the subscription.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug().Err(err).Msg("failed to write live channel event")
				return
			}

		case payload := <-c.control:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Run serves the client on the calling goroutine and returns once the
// connection is gone.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}
