package http

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sydologie/diapoai/internal/domain/ports"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// createUpgrader creates a WebSocket upgrader with proper origin validation
func (s *Server) createUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return s.isValidOrigin(r)
		},
	}
}

// ClientMode represents the type of WebSocket client
type ClientMode string

const (
	ClientModeAudience  ClientMode = "audience"
	ClientModePresenter ClientMode = "presenter"
)

// WebSocketClient represents one preview page
type WebSocketClient struct {
	id      string
	conn    *websocket.Conn
	send    chan ports.UpdateEvent
	manager *ConnectionManager
	mode    ClientMode
	clock   ports.Clock
	logger  ports.Logger
}

// ClientMessage represents a message received from a page
type ClientMessage struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.createUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed: %v", err)
		return
	}
	s.stats.RecordConnection()

	mode := ClientModeAudience
	if r.URL.Query().Get("mode") == string(ClientModePresenter) {
		mode = ClientModePresenter
	}

	connInfo := NewConnection(uuid.NewString())
	client := &WebSocketClient{
		id:      connInfo.ID,
		conn:    conn,
		send:    connInfo.Send,
		manager: s.connMgr,
		mode:    mode,
		clock:   s.clock,
		logger:  s.logger,
	}

	connInfo.Send <- ports.UpdateEvent{
		Type:      ports.EventTypeConnected,
		Timestamp: s.clock.Now(),
		Data: map[string]string{
			"client": client.id,
			"mode":   string(mode),
		},
	}

	if err := s.engine.Join(connInfo); err != nil {
		s.logger.Warn("Preview page rejected: %v", err)
	}

	go client.writePump()
	go client.readPump()

	s.logger.Debug("Preview page %s connected (%s)", client.id, mode)
}

// readPump pumps messages from the WebSocket connection
func (c *WebSocketClient) readPump() {
	defer func() {
		c.manager.Unregister(c.id)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket connection error: %v", err)
			}
			break
		}

		if c.mode != ClientModePresenter {
			c.logger.Debug("Received message from audience page %s: %s", c.id, message)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.logger.Error("Failed to parse client message: %v", err)
			continue
		}
		c.handlePresenterCommand(msg)
	}
}

// writePump pumps messages to the WebSocket connection
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handlePresenterCommand relays slide changes of a presenter page so every
// other page follows it
func (c *WebSocketClient) handlePresenterCommand(msg ClientMessage) {
	if msg.Type != ports.EventTypeSlideChanged {
		c.logger.Debug("Ignoring %q from presenter page %s", msg.Type, c.id)
		return
	}
	c.manager.Broadcast(ports.UpdateEvent{
		Type:      msg.Type,
		Timestamp: c.clock.Now(),
		Data:      msg.Data,
	})
}

// isValidOrigin accepts same-origin requests, loopback and private network
// hosts, and the configured CORS origins
func (s *Server) isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		s.logger.Warn("WebSocket connection rejected: invalid origin URL %q: %v", origin, err)
		return false
	}

	if isLocalOrigin(originURL) || originURL.Host == r.Host {
		return true
	}

	for _, allowed := range s.config.GetCORSOrigins() {
		if allowed == "*" || originURL.String() == allowed {
			return true
		}
		// wildcard subdomains (*.example.com)
		if strings.HasPrefix(allowed, "*.") {
			domain := strings.TrimPrefix(allowed, "*")
			if strings.HasSuffix(originURL.Hostname(), domain) {
				return true
			}
		}
	}

	s.logger.Warn("WebSocket connection rejected: origin %s not in %v", originURL, s.config.GetCORSOrigins())
	return false
}

func isLocalOrigin(u *url.URL) bool {
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified())
}
