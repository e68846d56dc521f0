package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/theblitlabs/ioc-monitor/internal/core/models"
	"github.com/theblitlabs/ioc-monitor/internal/telemetry"
	"github.com/theblitlabs/ioc-monitor/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	clientSendSize = 16

	MessageTypeSample    = "sample"
	MessageTypePollError = "poll_error"
)

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type pollErrorPayload struct {
	Error string `json:"error"`
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

// StreamHub pushes every poll result to connected websocket clients. A
// client that falls behind loses messages rather than stalling the poll.
type StreamHub struct {
	mu       sync.Mutex
	clients  map[*streamClient]struct{}
	last     []byte
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewStreamHub() *StreamHub {
	return &StreamHub{
		clients: make(map[*streamClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger.WithComponent("stream"),
	}
}

// ObservePoll broadcasts the poll result.
func (h *StreamHub) ObservePoll(sample *models.Sample, err error) {
	msg, encErr := encodePoll(sample, err)
	if encErr != nil {
		h.log.Error().Err(encErr).Msg("Failed to encode poll result")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err == nil {
		h.last = msg
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Debug().Str("remote_addr", c.conn.RemoteAddr().String()).Msg("Dropped message for slow client")
		}
	}
}

func encodePoll(sample *models.Sample, err error) ([]byte, error) {
	var (
		payload []byte
		msgType string
		encErr  error
	)
	if err != nil {
		msgType = MessageTypePollError
		payload, encErr = json.Marshal(pollErrorPayload{Error: err.Error()})
	} else {
		msgType = MessageTypeSample
		payload, encErr = json.Marshal(sample)
	}
	if encErr != nil {
		return nil, encErr
	}
	return json.Marshal(WSMessage{Type: msgType, Payload: payload})
}

// ServeWS upgrades the request and streams poll results until the client
// disconnects. The last good sample is sent immediately.
func (h *StreamHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	c := &streamClient{
		conn: conn,
		send: make(chan []byte, clientSendSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.last != nil {
		c.send <- h.last
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	telemetry.RecordStreamClient(1)
	h.log.Debug().Str("remote_addr", conn.RemoteAddr().String()).Msg("Stream client connected")

	go h.writePump(c)
	h.readPump(c)
}

func (h *StreamHub) writePump(c *streamClient) {
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.conn.Close()
				h.remove(c)
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			c.conn.Close()
			return
		}
	}
}

// readPump discards client messages and returns once the connection closes.
func (h *StreamHub) readPump(c *streamClient) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("Stream client closed unexpectedly")
			}
			return
		}
	}
}

func (h *StreamHub) remove(c *streamClient) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()

		close(c.done)
		telemetry.RecordStreamClient(-1)
	})
}

// ClientCount returns the number of connected clients.
func (h *StreamHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients.
func (h *StreamHub) Close() {
	h.mu.Lock()
	clients := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}
