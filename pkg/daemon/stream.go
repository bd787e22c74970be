package daemon

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only ever send pings and close frames.
	maxMsgSize = 512
)

// streamHub fans monitor frames out to websocket subscribers.
type streamHub struct {
	clients    map[*streamClient]struct{}
	broadcast  chan []byte
	register   chan *streamClient
	unregister chan *streamClient
}

func newStreamHub() *streamHub {
	return &streamHub{
		clients:    map[*streamClient]struct{}{},
		broadcast:  make(chan []byte, 256),
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
	}
}

func (h *streamHub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// broadcastFrame queues a frame for all subscribers. The send is
// non-blocking: the monitor loop must never stall on a full queue.
func (h *streamHub) broadcastFrame(f *Frame) {
	b, err := json.Marshal(f)
	if err != nil {
		logrus.Errorf("marshal stream frame: %v", err)
		return
	}

	select {
	case h.broadcast <- b:
	default:
		logrus.Trace("stream broadcast queue full, dropping frame")
	}
}

type streamClient struct {
	hub  *streamHub
	conn *websocket.Conn
	send chan []byte
}

func newStreamClient(hub *streamHub, conn *websocket.Conn) *streamClient {
	return &streamClient{hub: hub, conn: conn, send: make(chan []byte, 128)}
}

func (c *streamClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
