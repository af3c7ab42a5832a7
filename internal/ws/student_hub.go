package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// StudentMessage tells a student's SEB client that its exam state changed,
// e.g. so it can show the quit link after an admin finalize.
type StudentMessage struct {
	Type     string `json:"type"`
	CourseID string `json:"course_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

type studentNotification struct {
	username string
	payload  []byte
}

type StudentHub struct {
	register   chan *studentClient
	unregister chan *studentClient
	notify     chan studentNotification
	clients    map[string]*studentClient
}

func NewStudentHub() *StudentHub {
	return &StudentHub{
		register:   make(chan *studentClient),
		unregister: make(chan *studentClient),
		notify:     make(chan studentNotification, 256),
		clients:    make(map[string]*studentClient),
	}
}

func (h *StudentHub) Run() {
	for {
		select {
		case client := <-h.register:
			if existing, ok := h.clients[client.username]; ok {
				existing.conn.Close()
			}
			h.clients[client.username] = client
		case client := <-h.unregister:
			if stored, ok := h.clients[client.username]; ok && stored == client {
				delete(h.clients, client.username)
			}
		case msg := <-h.notify:
			if client, ok := h.clients[msg.username]; ok {
				select {
				case client.send <- msg.payload:
				default:
					client.conn.Close()
					delete(h.clients, msg.username)
				}
			}
		}
	}
}

func (h *StudentHub) Notify(username string, message StudentMessage) {
	if h == nil {
		return
	}
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case h.notify <- studentNotification{username: username, payload: data}:
	default:
	}
}

type studentClient struct {
	hub      *StudentHub
	conn     *websocket.Conn
	send     chan []byte
	username string
}

func newStudentClient(hub *StudentHub, conn *websocket.Conn, username string) *studentClient {
	return &studentClient{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 64),
		username: username,
	}
}

func (c *studentClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *studentClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
