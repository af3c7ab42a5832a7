package ws

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

const (
	EventExamFinalized = "exam_finalized"
	EventExamCancelled = "exam_cancelled"
	EventExamReset     = "exam_reset"
)

// ExamStatusEvent is pushed to admin/pengawas dashboards.
type ExamStatusEvent struct {
	Type      string    `json:"type"`
	CourseID  string    `json:"course_id"`
	Username  string    `json:"username,omitempty"`
	Finalized bool      `json:"finalized"`
	At        time.Time `json:"at"`
}

type monitoringMessage struct {
	courseID string
	payload  []byte
}

// MonitoringHub handles websocket clients who listen for exam status updates.
type MonitoringHub struct {
	register   chan *monitoringClient
	unregister chan *monitoringClient
	broadcast  chan monitoringMessage
	clients    map[*monitoringClient]struct{}
}

func NewMonitoringHub() *MonitoringHub {
	return &MonitoringHub{
		register:   make(chan *monitoringClient),
		unregister: make(chan *monitoringClient),
		broadcast:  make(chan monitoringMessage, 256),
		clients:    make(map[*monitoringClient]struct{}),
	}
}

func (h *MonitoringHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				client.conn.Close()
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				if !client.allows(msg.courseID) {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					delete(h.clients, client)
					close(client.send)
					client.conn.Close()
				}
			}
		}
	}
}

// Broadcast queues the event for clients allowed to see its course. When the
// queue is full the event is dropped rather than stalling the request.
func (h *MonitoringHub) Broadcast(event ExamStatusEvent) {
	if h == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: failed to marshal payload: %v", err)
		return
	}
	select {
	case h.broadcast <- monitoringMessage{courseID: event.CourseID, payload: data}:
	default:
		log.Printf("ws: monitoring queue full, dropped %s for %s", event.Type, event.CourseID)
	}
}

type monitoringClient struct {
	hub            *MonitoringHub
	conn           *websocket.Conn
	send           chan []byte
	allowedCourses map[string]struct{}
	allowAll       bool
}

func newMonitoringClient(hub *MonitoringHub, conn *websocket.Conn, allowed map[string]struct{}, allowAll bool) *monitoringClient {
	return &monitoringClient{
		hub:            hub,
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		allowedCourses: allowed,
		allowAll:       allowAll,
	}
}

func (c *monitoringClient) allows(courseID string) bool {
	if c.allowAll {
		return true
	}
	_, ok := c.allowedCourses[courseID]
	return ok
}

func (c *monitoringClient) readPump() {
	defer func() {
		c.hub.unregister <- c
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

func (c *monitoringClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
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
