package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub fans submission events out to quiz owners watching the live
// submissions feed. Clients are grouped by the quiz they watch; slow
// clients are dropped rather than blocking the broadcast.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

type Client struct {
	hub    *Hub
	id     string
	socket *websocket.Conn
	send   chan []byte
	quizID uint
	viewer string
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Client %s registered for quiz %d submissions (%s) - total clients: %d",
				client.id, client.quizID, client.viewer, total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Client %s unregistered from quiz %d submissions - total clients: %d",
				client.id, client.quizID, total)
		}
	}
}

// BroadcastSubmission pushes a freshly recorded submission to everyone
// watching that quiz.
func (h *Hub) BroadcastSubmission(quizID uint, result SubmissionResult) {
	message := Message{
		Type:    "submission_recorded",
		Payload: result,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling submission message: %v", err)
		return
	}

	h.mutex.Lock()
	for client := range h.clients {
		if client.quizID != quizID {
			continue
		}
		select {
		case client.send <- data:
		default:
			log.Printf("Client %s send buffer full, closing connection", client.id)
			close(client.send)
			delete(h.clients, client)
		}
	}
	h.mutex.Unlock()
}

func (h *Hub) RegisterClient(conn *websocket.Conn, quizID uint, viewerEmail string) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, 256),
		quizID: quizID,
		viewer: viewerEmail,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		if msg.Type == "ping" {
			data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
			c.send <- data
		}
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}
