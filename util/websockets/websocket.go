package websockets

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 256
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWebSocketManager initializes a WebSocketManager
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]*Client),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		send:       make(chan DirectMessage, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run starts the WebSocket manager. It returns after Stop.
func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			manager.clients[client.Conn] = client
			manager.mu.Unlock()

		case conn := <-manager.unregister:
			manager.mu.Lock()
			if client, exists := manager.clients[conn]; exists {
				delete(manager.clients, conn)
				conn.Close()
				log.Printf("[ws]: session %s disconnected", client.SessionID)
			}
			manager.mu.Unlock()

		case direct := <-manager.send:
			manager.mu.Lock()
			for _, client := range manager.clients {
				if client.SessionID != direct.SessionID {
					continue
				}
				client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.Conn.WriteMessage(websocket.TextMessage, direct.Message); err != nil {
					client.Conn.Close()
					delete(manager.clients, client.Conn)
				}
			}
			manager.mu.Unlock()

		case <-manager.done:
			manager.mu.Lock()
			for conn := range manager.clients {
				conn.Close()
				delete(manager.clients, conn)
			}
			manager.mu.Unlock()
			return
		}
	}
}

// Stop closes every connection and ends Run.
func (manager *WebSocketManager) Stop() {
	close(manager.done)
}

// Publish queues a message for every connection of a session. It never
// blocks: when the queue is full the message is dropped, the UI catches up
// on its next snapshot.
func (manager *WebSocketManager) Publish(sessionID, msgType string, data interface{}) {
	payload, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		log.Printf("[ws]: unable to encode %s message: %v", msgType, err)
		return
	}

	select {
	case manager.send <- DirectMessage{SessionID: sessionID, Message: payload}:
	default:
		log.Printf("[ws]: send queue full, dropping %s for session %s", msgType, sessionID)
	}
}

// Connected returns the number of open connections of a session.
func (manager *WebSocketManager) Connected(sessionID string) int {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	n := 0
	for _, client := range manager.clients {
		if client.SessionID == sessionID {
			n++
		}
	}
	return n
}

// HandleConnections upgrades HTTP requests to WebSocket connections bound
// to a session. It blocks until the peer goes away.
func (manager *WebSocketManager) HandleConnections(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket Upgrade Error:", err)
		return
	}

	select {
	case manager.register <- &Client{Conn: conn, SessionID: sessionID}:
	case <-manager.done:
		conn.Close()
		return
	}

	defer func() {
		select {
		case manager.unregister <- conn:
		case <-manager.done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var message Message
		if err := json.Unmarshal(msg, &message); err != nil {
			log.Println("Invalid JSON:", err)
			continue
		}

		switch message.Type {
		case MsgTypePing:
			manager.Publish(sessionID, MsgTypePong, nil)
		}
	}
}
