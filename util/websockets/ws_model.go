package websockets

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Message types
const (
	MsgTypePing         = "ping"
	MsgTypePong         = "pong"
	MsgTypeViewUpdate   = "view_update"
	MsgTypeReportUpdate = "report_update"
	MsgTypeVoteUpdate   = "vote_update"
)

// Client represents a connected UI session
type Client struct {
	Conn      *websocket.Conn
	SessionID string
}

type WebSocketManager struct {
	clients    map[*websocket.Conn]*Client
	register   chan *Client
	unregister chan *websocket.Conn
	send       chan DirectMessage
	done       chan struct{}
	mu         sync.Mutex
}

// DirectMessage is a payload addressed to every connection of one session
type DirectMessage struct {
	SessionID string
	Message   []byte
}

// Message is the envelope of every frame in both directions
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
