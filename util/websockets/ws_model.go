package websockets

import (
	"sync"
	"time"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/google/uuid"
)

// Message types
const (
	MsgTypeJoin    = "join"
	MsgTypeLeave   = "leave"
	MsgTypeSend    = "send"
	MsgTypeMessage = "message"
	MsgTypeError   = "error"
)

// wsConn is the subset of *websocket.Conn the hub writes to. Kept as an
// interface so room logic can be exercised without a network socket.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client represents one connected socket. UserID is uuid.Nil for connections
// that presented no valid credential at handshake time; those are still
// allowed to join rooms and chat.
type Client struct {
	Conn   wsConn
	UserID uuid.UUID

	// writeMu serializes writes; one connection may belong to several rooms
	// broadcasting concurrently.
	writeMu sync.Mutex
}

// write bounds every write with a deadline so one peer with a full buffer
// cannot stall the hub loop, and with it every other room's delivery.
func (c *Client) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

// InboundMessage is what clients send over the socket.
type InboundMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
}

// OutboundMessage is what the hub emits to clients.
type OutboundMessage struct {
	Type           string             `json:"type"`
	ConversationID uuid.UUID          `json:"conversation_id,omitempty"`
	Payload        *model.ChatMessage `json:"payload,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// roomEvent is one accepted message on its way to a room's members. Events
// are funnelled through a single hub channel so deliveries within a room keep
// the order in which the server accepted them.
type roomEvent struct {
	room    uuid.UUID
	payload model.ChatMessage
}
