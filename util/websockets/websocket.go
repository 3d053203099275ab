package websockets

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/internal/moderation"
	"github.com/carecircle/carecircle_api/internal/notify"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	sendTimeout = 10 * time.Second
	writeWait   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MessageStore persists accepted chat messages and resolves conversation
// metadata for the offline fan-out.
type MessageStore interface {
	SaveMessage(ctx context.Context, conversationID, authorID uuid.UUID, content string, flagged bool) (model.ChatMessage, error)
	GetConversationCircle(ctx context.Context, conversationID uuid.UUID) (uuid.UUID, error)
}

// Verifier checks a handshake credential. Failure downgrades the connection
// to anonymous instead of rejecting it.
type Verifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Hub is the room bus: it tracks which connections are viewing which
// conversation and broadcasts accepted messages to them. It is constructed
// once at startup and passed by reference to whatever needs to broadcast.
type Hub struct {
	store      MessageStore
	verifier   Verifier
	resolver   *notify.Resolver
	dispatcher *notify.Dispatcher
	logger     *logrus.Logger

	clients map[*Client]map[uuid.UUID]bool // connection -> joined rooms
	rooms   map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	join       chan membership
	leave      chan membership
	broadcast  chan roomEvent
}

type membership struct {
	client *Client
	room   uuid.UUID
}

func NewHub(store MessageStore, verifier Verifier, resolver *notify.Resolver, dispatcher *notify.Dispatcher, logger *logrus.Logger) *Hub {
	return &Hub{
		store:      store,
		verifier:   verifier,
		resolver:   resolver,
		dispatcher: dispatcher,
		logger:     logger,
		clients:    make(map[*Client]map[uuid.UUID]bool),
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		leave:      make(chan membership),
		broadcast:  make(chan roomEvent, 64),
	}
}

// SetVerifier attaches the credential check. Called once during wiring,
// before Run starts accepting connections.
func (h *Hub) SetVerifier(v Verifier) {
	h.verifier = v
}

// Run drives the hub. Membership changes and broadcasts go through this
// single loop, which keeps room state free of locks and keeps per-room
// delivery in acceptance order.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = make(map[uuid.UUID]bool)

		case client := <-h.unregister:
			h.dropClient(client)

		case m := <-h.join:
			h.joinRoom(m.client, m.room)

		case m := <-h.leave:
			h.leaveRoom(m.client, m.room)

		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func (h *Hub) joinRoom(client *Client, room uuid.UUID) {
	rooms, ok := h.clients[client]
	if !ok {
		return // already disconnected
	}
	rooms[room] = true // joining twice has the same effect as once
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
}

func (h *Hub) leaveRoom(client *Client, room uuid.UUID) {
	if rooms, ok := h.clients[client]; ok {
		delete(rooms, room)
	}
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) dropClient(client *Client) {
	rooms, ok := h.clients[client]
	if !ok {
		return
	}
	for room := range rooms {
		h.leaveRoom(client, room)
	}
	delete(h.clients, client)
	client.Conn.Close()
	h.logger.WithField("user_id", client.UserID).Debug("client disconnected")
}

func (h *Hub) deliver(ev roomEvent) {
	members := h.rooms[ev.room]
	if len(members) == 0 {
		return
	}

	out, err := json.Marshal(OutboundMessage{
		Type:           MsgTypeMessage,
		ConversationID: ev.room,
		Payload:        &ev.payload,
	})
	if err != nil {
		h.logger.WithError(err).Error("failed to encode broadcast")
		return
	}

	// Snapshot first; writes happen on the snapshot so a slow connection
	// being dropped mid-iteration cannot corrupt room state.
	snapshot := make([]*Client, 0, len(members))
	for c := range members {
		snapshot = append(snapshot, c)
	}

	for _, c := range snapshot {
		if err := c.write(websocket.TextMessage, out); err != nil {
			h.dropClient(c)
		}
	}
}

// HandleConnections upgrades HTTP requests to WebSocket connections. The
// credential is taken from the token query parameter or Authorization header
// and verified opportunistically: an invalid or missing token yields an
// anonymous connection rather than a refusal.
func (h *Hub) HandleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{Conn: conn, UserID: h.identify(r)}
	h.register <- client

	defer func() {
		h.unregister <- client
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendError(client, uuid.Nil, "invalid message")
			continue
		}

		switch msg.Type {
		case MsgTypeJoin:
			room, err := uuid.Parse(msg.ConversationID)
			if err != nil {
				h.sendError(client, uuid.Nil, "invalid conversation id")
				continue
			}
			h.join <- membership{client: client, room: room}

		case MsgTypeLeave:
			room, err := uuid.Parse(msg.ConversationID)
			if err != nil {
				continue
			}
			h.leave <- membership{client: client, room: room}

		case MsgTypeSend:
			h.handleSend(client, msg)
		}
	}
}

func (h *Hub) identify(r *http.Request) uuid.UUID {
	token := r.URL.Query().Get("token")
	if token == "" {
		auth := strings.Split(r.Header.Get("Authorization"), " ")
		if len(auth) == 2 && auth[0] == "Bearer" {
			token = auth[1]
		}
	}
	if token == "" || h.verifier == nil {
		return uuid.Nil
	}
	userID, err := h.verifier.Verify(token)
	if err != nil {
		h.logger.WithError(err).Debug("socket credential rejected, continuing anonymous")
		return uuid.Nil
	}
	return userID
}

// handleSend runs on the connection's read goroutine: validation here, then
// the shared acceptance pipeline. Store and push calls never run inside the
// hub loop.
func (h *Hub) handleSend(client *Client, msg InboundMessage) {
	room, err := uuid.Parse(msg.ConversationID)
	if err != nil {
		h.sendError(client, uuid.Nil, "invalid conversation id")
		return
	}
	if strings.TrimSpace(msg.Content) == "" {
		h.sendError(client, room, "empty message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if _, err := h.Publish(ctx, room, client.UserID, msg.Content); err != nil {
		h.sendError(client, room, "message could not be saved")
	}
}

// Publish is the acceptance pipeline shared by the socket and HTTP send
// paths: moderate, persist, enqueue the room broadcast, fire the offline push
// fan-out. A notification failure never fails the send; a persistence failure
// always does.
func (h *Hub) Publish(ctx context.Context, conversationID, authorID uuid.UUID, content string) (model.ChatMessage, error) {
	clean, flagged := moderation.Moderate(content)

	saved, err := h.store.SaveMessage(ctx, conversationID, authorID, clean, flagged)
	if err != nil {
		h.logger.WithError(err).WithField("conversation_id", conversationID).Error("failed to persist message")
		return model.ChatMessage{}, err
	}

	h.broadcast <- roomEvent{room: conversationID, payload: saved}
	go h.fanOut(conversationID, saved)

	return saved, nil
}

func (h *Hub) fanOut(conversationID uuid.UUID, msg model.ChatMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	circleID, err := h.store.GetConversationCircle(ctx, conversationID)
	if err != nil {
		h.logger.WithError(err).WithField("conversation_id", conversationID).Warn("fan-out: circle lookup failed")
		return
	}

	// Chat notifications go to the whole circle minus the author, with no
	// skill or availability filtering.
	members, err := h.resolver.Resolve(ctx, circleID, msg.AuthorID, "", nil)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"circle_id":       circleID,
			"conversation_id": conversationID,
		}).Warn("fan-out: recipient resolution failed")
		return
	}

	title := msg.AuthorName
	if title == "" {
		title = "New message"
	}

	h.dispatcher.Dispatch(ctx, notify.Tokens(members), title, msg.Content, map[string]string{
		"type":            "chat_message",
		"conversation_id": conversationID.String(),
	})
}

func (h *Hub) sendError(client *Client, room uuid.UUID, reason string) {
	out, err := json.Marshal(OutboundMessage{
		Type:           MsgTypeError,
		ConversationID: room,
		Error:          reason,
	})
	if err != nil {
		return
	}
	_ = client.write(websocket.TextMessage, out)
}
