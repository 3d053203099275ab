package websockets

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/carecircle/carecircle_api/internal/availability"
	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/internal/notify"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type fakeConn struct {
	mu        sync.Mutex
	frames    chan []byte
	closed    bool
	deadlines []time.Time
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16)}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	f.frames <- append([]byte(nil), data...)
	return nil
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadlines = append(f.deadlines, t)
	return nil
}

func (f *fakeConn) deadlineCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deadlines)
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) next(t *testing.T) OutboundMessage {
	t.Helper()
	select {
	case raw := <-f.frames:
		var msg OutboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return OutboundMessage{}
	}
}

func (f *fakeConn) expectNone(t *testing.T) {
	t.Helper()
	select {
	case raw := <-f.frames:
		t.Fatalf("unexpected frame: %s", raw)
	case <-time.After(100 * time.Millisecond):
	}
}

type fakeMessageStore struct {
	circleID uuid.UUID
	saved    []model.ChatMessage
	failSave bool
	mu       sync.Mutex
}

func (f *fakeMessageStore) SaveMessage(_ context.Context, conversationID, authorID uuid.UUID, content string, flagged bool) (model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return model.ChatMessage{}, errors.New("store down")
	}
	msg := model.ChatMessage{
		ID:             uuid.New(),
		ConversationID: conversationID,
		AuthorID:       authorID,
		Content:        content,
		Flagged:        flagged,
		SentAt:         time.Now(),
	}
	f.saved = append(f.saved, msg)
	return msg, nil
}

func (f *fakeMessageStore) GetConversationCircle(_ context.Context, _ uuid.UUID) (uuid.UUID, error) {
	return f.circleID, nil
}

type fakeNotifyStore struct {
	members []notify.Member
}

func (f *fakeNotifyStore) GetCircleMembersWithTokens(_ context.Context, _ uuid.UUID) ([]notify.Member, error) {
	return f.members, nil
}

func (f *fakeNotifyStore) GetCircleAdmin(_ context.Context, _ uuid.UUID) (notify.Member, error) {
	return notify.Member{}, errors.New("no admin")
}

func (f *fakeNotifyStore) GetAvailability(_ context.Context, _, _ uuid.UUID) ([]availability.DaySlots, error) {
	return nil, nil
}

type fakePush struct {
	mu      sync.Mutex
	batches chan []string
}

func newFakePush() *fakePush {
	return &fakePush{batches: make(chan []string, 8)}
}

func (f *fakePush) MaxBatchSize() int { return 100 }

func (f *fakePush) SendBatch(_ context.Context, tokens []string, _, _ string, _ map[string]string) (notify.BatchResult, error) {
	f.batches <- append([]string(nil), tokens...)
	return notify.BatchResult{SuccessCount: len(tokens)}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestHub(store *fakeMessageStore, members []notify.Member, push notify.PushProvider) *Hub {
	log := quietLogger()
	resolver := notify.NewResolver(&fakeNotifyStore{members: members}, log)
	dispatcher := notify.NewDispatcher(push, log)
	h := NewHub(store, nil, resolver, dispatcher, log)
	go h.Run()
	return h
}

func joinSync(h *Hub, c *Client, room uuid.UUID) {
	h.join <- membership{client: c, room: room}
}

func TestSendBroadcastsToRoomAndNotifiesOffline(t *testing.T) {
	room := uuid.New()
	circle := uuid.New()

	alice := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	bob := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	offline := notify.Member{ID: uuid.New(), Name: "Denise", Tokens: []string{"tok-d"}}
	sender := notify.Member{ID: alice.UserID, Name: "Alice", Tokens: []string{"tok-a"}}

	store := &fakeMessageStore{circleID: circle}
	push := newFakePush()
	h := newTestHub(store, []notify.Member{sender, offline}, push)

	h.register <- alice
	h.register <- bob
	joinSync(h, alice, room)
	joinSync(h, bob, room)

	h.handleSend(alice, InboundMessage{Type: MsgTypeSend, ConversationID: room.String(), Content: "hello"})

	for _, c := range []*Client{alice, bob} {
		got := c.Conn.(*fakeConn).next(t)
		if got.Type != MsgTypeMessage {
			t.Fatalf("frame type = %s, want %s", got.Type, MsgTypeMessage)
		}
		if got.Payload == nil || got.Payload.Content != "hello" {
			t.Fatalf("payload = %+v, want content hello", got.Payload)
		}
		if got.ConversationID != room {
			t.Fatalf("conversation = %s, want %s", got.ConversationID, room)
		}
	}
	alice.Conn.(*fakeConn).expectNone(t)

	// Offline member gets exactly one push; the sender's token is excluded.
	select {
	case tokens := <-push.batches:
		if len(tokens) != 1 || tokens[0] != "tok-d" {
			t.Fatalf("push tokens = %v, want [tok-d]", tokens)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for offline push")
	}
	select {
	case tokens := <-push.batches:
		t.Fatalf("unexpected second push batch %v", tokens)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	room := uuid.New()
	store := &fakeMessageStore{circleID: uuid.New()}
	h := newTestHub(store, nil, newFakePush())

	c := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	h.register <- c
	joinSync(h, c, room)
	joinSync(h, c, room)

	h.handleSend(c, InboundMessage{Type: MsgTypeSend, ConversationID: room.String(), Content: "once"})

	fc := c.Conn.(*fakeConn)
	got := fc.next(t)
	if got.Payload == nil || got.Payload.Content != "once" {
		t.Fatalf("payload = %+v", got.Payload)
	}
	fc.expectNone(t) // a double join must not cause a double delivery
}

func TestSendToOtherRoomNotDelivered(t *testing.T) {
	roomA, roomB := uuid.New(), uuid.New()
	store := &fakeMessageStore{circleID: uuid.New()}
	h := newTestHub(store, nil, newFakePush())

	inA := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	inB := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	h.register <- inA
	h.register <- inB
	joinSync(h, inA, roomA)
	joinSync(h, inB, roomB)

	h.handleSend(inA, InboundMessage{Type: MsgTypeSend, ConversationID: roomA.String(), Content: "for room A"})

	inA.Conn.(*fakeConn).next(t)
	inB.Conn.(*fakeConn).expectNone(t)
}

func TestPersistenceFailureBlocksBroadcast(t *testing.T) {
	room := uuid.New()
	store := &fakeMessageStore{circleID: uuid.New(), failSave: true}
	push := newFakePush()
	h := newTestHub(store, nil, push)

	sender := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	watcher := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	h.register <- sender
	h.register <- watcher
	joinSync(h, sender, room)
	joinSync(h, watcher, room)

	h.handleSend(sender, InboundMessage{Type: MsgTypeSend, ConversationID: room.String(), Content: "doomed"})

	got := sender.Conn.(*fakeConn).next(t)
	if got.Type != MsgTypeError {
		t.Fatalf("sender should receive an error frame, got %s", got.Type)
	}
	watcher.Conn.(*fakeConn).expectNone(t)

	select {
	case tokens := <-push.batches:
		t.Fatalf("no push should be attempted when persistence fails, got %v", tokens)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEmptyContentRejectedBeforeModeration(t *testing.T) {
	room := uuid.New()
	store := &fakeMessageStore{circleID: uuid.New()}
	h := newTestHub(store, nil, newFakePush())

	c := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	h.register <- c
	joinSync(h, c, room)

	h.handleSend(c, InboundMessage{Type: MsgTypeSend, ConversationID: room.String(), Content: "   "})

	got := c.Conn.(*fakeConn).next(t)
	if got.Type != MsgTypeError {
		t.Fatalf("empty content should yield an error frame, got %s", got.Type)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.saved) != 0 {
		t.Fatal("empty content must never be persisted")
	}
}

func TestFlaggedMessagePersistedModerated(t *testing.T) {
	room := uuid.New()
	store := &fakeMessageStore{circleID: uuid.New()}
	h := newTestHub(store, nil, newFakePush())

	c := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	h.register <- c
	joinSync(h, c, room)

	h.handleSend(c, InboundMessage{Type: MsgTypeSend, ConversationID: room.String(), Content: "t'es qu'un connard"})

	got := c.Conn.(*fakeConn).next(t)
	if got.Payload == nil || got.Payload.Content == "t'es qu'un connard" {
		t.Fatalf("broadcast should carry the moderated text, got %+v", got.Payload)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.saved) != 1 {
		t.Fatalf("expected one saved message, got %d", len(store.saved))
	}
	if !store.saved[0].Flagged {
		t.Error("saved message should be flagged")
	}
	if store.saved[0].Content == "t'es qu'un connard" {
		t.Error("moderation must be applied before persistence")
	}
}

func TestBroadcastWritesAreDeadlineBounded(t *testing.T) {
	room := uuid.New()
	store := &fakeMessageStore{circleID: uuid.New()}
	h := newTestHub(store, nil, newFakePush())

	c := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	h.register <- c
	joinSync(h, c, room)

	h.handleSend(c, InboundMessage{Type: MsgTypeSend, ConversationID: room.String(), Content: "bounded"})

	fc := c.Conn.(*fakeConn)
	fc.next(t)

	// A stalled peer must time out instead of wedging the hub loop, so every
	// delivery sets a deadline before it writes.
	if fc.deadlineCount() == 0 {
		t.Fatal("broadcast write did not set a write deadline")
	}
}

func TestDisconnectLeavesAllRooms(t *testing.T) {
	room := uuid.New()
	store := &fakeMessageStore{circleID: uuid.New()}
	h := newTestHub(store, nil, newFakePush())

	gone := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	stay := &Client{Conn: newFakeConn(), UserID: uuid.New()}
	h.register <- gone
	h.register <- stay
	joinSync(h, gone, room)
	joinSync(h, stay, room)

	h.unregister <- gone

	h.handleSend(stay, InboundMessage{Type: MsgTypeSend, ConversationID: room.String(), Content: "still here"})

	stay.Conn.(*fakeConn).next(t)
	gone.Conn.(*fakeConn).expectNone(t)
}
