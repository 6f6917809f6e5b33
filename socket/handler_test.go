package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"eventure_server/models"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

type fakeResolver struct {
	users map[string]*models.User
}

func (f *fakeResolver) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	if user, ok := f.users[token]; ok {
		return user, nil
	}
	return nil, errors.New("authentication failed")
}

type fakeEvents struct {
	events map[string]*models.Event
}

func (f *fakeEvents) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	if event, ok := f.events[eventID]; ok {
		return event, nil
	}
	return nil, errors.New("event not found")
}

type fakeMembers struct {
	allowed map[string]bool
}

func (f *fakeMembers) IsMemberOfEvent(ctx context.Context, event *models.Event, user *models.User) (bool, error) {
	return f.allowed[user.UserID], nil
}

type fakeStore struct {
	mu       sync.Mutex
	messages []models.MessageView
}

func (f *fakeStore) CreateMessage(ctx context.Context, eventID string, author *models.User, text string) (*models.MessageView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	view := models.MessageView{
		MessageID: fmt.Sprintf("m%d", len(f.messages)),
		User:      models.MessageAuthor{ID: author.UserID, Name: author.Username, Avatar: author.Avatar},
		Text:      text,
	}
	f.messages = append(f.messages, view)
	return &view, nil
}

func (f *fakeStore) RecentMessages(ctx context.Context, eventID string, limit int) ([]models.MessageView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := 0
	if len(f.messages) > limit {
		start = len(f.messages) - limit
	}
	out := make([]models.MessageView, len(f.messages)-start)
	copy(out, f.messages[start:])
	return out, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// decodedFrame keeps the body raw so each test unpacks only what it checks.
type decodedFrame struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

type chatFixture struct {
	server   *httptest.Server
	store    *fakeStore
	registry *RoomRegistry
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	resolver := &fakeResolver{users: map[string]*models.User{
		"tok-alice": {UserID: "u1", Username: "Alice", Phone: "+1"},
		"tok-bob":   {UserID: "u2", Username: "Bob", Phone: "+2"},
		"tok-eve":   {UserID: "u3", Username: "Eve", Phone: "+3"},
	}}
	events := &fakeEvents{events: map[string]*models.Event{
		"e1":   {EventID: "e1", Creator: "u1", ChatIsActive: true},
		"cold": {EventID: "cold", Creator: "u1", ChatIsActive: false},
	}}
	members := &fakeMembers{allowed: map[string]bool{"u1": true, "u2": true}}
	store := &fakeStore{}

	registry := NewRoomRegistry()
	handler := NewChatHandler(resolver, events, members, store, registry)
	router := mux.NewRouter()
	router.Handle("/ws/{event}/{token}", handler)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &chatFixture{server: server, store: store, registry: registry}
}

func (fx *chatFixture) dial(t *testing.T, eventID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(fx.server.URL, "http") + "/ws/" + eventID + "/" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) decodedFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame decodedFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

// waitForType reads frames until one of the wanted type arrives. Frames of
// other types may interleave because history replay runs concurrently with
// join notifications.
func waitForType(t *testing.T, conn *websocket.Conn, frameType string) decodedFrame {
	t.Helper()
	for i := 0; i < 10; i++ {
		frame := readFrame(t, conn)
		if frame.Type == frameType {
			return frame
		}
	}
	t.Fatalf("no %s frame within 10 reads", frameType)
	return decodedFrame{}
}

func expectRejection(t *testing.T, fx *chatFixture, eventID, token, reason string) {
	t.Helper()
	conn := fx.dial(t, eventID, token)

	frame := readFrame(t, conn)
	if frame.Type != FrameError {
		t.Fatalf("frame type = %s, want %s", frame.Type, FrameError)
	}
	var got string
	if err := json.Unmarshal(frame.Body, &got); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if got != reason {
		t.Fatalf("error reason = %q, want %q", got, reason)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("connection stayed open after rejection")
	}

	// A rejected connection must never have been enrolled anywhere.
	if fx.registry.Len() != 0 {
		t.Fatalf("rejected connection joined a room: %d rooms active", fx.registry.Len())
	}
}

func TestHandlerRejectsUnknownToken(t *testing.T) {
	fx := newChatFixture(t)
	expectRejection(t, fx, "e1", "tok-nope", "Authentication failed")
}

func TestHandlerRejectsUnknownEvent(t *testing.T) {
	fx := newChatFixture(t)
	expectRejection(t, fx, "nope", "tok-alice", "No event was found")
}

func TestHandlerRejectsInactiveChat(t *testing.T) {
	fx := newChatFixture(t)
	expectRejection(t, fx, "cold", "tok-alice", "Chat is not active for this event")
}

func TestHandlerRejectsNonMember(t *testing.T) {
	fx := newChatFixture(t)
	expectRejection(t, fx, "e1", "tok-eve", "User doesn't take part in event")
}

func TestHandlerSendsRosterThenHistory(t *testing.T) {
	fx := newChatFixture(t)
	fx.store.messages = []models.MessageView{
		{MessageID: "m0", User: models.MessageAuthor{ID: "u2", Name: "Bob"}, Text: "earlier"},
	}

	conn := fx.dial(t, "e1", "tok-alice")

	frame := readFrame(t, conn)
	if frame.Type != FrameMembers {
		t.Fatalf("first frame = %s, want %s", frame.Type, FrameMembers)
	}
	var roster []string
	if err := json.Unmarshal(frame.Body, &roster); err != nil {
		t.Fatalf("decode roster: %v", err)
	}
	if len(roster) != 0 {
		t.Fatalf("roster = %v, want empty", roster)
	}

	history := waitForType(t, conn, FrameMessages)
	var views []models.MessageView
	if err := json.Unmarshal(history.Body, &views); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(views) != 1 || views[0].Text != "earlier" {
		t.Fatalf("history = %+v, want the seeded message", views)
	}
}

func TestHandlerBroadcastsMessagesToEveryone(t *testing.T) {
	fx := newChatFixture(t)

	alice := fx.dial(t, "e1", "tok-alice")
	waitForType(t, alice, FrameMessages)
	bob := fx.dial(t, "e1", "tok-bob")
	waitForType(t, alice, FrameJoin)
	waitForType(t, bob, FrameMessages)

	if err := alice.WriteMessage(websocket.TextMessage, []byte("hi all")); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, conn := range []*websocket.Conn{alice, bob} {
		frame := waitForType(t, conn, FrameMessage)
		var view models.MessageView
		if err := json.Unmarshal(frame.Body, &view); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		if view.Text != "hi all" || view.User.Name != "Alice" {
			t.Fatalf("relayed message = %+v", view)
		}
	}

	if fx.store.count() != 1 {
		t.Fatalf("stored messages = %d, want 1", fx.store.count())
	}
}

func TestHandlerAnnouncesExitOnDisconnect(t *testing.T) {
	fx := newChatFixture(t)

	alice := fx.dial(t, "e1", "tok-alice")
	waitForType(t, alice, FrameMessages)
	bob := fx.dial(t, "e1", "tok-bob")
	waitForType(t, alice, FrameJoin)
	waitForType(t, bob, FrameMessages)

	bob.Close()

	frame := waitForType(t, alice, FrameExit)
	var name string
	if err := json.Unmarshal(frame.Body, &name); err != nil {
		t.Fatalf("decode exit body: %v", err)
	}
	if name != "Bob" {
		t.Fatalf("exit name = %q, want Bob", name)
	}
}
