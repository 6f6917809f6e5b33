package socket

import (
	"context"
	"log"
	"net/http"

	"eventure_server/models"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// historyLimit is how many recent messages a joining member gets replayed.
const historyLimit = 10

// UserResolver authenticates a bearer token.
type UserResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

// EventSource loads events for authorization.
type EventSource interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
}

// MembershipChecker decides whether a user belongs to an event's chat.
type MembershipChecker interface {
	IsMemberOfEvent(ctx context.Context, event *models.Event, user *models.User) (bool, error)
}

// MessageStore persists chat lines and serves the history replay.
type MessageStore interface {
	CreateMessage(ctx context.Context, eventID string, author *models.User, text string) (*models.MessageView, error)
	RecentMessages(ctx context.Context, eventID string, limit int) ([]models.MessageView, error)
}

// ChatHandler serves GET /ws/{event}/{token}: it upgrades the connection,
// authenticates and authorizes it, then relays chat traffic until the
// client disconnects.
type ChatHandler struct {
	Users    UserResolver
	Events   EventSource
	Members  MembershipChecker
	Chat     MessageStore
	Registry *RoomRegistry

	upgrader websocket.Upgrader
}

// NewChatHandler wires the chat endpoint to its collaborators.
func NewChatHandler(users UserResolver, events EventSource, members MembershipChecker, chat MessageStore, registry *RoomRegistry) *ChatHandler {
	return &ChatHandler{
		Users:    users,
		Events:   events,
		Members:  members,
		Chat:     chat,
		Registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	eventID := vars["event"]
	token := vars["token"]

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	// The connection outlives the HTTP request, so storage calls hang off a
	// fresh context rather than the hijacked request's.
	ctx := context.Background()

	user, err := h.Users.ResolveToken(ctx, token)
	if err != nil {
		h.reject(conn, "Authentication failed")
		return
	}

	event, err := h.Events.GetEvent(ctx, eventID)
	if err != nil {
		h.reject(conn, "No event was found")
		return
	}
	if !event.ChatIsActive {
		h.reject(conn, "Chat is not active for this event")
		return
	}

	isMember, err := h.Members.IsMemberOfEvent(ctx, event, user)
	if err != nil {
		h.reject(conn, "Failed to verify event membership")
		return
	}
	if !isMember {
		h.reject(conn, "User doesn't take part in event")
		return
	}

	room := h.Registry.Join(event.EventID, user.UserID, user.Username, user.Avatar, conn)
	log.Printf("User %s joined chat of event %s", user.UserID, event.EventID)

	go h.replayHistory(ctx, room, event.EventID, user.UserID)

	// The read loop is the connection's only relay path; leaving after it
	// returns guarantees leave is sequenced behind any in-flight relay.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		view, err := h.Chat.CreateMessage(ctx, event.EventID, user, string(data))
		if err != nil {
			// Drop the frame; the connection and the room stay up.
			log.Printf("Failed to persist message from %s: %v", user.UserID, err)
			continue
		}
		room.Broadcast(Frame{Type: FrameMessage, Body: view}, "")
	}

	h.Registry.Leave(event.EventID, user.UserID, conn)
	conn.Close()
	log.Printf("User %s left chat of event %s", user.UserID, event.EventID)
}

func (h *ChatHandler) replayHistory(ctx context.Context, room *Room, eventID, userID string) {
	views, err := h.Chat.RecentMessages(ctx, eventID, historyLimit)
	if err != nil {
		log.Printf("Failed to fetch history for event %s: %v", eventID, err)
		return
	}
	room.SendTo(userID, Frame{Type: FrameMessages, Body: views})
}

// reject reports a pre-join failure with a single error frame and closes
// the connection without ever registering it.
func (h *ChatHandler) reject(conn *websocket.Conn, reason string) {
	if err := conn.WriteJSON(Frame{Type: FrameError, Body: reason}); err != nil {
		log.Printf("Failed to send error frame: %v", err)
	}
	conn.Close()
}
