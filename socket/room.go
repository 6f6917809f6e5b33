package socket

import (
	"log"
	"sync"
)

// Conn is the outbound half of a chat connection. *websocket.Conn satisfies
// it.
type Conn interface {
	WriteJSON(v interface{}) error
}

// sendQueueSize bounds each member's outbound queue. A member that cannot
// drain this many frames starts losing them rather than stalling the room.
const sendQueueSize = 32

// member is one connected participant. All frames for the member flow
// through its queue and a single writer goroutine, so per-recipient order is
// the order frames were enqueued.
type member struct {
	userID   string
	username string
	avatar   string
	send     chan Frame
	conn     Conn
}

func (m *member) writePump() {
	for frame := range m.send {
		if err := m.conn.WriteJSON(frame); err != nil {
			log.Printf("Dropping frame for %s: %v", m.userID, err)
		}
	}
}

// enqueue is best-effort: a full queue drops the frame for this member only.
func (m *member) enqueue(frame Frame) {
	select {
	case m.send <- frame:
	default:
		log.Printf("Send queue full for %s, dropping %s frame", m.userID, frame.Type)
	}
}

// Room is the live state of one event's chat: the currently connected
// members and their outbound queues. Runtime-only, never persisted.
type Room struct {
	eventID string

	mu      sync.Mutex
	members map[string]*member
}

func newRoom(eventID string) *Room {
	return &Room{
		eventID: eventID,
		members: make(map[string]*member),
	}
}

// addMember enrolls a participant. The joiner first receives a roster
// snapshot taken before they were added, then everyone else is told about
// the join. Holding the room lock across snapshot, insert and broadcast
// keeps those frames in one total order for every member.
func (r *Room) addMember(userID, username, avatar string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A rejoin replaces the previous connection. Closing the old queue lets
	// its writer goroutine exit; the old connection stops receiving frames.
	if old, ok := r.members[userID]; ok {
		delete(r.members, userID)
		close(old.send)
		if closer, ok := old.conn.(interface{ Close() error }); ok {
			closer.Close()
		}
	}

	snapshot := make([]string, 0, len(r.members))
	for _, m := range r.members {
		snapshot = append(snapshot, m.username)
	}

	m := &member{
		userID:   userID,
		username: username,
		avatar:   avatar,
		send:     make(chan Frame, sendQueueSize),
		conn:     conn,
	}
	r.members[userID] = m
	go m.writePump()

	m.enqueue(Frame{Type: FrameMembers, Body: snapshot})
	r.broadcastLocked(Frame{Type: FrameJoin, Body: username}, userID)
}

// removeMember drops a participant, tells the rest, and reports how many
// members remain. A non-nil conn restricts removal to the entry holding that
// connection, so a handler whose connection was replaced by a rejoin cannot
// evict its successor.
func (r *Room) removeMember(userID string, conn Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[userID]
	if !ok || (conn != nil && m.conn != conn) {
		return len(r.members)
	}
	delete(r.members, userID)
	close(m.send)

	if len(r.members) > 0 {
		r.broadcastLocked(Frame{Type: FrameExit, Body: m.username}, "")
	}
	return len(r.members)
}

// Broadcast sends a frame to every member except the one named by exceptID
// (empty means everyone). Best-effort per recipient.
func (r *Room) Broadcast(frame Frame, exceptID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(frame, exceptID)
}

func (r *Room) broadcastLocked(frame Frame, exceptID string) {
	for userID, m := range r.members {
		if userID == exceptID {
			continue
		}
		m.enqueue(frame)
	}
}

// SendTo delivers a frame to one member. A member that already left is a
// no-op.
func (r *Room) SendTo(userID string, frame Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[userID]; ok {
		m.enqueue(frame)
	}
}

// MemberCount returns the number of connected members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// MemberNames returns the display names of the connected members.
func (r *Room) MemberNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.members))
	for _, m := range r.members {
		names = append(names, m.username)
	}
	return names
}
