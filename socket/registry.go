package socket

import "sync"

// RoomRegistry maps event ids to their active chat rooms. Rooms are created
// lazily on first join and removed when the last member leaves. Join and
// Leave are serialized through the registry lock, so a join can never land
// in a room that a concurrent leave is releasing.
//
// The registry is plain state owned by whoever constructs it (the server at
// startup, a test locally); there is no package-level instance.
type RoomRegistry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRoomRegistry returns an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*Room)}
}

// Join enrolls the participant in the event's room, creating the room if it
// does not exist, and returns the room.
func (rr *RoomRegistry) Join(eventID, userID, username, avatar string, conn Conn) *Room {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	room, ok := rr.rooms[eventID]
	if !ok {
		room = newRoom(eventID)
		rr.rooms[eventID] = room
	}
	room.addMember(userID, username, avatar, conn)
	return room
}

// Leave removes the participant from the event's room and releases the room
// once it is empty. The conn identifies which connection is leaving: a leave
// raised by a connection that was already replaced is a no-op.
func (rr *RoomRegistry) Leave(eventID, userID string, conn Conn) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	room, ok := rr.rooms[eventID]
	if !ok {
		return
	}
	if room.removeMember(userID, conn) == 0 {
		delete(rr.rooms, eventID)
	}
}

// Lookup returns the active room for the event, or nil.
func (rr *RoomRegistry) Lookup(eventID string) *Room {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return rr.rooms[eventID]
}

// Len reports how many rooms are currently active.
func (rr *RoomRegistry) Len() int {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return len(rr.rooms)
}
