package socket

// Frame types sent to chat clients. Inbound traffic is raw text and carries
// no envelope.
const (
	FrameMembers  = "members"  // roster snapshot for a joining member
	FrameJoin     = "join"     // someone entered the room
	FrameMessages = "messages" // recent-history replay
	FrameMessage  = "message"  // one relayed chat line
	FrameExit     = "exit"     // someone left the room
	FrameError    = "error"    // pre-join failure, connection closes after
)

// Frame is the tagged union written to the websocket.
type Frame struct {
	Type string      `json:"type"`
	Body interface{} `json:"body"`
}
