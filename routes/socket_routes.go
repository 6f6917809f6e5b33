package routes

import (
	"eventure_server/socket"

	"github.com/gorilla/mux"
)

// RegisterChatSocket mounts the websocket chat endpoint. The token travels
// in the path because websocket clients cannot set an Authorization header.
func RegisterChatSocket(r *mux.Router, handler *socket.ChatHandler) {
	r.Handle("/ws/{event}/{token}", handler).Methods("GET")
}
