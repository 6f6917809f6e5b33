package routes

import (
	"eventure_server/controllers"
	"eventure_server/services"

	"github.com/gorilla/mux"
)

// RegisterEventRoutes sets up routes for event operations under /api/events
func RegisterEventRoutes(r *mux.Router, events *services.EventService, invites *services.InviteService, users *services.UserService) {
	controller := controllers.NewEventController(events, invites)

	eventRouter := r.PathPrefix("/api/events").Subrouter()
	eventRouter.Use(controllers.AuthMiddleware(users))

	eventRouter.HandleFunc("", controller.HandleCreateEvent).Methods("POST")
	eventRouter.HandleFunc("/{id}", controller.HandleUpdateEvent).Methods("PUT")
	eventRouter.HandleFunc("/{id}", controller.HandleDeleteEvent).Methods("DELETE")
	eventRouter.HandleFunc("/{id}/invites", controller.HandleInviteToEvent).Methods("PUT")
	eventRouter.HandleFunc("/{id}/leave", controller.HandleLeaveEvent).Methods("PUT")
	eventRouter.HandleFunc("/{id}/drop", controller.HandleDropFromEvent).Methods("PUT")
	eventRouter.HandleFunc("/{id}/members", controller.HandleGetMembers).Methods("GET")
}
