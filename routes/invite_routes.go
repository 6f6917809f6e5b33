package routes

import (
	"eventure_server/controllers"
	"eventure_server/services"

	"github.com/gorilla/mux"
)

// RegisterInviteRoutes sets up routes for invite operations under /api/invites
func RegisterInviteRoutes(r *mux.Router, invites *services.InviteService, users *services.UserService) {
	controller := controllers.NewInviteController(invites)

	inviteRouter := r.PathPrefix("/api/invites").Subrouter()
	inviteRouter.Use(controllers.AuthMiddleware(users))

	inviteRouter.HandleFunc("", controller.HandleGetInvites).Methods("GET")
	inviteRouter.HandleFunc("/{id}", controller.HandleRespondInvite).Methods("PUT")
}
