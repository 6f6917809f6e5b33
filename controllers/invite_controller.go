package controllers

import (
	"encoding/json"
	"net/http"

	"eventure_server/services"
	"eventure_server/utils"

	"github.com/gorilla/mux"
)

// InviteController handles HTTP requests for the caller's invitations.
type InviteController struct {
	Invites *services.InviteService
}

// NewInviteController initializes the invite controller
func NewInviteController(invites *services.InviteService) *InviteController {
	return &InviteController{Invites: invites}
}

// HandleGetInvites returns the invitations still awaiting the caller's
// response.
func (c *InviteController) HandleGetInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := c.Invites.PendingInvites(r.Context(), CurrentUser(r).Phone)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, invites)
}

// HandleRespondInvite accepts (status 1) or rejects (status 2) a pending
// invite. Accepting the event's first invite activates its chat.
func (c *InviteController) HandleRespondInvite(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Status int `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	invite, event, err := c.Invites.Respond(r.Context(), mux.Vars(r)["id"], CurrentUser(r), request.Status)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	response := map[string]interface{}{"invite": invite}
	if event != nil {
		response["event"] = event
	}
	utils.RespondJSON(w, http.StatusOK, response)
}
