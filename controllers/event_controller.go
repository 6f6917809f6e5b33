package controllers

import (
	"encoding/json"
	"net/http"

	"eventure_server/models"
	"eventure_server/services"
	"eventure_server/utils"

	"github.com/gorilla/mux"
)

// EventController handles HTTP requests for the event lifecycle: creation,
// updates, invitations, departures and exclusions.
type EventController struct {
	Events  *services.EventService
	Invites *services.InviteService
}

// NewEventController initializes the event controller
func NewEventController(events *services.EventService, invites *services.InviteService) *EventController {
	return &EventController{Events: events, Invites: invites}
}

func (c *EventController) loadEvent(w http.ResponseWriter, r *http.Request) *models.Event {
	event, err := c.Events.GetEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.RespondError(w, err)
		return nil
	}
	return event
}

// HandleCreateEvent creates an event and invites the listed phones and
// groups to it.
func (c *EventController) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Event  models.Event `json:"event"`
		Phones []string     `json:"phones"`
		Groups []string     `json:"groups"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	user := CurrentUser(r)
	event, err := c.Events.CreateEvent(r.Context(), user, request.Event)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	if _, err := c.Invites.CreateInvites(r.Context(), event, user, request.Phones, request.Groups); err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, event)
}

// HandleUpdateEvent updates event fields. Creator only.
func (c *EventController) HandleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	event := c.loadEvent(w, r)
	if event == nil {
		return
	}

	var patch services.EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	updated, err := c.Events.UpdateEvent(r.Context(), event, CurrentUser(r), patch)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

// HandleDeleteEvent deletes the event and its invitations. Creator only.
func (c *EventController) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	event := c.loadEvent(w, r)
	if event == nil {
		return
	}

	if err := c.Events.DeleteEvent(r.Context(), event, CurrentUser(r)); err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, event)
}

// HandleInviteToEvent invites more phones/groups to an existing event.
func (c *EventController) HandleInviteToEvent(w http.ResponseWriter, r *http.Request) {
	event := c.loadEvent(w, r)
	if event == nil {
		return
	}

	var request struct {
		Phones []string `json:"phones"`
		Groups []string `json:"groups"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	invites, err := c.Invites.CreateInvites(r.Context(), event, CurrentUser(r), request.Phones, request.Groups)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"event":        event,
		"invitesCount": len(invites),
	})
}

// HandleLeaveEvent removes the caller from the event. A departing creator
// hands the event to the longest-standing accepted member, or deletes it
// when nobody accepted.
func (c *EventController) HandleLeaveEvent(w http.ResponseWriter, r *http.Request) {
	event := c.loadEvent(w, r)
	if event == nil {
		return
	}

	result, err := c.Events.Leave(r.Context(), event, CurrentUser(r))
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

// HandleDropFromEvent excludes a phone from the event. Creator only.
func (c *EventController) HandleDropFromEvent(w http.ResponseWriter, r *http.Request) {
	event := c.loadEvent(w, r)
	if event == nil {
		return
	}

	var request struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Phone == "" {
		utils.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "No contact to drop from the event"})
		return
	}

	invite, err := c.Invites.Exclude(r.Context(), event, request.Phone, CurrentUser(r))
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, invite)
}

// HandleGetMembers returns the phones that accepted the invitation, minus
// the caller.
func (c *EventController) HandleGetMembers(w http.ResponseWriter, r *http.Request) {
	event := c.loadEvent(w, r)
	if event == nil {
		return
	}

	members, err := c.Invites.ActiveMembers(r.Context(), event.EventID, CurrentUser(r).Phone)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, members)
}
