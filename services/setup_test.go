package services

import (
	"context"
	"testing"

	"eventure_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

func newTestServices(t *testing.T) (*fakeDynamo, *UserService, *InviteService, *EventService, *ChatService) {
	t.Helper()
	fake := newFakeDynamo()
	users := &UserService{Dynamo: fake}
	invites := &InviteService{Dynamo: fake}
	events := &EventService{Dynamo: fake, Invites: invites, Users: users}
	chat := &ChatService{Dynamo: fake, Users: users}
	return fake, users, invites, events, chat
}

func createUser(t *testing.T, users *UserService, name, phone string) *models.User {
	t.Helper()
	user, err := users.CreateUser(context.Background(), name, phone, "")
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func createEvent(t *testing.T, events *EventService, creator *models.User) *models.Event {
	t.Helper()
	event, err := events.CreateEvent(context.Background(), creator, models.Event{Title: "Picnic", Category: "outdoors"})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

func invitePhones(t *testing.T, invites *InviteService, event *models.Event, inviter *models.User, phones ...string) []models.Invite {
	t.Helper()
	created, err := invites.CreateInvites(context.Background(), event, inviter, phones, nil)
	if err != nil {
		t.Fatalf("create invites: %v", err)
	}
	return created
}

func acceptInvite(t *testing.T, invites *InviteService, event *models.Event, user *models.User) *models.Invite {
	t.Helper()
	invite := getInvite(t, invites, event.EventID, user.Phone)
	accepted, _, err := invites.Respond(context.Background(), invite.InviteID, user, models.InviteStatusAccepted)
	if err != nil {
		t.Fatalf("accept invite for %s: %v", user.Phone, err)
	}
	return accepted
}

func getInvite(t *testing.T, invites *InviteService, eventID, phone string) *models.Invite {
	t.Helper()
	item, err := invites.Dynamo.GetItem(context.Background(), models.InvitesTable, inviteKey(eventID, phone))
	if err != nil {
		t.Fatalf("get invite: %v", err)
	}
	if item == nil {
		t.Fatalf("no invite for (%s, %s)", eventID, phone)
	}
	var invite models.Invite
	if err := attributevalue.UnmarshalMap(item, &invite); err != nil {
		t.Fatalf("parse invite: %v", err)
	}
	return &invite
}
