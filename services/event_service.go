package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"eventure_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// EventService owns the event lifecycle: creation, updates, deletion and the
// admin hand-off when the creator leaves.
type EventService struct {
	Dynamo  DynamoAPI
	Invites *InviteService
	Users   *UserService
}

// LeaveResult reports the outcome of a departure. NewAdmin is nil unless the
// departing creator handed the event over.
type LeaveResult struct {
	Leaved   bool         `json:"leaved"`
	NewAdmin *models.User `json:"newAdmin"`
}

func eventKey(eventID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"eventId": &types.AttributeValueMemberS{Value: eventID},
	}
}

// CreateEvent stores a new event owned by the creator. Chat starts inactive
// and is switched on by the first accepted invite.
func (es *EventService) CreateEvent(ctx context.Context, creator *models.User, event models.Event) (*models.Event, error) {
	now := nowStamp()
	event.EventID = uuid.New().String()
	event.Creator = creator.UserID
	event.ChatIsActive = false
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := es.Dynamo.PutItem(ctx, models.EventsTable, event); err != nil {
		return nil, fmt.Errorf("failed to store event: %w", err)
	}
	return &event, nil
}

// GetEvent retrieves an event by id.
func (es *EventService) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	item, err := es.Dynamo.GetItem(ctx, models.EventsTable, eventKey(eventID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, eventID)
	}

	var event models.Event
	if err := attributevalue.UnmarshalMap(item, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	return &event, nil
}

// EventPatch carries the creator-editable event fields. Nil pointers leave
// the stored value alone.
type EventPatch struct {
	Title       *string `json:"title"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
}

// UpdateEvent applies a patch to an event. Creator only.
func (es *EventService) UpdateEvent(ctx context.Context, event *models.Event, requester *models.User, patch EventPatch) (*models.Event, error) {
	if event.Creator != requester.UserID {
		return nil, fmt.Errorf("%w: only the event creator can update it", ErrForbidden)
	}

	if patch.Title != nil {
		event.Title = *patch.Title
	}
	if patch.Category != nil {
		event.Category = *patch.Category
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Location != nil {
		event.Location = *patch.Location
	}
	if patch.StartTime != nil {
		event.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		event.EndTime = *patch.EndTime
	}
	event.UpdatedAt = nowStamp()

	if err := es.Dynamo.PutItem(ctx, models.EventsTable, *event); err != nil {
		return nil, fmt.Errorf("failed to store event: %w", err)
	}
	return event, nil
}

// DeleteEvent removes the event and every invite issued for it. Creator only.
func (es *EventService) DeleteEvent(ctx context.Context, event *models.Event, requester *models.User) error {
	if event.Creator != requester.UserID {
		return fmt.Errorf("%w: only the event creator can delete it", ErrForbidden)
	}
	return es.deleteEventCascade(ctx, event.EventID)
}

func (es *EventService) deleteEventCascade(ctx context.Context, eventID string) error {
	if err := es.Invites.DeleteEventInvites(ctx, eventID); err != nil {
		return err
	}
	return es.Dynamo.DeleteItem(ctx, models.EventsTable, eventKey(eventID))
}

// Leave removes the user from the event.
//
// A departing creator hands the event to the longest-standing accepted
// member (earliest updatedAt among accepted invites). If nobody accepted,
// the event is deleted together with its invites. A non-creator departure
// only marks their own invite left.
func (es *EventService) Leave(ctx context.Context, event *models.Event, user *models.User) (*LeaveResult, error) {
	if event.Creator != user.UserID {
		_, err := es.Invites.SetStatus(ctx, event.EventID, user.Phone, models.InviteStatusAccepted, models.InviteStatusLeft)
		if err != nil {
			if errors.Is(err, ErrConditionFailed) {
				return nil, fmt.Errorf("%w: no accepted invite to leave", ErrInvalidTransition)
			}
			return nil, err
		}
		return &LeaveResult{Leaved: true}, nil
	}

	candidates, err := es.Invites.AcceptedInvitesByUpdateAsc(ctx, event.EventID)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		// Nobody to hand the event to: close it down entirely.
		if _, err := es.Invites.SetStatus(ctx, event.EventID, user.Phone, -1, models.InviteStatusLeft); err != nil && !errors.Is(err, ErrConditionFailed) {
			return nil, err
		}
		if err := es.deleteEventCascade(ctx, event.EventID); err != nil {
			return nil, err
		}
		log.Printf("Event %s deleted: creator left with no accepted members", event.EventID)
		return &LeaveResult{Leaved: true}, nil
	}

	candidate := candidates[0]
	newAdmin, err := es.Users.GetUserByPhone(ctx, candidate.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve succession candidate %s: %w", candidate.Phone, err)
	}

	updateExpression := "SET creator = :creator, updatedAt = :now"
	expressionValues := map[string]types.AttributeValue{
		":creator": &types.AttributeValueMemberS{Value: newAdmin.UserID},
		":now":     &types.AttributeValueMemberS{Value: nowStamp()},
	}
	if _, err := es.Dynamo.UpdateItem(ctx, models.EventsTable, updateExpression, "attribute_exists(eventId)", eventKey(event.EventID), expressionValues, nil); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, fmt.Errorf("%w: event %s", ErrNotFound, event.EventID)
		}
		return nil, err
	}

	if _, err := es.Invites.SetStatus(ctx, event.EventID, candidate.Phone, models.InviteStatusAccepted, models.InviteStatusPromotedAdmin); err != nil {
		return nil, err
	}

	// The outgoing creator's own invite record, when one exists from an
	// earlier promotion, is closed out as left.
	if _, err := es.Invites.SetStatus(ctx, event.EventID, user.Phone, -1, models.InviteStatusLeft); err != nil && !errors.Is(err, ErrConditionFailed) {
		return nil, err
	}

	log.Printf("Event %s handed over to %s", event.EventID, newAdmin.UserID)
	return &LeaveResult{Leaved: true, NewAdmin: newAdmin}, nil
}
