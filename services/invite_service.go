package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"eventure_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// InviteService is the invite ledger: the authority for who is in an event.
type InviteService struct {
	Dynamo DynamoAPI
}

func statusValue(status int) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.Itoa(status)}
}

func inviteKey(eventID, phone string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"eventId": &types.AttributeValueMemberS{Value: eventID},
		"phone":   &types.AttributeValueMemberS{Value: phone},
	}
}

// CreateInvites invites the given phones and the members of the given
// contact groups to the event. Groups are expanded to their phone lists and
// unioned with the direct phones, so a contact reachable through several
// sources still gets a single invite. The upsert is idempotent: an invite
// that already moved past pending is left untouched.
func (is *InviteService) CreateInvites(ctx context.Context, event *models.Event, inviter *models.User, phones []string, groupIDs []string) ([]models.Invite, error) {
	expanded, err := is.expandGroups(ctx, inviter.UserID, phones, groupIDs)
	if err != nil {
		return nil, err
	}

	now := nowStamp()
	updateExpression := "SET inviteId = if_not_exists(inviteId, :inviteId), inviter = :inviter, #status = :pending, createdAt = if_not_exists(createdAt, :now), updatedAt = :now"
	conditionExpression := "attribute_not_exists(eventId) OR #status = :pending"

	var invites []models.Invite
	for _, phone := range expanded {
		expressionValues := map[string]types.AttributeValue{
			":inviteId": &types.AttributeValueMemberS{Value: uuid.New().String()},
			":inviter":  &types.AttributeValueMemberS{Value: inviter.UserID},
			":pending":  statusValue(models.InviteStatusPending),
			":now":      &types.AttributeValueMemberS{Value: now},
		}
		expressionNames := map[string]string{
			"#status": "status",
		}

		attrs, err := is.Dynamo.UpdateItem(ctx, models.InvitesTable, updateExpression, conditionExpression, inviteKey(event.EventID, phone), expressionValues, expressionNames)
		if err != nil {
			if errors.Is(err, ErrConditionFailed) {
				// Already accepted, rejected or excluded; do not reopen.
				continue
			}
			return nil, err
		}

		var invite models.Invite
		if err := attributevalue.UnmarshalMap(attrs, &invite); err != nil {
			return nil, fmt.Errorf("failed to parse invite: %w", err)
		}
		invites = append(invites, invite)
	}
	return invites, nil
}

// expandGroups set-unions direct phones with the phone lists of the
// inviter's groups, dropping duplicates and empty entries.
func (is *InviteService) expandGroups(ctx context.Context, inviterID string, phones []string, groupIDs []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(phone string) {
		if phone == "" || seen[phone] {
			return
		}
		seen[phone] = true
		result = append(result, phone)
	}

	for _, phone := range phones {
		add(phone)
	}

	for _, groupID := range groupIDs {
		key := map[string]types.AttributeValue{
			"userId":  &types.AttributeValueMemberS{Value: inviterID},
			"groupId": &types.AttributeValueMemberS{Value: groupID},
		}
		item, err := is.Dynamo.GetItem(ctx, models.GroupsTable, key)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}

		var group models.Group
		if err := attributevalue.UnmarshalMap(item, &group); err != nil {
			return nil, fmt.Errorf("failed to parse group: %w", err)
		}
		for _, phone := range group.Phones {
			add(phone)
		}
	}
	return result, nil
}

// Respond accepts (1) or rejects (2) a pending invite on behalf of the
// invited participant. The write is conditional on the invite still being
// pending, so concurrent responses have at most one winner. Accepting the
// event's first invite activates its chat.
func (is *InviteService) Respond(ctx context.Context, inviteID string, user *models.User, status int) (*models.Invite, *models.Event, error) {
	if status != models.InviteStatusAccepted && status != models.InviteStatusRejected {
		return nil, nil, fmt.Errorf("%w: undefined status %d", ErrInvalidTransition, status)
	}

	invite, err := is.GetInviteByID(ctx, inviteID)
	if err != nil {
		return nil, nil, err
	}
	if invite.Phone != user.Phone {
		return nil, nil, fmt.Errorf("%w: invite is not addressed to the caller", ErrInvalidTransition)
	}

	updated, err := is.SetStatus(ctx, invite.EventID, invite.Phone, models.InviteStatusPending, status)
	if err != nil {
		if errors.Is(err, ErrConditionFailed) || errors.Is(err, ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: invite already answered", ErrInvalidTransition)
		}
		return nil, nil, err
	}

	var event *models.Event
	if status == models.InviteStatusAccepted {
		event, err = is.activateChat(ctx, invite.EventID)
		if err != nil {
			return nil, nil, err
		}
	}
	return updated, event, nil
}

// activateChat flips the event's chatIsActive flag. The flag is one-way: it
// stays true until the event is deleted, so the write is idempotent.
func (is *InviteService) activateChat(ctx context.Context, eventID string) (*models.Event, error) {
	key := map[string]types.AttributeValue{
		"eventId": &types.AttributeValueMemberS{Value: eventID},
	}
	updateExpression := "SET chatIsActive = :true, updatedAt = :now"
	expressionValues := map[string]types.AttributeValue{
		":true": &types.AttributeValueMemberBOOL{Value: true},
		":now":  &types.AttributeValueMemberS{Value: nowStamp()},
	}

	attrs, err := is.Dynamo.UpdateItem(ctx, models.EventsTable, updateExpression, "attribute_exists(eventId)", key, expressionValues, nil)
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var event models.Event
	if err := attributevalue.UnmarshalMap(attrs, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	log.Printf("Chat activated for event %s", eventID)
	return &event, nil
}

// Exclude drops a phone from the event. Only the current creator may do it.
func (is *InviteService) Exclude(ctx context.Context, event *models.Event, phone string, requester *models.User) (*models.Invite, error) {
	if event.Creator != requester.UserID {
		return nil, fmt.Errorf("%w: only the event creator can drop members", ErrForbidden)
	}

	invite, err := is.SetStatus(ctx, event.EventID, phone, -1, models.InviteStatusExcluded)
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, fmt.Errorf("%w: no invite for phone %s", ErrNotFound, phone)
		}
		return nil, err
	}
	return invite, nil
}

// SetStatus updates one invite's status. When expect is non-negative the
// write is conditional on the invite currently holding that status;
// otherwise it only requires the invite to exist. A lost condition is
// reported as ErrConditionFailed.
func (is *InviteService) SetStatus(ctx context.Context, eventID, phone string, expect, to int) (*models.Invite, error) {
	updateExpression := "SET #status = :to, updatedAt = :now"
	expressionValues := map[string]types.AttributeValue{
		":to":  statusValue(to),
		":now": &types.AttributeValueMemberS{Value: nowStamp()},
	}
	expressionNames := map[string]string{
		"#status": "status",
	}

	conditionExpression := "attribute_exists(eventId)"
	if expect >= 0 {
		conditionExpression = "#status = :expect"
		expressionValues[":expect"] = statusValue(expect)
	}

	attrs, err := is.Dynamo.UpdateItem(ctx, models.InvitesTable, updateExpression, conditionExpression, inviteKey(eventID, phone), expressionValues, expressionNames)
	if err != nil {
		return nil, err
	}

	var invite models.Invite
	if err := attributevalue.UnmarshalMap(attrs, &invite); err != nil {
		return nil, fmt.Errorf("failed to parse invite: %w", err)
	}
	return &invite, nil
}

// GetInviteByID looks an invite up through the invite-id index.
func (is *InviteService) GetInviteByID(ctx context.Context, inviteID string) (*models.Invite, error) {
	keyCondition := "inviteId = :inviteId"
	expressionValues := map[string]types.AttributeValue{
		":inviteId": &types.AttributeValueMemberS{Value: inviteID},
	}

	items, err := is.Dynamo.QueryItemsWithIndex(ctx, models.InvitesTable, models.InviteIDIndex, keyCondition, expressionValues, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: invite %s", ErrNotFound, inviteID)
	}

	var invite models.Invite
	if err := attributevalue.UnmarshalMap(items[0], &invite); err != nil {
		return nil, fmt.Errorf("failed to parse invite: %w", err)
	}
	return &invite, nil
}

// EventInvites returns every invite issued for the event.
func (is *InviteService) EventInvites(ctx context.Context, eventID string) ([]models.Invite, error) {
	keyCondition := "eventId = :eventId"
	expressionValues := map[string]types.AttributeValue{
		":eventId": &types.AttributeValueMemberS{Value: eventID},
	}

	items, err := is.Dynamo.QueryItems(ctx, models.InvitesTable, keyCondition, expressionValues, nil, 0)
	if err != nil {
		return nil, err
	}

	var invites []models.Invite
	if err := attributevalue.UnmarshalListOfMaps(items, &invites); err != nil {
		return nil, fmt.Errorf("failed to parse invites: %w", err)
	}
	return invites, nil
}

// AcceptedInvitesByUpdateAsc returns the event's accepted invites ordered by
// last update, oldest first. The head of the list is the succession
// candidate when the creator leaves.
func (is *InviteService) AcceptedInvitesByUpdateAsc(ctx context.Context, eventID string) ([]models.Invite, error) {
	invites, err := is.EventInvites(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var accepted []models.Invite
	for _, invite := range invites {
		if invite.Status == models.InviteStatusAccepted {
			accepted = append(accepted, invite)
		}
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].UpdatedAt < accepted[j].UpdatedAt
	})
	return accepted, nil
}

// ActiveMembers returns the phones holding accepted invites for the event,
// minus the given phone (so a viewer does not appear in their own roster).
func (is *InviteService) ActiveMembers(ctx context.Context, eventID, excludePhone string) ([]string, error) {
	invites, err := is.EventInvites(ctx, eventID)
	if err != nil {
		return nil, err
	}

	phones := []string{}
	for _, invite := range invites {
		if invite.Status == models.InviteStatusAccepted && invite.Phone != excludePhone {
			phones = append(phones, invite.Phone)
		}
	}
	return phones, nil
}

// IsMemberOfEvent reports whether the user may enter the event's chat: the
// creator always may, anyone else needs an accepted invite.
func (is *InviteService) IsMemberOfEvent(ctx context.Context, event *models.Event, user *models.User) (bool, error) {
	if event.Creator == user.UserID {
		return true, nil
	}

	item, err := is.Dynamo.GetItem(ctx, models.InvitesTable, inviteKey(event.EventID, user.Phone))
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	var invite models.Invite
	if err := attributevalue.UnmarshalMap(item, &invite); err != nil {
		return false, fmt.Errorf("failed to parse invite: %w", err)
	}
	return invite.Status == models.InviteStatusAccepted, nil
}

// PendingInvites returns the invites awaiting a response from the phone.
func (is *InviteService) PendingInvites(ctx context.Context, phone string) ([]models.Invite, error) {
	keyCondition := "phone = :phone"
	expressionValues := map[string]types.AttributeValue{
		":phone": &types.AttributeValueMemberS{Value: phone},
	}

	items, err := is.Dynamo.QueryItemsWithIndex(ctx, models.InvitesTable, models.InvitePhoneIndex, keyCondition, expressionValues, nil, 0)
	if err != nil {
		return nil, err
	}

	var invites []models.Invite
	if err := attributevalue.UnmarshalListOfMaps(items, &invites); err != nil {
		return nil, fmt.Errorf("failed to parse invites: %w", err)
	}

	pending := []models.Invite{}
	for _, invite := range invites {
		if invite.Status == models.InviteStatusPending {
			pending = append(pending, invite)
		}
	}
	return pending, nil
}

// DeleteEventInvites removes every invite of a deleted event.
func (is *InviteService) DeleteEventInvites(ctx context.Context, eventID string) error {
	invites, err := is.EventInvites(ctx, eventID)
	if err != nil {
		return err
	}
	if len(invites) == 0 {
		return nil
	}

	writeRequests := make([]types.WriteRequest, 0, len(invites))
	for _, invite := range invites {
		writeRequests = append(writeRequests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: inviteKey(invite.EventID, invite.Phone),
			},
		})
	}
	return is.Dynamo.BatchWriteItems(ctx, models.InvitesTable, writeRequests)
}
