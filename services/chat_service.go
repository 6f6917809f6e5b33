package services

import (
	"context"
	"errors"
	"fmt"

	"eventure_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// ChatService persists chat messages and serves the recent-history replay.
type ChatService struct {
	Dynamo DynamoAPI
	Users  *UserService
}

// CreateMessage persists one chat line and returns it annotated with the
// author, ready for broadcast.
func (cs *ChatService) CreateMessage(ctx context.Context, eventID string, author *models.User, text string) (*models.MessageView, error) {
	message := models.Message{
		EventID:   eventID,
		CreatedAt: nowStamp(),
		MessageID: uuid.New().String(),
		AuthorID:  author.UserID,
		Text:      text,
	}

	if err := cs.Dynamo.PutItem(ctx, models.MessagesTable, message); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	return &models.MessageView{
		MessageID: message.MessageID,
		User: models.MessageAuthor{
			ID:     author.UserID,
			Name:   author.Username,
			Avatar: author.Avatar,
		},
		Text:      message.Text,
		CreatedAt: message.CreatedAt,
	}, nil
}

// RecentMessages fetches the latest messages for an event, newest first from
// storage, then reverses them so clients receive chronological order. Each
// message carries its author's display name and avatar.
func (cs *ChatService) RecentMessages(ctx context.Context, eventID string, limit int) ([]models.MessageView, error) {
	keyCondition := "eventId = :eventId"
	expressionValues := map[string]types.AttributeValue{
		":eventId": &types.AttributeValueMemberS{Value: eventID},
	}

	items, err := cs.Dynamo.QueryItemsWithOptions(ctx, models.MessagesTable, keyCondition, expressionValues, nil, int32(limit), true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}

	// Oldest first for display.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	authors := make(map[string]models.MessageAuthor)
	views := make([]models.MessageView, 0, len(messages))
	for _, message := range messages {
		author, ok := authors[message.AuthorID]
		if !ok {
			author = models.MessageAuthor{ID: message.AuthorID, Name: "Unknown"}
			user, err := cs.Users.GetUserByID(ctx, message.AuthorID)
			if err == nil {
				author.Name = user.Username
				author.Avatar = user.Avatar
			} else if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			authors[message.AuthorID] = author
		}

		views = append(views, models.MessageView{
			MessageID: message.MessageID,
			User:      author,
			Text:      message.Text,
			CreatedAt: message.CreatedAt,
		})
	}
	return views, nil
}
