package services

import (
	"context"
	"fmt"

	"eventure_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// UserService is the identity collaborator: it resolves bearer tokens to
// active users and looks accounts up by phone or id.
type UserService struct {
	Dynamo DynamoAPI
}

// ResolveToken resolves a bearer token to an active user. Unknown tokens and
// inactive accounts both fail authentication.
func (us *UserService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	keyCondition := "#token = :token"
	expressionValues := map[string]types.AttributeValue{
		":token": &types.AttributeValueMemberS{Value: token},
	}
	expressionNames := map[string]string{
		"#token": "token",
	}

	items, err := us.Dynamo.QueryItemsWithIndex(ctx, models.UsersTable, models.UserTokenIndex, keyCondition, expressionValues, expressionNames, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrUnauthenticated
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(items[0], &user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	if !user.Active {
		return nil, ErrUnauthenticated
	}
	return &user, nil
}

// GetUserByID retrieves a user by primary key.
func (us *UserService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}

	item, err := us.Dynamo.GetItem(ctx, models.UsersTable, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(item, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	return &user, nil
}

// GetUserByPhone retrieves a user by phone number through the phone index.
func (us *UserService) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	keyCondition := "phone = :phone"
	expressionValues := map[string]types.AttributeValue{
		":phone": &types.AttributeValueMemberS{Value: phone},
	}

	items, err := us.Dynamo.QueryItemsWithIndex(ctx, models.UsersTable, models.UserPhoneIndex, keyCondition, expressionValues, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to look up phone: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(items[0], &user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	return &user, nil
}

// CreateUser registers an account with a generated id and bearer token.
func (us *UserService) CreateUser(ctx context.Context, username, phone, avatar string) (*models.User, error) {
	now := nowStamp()
	if username == "" {
		username = "Unknown"
	}

	user := models.User{
		UserID:    uuid.New().String(),
		Username:  username,
		Phone:     phone,
		Avatar:    avatar,
		Token:     uuid.New().String(),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := us.Dynamo.PutItem(ctx, models.UsersTable, user); err != nil {
		return nil, fmt.Errorf("failed to store user: %w", err)
	}
	return &user, nil
}
