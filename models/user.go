package models

// User is an account identified by phone number. The token is an opaque
// bearer credential; only active users authenticate.
type User struct {
	UserID    string `dynamodbav:"userId" json:"userId"` // PK
	Username  string `dynamodbav:"username" json:"username"`
	Phone     string `dynamodbav:"phone" json:"phone"`
	Avatar    string `dynamodbav:"avatar,omitempty" json:"avatar,omitempty"`
	Token     string `dynamodbav:"token" json:"-"`
	Active    bool   `dynamodbav:"active" json:"active"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// UsersTable is the DynamoDB table name for users
const UsersTable = "Users"

// Secondary indexes on the Users table
const (
	UserTokenIndex = "TokenIndex" // token -> user
	UserPhoneIndex = "PhoneIndex" // phone -> user
)
