package models

// Group is a named list of phone contacts owned by one user, used to fan out
// invitations.
type Group struct {
	UserID    string   `dynamodbav:"userId" json:"userId"`   // PK
	GroupID   string   `dynamodbav:"groupId" json:"groupId"` // SK
	Title     string   `dynamodbav:"title" json:"title"`
	Phones    []string `dynamodbav:"phones" json:"phones"`
	CreatedAt string   `dynamodbav:"createdAt" json:"createdAt"`
}

// GroupsTable is the DynamoDB table name for contact groups
const GroupsTable = "Groups"
