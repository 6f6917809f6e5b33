package models

// Event is a planning unit owned by a creator. The creator reference is
// mutable: it moves to the longest-standing accepted member when the current
// creator leaves.
type Event struct {
	EventID      string `dynamodbav:"eventId" json:"eventId"` // PK
	Creator      string `dynamodbav:"creator" json:"creator"`
	Title        string `dynamodbav:"title" json:"title"`
	Category     string `dynamodbav:"category" json:"category"`
	Description  string `dynamodbav:"description,omitempty" json:"description,omitempty"`
	Location     string `dynamodbav:"location,omitempty" json:"location,omitempty"`
	ChatIsActive bool   `dynamodbav:"chatIsActive" json:"chatIsActive"`
	StartTime    string `dynamodbav:"startTime,omitempty" json:"startTime,omitempty"`
	EndTime      string `dynamodbav:"endTime,omitempty" json:"endTime,omitempty"`
	CreatedAt    string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt    string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// EventsTable is the DynamoDB table name for events
const EventsTable = "Events"
