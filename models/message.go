package models

// Message is one persisted chat line, keyed by event with the creation
// timestamp as sort key so history queries come back in time order.
type Message struct {
	EventID   string `dynamodbav:"eventId" json:"eventId"`     // PK
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"` // SK
	MessageID string `dynamodbav:"messageId" json:"messageId"`
	AuthorID  string `dynamodbav:"authorId" json:"authorId"`
	Text      string `dynamodbav:"text" json:"text"`
}

// MessageAuthor is the author block attached to messages sent to chat
// clients.
type MessageAuthor struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// MessageView is a message annotated with its author, the shape chat
// clients receive.
type MessageView struct {
	MessageID string        `json:"messageId"`
	User      MessageAuthor `json:"user"`
	Text      string        `json:"text"`
	CreatedAt string        `json:"createdAt"`
}

// MessagesTable is the DynamoDB table name for chat messages
const MessagesTable = "Messages"
