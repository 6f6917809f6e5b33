package models

// Invite statuses, stored as numbers.
const (
	InviteStatusPending       = 0 // waiting for a response
	InviteStatusAccepted      = 1
	InviteStatusRejected      = 2
	InviteStatusExcluded      = 3 // dropped by the event creator
	InviteStatusLeft          = 4
	InviteStatusPromotedAdmin = 5 // became the event admin on creator departure
)

// Invite represents one participant's standing with respect to one event.
// The table is keyed (eventId, phone), so a phone holds at most one invite
// per event.
type Invite struct {
	EventID   string `dynamodbav:"eventId" json:"eventId"`   // PK
	Phone     string `dynamodbav:"phone" json:"phone"`       // SK
	InviteID  string `dynamodbav:"inviteId" json:"inviteId"` // GSI PK
	InviterID string `dynamodbav:"inviter" json:"inviter"`
	Status    int    `dynamodbav:"status" json:"status"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// InvitesTable is the DynamoDB table name for invites
const InvitesTable = "Invites"

// Secondary indexes on the Invites table
const (
	InviteIDIndex    = "InviteIdIndex" // inviteId -> invite
	InvitePhoneIndex = "PhoneIndex"    // phone -> invites across events
)
