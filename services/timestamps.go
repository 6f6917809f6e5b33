package services

import "time"

// timestampLayout is fixed-width so stored stamps sort lexicographically the
// same way they sort chronologically. Invite succession and message history
// both order by these strings.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func nowStamp() string {
	return time.Now().UTC().Format(timestampLayout)
}
