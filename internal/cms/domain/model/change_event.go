package model

import "time"

// ChangeType describes what happened to a collection
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeUpdated  ChangeType = "updated"
	ChangeDeleted  ChangeType = "deleted"
	ChangeReplaced ChangeType = "replaced"
)

// ChangeEvent is published after every successful write and streamed to
// change-feed subscribers.
type ChangeEvent struct {
	Type       ChangeType `json:"type"`
	Collection string     `json:"collection"`
	ID         string     `json:"id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}
