// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package models

import (
	"time"
)

// MessagesTable is the table whose row changes are published on the change feed.
const MessagesTable = "Message"

// Message is one direct chat message row.
type Message struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
	SenderID   string    `json:"senderid"`
	ReceiverID string    `json:"recieverId"`
}

// Involves reports whether userA and userB are the two ends of the message,
// in either direction.
func (m Message) Involves(userA, userB string) bool {
	return (m.SenderID == userA && m.ReceiverID == userB) ||
		(m.SenderID == userB && m.ReceiverID == userA)
}

// ChangeType is the kind of row change delivered on the change feed.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeEvent is one row change notification on "table-db-changes".
// New carries the full new row; for deletes only Old is populated.
type ChangeEvent struct {
	EventType       ChangeType `json:"eventType"`
	Schema          string     `json:"schema"`
	Table           string     `json:"table"`
	New             Message    `json:"new"`
	Old             Message    `json:"old"`
	CommitTimestamp time.Time  `json:"commit_timestamp"`
}

// Row returns the row the event is about.
func (e ChangeEvent) Row() Message {
	if e.EventType == ChangeDelete {
		return e.Old
	}
	return e.New
}
