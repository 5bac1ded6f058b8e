// Package domain contains core concepts of the messages service.
// This file defines the direct Message exchanged between two users
// and the request used to modify it.
package domain

import (
	"time"
)

// MessageID is assigned by the store and never reused.
type MessageID uint64

// Message is a direct message from Author to Recipient, both email addresses.
// ReadDate is set if and only if Read is true.
type Message struct {
	ID         MessageID  `json:"id"`
	Author     string     `json:"author"`
	Recipient  string     `json:"recipient"`
	Content    string     `json:"content"`
	CreateDate time.Time  `json:"createDate"`
	EditDate   *time.Time `json:"editDate,omitempty"`
	Edited     bool       `json:"edited"`
	ReadDate   *time.Time `json:"readDate,omitempty"`
	Read       bool       `json:"read"`
}

// MessageUpdate carries the only fields a caller may change on an existing message.
type MessageUpdate struct {
	ID      MessageID `json:"id"`
	Content string    `json:"content"`
}

// Correspondent returns the other party of the message as seen by email.
// A message sent to oneself has email as its correspondent.
func (m Message) Correspondent(email string) string {
	if m.Author == email {
		return m.Recipient
	}
	return m.Author
}

// Involves reports whether email is the author or the recipient.
func (m Message) Involves(email string) bool {
	return m.Author == email || m.Recipient == email
}

// MarkRead flips the message to read once. The first read date is kept.
func (m *Message) MarkRead(at time.Time) bool {
	if m.Read {
		return false
	}
	at = at.UTC()
	m.Read = true
	m.ReadDate = &at
	return true
}

// Apply copies the mutable fields of the update and records the edition.
func (m *Message) Apply(update MessageUpdate, at time.Time) {
	at = at.UTC()
	m.Content = update.Content
	m.Edited = true
	m.EditDate = &at
}
