// Package realtime routes tip events to connected stream clients.
package realtime

import (
	"strconv"
	"time"
)

// EventType identifies the kind of realtime event.
type EventType string

const (
	EventNotification EventType = "notification"
	EventTipNew       EventType = "tip:new"
	EventTipUpdate    EventType = "tip:update"
	EventHeartbeat    EventType = "heartbeat"
	EventConnected    EventType = "connected"
)

// PublicChannel is the shared feed every client receives.
const PublicChannel = "public"

// feedVersion is bumped when the public feed payload changes shape.
const feedVersion = "v1"

// Event is one message for a channel. Channel is PublicChannel or a private
// channel key (the recipient's numeric user id).
type Event struct {
	Type    EventType `json:"type"`
	Channel string    `json:"channel"`

	// private notifications
	RecipientID uint      `json:"recipientId,omitempty"`
	TipID       uint      `json:"tipId,omitempty"`
	Message     string    `json:"message,omitempty"`
	EmittedAt   time.Time `json:"emittedAt,omitzero"`

	// public feed
	Author    string    `json:"author,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	V         string    `json:"v,omitempty"`
}

// PrivateChannel returns the private channel key of a user.
func PrivateChannel(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// NewNotificationEvent addresses a notification to one recipient.
func NewNotificationEvent(recipientID, tipID uint, message string, emittedAt time.Time) Event {
	return Event{
		Type:        EventNotification,
		Channel:     PrivateChannel(recipientID),
		RecipientID: recipientID,
		TipID:       tipID,
		Message:     message,
		EmittedAt:   emittedAt,
	}
}

// NewFeedEvent announces a public tip on the shared channel.
func NewFeedEvent(typ EventType, tipID uint, author string, tags []string, createdAt time.Time) Event {
	return Event{
		Type:      typ,
		Channel:   PublicChannel,
		TipID:     tipID,
		Author:    author,
		Tags:      tags,
		CreatedAt: createdAt,
		V:         feedVersion,
	}
}

func NewHeartbeatEvent() Event {
	return Event{Type: EventHeartbeat, EmittedAt: time.Now()}
}
