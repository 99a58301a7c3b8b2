// Package notify defines the wire schema for reminder notifications and its
// codec. No other package may reinterpret the broadcast payload format.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Channel is the single broadcast channel shared by all dispatchers and
// both gateways in a deployment.
const Channel = "reminder_notifications"

// ErrMalformedEvent reports a payload that is not a valid envelope. Relay
// and poll loops drop the single message and continue.
var ErrMalformedEvent = errors.New("malformed event")

// EventType distinguishes the two notification moments of one reminder.
type EventType string

const (
	EventCreated   EventType = "created"
	EventTriggered EventType = "triggered"
)

// Envelope is the immutable notification value published on Channel.
// DueTime is always serialized as RFC 3339 in UTC so every consumer parses
// the same textual instant regardless of the producer's locale.
type Envelope struct {
	EventType  EventType `json:"event_type"`
	ReminderID int64     `json:"reminder_id"`
	UserID     int64     `json:"user_id"`
	NoteID     *int64    `json:"note_id,omitempty"`
	DueTime    time.Time `json:"due_time"`
	Message    string    `json:"message"`
}

// Encode serializes the envelope, normalizing DueTime to UTC. It does not
// fail for well-formed envelopes.
func Encode(e Envelope) ([]byte, error) {
	e.DueTime = e.DueTime.UTC()
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses an envelope, returning ErrMalformedEvent when the payload is
// not valid JSON or is missing event_type or reminder_id.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if e.EventType == "" {
		return Envelope{}, fmt.Errorf("%w: missing event_type", ErrMalformedEvent)
	}
	if e.ReminderID == 0 {
		return Envelope{}, fmt.Errorf("%w: missing reminder_id", ErrMalformedEvent)
	}
	return e, nil
}
