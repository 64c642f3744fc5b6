package ws

import (
	"strings"
	"time"
)

type EventType string

const (
	EventRecognition      EventType = "recognition.completed"
	EventIdentityEnrolled EventType = "identity.enrolled"
	EventIdentityDeleted  EventType = "identity.deleted"
)

type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ParseEventTypes reads a comma separated subscription list such as
// "recognition.completed,identity.deleted". Unknown names are ignored and an
// empty result subscribes to everything.
func ParseEventTypes(raw string) map[EventType]bool {
	types := make(map[EventType]bool)
	for _, part := range strings.Split(raw, ",") {
		switch t := EventType(strings.TrimSpace(part)); t {
		case EventRecognition, EventIdentityEnrolled, EventIdentityDeleted:
			types[t] = true
		}
	}
	return types
}
