// Package events fans store hook callbacks out to push transports.
package events

import "time"

// EventType represents the type of store event.
type EventType string

// Event types pushed to the map UI.
const (
	VenueAdded   EventType = "venue.added"
	VenueUpdated EventType = "venue.updated"
	VenueRemoved EventType = "venue.removed"

	// Recenter carries a fly-to command; clients drop commands whose seq is
	// not greater than the last one applied.
	Recenter      EventType = "view.recenter"
	CenterChanged EventType = "view.center"
	Loading       EventType = "loading"
	RatesUpdated  EventType = "rates.updated"

	ClientConnected EventType = "client.connected"
)

// Event represents a store event with type, timestamp, and data.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
