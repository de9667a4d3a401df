package models

import (
	"time"
)

// TicketType is one price band of an event.
type TicketType struct {
	Name      string `json:"name"`
	Price     int64  `json:"price"` // kobo
	Available int    `json:"available_tickets"`
}

// Event carries the inventory subset of the event aggregate that
// settlement mutates: sold counter, revenue accumulator and the
// per-type available counts.
type Event struct {
	ID           string       `json:"id"`
	CreatorID    string       `json:"creator_id"`
	Name         string       `json:"name"`
	Venue        string       `json:"venue"`
	StartsAt     time.Time    `json:"starts_at"`
	Status       string       `json:"status"` // draft, published, ended
	TicketsSold  int          `json:"tickets_sold"`
	TotalRevenue int64        `json:"total_revenue"` // kobo
	TicketTypes  []TicketType `json:"ticket_types"`
}

// TicketTypeByName returns a pointer into TicketTypes so callers can
// mutate the available count in place, or nil when the type is unknown.
func (e *Event) TicketTypeByName(name string) *TicketType {
	for i := range e.TicketTypes {
		if e.TicketTypes[i].Name == name {
			return &e.TicketTypes[i]
		}
	}
	return nil
}
