// Package events describes the floor events published after successful
// reservation and table writes.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/yeremiapane/periodic-tables/models"
)

type Type string

const (
	ReservationCreated       Type = "reservation.created"
	ReservationUpdated       Type = "reservation.updated"
	ReservationStatusChanged Type = "reservation.status_changed"
	TableCreated             Type = "table.created"
	TableSeated              Type = "table.seated"
	TableCleared             Type = "table.cleared"
)

type Event struct {
	Type          Type                     `json:"type"`
	ReservationID uint                     `json:"reservation_id,omitempty"`
	TableID       uint                     `json:"table_id,omitempty"`
	Status        models.ReservationStatus `json:"status,omitempty"`
	At            time.Time                `json:"at"`
}

// Publisher delivers events to one destination.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
