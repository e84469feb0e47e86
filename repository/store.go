// Package repository is the persistence collaborator of the reservation core.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/yeremiapane/periodic-tables/models"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a compare-and-set write finds the row in a
	// different state than expected, i.e. another writer got there first.
	ErrConflict = errors.New("record changed concurrently")
	// ErrRollback is returned by Atomically when fn failed and its writes
	// could not be rolled back.
	ErrRollback = errors.New("transaction rollback failed")
)

// Store reads and writes reservations and tables. Every write returns the
// record as stored after the write.
type Store interface {
	GetReservation(ctx context.Context, id uint) (models.Reservation, error)
	// ListReservationsByDate returns active (not finished, not cancelled)
	// reservations for date ordered by time.
	ListReservationsByDate(ctx context.Context, date string) ([]models.Reservation, error)
	// SearchReservationsByPhone matches digits against mobile numbers with
	// "(", ")", "-" and spaces removed, ordered by date.
	SearchReservationsByPhone(ctx context.Context, digits string) ([]models.Reservation, error)
	InsertReservation(ctx context.Context, r models.Reservation) (models.Reservation, error)
	// UpdateReservation overwrites the editable fields of r. The row must still
	// carry r.Status; the status itself is never changed here.
	UpdateReservation(ctx context.Context, r models.Reservation) (models.Reservation, error)
	// SetReservationStatus moves reservation id from one status to another.
	SetReservationStatus(ctx context.Context, id uint, from, to models.ReservationStatus) (models.Reservation, error)

	GetTable(ctx context.Context, id uint) (models.Table, error)
	ListTables(ctx context.Context) ([]models.Table, error)
	InsertTable(ctx context.Context, t models.Table) (models.Table, error)
	// SetTableReservation replaces the table's reservation_id with next
	// provided it currently equals expected (nil meaning free).
	SetTableReservation(ctx context.Context, tableID uint, expected, next *uint) (models.Table, error)

	// Atomically runs fn against a Store scoped to one transaction when the
	// backend supports it. The scoped Store implements Transactional when an
	// error from fn rolls its writes back.
	Atomically(ctx context.Context, fn func(Store) error) error
}

// Transactional is implemented by the Store handed to an Atomically callback.
// RollsBack reports whether writes made through it are undone when the
// callback returns an error.
type Transactional interface {
	RollsBack() bool
}

// RollsBack reports whether store undoes its writes on a failed Atomically.
func RollsBack(store Store) bool {
	tx, ok := store.(Transactional)
	return ok && tx.RollsBack()
}

// PhoneDigits strips everything but digits from a search fragment.
func PhoneDigits(fragment string) string {
	var b strings.Builder
	for _, r := range fragment {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var phonePunctuation = strings.NewReplacer("(", "", ")", "", "-", "", " ", "")

// stripPhone removes the punctuation ignored when matching mobile numbers.
func stripPhone(number string) string {
	return phonePunctuation.Replace(number)
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
