// Package rules implements the temporal and occupancy rules checked after
// validation and before any write. Rules read state but never change it.
package rules

import (
	"time"

	"github.com/yeremiapane/periodic-tables/apperror"
	"github.com/yeremiapane/periodic-tables/models"
	"github.com/yeremiapane/periodic-tables/validation"
)

// Config describes the restaurant's schedule. Times of day are offsets from
// midnight in Location.
type Config struct {
	Location      *time.Location
	ClosedDay     time.Weekday
	OpenAt        time.Duration
	CloseAt       time.Duration
	ClosingBuffer time.Duration
}

// DefaultConfig is open 10:30 to 22:30, last seating an hour before close,
// closed on Tuesdays.
func DefaultConfig() Config {
	return Config{
		Location:      time.Local,
		ClosedDay:     time.Tuesday,
		OpenAt:        10*time.Hour + 30*time.Minute,
		CloseAt:       22*time.Hour + 30*time.Minute,
		ClosingBuffer: time.Hour,
	}
}

// Engine evaluates the rules against a clock.
type Engine struct {
	cfg Config
	now func() time.Time
}

func NewEngine(cfg Config) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Engine{cfg: cfg, now: time.Now}
}

// WithClock returns a copy of e reading the current time from now.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	cp := *e
	cp.now = now
	return &cp
}

// LastSeating is the latest reservation time accepted.
func (e *Engine) LastSeating() time.Duration {
	return e.cfg.CloseAt - e.cfg.ClosingBuffer
}

// CheckReservation runs the reservation rules in order and returns the first
// violation.
func (e *Engine) CheckReservation(in validation.ReservationInput) error {
	at, err := models.ScheduledAt(in.ReservationDate, in.ReservationTime, e.cfg.Location)
	if err != nil {
		return apperror.Validation(apperror.CodeMalformedValue, "reservation_date: %s is not a date!", in.ReservationDate)
	}
	checks := []func() error{
		func() error { return e.FutureOnly(at) },
		func() error { return e.OpenThatDay(at) },
		func() error { return e.WithinHours(at) },
		func() error { return StatusGuard(in.Status) },
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// FutureOnly rejects reservations in the past. Both sides are truncated to the
// hour, so a booking earlier within the current hour still passes.
func (e *Engine) FutureOnly(at time.Time) error {
	if hourOf(at).Before(hourOf(e.now().In(e.cfg.Location))) {
		return apperror.Rule(apperror.CodePastDate, "Reservations must be made in the future!")
	}
	return nil
}

func (e *Engine) OpenThatDay(at time.Time) error {
	if at.Weekday() == e.cfg.ClosedDay {
		return apperror.Rule(apperror.CodeClosedDay, "Sorry closed on %s!", e.cfg.ClosedDay)
	}
	return nil
}

func (e *Engine) WithinHours(at time.Time) error {
	offset := time.Duration(at.Hour())*time.Hour + time.Duration(at.Minute())*time.Minute
	if offset < e.cfg.OpenAt || offset > e.LastSeating() {
		return apperror.Rule(apperror.CodeOutsideHours, "Sorry We are not open during this time")
	}
	return nil
}

// StatusGuard rejects submissions that try to write seated or finished
// directly; those states are reached only through seating and clearing.
func StatusGuard(status *models.ReservationStatus) error {
	if status == nil {
		return nil
	}
	if *status == models.StatusSeated || *status == models.StatusFinished {
		return apperror.Rule(apperror.CodeStatusGuard, "reservation has already been seated or is already finished")
	}
	return nil
}

// CanSeat checks the occupancy rules for putting r at t.
func CanSeat(t models.Table, r models.Reservation) error {
	if t.Occupied() {
		return apperror.Rule(apperror.CodeOccupied, "Table is occupied")
	}
	switch r.Status {
	case models.StatusSeated:
		return apperror.Rule(apperror.CodeAlreadySeated, "Reservation is already seated.")
	case models.StatusFinished:
		return apperror.Rule(apperror.CodeAlreadyDone, "Reservation is already finished.")
	case models.StatusCancelled:
		return apperror.Rule(apperror.CodeCancelled, "Reservation has been cancelled.")
	}
	if t.Capacity < r.People {
		return apperror.Rule(apperror.CodeCapacity, "capacity of table is not large enough for reservation.")
	}
	return nil
}

func hourOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}
