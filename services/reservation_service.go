package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/periodic-tables/apperror"
	"github.com/yeremiapane/periodic-tables/events"
	"github.com/yeremiapane/periodic-tables/lifecycle"
	"github.com/yeremiapane/periodic-tables/models"
	"github.com/yeremiapane/periodic-tables/repository"
	"github.com/yeremiapane/periodic-tables/rules"
	"github.com/yeremiapane/periodic-tables/validation"
)

type ReservationService struct {
	deps  Deps
	rules *rules.Engine
}

func NewReservationService(deps Deps, engine *rules.Engine) *ReservationService {
	return &ReservationService{deps: deps.withDefaults("reservations"), rules: engine}
}

// reservationDraft carries a submission through the write pipeline.
type reservationDraft struct {
	id      uint
	fields  validation.Fields
	input   validation.ReservationInput
	current models.Reservation
}

func (s *ReservationService) Create(ctx context.Context, fields validation.Fields) (models.Reservation, error) {
	draft, err := Run(ctx, reservationDraft{fields: fields},
		validateReservation,
		knownStatus,
		s.checkRules,
		bookedOnCreate,
	)
	if err != nil {
		return models.Reservation{}, s.deps.observe(err)
	}

	created, err := s.deps.Store.InsertReservation(ctx, newReservation(draft.input))
	if err != nil {
		return models.Reservation{}, fmt.Errorf("failed to create reservation: %w", err)
	}

	s.deps.Logger.WithFields(logrus.Fields{
		"reservation_id":   created.ID,
		"reservation_date": created.ReservationDate,
		"reservation_time": created.ReservationTime,
		"people":           created.People,
	}).Info("reservation created")
	s.deps.publish(ctx, events.Event{
		Type:          events.ReservationCreated,
		ReservationID: created.ID,
		Status:        created.Status,
	})
	return created, nil
}

// ListByDate returns the reservations still active on date.
func (s *ReservationService) ListByDate(ctx context.Context, date string) ([]models.Reservation, error) {
	day, err := validation.Date(date)
	if err != nil {
		return nil, err
	}
	return s.deps.Store.ListReservationsByDate(ctx, day)
}

// SearchByPhone matches fragment against mobile numbers, ignoring
// punctuation on both sides.
func (s *ReservationService) SearchByPhone(ctx context.Context, fragment string) ([]models.Reservation, error) {
	digits := repository.PhoneDigits(fragment)
	if digits == "" {
		return nil, apperror.Validation(apperror.CodeMalformedValue,
			"mobile_number: %q contains no digits", fragment)
	}
	return s.deps.Store.SearchReservationsByPhone(ctx, digits)
}

func (s *ReservationService) Get(ctx context.Context, id uint) (models.Reservation, error) {
	r, err := s.deps.Store.GetReservation(ctx, id)
	if err != nil {
		return models.Reservation{}, notFound(err, "Reservation %d cannot be found.", id)
	}
	return r, nil
}

// Update replaces the editable fields of reservation id. The status is never
// changed here; it moves only through UpdateStatus and seating.
func (s *ReservationService) Update(ctx context.Context, id uint, fields validation.Fields) (models.Reservation, error) {
	draft, err := Run(ctx, reservationDraft{id: id, fields: fields},
		s.loadCurrent,
		validateReservation,
		knownStatus,
		s.checkRules,
		editable,
		statusUnchanged,
	)
	if err != nil {
		return models.Reservation{}, s.deps.observe(err)
	}

	next := newReservation(draft.input)
	next.ID = id
	next.Status = draft.current.Status
	updated, err := s.deps.Store.UpdateReservation(ctx, next)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return models.Reservation{}, apperror.NotFound("Reservation %d cannot be found.", id)
	case errors.Is(err, repository.ErrConflict):
		return models.Reservation{}, apperror.Transition(apperror.CodeStaleStatus,
			"reservation %d changed status while being updated", id)
	case err != nil:
		return models.Reservation{}, fmt.Errorf("failed to update reservation %d: %w", id, err)
	}

	s.deps.Logger.WithField("reservation_id", id).Info("reservation updated")
	s.deps.publish(ctx, events.Event{
		Type:          events.ReservationUpdated,
		ReservationID: id,
		Status:        updated.Status,
	})
	return updated, nil
}

// UpdateStatus moves reservation id to status along the lifecycle table.
// Seating and clearing a table normally drive seated and finished.
func (s *ReservationService) UpdateStatus(ctx context.Context, id uint, status models.ReservationStatus) (models.Reservation, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.Reservation{}, err
	}
	if err := lifecycle.Transition(current.Status, status); err != nil {
		return models.Reservation{}, err
	}

	updated, err := s.deps.Store.SetReservationStatus(ctx, id, current.Status, status)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return models.Reservation{}, apperror.NotFound("Reservation %d cannot be found.", id)
	case errors.Is(err, repository.ErrConflict):
		return models.Reservation{}, apperror.Transition(apperror.CodeStaleStatus,
			"reservation %d is no longer %s", id, current.Status)
	case err != nil:
		return models.Reservation{}, fmt.Errorf("failed to update reservation %d status: %w", id, err)
	}

	s.deps.Metrics.RecordTransition(string(current.Status), string(status))
	s.deps.Logger.WithFields(logrus.Fields{
		"reservation_id": id,
		"from":           current.Status,
		"to":             status,
	}).Info("reservation status changed")
	s.deps.publish(ctx, events.Event{
		Type:          events.ReservationStatusChanged,
		ReservationID: id,
		Status:        status,
	})
	return updated, nil
}

func (s *ReservationService) loadCurrent(ctx context.Context, d reservationDraft) (reservationDraft, error) {
	current, err := s.Get(ctx, d.id)
	if err != nil {
		return d, err
	}
	d.current = current
	return d, nil
}

func (s *ReservationService) checkRules(_ context.Context, d reservationDraft) (reservationDraft, error) {
	return d, s.rules.CheckReservation(d.input)
}

func validateReservation(_ context.Context, d reservationDraft) (reservationDraft, error) {
	in, err := validation.Reservation(d.fields)
	if err != nil {
		return d, err
	}
	d.input = in
	return d, nil
}

func knownStatus(_ context.Context, d reservationDraft) (reservationDraft, error) {
	if d.input.Status != nil && !d.input.Status.Known() {
		return d, apperror.Validation(apperror.CodeMalformedValue, "status: %q is not a valid status", *d.input.Status)
	}
	return d, nil
}

func bookedOnCreate(_ context.Context, d reservationDraft) (reservationDraft, error) {
	if d.input.Status != nil && *d.input.Status != models.StatusBooked {
		return d, apperror.Rule(apperror.CodeStatusGuard, "a new reservation must be booked, not %s", *d.input.Status)
	}
	return d, nil
}

func editable(_ context.Context, d reservationDraft) (reservationDraft, error) {
	if lifecycle.Terminal(d.current.Status) {
		return d, apperror.Rule(apperror.CodeTerminalState, "a %s reservation cannot be updated", d.current.Status)
	}
	return d, nil
}

func statusUnchanged(_ context.Context, d reservationDraft) (reservationDraft, error) {
	if d.input.Status != nil && *d.input.Status != d.current.Status {
		return d, apperror.Rule(apperror.CodeStatusGuard,
			"status changes go through /reservations/%d/status", d.id)
	}
	return d, nil
}

func newReservation(in validation.ReservationInput) models.Reservation {
	return models.Reservation{
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		MobileNumber:    in.MobileNumber,
		ReservationDate: in.ReservationDate,
		ReservationTime: in.ReservationTime,
		People:          in.People,
		Status:          models.StatusBooked,
	}
}
