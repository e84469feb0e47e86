package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/periodic-tables/apperror"
	"github.com/yeremiapane/periodic-tables/events"
	"github.com/yeremiapane/periodic-tables/models"
	"github.com/yeremiapane/periodic-tables/repository"
	"github.com/yeremiapane/periodic-tables/rules"
)

// sagaStep is one write of a seating saga and the write that undoes it.
type sagaStep struct {
	name       string
	action     func(ctx context.Context, store repository.Store) error
	compensate func(ctx context.Context, store repository.Store) error
}

// SeatingCoordinator couples a table's occupancy to its reservation's status.
// Both writes run in one Store.Atomically call. Transactional stores roll a
// failed saga back; on the others the completed writes are compensated in
// reverse order.
type SeatingCoordinator struct {
	deps Deps
}

func NewSeatingCoordinator(deps Deps) *SeatingCoordinator {
	return &SeatingCoordinator{deps: deps.withDefaults("seating")}
}

// Assign seats reservationID at tableID.
func (c *SeatingCoordinator) Assign(ctx context.Context, tableID, reservationID uint) (models.Table, models.Reservation, error) {
	start := time.Now()
	defer func() { c.deps.Metrics.RecordSagaDuration("seat", time.Since(start)) }()

	fields := logrus.Fields{
		"table_id":       tableID,
		"reservation_id": reservationID,
	}
	var table models.Table
	var reservation models.Reservation
	err := c.deps.Store.Atomically(ctx, func(store repository.Store) error {
		var err error
		if table, err = store.GetTable(ctx, tableID); err != nil {
			return notFound(err, "Table %d cannot be found.", tableID)
		}
		if reservation, err = store.GetReservation(ctx, reservationID); err != nil {
			return notFound(err, "Reservation %d cannot be found.", reservationID)
		}
		if err := rules.CanSeat(table, reservation); err != nil {
			return err
		}

		steps := []sagaStep{
			{
				name: "occupy table",
				action: func(ctx context.Context, store repository.Store) error {
					t, err := store.SetTableReservation(ctx, tableID, nil, &reservationID)
					if errors.Is(err, repository.ErrConflict) {
						return apperror.Rule(apperror.CodeOccupied, "Table is occupied")
					}
					table = t
					return err
				},
				compensate: func(ctx context.Context, store repository.Store) error {
					t, err := store.SetTableReservation(ctx, tableID, &reservationID, nil)
					table = t
					return err
				},
			},
			{
				name: "seat reservation",
				action: func(ctx context.Context, store repository.Store) error {
					r, err := store.SetReservationStatus(ctx, reservationID, models.StatusBooked, models.StatusSeated)
					if errors.Is(err, repository.ErrConflict) {
						return apperror.Rule(apperror.CodeAlreadySeated, "Reservation is no longer booked.")
					}
					reservation = r
					return err
				},
			},
		}
		return c.run(ctx, store, "seat", apperror.CodePartialAssignment, steps, fields)
	})
	if err != nil {
		return models.Table{}, models.Reservation{}, c.fail(c.rolledBack(err, "seat", apperror.CodePartialAssignment, fields))
	}

	c.deps.Metrics.RecordSeated()
	c.deps.Metrics.RecordTransition(string(models.StatusBooked), string(models.StatusSeated))
	c.deps.Logger.WithFields(fields).Info("reservation seated")
	c.deps.publish(ctx, events.Event{
		Type:          events.TableSeated,
		ReservationID: reservationID,
		TableID:       tableID,
		Status:        reservation.Status,
	})
	return table, reservation, nil
}

// Clear frees tableID and finishes the reservation seated there. A
// reservation cancelled while seated only has its table freed.
func (c *SeatingCoordinator) Clear(ctx context.Context, tableID uint) (models.Table, models.Reservation, error) {
	start := time.Now()
	defer func() { c.deps.Metrics.RecordSagaDuration("clear", time.Since(start)) }()

	var table models.Table
	var reservation models.Reservation
	err := c.deps.Store.Atomically(ctx, func(store repository.Store) error {
		var err error
		if table, err = store.GetTable(ctx, tableID); err != nil {
			return notFound(err, "Table %d cannot be found.", tableID)
		}
		if !table.Occupied() {
			return apperror.NotOccupied("Table is not occupied.")
		}
		reservationID := *table.ReservationID

		reservation, err = store.GetReservation(ctx, reservationID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Coordination(apperror.CodeDataIntegrity, err,
				"table %d references missing reservation %d", tableID, reservationID)
		}
		if err != nil {
			return err
		}
		if reservation.Status != models.StatusSeated && reservation.Status != models.StatusCancelled {
			return apperror.Coordination(apperror.CodeDataIntegrity, nil,
				"table %d holds reservation %d in status %s", tableID, reservationID, reservation.Status)
		}

		steps := []sagaStep{{
			name: "free table",
			action: func(ctx context.Context, store repository.Store) error {
				t, err := store.SetTableReservation(ctx, tableID, &reservationID, nil)
				if errors.Is(err, repository.ErrConflict) {
					return apperror.NotOccupied("Table is not occupied.")
				}
				table = t
				return err
			},
			compensate: func(ctx context.Context, store repository.Store) error {
				t, err := store.SetTableReservation(ctx, tableID, nil, &reservationID)
				table = t
				return err
			},
		}}
		if reservation.Status == models.StatusSeated {
			steps = append(steps, sagaStep{
				name: "finish reservation",
				action: func(ctx context.Context, store repository.Store) error {
					r, err := store.SetReservationStatus(ctx, reservationID, models.StatusSeated, models.StatusFinished)
					if errors.Is(err, repository.ErrConflict) {
						return apperror.Transition(apperror.CodeStaleStatus,
							"reservation %d is no longer seated", reservationID)
					}
					reservation = r
					return err
				},
			})
		}
		return c.run(ctx, store, "clear", apperror.CodePartialClear, steps, logrus.Fields{
			"table_id":       tableID,
			"reservation_id": reservationID,
		})
	})
	if err != nil {
		return models.Table{}, models.Reservation{}, c.fail(c.rolledBack(err, "clear", apperror.CodePartialClear,
			logrus.Fields{"table_id": tableID}))
	}

	c.deps.Metrics.RecordCleared()
	if reservation.Status == models.StatusFinished {
		c.deps.Metrics.RecordTransition(string(models.StatusSeated), string(models.StatusFinished))
	}
	c.deps.Logger.WithFields(logrus.Fields{
		"table_id":       tableID,
		"reservation_id": reservation.ID,
		"status":         reservation.Status,
	}).Info("table cleared")
	c.deps.publish(ctx, events.Event{
		Type:          events.TableCleared,
		ReservationID: reservation.ID,
		TableID:       tableID,
		Status:        reservation.Status,
	})
	return table, reservation, nil
}

// rolledBack turns a transaction that could not be rolled back into a
// coordination error carrying partialCode.
func (c *SeatingCoordinator) rolledBack(err error, saga, partialCode string, fields logrus.Fields) error {
	if !errors.Is(err, repository.ErrRollback) {
		return err
	}
	c.deps.Logger.WithError(err).WithFields(fields).WithFields(logrus.Fields{
		"saga":                 saga,
		"coordination_failure": true,
	}).Error("saga rollback failed")
	return apperror.Coordination(partialCode, err, "%s saga could not roll back", saga)
}

func (c *SeatingCoordinator) fail(err error) error {
	if apperror.IsKind(err, apperror.KindCoordination) {
		c.deps.Metrics.RecordCoordinationFailure(apperror.CodeOf(err))
	}
	return c.deps.observe(err)
}

// run executes steps in order. When a step fails on a store that rolls back,
// the step's error is returned and the transaction undoes the rest. Otherwise
// the completed steps are compensated newest first; if that succeeds the
// step's error is returned, else a coordination error carrying partialCode.
func (c *SeatingCoordinator) run(ctx context.Context, store repository.Store, saga, partialCode string, steps []sagaStep, fields logrus.Fields) error {
	for i, step := range steps {
		err := step.action(ctx, store)
		if err == nil {
			continue
		}
		if _, ok := apperror.As(err); !ok {
			err = fmt.Errorf("%s: %w", step.name, err)
		}
		if repository.RollsBack(store) {
			if i > 0 {
				c.deps.Logger.WithFields(fields).WithFields(logrus.Fields{
					"saga":        saga,
					"failed_step": step.name,
				}).Warn("saga step failed, rolling back")
			}
			return err
		}

		for j := i - 1; j >= 0; j-- {
			undo := steps[j]
			if undo.compensate == nil {
				continue
			}
			if compErr := undo.compensate(ctx, store); compErr != nil {
				c.deps.Logger.WithError(compErr).WithFields(fields).WithFields(logrus.Fields{
					"saga":                 saga,
					"failed_step":          step.name,
					"compensation":         undo.name,
					"coordination_failure": true,
				}).Error("saga compensation failed")
				return apperror.Coordination(partialCode, errors.Join(err, compErr),
					"%s saga stopped at %q and could not undo %q", saga, step.name, undo.name)
			}
			c.deps.Logger.WithFields(fields).WithFields(logrus.Fields{
				"saga":         saga,
				"failed_step":  step.name,
				"compensation": undo.name,
			}).Warn("saga step failed, compensated")
		}
		return err
	}
	return nil
}
