// Package lifecycle holds the reservation status state machine. It knows
// nothing about tables; seating and clearing are driven by the caller.
package lifecycle

import (
	"github.com/yeremiapane/periodic-tables/apperror"
	"github.com/yeremiapane/periodic-tables/models"
)

var allowed = map[models.ReservationStatus][]models.ReservationStatus{
	models.StatusBooked: {models.StatusSeated, models.StatusCancelled},
	models.StatusSeated: {models.StatusFinished, models.StatusCancelled},
}

// Terminal reports whether no transition may leave s.
func Terminal(s models.ReservationStatus) bool {
	return s == models.StatusFinished || s == models.StatusCancelled
}

// Transition returns nil when a reservation in from may move to to.
func Transition(from, to models.ReservationStatus) error {
	if from == models.StatusFinished {
		return apperror.Transition(apperror.CodeTerminalState, "a finished reservation cannot be updated")
	}
	if !to.Known() {
		return apperror.Transition(apperror.CodeInvalidStatus, "Can not update unknown status %q", to)
	}
	if from == models.StatusCancelled {
		return apperror.Transition(apperror.CodeTerminalState, "a cancelled reservation cannot be updated")
	}
	if to == models.StatusBooked {
		return apperror.Transition(apperror.CodeIllegalTransition,
			"reservation cannot return to booked from %s", from)
	}
	for _, next := range allowed[from] {
		if next == to {
			return nil
		}
	}
	return apperror.Transition(apperror.CodeIllegalTransition,
		"reservation cannot move from %s to %s", from, to)
}
