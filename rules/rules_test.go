package rules_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yeremiapane/periodic-tables/apperror"
	"github.com/yeremiapane/periodic-tables/models"
	"github.com/yeremiapane/periodic-tables/rules"
	"github.com/yeremiapane/periodic-tables/validation"
)

// Saturday 2026-10-17 14:20 UTC.
var fixedNow = time.Date(2026, 10, 17, 14, 20, 0, 0, time.UTC)

func engine() *rules.Engine {
	cfg := rules.DefaultConfig()
	cfg.Location = time.UTC
	return rules.NewEngine(cfg).WithClock(func() time.Time { return fixedNow })
}

func input(date, clock string) validation.ReservationInput {
	return validation.ReservationInput{
		FirstName:       "Ann",
		LastName:        "Lee",
		MobileNumber:    "800-555-0100",
		ReservationDate: date,
		ReservationTime: clock,
		People:          2,
	}
}

func statusPtr(s models.ReservationStatus) *models.ReservationStatus { return &s }

func TestCheckReservation(t *testing.T) {
	cases := []struct {
		name string
		in   validation.ReservationInput
		code string
	}{
		{"next wednesday evening", input("2026-10-21", "18:00"), ""},
		{"earlier in the current hour", input("2026-10-17", "14:00"), ""},
		{"later today", input("2026-10-17", "19:30"), ""},
		{"previous hour", input("2026-10-17", "13:59"), apperror.CodePastDate},
		{"yesterday", input("2026-10-16", "18:00"), apperror.CodePastDate},
		{"tuesday", input("2026-10-20", "18:00"), apperror.CodeClosedDay},
		{"another tuesday", input("2026-10-27", "12:00"), apperror.CodeClosedDay},
		{"before opening", input("2026-10-21", "10:29"), apperror.CodeOutsideHours},
		{"at opening", input("2026-10-21", "10:30"), ""},
		{"last seating", input("2026-10-21", "21:30"), ""},
		{"inside closing buffer", input("2026-10-21", "21:31"), apperror.CodeOutsideHours},
		{"after close", input("2026-10-21", "23:00"), apperror.CodeOutsideHours},
	}

	e := engine()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.CheckReservation(tc.in)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, apperror.KindRule, apperror.KindOf(err))
			assert.Equal(t, tc.code, apperror.CodeOf(err))
		})
	}
}

func TestStatusGuard(t *testing.T) {
	e := engine()
	for _, s := range []models.ReservationStatus{models.StatusSeated, models.StatusFinished} {
		in := input("2026-10-21", "18:00")
		in.Status = statusPtr(s)
		assert.Equal(t, apperror.CodeStatusGuard, apperror.CodeOf(e.CheckReservation(in)), string(s))
	}

	assert.NoError(t, rules.StatusGuard(nil))
	assert.NoError(t, rules.StatusGuard(statusPtr(models.StatusBooked)))
}

func TestEveryTuesdayIsClosed(t *testing.T) {
	e := engine()
	day := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 52; i++ {
		in := input(day.AddDate(0, 0, 7*i).Format(models.DateLayout), "18:00")
		assert.Equal(t, apperror.CodeClosedDay, apperror.CodeOf(e.CheckReservation(in)))
	}
}

func TestConfigurableClosedDayAndHours(t *testing.T) {
	cfg := rules.Config{
		Location:      time.UTC,
		ClosedDay:     time.Monday,
		OpenAt:        17 * time.Hour,
		CloseAt:       23 * time.Hour,
		ClosingBuffer: 30 * time.Minute,
	}
	e := rules.NewEngine(cfg).WithClock(func() time.Time { return fixedNow })

	assert.NoError(t, e.CheckReservation(input("2026-10-20", "22:30")))
	assert.Equal(t, apperror.CodeClosedDay, apperror.CodeOf(e.CheckReservation(input("2026-10-19", "18:00"))))
	assert.Equal(t, apperror.CodeOutsideHours, apperror.CodeOf(e.CheckReservation(input("2026-10-20", "12:00"))))
	assert.Equal(t, 22*time.Hour+30*time.Minute, e.LastSeating())
}

func TestCanSeat(t *testing.T) {
	rid := uint(9)
	free := models.Table{ID: 1, TableName: "T1", Capacity: 4}
	occupied := models.Table{ID: 2, TableName: "T2", Capacity: 4, ReservationID: &rid}
	party := func(people int, s models.ReservationStatus) models.Reservation {
		return models.Reservation{ID: 1, People: people, Status: s}
	}

	assert.NoError(t, rules.CanSeat(free, party(4, models.StatusBooked)))
	assert.Equal(t, apperror.CodeCapacity, apperror.CodeOf(rules.CanSeat(free, party(5, models.StatusBooked))))
	assert.Equal(t, apperror.CodeOccupied, apperror.CodeOf(rules.CanSeat(occupied, party(2, models.StatusBooked))))
	assert.Equal(t, apperror.CodeAlreadySeated, apperror.CodeOf(rules.CanSeat(free, party(2, models.StatusSeated))))
	assert.Equal(t, apperror.CodeAlreadyDone, apperror.CodeOf(rules.CanSeat(free, party(2, models.StatusFinished))))
	assert.Equal(t, apperror.CodeCancelled, apperror.CodeOf(rules.CanSeat(free, party(2, models.StatusCancelled))))
}

func TestCapacityProperty(t *testing.T) {
	for capacity := 1; capacity <= 12; capacity++ {
		for people := 1; people <= 12; people++ {
			err := rules.CanSeat(
				models.Table{Capacity: capacity},
				models.Reservation{People: people, Status: models.StatusBooked},
			)
			if capacity < people {
				assert.Equal(t, apperror.CodeCapacity, apperror.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		}
	}
}
