package models

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusBooked    ReservationStatus = "booked"
	StatusSeated    ReservationStatus = "seated"
	StatusFinished  ReservationStatus = "finished"
	StatusCancelled ReservationStatus = "cancelled"
)

// Known reports whether s is one of the four lifecycle states.
func (s ReservationStatus) Known() bool {
	switch s {
	case StatusBooked, StatusSeated, StatusFinished, StatusCancelled:
		return true
	}
	return false
}

// Layouts used for the stored date and time columns.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Reservation struct {
	ID              uint              `gorm:"primaryKey" json:"reservation_id"`
	FirstName       string            `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName        string            `gorm:"type:varchar(100);not null" json:"last_name"`
	MobileNumber    string            `gorm:"type:varchar(30);not null" json:"mobile_number"`
	ReservationDate string            `gorm:"type:varchar(10);not null;index" json:"reservation_date"`
	ReservationTime string            `gorm:"type:varchar(5);not null" json:"reservation_time"`
	People          int               `gorm:"not null" json:"people"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;default:'booked'" json:"status"`
	CreatedAt       time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null" json:"updated_at"`
}

// ScheduledAt combines a reservation date and time of day in loc.
func ScheduledAt(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
}
