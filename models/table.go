package models

import "time"

type Table struct {
	ID            uint      `gorm:"primaryKey" json:"table_id"`
	TableName     string    `gorm:"type:varchar(100);not null" json:"table_name"`
	Capacity      int       `gorm:"not null" json:"capacity"`
	ReservationID *uint     `gorm:"uniqueIndex" json:"reservation_id"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

// Occupied reports whether a reservation is currently seated at the table.
func (t Table) Occupied() bool {
	return t.ReservationID != nil
}
