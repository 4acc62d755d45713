package models

import "time"

// ElectricRecord is one meter reading for a room in a billing period.
// Outside of checkout there is at most one record per (room, year, month).
type ElectricRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RoomID      uint      `gorm:"index;not null" json:"room_id"`
	Reading     float64   `gorm:"not null" json:"reading"`
	RecordYear  int       `gorm:"index;not null" json:"record_year"`
	RecordMonth int       `gorm:"not null" json:"record_month"`
	RecorderID  *uint     `json:"recorder_id,omitempty"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
