package models

import "time"

type Estate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OldID     *int      `json:"old_id,omitempty"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Address   string    `gorm:"type:varchar(255)" json:"address"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
