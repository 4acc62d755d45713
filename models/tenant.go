package models

import "time"

// Tenant rows are created together with a rental and kept after the rental
// closes for historical record-keeping.
type Tenant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OldID       *int      `json:"old_id,omitempty"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	ContactInfo string    `gorm:"type:text" json:"contact_info"`
	IDNumber    string    `gorm:"type:varchar(20)" json:"id_number"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}
