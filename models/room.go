package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Room struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OldID      *int            `json:"old_id,omitempty"`
	EstateID   uint            `gorm:"index" json:"estate_id"`
	RoomNumber string          `gorm:"type:varchar(50);not null" json:"room_number"`
	Floor      string          `gorm:"type:varchar(50)" json:"floor"`
	Size       decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"size"`
	Facilities string          `gorm:"type:text" json:"facilities"`
	PriceInfo  string          `gorm:"type:text" json:"price_info"`
	Zone       string          `gorm:"type:varchar(100)" json:"zone"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	DeletedAt  *time.Time      `json:"deleted_at,omitempty"`
}
