package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Checkout reasons carried over from the legacy system:
// 租約到期 (lease end), 提前解約 (early termination), 轉房 (room transfer).
type CheckoutRecord struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	Reference             string          `gorm:"type:varchar(36);index" json:"reference"`
	RentalID              uint            `gorm:"index;not null" json:"rental_id"`
	RoomID                uint            `gorm:"index;not null" json:"room_id"`
	CheckoutReason        string          `gorm:"type:varchar(100);not null" json:"checkout_reason"`
	CheckoutDate          time.Time       `gorm:"index;not null" json:"checkout_date"`
	FinalElectricReading  *float64        `json:"final_electric_reading,omitempty"`
	TotalSettlementAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_settlement_amount"`
	Notes                 string          `gorm:"type:text" json:"notes"`
	RecorderID            *uint           `json:"recorder_id,omitempty"`
	RecorderName          string          `gorm:"type:varchar(100)" json:"recorder_name"`
	CreatedAt             time.Time       `gorm:"not null" json:"created_at"`
}
