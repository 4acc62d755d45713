package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tag values used by the settlement orchestrator. Ad-hoc entries may carry
// any free-text tag.
const (
	AccountingTagCheckoutSettlement = "checkout-settlement"
)

// Accounting is an append-only ledger entry. Income is signed: positive
// amounts are charges, negative amounts are refunds.
type Accounting struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OldID         *int            `gorm:"index" json:"old_id,omitempty"`
	Title         string          `gorm:"type:varchar(255);index" json:"title"`
	Income        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"income"`
	Date          time.Time       `gorm:"index;not null" json:"date"`
	EstateID      *uint           `gorm:"index" json:"estate_id,omitempty"`
	RentalID      *uint           `gorm:"index" json:"rental_id,omitempty"`
	AccountingTag string          `gorm:"type:varchar(255);index" json:"accounting_tag"`
	PaymentMethod string          `gorm:"type:varchar(50)" json:"payment_method"`
	RecorderID    *uint           `json:"recorder_id,omitempty"`
	RecorderName  string          `gorm:"type:varchar(100)" json:"recorder_name"`
}
