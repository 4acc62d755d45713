package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RentalStatusActive   = "active"
	RentalStatusInactive = "inactive"
)

// Payment frequency codes carried over from the legacy system.
const (
	FreqMonthly    = "月繳"
	FreqQuarterly  = "季繳"
	FreqSemiAnnual = "半年"
	FreqAnnual     = "年繳"
)

type Rental struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OldID      *int            `json:"old_id,omitempty"`
	RoomID     uint            `gorm:"index;not null" json:"room_id"`
	TenantID   uint            `gorm:"index" json:"tenant_id"`
	StartDate  time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate    *time.Time      `gorm:"type:date" json:"end_date,omitempty"`
	Deposit    decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"deposit"`
	RentalInfo string          `gorm:"type:text" json:"rental_info"`
	Status     string          `gorm:"type:varchar(20);index;default:'active'" json:"status"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
}

// RentalTerms is the structured form of the RentalInfo blob. The legacy
// system stored this as free-form JSON; only these keys are meaningful.
type RentalTerms struct {
	PaymentFrequency       string  `json:"money"`
	EarlyCheckin           bool    `json:"early_checkin"`
	InitialElectricReading float64 `json:"initial_electric_reading"`
}

// ParseTerms decodes a rental_info blob. An empty blob yields zero terms;
// malformed JSON is a hard error so bad blobs are caught at the boundary
// instead of surfacing as a missing payment frequency later.
func ParseTerms(blob string) (RentalTerms, error) {
	var terms RentalTerms
	if blob == "" {
		return terms, nil
	}
	if err := json.Unmarshal([]byte(blob), &terms); err != nil {
		return terms, fmt.Errorf("invalid rental_info: %w", err)
	}
	return terms, nil
}

func (t RentalTerms) Encode() string {
	b, _ := json.Marshal(t)
	return string(b)
}
