package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/cache"
	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/utils"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	// ErrSettlementFailed wraps any failure inside the checkout
	// transaction; everything is rolled back when it surfaces.
	ErrSettlementFailed = errors.New("settlement failed")
)

// CheckoutService closes a rental: one transaction touching the checkout,
// rental, electric and accounting tables, then cache invalidation.
type CheckoutService struct {
	DB    *gorm.DB
	Cache cache.Store
	Loc   *time.Location
}

func NewCheckoutService(db *gorm.DB, store cache.Store, loc *time.Location) *CheckoutService {
	return &CheckoutService{DB: db, Cache: store, Loc: loc}
}

// Actor is the verified identity recorded on audit fields.
type Actor struct {
	ID   uint
	Name string
}

type CheckoutRequest struct {
	Reason               string
	Date                 time.Time
	FinalElectricReading *float64
	SettlementAmount     decimal.Decimal
	Notes                string
}

// CheckoutResult summarizes what the settlement transaction created.
type CheckoutResult struct {
	RentalID          uint            `json:"rental_id"`
	RoomID            uint            `json:"room_id"`
	Reference         string          `json:"reference"`
	CheckoutDate      time.Time       `json:"checkout_date"`
	SettlementAmount  decimal.Decimal `json:"settlement_amount"`
	CheckoutRecordID  uint            `json:"checkout_record_id"`
	ElectricRecordID  *uint           `json:"electric_record_id,omitempty"`
	AccountingEntryID *uint           `json:"accounting_record_id,omitempty"`
}

// Checkout settles and closes an active rental. All writes happen in one
// transaction; a failure in any step leaves every table untouched. Cache
// invalidation runs only after the commit and never fails the request.
func (s *CheckoutService) Checkout(ctx context.Context, rentalID uint, req CheckoutRequest, actor Actor) (*CheckoutResult, error) {
	var rental models.Rental
	err := s.DB.WithContext(ctx).
		Where("id = ? AND status = ?", rentalID, models.RentalStatusActive).
		First(&rental).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Absent and already-checked-out rentals are deliberately not
		// distinguished; both read as "no active rental".
		return nil, ErrRentalNotFound
	}
	if err != nil {
		return nil, err
	}

	var room models.Room
	if err := s.DB.WithContext(ctx).First(&room, rental.RoomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	checkoutAt := req.Date.In(s.Loc)
	endDate := time.Date(checkoutAt.Year(), checkoutAt.Month(), checkoutAt.Day(), 0, 0, 0, 0, s.Loc)

	result := &CheckoutResult{
		RentalID:         rental.ID,
		RoomID:           room.ID,
		CheckoutDate:     req.Date,
		SettlementAmount: req.SettlementAmount,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := models.CheckoutRecord{
			Reference:             uuid.NewString(),
			RentalID:              rental.ID,
			RoomID:                room.ID,
			CheckoutReason:        req.Reason,
			CheckoutDate:          req.Date,
			FinalElectricReading:  req.FinalElectricReading,
			TotalSettlementAmount: req.SettlementAmount,
			Notes:                 req.Notes,
			RecorderID:            &actor.ID,
			RecorderName:          actor.Name,
			CreatedAt:             time.Now().In(s.Loc),
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		result.CheckoutRecordID = record.ID
		result.Reference = record.Reference

		// Conditional flip guards against a concurrent checkout: the
		// loser sees zero rows and the whole transaction unwinds.
		flip := tx.Model(&models.Rental{}).
			Where("id = ? AND status = ?", rental.ID, models.RentalStatusActive).
			Updates(map[string]interface{}{
				"status":   models.RentalStatusInactive,
				"end_date": endDate,
			})
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected != 1 {
			return ErrRentalNotFound
		}

		// Checkout may supersede an existing reading for the period;
		// the create-endpoint duplicate guard does not apply here.
		if req.FinalElectricReading != nil && *req.FinalElectricReading > 0 {
			electric := models.ElectricRecord{
				RoomID:      room.ID,
				Reading:     *req.FinalElectricReading,
				RecordYear:  checkoutAt.Year(),
				RecordMonth: int(checkoutAt.Month()),
				RecorderID:  &actor.ID,
				UpdatedAt:   time.Now().In(s.Loc),
			}
			if err := tx.Create(&electric).Error; err != nil {
				return err
			}
			result.ElectricRecordID = &electric.ID
		}

		if !req.SettlementAmount.IsZero() {
			title := "退租結算-收費"
			if req.SettlementAmount.IsNegative() {
				title = "退租結算-退費"
			}
			entry := models.Accounting{
				Title:         fmt.Sprintf("%s 房間%s", title, room.RoomNumber),
				Income:        req.SettlementAmount,
				Date:          req.Date,
				EstateID:      &room.EstateID,
				RentalID:      &rental.ID,
				AccountingTag: models.AccountingTagCheckoutSettlement,
				RecorderID:    &actor.ID,
				RecorderName:  actor.Name,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			result.AccountingEntryID = &entry.ID
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRentalNotFound) {
			return nil, ErrRentalNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	s.invalidate(ctx, room.ID, rental.ID)
	return result, nil
}

// invalidate clears the cache entries the settlement made stale. Failures
// are logged only; the committed transaction is the source of truth.
func (s *CheckoutService) invalidate(ctx context.Context, roomID, rentalID uint) {
	if _, err := s.Cache.DeletePattern(ctx, cache.RoomPattern(roomID)); err != nil {
		utils.ErrorLogger.Printf("Failed to invalidate cache for room %d: %v", roomID, err)
	}
	if err := s.Cache.Delete(ctx, cache.PaymentInfoKey(rentalID)); err != nil {
		utils.ErrorLogger.Printf("Failed to invalidate payment cache for rental %d: %v", rentalID, err)
	}
}

// CheckoutPreview aggregates what an operator needs before deciding a
// settlement. Always computed live.
type CheckoutPreview struct {
	RentalID          uint                   `json:"rental_id"`
	RoomID            uint                   `json:"room_id"`
	RoomNumber        string                 `json:"room_number"`
	RentalStatus      string                 `json:"rental_status"`
	Deposit           decimal.Decimal        `json:"deposit"`
	LatestReading     *models.ElectricRecord `json:"latest_electric_record,omitempty"`
	AlreadyCheckedOut bool                   `json:"already_checked_out"`
	CheckoutRecord    *models.CheckoutRecord `json:"checkout_record,omitempty"`
}

func (s *CheckoutService) Preview(ctx context.Context, rentalID uint) (*CheckoutPreview, error) {
	var rental models.Rental
	err := s.DB.WithContext(ctx).First(&rental, rentalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRentalNotFound
	}
	if err != nil {
		return nil, err
	}

	var room models.Room
	if err := s.DB.WithContext(ctx).First(&room, rental.RoomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	preview := &CheckoutPreview{
		RentalID:     rental.ID,
		RoomID:       room.ID,
		RoomNumber:   room.RoomNumber,
		RentalStatus: rental.Status,
		Deposit:      rental.Deposit,
	}

	var latest models.ElectricRecord
	err = s.DB.WithContext(ctx).
		Where("room_id = ?", room.ID).
		Order("record_year DESC, record_month DESC").
		First(&latest).Error
	if err == nil {
		preview.LatestReading = &latest
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var record models.CheckoutRecord
	err = s.DB.WithContext(ctx).
		Where("rental_id = ?", rental.ID).
		Order("created_at DESC").
		First(&record).Error
	if err == nil {
		preview.AlreadyCheckedOut = true
		preview.CheckoutRecord = &record
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return preview, nil
}
