package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/models"
)

// ErrMeterData marks readings that cannot produce a valid usage delta.
var ErrMeterData = errors.New("meter data error")

type ElectricService struct {
	DB *gorm.DB
}

func NewElectricService(db *gorm.DB) *ElectricService {
	return &ElectricService{DB: db}
}

// UsageDelta is the consumption between two readings. A shrinking reading is
// meter-data corruption and must never turn into a negative fee.
func UsageDelta(startReading, endReading float64) (float64, error) {
	if endReading < startReading {
		return 0, fmt.Errorf("%w: end reading %.2f below start reading %.2f",
			ErrMeterData, endReading, startReading)
	}
	return endReading - startReading, nil
}

// Usage is the computed consumption between two recorded periods.
type Usage struct {
	RoomID       uint    `json:"room_id"`
	StartReading float64 `json:"start_reading"`
	EndReading   float64 `json:"end_reading"`
	Delta        float64 `json:"delta"`
}

// UsageBetween computes the delta between two recorded (year, month)
// periods for a room.
func (s *ElectricService) UsageBetween(ctx context.Context, roomID uint, fromYear, fromMonth, toYear, toMonth int) (*Usage, error) {
	start, err := s.recordForPeriod(ctx, roomID, fromYear, fromMonth)
	if err != nil {
		return nil, err
	}
	end, err := s.recordForPeriod(ctx, roomID, toYear, toMonth)
	if err != nil {
		return nil, err
	}

	delta, err := UsageDelta(start.Reading, end.Reading)
	if err != nil {
		return nil, err
	}
	return &Usage{
		RoomID:       roomID,
		StartReading: start.Reading,
		EndReading:   end.Reading,
		Delta:        delta,
	}, nil
}

// LatestForRoom returns the most recent reading for a room, or nil when the
// room has none.
func (s *ElectricService) LatestForRoom(ctx context.Context, roomID uint) (*models.ElectricRecord, error) {
	var record models.ElectricRecord
	err := s.DB.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("record_year DESC, record_month DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// HasRecordForPeriod backs the one-record-per-period guard on the create
// endpoint. Checkout intentionally bypasses it.
func (s *ElectricService) HasRecordForPeriod(ctx context.Context, roomID uint, year, month int) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.ElectricRecord{}).
		Where("room_id = ? AND record_year = ? AND record_month = ?", roomID, year, month).
		Count(&count).Error
	return count > 0, err
}

func (s *ElectricService) recordForPeriod(ctx context.Context, roomID uint, year, month int) (*models.ElectricRecord, error) {
	var record models.ElectricRecord
	err := s.DB.WithContext(ctx).
		Where("room_id = ? AND record_year = ? AND record_month = ?", roomID, year, month).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no reading for room %d at %d-%02d", ErrMeterData, roomID, year, month)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
