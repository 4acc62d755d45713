package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/cache"
	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/utils"
)

var ErrRentalNotFound = errors.New("rental not found")

// ScheduleService projects upcoming payment due dates from a rental's
// payment-frequency code and fronts the projection with the cache.
type ScheduleService struct {
	DB    *gorm.DB
	Cache cache.Store
	Loc   *time.Location
}

func NewScheduleService(db *gorm.DB, store cache.Store, loc *time.Location) *ScheduleService {
	return &ScheduleService{DB: db, Cache: store, Loc: loc}
}

// paymentInterval maps a frequency code to a calendar step. ok is false for
// unrecognized codes, which project an empty schedule rather than an error.
func paymentInterval(freq string) (years, months int, ok bool) {
	switch freq {
	case models.FreqMonthly:
		return 0, 1, true
	case models.FreqQuarterly:
		return 0, 3, true
	case models.FreqSemiAnnual:
		return 0, 6, true
	case models.FreqAnnual:
		return 1, 0, true
	default:
		return 0, 0, false
	}
}

// ProjectPaymentDates walks from start in frequency-sized steps and keeps
// every due date inside the rental window that has not already passed.
// Dropping past dues means the result depends on the query date.
func ProjectPaymentDates(freq string, start time.Time, end *time.Time, now time.Time) []time.Time {
	years, months, ok := paymentInterval(freq)
	if !ok || end == nil {
		return nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var dates []time.Time
	for due := start; !due.After(*end); due = due.AddDate(years, months, 0) {
		if !due.Before(today) {
			dates = append(dates, due)
		}
	}
	return dates
}

// UpcomingPaymentDates returns the projected due dates for a rental as
// ISO-8601 date strings, read through the cache.
func (s *ScheduleService) UpcomingPaymentDates(ctx context.Context, rentalID uint) ([]string, error) {
	key := cache.PaymentInfoKey(rentalID)

	if raw, ok := s.Cache.Get(ctx, key); ok {
		var dates []string
		if err := json.Unmarshal([]byte(raw), &dates); err == nil {
			utils.InfoLogger.Printf("Cache hit for %s", key)
			return dates, nil
		}
		// Unreadable snapshot, fall through to the store.
		utils.ErrorLogger.Printf("Discarding corrupt cache entry %s", key)
	}
	utils.InfoLogger.Printf("Cache miss for %s, calculating payment dates", key)

	var rental models.Rental
	if err := s.DB.WithContext(ctx).First(&rental, rentalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}

	terms, err := models.ParseTerms(rental.RentalInfo)
	if err != nil {
		// Legacy rows may carry junk blobs; treat them like an
		// unrecognized frequency instead of failing the read.
		utils.ErrorLogger.Printf("Rental %d has malformed rental_info: %v", rentalID, err)
		return []string{}, nil
	}

	now := time.Now().In(s.Loc)
	projected := ProjectPaymentDates(terms.PaymentFrequency, rental.StartDate, rental.EndDate, now)

	dates := make([]string, 0, len(projected))
	for _, d := range projected {
		dates = append(dates, d.Format(time.DateOnly))
	}

	if serialized, err := json.Marshal(dates); err == nil {
		if err := s.Cache.Set(ctx, key, string(serialized), s.scheduleTTL(now)); err != nil {
			utils.ErrorLogger.Printf("Failed to cache %s: %v", key, err)
		}
	}
	return dates, nil
}

// scheduleTTL caps the payment-schedule TTL at the next midnight in the
// reference timezone so a cached projection never serves yesterday's view
// of "upcoming".
func (s *ScheduleService) scheduleTTL(now time.Time) time.Duration {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.Loc).AddDate(0, 0, 1)
	if until := midnight.Sub(now); until < cache.PaymentInfoTTL {
		return until
	}
	return cache.PaymentInfoTTL
}
