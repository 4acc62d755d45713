package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/cache"
	"github.com/yuchialin/estate-app/models"
	"github.com/yuchialin/estate-app/utils"
)

func setupCheckoutDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.Estate{},
		&models.Room{},
		&models.Tenant{},
		&models.Rental{},
		&models.ElectricRecord{},
		&models.Accounting{},
		&models.CheckoutRecord{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedActiveRental(t *testing.T, db *gorm.DB) (models.Room, models.Rental) {
	t.Helper()

	estate := models.Estate{Name: "北區華廈", CreatedAt: time.Now()}
	db.Create(&estate)
	room := models.Room{EstateID: estate.ID, RoomNumber: "10A", CreatedAt: time.Now()}
	db.Create(&room)
	tenant := models.Tenant{Name: "王小明", CreatedAt: time.Now()}
	db.Create(&tenant)

	end := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	rental := models.Rental{
		RoomID:    room.ID,
		TenantID:  tenant.ID,
		StartDate: time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
		Deposit:   decimal.NewFromInt(8000),
		Status:    models.RentalStatusActive,
		CreatedAt: time.Now(),
	}
	db.Create(&rental)
	return room, rental
}

func TestCheckoutHappyPath(t *testing.T) {
	db := setupCheckoutDB(t)
	store := cache.NewMemoryStore()
	svc := NewCheckoutService(db, store, time.UTC)
	room, rental := seedActiveRental(t, db)

	// Prime cache entries that the settlement must invalidate.
	ctx := context.Background()
	store.Set(ctx, cache.RoomStatusKey(room.ID, 1), "[]", time.Hour)
	store.Set(ctx, cache.PaymentInfoKey(rental.ID), "[]", time.Hour)

	reading := 530.5
	result, err := svc.Checkout(ctx, rental.ID, CheckoutRequest{
		Reason:               "提前解約",
		Date:                 time.Date(2024, time.November, 3, 10, 0, 0, 0, time.UTC),
		FinalElectricReading: &reading,
		SettlementAmount:     decimal.NewFromInt(-1500),
		Notes:                "押金退還",
	}, Actor{ID: 42, Name: "管理員"})

	assert.NoError(t, err)
	assert.NotZero(t, result.CheckoutRecordID)
	assert.NotEmpty(t, result.Reference)
	assert.NotNil(t, result.ElectricRecordID)
	assert.NotNil(t, result.AccountingEntryID)

	var updated models.Rental
	db.First(&updated, rental.ID)
	assert.Equal(t, models.RentalStatusInactive, updated.Status)
	assert.NotNil(t, updated.EndDate)
	assert.Equal(t, time.Date(2024, time.November, 3, 0, 0, 0, 0, time.UTC), updated.EndDate.UTC())

	var electric models.ElectricRecord
	db.First(&electric, *result.ElectricRecordID)
	assert.Equal(t, 530.5, electric.Reading)
	assert.Equal(t, 2024, electric.RecordYear)
	assert.Equal(t, 11, electric.RecordMonth)

	var entry models.Accounting
	db.First(&entry, *result.AccountingEntryID)
	assert.Equal(t, models.AccountingTagCheckoutSettlement, entry.AccountingTag)
	assert.Contains(t, entry.Title, "退費")
	assert.True(t, entry.Income.Equal(decimal.NewFromInt(-1500)))

	// Post-commit invalidation removed both key classes.
	_, ok := store.Get(ctx, cache.RoomStatusKey(room.ID, 1))
	assert.False(t, ok)
	_, ok = store.Get(ctx, cache.PaymentInfoKey(rental.ID))
	assert.False(t, ok)
}

func TestCheckoutSkipsOptionalWrites(t *testing.T) {
	db := setupCheckoutDB(t)
	svc := NewCheckoutService(db, cache.NewMemoryStore(), time.UTC)
	_, rental := seedActiveRental(t, db)

	result, err := svc.Checkout(context.Background(), rental.ID, CheckoutRequest{
		Reason:           "租約到期",
		Date:             time.Now(),
		SettlementAmount: decimal.Zero,
	}, Actor{ID: 1, Name: "管理員"})

	assert.NoError(t, err)
	assert.Nil(t, result.ElectricRecordID)
	assert.Nil(t, result.AccountingEntryID)

	var electricCount, accountingCount int64
	db.Model(&models.ElectricRecord{}).Count(&electricCount)
	db.Model(&models.Accounting{}).Count(&accountingCount)
	assert.Zero(t, electricCount)
	assert.Zero(t, accountingCount)
}

func TestCheckoutTwiceFails(t *testing.T) {
	db := setupCheckoutDB(t)
	svc := NewCheckoutService(db, cache.NewMemoryStore(), time.UTC)
	_, rental := seedActiveRental(t, db)

	_, err := svc.Checkout(context.Background(), rental.ID, CheckoutRequest{
		Reason: "租約到期",
		Date:   time.Now(),
	}, Actor{ID: 1})
	assert.NoError(t, err)

	_, err = svc.Checkout(context.Background(), rental.ID, CheckoutRequest{
		Reason: "租約到期",
		Date:   time.Now(),
	}, Actor{ID: 1})
	assert.ErrorIs(t, err, ErrRentalNotFound)

	var records int64
	db.Model(&models.CheckoutRecord{}).Where("rental_id = ?", rental.ID).Count(&records)
	assert.EqualValues(t, 1, records)
}

func TestCheckoutUnknownRental(t *testing.T) {
	db := setupCheckoutDB(t)
	svc := NewCheckoutService(db, cache.NewMemoryStore(), time.UTC)

	_, err := svc.Checkout(context.Background(), 12345, CheckoutRequest{
		Reason: "租約到期",
		Date:   time.Now(),
	}, Actor{ID: 1})
	assert.ErrorIs(t, err, ErrRentalNotFound)
}

// A failure in a later step must unwind every earlier write: dropping the
// accounting table makes step 4 fail after the checkout record, status flip
// and electric record already happened inside the transaction.
func TestCheckoutRollsBackOnFailure(t *testing.T) {
	db := setupCheckoutDB(t)
	svc := NewCheckoutService(db, cache.NewMemoryStore(), time.UTC)
	_, rental := seedActiveRental(t, db)

	if err := db.Migrator().DropTable(&models.Accounting{}); err != nil {
		t.Fatalf("failed to drop accounting table: %v", err)
	}

	reading := 321.0
	_, err := svc.Checkout(context.Background(), rental.ID, CheckoutRequest{
		Reason:               "提前解約",
		Date:                 time.Now(),
		FinalElectricReading: &reading,
		SettlementAmount:     decimal.NewFromInt(2000),
	}, Actor{ID: 1})
	assert.ErrorIs(t, err, ErrSettlementFailed)

	var updated models.Rental
	db.First(&updated, rental.ID)
	assert.Equal(t, models.RentalStatusActive, updated.Status)

	var checkoutCount, electricCount int64
	db.Model(&models.CheckoutRecord{}).Count(&checkoutCount)
	db.Model(&models.ElectricRecord{}).Count(&electricCount)
	assert.Zero(t, checkoutCount)
	assert.Zero(t, electricCount)
}

func TestPreviewReportsCheckoutState(t *testing.T) {
	db := setupCheckoutDB(t)
	svc := NewCheckoutService(db, cache.NewMemoryStore(), time.UTC)
	room, rental := seedActiveRental(t, db)

	db.Create(&models.ElectricRecord{RoomID: room.ID, Reading: 410, RecordYear: 2024, RecordMonth: 9, UpdatedAt: time.Now()})
	db.Create(&models.ElectricRecord{RoomID: room.ID, Reading: 450, RecordYear: 2024, RecordMonth: 10, UpdatedAt: time.Now()})

	preview, err := svc.Preview(context.Background(), rental.ID)
	assert.NoError(t, err)
	assert.False(t, preview.AlreadyCheckedOut)
	assert.Equal(t, "10A", preview.RoomNumber)
	assert.True(t, preview.Deposit.Equal(decimal.NewFromInt(8000)))
	assert.NotNil(t, preview.LatestReading)
	assert.Equal(t, 450.0, preview.LatestReading.Reading)

	_, err = svc.Checkout(context.Background(), rental.ID, CheckoutRequest{
		Reason: "轉房",
		Date:   time.Now(),
	}, Actor{ID: 1})
	assert.NoError(t, err)

	preview, err = svc.Preview(context.Background(), rental.ID)
	assert.NoError(t, err)
	assert.True(t, preview.AlreadyCheckedOut)
	assert.NotNil(t, preview.CheckoutRecord)
	assert.Equal(t, models.RentalStatusInactive, preview.RentalStatus)

	_, err = svc.Preview(context.Background(), 9876)
	assert.ErrorIs(t, err, ErrRentalNotFound)
}
