package cache

import (
	"context"
	"fmt"
	"time"
)

// TTLs per key class. Payment schedules are additionally capped at the next
// midnight in the reference timezone, because the projection depends on the
// query date.
const (
	RoomStatusTTL  = time.Hour
	PaymentInfoTTL = 24 * time.Hour
)

// RentalPattern matches every rental-related key.
const RentalPattern = "rentals:*"

// Stats is a coarse snapshot for the cache admin endpoint.
type Stats struct {
	TotalKeys  int64  `json:"total_keys"`
	RentalKeys int64  `json:"rental_keys"`
	MemoryUsed string `json:"memory_used"`
}

// Store is a key-value cache with TTLs and glob-pattern invalidation.
// Implementations are fail-open: a broken cache must degrade to misses,
// never take the request down with it.
type Store interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) (int64, error)
	FlushAll(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}

func RoomStatusKey(roomID uint, status int) string {
	return fmt.Sprintf("rentals:room:%d:status:%d", roomID, status)
}

func RoomPattern(roomID uint) string {
	return fmt.Sprintf("rentals:room:%d:*", roomID)
}

func PaymentInfoKey(rentalID uint) string {
	return fmt.Sprintf("rentals:payment_info:%d", rentalID)
}
