package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yuchialin/estate-app/models"
)

// ActiveRentals narrows a query to the active rentals of one room and takes
// a row lock on the matches, so two concurrent creations for the same room
// serialize instead of both passing the conflict check. The sqlite driver
// drops the locking clause; its single-writer transactions serialize
// regardless.
func ActiveRentals(tx *gorm.DB, roomID uint) *gorm.DB {
	return tx.Model(&models.Rental{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("room_id = ? AND status = ?", roomID, models.RentalStatusActive)
}
