package controllers

import "errors"

var (
	ErrNoPermission = errors.New("admin privilege required")
	// ErrActiveRental marks the business-rule conflict on rental creation.
	ErrActiveRental = errors.New("active rental exists")
)
