package service

import "errors"

// Ожидаемые бизнес-исходы. Поднимаются до вызывающего как типизированный
// отказ и никогда не логируются как сбои.
var (
	ErrMatchingLocked        = errors.New("matching is locked")
	ErrPhaseForbidden        = errors.New("phase forbids claiming this slot")
	ErrCapExceeded           = errors.New("slot cap for this phase reached")
	ErrSlotAlreadyClaimed    = errors.New("slot already claimed")
	ErrSlotNotFound          = errors.New("slot not found")
	ErrAlreadyConfirmed      = errors.New("selection already confirmed")
	ErrConfirmationsDisabled = errors.New("confirmations are not open")
	ErrInvalidDelta          = errors.New("invalid hour delta")
	ErrStudentNotFound       = errors.New("student not found")
	ErrStudentArchived       = errors.New("student account is archived")
	ErrAlreadyActivated      = errors.New("account already activated")
	ErrInvalidCredentials    = errors.New("invalid credentials")
)
