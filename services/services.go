// Package services holds the marketplace operations: accounts, listings,
// the test-drive notification workflow and direct messaging. Every method
// takes the caller's identity explicitly; nothing here trusts request bodies.
package services

import (
	"errors"

	"vehicle-vault-api/models"

	"gorm.io/gorm"
)

// Notifier receives notifications after they are committed.
type Notifier interface {
	Notify(userID uint, n models.Notification)
}

type noopNotifier struct{}

func (noopNotifier) Notify(uint, models.Notification) {}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID  uint
	IsAdmin bool
}

// CanManage reports whether the actor may modify something owned by ownerID.
func (a Actor) CanManage(ownerID uint) bool {
	return a.IsAdmin || a.UserID == ownerID
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
