package models

import "time"

// NotificationStatus is the lifecycle state of a notification
type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "pending"
	NotificationAccepted NotificationStatus = "accepted"
	NotificationDeclined NotificationStatus = "declined"
	NotificationRead     NotificationStatus = "read"
)

// Notification type tags seeded at startup
const (
	TypeTestDrive = "test_drive"
	TypeMessage   = "message"
)

type NotificationType struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Type        string `json:"type" gorm:"uniqueIndex;not null"`
	Description string `json:"description"`
}

type Notification struct {
	ID          uint               `json:"id" gorm:"primaryKey"`
	UserID      uint               `json:"userId" gorm:"not null;index"`
	Message     string             `json:"message" gorm:"not null"`
	TypeID      uint               `json:"typeId" gorm:"not null"`
	Type        NotificationType   `json:"-" gorm:"foreignKey:TypeID"`
	IsRead      bool               `json:"isRead" gorm:"not null;default:false"`
	Status      NotificationStatus `json:"status" gorm:"not null;default:'pending';index"`
	RelatedID   uint               `json:"relatedId"` // car or message id, depending on type
	RequesterID *uint              `json:"requesterId" gorm:"index"`
	Requester   *User              `json:"-" gorm:"foreignKey:RequesterID"`
	CreatedAt   time.Time          `json:"createdAt" gorm:"index"`

	// Populated on read.
	NotificationType string `json:"notificationType" gorm:"-"`
	RequesterName    string `json:"requesterName,omitempty" gorm:"-"`
}
