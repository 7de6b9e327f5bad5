package services

import (
	"context"
	"fmt"

	"vehicle-vault-api/models"
	"vehicle-vault-api/statemachine"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewNotificationService(db *gorm.DB, notifier Notifier) *NotificationService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &NotificationService{db: db, notifier: notifier}
}

func typeID(tx *gorm.DB, tag string) (uint, error) {
	var nt models.NotificationType
	if err := tx.Where("type = ?", tag).First(&nt).Error; err != nil {
		return 0, fmt.Errorf("notification type %q: %w", tag, err)
	}
	return nt.ID, nil
}

// TestDriveRequest is a buyer's proposal for a test drive.
type TestDriveRequest struct {
	CarID       uint
	RequesterID uint
	Date        string
	Time        string
}

// ScheduleTestDrive creates a pending test_drive notification addressed to
// the car's owner.
func (s *NotificationService) ScheduleTestDrive(ctx context.Context, req TestDriveRequest) (*models.Notification, error) {
	var created models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var car models.Car
		if err := tx.Select("id", "make", "model", "year", "owner_id", "is_sold").First(&car, req.CarID).Error; err != nil {
			return notFound(err, ErrCarNotFound)
		}
		var requester models.User
		if err := tx.Select("id", "name").First(&requester, req.RequesterID).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if requester.ID == car.OwnerID {
			return validationError("you cannot request a test drive for your own car")
		}
		if car.IsSold {
			return conflictError("car has already been sold")
		}

		tdType, err := typeID(tx, models.TypeTestDrive)
		if err != nil {
			return err
		}

		var pending int64
		err = tx.Model(&models.Notification{}).
			Where("type_id = ? AND related_id = ? AND requester_id = ? AND status = ?",
				tdType, car.ID, requester.ID, models.NotificationPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return conflictError("a test drive request for this car is already pending")
		}

		requesterID := requester.ID
		created = models.Notification{
			UserID: car.OwnerID,
			Message: fmt.Sprintf("%s requested a test drive for your %d %s %s on %s at %s",
				requester.Name, car.Year, car.Make, car.Model, req.Date, req.Time),
			TypeID:           tdType,
			Status:           models.NotificationPending,
			RelatedID:        car.ID,
			RequesterID:      &requesterID,
			NotificationType: models.TypeTestDrive,
			RequesterName:    requester.Name,
		}
		return tx.Omit(clause.Associations).Create(&created).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(created.UserID, created)
	return &created, nil
}

// List returns the notifications addressed to userID, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := s.db.WithContext(ctx).
		Preload("Type").
		Preload("Requester").
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	for i := range notifications {
		enrich(&notifications[i])
	}
	return notifications, nil
}

func enrich(n *models.Notification) {
	n.NotificationType = n.Type.Type
	if n.Requester != nil {
		n.RequesterName = n.Requester.Name
	}
}

// UnreadCount counts unread notifications addressed to userID.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// RespondResult is the answered notification and the one sent back to the requester.
type RespondResult struct {
	Notification models.Notification  `json:"notification"`
	Outcome      *models.Notification `json:"outcome,omitempty"`
}

// Respond accepts or declines a pending test-drive request. Only the
// recipient may answer, and only once.
func (s *NotificationService) Respond(ctx context.Context, id uint, status models.NotificationStatus, responderID uint) (*RespondResult, error) {
	if !statemachine.IsResponse(status) {
		return nil, fmt.Errorf("%w: status must be accepted or declined", ErrInvalidStatus)
	}

	var result RespondResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n models.Notification
		if err := tx.Preload("Type").Preload("Requester").First(&n, id).Error; err != nil {
			return notFound(err, ErrNotificationNotFound)
		}
		if n.UserID != responderID {
			return fmt.Errorf("%w: only the recipient can respond to this notification", ErrForbidden)
		}
		if n.Type.Type != models.TypeTestDrive {
			return conflictError("%s notifications do not accept responses", n.Type.Type)
		}
		if err := statemachine.CanTransition(n.Status, status, statemachine.ActorRecipient); err != nil {
			return fmt.Errorf("%w: %s", ErrConflict, err.Error())
		}

		// Guarded on the status so a concurrent response loses instead of overwriting.
		res := tx.Model(&models.Notification{}).
			Where("id = ? AND status = ?", n.ID, models.NotificationPending).
			Updates(map[string]any{"status": status, "is_read": true})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflictError("notification has already been answered")
		}
		n.Status, n.IsRead = status, true
		enrich(&n)
		result.Notification = n

		if n.RequesterID == nil {
			return nil
		}
		var responder models.User
		if err := tx.Select("id", "name").First(&responder, responderID).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		responderRef := responder.ID
		outcome := models.Notification{
			UserID:           *n.RequesterID,
			Message:          fmt.Sprintf("%s has %s your test drive request.", responder.Name, status),
			TypeID:           n.TypeID,
			Status:           models.NotificationRead,
			RelatedID:        n.RelatedID,
			RequesterID:      &responderRef,
			NotificationType: models.TypeTestDrive,
			RequesterName:    responder.Name,
		}
		if err := tx.Omit(clause.Associations).Create(&outcome).Error; err != nil {
			return err
		}
		result.Outcome = &outcome
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome != nil {
		s.notifier.Notify(result.Outcome.UserID, *result.Outcome)
	}
	return &result, nil
}

// MarkRead flags a notification as read. Only its recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	db := s.db.WithContext(ctx)
	var n models.Notification
	if err := db.Select("id", "user_id").First(&n, id).Error; err != nil {
		return notFound(err, ErrNotificationNotFound)
	}
	if n.UserID != userID {
		return ErrForbidden
	}
	return db.Model(&n).Update("is_read", true).Error
}
