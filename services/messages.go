package services

import (
	"context"
	"fmt"
	"strings"

	"vehicle-vault-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewMessageService(db *gorm.DB, notifier Notifier) *MessageService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &MessageService{db: db, notifier: notifier}
}

// Send stores a direct message and notifies the receiver.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uint, subject, content string) (*models.Message, error) {
	subject = strings.TrimSpace(subject)
	if strings.TrimSpace(content) == "" {
		return nil, validationError("content is required")
	}

	var msg models.Message
	var note models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sender, receiver models.User
		if err := tx.Select("id", "name").First(&sender, senderID).Error; err != nil {
			return fmt.Errorf("sender: %w", notFound(err, ErrUserNotFound))
		}
		if err := tx.Select("id", "name").First(&receiver, receiverID).Error; err != nil {
			return fmt.Errorf("receiver: %w", notFound(err, ErrUserNotFound))
		}

		msg = models.Message{
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Subject:    subject,
			Content:    content,
			Unread:     true,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		msg.SenderName, msg.ReceiverName = sender.Name, receiver.Name

		msgType, err := typeID(tx, models.TypeMessage)
		if err != nil {
			return err
		}
		senderRef := sender.ID
		note = models.Notification{
			UserID:           receiver.ID,
			Message:          fmt.Sprintf("New message from %s: %s", sender.Name, subject),
			TypeID:           msgType,
			Status:           models.NotificationRead,
			RelatedID:        msg.ID,
			RequesterID:      &senderRef,
			NotificationType: models.TypeMessage,
			RequesterName:    sender.Name,
		}
		return tx.Omit(clause.Associations).Create(&note).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(note.UserID, note)
	return &msg, nil
}

// Conversations returns userID's messages grouped by the other participant,
// most recently active conversation first. Messages inside a conversation are
// newest first.
func (s *MessageService) Conversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at desc, id desc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return groupConversations(userID, messages), nil
}

func groupConversations(userID uint, messages []models.Message) []models.Conversation {
	conversations := []models.Conversation{}
	index := map[uint]int{}

	for _, m := range messages {
		if m.Sender != nil {
			m.SenderName = m.Sender.Name
		}
		if m.Receiver != nil {
			m.ReceiverName = m.Receiver.Name
		}

		otherID, otherName := m.SenderID, m.SenderName
		if m.SenderID == userID {
			otherID, otherName = m.ReceiverID, m.ReceiverName
		}

		i, ok := index[otherID]
		if !ok {
			i = len(conversations)
			index[otherID] = i
			conversations = append(conversations, models.Conversation{
				OtherUserID:   otherID,
				OtherUserName: otherName,
				LastMessageAt: m.CreatedAt,
			})
		}
		c := &conversations[i]
		if m.ReceiverID == userID && m.Unread {
			c.UnreadCount++
		}
		m.Sender, m.Receiver = nil, nil
		c.Messages = append(c.Messages, m)
	}
	return conversations
}

// MarkRead clears the unread flag. Only the receiver may do so.
func (s *MessageService) MarkRead(ctx context.Context, id, userID uint) error {
	db := s.db.WithContext(ctx)
	var msg models.Message
	if err := db.Select("id", "receiver_id").First(&msg, id).Error; err != nil {
		return notFound(err, ErrMessageNotFound)
	}
	if msg.ReceiverID != userID {
		return ErrForbidden
	}
	return db.Model(&msg).Update("unread", false).Error
}
