package models

import "time"

type Message struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SenderID   uint      `json:"senderId" gorm:"not null;index"`
	Sender     *User     `json:"-" gorm:"foreignKey:SenderID"`
	ReceiverID uint      `json:"receiverId" gorm:"not null;index"`
	Receiver   *User     `json:"-" gorm:"foreignKey:ReceiverID"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content" gorm:"not null"`
	Unread     bool      `json:"unread" gorm:"not null;default:true"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`

	SenderName   string `json:"senderName,omitempty" gorm:"-"`
	ReceiverName string `json:"receiverName,omitempty" gorm:"-"`
}

// Conversation groups messages by the other participant. Not persisted.
type Conversation struct {
	OtherUserID   uint      `json:"otherUserId"`
	OtherUserName string    `json:"otherUserName"`
	UnreadCount   int       `json:"unreadCount"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	Messages      []Message `json:"messages"`
}
