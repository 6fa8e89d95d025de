package domain

import "time"

// SystemSender is the sender name on review notifications ("系统通知" = system notice).
const SystemSender = "系统通知"

// Message is a notification delivered to a user's inbox.
type Message struct {
	ID         ID         `json:"id,omitempty"`
	UserID     ID         `json:"user_id"`
	SenderName string     `json:"sender_name"`
	Content    string     `json:"content"`
	IsUnread   bool       `json:"is_unread"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// NewNotification builds an unread system message for userID.
func NewNotification(userID ID, content string) Message {
	return Message{
		UserID:     userID,
		SenderName: SystemSender,
		Content:    content,
		IsUnread:   true,
	}
}
