package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tonybigdeals/dog-project/internal/domain"
	"github.com/tonybigdeals/dog-project/internal/logging"
	"github.com/tonybigdeals/dog-project/internal/storage"
)

// Notifier delivers system messages after a review. Delivery never fails the caller: the
// review is the operation of record and the message is advisory.
type Notifier struct {
	messages storage.MessageStore
	log      *logging.Logger
}

func NewNotifier(messages storage.MessageStore, log *logging.Logger) *Notifier {
	if log == nil {
		log = logging.NewDefault("notifier")
	}
	return &Notifier{messages: messages, log: log}
}

// Notify inserts an unread system message for userID and reports whether it was stored.
func (n *Notifier) Notify(ctx context.Context, userID domain.ID, content string) bool {
	if n == nil || n.messages == nil {
		return false
	}
	if userID == "" {
		n.log.WithContext(ctx).Warn("notification skipped: no recipient")
		return false
	}
	if _, err := n.messages.CreateMessage(ctx, domain.NewNotification(userID, content)); err != nil {
		n.log.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
			"recipient": userID,
		}).Warn("notification not delivered")
		return false
	}
	return true
}
