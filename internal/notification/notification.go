package notification

import (
	"log/slog"
	"time"

	notificationDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/notification"
)

type Repository interface {
	Create(n *notificationDatamodel.Notification) error
	ListByUser(userID int64, limit int) ([]*notificationDatamodel.Notification, error)
	MarkRead(id, userID int64) error
}

// Service delivers in-app notifications. Notify is fire-and-forget; losing a
// notification is acceptable, blocking an order transition on one is not.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(logger *slog.Logger, repo Repository) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Notify(userID int64, notifType, title, message string, relatedID int64) {
	related := relatedID
	n := &notificationDatamodel.Notification{
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		RelatedID: &related,
		CreatedAt: time.Now(),
	}

	go func() {
		if err := s.repo.Create(n); err != nil {
			s.logger.Error("failed to store notification",
				"user_id", userID,
				"type", notifType,
				"error", err)
		}
	}()
}

func (s *Service) List(userID int64, limit int) ([]*notificationDatamodel.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByUser(userID, limit)
}

func (s *Service) MarkRead(id, userID int64) error {
	return s.repo.MarkRead(id, userID)
}
