package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service defines notification list/read operations.
type Service interface {
	List(ctx context.Context, recipientType enums.RecipientType, recipientID uuid.UUID, limit int, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientType enums.RecipientType, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientType enums.RecipientType, recipientID uuid.UUID) (int64, error)
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, recipientType enums.RecipientType, recipientID uuid.UUID, limit int, unreadOnly bool) ([]models.Notification, error) {
	recipient, err := validateRecipient(recipientType, recipientID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := s.repo.List(ctx, listNotificationsParams{
		Recipient:  recipient,
		Limit:      limit,
		UnreadOnly: unreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

func (s *service) MarkRead(ctx context.Context, recipientType enums.RecipientType, recipientID, notificationID uuid.UUID) error {
	recipient, err := validateRecipient(recipientType, recipientID)
	if err != nil {
		return err
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	found, err := s.repo.MarkRead(ctx, recipient, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientType enums.RecipientType, recipientID uuid.UUID) (int64, error) {
	recipient, err := validateRecipient(recipientType, recipientID)
	if err != nil {
		return 0, err
	}

	count, err := s.repo.MarkAllRead(ctx, recipient, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// Purge deletes notifications created before olderThan.
func (s *service) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	if olderThan.IsZero() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "cutoff required")
	}
	count, err := s.repo.DeleteOlderThan(ctx, olderThan.UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge notifications")
	}
	return count, nil
}

func validateRecipient(recipientType enums.RecipientType, recipientID uuid.UUID) (Recipient, error) {
	if !recipientType.IsValid() {
		return Recipient{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid recipient type")
	}
	if recipientID == uuid.Nil {
		return Recipient{}, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	return Recipient{Type: recipientType, ID: recipientID}, nil
}
