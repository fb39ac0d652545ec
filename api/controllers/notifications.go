package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mealdash-backend/api/middleware"
	"github.com/angelmondragon/mealdash-backend/api/responses"
	"github.com/angelmondragon/mealdash-backend/api/validators"
	"github.com/angelmondragon/mealdash-backend/internal/notifications"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

type notificationResponse struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Metadata  map[string]any         `json:"metadata,omitempty"`
	Read      bool                   `json:"read"`
	ReadAt    *string                `json:"read_at,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

// ListNotifications returns the caller's notifications, newest first.
// Query: limit, unreadOnly.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		recipientType, recipientID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unreadOnly, err := validators.ParseQueryBool(r, "unreadOnly")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), recipientType, recipientID, limit, unreadOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]notificationResponse, 0, len(rows))
		for _, row := range rows {
			item := notificationResponse{
				ID:        row.ID,
				Type:      row.Type,
				Title:     row.Title,
				Message:   row.Message,
				Metadata:  row.Metadata,
				Read:      row.ReadAt != nil,
				CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339),
			}
			if row.ReadAt != nil {
				readAt := row.ReadAt.UTC().Format(time.RFC3339)
				item.ReadAt = &readAt
			}
			out = append(out, item)
		}
		responses.WriteSuccess(w, out)
	}
}

func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		recipientType, recipientID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := validators.ParseUUIDParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), recipientType, recipientID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		recipientType, recipientID, err := recipientFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.MarkAllRead(r.Context(), recipientType, recipientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}

// recipientFromContext maps the token role onto the notification recipient.
func recipientFromContext(r *http.Request) (enums.RecipientType, uuid.UUID, error) {
	actorID := middleware.ActorIDFromContext(r.Context())
	if actorID == uuid.Nil {
		return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	recipientType := enums.RecipientType(middleware.RoleFromContext(r.Context()))
	if !recipientType.IsValid() {
		return "", uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot receive notifications")
	}
	return recipientType, actorID, nil
}
