package schedules

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/mealdash-backend/api/middleware"
	"github.com/angelmondragon/mealdash-backend/api/responses"
	"github.com/angelmondragon/mealdash-backend/api/validators"
	internalschedules "github.com/angelmondragon/mealdash-backend/internal/schedules"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type orderReader interface {
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

type transitionFunc func(ctx context.Context, input internalschedules.TransitionInput) (*models.MealSchedule, error)

// ListForVendor returns the calling vendor's schedules. Query: date, status, limit.
func ListForVendor(svc internalschedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedules service unavailable"))
			return
		}
		list(w, r, logg, svc.ListForVendor)
	}
}

// ListForPartner returns schedules assigned to the calling delivery partner.
func ListForPartner(svc internalschedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedules service unavailable"))
			return
		}
		list(w, r, logg, svc.ListForPartner)
	}
}

func list(w http.ResponseWriter, r *http.Request, logg *logger.Logger, fetch func(context.Context, uuid.UUID, internalschedules.ListFilter) ([]models.MealSchedule, error)) {
	actor, err := actorID(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	rows, err := fetch(r.Context(), actor, filter)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, newScheduleList(rows))
}

// ForOrder lists the calendar of one of the caller's orders.
func ForOrder(orders orderReader, svc internalschedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if orders == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedules service unavailable"))
			return
		}
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := orders.GetForUser(r.Context(), userID, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newScheduleList(rows))
	}
}

func UpdateAsVendor(svc internalschedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedules service unavailable"))
			return
		}
		transition(w, r, logg, svc.UpdateStatusAsVendor)
	}
}

func UpdateAsPartner(svc internalschedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedules service unavailable"))
			return
		}
		transition(w, r, logg, svc.UpdateStatusAsPartner)
	}
}

// UpdateAsAdmin applies an operator override. Terminal rows stay immutable.
func UpdateAsAdmin(svc internalschedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedules service unavailable"))
			return
		}
		transition(w, r, logg, svc.UpdateStatusAsAdmin)
	}
}

func transition(w http.ResponseWriter, r *http.Request, logg *logger.Logger, apply transitionFunc) {
	actor, err := actorID(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	scheduleID, err := validators.ParseUUIDParam(r, "scheduleId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	var payload statusRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	target, err := enums.ParseScheduleStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
		return
	}

	row, err := apply(r.Context(), internalschedules.TransitionInput{
		ScheduleID: scheduleID,
		ActorID:    actor,
		Target:     target,
	})
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, newScheduleResponse(row))
}

// AssignPartner attaches a delivery partner to a schedule.
func AssignPartner(svc internalschedules.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedules service unavailable"))
			return
		}
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scheduleID, err := validators.ParseUUIDParam(r, "scheduleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload assignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		row, err := svc.AssignPartner(r.Context(), internalschedules.AssignInput{
			ScheduleID: scheduleID,
			PartnerID:  payload.DeliveryPartnerID,
			ActorID:    actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newScheduleResponse(row))
	}
}

func parseFilter(r *http.Request) (internalschedules.ListFilter, error) {
	var filter internalschedules.ListFilter
	limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	if filter.Date, err = validators.ParseQueryDate(r, "date"); err != nil {
		return filter, err
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseScheduleStatus(strings.ToUpper(raw))
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filter.Status = status
	}
	return filter, nil
}

func actorID(r *http.Request) (uuid.UUID, error) {
	id := middleware.ActorIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	return id, nil
}
