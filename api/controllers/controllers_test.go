package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealdash-backend/api/middleware"
	"github.com/angelmondragon/mealdash-backend/pkg/config"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
)

type stubNotifications struct {
	rows          []models.Notification
	err           error
	recipientType enums.RecipientType
	recipientID   uuid.UUID
	limit         int
	unreadOnly    bool
	markedID      uuid.UUID
}

func (s *stubNotifications) List(_ context.Context, recipientType enums.RecipientType, recipientID uuid.UUID, limit int, unreadOnly bool) ([]models.Notification, error) {
	s.recipientType, s.recipientID, s.limit, s.unreadOnly = recipientType, recipientID, limit, unreadOnly
	return s.rows, s.err
}

func (s *stubNotifications) MarkRead(_ context.Context, recipientType enums.RecipientType, recipientID, notificationID uuid.UUID) error {
	s.recipientType, s.recipientID, s.markedID = recipientType, recipientID, notificationID
	return s.err
}

func (s *stubNotifications) MarkAllRead(_ context.Context, recipientType enums.RecipientType, recipientID uuid.UUID) (int64, error) {
	s.recipientType, s.recipientID = recipientType, recipientID
	return 3, s.err
}

func (s *stubNotifications) Purge(context.Context, time.Time) (int64, error) { return 0, nil }

func roleRequest(method, target string, role enums.Role, actor uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.WithActor(req.Context(), actor, role))
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get(envHeader))
}

func TestHealthReadyReportsFailedDependency(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	ok := Dependency{Name: "db", Ping: func(context.Context) error { return nil }}
	down := Dependency{Name: "redis", Ping: func(context.Context) error { return errors.New("refused") }}

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, ok).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, ok, down).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), "redis")
}

func TestListNotificationsMapsRoleToRecipient(t *testing.T) {
	partnerID := uuid.New()
	readAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc := &stubNotifications{rows: []models.Notification{
		{ID: uuid.New(), Type: enums.NotificationTypeAssignment, Title: "New delivery", CreatedAt: readAt.Add(-time.Hour)},
		{ID: uuid.New(), Type: enums.NotificationTypeWalletCredit, Title: "Wallet credited", ReadAt: &readAt, CreatedAt: readAt.Add(-2 * time.Hour)},
	}}

	resp := httptest.NewRecorder()
	ListNotifications(svc, nil).ServeHTTP(resp, roleRequest(http.MethodGet, "/api/v1/notifications?limit=10&unreadOnly=true", enums.RoleDeliveryPartner, partnerID))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.RecipientDeliveryPartner, svc.recipientType)
	assert.Equal(t, partnerID, svc.recipientID)
	assert.Equal(t, 10, svc.limit)
	assert.True(t, svc.unreadOnly)

	var envelope struct {
		Data []notificationResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Len(t, envelope.Data, 2)
	assert.False(t, envelope.Data[0].Read)
	assert.True(t, envelope.Data[1].Read)
	require.NotNil(t, envelope.Data[1].ReadAt)
	assert.Equal(t, "2026-03-02T09:00:00Z", *envelope.Data[1].ReadAt)
}

func TestListNotificationsRequiresActor(t *testing.T) {
	resp := httptest.NewRecorder()
	ListNotifications(&stubNotifications{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestMarkNotificationRead(t *testing.T) {
	notificationID := uuid.New()
	userID := uuid.New()
	svc := &stubNotifications{}

	req := roleRequest(http.MethodPost, "/", enums.RoleUser, userID)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("notificationId", notificationID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.RecipientUser, svc.recipientType)
	assert.Equal(t, notificationID, svc.markedID)

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	resp = httptest.NewRecorder()
	MarkNotificationRead(svc, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	svc := &stubNotifications{}
	resp := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, nil).ServeHTTP(resp, roleRequest(http.MethodPost, "/", enums.RoleVendor, uuid.New()))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.RecipientVendor, svc.recipientType)
	assert.JSONEq(t, `{"data":{"updated":3}}`, resp.Body.String())
}
