package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
)

type debitBody struct {
	Amount   string `json:"amount" validate:"required,money"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"12.50","quantity":2}`))
	var body debitBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "12.50", body.Amount)
}

func TestDecodeJSONBodyValidationDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"1.005","quantity":0}`))
	var body debitBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "amount")
	assert.Contains(t, details, "quantity")
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"1","quantity":1,"extra":true}`))
	var body debitBody
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=20&unread=true&date=2026-03-01", nil)

	limit, err := ParseQueryInt(req, "limit", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)

	unread, err := ParseQueryBool(req, "unread")
	require.NoError(t, err)
	assert.True(t, unread)

	date, err := ParseQueryDate(req, "date")
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.Equal(t, "2026-03-01", date.Format(dateLayout))

	_, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=500", nil), "limit", 50, 1, 200)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseQueryDate(httptest.NewRequest(http.MethodGet, "/?date=03-01-2026", nil), "date")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(req, "orderId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(req, "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "héllo", SanitizeString("  héllo world ", 5))
	assert.Equal(t, "abc", SanitizeString(" abc ", 0))
	assert.Equal(t, "payout\tmarch", SanitizeString("pay\x00out\tmarch\x1b", 0))
	assert.Equal(t, "ab", SanitizeString("ab  cd", 3))
}

type mealBody struct {
	Date  string     `json:"date" validate:"required,isodate"`
	Items []lineBody `json:"items" validate:"required,min=1,dive"`
}

type lineBody struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONBodyReportsNestedFieldPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"date":"2026-13-01","items":[{"quantity":1},{"quantity":0}]}`))
	var body mealBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a date (YYYY-MM-DD)", details["date"])
	assert.Equal(t, "must be greater than 0", details["items[1].quantity"])
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty", "", "request body required"},
		{"trailing value", `{"amount":"1","quantity":1}{"amount":"2"}`, "request body must contain a single JSON object"},
		{"syntax", `{"amount":`, "malformed JSON"},
		{"truncated object", `{"amount":"1","quantity":1`, "malformed JSON"},
		{"bad token", `{"amount":}`, "malformed JSON"},
		{"unknown field", `{"amount":"1","quantity":1,"extra":true}`, "unknown field"},
		{"wrong type", `{"amount":"1","quantity":"two"}`, "invalid field type"},
		{"too large", `{"amount":"` + strings.Repeat("9", MaxBodyBytes) + `"}`, "request body too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var body debitBody
			err := DecodeJSONBody(req, &body)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
			assert.Equal(t, tt.message, pkgerrors.As(err).Message())
		})
	}
}
