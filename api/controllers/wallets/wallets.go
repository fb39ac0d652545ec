package wallets

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mealdash-backend/api/middleware"
	"github.com/angelmondragon/mealdash-backend/api/responses"
	"github.com/angelmondragon/mealdash-backend/api/validators"
	internalwallets "github.com/angelmondragon/mealdash-backend/internal/wallets"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
)

// Mine returns the caller's own wallet and its recent ledger rows. A party
// that has never been credited gets a zero balance with Exists=false.
func Mine(svc internalwallets.Service, ownerType enums.WalletOwnerType, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		ownerID := middleware.ActorIDFromContext(r.Context())
		if ownerID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultTransactionLimit, 1, maxTransactionLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetWallet(r.Context(), ownerType, ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !view.Exists {
			responses.WriteSuccess(w, newWalletResponse(view, nil))
			return
		}
		rows, err := svc.ListTransactions(r.Context(), view.ID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWalletResponse(view, rows))
	}
}

// AdminGet returns any wallet by id for operators.
func AdminGet(svc internalwallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		walletID, err := validators.ParseUUIDParam(r, "walletId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultTransactionLimit, 1, maxTransactionLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetWalletByID(r.Context(), walletID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListTransactions(r.Context(), walletID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWalletResponse(view, rows))
	}
}

// AdminDebit records a payout against a wallet. Insufficient funds surface
// as STATE_CONFLICT.
func AdminDebit(svc internalwallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		walletID, err := validators.ParseUUIDParam(r, "walletId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload debitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(payload.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		var paymentID *string
		if payload.PaymentID != nil {
			if v := validators.SanitizeString(*payload.PaymentID, 128); v != "" {
				paymentID = &v
			}
		}

		row, err := svc.DebitWallet(r.Context(), internalwallets.DebitWalletInput{
			WalletID:    walletID,
			Amount:      amount,
			Description: validators.SanitizeString(payload.Description, 255),
			PaymentID:   paymentID,
			ActorID:     middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newTransactionResponse(row))
	}
}
