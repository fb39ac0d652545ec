package wallets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	internalwallets "github.com/angelmondragon/mealdash-backend/internal/wallets"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

type debitRequest struct {
	Amount      string  `json:"amount" validate:"required,money"`
	Description string  `json:"description" validate:"required,max=255"`
	PaymentID   *string `json:"payment_id"`
}

type walletResponse struct {
	internalwallets.WalletView
	Transactions []transactionResponse `json:"transactions"`
}

type transactionResponse struct {
	ID           uuid.UUID                   `json:"id"`
	Type         enums.WalletTransactionType `json:"type"`
	Amount       decimal.Decimal             `json:"amount"`
	BalanceAfter decimal.Decimal             `json:"balance_after"`
	Description  string                      `json:"description"`
	OrderID      *uuid.UUID                  `json:"order_id,omitempty"`
	ScheduleID   *uuid.UUID                  `json:"schedule_id,omitempty"`
	PaymentID    *string                     `json:"payment_id,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
}

func newTransactionResponse(row *models.WalletTransaction) transactionResponse {
	return transactionResponse{
		ID:           row.ID,
		Type:         row.Type,
		Amount:       row.Amount,
		BalanceAfter: row.BalanceAfter,
		Description:  row.Description,
		OrderID:      row.OrderID,
		ScheduleID:   row.ScheduleID,
		PaymentID:    row.PaymentID,
		CreatedAt:    row.CreatedAt,
	}
}

func newWalletResponse(view *internalwallets.WalletView, rows []models.WalletTransaction) walletResponse {
	resp := walletResponse{WalletView: *view, Transactions: make([]transactionResponse, 0, len(rows))}
	for i := range rows {
		resp.Transactions = append(resp.Transactions, newTransactionResponse(&rows[i]))
	}
	return resp
}
