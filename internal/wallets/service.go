package wallets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/internal/repo"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/payloads"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the wallet ledger. Credit and Debit join the caller's
// transaction; DebitWallet runs its own.
type Service interface {
	EnsureWallet(ctx context.Context, tx *gorm.DB, ownerType enums.WalletOwnerType, ownerID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error)
	Debit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error)
	DebitWallet(ctx context.Context, input DebitWalletInput) (*models.WalletTransaction, error)
	GetWallet(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) (*WalletView, error)
	GetWalletByID(ctx context.Context, walletID uuid.UUID) (*WalletView, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletTransaction, error)
	Reconcile(ctx context.Context, walletID uuid.UUID) (*ReconcileResult, error)
	ReconcileAll(ctx context.Context) ([]ReconcileResult, error)
}

// EntryInput describes one ledger movement for an owner.
type EntryInput struct {
	OwnerType   enums.WalletOwnerType
	OwnerID     uuid.UUID
	Amount      decimal.Decimal
	Description string
	OrderID     *uuid.UUID
	ScheduleID  *uuid.UUID
	PaymentID   *string
}

// DebitWalletInput is an operator payout against a wallet id.
type DebitWalletInput struct {
	WalletID    uuid.UUID
	Amount      decimal.Decimal
	Description string
	PaymentID   *string
	ActorID     uuid.UUID
}

// WalletView is returned to owners. Exists is false before the first credit.
type WalletView struct {
	ID        uuid.UUID             `json:"id"`
	OwnerType enums.WalletOwnerType `json:"owner_type"`
	OwnerID   uuid.UUID             `json:"owner_id"`
	Balance   decimal.Decimal       `json:"balance"`
	Exists    bool                  `json:"exists"`
}

type ReconcileResult struct {
	WalletID   uuid.UUID             `json:"wallet_id"`
	OwnerType  enums.WalletOwnerType `json:"owner_type"`
	OwnerID    uuid.UUID             `json:"owner_id"`
	Balance    decimal.Decimal       `json:"balance"`
	LedgerSum  decimal.Decimal       `json:"ledger_sum"`
	Difference decimal.Decimal       `json:"difference"`
	Consistent bool                  `json:"consistent"`
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

func NewService(repository Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger) (Service, error) {
	if repository == nil {
		return nil, fmt.Errorf("wallets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repository, tx: tx, outbox: outbox, logg: logg}, nil
}

func (s *service) EnsureWallet(ctx context.Context, tx *gorm.DB, ownerType enums.WalletOwnerType, ownerID uuid.UUID) (*models.Wallet, error) {
	if !ownerType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid wallet owner type %q", ownerType)
	}
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet owner id required")
	}
	wallet, err := s.repo.WithTx(tx).EnsureWallet(ctx, ownerType, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure wallet")
	}
	return wallet, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error) {
	amount := input.Amount.Round(2)
	if amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit amount must not be negative")
	}
	wallet, err := s.EnsureWallet(ctx, tx, input.OwnerType, input.OwnerID)
	if err != nil {
		return nil, err
	}
	repository := s.repo.WithTx(tx)
	if err := repository.Increment(ctx, wallet.ID, amount); err != nil {
		return nil, repo.Translate(err, "wallet not found")
	}
	return s.appendEntry(ctx, repository, wallet.ID, enums.WalletTransactionCredit, amount, input)
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error) {
	amount := input.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "debit amount must be positive")
	}
	repository := s.repo.WithTx(tx)
	wallet, err := repository.FindByOwner(ctx, input.OwnerType, input.OwnerID)
	if err != nil {
		return nil, repo.Translate(err, "wallet not found")
	}
	return s.debit(ctx, repository, wallet, amount, input)
}

func (s *service) debit(ctx context.Context, repository Repository, wallet *models.Wallet, amount decimal.Decimal, input EntryInput) (*models.WalletTransaction, error) {
	ok, err := repository.DecrementIfSufficient(ctx, wallet.ID, amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient wallet balance").
			WithDetails(map[string]any{"wallet_id": wallet.ID, "requested": amount.StringFixed(2)})
	}
	return s.appendEntry(ctx, repository, wallet.ID, enums.WalletTransactionDebit, amount, input)
}

// appendEntry re-reads the balance after the atomic update and writes the
// matching ledger row.
func (s *service) appendEntry(ctx context.Context, repository Repository, walletID uuid.UUID, kind enums.WalletTransactionType, amount decimal.Decimal, input EntryInput) (*models.WalletTransaction, error) {
	updated, err := repository.FindByID(ctx, walletID)
	if err != nil {
		return nil, repo.Translate(err, "wallet not found")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = strings.ToLower(string(kind))
	}
	txn := &models.WalletTransaction{
		WalletID:     walletID,
		Type:         kind,
		Amount:       amount,
		BalanceAfter: updated.Balance.Round(2),
		Description:  description,
		OrderID:      input.OrderID,
		ScheduleID:   input.ScheduleID,
		PaymentID:    input.PaymentID,
	}
	if err := repository.InsertTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record wallet transaction")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"wallet_id":      walletID.String(),
			"transaction_id": txn.ID.String(),
			"type":           kind,
			"amount":         amount.StringFixed(2),
			"balance_after":  txn.BalanceAfter.StringFixed(2),
		})
		s.logg.Info(logCtx, "wallet entry recorded")
	}
	return txn, nil
}

func (s *service) DebitWallet(ctx context.Context, input DebitWalletInput) (*models.WalletTransaction, error) {
	if input.WalletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id required")
	}
	amount := input.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "debit amount must be positive")
	}

	var result *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)
		wallet, err := repository.FindByID(ctx, input.WalletID)
		if err != nil {
			return repo.Translate(err, "wallet not found")
		}
		txn, err := s.debit(ctx, repository, wallet, amount, EntryInput{
			OwnerType:   wallet.OwnerType,
			OwnerID:     wallet.OwnerID,
			Amount:      amount,
			Description: input.Description,
			PaymentID:   input.PaymentID,
		})
		if err != nil {
			return err
		}
		var actor *outbox.ActorRef
		if input.ActorID != uuid.Nil {
			actor = &outbox.ActorRef{ID: input.ActorID, Role: string(enums.RoleAdmin)}
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWalletDebited,
			AggregateType: enums.AggregateWallet,
			AggregateID:   wallet.ID,
			Actor:         actor,
			Data: payloads.WalletDebitedEvent{
				WalletID:      wallet.ID,
				TransactionID: txn.ID,
				OwnerType:     wallet.OwnerType,
				OwnerID:       wallet.OwnerID,
				Amount:        txn.Amount,
				BalanceAfter:  txn.BalanceAfter,
				PaymentID:     txn.PaymentID,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit wallet debited event")
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetWallet(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) (*WalletView, error) {
	if !ownerType.IsValid() || ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet owner required")
	}
	wallet, err := s.repo.FindByOwner(ctx, ownerType, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &WalletView{OwnerType: ownerType, OwnerID: ownerID, Balance: decimal.Zero}, nil
		}
		return nil, repo.Translate(err, "wallet not found")
	}
	return toView(wallet), nil
}

func (s *service) GetWalletByID(ctx context.Context, walletID uuid.UUID) (*WalletView, error) {
	if walletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id required")
	}
	wallet, err := s.repo.FindByID(ctx, walletID)
	if err != nil {
		return nil, repo.Translate(err, "wallet not found")
	}
	return toView(wallet), nil
}

func (s *service) ListTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	if walletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id required")
	}
	switch {
	case limit <= 0:
		limit = defaultTransactionLimit
	case limit > maxTransactionLimit:
		limit = maxTransactionLimit
	}
	rows, err := s.repo.ListTransactions(ctx, walletID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions")
	}
	return rows, nil
}

func (s *service) Reconcile(ctx context.Context, walletID uuid.UUID) (*ReconcileResult, error) {
	wallet, err := s.repo.FindByID(ctx, walletID)
	if err != nil {
		return nil, repo.Translate(err, "wallet not found")
	}
	sum, err := s.repo.LedgerSum(ctx, walletID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum wallet ledger")
	}
	balance := wallet.Balance.Round(2)
	sum = sum.Round(2)
	diff := balance.Sub(sum)
	return &ReconcileResult{
		WalletID:   wallet.ID,
		OwnerType:  wallet.OwnerType,
		OwnerID:    wallet.OwnerID,
		Balance:    balance,
		LedgerSum:  sum,
		Difference: diff,
		Consistent: diff.IsZero(),
	}, nil
}

func (s *service) ReconcileAll(ctx context.Context) ([]ReconcileResult, error) {
	ids, err := s.repo.ListWalletIDs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallets")
	}
	results := make([]ReconcileResult, 0, len(ids))
	for _, id := range ids {
		result, err := s.Reconcile(ctx, id)
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}

func toView(wallet *models.Wallet) *WalletView {
	return &WalletView{
		ID:        wallet.ID,
		OwnerType: wallet.OwnerType,
		OwnerID:   wallet.OwnerID,
		Balance:   wallet.Balance.Round(2),
		Exists:    true,
	}
}
