package wallets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/mealdash-backend/internal/repo"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// Repository persists wallets and their append-only transaction log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureWallet(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) (*models.Wallet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	FindByOwner(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) (*models.Wallet, error)
	Increment(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error
	DecrementIfSufficient(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (bool, error)
	InsertTransaction(ctx context.Context, txn *models.WalletTransaction) error
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletTransaction, error)
	LedgerSum(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error)
	ListWalletIDs(ctx context.Context) ([]uuid.UUID, error)
}

type repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.WithTx(tx)}
}

// EnsureWallet inserts a zero-balance wallet unless one exists, then reads it.
func (r *repository) EnsureWallet(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) (*models.Wallet, error) {
	candidate := models.Wallet{OwnerType: ownerType, OwnerID: ownerID, Balance: decimal.Zero}
	err := r.base.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_type"}, {Name: "owner_id"}},
			DoNothing: true,
		}).
		Create(&candidate).Error
	if err != nil {
		return nil, err
	}
	return r.FindByOwner(ctx, ownerType, ownerID)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.base.DB(ctx).First(&wallet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindByOwner(ctx context.Context, ownerType enums.WalletOwnerType, ownerID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.base.DB(ctx).
		Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Increment adds amount in the database so concurrent credits never lose updates.
func (r *repository) Increment(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	res := r.base.DB(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementIfSufficient subtracts amount only when the balance covers it.
func (r *repository) DecrementIfSufficient(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND balance >= ?", walletID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) InsertTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.base.DB(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	var rows []models.WalletTransaction
	err := r.base.DB(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// LedgerSum is the signed sum of the wallet's transactions.
func (r *repository) LedgerSum(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.base.DB(ctx).
		Model(&models.WalletTransaction{}).
		Select("SUM(CASE WHEN type = ? THEN amount ELSE -amount END)", enums.WalletTransactionCredit).
		Where("wallet_id = ?", walletID).
		Row().
		Scan(&sum)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *repository) ListWalletIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.base.DB(ctx).
		Model(&models.Wallet{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}
