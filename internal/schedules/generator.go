package schedules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
)

// Generator writes the schedule calendar for a freshly created order item.
type Generator struct {
	repo Repository
}

func NewGenerator(repository Repository) (*Generator, error) {
	if repository == nil {
		return nil, fmt.Errorf("schedules repository required")
	}
	return &Generator{repo: repository}, nil
}

// Generate loads the vendor meal windows, expands the item from the order
// start date and inserts the rows inside tx. A missing vendor aborts the
// caller's transaction.
func (g *Generator) Generate(ctx context.Context, tx *gorm.DB, order *models.Order, item *models.OrderItem) ([]models.MealSchedule, error) {
	if order == nil || item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and item required")
	}
	repository := g.repo.WithTx(tx)

	vendor, err := repository.FindVendor(ctx, order.VendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "vendor not found for schedule generation").
				WithDetails(map[string]any{"vendor_id": order.VendorID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor windows")
	}

	rows := BuildSchedules(order, item, WindowsFromVendor(vendor), time.Time(order.StartDate))
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item produced no schedules")
	}
	if err := repository.InsertBatch(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert schedules")
	}
	return rows, nil
}
