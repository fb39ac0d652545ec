package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.NewClient(t)
	svc, err := NewService(NewRepository(conn), client, nil)
	require.NoError(t, err)
	return svc, conn
}

func TestAddItemPricesOptionsAndUpserts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, conn)
	vendor := dbtest.CreateVendor(t, conn, nil)
	meal := dbtest.CreateMeal(t, conn, vendor.ID, "LUNCH", "120")
	extra := dbtest.CreateMealOption(t, conn, meal.ID, "Extra roti", "15.50")

	view, err := svc.AddItem(ctx, user.ID, AddItemInput{MealID: meal.ID, Quantity: 2, OptionIDs: []uuid.UUID{extra.ID, extra.ID}})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, "271.00", view.Subtotal.StringFixed(2))
	require.Equal(t, vendor.ID, *view.VendorID)
	require.Len(t, view.Items[0].Options, 1)

	view, err = svc.AddItem(ctx, user.ID, AddItemInput{MealID: meal.ID, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, 1, view.ItemCount)
	require.Equal(t, "120.00", view.Subtotal.StringFixed(2))
	require.Empty(t, view.Items[0].Options)
}

func TestAddItemFromAnotherVendorPurgesCart(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, conn)
	vendorA := dbtest.CreateVendor(t, conn, nil)
	vendorB := dbtest.CreateVendor(t, conn, nil)
	mealA := dbtest.CreateMeal(t, conn, vendorA.ID, "LUNCH", "100")
	mealA2 := dbtest.CreateMeal(t, conn, vendorA.ID, "DINNER", "90")
	mealB := dbtest.CreateMeal(t, conn, vendorB.ID, "LUNCH", "80")

	_, err := svc.AddItem(ctx, user.ID, AddItemInput{MealID: mealA.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user.ID, AddItemInput{MealID: mealA2.ID, Quantity: 1})
	require.NoError(t, err)

	view, err := svc.AddItem(ctx, user.ID, AddItemInput{MealID: mealB.ID, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, mealB.ID, view.Items[0].MealID)
	require.Equal(t, vendorB.ID, *view.VendorID)

	var count int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAddItemValidation(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, conn)
	vendor := dbtest.CreateVendor(t, conn, nil)
	meal := dbtest.CreateMeal(t, conn, vendor.ID, "LUNCH", "100")
	other := dbtest.CreateMeal(t, conn, vendor.ID, "DINNER", "100")
	foreign := dbtest.CreateMealOption(t, conn, other.ID, "Raita", "10")

	_, err := svc.AddItem(ctx, user.ID, AddItemInput{MealID: meal.ID, Quantity: 0})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddItem(ctx, user.ID, AddItemInput{MealID: uuid.New(), Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, user.ID, AddItemInput{MealID: meal.ID, Quantity: 1, OptionIDs: []uuid.UUID{foreign.ID}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, conn.Model(&models.Meal{}).Where("id = ?", meal.ID).Update("active", false).Error)
	_, err = svc.AddItem(ctx, user.ID, AddItemInput{MealID: meal.ID, Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestUpdateRemoveAndClear(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, conn)
	vendor := dbtest.CreateVendor(t, conn, nil)
	lunch := dbtest.CreateMeal(t, conn, vendor.ID, "LUNCH", "100")
	dinner := dbtest.CreateMeal(t, conn, vendor.ID, "DINNER", "50")

	view, err := svc.AddItem(ctx, user.ID, AddItemInput{MealID: lunch.ID, Quantity: 1})
	require.NoError(t, err)
	lunchItem := view.Items[0].ID
	_, err = svc.AddItem(ctx, user.ID, AddItemInput{MealID: dinner.ID, Quantity: 1})
	require.NoError(t, err)

	view, err = svc.UpdateQuantity(ctx, user.ID, lunchItem, 3)
	require.NoError(t, err)
	require.Equal(t, "350.00", view.Subtotal.StringFixed(2))

	_, err = svc.UpdateQuantity(ctx, uuid.New(), lunchItem, 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	view, err = svc.RemoveItem(ctx, user.ID, lunchItem)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	_, err = svc.RemoveItem(ctx, user.ID, lunchItem)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.Clear(ctx, user.ID))
	view, err = svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.Nil(t, view.VendorID)
	require.True(t, view.Subtotal.IsZero())
}
