package cart

import (
	"time"

	cartdto "github.com/angelmondragon/mealdash-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/mealdash-backend/internal/cart"
)

func newCart(view *cartsvc.View) cartdto.Cart {
	items := make([]cartdto.CartItem, 0, len(view.Items))
	for _, item := range view.Items {
		options := make([]cartdto.CartItemOption, 0, len(item.Options))
		for _, opt := range item.Options {
			options = append(options, cartdto.CartItemOption{
				MealOptionID: opt.MealOptionID,
				Name:         opt.Name,
				Price:        opt.Price,
			})
		}
		dto := cartdto.CartItem{
			ID:         item.ID,
			MealID:     item.MealID,
			VendorID:   item.VendorID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
			Options:    options,
			CreatedAt:  item.CreatedAt,
			UpdatedAt:  item.UpdatedAt,
		}
		if item.Meal != nil {
			dto.MealTitle = item.Meal.Title
			dto.MealImage = item.Meal.Image
			dto.MealType = item.Meal.MealType
		}
		if item.DeliveryDate != nil {
			date := time.Time(*item.DeliveryDate).Format("2006-01-02")
			dto.DeliveryDate = &date
		}
		items = append(items, dto)
	}
	return cartdto.Cart{
		VendorID:  view.VendorID,
		Items:     items,
		Subtotal:  view.Subtotal,
		ItemCount: view.ItemCount,
	}
}
