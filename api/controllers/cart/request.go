package cart

import (
	cartdto "github.com/angelmondragon/mealdash-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/mealdash-backend/api/validators"
	cartsvc "github.com/angelmondragon/mealdash-backend/internal/cart"
)

func toAddItemInput(payload cartdto.AddItemRequest) (cartsvc.AddItemInput, error) {
	deliveryDate, err := validators.ParseDate("delivery_date", payload.DeliveryDate)
	if err != nil {
		return cartsvc.AddItemInput{}, err
	}
	return cartsvc.AddItemInput{
		MealID:       payload.MealID,
		Quantity:     payload.Quantity,
		OptionIDs:    payload.OptionIDs,
		DeliveryDate: deliveryDate,
	}, nil
}
