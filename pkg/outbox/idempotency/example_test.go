package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func ExampleManager_Guard() {
	ctx := context.Background()
	manager, _ := NewManager(newMemoryStore(), 7*24*time.Hour)
	eventID := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

	for delivery := 1; delivery <= 2; delivery++ {
		ran, _ := manager.Guard(ctx, "notifications", eventID, func(context.Context) error {
			fmt.Println("storing notifications")
			return nil
		})
		fmt.Printf("delivery %d handled: %t\n", delivery, ran)
	}
	// Output:
	// storing notifications
	// delivery 1 handled: true
	// delivery 2 handled: false
}
