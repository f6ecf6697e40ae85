package controllers

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/types"
)

// ResolveItem returns the booked activity, or the place when there is no activity.
// Lookup errors are logged and yield nil.
func ResolveItem(ctx context.Context, items ItemLookup, b *models.Booking) *types.BookableItem {
	if items == nil {
		return nil
	}
	if b.ActivityID != nil {
		if item := findItem(ctx, items, types.ITEM_ACTIVITY, *b.ActivityID); item != nil {
			return item
		}
	}
	if b.PlaceID != nil {
		return findItem(ctx, items, types.ITEM_PLACE, *b.PlaceID)
	}
	return nil
}

func findItem(ctx context.Context, items ItemLookup, kind types.ItemKind, id uuid.UUID) *types.BookableItem {
	item, err := items.FindItem(ctx, kind, id)
	if err != nil {
		if !types.IsNotFound(err) {
			log.Printf("Error looking up %s [%s]: %s\n", kind, id.String(), err.Error())
		}
		return nil
	}
	return item
}

// recipient is the booking's primary contact, or the actor when the contact has no email.
func recipient(b *models.Booking, actor *types.Actor) types.Person {
	to := b.Contact.Primary()
	if to.Email == "" && actor != nil && actor.ID == b.UserID {
		return actorPerson(*actor)
	}
	return to
}

func actorPerson(actor types.Actor) types.Person {
	return types.Person{Name: actor.Name, Email: actor.Email, Phone: actor.Phone}
}

// dispatchNotification sends kind in the background. The state change has
// already been saved, so a failure here is only logged.
func dispatchNotification(notifier Notifier, items ItemLookup, timeout time.Duration, kind types.NotificationKind, booking models.Booking, to types.Person) {
	if notifier == nil {
		return
	}
	if to.Email == "" {
		log.Printf("Skipping %s notification for booking [%s]: no recipient\n", kind, booking.ID.String())
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		item := ResolveItem(ctx, items, &booking)
		if err := notifier.Notify(ctx, kind, &booking, to, item); err != nil {
			log.Printf("Error sending %s notification for booking [%s]: %s\n", kind, booking.ID.String(), err.Error())
		}
	}()
}
