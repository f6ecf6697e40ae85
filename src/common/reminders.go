package common

import (
	"context"
	"log"
	"time"

	"github.com/santupramanik23/my-guide-backend/src/controllers"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/types"
)

const (
	REMINDER_WINDOW_START = 23 * time.Hour
	REMINDER_WINDOW_END   = 25 * time.Hour
)

// SendUpcomingReminders notifies confirmed bookings that start in about a day.
// A booking is flagged only after its reminder went out, so a failed send is
// retried on the next run.
func SendUpcomingReminders(ctx context.Context, store controllers.BookingStore, items controllers.ItemLookup, notifier controllers.Notifier, timeout time.Duration, now time.Time) (int, error) {
	bookings, err := store.ListReminderDue(ctx, now.Add(REMINDER_WINDOW_START), now.Add(REMINDER_WINDOW_END))
	if err != nil {
		log.Printf("Error listing bookings due for reminder: %s\n", err.Error())
		return 0, err
	}
	sent := 0
	for i := range bookings {
		b := &bookings[i]
		to := b.Contact.Primary()
		if to.Email == "" {
			log.Printf("[reminders] Booking [%s] has no contact email\n", b.ID.String())
			continue
		}
		if err := sendReminder(ctx, notifier, items, timeout, b, to); err != nil {
			log.Printf("[reminders] Error sending reminder for booking [%s]: %s\n", b.ID.String(), err.Error())
			continue
		}
		if err := store.MarkReminderSent(ctx, b.ID); err != nil {
			log.Printf("[reminders] Error flagging booking [%s]: %s\n", b.ID.String(), err.Error())
			continue
		}
		sent++
	}
	log.Printf("[reminders] %d of %d reminders sent\n", sent, len(bookings))
	return sent, nil
}

func sendReminder(ctx context.Context, notifier controllers.Notifier, items controllers.ItemLookup, timeout time.Duration, b *models.Booking, to types.Person) error {
	nctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return notifier.Notify(nctx, types.NOTIFY_REMINDER, b, to, controllers.ResolveItem(nctx, items, b))
}
