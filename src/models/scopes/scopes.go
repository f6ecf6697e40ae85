package scopes

import (
	"time"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"gorm.io/gorm"
)

func WithID(id uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func OwnedBy(userID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at desc")
}

// ReminderDue selects confirmed bookings in [from, to] that have not been reminded.
func ReminderDue(from time.Time, to time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("status = ?", types.BOOKING_CONFIRMED).
			Where("deleted = ?", false).
			Where("reminder_sent = ?", false).
			Where("date BETWEEN ? AND ?", from, to)
	}
}

func LinkedToBookings(ids ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("meta ->> 'bookingId' IN (?)", ids)
	}
}
