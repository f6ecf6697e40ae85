package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"gorm.io/gorm"
)

type Booking struct {
	ID         uuid.UUID  `gorm:"primarykey;type:uuid" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	PlaceID    *uuid.UUID `gorm:"type:uuid;index" json:"place_id,omitempty"`
	ActivityID *uuid.UUID `gorm:"type:uuid;index" json:"activity_id,omitempty"`

	Date time.Time `gorm:"index;not null" json:"date"`
	Time string    `json:"time,omitempty"`

	Participants int `gorm:"not null" json:"participants"`
	// PeopleCount mirrors Participants for older clients.
	PeopleCount int `json:"people_count"`

	Contact         types.Contact `gorm:"type:jsonb;serializer:json" json:"contact"`
	SpecialRequests string        `json:"special_requests,omitempty"`

	TotalAmount float64                `json:"total_amount"`
	Pricing     types.PricingBreakdown `gorm:"type:jsonb;serializer:json" json:"pricing"`

	Status             types.BookingStatus `gorm:"index;not null" json:"status"`
	PaymentStatus      types.PaymentStatus `gorm:"index;not null" json:"payment_status"`
	PaymentID          *string             `json:"payment_id,omitempty"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`
	ReminderSent       bool                `json:"reminder_sent"`
	Deleted            bool                `gorm:"index" json:"deleted"`

	types.Timestamps
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Booking) SetParticipants(n int) {
	b.Participants = n
	b.PeopleCount = n
}

// MarkPaid applies a captured payment to the booking.
func (b *Booking) MarkPaid(paymentID string) {
	b.Status = types.BOOKING_CONFIRMED
	b.PaymentStatus = types.PAYMENT_PAID
	if paymentID != "" {
		b.PaymentID = &paymentID
	}
}

func (b *Booking) SoftDelete(at time.Time) {
	b.Deleted = true
	b.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
}

// Item returns the kind and id of the booked item. Activities take precedence over places.
func (b *Booking) Item() (types.ItemKind, *uuid.UUID) {
	if b.ActivityID != nil {
		return types.ITEM_ACTIVITY, b.ActivityID
	}
	if b.PlaceID != nil {
		return types.ITEM_PLACE, b.PlaceID
	}
	return "", nil
}
