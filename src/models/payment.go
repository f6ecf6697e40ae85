package models

import (
	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"gorm.io/gorm"
)

// Payment is one gateway order attempt. It points back at its Booking only
// through Meta["bookingId"].
type Payment struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid" json:"id"`

	Amount      float64                 `json:"amount"`
	Currency    string                  `json:"currency"`
	Provider    string                  `json:"provider"`
	Status      types.TransactionStatus `gorm:"index;not null" json:"status"`
	ProviderRef string                  `gorm:"uniqueIndex" json:"provider_ref"`
	Meta        types.JSONB             `gorm:"type:jsonb" json:"meta"`

	types.Timestamps
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Payment) BookingID() string {
	return p.Meta.String(types.META_BOOKING_ID)
}

func (p *Payment) IsPaid() bool {
	return p.Status == types.TRANSACTION_PAID
}

// Record sets status and merges entries into the audit trail.
func (p *Payment) Record(status types.TransactionStatus, entries types.JSONB) {
	p.Status = status
	p.Meta = p.Meta.Merge(entries)
}
