package models

import (
	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"gorm.io/gorm"
)

// Place and Activity are managed elsewhere. Bookings only read their title,
// location and price.

type Place struct {
	ID        uuid.UUID `gorm:"primarykey;type:uuid" json:"id"`
	Title     string    `json:"title"`
	City      string    `json:"city,omitempty"`
	Location  string    `json:"location,omitempty"`
	Price     float64   `json:"price,omitempty"`
	BasePrice float64   `json:"base_price,omitempty"`

	types.Timestamps
}

func (p *Place) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Place) AsItem() *types.BookableItem {
	return &types.BookableItem{
		ID:        p.ID.String(),
		Kind:      types.ITEM_PLACE,
		Title:     p.Title,
		City:      p.City,
		Location:  p.Location,
		Price:     p.Price,
		BasePrice: p.BasePrice,
	}
}

type Activity struct {
	ID        uuid.UUID  `gorm:"primarykey;type:uuid" json:"id"`
	PlaceID   *uuid.UUID `gorm:"type:uuid;index" json:"place_id,omitempty"`
	Title     string     `json:"title"`
	City      string     `json:"city,omitempty"`
	Location  string     `json:"location,omitempty"`
	Price     float64    `json:"price,omitempty"`
	BasePrice float64    `json:"base_price,omitempty"`

	types.Timestamps
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Activity) AsItem() *types.BookableItem {
	return &types.BookableItem{
		ID:        a.ID.String(),
		Kind:      types.ITEM_ACTIVITY,
		Title:     a.Title,
		City:      a.City,
		Location:  a.Location,
		Price:     a.Price,
		BasePrice: a.BasePrice,
	}
}
