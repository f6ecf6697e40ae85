package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/models/scopes"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"gorm.io/gorm"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) FindItem(ctx context.Context, kind types.ItemKind, id uuid.UUID) (*types.BookableItem, error) {
	var (
		item *types.BookableItem
		err  error
	)
	switch kind {
	case types.ITEM_ACTIVITY:
		var activity models.Activity
		err = r.db.WithContext(ctx).Scopes(scopes.WithID(id)).First(&activity).Error
		item = activity.AsItem()
	case types.ITEM_PLACE:
		var place models.Place
		err = r.db.WithContext(ctx).Scopes(scopes.WithID(id)).First(&place).Error
		item = place.AsItem()
	default:
		return nil, types.ValidationErr(fmt.Sprintf("unknown item kind: %s", kind))
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NotFoundErr(fmt.Sprintf("%s not found", kind))
	}
	if err != nil {
		return nil, types.InternalErr(err)
	}
	return item, nil
}
