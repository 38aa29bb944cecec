package repository

import (
	"context"

	"fashion-ai-studio/internal/domain/model"
)

type AssetRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Asset) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Asset, error)
	// FindByIDForUser returns domain.ErrNotFound for assets owned by others.
	FindByIDForUser(ctx context.Context, tx Tx, id, userID string) (*model.Asset, error)
	FindByIDs(ctx context.Context, tx Tx, ids []string) ([]*model.Asset, error)
}
