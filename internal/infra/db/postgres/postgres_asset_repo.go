package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
	"fashion-ai-studio/internal/domain/ports/repository"
)

var _ repository.AssetRepository = (*assetRepo)(nil)

type assetRepo struct{ pool *pgxpool.Pool }

func NewAssetRepo(pool *pgxpool.Pool) *assetRepo {
	return &assetRepo{pool: pool}
}

const assetColumns = `id, user_id, job_id, asset_type, bucket_name, storage_path, file_name, metadata, created_at`

func (r *assetRepo) Save(ctx context.Context, tx repository.Tx, a *model.Asset) error {
	const q = `
INSERT INTO assets (id, user_id, job_id, asset_type, bucket_name, storage_path, file_name, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`
	_, err := execSQL(ctx, r.pool, tx, q,
		a.ID, a.UserID, a.JobID, a.AssetType, a.BucketName, a.StoragePath, a.FileName, a.Metadata, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *assetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Asset, error) {
	q := `SELECT ` + assetColumns + ` FROM assets WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanAsset(row)
}

func (r *assetRepo) FindByIDForUser(ctx context.Context, tx repository.Tx, id, userID string) (*model.Asset, error) {
	q := `SELECT ` + assetColumns + ` FROM assets WHERE id=$1 AND user_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, id, userID)
	if err != nil {
		return nil, err
	}
	return scanAsset(row)
}

func (r *assetRepo) FindByIDs(ctx context.Context, tx repository.Tx, ids []string) ([]*model.Asset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + assetColumns + ` FROM assets WHERE id = ANY($1);`
	rows, err := pickRows(ctx, r.pool, tx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAsset(row pgx.Row) (*model.Asset, error) {
	a := &model.Asset{}
	var assetType string
	err := row.Scan(&a.ID, &a.UserID, &a.JobID, &assetType, &a.BucketName, &a.StoragePath, &a.FileName, &a.Metadata, &a.CreatedAt)
	if err != nil {
		return nil, scanErr(err)
	}
	a.AssetType = model.AssetType(assetType)
	return a, nil
}
