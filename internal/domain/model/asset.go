package model

import (
	"time"

	"github.com/google/uuid"
)

type AssetType string

const (
	AssetTypeInput     AssetType = "input"
	AssetTypeGenerated AssetType = "generated"
)

// Asset references an object in external storage. The bytes themselves never
// pass through the database.
type Asset struct {
	ID          string
	UserID      string
	JobID       *string
	AssetType   AssetType
	BucketName  string
	StoragePath string
	FileName    string
	Metadata    map[string]interface{}
	CreatedAt   time.Time
}

func NewGeneratedAsset(userID, jobID, bucket, path, fileName string, meta map[string]interface{}) *Asset {
	return &Asset{
		ID:          uuid.NewString(),
		UserID:      userID,
		JobID:       &jobID,
		AssetType:   AssetTypeGenerated,
		BucketName:  bucket,
		StoragePath: path,
		FileName:    fileName,
		Metadata:    meta,
		CreatedAt:   time.Now(),
	}
}
