package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are stored JSON-encoded; Get returns the encoded bytes.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogueClient defines the interface for the remote food catalogue
type CatalogueClient interface {
	SearchProducts(ctx context.Context, query string) ([]CatalogueProduct, error)
	GetProduct(ctx context.Context, id string) (*CatalogueProduct, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*CatalogueProduct, error)
	EnsureProduct(ctx context.Context, req *EnsureProductRequest) (string, error)
}

// TranscriptionClient defines the interface for the voice/photo capture service
type TranscriptionClient interface {
	TranscribeVoice(ctx context.Context, req *CaptureRequest) (*CaptureResult, error)
	AnalyzePhoto(ctx context.Context, req *CaptureRequest) (*CaptureResult, error)
}

// DiaryRepository defines the interface for persisting diary entries
type DiaryRepository interface {
	CreateEntry(ctx context.Context, req *CommitRequest) (*LogEntry, error)
	CreateEntries(ctx context.Context, req *BulkCommitRequest) ([]LogEntry, error)
	UpdateEntry(ctx context.Context, entryID string, req *CommitRequest) (*LogEntry, error)
	DeleteEntry(ctx context.Context, entryID string) error
	ListEntries(ctx context.Context, date, mealType string) ([]LogEntry, error)
}

// MealCommitter is implemented by diary backends that can write a whole meal in one
// transaction (the local SQLite diary). Either every write of the meal lands or none does.
type MealCommitter interface {
	CommitMeal(ctx context.Context, req *MealCommit) (*MealCommitResult, error)
}

// ProductRecorder is implemented by diary backends that keep their own product snapshots
// (the local SQLite diary). Commit records each product before writing entries for it.
type ProductRecorder interface {
	RecordProduct(ctx context.Context, product ProductSnapshot) error
}
