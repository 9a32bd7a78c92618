package diary

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/macrolens/mealdraft/internal/domain"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const (
	entriesTable  = "diary_entries"
	productsTable = "products"
	timeLayout    = time.RFC3339Nano
)

var entryColumns = []string{
	"e.id", "e.entry_date", "e.meal_type", "e.product_id", "e.amount_grams",
	"e.unit_label", "e.unit_grams", "e.unit_quantity", "e.created_at", "e.updated_at",
	"COALESCE(p.name, '')", "COALESCE(p.brand, '')",
	"COALESCE(p.calories_per_100g, 0)", "COALESCE(p.protein_per_100g, 0)",
	"COALESCE(p.fat_per_100g, 0)", "COALESCE(p.carbs_per_100g, 0)",
	"COALESCE(p.units, '[]')",
}

// SQLiteStore is a local single-user diary. It keeps a snapshot of every committed
// product so listed entries carry their nutrition without a catalogue round trip.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens the database at path and applies pending migrations.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[Diary] SQLite store ready at %s", path)
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		log.Printf("[Diary] Applied migration %s", r.Source.Path)
	}
	return nil
}

// Close releases the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordProduct upserts the product snapshot used by later entries
func (s *SQLiteStore) RecordProduct(ctx context.Context, product domain.ProductSnapshot) error {
	return s.recordProduct(ctx, s.db, product)
}

func (s *SQLiteStore) recordProduct(ctx context.Context, db execer, product domain.ProductSnapshot) error {
	if product.ID == "" {
		return fmt.Errorf("%w: product id is required", domain.ErrInvalidRequest)
	}
	units, err := json.Marshal(nonNilUnits(product.Units))
	if err != nil {
		return fmt.Errorf("failed to encode units: %w", err)
	}

	query, args, err := sq.Insert(productsTable).
		Columns("id", "name", "brand", "calories_per_100g", "protein_per_100g",
			"fat_per_100g", "carbs_per_100g", "units", "updated_at").
		Values(product.ID, product.Name, product.Brand,
			product.Nutrition.CaloriesPer100g, product.Nutrition.ProteinPer100g,
			product.Nutrition.FatPer100g, product.Nutrition.CarbsPer100g,
			string(units), s.now().UTC().Format(timeLayout)).
		Suffix(`ON CONFLICT(id) DO UPDATE SET name = excluded.name, brand = excluded.brand,
			calories_per_100g = excluded.calories_per_100g, protein_per_100g = excluded.protein_per_100g,
			fat_per_100g = excluded.fat_per_100g, carbs_per_100g = excluded.carbs_per_100g,
			units = excluded.units, updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDiaryCommitFailure, err)
	}
	return nil
}

// CreateEntry writes one diary entry
func (s *SQLiteStore) CreateEntry(ctx context.Context, req *domain.CommitRequest) (*domain.LogEntry, error) {
	if err := validateCommit(req.Date, req.MealType, req.ProductID, req.AmountGrams); err != nil {
		return nil, err
	}
	id, err := s.insert(ctx, s.db, req)
	if err != nil {
		return nil, err
	}
	return s.getEntry(ctx, id)
}

// CreateEntries writes all items of one meal in a single transaction
func (s *SQLiteStore) CreateEntries(ctx context.Context, req *domain.BulkCommitRequest) ([]domain.LogEntry, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: no items", domain.ErrInvalidRequest)
	}
	for _, item := range req.Items {
		if err := validateCommit(req.Date, req.MealType, item.ProductID, item.AmountGrams); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start transaction: %v", domain.ErrDiaryCommitFailure, err)
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		id, err := s.insert(ctx, tx, item.Single(req.Date, req.MealType))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDiaryCommitFailure, err)
	}

	entries := make([]domain.LogEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.getEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	log.Printf("[Diary] Created %d entries for %s %s", len(entries), req.Date, req.MealType)
	return entries, nil
}

// UpdateEntry replaces the quantity, unit and meal of an existing entry
func (s *SQLiteStore) UpdateEntry(ctx context.Context, entryID string, req *domain.CommitRequest) (*domain.LogEntry, error) {
	if err := validateCommit(req.Date, req.MealType, req.ProductID, req.AmountGrams); err != nil {
		return nil, err
	}
	if err := s.update(ctx, s.db, entryID, req); err != nil {
		return nil, err
	}
	return s.getEntry(ctx, entryID)
}

// DeleteEntry removes an entry. Deleting a missing entry is not an error.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, entryID string) error {
	return s.remove(ctx, s.db, entryID)
}

// CommitMeal applies the product snapshots, updates, deletes and creates of one meal in a
// single transaction. Nothing is written when any step fails.
func (s *SQLiteStore) CommitMeal(ctx context.Context, req *domain.MealCommit) (*domain.MealCommitResult, error) {
	if req == nil || len(req.Updates)+len(req.Deletes)+len(req.Creates) == 0 {
		return nil, fmt.Errorf("%w: nothing to commit", domain.ErrInvalidRequest)
	}
	for _, u := range req.Updates {
		if err := validateCommit(req.Date, req.MealType, u.Item.ProductID, u.Item.AmountGrams); err != nil {
			return nil, err
		}
	}
	for _, item := range req.Creates {
		if err := validateCommit(req.Date, req.MealType, item.ProductID, item.AmountGrams); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start transaction: %v", domain.ErrDiaryCommitFailure, err)
	}
	defer tx.Rollback()

	for _, product := range req.Products {
		if err := s.recordProduct(ctx, tx, product); err != nil {
			return nil, err
		}
	}
	for _, u := range req.Updates {
		if err := s.update(ctx, tx, u.EntryID, u.Item.Single(req.Date, req.MealType)); err != nil {
			return nil, err
		}
	}
	for _, id := range req.Deletes {
		if err := s.remove(ctx, tx, id); err != nil {
			return nil, err
		}
	}
	created := make([]string, 0, len(req.Creates))
	for _, item := range req.Creates {
		id, err := s.insert(ctx, tx, item.Single(req.Date, req.MealType))
		if err != nil {
			return nil, err
		}
		created = append(created, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDiaryCommitFailure, err)
	}

	result := &domain.MealCommitResult{Deleted: req.Deletes}
	for _, id := range created {
		entry, err := s.getEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		result.Created = append(result.Created, *entry)
	}
	for _, u := range req.Updates {
		entry, err := s.getEntry(ctx, u.EntryID)
		if err != nil {
			return nil, err
		}
		result.Updated = append(result.Updated, *entry)
	}
	log.Printf("[Diary] Committed meal %s %s in one transaction", req.Date, req.MealType)
	return result, nil
}

// ListEntries returns the entries of one meal on one date, oldest first
func (s *SQLiteStore) ListEntries(ctx context.Context, date, mealType string) ([]domain.LogEntry, error) {
	query, args, err := selectEntries().
		Where(sq.Eq{"e.entry_date": date, "e.meal_type": mealType}).
		OrderBy("e.created_at ASC", "e.rowid ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *SQLiteStore) insert(ctx context.Context, db execer, req *domain.CommitRequest) (string, error) {
	id := uuid.NewString()
	now := s.now().UTC().Format(timeLayout)

	query, args, err := sq.Insert(entriesTable).
		Columns("id", "entry_date", "meal_type", "product_id", "amount_grams",
			"unit_label", "unit_grams", "unit_quantity", "created_at", "updated_at").
		Values(id, req.Date, req.MealType, req.ProductID, req.AmountGrams,
			nullString(req.UnitLabel), nullFloat(req.UnitGrams), nullFloat(req.UnitQuantity), now, now).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDiaryCommitFailure, err)
	}
	return id, nil
}

func (s *SQLiteStore) update(ctx context.Context, db execer, entryID string, req *domain.CommitRequest) error {
	query, args, err := sq.Update(entriesTable).
		Set("entry_date", req.Date).
		Set("meal_type", req.MealType).
		Set("product_id", req.ProductID).
		Set("amount_grams", req.AmountGrams).
		Set("unit_label", nullString(req.UnitLabel)).
		Set("unit_grams", nullFloat(req.UnitGrams)).
		Set("unit_quantity", nullFloat(req.UnitQuantity)).
		Set("updated_at", s.now().UTC().Format(timeLayout)).
		Where(sq.Eq{"id": entryID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDiaryCommitFailure, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: entry %s not found", domain.ErrDiaryCommitFailure, entryID)
	}
	return nil
}

func (s *SQLiteStore) remove(ctx context.Context, db execer, entryID string) error {
	query, args, err := sq.Delete(entriesTable).Where(sq.Eq{"id": entryID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDiaryCommitFailure, err)
	}
	return nil
}

func (s *SQLiteStore) getEntry(ctx context.Context, id string) (*domain.LogEntry, error) {
	query, args, err := selectEntries().Where(sq.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: entry %s not found", domain.ErrDiaryCommitFailure, id)
	}
	return entry, err
}

func selectEntries() sq.SelectBuilder {
	return sq.Select(entryColumns...).
		From(entriesTable + " e").
		LeftJoin(productsTable + " p ON p.id = e.product_id")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*domain.LogEntry, error) {
	var (
		entry                  domain.LogEntry
		unitLabel              sql.NullString
		unitGrams, unitQty     sql.NullFloat64
		createdAt, updatedAt   string
		units                  string
		nutrition              domain.ProductNutrition
		productName, brandName string
	)
	err := row.Scan(
		&entry.ID, &entry.Date, &entry.MealType, &entry.ProductID, &entry.AmountGrams,
		&unitLabel, &unitGrams, &unitQty, &createdAt, &updatedAt,
		&productName, &brandName,
		&nutrition.CaloriesPer100g, &nutrition.ProteinPer100g,
		&nutrition.FatPer100g, &nutrition.CarbsPer100g,
		&units,
	)
	if err != nil {
		return nil, err
	}

	if unitLabel.Valid {
		entry.UnitLabel = &unitLabel.String
	}
	if unitGrams.Valid {
		entry.UnitGrams = &unitGrams.Float64
	}
	if unitQty.Valid {
		entry.UnitQuantity = &unitQty.Float64
	}
	entry.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	entry.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)

	entry.Product = domain.ProductSnapshot{
		ID:        entry.ProductID,
		Name:      productName,
		Brand:     brandName,
		Nutrition: nutrition,
	}
	if err := json.Unmarshal([]byte(units), &entry.Product.Units); err != nil {
		log.Printf("[Diary] Ignoring malformed units for product %s: %v", entry.ProductID, err)
	}
	if len(entry.Product.Units) == 0 {
		entry.Product.Units = nil
	}
	return &entry, nil
}

func validateCommit(date, mealType, productID string, amountGrams float64) error {
	switch {
	case date == "":
		return fmt.Errorf("%w: date is required", domain.ErrInvalidRequest)
	case mealType == "":
		return fmt.Errorf("%w: meal type is required", domain.ErrInvalidRequest)
	case productID == "":
		return fmt.Errorf("%w: product id is required", domain.ErrUnresolvedProduct)
	case amountGrams < 0:
		return fmt.Errorf("%w: amount must not be negative", domain.ErrInvalidRequest)
	}
	return nil
}

func nonNilUnits(units []domain.UnitInfo) []domain.UnitInfo {
	if units == nil {
		return []domain.UnitInfo{}
	}
	return units
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
