package diary

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "diary.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestSQLiteStore_CreateAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordProduct(ctx, domain.ProductSnapshot{
		ID:        "apple",
		Name:      "Apple",
		Nutrition: domain.ProductNutrition{CaloriesPer100g: 52, ProteinPer100g: 0.3, FatPer100g: 0.2, CarbsPer100g: 14},
		Units:     []domain.UnitInfo{{Label: "piece", Grams: 180}},
	}))

	entry, err := store.CreateEntry(ctx, &domain.CommitRequest{
		Date:         "2026-03-14",
		MealType:     "breakfast",
		ProductID:    "apple",
		AmountGrams:  360,
		UnitLabel:    strPtr("piece"),
		UnitGrams:    floatPtr(180),
		UnitQuantity: floatPtr(2),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "Apple", entry.Product.Name)
	require.NotNil(t, entry.UnitLabel)
	assert.Equal(t, "piece", *entry.UnitLabel)
	assert.Equal(t, 2.0, *entry.UnitQuantity)
	assert.False(t, entry.CreatedAt.IsZero())

	_, err = store.CreateEntry(ctx, &domain.CommitRequest{
		Date: "2026-03-14", MealType: "lunch", ProductID: "apple", AmountGrams: 100,
	})
	require.NoError(t, err)

	entries, err := store.ListEntries(ctx, "2026-03-14", "breakfast")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, 52.0, entries[0].Product.Nutrition.CaloriesPer100g)
	assert.Equal(t, []domain.UnitInfo{{Label: "piece", Grams: 180}}, entries[0].Product.Units)
}

func TestSQLiteStore_EntryWithoutRecordedProduct(t *testing.T) {
	store := newTestStore(t)

	entry, err := store.CreateEntry(context.Background(), &domain.CommitRequest{
		Date: "2026-03-14", MealType: "snack", ProductID: "remote-1", AmountGrams: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "remote-1", entry.Product.ID)
	assert.Empty(t, entry.Product.Name)
	assert.Nil(t, entry.Product.Units)
	assert.Nil(t, entry.UnitLabel)
}

func TestSQLiteStore_CreateEntries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries, err := store.CreateEntries(ctx, &domain.BulkCommitRequest{
		Date:     "2026-03-14",
		MealType: "dinner",
		Items: []domain.CommitItem{
			{ProductID: "rice", AmountGrams: 150},
			{ProductID: "chicken", AmountGrams: 200},
		},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "rice", entries[0].ProductID)
	assert.Equal(t, "chicken", entries[1].ProductID)

	listed, err := store.ListEntries(ctx, "2026-03-14", "dinner")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestSQLiteStore_CreateEntries_RejectsUnresolvedProduct(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateEntries(ctx, &domain.BulkCommitRequest{
		Date:     "2026-03-14",
		MealType: "dinner",
		Items: []domain.CommitItem{
			{ProductID: "rice", AmountGrams: 150},
			{ProductID: "", AmountGrams: 200},
		},
	})
	assert.ErrorIs(t, err, domain.ErrUnresolvedProduct)

	listed, err := store.ListEntries(ctx, "2026-03-14", "dinner")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSQLiteStore_UpdateAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry, err := store.CreateEntry(ctx, &domain.CommitRequest{
		Date: "2026-03-14", MealType: "lunch", ProductID: "soup", AmountGrams: 250,
		UnitLabel: strPtr("bowl"), UnitGrams: floatPtr(250), UnitQuantity: floatPtr(1),
	})
	require.NoError(t, err)

	updated, err := store.UpdateEntry(ctx, entry.ID, &domain.CommitRequest{
		Date: "2026-03-14", MealType: "dinner", ProductID: "soup", AmountGrams: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, "dinner", updated.MealType)
	assert.Equal(t, 300.0, updated.AmountGrams)
	assert.Nil(t, updated.UnitLabel)

	_, err = store.UpdateEntry(ctx, "missing", &domain.CommitRequest{
		Date: "2026-03-14", MealType: "dinner", ProductID: "soup", AmountGrams: 1,
	})
	assert.ErrorIs(t, err, domain.ErrDiaryCommitFailure)

	require.NoError(t, store.DeleteEntry(ctx, entry.ID))
	require.NoError(t, store.DeleteEntry(ctx, entry.ID))

	listed, err := store.ListEntries(ctx, "2026-03-14", "dinner")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSQLiteStore_RecordProductUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordProduct(ctx, domain.ProductSnapshot{ID: "p", Name: "Old"}))
	require.NoError(t, store.RecordProduct(ctx, domain.ProductSnapshot{ID: "p", Name: "New", Brand: "B"}))

	entry, err := store.CreateEntry(ctx, &domain.CommitRequest{
		Date: "2026-03-14", MealType: "snack", ProductID: "p", AmountGrams: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "New", entry.Product.Name)
	assert.Equal(t, "B", entry.Product.Brand)

	assert.ErrorIs(t, store.RecordProduct(ctx, domain.ProductSnapshot{}), domain.ErrInvalidRequest)
}

func TestSQLiteStore_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     domain.CommitRequest
		wantErr error
	}{
		{"missing date", domain.CommitRequest{MealType: "lunch", ProductID: "p"}, domain.ErrInvalidRequest},
		{"missing meal", domain.CommitRequest{Date: "2026-03-14", ProductID: "p"}, domain.ErrInvalidRequest},
		{"missing product", domain.CommitRequest{Date: "2026-03-14", MealType: "lunch"}, domain.ErrUnresolvedProduct},
		{"negative amount", domain.CommitRequest{Date: "2026-03-14", MealType: "lunch", ProductID: "p", AmountGrams: -1}, domain.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := store.CreateEntry(ctx, &req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSQLiteStore_CommitMeal(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, store *SQLiteStore) (kept, dropped string) {
		t.Helper()
		a, err := store.CreateEntry(ctx, &domain.CommitRequest{Date: "2026-03-14", MealType: "dinner", ProductID: "rice", AmountGrams: 150})
		require.NoError(t, err)
		b, err := store.CreateEntry(ctx, &domain.CommitRequest{Date: "2026-03-14", MealType: "dinner", ProductID: "soup", AmountGrams: 250})
		require.NoError(t, err)
		return a.ID, b.ID
	}

	t.Run("writes the whole meal", func(t *testing.T) {
		store := newTestStore(t)
		kept, dropped := seed(t, store)

		result, err := store.CommitMeal(ctx, &domain.MealCommit{
			Date:     "2026-03-14",
			MealType: "dinner",
			Products: []domain.ProductSnapshot{{ID: "salad", Name: "Salad"}},
			Updates:  []domain.EntryUpdate{{EntryID: kept, Item: domain.CommitItem{ProductID: "rice", AmountGrams: 200}}},
			Deletes:  []string{dropped, "already-gone"},
			Creates:  []domain.CommitItem{{ProductID: "salad", AmountGrams: 80}},
		})
		require.NoError(t, err)
		require.Len(t, result.Created, 1)
		assert.Equal(t, "Salad", result.Created[0].Product.Name)
		require.Len(t, result.Updated, 1)
		assert.Equal(t, 200.0, result.Updated[0].AmountGrams)

		listed, err := store.ListEntries(ctx, "2026-03-14", "dinner")
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, kept, listed[0].ID)
		assert.Equal(t, "salad", listed[1].ProductID)
	})

	t.Run("a failing step writes nothing", func(t *testing.T) {
		store := newTestStore(t)
		kept, dropped := seed(t, store)

		_, err := store.CommitMeal(ctx, &domain.MealCommit{
			Date:     "2026-03-14",
			MealType: "dinner",
			Updates: []domain.EntryUpdate{
				{EntryID: kept, Item: domain.CommitItem{ProductID: "rice", AmountGrams: 200}},
				{EntryID: "missing", Item: domain.CommitItem{ProductID: "rice", AmountGrams: 1}},
			},
			Deletes: []string{dropped},
			Creates: []domain.CommitItem{{ProductID: "salad", AmountGrams: 80}},
		})
		assert.ErrorIs(t, err, domain.ErrDiaryCommitFailure)

		listed, err := store.ListEntries(ctx, "2026-03-14", "dinner")
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, 150.0, listed[0].AmountGrams)
		assert.Equal(t, dropped, listed[1].ID)
	})

	t.Run("rejects an empty meal", func(t *testing.T) {
		_, err := newTestStore(t).CommitMeal(ctx, &domain.MealCommit{Date: "2026-03-14", MealType: "dinner"})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("rejects unresolved products before writing", func(t *testing.T) {
		store := newTestStore(t)
		_, err := store.CommitMeal(ctx, &domain.MealCommit{
			Date:     "2026-03-14",
			MealType: "dinner",
			Creates:  []domain.CommitItem{{ProductID: "salad", AmountGrams: 80}, {AmountGrams: 10}},
		})
		assert.ErrorIs(t, err, domain.ErrUnresolvedProduct)

		listed, err := store.ListEntries(ctx, "2026-03-14", "dinner")
		require.NoError(t, err)
		assert.Empty(t, listed)
	})
}
