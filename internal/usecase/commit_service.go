package usecase

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/macrolens/mealdraft/internal/domain"
	"github.com/macrolens/mealdraft/internal/mealdraft"
)

const maxConcurrentEnsures = 4

// CommitResult reports what a commit wrote to the diary. Progress carries the same writes
// keyed by draft item index, and is set even when the commit fails part way.
type CommitResult struct {
	Created  []domain.LogEntry        `json:"created"`
	Updated  []domain.LogEntry        `json:"updated"`
	Deleted  []string                 `json:"deleted"`
	Progress mealdraft.CommitProgress `json:"-"`
}

// CommitService translates a confirmed draft into diary writes. Diaries implementing
// domain.MealCommitter get the whole meal in one transaction. Other diaries are written call
// by call and a failure is reported with the progress made, so the session can retry
// without repeating it.
type CommitService struct {
	catalogue domain.CatalogueClient
	diary     domain.DiaryRepository
}

// NewCommitService creates a new commit service
func NewCommitService(catalogue domain.CatalogueClient, diary domain.DiaryRepository) *CommitService {
	return &CommitService{catalogue: catalogue, diary: diary}
}

// Commit persists a confirmed draft. Items without a product ID are first created in the
// catalogue. Then items carrying an entry ID are updated, removed entries are deleted and
// the remaining items are created, in one bulk request for multi-item voice drafts.
func (s *CommitService) Commit(ctx context.Context, conf *mealdraft.Confirmation) (*CommitResult, error) {
	if conf == nil || conf.Draft == nil {
		return nil, fmt.Errorf("%w: nothing to commit", domain.ErrInvalidRequest)
	}
	draft := conf.Draft
	result := &CommitResult{Progress: mealdraft.CommitProgress{
		ProductIDs: make(map[int]string),
		EntryIDs:   make(map[int]string),
	}}

	if err := s.resolveProducts(ctx, draft.Items, result.Progress.ProductIDs); err != nil {
		return result, err
	}

	var err error
	if committer, ok := s.diary.(domain.MealCommitter); ok {
		err = s.commitMeal(ctx, committer, conf, result)
	} else {
		err = s.commitEach(ctx, conf, result)
	}
	if err != nil {
		return result, err
	}

	log.Printf("[Diary] Committed %s %s: %d created, %d updated, %d deleted",
		draft.Date, draft.MealType, len(result.Created), len(result.Updated), len(result.Deleted))
	return result, nil
}

// commitMeal hands the whole meal to a transactional diary
func (s *CommitService) commitMeal(ctx context.Context, committer domain.MealCommitter, conf *mealdraft.Confirmation, result *CommitResult) error {
	draft := conf.Draft
	req := &domain.MealCommit{
		Date:     draft.Date,
		MealType: draft.MealType,
		Deletes:  conf.RemovedEntryIDs,
	}
	var fresh []int
	for i, item := range draft.Items {
		req.Products = append(req.Products, productSnapshot(item))
		if item.EntryID != nil {
			req.Updates = append(req.Updates, domain.EntryUpdate{EntryID: *item.EntryID, Item: commitItem(item)})
			continue
		}
		req.Creates = append(req.Creates, commitItem(item))
		fresh = append(fresh, i)
	}

	written, err := committer.CommitMeal(ctx, req)
	if err != nil {
		return fmt.Errorf("commit meal: %w", err)
	}
	result.Created = written.Created
	result.Updated = written.Updated
	result.Deleted = written.Deleted
	for n, entry := range written.Created {
		if n < len(fresh) {
			result.Progress.EntryIDs[fresh[n]] = entry.ID
		}
	}
	result.Progress.Deleted = written.Deleted
	return nil
}

// commitEach writes the meal entry by entry, recording each write in result.Progress
func (s *CommitService) commitEach(ctx context.Context, conf *mealdraft.Confirmation, result *CommitResult) error {
	draft := conf.Draft
	if err := s.recordProducts(ctx, draft.Items); err != nil {
		return err
	}

	var fresh []int
	for i, item := range draft.Items {
		if item.EntryID == nil {
			fresh = append(fresh, i)
			continue
		}
		entry, err := s.diary.UpdateEntry(ctx, *item.EntryID, commitItem(item).Single(draft.Date, draft.MealType))
		if err != nil {
			return fmt.Errorf("update entry %s: %w", *item.EntryID, err)
		}
		result.Updated = append(result.Updated, *entry)
	}

	for _, id := range conf.RemovedEntryIDs {
		if err := s.diary.DeleteEntry(ctx, id); err != nil {
			return fmt.Errorf("delete entry %s: %w", id, err)
		}
		result.Deleted = append(result.Deleted, id)
		result.Progress.Deleted = append(result.Progress.Deleted, id)
	}

	return s.create(ctx, draft, fresh, result)
}

func (s *CommitService) create(ctx context.Context, draft *domain.MealDraft, fresh []int, result *CommitResult) error {
	if len(fresh) == 0 {
		return nil
	}

	if draft.Source == domain.DraftSourceVoice && len(fresh) > 1 {
		items := make([]domain.CommitItem, 0, len(fresh))
		for _, i := range fresh {
			items = append(items, commitItem(draft.Items[i]))
		}
		entries, err := s.diary.CreateEntries(ctx, &domain.BulkCommitRequest{
			Date:     draft.Date,
			MealType: draft.MealType,
			Items:    items,
		})
		if err != nil {
			return fmt.Errorf("create entries: %w", err)
		}
		for n, entry := range entries {
			if n < len(fresh) {
				result.Progress.EntryIDs[fresh[n]] = entry.ID
			}
		}
		result.Created = append(result.Created, entries...)
		return nil
	}

	for _, i := range fresh {
		item := commitItem(draft.Items[i])
		entry, err := s.diary.CreateEntry(ctx, item.Single(draft.Date, draft.MealType))
		if err != nil {
			return fmt.Errorf("create entry for product %s: %w", item.ProductID, err)
		}
		result.Progress.EntryIDs[i] = entry.ID
		result.Created = append(result.Created, *entry)
	}
	return nil
}

// resolveProducts fills in missing product IDs through the catalogue, concurrently.
// items is modified in place and every resolved ID is also stored in resolved by index.
func (s *CommitService) resolveProducts(ctx context.Context, items []domain.MealDraftItem, resolved map[int]string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentEnsures)
	var mu sync.Mutex

	for i := range items {
		if items[i].ProductID != nil && *items[i].ProductID != "" {
			continue
		}
		i := i
		item := &items[i]
		g.Go(func() error {
			id, err := s.catalogue.EnsureProduct(gctx, &domain.EnsureProductRequest{
				Name:      item.Name,
				Brand:     item.Brand,
				Nutrition: domain.NutritionFromRate(item.Reference),
				Units:     item.Units,
			})
			if err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrUnresolvedProduct, item.Name, err)
			}
			log.Printf("[Catalogue] Resolved %q to product %s", item.Name, id)
			item.ProductID = &id
			mu.Lock()
			resolved[i] = id
			mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// recordProducts hands product snapshots to diaries that keep their own copy
func (s *CommitService) recordProducts(ctx context.Context, items []domain.MealDraftItem) error {
	recorder, ok := s.diary.(domain.ProductRecorder)
	if !ok {
		return nil
	}
	for _, item := range items {
		if err := recorder.RecordProduct(ctx, productSnapshot(item)); err != nil {
			return fmt.Errorf("record product %s: %w", *item.ProductID, err)
		}
	}
	return nil
}

func productSnapshot(item domain.MealDraftItem) domain.ProductSnapshot {
	return domain.ProductSnapshot{
		ID:        *item.ProductID,
		Name:      item.Name,
		Brand:     item.Brand,
		Nutrition: domain.NutritionFromRate(item.Reference),
		Units:     item.Units,
	}
}

// commitItem converts a resolved draft item. Unit fields are set only for non-gram units.
func commitItem(item domain.MealDraftItem) domain.CommitItem {
	ci := domain.CommitItem{
		ProductID:   *item.ProductID,
		AmountGrams: math.Round(item.QuantityGrams*100) / 100,
	}
	if unit := mealdraft.ItemUnit(item); unit != nil {
		label, grams, qty := unit.Label, unit.Grams, item.QuantityUnitValue
		ci.UnitLabel = &label
		ci.UnitGrams = &grams
		ci.UnitQuantity = &qty
	}
	return ci
}
