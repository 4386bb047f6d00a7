package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/immeasurable-vikrant/taskFlow/domain/todo"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a todo does not exist or belongs to another user.
// The two cases are indistinguishable to callers.
var ErrNotFound = errors.New("todo not found or unauthorized")

// Repository persists todos. Every method except Create is scoped by owner.
type Repository interface {
	Migrate(ctx context.Context) error
	Create(ctx context.Context, todo *domain.Todo) error
	FindByID(ctx context.Context, id, ownerID string) (*domain.Todo, error)
	// List expects a normalized query.
	List(ctx context.Context, q domain.Query) ([]domain.Todo, int64, error)
	Update(ctx context.Context, id, ownerID string, changes domain.Changes, now time.Time) (*domain.Todo, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// GormRepository handles todo persistence using GORM.
type GormRepository struct {
	db *gorm.DB
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository creates a new GormRepository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates the todos table and the owner/createdAt index, then fills
// search_text for rows written before the column existed.
func (r *GormRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&domain.Todo{}); err != nil {
		return err
	}

	var stale []domain.Todo
	result := r.db.WithContext(ctx).
		Where("search_text = ?", "").
		FindInBatches(&stale, 200, func(_ *gorm.DB, _ int) error {
			for _, t := range stale {
				err := r.db.WithContext(ctx).
					Model(&domain.Todo{}).
					Where("id = ?", t.ID).
					Update("search_text", domain.SearchTextFor(t.Title, t.Description)).Error
				if err != nil {
					return err
				}
			}
			return nil
		})
	if result.Error != nil {
		return fmt.Errorf("failed to backfill search text: %w", result.Error)
	}
	return nil
}

// Create inserts a todo.
func (r *GormRepository) Create(ctx context.Context, todo *domain.Todo) error {
	todo.SearchText = domain.SearchTextFor(todo.Title, todo.Description)
	return r.db.WithContext(ctx).Create(todo).Error
}

// FindByID returns the owner's todo with the given ID.
func (r *GormRepository) FindByID(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	var todo domain.Todo
	result := r.db.WithContext(ctx).First(&todo, "id = ? AND user_id = ?", id, ownerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &todo, nil
}

// List returns one page of the owner's matching todos and the total match count.
func (r *GormRepository) List(ctx context.Context, q domain.Query) ([]domain.Todo, int64, error) {
	filter := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("user_id = ?", q.OwnerID)
		if completed := q.CompletedFilter(); completed != nil {
			tx = tx.Where("completed = ?", *completed)
		}
		if q.Search != "" {
			pattern := "%" + escapeLike(domain.FoldSearch(q.Search)) + "%"
			tx = tx.Where(`search_text LIKE ? ESCAPE '\'`, pattern)
		}
		return tx
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Todo{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count todos: %w", err)
	}

	todos := make([]domain.Todo, 0, q.Limit)
	if total == 0 {
		return todos, 0, nil
	}

	dir := "DESC"
	if q.SortOrder == domain.SortAsc {
		dir = "ASC"
	}
	order := fmt.Sprintf("%s %s, id %s", sortColumns[q.SortBy], dir, dir)

	err := r.db.WithContext(ctx).
		Model(&domain.Todo{}).
		Scopes(filter).
		Order(order).
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&todos).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, total, nil
}

// Update applies changes to the owner's todo and returns the stored result.
// The read and the write share a transaction so search_text follows the
// merged title and description.
func (r *GormRepository) Update(ctx context.Context, id, ownerID string, changes domain.Changes, now time.Time) (*domain.Todo, error) {
	var todo domain.Todo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&todo, "id = ? AND user_id = ?", id, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		changes.Apply(&todo)
		todo.UpdatedAt = now
		todo.SearchText = domain.SearchTextFor(todo.Title, todo.Description)

		updates := map[string]any{
			"updated_at":  todo.UpdatedAt,
			"search_text": todo.SearchText,
		}
		if changes.Title != nil {
			updates["title"] = todo.Title
		}
		if changes.Description != nil {
			updates["description"] = todo.Description
		}
		if changes.Completed != nil {
			updates["completed"] = todo.Completed
		}

		return tx.Model(&domain.Todo{}).
			Where("id = ? AND user_id = ?", id, ownerID).
			Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return &todo, nil
}

// Delete removes the owner's todo.
func (r *GormRepository) Delete(ctx context.Context, id, ownerID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&domain.Todo{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete todo: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var sortColumns = map[domain.SortField]string{
	domain.SortByCreatedAt: "created_at",
	domain.SortByUpdatedAt: "updated_at",
	domain.SortByTitle:     "title",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
