package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/immeasurable-vikrant/taskFlow/domain/todo"
	nanoid "github.com/jaevor/go-nanoid"
)

// ErrInvalidInput prefixes every todo validation failure.
var ErrInvalidInput = errors.New("invalid input")

// Field limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	idLength             = 21
)

// Service implements todo operations. Every operation is scoped to ownerID,
// which callers take from the authenticated session.
type Service struct {
	repo  Repository
	newID func() string
	now   func() time.Time
}

// NewService creates a Service over repo.
func NewService(repo Repository) (*Service, error) {
	gen, err := nanoid.Standard(idLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	return &Service{
		repo:  repo,
		newID: gen,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create adds a todo for ownerID.
func (s *Service) Create(ctx context.Context, ownerID, title, description string) (*domain.Todo, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	now := s.now()
	todo := &domain.Todo{
		ID:          s.newID(),
		UserID:      ownerID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to save todo: %w", err)
	}
	return todo, nil
}

// List returns a page of the owner's todos. The query is normalized first, so
// out-of-range pagination never fails.
func (s *Service) List(ctx context.Context, q domain.Query) (*domain.Page, error) {
	if q.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	q = q.Normalize()

	todos, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &domain.Page{
		Todos: todos,
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
	}, nil
}

// Update applies the allowed changes to the owner's todo. A todo that does not
// exist and one owned by someone else both yield ErrNotFound.
func (s *Service) Update(ctx context.Context, ownerID, id string, changes domain.Changes) (*domain.Todo, error) {
	if ownerID == "" || id == "" {
		return nil, ErrNotFound
	}

	if changes.Title != nil {
		title := strings.TrimSpace(*changes.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		changes.Title = &title
	}
	if changes.Description != nil {
		if err := validateDescription(*changes.Description); err != nil {
			return nil, err
		}
	}

	if changes.Empty() {
		return s.repo.FindByID(ctx, id, ownerID)
	}
	return s.repo.Update(ctx, id, ownerID, changes, s.now())
}

// Delete removes the owner's todo.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" || id == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id, ownerID)
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, MaxTitleLength)
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, MaxDescriptionLength)
	}
	return nil
}
