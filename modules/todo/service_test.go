package todo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	domain "github.com/immeasurable-vikrant/taskFlow/domain/todo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := NewGormRepository(db).Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// newTestService returns a service whose clock advances one second per call,
// so creation order is reflected in timestamps.
func newTestService(t *testing.T) *Service {
	t.Helper()

	svc, err := NewService(NewGormRepository(setupTestDB(t)))
	require.NoError(t, err)

	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc
}

func mustCreate(t *testing.T, svc *Service, owner, title, description string) *domain.Todo {
	t.Helper()
	todo, err := svc.Create(context.Background(), owner, title, description)
	require.NoError(t, err)
	return todo
}

func ptr[T any](v T) *T { return &v }

func TestService_Create(t *testing.T) {
	svc := newTestService(t)

	todo := mustCreate(t, svc, "alice", "  Buy milk  ", "2 litres")

	assert.Len(t, todo.ID, idLength)
	assert.Equal(t, "alice", todo.UserID)
	assert.Equal(t, "Buy milk", todo.Title)
	assert.Equal(t, "2 litres", todo.Description)
	assert.False(t, todo.Completed)
	assert.False(t, todo.CreatedAt.IsZero())
	assert.Equal(t, todo.CreatedAt, todo.UpdatedAt)
}

func TestService_Create_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		owner       string
		title       string
		description string
		wantInMsg   string
	}{
		{"missing owner", "", "Buy milk", "", "owner is required"},
		{"empty title", "alice", "", "", "title is required"},
		{"blank title", "alice", "   ", "", "title is required"},
		{"long title", "alice", strings.Repeat("t", MaxTitleLength+1), "", "title must be at most"},
		{"long description", "alice", "ok", strings.Repeat("d", MaxDescriptionLength+1), "description must be at most"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.owner, tt.title, tt.description)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantInMsg)
		})
	}
}

func TestService_RoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created := mustCreate(t, svc, "alice", "Write report", "Quarterly numbers, 100% done_ish")

	page, err := svc.List(ctx, domain.Query{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, page.Todos, 1)

	got := page.Todos[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, "Quarterly numbers, 100% done_ish", got.Description)
}

func TestService_OwnerIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	aliceTodo := mustCreate(t, svc, "alice", "Alice task", "")
	mustCreate(t, svc, "bob", "Bob task", "")

	bobPage, err := svc.List(ctx, domain.Query{OwnerID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), bobPage.Total)
	for _, todo := range bobPage.Todos {
		assert.Equal(t, "bob", todo.UserID)
		assert.NotEqual(t, aliceTodo.ID, todo.ID)
	}

	_, err = svc.Update(ctx, "bob", aliceTodo.ID, domain.Changes{Completed: ptr(true)})
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(ctx, "bob", aliceTodo.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Alice's todo is untouched.
	alicePage, err := svc.List(ctx, domain.Query{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, alicePage.Todos, 1)
	assert.False(t, alicePage.Todos[0].Completed)
}

func TestService_List_DefaultNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		mustCreate(t, svc, "alice", fmt.Sprintf("task %d", i), "")
	}

	page, err := svc.List(ctx, domain.Query{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, page.Todos, 3)

	assert.Equal(t, "task 3", page.Todos[0].Title)
	assert.Equal(t, "task 1", page.Todos[2].Title)
	assert.Equal(t, domain.DefaultPage, page.Page)
	assert.Equal(t, domain.DefaultLimit, page.Limit)
}

func TestService_List_SortMonotonic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, title := range []string{"delta", "alpha", "charlie", "bravo", "echo"} {
		mustCreate(t, svc, "alice", title, "")
	}
	// Touch one todo so updatedAt order differs from createdAt order.
	page, err := svc.List(ctx, domain.Query{OwnerID: "alice", SortBy: domain.SortByTitle, SortOrder: domain.SortAsc})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "alice", page.Todos[0].ID, domain.Changes{Completed: ptr(true)})
	require.NoError(t, err)

	tests := []struct {
		sortBy domain.SortField
		order  domain.SortOrder
		key    func(domain.Todo) string
	}{
		{domain.SortByTitle, domain.SortAsc, func(t domain.Todo) string { return t.Title }},
		{domain.SortByTitle, domain.SortDesc, func(t domain.Todo) string { return t.Title }},
		{domain.SortByCreatedAt, domain.SortAsc, func(t domain.Todo) string { return t.CreatedAt.Format(time.RFC3339Nano) }},
		{domain.SortByCreatedAt, domain.SortDesc, func(t domain.Todo) string { return t.CreatedAt.Format(time.RFC3339Nano) }},
		{domain.SortByUpdatedAt, domain.SortAsc, func(t domain.Todo) string { return t.UpdatedAt.Format(time.RFC3339Nano) }},
		{domain.SortByUpdatedAt, domain.SortDesc, func(t domain.Todo) string { return t.UpdatedAt.Format(time.RFC3339Nano) }},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.sortBy, tt.order), func(t *testing.T) {
			page, err := svc.List(ctx, domain.Query{OwnerID: "alice", SortBy: tt.sortBy, SortOrder: tt.order})
			require.NoError(t, err)
			require.Len(t, page.Todos, 5)

			keys := make([]string, len(page.Todos))
			for i, todo := range page.Todos {
				keys[i] = tt.key(todo)
			}
			sorted := sort.SliceIsSorted(keys, func(i, j int) bool {
				if tt.order == domain.SortAsc {
					return keys[i] < keys[j]
				}
				return keys[i] > keys[j]
			})
			assert.True(t, sorted, "keys not in %s order: %v", tt.order, keys)
		})
	}

	updated, err := svc.List(ctx, domain.Query{OwnerID: "alice", SortBy: domain.SortByUpdatedAt, SortOrder: domain.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, "alpha", updated.Todos[0].Title)
}

func TestService_List_PaginationConcatenation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 23; i++ {
		mustCreate(t, svc, "alice", fmt.Sprintf("task %02d", i), "")
	}
	mustCreate(t, svc, "bob", "not mine", "")

	full, err := svc.List(ctx, domain.Query{OwnerID: "alice", Limit: domain.MaxLimit})
	require.NoError(t, err)
	require.Len(t, full.Todos, 23)

	var concatenated []string
	for page := 1; page <= 5; page++ {
		p, err := svc.List(ctx, domain.Query{OwnerID: "alice", Page: page, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(23), p.Total, "total must not change across pages")
		for _, todo := range p.Todos {
			concatenated = append(concatenated, todo.ID)
		}
	}

	want := make([]string, len(full.Todos))
	for i, todo := range full.Todos {
		want[i] = todo.ID
	}
	assert.Equal(t, want, concatenated)

	beyond, err := svc.List(ctx, domain.Query{OwnerID: "alice", Page: 9, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, beyond.Todos)
	assert.NotNil(t, beyond.Todos)
	assert.Equal(t, int64(23), beyond.Total)
}

func TestService_List_LimitClamped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		mustCreate(t, svc, "alice", fmt.Sprintf("task %02d", i), "")
	}

	page, err := svc.List(ctx, domain.Query{OwnerID: "alice", Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 50, page.Limit)
	assert.Len(t, page.Todos, 50)
	assert.Equal(t, int64(60), page.Total)
}

func TestService_List_StatusAndSearch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	milk := mustCreate(t, svc, "alice", "Buy milk", "")
	mustCreate(t, svc, "alice", "Call mom", "about the MILKshake recipe")
	mustCreate(t, svc, "alice", "Pay rent", "100% due")
	mustCreate(t, svc, "alice", "Pay_bills", "")
	_, err := svc.Update(ctx, "alice", milk.ID, domain.Changes{Completed: ptr(true)})
	require.NoError(t, err)

	tests := []struct {
		name      string
		query     domain.Query
		wantTotal int64
	}{
		{"all", domain.Query{Status: domain.StatusAll}, 4},
		{"completed", domain.Query{Status: domain.StatusCompleted}, 1},
		{"active", domain.Query{Status: domain.StatusActive}, 3},
		{"search title or description, case-insensitive", domain.Query{Search: "milk"}, 2},
		{"search combined with status", domain.Query{Search: "milk", Status: domain.StatusActive}, 1},
		{"search trimmed", domain.Query{Search: "  RENT "}, 1},
		{"percent is literal", domain.Query{Search: "100%"}, 1},
		{"underscore is literal", domain.Query{Search: "pay_"}, 1},
		{"no match", domain.Query{Search: "zebra"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			q.OwnerID = "alice"
			page, err := svc.List(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Len(t, page.Todos, int(tt.wantTotal))
		})
	}
}

func TestService_List_SearchNonASCII(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, "alice", "Éclair recipe", "")
	mustCreate(t, svc, "alice", "ÜBER task", "")
	mustCreate(t, svc, "alice", "Groceries", "Crème fraîche")

	tests := []struct {
		search    string
		wantTotal int64
	}{
		{"Éclair", 1},
		{"éclair", 1},
		{"ÉCLAIR", 1},
		{"über", 1},
		{"Über", 1},
		{"CRÈME", 1},
		{"clair", 1},
		{"ecl", 0},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			page, err := svc.List(ctx, domain.Query{OwnerID: "alice", Search: tt.search})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, page.Total)
		})
	}
}

func TestService_List_SearchFollowsUpdates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	todo := mustCreate(t, svc, "alice", "Buy milk", "at the Épicerie")

	_, err := svc.Update(ctx, "alice", todo.ID, domain.Changes{Title: ptr("Buy bread")})
	require.NoError(t, err)

	search := func(term string) int64 {
		page, err := svc.List(ctx, domain.Query{OwnerID: "alice", Search: term})
		require.NoError(t, err)
		return page.Total
	}
	assert.Equal(t, int64(0), search("milk"))
	assert.Equal(t, int64(1), search("bread"))
	assert.Equal(t, int64(1), search("épicerie"), "unchanged description stays searchable")

	_, err = svc.Update(ctx, "alice", todo.ID, domain.Changes{Description: ptr("at the bakery")})
	require.NoError(t, err)
	assert.Equal(t, int64(0), search("épicerie"))
	assert.Equal(t, int64(1), search("BREAD"), "unchanged title stays searchable")

	_, err = svc.Update(ctx, "alice", todo.ID, domain.Changes{Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), search("bakery"))
}

func TestGormRepository_MigrateBackfillsSearchText(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, db.Exec(
		"INSERT INTO todos (id, user_id, title, description, completed, created_at, updated_at, search_text) VALUES (?, ?, ?, ?, ?, ?, ?, '')",
		"legacy-1", "alice", "Éclair recipe", "", false, now, now,
	).Error)

	repo := NewGormRepository(db)
	require.NoError(t, repo.Migrate(ctx))

	todos, total, err := repo.List(ctx, domain.Query{OwnerID: "alice", Search: "éclair"}.Normalize())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, todos, 1)
	assert.Equal(t, "legacy-1", todos[0].ID)
}

func TestService_List_Empty(t *testing.T) {
	svc := newTestService(t)

	page, err := svc.List(context.Background(), domain.Query{OwnerID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, page.Todos)
	assert.Empty(t, page.Todos)
	assert.Equal(t, int64(0), page.Total)
}

func TestService_List_RequiresOwner(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.List(context.Background(), domain.Query{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Update(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	todo := mustCreate(t, svc, "alice", "Buy milk", "")

	updated, err := svc.Update(ctx, "alice", todo.ID, domain.Changes{
		Title:       ptr("  Buy oat milk "),
		Description: ptr("from the corner shop"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.Title)
	assert.Equal(t, "from the corner shop", updated.Description)
	assert.False(t, updated.Completed)
	assert.Equal(t, "alice", updated.UserID)
	assert.True(t, updated.UpdatedAt.After(todo.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(todo.CreatedAt))
}

func TestService_Update_ToggleTwiceRestores(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	todo := mustCreate(t, svc, "alice", "Buy milk", "")

	once, err := svc.Update(ctx, "alice", todo.ID, domain.Changes{Completed: ptr(!todo.Completed)})
	require.NoError(t, err)
	assert.True(t, once.Completed)

	twice, err := svc.Update(ctx, "alice", todo.ID, domain.Changes{Completed: ptr(!once.Completed)})
	require.NoError(t, err)
	assert.Equal(t, todo.Completed, twice.Completed)
	assert.Equal(t, todo.Title, twice.Title)
}

func TestService_Update_EmptyChanges(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	todo := mustCreate(t, svc, "alice", "Buy milk", "")

	got, err := svc.Update(ctx, "alice", todo.ID, domain.Changes{})
	require.NoError(t, err)
	assert.Equal(t, todo.ID, got.ID)
	assert.True(t, got.UpdatedAt.Equal(todo.UpdatedAt))

	_, err = svc.Update(ctx, "alice", "missing", domain.Changes{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Update_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	todo := mustCreate(t, svc, "alice", "Buy milk", "")

	_, err := svc.Update(ctx, "alice", todo.ID, domain.Changes{Title: ptr("   ")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(ctx, "alice", todo.ID, domain.Changes{Description: ptr(strings.Repeat("d", MaxDescriptionLength+1))})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_Update_NotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), "alice", "does-not-exist", domain.Changes{Completed: ptr(true)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	todo := mustCreate(t, svc, "alice", "Buy milk", "")

	require.NoError(t, svc.Delete(ctx, "alice", todo.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "alice", todo.ID), ErrNotFound)

	page, err := svc.List(ctx, domain.Query{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
}
