package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/immeasurable-vikrant/taskFlow/database"
	domain "github.com/immeasurable-vikrant/taskFlow/domain/todo"
)

// TodoModule provides owner-scoped todo services.
type TodoModule struct {
	conn    *database.Connection
	service *Service
}

// Compile-time interface checks.
var _ mono.Module = (*TodoModule)(nil)
var _ mono.ServiceProviderModule = (*TodoModule)(nil)
var _ mono.HealthCheckableModule = (*TodoModule)(nil)

// NewModule creates a new TodoModule over an open store connection.
func NewModule(conn *database.Connection) *TodoModule {
	return &TodoModule{conn: conn}
}

// Name returns the module name.
func (m *TodoModule) Name() string {
	return "todo"
}

// Start selects the repository for the configured store and migrates it.
func (m *TodoModule) Start(ctx context.Context) error {
	var repo Repository
	switch {
	case m.conn == nil:
		return errors.New("database connection not set")
	case m.conn.Gorm != nil:
		repo = NewGormRepository(m.conn.Gorm)
	case m.conn.Mongo != nil:
		repo = NewMongoRepository(m.conn.Mongo)
	default:
		return errors.New("database connection has no store")
	}

	if err := repo.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate todos: %w", err)
	}

	service, err := NewService(repo)
	if err != nil {
		return err
	}
	m.service = service

	log.Printf("[todo] Module started (store: %s)", m.conn.Driver)
	return nil
}

// Stop shuts down the module.
func (m *TodoModule) Stop(_ context.Context) error {
	log.Println("[todo] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *TodoModule) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil || m.conn == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "not started",
		}
	}
	if err := m.conn.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"store": m.conn.Driver,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TodoModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-todo", json.Unmarshal, json.Marshal, m.createTodo,
	); err != nil {
		return fmt.Errorf("failed to register create-todo service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-todos", json.Unmarshal, json.Marshal, m.listTodos,
	); err != nil {
		return fmt.Errorf("failed to register list-todos service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-todo", json.Unmarshal, json.Marshal, m.updateTodo,
	); err != nil {
		return fmt.Errorf("failed to register update-todo service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-todo", json.Unmarshal, json.Marshal, m.deleteTodo,
	); err != nil {
		return fmt.Errorf("failed to register delete-todo service: %w", err)
	}

	log.Printf("[todo] Registered services: create-todo, list-todos, update-todo, delete-todo")
	return nil
}

func (m *TodoModule) createTodo(ctx context.Context, req CreateTodoRequest, _ *mono.Msg) (domain.Todo, error) {
	todo, err := m.service.Create(ctx, req.OwnerID, req.Title, req.Description)
	if err != nil {
		return domain.Todo{}, err
	}
	return *todo, nil
}

func (m *TodoModule) listTodos(ctx context.Context, req ListTodosRequest, _ *mono.Msg) (domain.Page, error) {
	page, err := m.service.List(ctx, req.Query)
	if err != nil {
		return domain.Page{}, err
	}
	return *page, nil
}

func (m *TodoModule) updateTodo(ctx context.Context, req UpdateTodoRequest, _ *mono.Msg) (domain.Todo, error) {
	todo, err := m.service.Update(ctx, req.OwnerID, req.ID, req.Changes)
	if err != nil {
		return domain.Todo{}, err
	}
	return *todo, nil
}

func (m *TodoModule) deleteTodo(ctx context.Context, req DeleteTodoRequest, _ *mono.Msg) (DeleteTodoResponse, error) {
	if err := m.service.Delete(ctx, req.OwnerID, req.ID); err != nil {
		return DeleteTodoResponse{}, err
	}
	return DeleteTodoResponse{ID: req.ID}, nil
}
