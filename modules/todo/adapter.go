package todo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	domain "github.com/immeasurable-vikrant/taskFlow/domain/todo"
)

// TodoPort is the port the API uses to reach the todo module.
type TodoPort interface {
	Create(ctx context.Context, ownerID, title, description string) (*domain.Todo, error)
	List(ctx context.Context, q domain.Query) (*domain.Page, error)
	Update(ctx context.Context, ownerID, id string, changes domain.Changes) (*domain.Todo, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// TodoAdapter implements TodoPort using the service container.
type TodoAdapter struct {
	container mono.ServiceContainer
}

var _ TodoPort = (*TodoAdapter)(nil)

// NewTodoAdapter creates a new TodoAdapter.
func NewTodoAdapter(container mono.ServiceContainer) *TodoAdapter {
	return &TodoAdapter{container: container}
}

// Create adds a todo for ownerID.
func (a *TodoAdapter) Create(ctx context.Context, ownerID, title, description string) (*domain.Todo, error) {
	req := CreateTodoRequest{OwnerID: ownerID, Title: title, Description: description}
	var resp domain.Todo
	if err := call(ctx, a.container, "create-todo", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns a page of the owner's todos.
func (a *TodoAdapter) List(ctx context.Context, q domain.Query) (*domain.Page, error) {
	req := ListTodosRequest{Query: q}
	var resp domain.Page
	if err := call(ctx, a.container, "list-todos", &req, &resp); err != nil {
		return nil, err
	}
	if resp.Todos == nil {
		resp.Todos = []domain.Todo{}
	}
	return &resp, nil
}

// Update applies changes to the owner's todo.
func (a *TodoAdapter) Update(ctx context.Context, ownerID, id string, changes domain.Changes) (*domain.Todo, error) {
	req := UpdateTodoRequest{OwnerID: ownerID, ID: id, Changes: changes}
	var resp domain.Todo
	if err := call(ctx, a.container, "update-todo", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes the owner's todo.
func (a *TodoAdapter) Delete(ctx context.Context, ownerID, id string) error {
	req := DeleteTodoRequest{OwnerID: ownerID, ID: id}
	var resp DeleteTodoResponse
	return call(ctx, a.container, "delete-todo", &req, &resp)
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}
