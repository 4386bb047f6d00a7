package todo

import (
	domain "github.com/immeasurable-vikrant/taskFlow/domain/todo"
)

// CreateTodoRequest represents a create-todo service request.
type CreateTodoRequest struct {
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ListTodosRequest represents a list-todos service request.
type ListTodosRequest struct {
	Query domain.Query `json:"query"`
}

// UpdateTodoRequest represents an update-todo service request.
type UpdateTodoRequest struct {
	OwnerID string         `json:"owner_id"`
	ID      string         `json:"id"`
	Changes domain.Changes `json:"changes"`
}

// DeleteTodoRequest represents a delete-todo service request.
type DeleteTodoRequest struct {
	OwnerID string `json:"owner_id"`
	ID      string `json:"id"`
}

// DeleteTodoResponse represents a delete-todo service response.
type DeleteTodoResponse struct {
	ID string `json:"id"`
}
