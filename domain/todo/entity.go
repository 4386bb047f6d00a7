package todo

import (
	"strings"
	"time"
)

// Todo is a task owned by exactly one user.
type Todo struct {
	ID          string    `gorm:"primaryKey;size:32" bson:"_id" json:"_id"`
	UserID      string    `gorm:"index:idx_todos_owner_created,priority:1;not null;size:36" bson:"userId" json:"userId"`
	Title       string    `gorm:"size:200;not null" bson:"title" json:"title"`
	Description string    `gorm:"size:2000" bson:"description" json:"description"`
	Completed   bool      `gorm:"not null;default:false" bson:"completed" json:"completed"`
	CreatedAt   time.Time `gorm:"index:idx_todos_owner_created,priority:2" bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`

	// SearchText is the lowercased title and description for relational
	// stores, whose LOWER() may only fold ASCII.
	SearchText string `gorm:"not null;default:''" bson:"-" json:"-"`
}

// TableName returns the table name for Todo model.
func (Todo) TableName() string {
	return "todos"
}

// searchSeparator keeps a search term from matching across title and description.
const searchSeparator = "\x1f"

// FoldSearch lowercases s with Unicode case rules.
func FoldSearch(s string) string {
	return strings.ToLower(s)
}

// SearchTextFor builds the SearchText value for a title and description.
func SearchTextFor(title, description string) string {
	return FoldSearch(title) + searchSeparator + FoldSearch(description)
}

// Changes is the allow-list of fields a caller may modify on an existing todo.
// Nil fields are left untouched.
type Changes struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// Empty reports whether no field is set.
func (c Changes) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Completed == nil
}

// Apply copies the set fields onto t.
func (c Changes) Apply(t *Todo) {
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.Completed != nil {
		t.Completed = *c.Completed
	}
}
