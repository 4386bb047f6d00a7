package user

import (
	"time"
)

// User represents a registered account.
type User struct {
	ID           string    `gorm:"primaryKey;type:text" bson:"_id"`
	FirstName    string    `gorm:"not null;type:text" bson:"firstName"`
	LastName     string    `gorm:"not null;type:text" bson:"lastName"`
	Email        string    `gorm:"uniqueIndex;not null;type:text" bson:"email"`
	PasswordHash string    `gorm:"not null;type:text" bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Profile is the public view of a user. It never carries the password hash.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// Claims represents the identity resolved from a session token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
