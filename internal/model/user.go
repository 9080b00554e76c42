// Package model holds the user entity and the request/response shapes of
// the API operations.
package model

import "time"

// User is the persisted user record.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Age       int       `json:"age" db:"age"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserQuery selects users for one page. Zero-valued fields do not filter.
type UserQuery struct {
	// Before keeps ids strictly less than this cursor.
	Before string
	// NameSearch is a regular expression matched anywhere in the name.
	NameSearch string
	IDs        []string
	Limit      int
}

// UserChanges lists the fields an update sets. Nil fields are left alone.
type UserChanges struct {
	Name *string
	Age  *int
}

// Empty reports whether the update would change nothing.
func (c UserChanges) Empty() bool {
	return c.Name == nil && c.Age == nil
}

// Page is one page of a user listing.
type Page struct {
	Users []User `json:"users"`
	// NextPageCursor is set when more results may exist.
	NextPageCursor string `json:"nextPageCursor,omitempty"`
}
