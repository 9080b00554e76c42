package model

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Age  *int   `json:"age" validate:"required,gte=0,lte=150"`
}

// ListUsersRequest is the query of GET /users.
type ListUsersRequest struct {
	// Q searches users by name.
	Q string `json:"q" validate:"omitempty,max=256"`
	// ID fetches users by id. A single value decodes into a one-element list.
	ID []string `json:"id" validate:"omitempty,dive,uuid"`
	// Count is the page size. Zero means the default; larger than the
	// maximum means the maximum.
	Count int `json:"count" validate:"omitempty,gte=1"`
	// Page fetches users before this cursor.
	Page string `json:"page" validate:"omitempty,uuid"`
}

// UpdateUsersRequest is the body/query of PATCH /users.
type UpdateUsersRequest struct {
	ID   []string `json:"id" validate:"required,min=1,dive,uuid"`
	Name *string  `json:"name" validate:"omitempty,min=1,max=256"`
	Age  *int     `json:"age" validate:"omitempty,gte=0,lte=150"`
}

// UpdateUsersResponse reports how many users an update modified.
type UpdateUsersResponse struct {
	UsersAffected int64 `json:"usersAffected"`
}
