package repository

import (
	"testing"

	"github.com/deppfellow/user-api/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestBuildFindQuery(t *testing.T) {
	sql, args := buildFindQuery(model.UserQuery{})
	assert.Equal(t, "SELECT "+userColumns+" FROM users ORDER BY id DESC", sql)
	assert.Empty(t, args)

	ids := []string{"0190f1f0-0000-7000-8000-000000000001"}
	sql, args = buildFindQuery(model.UserQuery{
		Before:     "0190f1f0-0000-7000-8000-000000000009",
		NameSearch: "^al",
		IDs:        ids,
		Limit:      20,
	})
	assert.Equal(t,
		"SELECT "+userColumns+" FROM users WHERE id < $1::uuid AND name ~ $2 AND id = ANY($3::uuid[]) ORDER BY id DESC LIMIT $4",
		sql)
	assert.Equal(t, []any{"0190f1f0-0000-7000-8000-000000000009", "^al", ids, 20}, args)
}

func TestBuildUpdateQuery(t *testing.T) {
	ids := []string{"0190f1f0-0000-7000-8000-000000000001"}
	name := "bob"
	age := 30

	sql, args := buildUpdateQuery(ids, model.UserChanges{Name: &name, Age: &age})
	assert.Equal(t,
		"UPDATE users SET name = $2, age = $3::int, updated_at = now() WHERE id = ANY($1::uuid[]) AND (name IS DISTINCT FROM $2 OR age IS DISTINCT FROM $3::int)",
		sql)
	assert.Equal(t, []any{ids, "bob", 30}, args)

	sql, args = buildUpdateQuery(ids, model.UserChanges{Age: &age})
	assert.Equal(t,
		"UPDATE users SET age = $2::int, updated_at = now() WHERE id = ANY($1::uuid[]) AND (age IS DISTINCT FROM $2::int)",
		sql)
	assert.Equal(t, []any{ids, 30}, args)
}
