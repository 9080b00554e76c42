package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/deppfellow/user-api/internal/database"
	"github.com/deppfellow/user-api/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const userColumns = "id::text AS id, name, age, created_at, updated_at"

// PostgresUsers stores users in the users table.
type PostgresUsers struct {
	db *database.Connector
}

func NewPostgresUsers(db *database.Connector) *PostgresUsers {
	return &PostgresUsers{db: db}
}

func (r *PostgresUsers) Create(ctx context.Context, name string, age int) (*model.User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "generating user id")
	}

	db, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx,
		"INSERT INTO users (id, name, age) VALUES ($1, $2, $3) RETURNING "+userColumns,
		id.String(), name, age,
	)
	if err != nil {
		return nil, errors.Wrap(err, "inserting user")
	}

	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		return nil, errors.Wrap(err, "inserting user")
	}
	return &user, nil
}

func (r *PostgresUsers) Find(ctx context.Context, q model.UserQuery) ([]model.User, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}

	sql, args := buildFindQuery(q)
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (r *PostgresUsers) UpdateMany(ctx context.Context, ids []string, changes model.UserChanges) (int64, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return 0, err
	}

	sql, args := buildUpdateQuery(ids, changes)
	tag, err := db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, errors.Wrap(err, "updating users")
	}
	return tag.RowsAffected(), nil
}

func buildFindQuery(q model.UserQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Before != "" {
		where = append(where, "id < "+arg(q.Before)+"::uuid")
	}
	if q.NameSearch != "" {
		where = append(where, "name ~ "+arg(q.NameSearch))
	}
	if len(q.IDs) > 0 {
		where = append(where, "id = ANY("+arg(q.IDs)+"::uuid[])")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + userColumns + " FROM users")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY id DESC")
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(q.Limit))
	}
	return sb.String(), args
}

// buildUpdateQuery only touches rows where at least one field differs, so
// RowsAffected counts real changes.
func buildUpdateQuery(ids []string, changes model.UserChanges) (string, []any) {
	args := []any{ids}
	var (
		set     []string
		differs []string
	)
	if changes.Name != nil {
		args = append(args, *changes.Name)
		p := fmt.Sprintf("$%d", len(args))
		set = append(set, "name = "+p)
		differs = append(differs, "name IS DISTINCT FROM "+p)
	}
	if changes.Age != nil {
		args = append(args, *changes.Age)
		p := fmt.Sprintf("$%d::int", len(args))
		set = append(set, "age = "+p)
		differs = append(differs, "age IS DISTINCT FROM "+p)
	}
	set = append(set, "updated_at = now()")

	return "UPDATE users SET " + strings.Join(set, ", ") +
		" WHERE id = ANY($1::uuid[]) AND (" + strings.Join(differs, " OR ") + ")", args
}
