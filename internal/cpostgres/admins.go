package cpostgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminService interface {
	DeleteUser(ctx context.Context, userID string) (bool, error)
}

type admin struct {
	pool *pgxpool.Pool
}

func NewAdminService(pool *pgxpool.Pool) AdminService {
	return &admin{
		pool: pool,
	}
}

func (r *admin) DeleteUser(ctx context.Context, userID string) (bool, error) {
	query := `
		DELETE FROM admin_users
		WHERE user_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
