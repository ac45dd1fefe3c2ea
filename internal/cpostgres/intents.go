package cpostgres

import (
	"context"

	"comms-service/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type IntentService interface {
	List(ctx context.Context) ([]model.Intent, error)
}

type intent struct {
	pool *pgxpool.Pool
}

func NewIntentService(pool *pgxpool.Pool) IntentService {
	return &intent{
		pool: pool,
	}
}

func (r *intent) List(ctx context.Context) ([]model.Intent, error) {
	var intents []model.Intent

	query := `
		SELECT id, name, phrases, responses
		FROM intents
		ORDER BY id ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var in model.Intent
		if err := rows.Scan(&in.ID, &in.Name, &in.Phrases, &in.Responses); err != nil {
			return nil, err
		}
		intents = append(intents, in)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return intents, nil
}
