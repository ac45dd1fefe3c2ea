package cpostgres

import (
	"context"
	"time"

	"comms-service/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TemplateService interface {
	List(ctx context.Context) ([]model.MessageTemplate, error)
	Create(ctx context.Context, tpl model.MessageTemplate) (int64, error)
}

type template struct {
	pool *pgxpool.Pool
}

func NewTemplateService(pool *pgxpool.Pool) TemplateService {
	return &template{
		pool: pool,
	}
}

func (r *template) List(ctx context.Context) ([]model.MessageTemplate, error) {
	var templates []model.MessageTemplate

	query := `
		SELECT id, title, content, created_at
		FROM templates
		ORDER BY title ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tpl model.MessageTemplate
		var createdAt *time.Time

		if err := rows.Scan(&tpl.ID, &tpl.Title, &tpl.Content, &createdAt); err != nil {
			return nil, err
		}
		if createdAt != nil {
			tpl.CreatedAt = *createdAt
		}
		templates = append(templates, tpl)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

func (r *template) Create(ctx context.Context, tpl model.MessageTemplate) (int64, error) {
	query := `
		INSERT INTO templates (title, content, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query, tpl.Title, tpl.Content, time.Now()).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
