package cpostgres

import (
	"context"
	"time"

	"comms-service/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReminderService interface {
	Create(ctx context.Context, rem model.ReminderSchedule) (int64, error)
	Due(ctx context.Context, now time.Time, limit int) ([]model.ReminderSchedule, error)
	MarkSent(ctx context.Context, id int64) error
	List(ctx context.Context, limit int) ([]model.ReminderSchedule, error)
}

type reminder struct {
	pool *pgxpool.Pool
}

func NewReminderService(pool *pgxpool.Pool) ReminderService {
	return &reminder{
		pool: pool,
	}
}

func (r *reminder) Create(ctx context.Context, rem model.ReminderSchedule) (int64, error) {
	query := `
		INSERT INTO reminders (message, channel, scheduled_at, status, account_number, customer_name, contact_info, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		rem.Message,
		string(rem.Channel),
		rem.ScheduledAt,
		string(model.ReminderPending),
		rem.AccountNumber,
		rem.CustomerName,
		rem.ContactInfo,
		rem.Amount,
		time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *reminder) Due(ctx context.Context, now time.Time, limit int) ([]model.ReminderSchedule, error) {
	query := `
		SELECT id, message, channel, scheduled_at, status, account_number, customer_name, contact_info, amount, created_at
		FROM reminders
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, string(model.ReminderPending), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

func (r *reminder) MarkSent(ctx context.Context, id int64) error {
	query := `
		UPDATE reminders
		SET status = $1
		WHERE id = $2
	`
	_, err := r.pool.Exec(ctx, query, string(model.ReminderSent), id)
	return err
}

func (r *reminder) List(ctx context.Context, limit int) ([]model.ReminderSchedule, error) {
	query := `
		SELECT id, message, channel, scheduled_at, status, account_number, customer_name, contact_info, amount, created_at
		FROM reminders
		ORDER BY scheduled_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanReminders(rows pgxRows) ([]model.ReminderSchedule, error) {
	var reminders []model.ReminderSchedule

	for rows.Next() {
		var rem model.ReminderSchedule
		var channel, status string
		var scheduledAt, createdAt *time.Time

		err := rows.Scan(
			&rem.ID,
			&rem.Message,
			&channel,
			&scheduledAt,
			&status,
			&rem.AccountNumber,
			&rem.CustomerName,
			&rem.ContactInfo,
			&rem.Amount,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		rem.Channel = model.Channel(channel)
		rem.Status = model.ReminderStatus(status)
		if scheduledAt != nil {
			rem.ScheduledAt = *scheduledAt
		}
		if createdAt != nil {
			rem.CreatedAt = *createdAt
		}

		reminders = append(reminders, rem)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reminders, nil
}
