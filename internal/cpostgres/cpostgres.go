package cpostgres

import (
	"context"
	"time"

	"comms-service/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalyticsCounts aggregates communication volumes over a trailing window.
type AnalyticsCounts struct {
	TotalSent      int64 `json:"total_sent"`
	TotalDelivered int64 `json:"total_delivered"`
	TotalFailed    int64 `json:"total_failed"`
	TotalReceived  int64 `json:"total_received"`
}

type CommunicationService interface {
	Record(ctx context.Context, rec model.CommunicationRecord) (int64, error)
	History(ctx context.Context, limit int, cursor int64) ([]model.CommunicationRecord, error)
	UpdateStatusByMessageID(ctx context.Context, messageID string, status model.Status) (bool, error)
	CountsSince(ctx context.Context, channel model.Channel, since time.Time) (AnalyticsCounts, error)
}

type communication struct {
	pool *pgxpool.Pool
}

func NewCommunicationService(pool *pgxpool.Pool) CommunicationService {
	return &communication{
		pool: pool,
	}
}

// Record appends one history row. Logically bad input is stored as-is;
// only storage failures propagate.
func (r *communication) Record(ctx context.Context, rec model.CommunicationRecord) (int64, error) {
	var messageID *string
	if rec.MessageID != "" {
		messageID = &rec.MessageID
	}

	query := `
		INSERT INTO communications (channel, content, recipient, sender, account_number, status, message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		string(rec.Channel),
		rec.Content,
		rec.Recipient,
		rec.Sender,
		rec.AccountNumber,
		string(rec.Status),
		messageID,
		time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *communication) History(ctx context.Context, limit int, cursor int64) ([]model.CommunicationRecord, error) {
	var records []model.CommunicationRecord

	query := `
		SELECT id, channel, content, recipient, sender, account_number, status, message_id, created_at, status_updated_at
		FROM communications
		WHERE ($2 = 0 OR id < $2)
		ORDER BY id DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit, cursor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec model.CommunicationRecord
		var channel, status string
		var messageID *string
		var createdAt, statusUpdatedAt *time.Time

		err := rows.Scan(
			&rec.ID,
			&channel,
			&rec.Content,
			&rec.Recipient,
			&rec.Sender,
			&rec.AccountNumber,
			&status,
			&messageID,
			&createdAt,
			&statusUpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		rec.Channel = model.Channel(channel)
		rec.Status = model.Status(status)
		if messageID != nil {
			rec.MessageID = *messageID
		}
		if createdAt != nil {
			rec.CreatedAt = *createdAt
		}
		rec.StatusUpdatedAt = statusUpdatedAt

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// UpdateStatusByMessageID reconciles a provider status webhook against the
// most recent record carrying that provider message ID. A miss is not an
// error; the caller decides whether to log it.
func (r *communication) UpdateStatusByMessageID(ctx context.Context, messageID string, status model.Status) (bool, error) {
	now := time.Now()
	query := `
		UPDATE communications
		SET status = $1, status_updated_at = $2
		WHERE id = (
			SELECT id FROM communications WHERE message_id = $3 ORDER BY id DESC LIMIT 1
		)
	`
	tag, err := r.pool.Exec(ctx, query, string(status), now, messageID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *communication) CountsSince(ctx context.Context, channel model.Channel, since time.Time) (AnalyticsCounts, error) {
	var counts AnalyticsCounts

	query := `
		SELECT status, COUNT(*)
		FROM communications
		WHERE channel = $1 AND created_at >= $2
		GROUP BY status
	`
	rows, err := r.pool.Query(ctx, query, string(channel), since)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return counts, err
		}

		switch model.Status(status) {
		case model.StatusSent, model.StatusRead:
			counts.TotalSent += count
		case model.StatusDelivered:
			counts.TotalSent += count
			counts.TotalDelivered += count
		case model.StatusFailed:
			counts.TotalFailed += count
		case model.StatusReceived:
			counts.TotalReceived += count
		}
	}

	if err := rows.Err(); err != nil {
		return counts, err
	}

	return counts, nil
}
