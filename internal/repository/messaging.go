package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vendebot/vende/internal/domain"
)

// MessageLogRepository records outbound messages relayed to Meta
type MessageLogRepository struct {
	db *pgxpool.Pool
}

func (r *MessageLogRepository) Create(ctx context.Context, m *domain.MessageLog) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO message_logs (account_id, bot_id, client_id, platform, recipient, body, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, sent_at
	`, m.AccountID, m.BotID, m.ClientID, m.Platform, m.Recipient, m.Body, m.Status, m.Error).Scan(
		&m.ID, &m.SentAt,
	)
}

func (r *MessageLogRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.MessageLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, bot_id, client_id, platform, recipient, body, status, error, sent_at
		FROM message_logs WHERE account_id = $1
		ORDER BY sent_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.MessageLog
	for rows.Next() {
		m := &domain.MessageLog{}
		if err := rows.Scan(
			&m.ID, &m.AccountID, &m.BotID, &m.ClientID, &m.Platform, &m.Recipient,
			&m.Body, &m.Status, &m.Error, &m.SentAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, m)
	}
	return logs, nil
}

// CountSentSince counts successfully sent messages since a point in time,
// used for plan-limit enforcement.
func (r *MessageLogRepository) CountSentSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM message_logs
		WHERE account_id = $1 AND status = $2 AND sent_at >= $3
	`, accountID, domain.MessageStatusSent, since).Scan(&count)
	return count, err
}

// SubscriptionRepository handles billing subscription data access
type SubscriptionRepository struct {
	db *pgxpool.Pool
}

func (r *SubscriptionRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*domain.Subscription, error) {
	s := &domain.Subscription{}
	err := r.db.QueryRow(ctx, `
		SELECT id, account_id, plan, status, current_period_start, current_period_end, messages_used, created_at, updated_at
		FROM subscriptions WHERE account_id = $1
	`, accountID).Scan(
		&s.ID, &s.AccountID, &s.Plan, &s.Status, &s.CurrentPeriodStart, &s.CurrentPeriodEnd,
		&s.MessagesUsed, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *SubscriptionRepository) Upsert(ctx context.Context, s *domain.Subscription) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO subscriptions (account_id, plan, status, current_period_start, current_period_end, messages_used)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			messages_used = EXCLUDED.messages_used,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, s.AccountID, s.Plan, s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.MessagesUsed).Scan(
		&s.ID, &s.CreatedAt, &s.UpdatedAt,
	)
}

// IncrementUsage bumps the message counter for the current period.
func (r *SubscriptionRepository) IncrementUsage(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE subscriptions SET messages_used = messages_used + 1, updated_at = NOW()
		WHERE account_id = $1
	`, accountID)
	return err
}

// ResetPeriod rolls the subscription into a new billing period.
func (r *SubscriptionRepository) ResetPeriod(ctx context.Context, accountID uuid.UUID, start, end time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE subscriptions SET current_period_start = $2, current_period_end = $3, messages_used = 0, updated_at = NOW()
		WHERE account_id = $1
	`, accountID, start, end)
	return err
}
