package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/omarchenko-dev/weather-subscription-service/internal/models"
)

const selectColumns = `id, email, city, frequency, status, token, token_expiry,
	created_at, updated_at, last_sent_at, next_scheduled_at`

// SubscriptionRepository persists subscriptions in sqlite. It is the single
// source of truth for subscription state; the scheduler's in-memory job map
// is rebuilt from it on startup.
type SubscriptionRepository struct {
	DB  *sql.DB
	log *zap.Logger
}

func NewSubscriptionRepository(db *sql.DB, logger *zap.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{
		DB:  db,
		log: logger.With(zap.String("component", "SubscriptionRepository")),
	}
}

// Create inserts a new subscription row. A unique-constraint violation on
// (email, city) surfaces as models.ErrSubscriptionExists.
func (r *SubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO subscriptions
			(id, email, city, frequency, status, token, token_expiry,
			 created_at, updated_at, last_sent_at, next_scheduled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Email, sub.City, string(sub.Frequency), string(sub.Status),
		sub.Token, sub.TokenExpiry.UTC(), sub.CreatedAt.UTC(), sub.UpdatedAt.UTC(),
		nullableTime(sub.LastSentAt), nullableTime(sub.NextScheduledAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("subscription already exists",
				zap.String("email", sub.Email), zap.String("city", sub.City))
			return models.ErrSubscriptionExists
		}
		r.log.Error("failed to insert subscription", zap.Error(err))
		return err
	}

	r.log.Info("subscription created",
		zap.String("id", sub.ID), zap.String("city", sub.City))
	return nil
}

// GetByEmailAndCity returns the non-unsubscribed subscription for the pair.
func (r *SubscriptionRepository) GetByEmailAndCity(
	ctx context.Context, email, city string,
) (models.Subscription, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM subscriptions
		 WHERE email = ? AND city = ? AND status != ?`,
		email, city, string(models.StatusUnsubscribed),
	)
	return r.scanSubscription(row)
}

// GetByToken looks a subscription up by its current token.
func (r *SubscriptionRepository) GetByToken(
	ctx context.Context, token string,
) (models.Subscription, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM subscriptions WHERE token = ?`, token,
	)
	return r.scanSubscription(row)
}

// GetByID loads a single subscription by id.
func (r *SubscriptionRepository) GetByID(
	ctx context.Context, id string,
) (models.Subscription, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM subscriptions WHERE id = ?`, id,
	)
	return r.scanSubscription(row)
}

// Update applies a partial update of status/token fields and bumps updated_at.
func (r *SubscriptionRepository) Update(
	ctx context.Context, id string, upd models.SubscriptionUpdate,
) (models.Subscription, error) {
	setClauses := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if upd.Status != nil {
		setClauses = append(setClauses, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.Token != nil {
		setClauses = append(setClauses, "token = ?")
		args = append(args, *upd.Token)
	}
	if upd.TokenExpiry != nil {
		setClauses = append(setClauses, "token_expiry = ?")
		args = append(args, upd.TokenExpiry.UTC())
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx,
		"UPDATE subscriptions SET "+strings.Join(setClauses, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		r.log.Error("failed to update subscription", zap.String("id", id), zap.Error(err))
		return models.Subscription{}, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.Subscription{}, err
	}
	if count == 0 {
		return models.Subscription{}, models.ErrSubscriptionNotFound
	}

	return r.GetByID(ctx, id)
}

// UpdateScheduling persists the scheduler-owned bookkeeping timestamps.
func (r *SubscriptionRepository) UpdateScheduling(
	ctx context.Context, id string, lastSentAt, nextScheduledAt *time.Time,
) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE subscriptions
		 SET last_sent_at = ?, next_scheduled_at = ?, updated_at = ?
		 WHERE id = ?`,
		nullableTime(lastSentAt), nullableTime(nextScheduledAt), time.Now().UTC(), id,
	)
	if err != nil {
		r.log.Error("failed to update scheduling fields",
			zap.String("id", id), zap.Error(err))
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return models.ErrSubscriptionNotFound
	}
	return nil
}

// GetAllActive returns every confirmed subscription.
func (r *SubscriptionRepository) GetAllActive(ctx context.Context) ([]models.Subscription, error) {
	return r.querySubscriptions(ctx,
		`SELECT `+selectColumns+` FROM subscriptions WHERE status = ?`,
		string(models.StatusConfirmed),
	)
}

// GetDueForSending returns confirmed subscriptions whose next scheduled time
// is unset or already reached.
func (r *SubscriptionRepository) GetDueForSending(ctx context.Context) ([]models.Subscription, error) {
	return r.querySubscriptions(ctx,
		`SELECT `+selectColumns+` FROM subscriptions
		 WHERE status = ? AND (next_scheduled_at IS NULL OR next_scheduled_at <= ?)`,
		string(models.StatusConfirmed), time.Now().UTC(),
	)
}

// Delete removes a subscription row entirely.
func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		r.log.Error("failed to delete subscription", zap.String("id", id), zap.Error(err))
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return models.ErrSubscriptionNotFound
	}

	r.log.Info("subscription deleted", zap.String("id", id))
	return nil
}

func (r *SubscriptionRepository) querySubscriptions(
	ctx context.Context, query string, args ...any,
) ([]models.Subscription, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to query subscriptions", zap.Error(err))
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("failed to close rows", zap.Error(err))
		}
	}(rows)

	var subs []models.Subscription
	for rows.Next() {
		sub, err := r.scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SubscriptionRepository) scanSubscription(row rowScanner) (models.Subscription, error) {
	var (
		sub             models.Subscription
		frequency       string
		status          string
		lastSentAt      sql.NullTime
		nextScheduledAt sql.NullTime
	)

	err := row.Scan(&sub.ID, &sub.Email, &sub.City, &frequency, &status,
		&sub.Token, &sub.TokenExpiry, &sub.CreatedAt, &sub.UpdatedAt,
		&lastSentAt, &nextScheduledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Subscription{}, models.ErrSubscriptionNotFound
		}
		r.log.Error("failed to scan subscription row", zap.Error(err))
		return models.Subscription{}, err
	}

	sub.Frequency = models.Frequency(frequency)
	sub.Status = models.Status(status)
	if lastSentAt.Valid {
		sub.LastSentAt = &lastSentAt.Time
	}
	if nextScheduledAt.Valid {
		sub.NextScheduledAt = &nextScheduledAt.Time
	}
	return sub, nil
}

// Timestamps are stored in UTC so sqlite's text comparison of bound
// time values stays consistent.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
