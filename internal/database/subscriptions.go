package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const subscriptionColumns = `id, account_id, stripe_customer_id, stripe_subscription_id, status,
	current_period_end, created_at, updated_at`

func scanSubscription(row interface{ Scan(dest ...interface{}) error }) (Subscription, error) {
	var s Subscription
	err := row.Scan(&s.ID, &s.AccountID, &s.StripeCustomerID, &s.StripeSubscriptionID,
		&s.Status, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

type UpsertSubscriptionParams struct {
	AccountID            uuid.UUID
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               string
	CurrentPeriodEnd     pgtype.Timestamptz
}

// UpsertSubscription reconciles webhook events: one subscription row per
// account, keyed by the Stripe subscription id.
func (q *Queries) UpsertSubscription(ctx context.Context, arg UpsertSubscriptionParams) (Subscription, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO subscriptions (account_id, stripe_customer_id, stripe_subscription_id, status, current_period_end)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stripe_subscription_id) DO UPDATE
		SET status = EXCLUDED.status,
		    current_period_end = EXCLUDED.current_period_end,
		    updated_at = now()
		RETURNING `+subscriptionColumns,
		arg.AccountID, arg.StripeCustomerID, arg.StripeSubscriptionID, arg.Status, arg.CurrentPeriodEnd)
	return scanSubscription(row)
}

type UpdateSubscriptionStatusParams struct {
	StripeSubscriptionID string
	Status               string
	CurrentPeriodEnd     pgtype.Timestamptz
}

func (q *Queries) UpdateSubscriptionStatus(ctx context.Context, arg UpdateSubscriptionStatusParams) (Subscription, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE subscriptions
		SET status = $2, current_period_end = $3, updated_at = now()
		WHERE stripe_subscription_id = $1
		RETURNING `+subscriptionColumns,
		arg.StripeSubscriptionID, arg.Status, arg.CurrentPeriodEnd)
	return scanSubscription(row)
}

func (q *Queries) GetSubscriptionByAccount(ctx context.Context, accountID uuid.UUID) (Subscription, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE account_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`, accountID)
	return scanSubscription(row)
}

func (q *Queries) GetAccountByStripeCustomer(ctx context.Context, stripeCustomerID string) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, `
		SELECT account_id FROM subscriptions
		WHERE stripe_customer_id = $1
		LIMIT 1`, stripeCustomerID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

type ListSubscriptionsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListSubscriptions(ctx context.Context, arg ListSubscriptionsParams) ([]Subscription, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2`, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
