package repository

import (
	"context"
	"errors"
	"fmt"

	"discounter/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const uniqueViolation = "23505"

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// conn returns the transaction carried by ctx, if any, or the pool.
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

const selectCampaign = `
	SELECT amount_value, currency, brand, voucher_expires, campaign_begins,
		campaign_ends, max_issued, num_issued
	FROM campaigns
	WHERE id = $1
`

// campaignRepository implements CampaignRepository using PostgreSQL.
type campaignRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	newKey func() string
}

// NewCampaignRepository creates a new PostgreSQL-backed campaign repository.
func NewCampaignRepository(pool *pgxpool.Pool, logger zerolog.Logger, opts ...Option) CampaignRepository {
	o := buildOptions(opts)
	return &campaignRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "campaign").Logger(),
		newKey: o.newKey,
	}
}

// Persist inserts a campaign under a fresh identifier, or upserts it under key.
func (r *campaignRepository) Persist(ctx context.Context, c model.Campaign, key string) (string, error) {
	if key == "" {
		key = r.newKey()

		query := `
			INSERT INTO campaigns (id, amount_value, currency, brand, voucher_expires,
				campaign_begins, campaign_ends, max_issued, num_issued)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err := conn(ctx, r.pool).Exec(ctx, query, campaignArgs(key, c)...)
		if err != nil {
			if isUniqueViolation(err) {
				panic(fmt.Sprintf("repository: generated campaign id %q already present", key))
			}
			r.logger.Error().Err(err).Msg("failed to insert campaign")
			return "", fmt.Errorf("failed to insert campaign: %w", err)
		}

		r.logger.Debug().Str("campaign_id", key).Msg("campaign inserted")
		return key, nil
	}

	query := `
		INSERT INTO campaigns (id, amount_value, currency, brand, voucher_expires,
			campaign_begins, campaign_ends, max_issued, num_issued)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			amount_value = EXCLUDED.amount_value,
			currency = EXCLUDED.currency,
			brand = EXCLUDED.brand,
			voucher_expires = EXCLUDED.voucher_expires,
			campaign_begins = EXCLUDED.campaign_begins,
			campaign_ends = EXCLUDED.campaign_ends,
			max_issued = EXCLUDED.max_issued,
			num_issued = EXCLUDED.num_issued
	`
	_, err := conn(ctx, r.pool).Exec(ctx, query, campaignArgs(key, c)...)
	if err != nil {
		r.logger.Error().Err(err).Str("campaign_id", key).Msg("failed to upsert campaign")
		return "", fmt.Errorf("failed to upsert campaign: %w", err)
	}

	return key, nil
}

// Get retrieves a campaign by its identifier.
func (r *campaignRepository) Get(ctx context.Context, key string) (model.Campaign, error) {
	c, err := scanCampaign(conn(ctx, r.pool).QueryRow(ctx, selectCampaign, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("campaign_id", key).Msg("campaign not found")
			return model.Campaign{}, ErrNotFound
		}
		r.logger.Error().Err(err).Str("campaign_id", key).Msg("failed to query campaign")
		return model.Campaign{}, fmt.Errorf("failed to query campaign: %w", err)
	}
	return c, nil
}

// Update locks the campaign row for the duration of fn. Vouchers persisted
// through the context handed to fn commit or roll back with the campaign.
func (r *campaignRepository) Update(ctx context.Context, key string, fn func(context.Context, model.Campaign) (model.Campaign, error)) (model.Campaign, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return model.Campaign{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	current, err := scanCampaign(tx.QueryRow(ctx, selectCampaign+" FOR UPDATE", key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Campaign{}, ErrNotFound
		}
		r.logger.Error().Err(err).Str("campaign_id", key).Msg("failed to lock campaign")
		return model.Campaign{}, fmt.Errorf("failed to lock campaign: %w", err)
	}

	updated, err := fn(context.WithValue(ctx, txKey{}, tx), current)
	if err != nil {
		return model.Campaign{}, err
	}

	query := `
		UPDATE campaigns SET
			amount_value = $2, currency = $3, brand = $4, voucher_expires = $5,
			campaign_begins = $6, campaign_ends = $7, max_issued = $8, num_issued = $9
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, campaignArgs(key, updated)...); err != nil {
		r.logger.Error().Err(err).Str("campaign_id", key).Msg("failed to update campaign")
		return model.Campaign{}, fmt.Errorf("failed to update campaign: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("campaign_id", key).Msg("failed to commit campaign update")
		return model.Campaign{}, fmt.Errorf("failed to commit campaign update: %w", err)
	}

	return updated, nil
}

func campaignArgs(key string, c model.Campaign) []any {
	return []any{
		key,
		c.Amount.Value,
		string(c.Amount.Currency),
		c.Brand,
		c.VoucherExpires,
		c.CampaignBegins,
		c.CampaignEnds,
		c.MaxIssued,
		c.NumIssued,
	}
}

func scanCampaign(row pgx.Row) (model.Campaign, error) {
	var (
		c        model.Campaign
		currency string
	)
	err := row.Scan(
		&c.Amount.Value,
		&currency,
		&c.Brand,
		&c.VoucherExpires,
		&c.CampaignBegins,
		&c.CampaignEnds,
		&c.MaxIssued,
		&c.NumIssued,
	)
	if err != nil {
		return model.Campaign{}, err
	}

	c.Amount.Currency = model.Currency(currency)
	c.VoucherExpires = c.VoucherExpires.UTC()
	c.CampaignBegins = c.CampaignBegins.UTC()
	c.CampaignEnds = c.CampaignEnds.UTC()
	return c, nil
}

// voucherRepository implements VoucherRepository using PostgreSQL.
type voucherRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	newKey func() string
}

// NewVoucherRepository creates a new PostgreSQL-backed voucher repository.
func NewVoucherRepository(pool *pgxpool.Pool, logger zerolog.Logger, opts ...Option) VoucherRepository {
	o := buildOptions(opts)
	return &voucherRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "voucher").Logger(),
		newKey: o.newKey,
	}
}

// Persist stores a voucher. Vouchers are normally keyed by their code.
func (r *voucherRepository) Persist(ctx context.Context, v model.Voucher, key string) (string, error) {
	fresh := key == ""
	if fresh {
		key = r.newKey()
	}

	query := `
		INSERT INTO vouchers (code, amount_value, currency, brand, voucher_expires,
			claimant, issued, consumed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if !fresh {
		query += `
		ON CONFLICT (code) DO UPDATE SET
			amount_value = EXCLUDED.amount_value,
			currency = EXCLUDED.currency,
			brand = EXCLUDED.brand,
			voucher_expires = EXCLUDED.voucher_expires,
			claimant = EXCLUDED.claimant,
			issued = EXCLUDED.issued,
			consumed = EXCLUDED.consumed
		`
	}

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		key,
		v.Amount.Value,
		string(v.Amount.Currency),
		v.Brand,
		v.VoucherExpires,
		v.Claimant,
		v.Issued,
		v.Consumed,
	)
	if err != nil {
		if fresh && isUniqueViolation(err) {
			panic(fmt.Sprintf("repository: generated voucher code %q already present", key))
		}
		r.logger.Error().Err(err).Str("code", key).Msg("failed to persist voucher")
		return "", fmt.Errorf("failed to persist voucher: %w", err)
	}

	r.logger.Debug().Str("code", key).Msg("voucher persisted")
	return key, nil
}

// Get retrieves a voucher by its code.
func (r *voucherRepository) Get(ctx context.Context, key string) (model.Voucher, error) {
	query := `
		SELECT code, amount_value, currency, brand, voucher_expires, claimant, issued, consumed
		FROM vouchers
		WHERE code = $1
	`

	var (
		v        model.Voucher
		currency string
	)
	err := conn(ctx, r.pool).QueryRow(ctx, query, key).Scan(
		&v.Code,
		&v.Amount.Value,
		&currency,
		&v.Brand,
		&v.VoucherExpires,
		&v.Claimant,
		&v.Issued,
		&v.Consumed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("code", key).Msg("voucher not found")
			return model.Voucher{}, ErrNotFound
		}
		r.logger.Error().Err(err).Str("code", key).Msg("failed to query voucher")
		return model.Voucher{}, fmt.Errorf("failed to query voucher: %w", err)
	}

	v.Amount.Currency = model.Currency(currency)
	v.VoucherExpires = v.VoucherExpires.UTC()
	v.Issued = v.Issued.UTC()
	return v, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
