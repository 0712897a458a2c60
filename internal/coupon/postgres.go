package coupon

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/lib/pq"

	"github.com/heritage-handlooms/checkout-api/internal/discount"
)

// Schema creates the coupons table used by PostgresStore
const Schema = `
CREATE TABLE IF NOT EXISTS coupons (
	id               TEXT PRIMARY KEY,
	code             TEXT NOT NULL UNIQUE,
	description      TEXT NOT NULL DEFAULT '',
	type             TEXT NOT NULL,
	discount_value   NUMERIC(12,2) NOT NULL DEFAULT 0,
	max_discount     NUMERIC(12,2),
	min_order_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
	usage_limit      INTEGER,
	used_count       INTEGER NOT NULL DEFAULT 0,
	valid_from       TIMESTAMPTZ NOT NULL,
	valid_until      TIMESTAMPTZ NOT NULL,
	is_active        BOOLEAN NOT NULL DEFAULT TRUE,
	first_time_only  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	CHECK (valid_from < valid_until),
	CHECK (usage_limit IS NULL OR used_count <= usage_limit)
)`

const couponColumns = `id, code, description, type, discount_value, max_discount, min_order_amount,
	usage_limit, used_count, valid_from, valid_until, is_active, first_time_only, created_at, updated_at`

// pq reports unique constraint violations with this SQLSTATE
const uniqueViolation = "23505"

// PostgresStore keeps coupons in a PostgreSQL table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the coupons table if it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return errors.Wrap(err, "create coupons table")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (discount.Coupon, error) {
	var (
		c     discount.Coupon
		typ   string
		limit sql.NullInt64
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &typ, &c.DiscountValue, &c.MaxDiscount, &c.MinOrderAmount,
		&limit, &c.UsedCount, &c.ValidFrom, &c.ValidUntil, &c.IsActive, &c.FirstTimeOnly,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return discount.Coupon{}, err
	}
	c.Type = discount.Type(typ)
	if limit.Valid {
		n := int(limit.Int64)
		c.UsageLimit = &n
	}
	return c, nil
}

func nullableLimit(limit *int) sql.NullInt64 {
	if limit == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*limit), Valid: true}
}

// Get returns the coupon with the given code
func (s *PostgresStore) Get(ctx context.Context, code string) (discount.Coupon, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`, discount.NormalizeCode(code))
	c, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return discount.Coupon{}, discount.ErrCodeNotFound
	}
	if err != nil {
		return discount.Coupon{}, errors.Wrap(err, "select coupon by code")
	}
	return c, nil
}

// GetByID returns the coupon with the given id
func (s *PostgresStore) GetByID(ctx context.Context, id string) (discount.Coupon, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id)
	c, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return discount.Coupon{}, ErrCouponNotFound
	}
	if err != nil {
		return discount.Coupon{}, errors.Wrap(err, "select coupon by id")
	}
	return c, nil
}

// List returns every coupon, oldest first
func (s *PostgresStore) List(ctx context.Context) ([]discount.Coupon, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at, code`)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	defer rows.Close()

	var coupons []discount.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan coupon")
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate coupons")
	}
	return coupons, nil
}

// Create inserts a new coupon
func (s *PostgresStore) Create(ctx context.Context, c discount.Coupon) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coupons (`+couponColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		c.ID, discount.NormalizeCode(c.Code), c.Description, string(c.Type), c.DiscountValue, c.MaxDiscount,
		c.MinOrderAmount, nullableLimit(c.UsageLimit), c.UsedCount, c.ValidFrom, c.ValidUntil,
		c.IsActive, c.FirstTimeOnly, c.CreatedAt, c.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicateCode
	}
	if err != nil {
		return errors.Wrap(err, "insert coupon")
	}
	return nil
}

// Update overwrites the coupon with the same id. Code and used_count are left alone.
func (s *PostgresStore) Update(ctx context.Context, c discount.Coupon) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE coupons SET
			description = $2, type = $3, discount_value = $4, max_discount = $5, min_order_amount = $6,
			usage_limit = $7, valid_from = $8, valid_until = $9, is_active = $10,
			first_time_only = $11, updated_at = $12
		WHERE id = $1`,
		c.ID, c.Description, string(c.Type), c.DiscountValue, c.MaxDiscount, c.MinOrderAmount,
		nullableLimit(c.UsageLimit), c.ValidFrom, c.ValidUntil, c.IsActive,
		c.FirstTimeOnly, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "update coupon")
	}
	return requireOneRow(res)
}

// Delete removes the coupon with the given id
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete coupon")
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrCouponNotFound
	}
	return nil
}

// Redeem locks the coupon row, re-checks it at now and increments used_count
// inside one transaction
func (s *PostgresStore) Redeem(ctx context.Context, code string, now time.Time) (discount.Coupon, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return discount.Coupon{}, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1 FOR UPDATE`, discount.NormalizeCode(code))
	c, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return discount.Coupon{}, discount.ErrCodeNotFound
	}
	if err != nil {
		return discount.Coupon{}, errors.Wrap(err, "lock coupon")
	}
	if err := discount.Check(c, now, false); err != nil {
		return discount.Coupon{}, err
	}

	updated := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE coupons SET used_count = used_count + 1, updated_at = $2 WHERE id = $1`, c.ID, updated); err != nil {
		return discount.Coupon{}, errors.Wrap(err, "increment used_count")
	}
	if err := tx.Commit(); err != nil {
		return discount.Coupon{}, errors.Wrap(err, "commit redemption")
	}

	c.UsedCount++
	c.UpdatedAt = updated
	return c, nil
}
