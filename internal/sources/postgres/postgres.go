// Package postgres implements the curated venue store over PostgreSQL.
//
// The schema has three tables: cafes, prices (one row per venue and
// case-insensitive item name) and reviews, whose mean rating is reported as
// the venue's average rating.
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/agentstation/venuemap/pkg/errors"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/sources"
	"github.com/agentstation/venuemap/pkg/venues"
)

// Compile-time interface checks.
var (
	_ sources.Curated       = (*Store)(nil)
	_ sources.VenueUpserter = (*Store)(nil)
	_ sources.Closer        = (*Store)(nil)
)

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the tables when missing.
const Schema = `
CREATE TABLE IF NOT EXISTS cafes (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	latitude   DOUBLE PRECISION NOT NULL,
	longitude  DOUBLE PRECISION NOT NULL,
	address    TEXT NOT NULL DEFAULT '',
	website    TEXT NOT NULL DEFAULT '',
	menu_url   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS prices (
	id         UUID PRIMARY KEY,
	cafe_id    TEXT NOT NULL REFERENCES cafes(id) ON DELETE CASCADE,
	item_name  TEXT NOT NULL,
	price      NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
	currency   CHAR(3) NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS prices_cafe_item ON prices (cafe_id, lower(item_name));
CREATE TABLE IF NOT EXISTS reviews (
	id         UUID PRIMARY KEY,
	cafe_id    TEXT NOT NULL REFERENCES cafes(id) ON DELETE CASCADE,
	rating     REAL NOT NULL CHECK (rating BETWEEN 1 AND 5),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const listCafes = `
SELECT c.id, c.name, c.latitude, c.longitude, c.address, c.website, c.menu_url,
       avg(r.rating)::float8
FROM cafes c
LEFT JOIN reviews r ON r.cafe_id = c.id
GROUP BY c.id
ORDER BY c.created_at, c.id`

const listPrices = `
SELECT cafe_id, item_name, price::text, currency, updated_at
FROM prices
ORDER BY cafe_id, updated_at`

const upsertPrice = `
INSERT INTO prices (id, cafe_id, item_name, price, currency, updated_at)
VALUES ($1, $2, $3, $4::numeric, $5, $6)
ON CONFLICT (cafe_id, lower(item_name))
DO UPDATE SET item_name = EXCLUDED.item_name, price = EXCLUDED.price,
              currency = EXCLUDED.currency, updated_at = EXCLUDED.updated_at`

const upsertCafe = `
INSERT INTO cafes (id, name, latitude, longitude, address, website, menu_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id)
DO UPDATE SET name = EXCLUDED.name, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
              address = EXCLUDED.address, website = EXCLUDED.website, menu_url = EXCLUDED.menu_url`

const insertReview = `INSERT INTO reviews (id, cafe_id, rating) VALUES ($1, $2, $3)`

// Store is a curated source backed by PostgreSQL.
type Store struct {
	db   DB
	pool *pgxpool.Pool
	now  func() time.Time
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.NewConfigError("postgres", "invalid connection string", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapFetch(sources.PostgresID.String(), err)
	}
	s := New(pool)
	s.pool = pool
	return s, nil
}

// New wraps an existing connection.
func New(db DB) *Store {
	return &Store{db: db, now: time.Now}
}

// ID implements sources.Curated.
func (s *Store) ID() sources.ID {
	return sources.PostgresID
}

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return errors.WrapResource("migrate", "schema", "", err)
	}
	return nil
}

// Close releases the pool when the store opened it.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

type cafeRow struct {
	venue     venues.Venue
	avgRating *float64
}

type priceRow struct {
	cafeID string
	entry  venues.PriceEntry
}

// ListVenues implements sources.Curated.
func (s *Store) ListVenues(ctx context.Context) ([]venues.Venue, error) {
	cafes, err := s.cafes(ctx)
	if err != nil {
		return nil, err
	}
	prices, err := s.prices(ctx)
	if err != nil {
		return nil, err
	}
	out := assemble(cafes, prices)
	logging.FromContext(ctx).Debug().
		Str("source", sources.PostgresID.String()).
		Int("venues", len(out)).
		Int("prices", len(prices)).
		Msg("Listed curated venues")
	return out, nil
}

func (s *Store) cafes(ctx context.Context) ([]cafeRow, error) {
	rows, err := s.db.Query(ctx, listCafes)
	if err != nil {
		return nil, errors.WrapFetch(sources.PostgresID.String(), err)
	}
	defer rows.Close()

	var out []cafeRow
	for rows.Next() {
		var r cafeRow
		if err := rows.Scan(
			&r.venue.ID, &r.venue.Name, &r.venue.Latitude, &r.venue.Longitude,
			&r.venue.Address, &r.venue.Website, &r.venue.MenuURL, &r.avgRating,
		); err != nil {
			return nil, errors.WrapParse("postgres", "cafes", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapFetch(sources.PostgresID.String(), err)
	}
	return out, nil
}

func (s *Store) prices(ctx context.Context) ([]priceRow, error) {
	rows, err := s.db.Query(ctx, listPrices)
	if err != nil {
		return nil, errors.WrapFetch(sources.PostgresID.String(), err)
	}
	defer rows.Close()

	var out []priceRow
	for rows.Next() {
		var (
			r      priceRow
			amount string
		)
		if err := rows.Scan(&r.cafeID, &r.entry.ItemName, &amount, &r.entry.Currency, &r.entry.UpdatedAt); err != nil {
			return nil, errors.WrapParse("postgres", "prices", err)
		}
		price, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, errors.WrapParse("postgres", "prices", err)
		}
		r.entry.Price = price
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapFetch(sources.PostgresID.String(), err)
	}
	return out, nil
}

// assemble attaches prices to their cafes, keeping cafe order.
func assemble(cafes []cafeRow, prices []priceRow) []venues.Venue {
	byCafe := make(map[string][]venues.PriceEntry, len(cafes))
	for _, p := range prices {
		byCafe[p.cafeID] = append(byCafe[p.cafeID], p.entry)
	}
	out := make([]venues.Venue, 0, len(cafes))
	for _, c := range cafes {
		v := c.venue
		v.Prices = byCafe[v.ID]
		if v.Prices == nil {
			v.Prices = []venues.PriceEntry{}
		}
		v.AverageRating = c.avgRating
		v.Origin = venues.OriginCurated
		out = append(out, v)
	}
	return out
}

// UpsertPrice implements sources.Curated.
func (s *Store) UpsertPrice(ctx context.Context, venueID, itemName string, price decimal.Decimal, currencyCode string) error {
	entry, err := venues.NewPriceEntry(itemName, price, currencyCode, s.now())
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, upsertPrice,
		uuid.New(), venueID, entry.ItemName, entry.Price.String(), entry.Currency, entry.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &errors.NotFoundError{Resource: "venue", ID: venueID}
		}
		return errors.WrapResource("upsert", "price", venueID, err)
	}
	logging.FromContext(ctx).Debug().
		Str("venue_id", venueID).
		Str("item", entry.ItemName).
		Int64("rows", tag.RowsAffected()).
		Msg("Upserted price")
	return nil
}

// UpsertVenue implements sources.VenueUpserter.
func (s *Store) UpsertVenue(ctx context.Context, v venues.Venue) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, upsertCafe,
		v.ID, v.Name, v.Latitude, v.Longitude, v.Address, v.Website, v.MenuURL); err != nil {
		return errors.WrapResource("upsert", "venue", v.ID, err)
	}
	return nil
}

// AddReview records a review rating in [1, 5].
func (s *Store) AddReview(ctx context.Context, venueID string, rating float64) error {
	if rating < 1 || rating > 5 {
		return errors.NewValidationError("rating", rating, "must be between 1 and 5")
	}
	if _, err := s.db.Exec(ctx, insertReview, uuid.New(), venueID, rating); err != nil {
		if isForeignKeyViolation(err) {
			return &errors.NotFoundError{Resource: "venue", ID: venueID}
		}
		return errors.WrapResource("create", "review", venueID, err)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
