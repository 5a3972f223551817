package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"dexPricer/internal/model"
)

// Store provides Postgres persistence for entities and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// LoadPair returns the pair with the given id.
func (s *Store) LoadPair(ctx context.Context, id string) (model.Pair, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, token0, token1, reserve0::text, reserve1::text, reserve_reference::text,
			token0_price::text, token1_price::text, liquidity_provider_count
		FROM pairs WHERE id = $1
	`, strings.ToLower(id))

	var pair model.Pair
	var reserve0, reserve1, reserveRef, price0, price1 string
	if err := row.Scan(&pair.ID, &pair.Token0ID, &pair.Token1ID, &reserve0, &reserve1, &reserveRef, &price0, &price1, &pair.LiquidityProviderCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pair{}, false, nil
		}
		return model.Pair{}, false, err
	}

	var err error
	if pair.Reserve0, err = parseNumeric("reserve0", reserve0); err != nil {
		return model.Pair{}, false, err
	}
	if pair.Reserve1, err = parseNumeric("reserve1", reserve1); err != nil {
		return model.Pair{}, false, err
	}
	if pair.ReserveReference, err = parseNumeric("reserve_reference", reserveRef); err != nil {
		return model.Pair{}, false, err
	}
	if pair.Token0Price, err = parseNumeric("token0_price", price0); err != nil {
		return model.Pair{}, false, err
	}
	if pair.Token1Price, err = parseNumeric("token1_price", price1); err != nil {
		return model.Pair{}, false, err
	}
	return pair, true, nil
}

// LoadToken returns the token with the given id.
func (s *Store) LoadToken(ctx context.Context, id string) (model.Token, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, symbol, name, decimals, derived_reference_price::text
		FROM tokens WHERE id = $1
	`, strings.ToLower(id))

	var token model.Token
	var decimals int16
	var derived *string
	if err := row.Scan(&token.ID, &token.Symbol, &token.Name, &decimals, &derived); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Token{}, false, nil
		}
		return model.Token{}, false, err
	}
	token.Decimals = uint8(decimals)
	if derived != nil {
		price, err := parseNumeric("derived_reference_price", *derived)
		if err != nil {
			return model.Token{}, false, err
		}
		token.DerivedReferencePrice = decimal.NewNullDecimal(price)
	}
	return token, true, nil
}

// LoadBundle returns the reference bundle.
func (s *Store) LoadBundle(ctx context.Context) (model.Bundle, bool, error) {
	var bundle model.Bundle
	var price string
	row := s.pool.QueryRow(ctx, `SELECT id, reference_price_usd::text FROM bundles WHERE id = $1`, model.BundleID)
	if err := row.Scan(&bundle.ID, &price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bundle{}, false, nil
		}
		return model.Bundle{}, false, err
	}
	parsed, err := parseNumeric("reference_price_usd", price)
	if err != nil {
		return model.Bundle{}, false, err
	}
	bundle.ReferencePriceUSD = parsed
	return bundle, true, nil
}

// PairAddress resolves a pair id from its tokens, in either order.
func (s *Store) PairAddress(ctx context.Context, tokenA, tokenB string) (string, bool, error) {
	a, b := strings.ToLower(tokenA), strings.ToLower(tokenB)
	var id string
	row := s.pool.QueryRow(ctx, `
		SELECT id FROM pairs
		WHERE (token0 = $1 AND token1 = $2) OR (token0 = $2 AND token1 = $1)
		LIMIT 1
	`, a, b)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

// SaveBundle upserts the reference bundle.
func (s *Store) SaveBundle(ctx context.Context, bundle model.Bundle) error {
	if bundle.ID == "" {
		bundle.ID = model.BundleID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bundles (id, reference_price_usd, updated_at)
		VALUES ($1, $2::numeric, now())
		ON CONFLICT (id) DO UPDATE
		SET reference_price_usd = EXCLUDED.reference_price_usd, updated_at = now()
	`, bundle.ID, bundle.ReferencePriceUSD.String())
	return err
}

// SaveTokenPrice upserts the derived reference price of a token.
func (s *Store) SaveTokenPrice(ctx context.Context, tokenID string, price decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (id, derived_reference_price, updated_at)
		VALUES ($1, $2::numeric, now())
		ON CONFLICT (id) DO UPDATE
		SET derived_reference_price = EXCLUDED.derived_reference_price, updated_at = now()
	`, strings.ToLower(tokenID), price.String())
	return err
}

// PutPair upserts a pair row.
func (s *Store) PutPair(ctx context.Context, pair model.Pair) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pairs (
			id, token0, token1, reserve0, reserve1, reserve_reference,
			token0_price, token1_price, liquidity_provider_count, updated_at
		) VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6::numeric,$7::numeric,$8::numeric,$9,now())
		ON CONFLICT (id) DO UPDATE SET
			token0 = EXCLUDED.token0,
			token1 = EXCLUDED.token1,
			reserve0 = EXCLUDED.reserve0,
			reserve1 = EXCLUDED.reserve1,
			reserve_reference = EXCLUDED.reserve_reference,
			token0_price = EXCLUDED.token0_price,
			token1_price = EXCLUDED.token1_price,
			liquidity_provider_count = EXCLUDED.liquidity_provider_count,
			updated_at = now()
	`,
		strings.ToLower(pair.ID),
		strings.ToLower(pair.Token0ID),
		strings.ToLower(pair.Token1ID),
		pair.Reserve0.String(),
		pair.Reserve1.String(),
		pair.ReserveReference.String(),
		pair.Token0Price.String(),
		pair.Token1Price.String(),
		pair.LiquidityProviderCount,
	)
	return err
}

// PutToken upserts a token row.
func (s *Store) PutToken(ctx context.Context, token model.Token) error {
	var derived *string
	if token.DerivedReferencePrice.Valid {
		value := token.DerivedReferencePrice.Decimal.String()
		derived = &value
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (id, symbol, name, decimals, derived_reference_price, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, now())
		ON CONFLICT (id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			decimals = EXCLUDED.decimals,
			derived_reference_price = EXCLUDED.derived_reference_price,
			updated_at = now()
	`, strings.ToLower(token.ID), token.Symbol, token.Name, int16(token.Decimals), derived)
	return err
}

// UpsertWindowMetrics inserts or updates pair window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PairWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pair_window_metrics (
				chain_id, pair_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, untracked_swaps, volume0, volume1, tracked_volume_usd,
				first_block, last_block, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9::numeric,$10::numeric,$11,$12,now(),now())
			ON CONFLICT (chain_id, pair_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				untracked_swaps = EXCLUDED.untracked_swaps,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1,
				tracked_volume_usd = EXCLUDED.tracked_volume_usd,
				first_block = LEAST(pair_window_metrics.first_block, EXCLUDED.first_block),
				last_block = GREATEST(pair_window_metrics.last_block, EXCLUDED.last_block),
				updated_at = now()
		`,
			int64(m.ChainID),
			m.PairAddress,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.UntrackedSwaps),
			m.Volume0.String(),
			m.Volume1.String(),
			m.TrackedVolumeUSD.String(),
			int64(m.FirstBlock),
			int64(m.LastBlock),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(ts))
	return err
}

func parseNumeric(column, value string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", column, err)
	}
	return parsed, nil
}
