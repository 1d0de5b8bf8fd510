package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// UpsertEODPrices writes one day's closing prices as a single transaction:
// either every row lands or none does, so a day's dataset can never be
// half-applied across symbols.
func (d *DB) UpsertEODPrices(ctx context.Context, prices []EODPrice) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, price := range prices {
		batch.Queue(`
			insert into public.eod_prices (symbol, day, close, source, updated_at)
			values ($1, $2, $3, $4, now())
			on conflict (symbol, day)
			do update set close = excluded.close, source = excluded.source, updated_at = excluded.updated_at
		`, price.Symbol, price.Day, price.Close, price.Source)
	}

	br := tx.SendBatch(ctx, batch)
	for range prices {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// LatestEODPrice resolves the maximum-day row for a symbol. (nil, nil)
// means no price has ever been ingested; that is distinct from a zero
// close and is never fabricated.
func (d *DB) LatestEODPrice(ctx context.Context, sym string) (*EODPrice, error) {
	row := d.pool.QueryRow(ctx, `
		select symbol, day, close, source, updated_at
		from public.eod_prices
		where symbol = $1
		order by day desc
		limit 1
	`, sym)

	var price EODPrice
	if err := row.Scan(&price.Symbol, &price.Day, &price.Close, &price.Source, &price.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}
