package db

import "context"

// AddWatchlistEntry is idempotent: adding a symbol twice leaves one row.
func (d *DB) AddWatchlistEntry(ctx context.Context, userID, sym string) error {
	_, err := d.pool.Exec(ctx, `
		insert into public.watchlist (user_id, symbol, created_at)
		values ($1, $2, now())
		on conflict (user_id, symbol) do nothing
	`, userID, sym)
	return err
}

func (d *DB) RemoveWatchlistEntry(ctx context.Context, userID, sym string) (bool, error) {
	tag, err := d.pool.Exec(ctx, `
		delete from public.watchlist
		where user_id = $1 and symbol = $2
	`, userID, sym)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (d *DB) ListWatchlistSymbols(ctx context.Context, userID string) ([]string, error) {
	rows, err := d.pool.Query(ctx, `
		select symbol
		from public.watchlist
		where user_id = $1
		order by symbol
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}
