package db

import "context"

// UpsertPosition replaces the whole row; there is no incremental
// accumulation of quantity or cost.
func (d *DB) UpsertPosition(ctx context.Context, pos Position) error {
	_, err := d.pool.Exec(ctx, `
		insert into public.positions (user_id, symbol, qty, avg_price, updated_at)
		values ($1, $2, $3, $4, now())
		on conflict (user_id, symbol)
		do update set
			qty = excluded.qty,
			avg_price = excluded.avg_price,
			updated_at = excluded.updated_at
	`, pos.UserID, pos.Symbol, pos.Qty, pos.AvgPrice)
	return err
}

func (d *DB) FetchPositionsForUser(ctx context.Context, userID string) ([]Position, error) {
	rows, err := d.pool.Query(ctx, `
		select user_id, symbol, qty, avg_price, updated_at
		from public.positions
		where user_id = $1
		order by symbol
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var pos Position
		if err := rows.Scan(&pos.UserID, &pos.Symbol, &pos.Qty, &pos.AvgPrice, &pos.UpdatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}
