package db

import "context"

func (d *DB) UpsertPlan(ctx context.Context, row PlanRow) error {
	_, err := d.pool.Exec(ctx, `
		insert into public.plans (user_id, symbol, ladder_json, stop_json, max_weight, risk_per_trade, updated_at)
		values ($1, $2, $3, $4, $5, $6, now())
		on conflict (user_id, symbol)
		do update set
			ladder_json = excluded.ladder_json,
			stop_json = excluded.stop_json,
			max_weight = excluded.max_weight,
			risk_per_trade = excluded.risk_per_trade,
			updated_at = excluded.updated_at
	`, row.UserID, row.Symbol, row.LadderJSON, row.StopJSON, row.MaxWeight, row.RiskPerTrade)
	return err
}

func (d *DB) FetchPlansForUser(ctx context.Context, userID string) ([]PlanRow, error) {
	rows, err := d.pool.Query(ctx, `
		select user_id, symbol, ladder_json, stop_json, max_weight, risk_per_trade, updated_at
		from public.plans
		where user_id = $1
		order by symbol
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []PlanRow
	for rows.Next() {
		var row PlanRow
		if err := rows.Scan(&row.UserID, &row.Symbol, &row.LadderJSON, &row.StopJSON, &row.MaxWeight, &row.RiskPerTrade, &row.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, row)
	}
	return plans, rows.Err()
}
