package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// EnsureUser registers the opaque user id if it is not known yet. Every
// write path calls this first so child rows always reference an existing
// user.
func (d *DB) EnsureUser(ctx context.Context, userID string) error {
	_, err := d.pool.Exec(ctx, `
		insert into public.users (id, created_at)
		values ($1, now())
		on conflict (id) do nothing
	`, userID)
	return err
}

func (d *DB) UpsertCashflowProfile(ctx context.Context, profile CashflowProfile) error {
	_, err := d.pool.Exec(ctx, `
		insert into public.cashflow (user_id, income, fixed_cost, variable_cost, cash_reserve, updated_at)
		values ($1, $2, $3, $4, $5, now())
		on conflict (user_id)
		do update set
			income = excluded.income,
			fixed_cost = excluded.fixed_cost,
			variable_cost = excluded.variable_cost,
			cash_reserve = excluded.cash_reserve,
			updated_at = excluded.updated_at
	`, profile.UserID, profile.Income, profile.FixedCost, profile.VariableCost, profile.CashReserve)
	return err
}

func (d *DB) UpsertDebtProfile(ctx context.Context, profile DebtProfile) error {
	_, err := d.pool.Exec(ctx, `
		insert into public.debt (user_id, principal, monthly_interest, start_date, updated_at)
		values ($1, $2, $3, $4, now())
		on conflict (user_id)
		do update set
			principal = excluded.principal,
			monthly_interest = excluded.monthly_interest,
			start_date = excluded.start_date,
			updated_at = excluded.updated_at
	`, profile.UserID, profile.Principal, profile.MonthlyInterest, profile.StartDate)
	return err
}

// FetchCashflowProfile returns (nil, nil) when the user has no profile;
// absence is a default, not an error.
func (d *DB) FetchCashflowProfile(ctx context.Context, userID string) (*CashflowProfile, error) {
	row := d.pool.QueryRow(ctx, `
		select user_id, income, fixed_cost, variable_cost, cash_reserve, updated_at
		from public.cashflow
		where user_id = $1
	`, userID)

	var profile CashflowProfile
	if err := row.Scan(&profile.UserID, &profile.Income, &profile.FixedCost, &profile.VariableCost, &profile.CashReserve, &profile.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FetchDebtProfile returns (nil, nil) when the user has no debt profile.
func (d *DB) FetchDebtProfile(ctx context.Context, userID string) (*DebtProfile, error) {
	row := d.pool.QueryRow(ctx, `
		select user_id, principal, monthly_interest, start_date, updated_at
		from public.debt
		where user_id = $1
	`, userID)

	var profile DebtProfile
	var startDate *time.Time
	if err := row.Scan(&profile.UserID, &profile.Principal, &profile.MonthlyInterest, &startDate, &profile.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	profile.StartDate = startDate
	return &profile, nil
}
