package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// Integration tests run against a disposable Postgres; set
// DASHBOARD_TEST_DATABASE_URL to enable them. The schema is bootstrapped
// here so no migration tooling is required.

func mustOpenTestDB(t *testing.T, ctx context.Context) *DB {
	t.Helper()

	url := os.Getenv("DASHBOARD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("DASHBOARD_TEST_DATABASE_URL not set; skipping integration test")
	}

	database, err := New(ctx, url)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(database.Close)

	for _, ddl := range []string{
		`create table if not exists public.users (
			id text primary key,
			created_at timestamptz not null default now()
		)`,
		`create table if not exists public.cashflow (
			user_id text primary key references public.users(id),
			income bigint not null,
			fixed_cost bigint not null,
			variable_cost bigint not null,
			cash_reserve bigint not null,
			updated_at timestamptz not null
		)`,
		`create table if not exists public.debt (
			user_id text primary key references public.users(id),
			principal bigint not null,
			monthly_interest bigint not null,
			start_date date,
			updated_at timestamptz not null
		)`,
		`create table if not exists public.watchlist (
			user_id text not null references public.users(id),
			symbol text not null,
			created_at timestamptz not null,
			primary key (user_id, symbol)
		)`,
		`create table if not exists public.positions (
			user_id text not null references public.users(id),
			symbol text not null,
			qty bigint not null,
			avg_price double precision not null,
			updated_at timestamptz not null,
			primary key (user_id, symbol)
		)`,
		`create table if not exists public.eod_prices (
			symbol text not null,
			day text not null check (day ~ '^[0-9]{8}$'),
			close double precision not null,
			source text not null,
			updated_at timestamptz not null,
			primary key (symbol, day)
		)`,
		`create table if not exists public.plans (
			user_id text not null references public.users(id),
			symbol text not null,
			ladder_json jsonb not null,
			stop_json jsonb not null,
			max_weight double precision not null,
			risk_per_trade double precision not null,
			updated_at timestamptz not null,
			primary key (user_id, symbol)
		)`,
	} {
		if _, err := database.Pool().Exec(ctx, ddl); err != nil {
			t.Fatalf("bootstrap schema: %v", err)
		}
	}

	return database
}

func testUserID(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("it-%s-%d", t.Name(), time.Now().UnixNano())
}

func TestWatchlistAddIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	database := mustOpenTestDB(t, ctx)
	userID := testUserID(t)

	if err := database.EnsureUser(ctx, userID); err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if err := database.AddWatchlistEntry(ctx, userID, "FPT"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := database.AddWatchlistEntry(ctx, userID, "FPT"); err != nil {
		t.Fatalf("second add: %v", err)
	}

	symbols, err := database.ListWatchlistSymbols(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(symbols) != 1 || symbols[0] != "FPT" {
		t.Fatalf("expected exactly one FPT entry, got %v", symbols)
	}

	removed, err := database.RemoveWatchlistEntry(ctx, userID, "FPT")
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	removed, err = database.RemoveWatchlistEntry(ctx, userID, "FPT")
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if removed {
		t.Fatal("expected second remove to find nothing")
	}
}

func TestLatestEODPricePicksMaxDay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	database := mustOpenTestDB(t, ctx)
	sym := fmt.Sprintf("IT%d", time.Now().UnixNano()%1_000_000)

	missing, err := database.LatestEODPrice(ctx, sym)
	if err != nil {
		t.Fatalf("lookup before ingest: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected no price, got %+v", missing)
	}

	err = database.UpsertEODPrices(ctx, []EODPrice{
		{Symbol: sym, Day: "20240101", Close: 90_000, Source: "manual"},
		{Symbol: sym, Day: "20240102", Close: 90_500, Source: "manual"},
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	latest, err := database.LatestEODPrice(ctx, sym)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if latest == nil || latest.Day != "20240102" || latest.Close != 90_500 {
		t.Fatalf("expected 20240102 close 90500, got %+v", latest)
	}
}

func TestUpsertEODPricesIsAtomic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	database := mustOpenTestDB(t, ctx)
	good := fmt.Sprintf("OK%d", time.Now().UnixNano()%1_000_000)

	// The second row violates the day-key check constraint mid-batch; the
	// first row must roll back with it.
	err := database.UpsertEODPrices(ctx, []EODPrice{
		{Symbol: good, Day: "20240103", Close: 100, Source: "manual"},
		{Symbol: good, Day: "not-a-day", Close: 100, Source: "manual"},
	})
	if err == nil {
		t.Fatal("expected batch with malformed day to fail")
	}

	latest, err := database.LatestEODPrice(ctx, good)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected rollback to remove all rows for %s, got %+v", good, latest)
	}
}

func TestPlanRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	database := mustOpenTestDB(t, ctx)
	userID := testUserID(t)

	if err := database.EnsureUser(ctx, userID); err != nil {
		t.Fatalf("ensure user: %v", err)
	}

	row := PlanRow{
		UserID:       userID,
		Symbol:       "FPT",
		LadderJSON:   []byte(`{"levels":[{"price":10}]}`),
		StopJSON:     []byte(`{"stop_total":5}`),
		MaxWeight:    0.2,
		RiskPerTrade: 0.01,
	}
	if err := database.UpsertPlan(ctx, row); err != nil {
		t.Fatalf("upsert plan: %v", err)
	}

	plans, err := database.FetchPlansForUser(ctx, userID)
	if err != nil {
		t.Fatalf("fetch plans: %v", err)
	}
	if len(plans) != 1 {
		t.Fatalf("expected one plan, got %d", len(plans))
	}
	if plans[0].Symbol != "FPT" || plans[0].MaxWeight != 0.2 || plans[0].RiskPerTrade != 0.01 {
		t.Fatalf("unexpected plan row: %+v", plans[0])
	}
}
