package db

import "time"

// Amounts are whole currency units (int64); prices can carry fractions and
// stay float64 end to end, matching the JSON wire format.

type CashflowProfile struct {
	UserID       string
	Income       int64
	FixedCost    int64
	VariableCost int64
	CashReserve  int64
	UpdatedAt    time.Time
}

type DebtProfile struct {
	UserID          string
	Principal       int64
	MonthlyInterest int64
	StartDate       *time.Time
	UpdatedAt       time.Time
}

type Position struct {
	UserID    string
	Symbol    string
	Qty       int64
	AvgPrice  float64
	UpdatedAt time.Time
}

// EODPrice is the single closing price for a symbol on one calendar day.
// Day is a YYYYMMDD key, not a timestamp.
type EODPrice struct {
	Symbol    string
	Day       string
	Close     float64
	Source    string
	UpdatedAt time.Time
}

// PlanRow stores the ladder and stop payloads as JSON; they are validated
// on write and decoded leniently on read by the plan package.
type PlanRow struct {
	UserID       string
	Symbol       string
	LadderJSON   []byte
	StopJSON     []byte
	MaxWeight    float64
	RiskPerTrade float64
	UpdatedAt    time.Time
}
