package survive

import "github.com/shopspring/decimal"

const (
	// DefaultMonthlyInterest is assumed when a user has no debt profile.
	DefaultMonthlyInterest int64 = 1_000_000

	// DefaultBufferMonths is the required interest-buffer horizon when the
	// service is not configured otherwise.
	DefaultBufferMonths = 12

	// UnboundedRunwayMonths is a saturating sentinel, not a real month
	// count: it is reported when monthly burn is zero, i.e. income covers
	// all costs and interest. Consumers must not do arithmetic with it.
	UnboundedRunwayMonths float64 = 999
)

// weeksPerMonth is the average number of weeks in a calendar month.
var weeksPerMonth = decimal.NewFromFloat(4.33)

// Inputs are the cash-flow and debt figures survivability is derived from.
// All amounts are whole currency units; absent profiles map to zero values
// (cash flow) or DefaultMonthlyInterest (debt) upstream.
type Inputs struct {
	Income          int64
	FixedCost       int64
	VariableCost    int64
	CashReserve     int64
	MonthlyInterest int64

	// RequiredBufferMonths defaults to DefaultBufferMonths when <= 0.
	RequiredBufferMonths int
}

// Metrics is the derived survivability picture for one user.
type Metrics struct {
	MonthlyInterest        int64
	CashReserve            int64
	RequiredCashBuffer     int64
	FreeCashBeforeInterest int64
	Burn                   int64
	RunwayTotalMonths      float64
	RunwayUnbounded        bool
	WeeklyInterestEst      int64
	CashBufferOK           bool
}

// Compute derives runway and buffer-adequacy metrics. There are no error
// cases: every input is a plain number and every derivation is total.
func Compute(in Inputs) Metrics {
	bufferMonths := in.RequiredBufferMonths
	if bufferMonths <= 0 {
		bufferMonths = DefaultBufferMonths
	}

	m := Metrics{
		MonthlyInterest:        in.MonthlyInterest,
		CashReserve:            in.CashReserve,
		RequiredCashBuffer:     in.MonthlyInterest * int64(bufferMonths),
		FreeCashBeforeInterest: in.Income - in.FixedCost - in.VariableCost,
	}

	burn := in.FixedCost + in.VariableCost + in.MonthlyInterest - in.Income
	if burn < 0 {
		burn = 0
	}
	m.Burn = burn

	if burn > 0 {
		m.RunwayTotalMonths = decimal.NewFromInt(in.CashReserve).
			Div(decimal.NewFromInt(burn)).
			InexactFloat64()
	} else {
		m.RunwayTotalMonths = UnboundedRunwayMonths
		m.RunwayUnbounded = true
	}

	m.WeeklyInterestEst = decimal.NewFromInt(in.MonthlyInterest).
		Div(weeksPerMonth).
		Round(0).
		IntPart()

	m.CashBufferOK = in.CashReserve >= m.RequiredCashBuffer

	return m
}

// State is the discrete risk severity shown next to every watched symbol.
type State string

const (
	StateGreen  State = "GREEN"
	StateYellow State = "YELLOW"
	StateOrange State = "ORANGE"
	StateRed    State = "RED"
)

// Classify maps survivability metrics to a risk state. The rules form a
// cascade where the last matching rule wins; in particular a failed cash
// buffer always ends on RED even when the runway alone would read GREEN.
// The rule order is load-bearing observed behavior; do not reorder.
func Classify(m Metrics) State {
	state := StateYellow
	if m.CashBufferOK && m.RunwayTotalMonths >= 12 {
		state = StateGreen
	}
	if !m.CashBufferOK || m.RunwayTotalMonths < 6 {
		state = StateOrange
	}
	if !m.CashBufferOK || m.RunwayTotalMonths < 3 {
		state = StateRed
	}
	return state
}
