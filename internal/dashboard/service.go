// Package dashboard joins a user's cash-flow profile, debt profile,
// watchlist, positions, latest end-of-day prices, and trading plans into
// one derived risk report.
package dashboard

import (
	"context"

	"github.com/siuhot/survive-invest/internal/db"
	"github.com/siuhot/survive-invest/internal/plan"
	"github.com/siuhot/survive-invest/internal/survive"
	"github.com/siuhot/survive-invest/internal/telemetry"
)

// Store is the slice of the collaborator store the aggregator reads from.
type Store interface {
	FetchCashflowProfile(ctx context.Context, userID string) (*db.CashflowProfile, error)
	FetchDebtProfile(ctx context.Context, userID string) (*db.DebtProfile, error)
	ListWatchlistSymbols(ctx context.Context, userID string) ([]string, error)
	FetchPositionsForUser(ctx context.Context, userID string) ([]db.Position, error)
	FetchPlansForUser(ctx context.Context, userID string) ([]db.PlanRow, error)
	LatestEODPrice(ctx context.Context, sym string) (*db.EODPrice, error)
}

type Service struct {
	store                Store
	requiredBufferMonths int
}

func NewService(store Store, requiredBufferMonths int) *Service {
	if requiredBufferMonths <= 0 {
		requiredBufferMonths = survive.DefaultBufferMonths
	}
	return &Service{store: store, requiredBufferMonths: requiredBufferMonths}
}

// Quote is a symbol's most recent end-of-day price.
type Quote struct {
	Day   string  `json:"day"`
	Close float64 `json:"close"`
}

type SurvivabilitySection struct {
	FreeCashBeforeInterest int64   `json:"free_cash_before_interest"`
	MonthlyInterest        int64   `json:"monthly_interest"`
	RequiredCashBuffer     int64   `json:"required_cash_buffer"`
	CashReserve            int64   `json:"cash_reserve"`
	CashBufferOK           bool    `json:"cash_buffer_ok"`
	Burn                   int64   `json:"burn"`
	RunwayTotalMonths      float64 `json:"runway_total_months"`
	RunwayUnbounded        bool    `json:"runway_unbounded"`
	WeeklyInterestEst      int64   `json:"weekly_interest_est"`
}

type NAVSection struct {
	CostValue   float64 `json:"cost_value"`
	MarketValue float64 `json:"market_value"`
	PnL         float64 `json:"pnl"`
}

type WatchlistItem struct {
	Symbol    string        `json:"symbol"`
	LastClose *float64      `json:"last_close"`
	Day       *string       `json:"day"`
	State     survive.State `json:"state"`
}

type PositionItem struct {
	Symbol      string   `json:"symbol"`
	Qty         int64    `json:"qty"`
	AvgPrice    float64  `json:"avg_price"`
	LastClose   *float64 `json:"last_close"`
	MarketValue *float64 `json:"market_value"`
	CostValue   float64  `json:"cost_value"`
	PnL         *float64 `json:"pnl"`
}

type PlanItem struct {
	Symbol       string       `json:"symbol"`
	Ladder       *plan.Ladder `json:"ladder"`
	Stop         *plan.Stop   `json:"stop"`
	MaxWeight    float64      `json:"max_weight"`
	RiskPerTrade float64      `json:"risk_per_trade"`
}

// Report is the consolidated dashboard for one user. Unknown prices and
// derived values are null on the wire, never zero or NaN.
type Report struct {
	Survivability SurvivabilitySection `json:"survivability"`
	NAV           NAVSection           `json:"nav"`
	Watchlist     []WatchlistItem      `json:"watchlist"`
	Positions     []PositionItem       `json:"positions"`
	Plans         []PlanItem           `json:"plans"`
}

// Build assembles the report for one user. The five source reads are not
// snapshot-isolated: a dashboard computed while an update is in flight may
// mix an old profile with new positions. That weak-consistency window is
// an accepted property of the single-user usage pattern.
func (s *Service) Build(ctx context.Context, userID string) (Report, error) {
	cashflow, err := s.store.FetchCashflowProfile(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	debt, err := s.store.FetchDebtProfile(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	symbols, err := s.store.ListWatchlistSymbols(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	positions, err := s.store.FetchPositionsForUser(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	planRows, err := s.store.FetchPlansForUser(ctx, userID)
	if err != nil {
		return Report{}, err
	}

	quotes, err := s.lookupLatestPrices(ctx, symbols)
	if err != nil {
		return Report{}, err
	}

	metrics := survive.Compute(surviveInputs(cashflow, debt, s.requiredBufferMonths))
	state := survive.Classify(metrics)

	report := Report{
		Survivability: SurvivabilitySection{
			FreeCashBeforeInterest: metrics.FreeCashBeforeInterest,
			MonthlyInterest:        metrics.MonthlyInterest,
			RequiredCashBuffer:     metrics.RequiredCashBuffer,
			CashReserve:            metrics.CashReserve,
			CashBufferOK:           metrics.CashBufferOK,
			Burn:                   metrics.Burn,
			RunwayTotalMonths:      metrics.RunwayTotalMonths,
			RunwayUnbounded:        metrics.RunwayUnbounded,
			WeeklyInterestEst:      metrics.WeeklyInterestEst,
		},
		Watchlist: make([]WatchlistItem, 0, len(symbols)),
		Positions: make([]PositionItem, 0, len(positions)),
		Plans:     make([]PlanItem, 0, len(planRows)),
	}

	for _, sym := range symbols {
		item := WatchlistItem{Symbol: sym, State: state}
		if quote, ok := quotes[sym]; ok {
			lastClose := quote.Close
			day := quote.Day
			item.LastClose = &lastClose
			item.Day = &day
		}
		report.Watchlist = append(report.Watchlist, item)
	}

	report.Positions, report.NAV = valuate(positions, quotes)

	for _, row := range planRows {
		item := PlanItem{
			Symbol:       row.Symbol,
			Ladder:       plan.DecodeLadder(row.LadderJSON),
			Stop:         plan.DecodeStop(row.StopJSON),
			MaxWeight:    row.MaxWeight,
			RiskPerTrade: row.RiskPerTrade,
		}
		if item.Ladder == nil || item.Stop == nil {
			telemetry.PlanDecodeFailure()
		}
		report.Plans = append(report.Plans, item)
	}

	telemetry.DashboardBuilt()
	return report, nil
}

// lookupLatestPrices resolves the max-day close for each watched symbol.
// Symbols without any price row are simply absent from the map; absence is
// distinct from a zero close.
func (s *Service) lookupLatestPrices(ctx context.Context, symbols []string) (map[string]Quote, error) {
	quotes := make(map[string]Quote, len(symbols))
	for _, sym := range symbols {
		price, err := s.store.LatestEODPrice(ctx, sym)
		if err != nil {
			return nil, err
		}
		if price != nil {
			quotes[sym] = Quote{Day: price.Day, Close: price.Close}
		}
	}
	return quotes, nil
}

// valuate computes per-position and aggregate values. Positions with no
// known price contribute nothing to market value but their cost still
// counts; the asymmetry is intentional (cost is always known, market
// value is not), and aggregate pnl is market minus cost on those terms.
func valuate(positions []db.Position, quotes map[string]Quote) ([]PositionItem, NAVSection) {
	items := make([]PositionItem, 0, len(positions))
	var nav NAVSection

	for _, pos := range positions {
		item := PositionItem{
			Symbol:    pos.Symbol,
			Qty:       pos.Qty,
			AvgPrice:  pos.AvgPrice,
			CostValue: float64(pos.Qty) * pos.AvgPrice,
		}
		nav.CostValue += item.CostValue

		if quote, ok := quotes[pos.Symbol]; ok {
			lastClose := quote.Close
			marketValue := float64(pos.Qty) * lastClose
			pnl := float64(pos.Qty) * (lastClose - pos.AvgPrice)
			item.LastClose = &lastClose
			item.MarketValue = &marketValue
			item.PnL = &pnl
			nav.MarketValue += marketValue
		}

		items = append(items, item)
	}

	nav.PnL = nav.MarketValue - nav.CostValue
	return items, nav
}

func surviveInputs(cashflow *db.CashflowProfile, debt *db.DebtProfile, bufferMonths int) survive.Inputs {
	in := survive.Inputs{
		MonthlyInterest:      survive.DefaultMonthlyInterest,
		RequiredBufferMonths: bufferMonths,
	}
	if cashflow != nil {
		in.Income = cashflow.Income
		in.FixedCost = cashflow.FixedCost
		in.VariableCost = cashflow.VariableCost
		in.CashReserve = cashflow.CashReserve
	}
	if debt != nil {
		in.MonthlyInterest = debt.MonthlyInterest
	}
	return in
}
