package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/siuhot/survive-invest/internal/dashboard"
	"github.com/siuhot/survive-invest/internal/db"
	"github.com/siuhot/survive-invest/internal/plan"
	"github.com/siuhot/survive-invest/internal/symbol"
	"github.com/siuhot/survive-invest/internal/telemetry"
)

type Server struct {
	DB        Store
	Dashboard Reporter
}

// Store is the write/read surface the HTTP layer needs from the
// collaborator store.
type Store interface {
	EnsureUser(ctx context.Context, userID string) error
	UpsertCashflowProfile(ctx context.Context, profile db.CashflowProfile) error
	UpsertDebtProfile(ctx context.Context, profile db.DebtProfile) error
	AddWatchlistEntry(ctx context.Context, userID, sym string) error
	RemoveWatchlistEntry(ctx context.Context, userID, sym string) (bool, error)
	ListWatchlistSymbols(ctx context.Context, userID string) ([]string, error)
	UpsertPosition(ctx context.Context, pos db.Position) error
	UpsertEODPrices(ctx context.Context, prices []db.EODPrice) error
	UpsertPlan(ctx context.Context, row db.PlanRow) error
}

// Reporter builds the consolidated dashboard for one user.
type Reporter interface {
	Build(ctx context.Context, userID string) (dashboard.Report, error)
}

type contextKey string

const userIDContextKey contextKey = "userID"

const (
	defaultPrincipal       int64 = 100_000_000
	defaultMonthlyInterest int64 = 1_000_000
	defaultPriceSource           = "manual"
	defaultMaxWeight             = 0.2
	defaultRiskPerTrade          = 0.01
)

func NewServer(store Store, reporter Reporter) *Server {
	return &Server{DB: store, Dashboard: reporter}
}

func (s *Server) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(s.identityMiddleware)
		r.Post("/onboard", s.handleOnboard)
		r.Post("/watchlist/add", s.handleWatchlistAdd)
		r.Post("/watchlist/remove", s.handleWatchlistRemove)
		r.Get("/watchlist", s.handleWatchlistGet)
		r.Post("/eod/ingest", s.handleEODIngest)
		r.Post("/position/set", s.handlePositionSet)
		r.Post("/plan/set", s.handlePlanSet)
		r.Get("/dashboard", s.handleDashboard)
	})
}

// Identification is an opaque X-User-Id header; authentication proper is a
// collaborator concern outside this service.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing X-User-Id")
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDContextKey).(string)
	return strings.TrimSpace(userID)
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiError{Error: message})
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

type onboardRequest struct {
	Income          *int64 `json:"income"`
	FixedCost       *int64 `json:"fixed_cost"`
	VariableCost    *int64 `json:"variable_cost"`
	CashReserve     *int64 `json:"cash_reserve"`
	Principal       *int64 `json:"principal"`
	MonthlyInterest *int64 `json:"monthly_interest"`
	StartDate       string `json:"start_date"`
}

func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req onboardRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	income := int64Default(req.Income, 0)
	fixedCost := int64Default(req.FixedCost, 0)
	variableCost := int64Default(req.VariableCost, 0)
	cashReserve := int64Default(req.CashReserve, 0)
	principal := int64Default(req.Principal, defaultPrincipal)
	monthlyInterest := int64Default(req.MonthlyInterest, defaultMonthlyInterest)

	for name, value := range map[string]int64{
		"income":           income,
		"fixed_cost":       fixedCost,
		"variable_cost":    variableCost,
		"cash_reserve":     cashReserve,
		"principal":        principal,
		"monthly_interest": monthlyInterest,
	} {
		if value < 0 {
			writeError(w, http.StatusBadRequest, name+" must be greater than or equal to 0")
			return
		}
	}

	var startDate *time.Time
	if strings.TrimSpace(req.StartDate) != "" {
		parsed, err := parseDate(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be RFC3339 or YYYY-MM-DD")
			return
		}
		startDate = &parsed
	}

	if err := s.DB.EnsureUser(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}
	if err := s.DB.UpsertCashflowProfile(r.Context(), db.CashflowProfile{
		UserID:       userID,
		Income:       income,
		FixedCost:    fixedCost,
		VariableCost: variableCost,
		CashReserve:  cashReserve,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save cashflow profile")
		return
	}
	if err := s.DB.UpsertDebtProfile(r.Context(), db.DebtProfile{
		UserID:          userID,
		Principal:       principal,
		MonthlyInterest: monthlyInterest,
		StartDate:       startDate,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save debt profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

type symbolResponse struct {
	Symbol string `json:"symbol"`
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req symbolRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sym := symbol.Normalize(req.Symbol)
	if sym == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}

	if err := s.DB.EnsureUser(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}
	if err := s.DB.AddWatchlistEntry(r.Context(), userID, sym); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add watchlist entry")
		return
	}

	writeJSON(w, http.StatusOK, symbolResponse{Symbol: sym})
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req symbolRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sym := symbol.Normalize(req.Symbol)
	if sym == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}

	removed, err := s.DB.RemoveWatchlistEntry(r.Context(), userID, sym)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove watchlist entry")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "watchlist entry not found")
		return
	}

	writeJSON(w, http.StatusOK, symbolResponse{Symbol: sym})
}

type watchlistResponse struct {
	Symbols []string `json:"symbols"`
}

func (s *Server) handleWatchlistGet(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	symbols, err := s.DB.ListWatchlistSymbols(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load watchlist")
		return
	}
	if symbols == nil {
		symbols = []string{}
	}

	writeJSON(w, http.StatusOK, watchlistResponse{Symbols: symbols})
}

type positionSetRequest struct {
	Symbol   string  `json:"symbol"`
	Qty      float64 `json:"qty"`
	AvgPrice float64 `json:"avg_price"`
}

func (s *Server) handlePositionSet(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req positionSetRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sym := symbol.Normalize(req.Symbol)
	if sym == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}
	if math.IsNaN(req.AvgPrice) || math.IsInf(req.AvgPrice, 0) || req.AvgPrice < 0 {
		writeError(w, http.StatusBadRequest, "avg_price must be a non-negative number")
		return
	}

	if err := s.DB.EnsureUser(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}
	if err := s.DB.UpsertPosition(r.Context(), db.Position{
		UserID:   userID,
		Symbol:   sym,
		Qty:      int64(req.Qty), // truncated to whole units
		AvgPrice: req.AvgPrice,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save position")
		return
	}

	writeJSON(w, http.StatusOK, symbolResponse{Symbol: sym})
}

type eodIngestRequest struct {
	Day    string          `json:"day"`
	Prices []eodPriceEntry `json:"prices"`
	Source string          `json:"source"`
}

type eodPriceEntry struct {
	Symbol string  `json:"symbol"`
	Close  float64 `json:"close"`
}

type eodIngestResponse struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

func (s *Server) handleEODIngest(w http.ResponseWriter, r *http.Request) {
	var req eodIngestRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	day := strings.TrimSpace(req.Day)
	if day == "" {
		day = time.Now().UTC().Format("20060102")
	}
	if !validDayKey(day) {
		writeError(w, http.StatusBadRequest, "day must be YYYYMMDD")
		return
	}

	if len(req.Prices) == 0 {
		writeError(w, http.StatusBadRequest, "prices[] required")
		return
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = defaultPriceSource
	}

	// One bad entry rejects the whole batch; a day's dataset must never be
	// half-applied across symbols.
	rows := make([]db.EODPrice, 0, len(req.Prices))
	for _, entry := range req.Prices {
		sym := symbol.Normalize(entry.Symbol)
		if sym == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid symbol %q", entry.Symbol))
			return
		}
		if math.IsNaN(entry.Close) || math.IsInf(entry.Close, 0) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("non-finite close for %s", sym))
			return
		}
		rows = append(rows, db.EODPrice{Symbol: sym, Day: day, Close: entry.Close, Source: source})
	}

	if err := s.DB.UpsertEODPrices(r.Context(), rows); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to ingest prices")
		return
	}
	telemetry.EODRowsIngested(len(rows))

	writeJSON(w, http.StatusOK, eodIngestResponse{Day: day, Count: len(rows)})
}

type planSetRequest struct {
	Symbol       string      `json:"symbol"`
	Ladder       plan.Ladder `json:"ladder"`
	Stop         plan.Stop   `json:"stop"`
	MaxWeight    *float64    `json:"max_weight"`
	RiskPerTrade *float64    `json:"risk_per_trade"`
}

func (s *Server) handlePlanSet(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	var req planSetRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sym := symbol.Normalize(req.Symbol)
	if sym == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}
	if err := req.Ladder.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Stop.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	maxWeight := floatDefault(req.MaxWeight, defaultMaxWeight)
	riskPerTrade := floatDefault(req.RiskPerTrade, defaultRiskPerTrade)

	ladderJSON, err := json.Marshal(req.Ladder)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode plan")
		return
	}
	stopJSON, err := json.Marshal(req.Stop)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode plan")
		return
	}

	if err := s.DB.EnsureUser(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}
	if err := s.DB.UpsertPlan(r.Context(), db.PlanRow{
		UserID:       userID,
		Symbol:       sym,
		LadderJSON:   ladderJSON,
		StopJSON:     stopJSON,
		MaxWeight:    maxWeight,
		RiskPerTrade: riskPerTrade,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save plan")
		return
	}

	writeJSON(w, http.StatusOK, symbolResponse{Symbol: sym})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	report, err := s.Dashboard.Build(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func int64Default(value *int64, fallback int64) int64 {
	if value == nil {
		return fallback
	}
	return *value
}

func floatDefault(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}
	return *value
}

func validDayKey(day string) bool {
	if len(day) != 8 {
		return false
	}
	for _, r := range day {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse("2006-01-02", trimmed); err == nil {
		return parsed.UTC(), nil
	}
	return time.Time{}, errors.New("invalid date")
}
