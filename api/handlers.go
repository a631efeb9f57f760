package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"zhigulbot/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultPriceLimit = 100
	maxPriceLimit     = 5000
)

type stateResponse struct {
	PreviousPrice   decimal.Decimal `json:"previous_price"`
	CurrentPrice    decimal.Decimal `json:"current_price"`
	PredictedPrice  decimal.Decimal `json:"predicted_price"`
	OracleDirection string          `json:"oracle_direction"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type snapshotResponse struct {
	ID             int64           `json:"id"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	PredictedPrice decimal.Decimal `json:"predicted_price"`
	CreatedAt      time.Time       `json:"created_at"`
}

type cycleResponse struct {
	ID               uuid.UUID       `json:"id"`
	PreviousPrice    decimal.Decimal `json:"previous_price"`
	NextPrice        decimal.Decimal `json:"next_price"`
	PredictedPrice   decimal.Decimal `json:"predicted_price"`
	WagersResolved   int             `json:"wagers_resolved"`
	WagersDiscarded  int             `json:"wagers_discarded"`
	NetPayout        int64           `json:"net_payout"`
	ForecastDegraded bool            `json:"forecast_degraded"`
	CompletedAt      time.Time       `json:"completed_at"`
}

type accountResponse struct {
	DiscordID int64     `json:"discord_id"`
	Username  string    `json:"username"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

type wagerRecordResponse struct {
	CycleID     uuid.UUID       `json:"cycle_id"`
	Direction   string          `json:"direction"`
	Origin      string          `json:"origin"`
	Stake       int64           `json:"stake"`
	Payout      int64           `json:"payout"`
	PriceBefore decimal.Decimal `json:"price_before"`
	PriceAfter  decimal.Decimal `json:"price_after"`
	CreatedAt   time.Time       `json:"created_at"`
}

type replenishRequest struct {
	Prices []decimal.Decimal `json:"prices"`
}

func toCycleResponse(c *models.SettlementCycle) cycleResponse {
	return cycleResponse{
		ID:               c.ID,
		PreviousPrice:    c.PreviousPrice,
		NextPrice:        c.NextPrice,
		PredictedPrice:   c.PredictedPrice,
		WagersResolved:   c.WagersResolved,
		WagersDiscarded:  c.WagersDiscarded,
		NetPayout:        c.NetPayout,
		ForecastDegraded: c.ForecastDegraded,
		CompletedAt:      c.CompletedAt,
	}
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	state, err := s.prices.GetState(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{
		PreviousPrice:   state.PreviousPrice,
		CurrentPrice:    state.CurrentPrice,
		PredictedPrice:  state.PredictedPrice,
		OracleDirection: string(state.OracleDirection()),
		UpdatedAt:       state.UpdatedAt,
	})
}

func (s *Server) getPrices(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, defaultPriceLimit, maxPriceLimit)
	if !ok {
		return
	}

	history, err := s.prices.GetHistory(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]snapshotResponse, len(history))
	for i, h := range history {
		out[i] = snapshotResponse{
			ID:             h.ID,
			CurrentPrice:   h.CurrentPrice,
			PredictedPrice: h.PredictedPrice,
			CreatedAt:      h.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getLatestCycle(w http.ResponseWriter, r *http.Request) {
	cycle, err := s.prices.GetLatestCycle(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if cycle == nil {
		writeError(w, "no cycle settled yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toCycleResponse(cycle))
}

func (s *Server) getQueue(w http.ResponseWriter, r *http.Request) {
	remaining, err := s.prices.QueueLength(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"remaining": remaining})
}

func (s *Server) replenishQueue(w http.ResponseWriter, r *http.Request) {
	var req replenishRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	remaining, err := s.prices.ReplenishQueue(r.Context(), req.Prices)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"added":     int64(len(req.Prices)),
		"remaining": remaining,
	})
}

func (s *Server) runSettlement(w http.ResponseWriter, r *http.Request) {
	result, err := s.settlement.RunNow(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cycle":           toCycleResponse(result.Cycle),
		"queue_remaining": result.QueueRemaining,
	})
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	discordID, ok := parseExternalID(w, r)
	if !ok {
		return
	}

	account, err := s.accounts.GetAccount(r.Context(), discordID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if account == nil {
		writeError(w, "account not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		DiscordID: account.DiscordID,
		Username:  account.Username,
		Balance:   account.Balance,
		CreatedAt: account.CreatedAt,
	})
}

func (s *Server) getAccountWagers(w http.ResponseWriter, r *http.Request) {
	discordID, ok := parseExternalID(w, r)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r, 0, 0)
	if !ok {
		return
	}

	records, err := s.accounts.GetWagerHistory(r.Context(), discordID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]wagerRecordResponse, len(records))
	for i, rec := range records {
		out[i] = wagerRecordResponse{
			CycleID:     rec.CycleID,
			Direction:   string(rec.Direction),
			Origin:      string(rec.Origin),
			Stake:       rec.Stake,
			Payout:      rec.Payout,
			PriceBefore: rec.PriceBefore,
			PriceAfter:  rec.PriceAfter,
			CreatedAt:   rec.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func parseExternalID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "externalID"), 10, 64)
	if err != nil {
		writeError(w, "invalid account id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// parseLimit reads ?limit=. A ceiling of zero leaves clamping to the service.
func parseLimit(w http.ResponseWriter, r *http.Request, fallback, ceiling int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeError(w, "invalid limit", http.StatusBadRequest)
		return 0, false
	}
	if ceiling > 0 && limit > ceiling {
		limit = ceiling
	}
	return limit, true
}
