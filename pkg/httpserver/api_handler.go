package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tapline/touchbet/internal/ledger"
	"github.com/tapline/touchbet/internal/tokens"
	"github.com/tapline/touchbet/pkg/types"
)

// PriceFeed is the read side of the canonical price feed.
type PriceFeed interface {
	GetLatestPrice() (float64, bool)
	GetSigma1s() float64
	GetStatus() types.TickStatus
	GetDiagnostics() []types.VenueDiagnostic
	GetRecentBars(count int) []types.SecondBar
}

// BetBook is the betting surface exposed over HTTP.
type BetBook interface {
	PlaceBet(params ledger.PlaceBetParams) (*types.Bet, error)
	Bets() []types.Bet
	OpenBets() []types.Bet
	ResolvedLog() []types.Bet
	TotalPnL() decimal.Decimal
}

// TokenSource serves token display metadata.
type TokenSource interface {
	Get(id string) (tokens.Meta, error)
	List() []tokens.Meta
}

// Quoter prices a touch target without placing a bet.
type Quoter interface {
	Multiplier(targetPrice, currentPrice, secondsLeft, sigma float64) float64
}

// APIHandler handles HTTP requests for the betting API.
type APIHandler struct {
	feed   PriceFeed
	book   BetBook
	tokens TokenSource
	quoter Quoter
	logger *zap.Logger
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(feed PriceFeed, book BetBook, tokenSrc TokenSource, quoter Quoter, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		feed:   feed,
		book:   book,
		tokens: tokenSrc,
		quoter: quoter,
		logger: logger,
	}
}

// PriceResponse represents the HTTP response for the current price.
type PriceResponse struct {
	Price   float64                 `json:"price"`
	Sigma1s float64                 `json:"sigma_1s"`
	Status  types.TickStatus        `json:"status"`
	Venues  []types.VenueDiagnostic `json:"venues,omitempty"`
}

// QuoteResponse represents a multiplier preview.
type QuoteResponse struct {
	TargetPrice  float64 `json:"target_price"`
	CurrentPrice float64 `json:"current_price"`
	SecondsLeft  float64 `json:"seconds_left"`
	Sigma1s      float64 `json:"sigma_1s"`
	Multiplier   float64 `json:"multiplier"`
}

// PnLResponse represents realized profit and loss.
type PnLResponse struct {
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	Resolved    int             `json:"resolved"`
	Open        int             `json:"open"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HandlePrice handles GET /api/price requests.
func (h *APIHandler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	price, ok := h.feed.GetLatestPrice()
	if !ok {
		h.writeError(w, "no canonical price yet", "", http.StatusServiceUnavailable)
		return
	}

	resp := PriceResponse{
		Price:   price,
		Sigma1s: h.feed.GetSigma1s(),
		Status:  h.feed.GetStatus(),
	}
	h.writeJSON(w, resp, http.StatusOK)
}

// HandleBars handles GET /api/price/bars?count=<n> requests.
func (h *APIHandler) HandleBars(w http.ResponseWriter, r *http.Request) {
	count := 60
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, "count must be a positive integer", "", http.StatusBadRequest)
			return
		}
		count = n
	}

	bars := h.feed.GetRecentBars(count)
	h.writeJSON(w, bars, http.StatusOK)
}

// HandleVenues handles GET /api/price/venues requests.
func (h *APIHandler) HandleVenues(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.feed.GetDiagnostics(), http.StatusOK)
}

// HandleQuote handles GET /api/quote?target=<price>&seconds=<s> requests.
// It previews the multiplier for a touch target without placing a bet.
func (h *APIHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	target, err := strconv.ParseFloat(r.URL.Query().Get("target"), 64)
	if err != nil || target <= 0 {
		h.writeError(w, "target must be a positive number", "", http.StatusBadRequest)
		return
	}

	seconds, err := strconv.ParseFloat(r.URL.Query().Get("seconds"), 64)
	if err != nil || seconds <= 0 {
		h.writeError(w, "seconds must be a positive number", "", http.StatusBadRequest)
		return
	}

	price, ok := h.feed.GetLatestPrice()
	if !ok {
		h.writeError(w, "no canonical price yet", "", http.StatusServiceUnavailable)
		return
	}

	sigma := h.feed.GetSigma1s()
	resp := QuoteResponse{
		TargetPrice:  target,
		CurrentPrice: price,
		SecondsLeft:  seconds,
		Sigma1s:      sigma,
		Multiplier:   h.quoter.Multiplier(target, price, seconds, sigma),
	}
	h.writeJSON(w, resp, http.StatusOK)
}

// HandleListBets handles GET /api/bets?status=open|resolved requests.
func (h *APIHandler) HandleListBets(w http.ResponseWriter, r *http.Request) {
	var bets []types.Bet
	switch r.URL.Query().Get("status") {
	case "open":
		bets = h.book.OpenBets()
	case "resolved":
		bets = h.book.ResolvedLog()
	case "":
		bets = h.book.Bets()
	default:
		h.writeError(w, "status must be open or resolved", "", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, bets, http.StatusOK)
}

// HandlePlaceBet handles POST /api/bets requests.
func (h *APIHandler) HandlePlaceBet(w http.ResponseWriter, r *http.Request) {
	var params ledger.PlaceBetParams
	err := json.NewDecoder(r.Body).Decode(&params)
	if err != nil {
		h.writeError(w, "invalid request body", types.RejectInvalidParams, http.StatusBadRequest)
		return
	}

	bet, err := h.book.PlaceBet(params)
	if err != nil {
		var rej *types.BetRejectionError
		if errors.As(err, &rej) {
			h.writeError(w, rej.Message, rej.Code, rejectionStatus(rej.Code))
			return
		}
		h.logger.Error("place-bet-failed", zap.Error(err))
		h.writeError(w, "internal error", "", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, bet, http.StatusCreated)
}

// HandlePnL handles GET /api/pnl requests.
func (h *APIHandler) HandlePnL(w http.ResponseWriter, r *http.Request) {
	resp := PnLResponse{
		RealizedPnL: h.book.TotalPnL(),
		Resolved:    len(h.book.ResolvedLog()),
		Open:        len(h.book.OpenBets()),
	}
	h.writeJSON(w, resp, http.StatusOK)
}

// HandleListTokens handles GET /api/tokens requests.
func (h *APIHandler) HandleListTokens(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.tokens.List(), http.StatusOK)
}

// HandleGetToken handles GET /api/tokens/{id} requests.
func (h *APIHandler) HandleGetToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	meta, err := h.tokens.Get(id)
	if err != nil {
		var unknown *tokens.ErrUnknownToken
		if errors.As(err, &unknown) {
			h.writeError(w, err.Error(), "", http.StatusNotFound)
			return
		}
		h.logger.Error("get-token-failed", zap.String("token-id", id), zap.Error(err))
		h.writeError(w, "internal error", "", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, meta, http.StatusOK)
}

// rejectionStatus maps placement rejection codes to HTTP status codes.
func rejectionStatus(code string) int {
	switch code {
	case types.RejectNoPrice, types.RejectFeedPaused, types.RejectRiskHalted:
		return http.StatusServiceUnavailable
	case types.RejectNoEdge:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, v interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *APIHandler) writeError(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message, Code: code}
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
