package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/core/service"
)

type HTTPHandler struct {
	machineService *service.MachineService
	logger         *zap.Logger
}

type InsertCoinHTTPRequest struct {
	Coin domain.Coin `json:"coin"`
}

type PurchaseHTTPRequest struct {
	RequestID string         `json:"request_id"`
	Product   domain.Product `json:"product"`
}

type RefillHTTPRequest struct {
	Products []domain.Product `json:"products"`
	Coins    []domain.Coin    `json:"coins"`
}

type MoneyHTTPResponse struct {
	Inserted domain.Cents `json:"inserted"`
}

type PriceHTTPResponse struct {
	Product domain.Product `json:"product"`
	Name    string         `json:"name"`
	Price   domain.Cents   `json:"price"`
}

type PurchaseHTTPResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	SaleID  string         `json:"sale_id,omitempty"`
	Product domain.Product `json:"product,omitempty"`
	Change  []domain.Coin  `json:"change,omitempty"`
}

type CancelHTTPResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Coins   []domain.Coin `json:"coins,omitempty"`
}

type errorHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(machineService *service.MachineService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{machineService: machineService, logger: logger}
}

// Routes registers every endpoint on mux.
func (h *HTTPHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("POST /api/coins", h.InsertCoin)
	mux.HandleFunc("POST /api/purchase", h.Purchase)
	mux.HandleFunc("POST /api/cancel", h.Cancel)
	mux.HandleFunc("POST /api/refill", h.Refill)
	mux.HandleFunc("POST /api/reset", h.Reset)
	mux.HandleFunc("GET /api/money", h.CurrentMoney)
	mux.HandleFunc("GET /api/price", h.Price)
	mux.HandleFunc("GET /api/inventory", h.Inventory)
	mux.HandleFunc("GET /api/sales", h.Sales)
}

func (h *HTTPHandler) InsertCoin(w http.ResponseWriter, r *http.Request) {
	var req InsertCoinHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inserted := h.machineService.InsertCoin(r.Context(), req.Coin)
	writeJSON(w, http.StatusOK, MoneyHTTPResponse{Inserted: inserted})
}

func (h *HTTPHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sale, err := h.machineService.Purchase(r.Context(), req.RequestID, req.Product)
	if err != nil {
		status, message := h.errorStatus(r, err)
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, PurchaseHTTPResponse{
		Success: true,
		Message: "enjoy your " + sale.Product.Name(),
		SaleID:  sale.ID,
		Product: sale.Product,
		Change:  sale.Change,
	})
}

func (h *HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	coins, err := h.machineService.Cancel(r.Context())
	if err != nil {
		status, message := h.errorStatus(r, err)
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, CancelHTTPResponse{
		Success: true,
		Message: "request cancelled",
		Coins:   coins,
	})
}

func (h *HTTPHandler) Refill(w http.ResponseWriter, r *http.Request) {
	var req RefillHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.machineService.Refill(r.Context(), req.Products, req.Coins)
	writeJSON(w, http.StatusOK, h.machineService.Inventory())
}

func (h *HTTPHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.machineService.Reset(r.Context())
	writeJSON(w, http.StatusOK, h.machineService.Inventory())
}

func (h *HTTPHandler) CurrentMoney(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MoneyHTTPResponse{Inserted: h.machineService.CurrentMoney()})
}

func (h *HTTPHandler) Price(w http.ResponseWriter, r *http.Request) {
	product, err := domain.ParseProduct(r.URL.Query().Get("product"))
	if err == nil {
		_, err = h.machineService.Price(product)
	}
	if err != nil {
		status, message := h.errorStatus(r, err)
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, PriceHTTPResponse{
		Product: product,
		Name:    product.Name(),
		Price:   product.Price(),
	})
}

func (h *HTTPHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.machineService.Inventory())
}

func (h *HTTPHandler) Sales(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	sales, err := h.machineService.Sales(r.Context(), limit)
	if err != nil {
		status, message := h.errorStatus(r, err)
		writeError(w, status, message)
		return
	}
	if sales == nil {
		sales = []domain.Sale{}
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) errorStatus(r *http.Request, err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidProduct):
		return http.StatusBadRequest, "invalid product"
	case errors.Is(err, domain.ErrSoldOut):
		return http.StatusGone, "sold out"
	case errors.Is(err, domain.ErrNotEnoughMoney):
		return http.StatusPaymentRequired, err.Error()
	case errors.Is(err, domain.ErrNotEnoughChange):
		return http.StatusConflict, "not enough change"
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate request"
	case errors.Is(err, service.ErrJournalUnavailable):
		return http.StatusServiceUnavailable, "sales journal unavailable"
	}

	h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	return http.StatusInternalServerError, "internal error"
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorHTTPResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
