package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rl1809/vending-machine/internal/core/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	svc, _ := newTestService(t)
	mux := http.NewServeMux()
	NewHTTPHandler(svc, zaptest.NewLogger(t)).Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func insertCoins(t *testing.T, srv *httptest.Server, coins ...string) MoneyHTTPResponse {
	var money MoneyHTTPResponse
	for _, c := range coins {
		status := doJSON(t, srv, http.MethodPost, "/api/coins", map[string]string{"coin": c}, &money)
		require.Equal(t, http.StatusOK, status)
	}
	return money
}

func TestHTTP_HealthCheck(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]string
	status := doJSON(t, srv, http.MethodGet, "/health", nil, &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestHTTP_InsertCoin(t *testing.T) {
	srv := newTestServer(t)

	money := insertCoins(t, srv, "ONE_EURO", "FIFTY_CENTS")
	assert.Equal(t, domain.Cents(150), money.Inserted)

	var current MoneyHTTPResponse
	doJSON(t, srv, http.MethodGet, "/api/money", nil, &current)
	assert.Equal(t, domain.Cents(150), current.Inserted)
}

func TestHTTP_InsertUnknownCoin(t *testing.T) {
	srv := newTestServer(t)

	var body errorHTTPResponse
	status := doJSON(t, srv, http.MethodPost, "/api/coins", map[string]string{"coin": "THREE_EURO"}, &body)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, body.Success)
}

func TestHTTP_PurchaseWithChange(t *testing.T) {
	srv := newTestServer(t)

	status := doJSON(t, srv, http.MethodPost, "/api/refill", RefillHTTPRequest{
		Products: []domain.Product{domain.Coke},
		Coins:    []domain.Coin{domain.TenCents},
	}, nil)
	require.Equal(t, http.StatusOK, status)
	insertCoins(t, srv, "ONE_EURO", "FIFTY_CENTS", "TEN_CENTS")

	var resp PurchaseHTTPResponse
	status = doJSON(t, srv, http.MethodPost, "/api/purchase", map[string]string{
		"request_id": "req-1",
		"product":    "COKE",
	}, &resp)

	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
	assert.Equal(t, domain.Coke, resp.Product)
	assert.Equal(t, []domain.Coin{domain.TenCents}, resp.Change)
	assert.NotEmpty(t, resp.SaleID)

	assert.Eventually(t, func() bool {
		var sales []domain.Sale
		doJSON(t, srv, http.MethodGet, "/api/sales?limit=5", nil, &sales)
		return len(sales) == 1 && sales[0].ID == resp.SaleID
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHTTP_PurchaseErrors(t *testing.T) {
	srv := newTestServer(t)

	var body errorHTTPResponse
	status := doJSON(t, srv, http.MethodPost, "/api/purchase", map[string]string{"product": "WATER"}, &body)
	assert.Equal(t, http.StatusGone, status)
	assert.Equal(t, "sold out", body.Message)

	doJSON(t, srv, http.MethodPost, "/api/refill", RefillHTTPRequest{Products: []domain.Product{domain.Water}}, nil)
	insertCoins(t, srv, "FIFTY_CENTS")
	status = doJSON(t, srv, http.MethodPost, "/api/purchase", map[string]string{"product": "WATER"}, &body)
	assert.Equal(t, http.StatusPaymentRequired, status)

	insertCoins(t, srv, "ONE_EURO")
	status = doJSON(t, srv, http.MethodPost, "/api/purchase", map[string]string{"product": "WATER"}, &body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "not enough change", body.Message)

	status = doJSON(t, srv, http.MethodPost, "/api/purchase", map[string]string{"product": "FANTA"}, &body)
	assert.Equal(t, http.StatusBadRequest, status)

	status = doJSON(t, srv, http.MethodPost, "/api/purchase", map[string]string{}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid product", body.Message)
}

func TestHTTP_DuplicatePurchase(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/refill", RefillHTTPRequest{
		Products: []domain.Product{domain.Water, domain.Water},
	}, nil)
	insertCoins(t, srv, "FIFTY_CENTS", "TWENTY_CENTS", "TWENTY_CENTS")
	req := map[string]string{"request_id": "abc", "product": "WATER"}
	require.Equal(t, http.StatusOK, doJSON(t, srv, http.MethodPost, "/api/purchase", req, nil))

	insertCoins(t, srv, "FIFTY_CENTS", "TWENTY_CENTS", "TWENTY_CENTS")
	var body errorHTTPResponse
	status := doJSON(t, srv, http.MethodPost, "/api/purchase", req, &body)

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "duplicate request", body.Message)
}

func TestHTTP_Cancel(t *testing.T) {
	srv := newTestServer(t)
	insertCoins(t, srv, "TWO_EURO", "FIVE_CENTS")

	var resp CancelHTTPResponse
	status := doJSON(t, srv, http.MethodPost, "/api/cancel", nil, &resp)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.Cents(205), domain.SumCoins(resp.Coins))

	var money MoneyHTTPResponse
	doJSON(t, srv, http.MethodGet, "/api/money", nil, &money)
	assert.Equal(t, domain.Cents(0), money.Inserted)
}

func TestHTTP_Price(t *testing.T) {
	srv := newTestServer(t)

	var price PriceHTTPResponse
	status := doJSON(t, srv, http.MethodGet, "/api/price?product=sprite", nil, &price)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, domain.Sprite, price.Product)
	assert.Equal(t, "Sprite", price.Name)
	assert.Equal(t, domain.Cents(140), price.Price)

	status = doJSON(t, srv, http.MethodGet, "/api/price?product=tea", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHTTP_InventoryAndReset(t *testing.T) {
	srv := newTestServer(t)

	var inv domain.Snapshot
	doJSON(t, srv, http.MethodPost, "/api/refill", RefillHTTPRequest{
		Products: []domain.Product{domain.Water, domain.Coke},
		Coins:    []domain.Coin{domain.OneEuro, domain.FiveCents},
	}, &inv)
	assert.Equal(t, 1, inv.Products[domain.Water])
	assert.Equal(t, domain.Cents(105), inv.ChangeValue)

	insertCoins(t, srv, "TEN_CENTS")
	doJSON(t, srv, http.MethodPost, "/api/reset", nil, &inv)
	assert.Equal(t, 0, inv.Products[domain.Water])
	assert.Equal(t, domain.Cents(0), inv.ChangeValue)
	assert.Equal(t, domain.Cents(0), inv.Inserted)

	doJSON(t, srv, http.MethodGet, "/api/inventory", nil, &inv)
	assert.Len(t, inv.Coins, len(domain.Denominations()))
}

func TestHTTP_SalesInvalidLimit(t *testing.T) {
	srv := newTestServer(t)

	status := doJSON(t, srv, http.MethodGet, "/api/sales?limit=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/api/purchase")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
