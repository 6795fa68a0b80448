package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/counterpos/pos-service/internal/api/handler"
	"github.com/counterpos/pos-service/internal/middleware"
	"github.com/counterpos/pos-service/internal/models"
	"github.com/counterpos/pos-service/internal/service"
	"github.com/counterpos/pos-service/internal/service/servicetest"
	"github.com/counterpos/pos-service/internal/websockets"
)

const password = "password1"

type pinger struct{ err error }

func (p pinger) HealthCheck(context.Context) error { return p.err }

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"error"`
}

type fixture struct {
	t       *testing.T
	store   *servicetest.Store
	hub     *websockets.Hub
	router  *Router
	admin   models.User
	cashier models.User
}

func newFixture(t *testing.T, db handler.Pinger) *fixture {
	t.Helper()

	store := servicetest.NewSeeded()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	hub := websockets.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	auth := service.NewAuthService(store.Users(), nil, service.JWTConfig{Secret: "test-secret", ExpiresIn: 1})
	orders := service.NewOrderService(store.Orders(), hub)
	reports := service.NewReportService(store.Orders(), time.UTC)

	r := New(Handlers{
		Auth:      handler.NewAuthHandler(auth),
		Inventory: handler.NewInventoryHandler(service.NewInventoryService(store.Categories(), store.Products(), hub)),
		Order:     handler.NewOrderHandler(orders),
		Receipt:   handler.NewReceiptHandler(service.NewReceiptService(orders, models.StoreDetails{Name: "Test Store"})),
		Report:    handler.NewReportHandler(reports),
		User:      handler.NewUserHandler(service.NewUserService(store.Users(), store.References())),
		Health:    handler.NewHealthHandler(db),
		WebSocket: handler.NewWebSocketHandler(hub, websockets.NewUpgrader(func(string) bool { return true }), auth),
	}, auth, Options{
		CORS:        middleware.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		ServiceName: "pos-test",
	})

	return &fixture{
		t:       t,
		store:   store,
		hub:     hub,
		router:  r,
		admin:   store.AddUser("admin", string(hash), models.RoleAdmin, models.StatusActive),
		cashier: store.AddUser("cashier", string(hash), models.RoleCashier, models.StatusActive),
	}
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(f.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(username string) string {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(f.t, json.Unmarshal(decode(f.t, rec).Data, &data))
	require.NotEmpty(f.t, data.Token)
	return data.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestLoginAndLogout(t *testing.T) {
	f := newFixture(t, pinger{})
	token := f.login("cashier")

	rec := f.do(http.MethodGet, "/api/orders", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful", decode(t, rec).Message)

	rec = f.do(http.MethodGet, "/api/orders", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "tokens issued before logout are revoked")
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t, pinger{})

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{"wrong password", map[string]string{"username": "cashier", "password": "nope"}, http.StatusBadRequest, "Invalid credentials"},
		{"unknown user", map[string]string{"username": "ghost", "password": password}, http.StatusBadRequest, "Invalid credentials"},
		{"missing fields", map[string]string{"username": "cashier"}, http.StatusBadRequest, "Missing credentials"},
		{"malformed body", `{"username":`, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/auth/login", "", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestRouteGuards(t *testing.T) {
	f := newFixture(t, pinger{})
	admin := f.login("admin")
	cashier := f.login("cashier")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"public categories", http.MethodGet, "/api/inventory/categories", "", http.StatusOK},
		{"public products", http.MethodGet, "/api/inventory/products", "", http.StatusOK},
		{"orders need a token", http.MethodGet, "/api/orders", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/orders", "not-a-jwt", http.StatusUnauthorized},
		{"cashier lists orders", http.MethodGet, "/api/orders", cashier, http.StatusOK},
		{"cashier cannot create categories", http.MethodPost, "/api/inventory/categories", cashier, http.StatusForbidden},
		{"cashier cannot read reports", http.MethodGet, "/api/reports/sales", cashier, http.StatusForbidden},
		{"cashier cannot purge orders", http.MethodDelete, "/api/orders", cashier, http.StatusForbidden},
		{"cashier cannot list users", http.MethodGet, "/api/user/list", cashier, http.StatusForbidden},
		{"admin reads reports", http.MethodGet, "/api/reports/sales", admin, http.StatusOK},
		{"admin lists users", http.MethodGet, "/api/user/list", admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	f := newFixture(t, pinger{})

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid Authorization header format", decode(t, rec).Message)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t, pinger{})

	rec := f.do(http.MethodGet, "/api/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Route not found", env.Message)
}

func TestCheckoutReceiptAndReport(t *testing.T) {
	f := newFixture(t, pinger{})
	admin := f.login("admin")
	cashier := f.login("cashier")

	rec := f.do(http.MethodPost, "/api/inventory/categories", admin, map[string]string{"name": "Meals"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var category models.Category
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &category))

	rec = f.do(http.MethodPost, "/api/inventory/products", admin, map[string]any{
		"name":        "Adobo",
		"description": "Rice meal",
		"price":       120.5,
		"imageUrl":    "/img/adobo.png",
		"categoryId":  category.ID.String(),
		"quantity":    5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product models.Product
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &product))

	rec = f.do(http.MethodPost, "/api/orders", cashier, map[string]any{
		"items":         []map[string]any{{"productId": product.ID.String(), "quantity": 2}},
		"orderType":     "Dine In",
		"paymentMethod": "Cash",
		"amountPaid":    300,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.Equal(t, "Order created successfully", env.Message)
	var result models.CheckoutResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.ChangeGiven.Equal(decimal.RequireFromString("59")), result.ChangeGiven.String())
	assert.Equal(t, 3, f.store.Stock(product.ID))

	rec = f.do(http.MethodGet, "/api/receipts/"+result.OrderID, cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var receipt models.Receipt
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &receipt))
	assert.Equal(t, "cashier", receipt.ServedBy)
	assert.Equal(t, "Test Store", receipt.StoreDetails.Name)
	require.Len(t, receipt.Items, 1)
	assert.True(t, receipt.Items[0].Total.Equal(decimal.RequireFromString("241")))

	rec = f.do(http.MethodGet, "/api/receipts/"+result.OrderID+"?format=text", cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "Adobo")
	assert.Contains(t, rec.Body.String(), "241.00")

	rec = f.do(http.MethodGet, "/api/reports/sales", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report models.SalesReport
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &report))
	assert.True(t, report.Today.Equal(decimal.RequireFromString("241")), report.Today.String())
	assert.True(t, report.ThisMonth.Equal(decimal.RequireFromString("241")), report.ThisMonth.String())

	rec = f.do(http.MethodPut, "/api/orders/"+result.OrderID+"/status", cashier, map[string]string{"status": "Cancelled"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, f.store.Stock(product.ID), "cancelling does not restock")

	rec = f.do(http.MethodGet, "/api/orders/"+result.OrderID+"/events", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.OrderEvent
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &events))
	assert.Len(t, events, 2)
}

func TestCreateOrderRejectsBadCart(t *testing.T) {
	f := newFixture(t, pinger{})
	cashier := f.login("cashier")
	p := f.store.AddProduct("Iced Tea", "Drinks", decimal.NewFromInt(40), 1)

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{"empty cart", map[string]any{"items": []any{}, "orderType": "Dine In", "paymentMethod": "Cash", "amountPaid": 10},
			http.StatusBadRequest, "Order must contain at least one item"},
		{"negative payment", map[string]any{"items": []map[string]any{{"productId": p.ID.String(), "quantity": 1}}, "orderType": "Dine In", "paymentMethod": "Cash", "amountPaid": -1},
			http.StatusBadRequest, "Invalid amountPaid. Must be a non-negative number."},
		{"too many", map[string]any{"items": []map[string]any{{"productId": p.ID.String(), "quantity": 2}}, "orderType": "Dine In", "paymentMethod": "Cash", "amountPaid": 100},
			http.StatusBadRequest, "Insufficient stock for Iced Tea: available 1, ordered 2"},
		{"underpaid", map[string]any{"items": []map[string]any{{"productId": p.ID.String(), "quantity": 1}}, "orderType": "Dine In", "paymentMethod": "Cash", "amountPaid": 10},
			http.StatusBadRequest, "Insufficient payment: total 40, paid 10"},
		{"malformed", `{"items":`, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/orders", cashier, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decode(t, rec).Message)
		})
	}

	assert.Equal(t, 1, f.store.Stock(p.ID))
	assert.Zero(t, f.store.OrderCount())
}

func TestProductValidationReportsFields(t *testing.T) {
	f := newFixture(t, pinger{})
	admin := f.login("admin")

	rec := f.do(http.MethodPost, "/api/inventory/products", admin, map[string]any{"name": "Adobo", "price": 0})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "Validation failed", env.Message)

	fields := map[string]bool{}
	for _, fe := range env.Error {
		fields[fe.Field] = true
	}
	for _, want := range []string{"description", "price", "imageUrl", "categoryId", "quantity"} {
		assert.True(t, fields[want], "missing field error for %s", want)
	}
	assert.False(t, fields["name"])
}

func TestInvalidPathID(t *testing.T) {
	f := newFixture(t, pinger{})
	admin := f.login("admin")

	rec := f.do(http.MethodPut, "/api/inventory/categories/not-a-uuid", admin, map[string]string{"name": "Drinks"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid category ID format", decode(t, rec).Message)
}

func TestCategoryInUseCannotBeDeleted(t *testing.T) {
	f := newFixture(t, pinger{})
	admin := f.login("admin")
	p := f.store.AddProduct("Halo-Halo", "Desserts", decimal.NewFromInt(95), 3)

	rec := f.do(http.MethodDelete, "/api/inventory/categories/"+p.CategoryID.String(), admin, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot delete category: 1 product(s) are using it.", decode(t, rec).Message)
}

func TestUserManagement(t *testing.T) {
	f := newFixture(t, pinger{})
	admin := f.login("admin")

	rec := f.do(http.MethodPost, "/api/user/register", admin, map[string]string{
		"name": "Bea", "username": "bea", "password": "longenough", "role": "cashier",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(http.MethodPost, "/api/user/register", admin, map[string]string{
		"name": "Bea", "username": "bea", "password": "longenough", "role": "cashier",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already exists", decode(t, rec).Message)

	rec = f.do(http.MethodPost, "/api/user/register", admin, map[string]string{
		"name": "B", "username": "b2", "password": "short", "role": "cashier",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode(t, rec).Error, 2)

	rec = f.do(http.MethodGet, "/api/user/list?sort=alpha-desc", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.UserView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &users))
	require.Len(t, users, 3)
	assert.Equal(t, "cashier", users[0].Name)
	assert.Equal(t, "CASHIER", users[0].Role)
	assert.Equal(t, "active", users[0].Status)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = f.do(http.MethodDelete, "/api/user/v2/"+f.admin.ID.String(), admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You cannot delete your own account", decode(t, rec).Message)
}

func TestDeprecatedUserRoutes(t *testing.T) {
	f := newFixture(t, pinger{})
	admin := f.login("admin")
	id := f.cashier.ID.String()

	rec := f.do(http.MethodPut, "/api/user/update/"+id, admin, map[string]string{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "true", rec.Header().Get("Deprecation"))
	assert.Equal(t, `</api/user/v2/`+id+`>; rel="successor-version"`, rec.Header().Get("Link"))
	assert.Equal(t, `299 - "Deprecated API: use /api/user/v2/`+id+`"`, rec.Header().Get("Warning"))

	rec = f.do(http.MethodPut, "/api/user/v2/"+id, admin, map[string]string{"name": "Renamed Again"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Deprecation"))

	rec = f.do(http.MethodDelete, "/api/user/delete/"+id, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Deprecation"))
}

func TestDeactivatedUserIsLockedOut(t *testing.T) {
	f := newFixture(t, pinger{})
	admin := f.login("admin")
	cashier := f.login("cashier")

	rec := f.do(http.MethodPut, "/api/user/v2/"+f.cashier.ID.String(), admin, map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(http.MethodGet, "/api/orders", cashier, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "cashier", "password": password})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, pinger{})

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestHealth(t *testing.T) {
	rec := newFixture(t, pinger{}).do(http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = newFixture(t, pinger{err: errors.New("connection refused")}).do(http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestRecoverReturnsEnvelope(t *testing.T) {
	f := newFixture(t, pinger{})
	f.router.mux.HandleFunc("GET /api/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := f.do(http.MethodGet, "/api/boom", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decode(t, rec).Success)
}

func TestWebSocketReceivesInventoryEvents(t *testing.T) {
	f := newFixture(t, pinger{})
	admin := f.login("admin")

	srv := httptest.NewServer(f.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+admin, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	rec := f.do(http.MethodPost, "/api/inventory/categories", admin, map[string]string{"name": "Drinks"})
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg websockets.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websockets.TypeInventoryUpdate, msg.Type)
	assert.Contains(t, string(msg.Data), `"category"`)
}
