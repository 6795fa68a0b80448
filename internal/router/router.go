// internal/router/router.go
package router

import (
	"net/http"

	"github.com/counterpos/pos-service/internal/api"
	"github.com/counterpos/pos-service/internal/api/handler"
	"github.com/counterpos/pos-service/internal/middleware"
	"github.com/counterpos/pos-service/internal/models"
	"github.com/counterpos/pos-service/internal/service"
	"github.com/counterpos/pos-service/internal/telemetry"
)

// Handlers groups the endpoint handlers the router mounts
type Handlers struct {
	Auth      *handler.AuthHandler
	Inventory *handler.InventoryHandler
	Order     *handler.OrderHandler
	Receipt   *handler.ReceiptHandler
	Report    *handler.ReportHandler
	User      *handler.UserHandler
	Health    http.Handler
	WebSocket http.Handler
}

// Options configures the middleware wrapped around every route
type Options struct {
	CORS        middleware.CORSConfig
	ServiceName string
}

// Router handles HTTP routing
type Router struct {
	mux     *http.ServeMux
	auth    *service.AuthService
	handler http.Handler
}

// New creates a new router
func New(h Handlers, auth *service.AuthService, opts Options) *Router {
	r := &Router{
		mux:  http.NewServeMux(),
		auth: auth,
	}

	// Set up routes
	r.setupRoutes(h)

	var chain http.Handler = middleware.Logger(r.mux)
	chain = middleware.CORS(opts.CORS)(chain)
	chain = telemetry.Handler(chain, opts.ServiceName)
	r.handler = middleware.Recover(chain)

	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) authed(h http.HandlerFunc) http.Handler {
	return middleware.Auth(r.auth)(h)
}

func (r *Router) admin(h http.HandlerFunc) http.Handler {
	return middleware.Auth(r.auth)(middleware.RequireRole(models.RoleAdmin)(h))
}

func userSuccessor(req *http.Request) string {
	return "/api/user/v2/" + req.PathValue("id")
}

// setupRoutes sets up the routes for the router
func (r *Router) setupRoutes(h Handlers) {
	// Public routes
	r.mux.Handle("POST /api/auth/login", http.HandlerFunc(h.Auth.Login))
	r.mux.Handle("GET /api/inventory/categories", http.HandlerFunc(h.Inventory.ListCategories))
	r.mux.Handle("GET /api/inventory/products", http.HandlerFunc(h.Inventory.ListProducts))
	r.mux.Handle("GET /api/inventory/products/{id}", http.HandlerFunc(h.Inventory.GetProduct))
	r.mux.Handle("GET /api/healthz", h.Health)
	r.mux.Handle("GET /ws", middleware.AuthQuery(r.auth)(h.WebSocket))

	// Authenticated routes
	r.mux.Handle("POST /api/auth/logout", r.authed(h.Auth.Logout))
	r.mux.Handle("POST /api/orders", r.authed(h.Order.CreateOrder))
	r.mux.Handle("GET /api/orders", r.authed(h.Order.ListOrders))
	r.mux.Handle("GET /api/orders/{orderId}", r.authed(h.Order.GetOrder))
	r.mux.Handle("PUT /api/orders/{orderId}/status", r.authed(h.Order.UpdateOrderStatus))
	r.mux.Handle("DELETE /api/orders/{orderId}", r.authed(h.Order.DeleteOrder))
	r.mux.Handle("GET /api/receipts/{orderId}", r.authed(h.Receipt.GetReceipt))

	// Admin routes
	r.mux.Handle("POST /api/inventory/categories", r.admin(h.Inventory.CreateCategory))
	r.mux.Handle("PUT /api/inventory/categories/{id}", r.admin(h.Inventory.UpdateCategory))
	r.mux.Handle("DELETE /api/inventory/categories/{id}", r.admin(h.Inventory.DeleteCategory))
	r.mux.Handle("POST /api/inventory/products", r.admin(h.Inventory.CreateProduct))
	r.mux.Handle("PUT /api/inventory/products/{id}", r.admin(h.Inventory.UpdateProduct))
	r.mux.Handle("DELETE /api/inventory/products/{id}", r.admin(h.Inventory.DeleteProduct))
	r.mux.Handle("DELETE /api/orders", r.admin(h.Order.DeleteAllOrders))
	r.mux.Handle("GET /api/orders/{orderId}/events", r.admin(h.Order.ListOrderEvents))
	r.mux.Handle("GET /api/reports/sales", r.admin(h.Report.SalesReport))

	r.mux.Handle("POST /api/user/register", r.admin(h.User.Register))
	r.mux.Handle("GET /api/user/list", r.admin(h.User.ListUsers))
	r.mux.Handle("PUT /api/user/v2/{id}", r.admin(h.User.UpdateUser))
	r.mux.Handle("DELETE /api/user/v2/{id}", r.admin(h.User.DeleteUser))

	deprecated := middleware.Deprecated(userSuccessor)
	r.mux.Handle("PUT /api/user/update/{id}", deprecated(r.admin(h.User.UpdateUser)))
	r.mux.Handle("DELETE /api/user/delete/{id}", deprecated(r.admin(h.User.DeleteUser)))

	r.mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		api.NotFound(w)
	}))
}
