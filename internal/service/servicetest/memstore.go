// Package servicetest provides in-memory stores for exercising the service
// layer and HTTP handlers without a database.
package servicetest

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/counterpos/pos-service/internal/db/repository"
	"github.com/counterpos/pos-service/internal/models"
)

// Store holds every table behind one mutex. A checkout holds the mutex for
// its whole callback, which serializes checkouts the way row locks do.
type Store struct {
	mu         sync.Mutex
	users      map[uuid.UUID]models.User
	roles      map[string]models.Role
	statuses   map[string]models.Status
	categories map[uuid.UUID]models.Category
	products   map[uuid.UUID]models.Product
	orders     []models.Order
	events     []models.OrderEvent
	nextOrder  int64
	nextEvent  int64

	// Now stamps created rows; tests may replace it
	Now func() time.Time
}

func New() *Store {
	return &Store{
		users:      map[uuid.UUID]models.User{},
		roles:      map[string]models.Role{},
		statuses:   map[string]models.Status{},
		categories: map[uuid.UUID]models.Category{},
		products:   map[uuid.UUID]models.Product{},
		Now:        time.Now,
	}
}

// NewSeeded returns a store with the admin/cashier roles and active/inactive
// statuses in place.
func NewSeeded() *Store {
	s := New()
	for _, name := range []string{models.RoleAdmin, models.RoleCashier} {
		s.roles[name] = models.Role{ID: uuid.New(), Name: name}
	}
	for _, name := range []string{models.StatusActive, models.StatusInactive} {
		s.statuses[name] = models.Status{ID: uuid.New(), Name: name}
	}
	return s
}

func (s *Store) Users() *UserStore           { return &UserStore{s} }
func (s *Store) References() *ReferenceStore { return &ReferenceStore{s} }
func (s *Store) Categories() *CategoryStore  { return &CategoryStore{s} }
func (s *Store) Products() *ProductStore     { return &ProductStore{s} }
func (s *Store) Orders() *OrderStore         { return &OrderStore{s} }

// AddUser stores a user with the named role and status and returns it
func (s *Store) AddUser(username, passwordHash, role, status string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	u := models.User{
		ID:           uuid.New(),
		Name:         username,
		Username:     username,
		PasswordHash: passwordHash,
		RoleID:       s.roles[role].ID,
		Role:         role,
		StatusID:     s.statuses[status].ID,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	return u
}

// AddProduct stores a product in a category created on demand
func (s *Store) AddProduct(name, category string, price decimal.Decimal, quantity int) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cat models.Category
	for _, c := range s.categories {
		if c.Name == category {
			cat = c
		}
	}
	now := s.Now()
	if cat.ID == uuid.Nil {
		cat = models.Category{ID: uuid.New(), Name: category, CreatedAt: now, UpdatedAt: now}
		s.categories[cat.ID] = cat
	}

	p := models.Product{
		ID:           uuid.New(),
		Name:         name,
		Description:  name,
		Price:        price,
		ImageURL:     "/img.png",
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Quantity:     quantity,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.products[p.ID] = p
	return p
}

// Stock returns the current quantity of a product
func (s *Store) Stock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Quantity
}

// SetActive toggles a product's sellable flag
func (s *Store) SetActive(id uuid.UUID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.IsActive = active
	s.products[id] = p
}

// OrderCount returns the number of stored orders
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// PutOrder stores a finished order directly, bypassing checkout
func (s *Store) PutOrder(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrder++
	order.ID = s.nextOrder
	s.orders = append(s.orders, order)
}

// UserStore

type UserStore struct{ s *Store }

func (u *UserStore) withRefs(user models.User) models.User {
	for _, r := range u.s.roles {
		if r.ID == user.RoleID {
			user.Role = r.Name
		}
	}
	for _, st := range u.s.statuses {
		if st.ID == user.StatusID {
			user.Status = st.Name
		}
	}
	return user
}

func (u *UserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user = u.withRefs(user)
	return &user, nil
}

func (u *UserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if user.Username == username {
			user = u.withRefs(user)
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u *UserStore) List(_ context.Context, descending bool) ([]models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	users := []models.User{}
	for _, user := range u.s.users {
		users = append(users, u.withRefs(user))
	}
	sort.Slice(users, func(i, j int) bool {
		if descending {
			return users[i].Name > users[j].Name
		}
		return users[i].Name < users[j].Name
	})
	return users, nil
}

func (u *UserStore) Create(_ context.Context, user models.User) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Username == user.Username {
			return nil, repository.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = u.s.Now()
	user.UpdatedAt = user.CreatedAt
	u.s.users[user.ID] = user
	user = u.withRefs(user)
	return &user, nil
}

func (u *UserStore) Update(_ context.Context, user models.User, revoke bool) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	stored, ok := u.s.users[user.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, existing := range u.s.users {
		if existing.Username == user.Username && existing.ID != user.ID {
			return nil, repository.ErrDuplicate
		}
	}
	user.TokenVersion = stored.TokenVersion
	if revoke {
		user.TokenVersion++
	}
	user.UpdatedAt = u.s.Now()
	u.s.users[user.ID] = user
	user = u.withRefs(user)
	return &user, nil
}

func (u *UserStore) IncrementTokenVersion(_ context.Context, id uuid.UUID) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.TokenVersion++
	u.s.users[id] = user
	return nil
}

func (u *UserStore) Delete(_ context.Context, id uuid.UUID) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(u.s.users, id)
	return nil
}

// ReferenceStore

type ReferenceStore struct{ s *Store }

func (r *ReferenceStore) RoleByName(_ context.Context, name string) (*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (r *ReferenceStore) StatusByName(_ context.Context, name string) (*models.Status, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	status, ok := r.s.statuses[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &status, nil
}

func (r *ReferenceStore) EnsureRole(_ context.Context, name string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[name]; ok {
		return false, nil
	}
	r.s.roles[name] = models.Role{ID: uuid.New(), Name: name}
	return true, nil
}

func (r *ReferenceStore) EnsureStatus(_ context.Context, name string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.statuses[name]; ok {
		return false, nil
	}
	r.s.statuses[name] = models.Status{ID: uuid.New(), Name: name}
	return true, nil
}

// CategoryStore

type CategoryStore struct{ s *Store }

func (c *CategoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cat, ok := c.s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cat, nil
}

func (c *CategoryStore) GetByName(_ context.Context, name string) (*models.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, cat := range c.s.categories {
		if cat.Name == name {
			return &cat, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (c *CategoryStore) List(_ context.Context) ([]models.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cats := []models.Category{}
	for _, cat := range c.s.categories {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (c *CategoryStore) Create(_ context.Context, name string) (*models.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, cat := range c.s.categories {
		if cat.Name == name {
			return nil, repository.ErrDuplicate
		}
	}
	now := c.s.Now()
	cat := models.Category{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
	c.s.categories[cat.ID] = cat
	return &cat, nil
}

func (c *CategoryStore) Update(_ context.Context, id uuid.UUID, name string) (*models.Category, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cat, ok := c.s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cat.Name = name
	cat.UpdatedAt = c.s.Now()
	c.s.categories[id] = cat
	return &cat, nil
}

func (c *CategoryStore) Delete(_ context.Context, id uuid.UUID) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(c.s.categories, id)
	return nil
}

func (c *CategoryStore) CountProducts(_ context.Context, id uuid.UUID) (int, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	n := 0
	for _, p := range c.s.products {
		if p.CategoryID == id {
			n++
		}
	}
	return n, nil
}

// ProductStore

type ProductStore struct{ s *Store }

func (p *ProductStore) get(id uuid.UUID) (*models.Product, error) {
	product, ok := p.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	product.CategoryName = p.s.categories[product.CategoryID].Name
	return &product, nil
}

func (p *ProductStore) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return p.get(id)
}

func (p *ProductStore) List(_ context.Context, filter models.ProductFilter) ([]models.Product, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	products := []models.Product{}
	for id := range p.s.products {
		product, _ := p.get(id)
		if filter.CategoryID != nil && product.CategoryID != *filter.CategoryID {
			continue
		}
		products = append(products, *product)
	}
	sort.Slice(products, func(i, j int) bool {
		if filter.Descending {
			return products[i].Name > products[j].Name
		}
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (p *ProductStore) Create(_ context.Context, product models.Product) (*models.Product, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	product.ID = uuid.New()
	product.CreatedAt = p.s.Now()
	product.UpdatedAt = product.CreatedAt
	p.s.products[product.ID] = product
	return p.get(product.ID)
}

func (p *ProductStore) Update(_ context.Context, product models.Product) (*models.Product, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	existing, ok := p.s.products[product.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = p.s.Now()
	p.s.products[product.ID] = product
	return p.get(product.ID)
}

func (p *ProductStore) Delete(_ context.Context, id uuid.UUID) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if _, ok := p.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(p.s.products, id)
	return nil
}

// OrderStore

type OrderStore struct{ s *Store }

// Checkout runs fn with the store locked and restores products, orders and
// events if fn fails.
func (o *OrderStore) Checkout(_ context.Context, fn func(tx repository.CheckoutTx) error) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	products := make(map[uuid.UUID]models.Product, len(o.s.products))
	for id, p := range o.s.products {
		products[id] = p
	}
	orders, events := len(o.s.orders), len(o.s.events)
	nextOrder, nextEvent := o.s.nextOrder, o.s.nextEvent

	if err := fn(&checkoutTx{s: o.s}); err != nil {
		o.s.products = products
		o.s.orders = o.s.orders[:orders]
		o.s.events = o.s.events[:events]
		o.s.nextOrder, o.s.nextEvent = nextOrder, nextEvent
		return err
	}
	return nil
}

type checkoutTx struct{ s *Store }

func (t *checkoutTx) LockProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	return (&ProductStore{t.s}).get(id)
}

func (t *checkoutTx) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	p, ok := t.s.products[id]
	if !ok || p.Quantity < qty {
		return repository.ErrInsufficientStock
	}
	p.Quantity -= qty
	t.s.products[id] = p
	return nil
}

func (t *checkoutTx) InsertOrder(_ context.Context, order *models.Order) error {
	t.s.nextOrder++
	order.ID = t.s.nextOrder
	order.CreatedAt = t.s.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].LineNo = i + 1
	}
	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	t.s.orders = append(t.s.orders, stored)
	return nil
}

func (t *checkoutTx) AppendEvent(_ context.Context, event models.OrderEvent) error {
	t.s.appendEvent(event)
	return nil
}

func (s *Store) appendEvent(event models.OrderEvent) {
	s.nextEvent++
	event.ID = s.nextEvent
	event.CreatedAt = s.Now()
	if len(event.Detail) == 0 {
		event.Detail = json.RawMessage(`{}`)
	}
	s.events = append(s.events, event)
}

func (o *OrderStore) find(orderID string) int {
	for i, order := range o.s.orders {
		if order.OrderID == orderID {
			return i
		}
	}
	return -1
}

func (o *OrderStore) withCreator(order models.Order) models.Order {
	if order.CreatedByID != nil {
		order.CreatedBy = o.s.users[*order.CreatedByID].Username
	}
	order.Items = append([]models.OrderItem{}, order.Items...)
	return order
}

func (o *OrderStore) GetByOrderID(_ context.Context, orderID string) (*models.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	i := o.find(orderID)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	order := o.withCreator(o.s.orders[i])
	return &order, nil
}

func (o *OrderStore) List(_ context.Context) ([]models.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	orders := make([]models.Order, 0, len(o.s.orders))
	for i := len(o.s.orders) - 1; i >= 0; i-- {
		orders = append(orders, o.withCreator(o.s.orders[i]))
	}
	return orders, nil
}

func (o *OrderStore) UpdateStatus(_ context.Context, orderID string, status models.OrderStatus, actorID *uuid.UUID) (models.OrderStatus, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	i := o.find(orderID)
	if i < 0 {
		return "", repository.ErrNotFound
	}
	prev := o.s.orders[i].Status
	o.s.orders[i].Status = status
	o.s.orders[i].UpdatedAt = o.s.Now()
	detail, _ := json.Marshal(map[string]string{"from": string(prev), "to": string(status)})
	o.s.appendEvent(models.OrderEvent{OrderID: orderID, Action: models.OrderEventStatusChanged, ActorID: actorID, Detail: detail})
	return prev, nil
}

func (o *OrderStore) Delete(_ context.Context, orderID string, actorID *uuid.UUID) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	i := o.find(orderID)
	if i < 0 {
		return repository.ErrNotFound
	}
	o.s.orders = append(o.s.orders[:i], o.s.orders[i+1:]...)
	o.s.appendEvent(models.OrderEvent{OrderID: orderID, Action: models.OrderEventDeleted, ActorID: actorID})
	return nil
}

func (o *OrderStore) DeleteAll(_ context.Context, actorID *uuid.UUID) (int64, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	n := int64(len(o.s.orders))
	o.s.orders = nil
	detail, _ := json.Marshal(map[string]int64{"count": n})
	o.s.appendEvent(models.OrderEvent{OrderID: "*", Action: models.OrderEventPurged, ActorID: actorID, Detail: detail})
	return n, nil
}

func (o *OrderStore) Events(_ context.Context, orderID string) ([]models.OrderEvent, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	events := []models.OrderEvent{}
	for _, e := range o.s.events {
		if e.OrderID == orderID {
			events = append(events, e)
		}
	}
	return events, nil
}

// SalesTotal sums line totals of completed orders created within [from, to)
func (o *OrderStore) SalesTotal(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	total := decimal.Zero
	for _, order := range o.s.orders {
		if order.Status != models.OrderStatusCompleted {
			continue
		}
		if order.CreatedAt.Before(from) || !order.CreatedAt.Before(to) {
			continue
		}
		for _, item := range order.Items {
			total = total.Add(item.LineTotal())
		}
	}
	return total, nil
}

// Recorder is a Notifier that keeps every published event
type Recorder struct {
	mu     sync.Mutex
	Events []Published
}

type Published struct {
	Type string
	Data any
}

func (r *Recorder) Publish(eventType string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Published{Type: eventType, Data: data})
}

// Types returns the published event types in order
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}

// Count returns how many events of the given type were published
func (r *Recorder) Count(eventType string) int {
	n := 0
	for _, t := range r.Types() {
		if strings.EqualFold(t, eventType) {
			n++
		}
	}
	return n
}
