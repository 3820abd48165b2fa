package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"wccleanup/models"
	"wccleanup/repositories"

	"gorm.io/gorm"
)

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func roleCaps(role string) string {
	return fmt.Sprintf(`a:1:{s:%d:"%s";b:1;}`, len(role), role)
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

type fakeUserRepo struct {
	users      map[uint64]models.User
	posts      map[uint64]int64
	comments   map[uint64]int64
	deleteErr  map[uint64]error
	deleted    []uint64
	deleteOpts []repositories.UserDeleteOptions
	listErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     map[uint64]models.User{},
		posts:     map[uint64]int64{},
		comments:  map[uint64]int64{},
		deleteErr: map[uint64]error{},
	}
}

func (r *fakeUserRepo) add(id uint64, login string, role string) {
	r.users[id] = models.User{
		ID:           id,
		UserLogin:    login,
		UserEmail:    login + "@example.com",
		DisplayName:  login,
		Capabilities: roleCaps(role),
	}
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ *gorm.DB, userID uint64) (models.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, _ *gorm.DB, userIDs []uint64) ([]models.User, error) {
	var out []models.User
	for _, id := range userIDs {
		if user, ok := r.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListIDsByRole(_ context.Context, _ *gorm.DB, role string) ([]uint64, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var ids []uint64
	for _, id := range sortedKeys(r.users) {
		if slices.Contains(models.ParseRoles(r.users[id].Capabilities), role) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeUserRepo) ListWithoutRole(_ context.Context, _ *gorm.DB, role string) ([]models.User, error) {
	var out []models.User
	for _, id := range sortedKeys(r.users) {
		if !slices.Contains(models.ParseRoles(r.users[id].Capabilities), role) {
			out = append(out, r.users[id])
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Count(_ context.Context, _ *gorm.DB, _ string) (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) List(_ context.Context, _ *gorm.DB, _ string, page repositories.Page) ([]models.User, error) {
	ids := sortedKeys(r.users)
	slices.Reverse(ids)
	var out []models.User
	for i, id := range ids {
		if i >= page.Offset && len(out) < page.Limit {
			out = append(out, r.users[id])
		}
	}
	return out, nil
}

func (r *fakeUserRepo) CountPosts(_ context.Context, _ *gorm.DB, userID uint64) (int64, error) {
	return r.posts[userID], nil
}

func (r *fakeUserRepo) CountComments(_ context.Context, _ *gorm.DB, userID uint64) (int64, error) {
	return r.comments[userID], nil
}

func (r *fakeUserRepo) Delete(_ context.Context, _ *gorm.DB, userID uint64, opts repositories.UserDeleteOptions) error {
	if err := r.deleteErr[userID]; err != nil {
		return err
	}
	if _, ok := r.users[userID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.users, userID)
	r.deleted = append(r.deleted, userID)
	r.deleteOpts = append(r.deleteOpts, opts)
	return nil
}

type fakeOrder struct {
	status     string
	customerID uint64
	email      string
}

type fakeOrderBackend struct {
	orders           map[uint64]fakeOrder
	deleteErr        map[uint64]error
	deleted          []uint64
	forced           []bool
	lastFilter       repositories.ListFilter
	lastPage         repositories.Page
	statusCountCalls int
}

func newFakeOrderBackend() *fakeOrderBackend {
	return &fakeOrderBackend{orders: map[uint64]fakeOrder{}, deleteErr: map[uint64]error{}}
}

func (b *fakeOrderBackend) Name() string { return "fake" }

func (b *fakeOrderBackend) ListIDs(_ context.Context, _ *gorm.DB, filter repositories.ListFilter) ([]uint64, error) {
	b.lastFilter = filter
	var ids []uint64
	for _, id := range sortedKeys(b.orders) {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, b.orders[id].status) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *fakeOrderBackend) Count(ctx context.Context, tx *gorm.DB, filter repositories.ListFilter) (int64, error) {
	ids, err := b.ListIDs(ctx, tx, filter)
	return int64(len(ids)), err
}

func (b *fakeOrderBackend) List(ctx context.Context, tx *gorm.DB, filter repositories.ListFilter, page repositories.Page) ([]models.OrderSummary, error) {
	b.lastPage = page
	ids, _ := b.ListIDs(ctx, tx, filter)
	slices.Reverse(ids)
	var out []models.OrderSummary
	for i, id := range ids {
		if i < page.Offset || len(out) >= page.Limit {
			continue
		}
		order := b.orders[id]
		out = append(out, models.OrderSummary{ID: id, Status: order.status, CustomerID: order.customerID, BillingEmail: order.email})
	}
	return out, nil
}

func (b *fakeOrderBackend) StatusCounts(_ context.Context, _ *gorm.DB) ([]models.StatusCount, error) {
	b.statusCountCalls++
	counts := map[string]int64{}
	for _, order := range b.orders {
		counts[order.status]++
	}
	var out []models.StatusCount
	for status, count := range counts {
		out = append(out, models.StatusCount{Status: status, Count: count})
	}
	return out, nil
}

func (b *fakeOrderBackend) IDsByCustomer(_ context.Context, _ *gorm.DB, ref repositories.CustomerRef) ([]uint64, error) {
	var ids []uint64
	for _, id := range sortedKeys(b.orders) {
		order := b.orders[id]
		if ref.UserID > 0 && order.customerID == ref.UserID {
			ids = append(ids, id)
		} else if ref.UserID == 0 && ref.Email != "" && order.email == ref.Email {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (b *fakeOrderBackend) Delete(_ context.Context, _ *gorm.DB, orderID uint64, force bool) error {
	if err := b.deleteErr[orderID]; err != nil {
		return err
	}
	if _, ok := b.orders[orderID]; !ok {
		return repositories.ErrNotFound
	}
	delete(b.orders, orderID)
	b.deleted = append(b.deleted, orderID)
	b.forced = append(b.forced, force)
	return nil
}

type fakeCustomerRepo struct {
	customers map[uint64]models.Customer
	deleted   []uint64
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: map[uint64]models.Customer{}}
}

func (r *fakeCustomerRepo) ListAllIDs(_ context.Context, _ *gorm.DB) ([]uint64, error) {
	return sortedKeys(r.customers), nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, _ *gorm.DB, customerID uint64) (models.Customer, error) {
	customer, ok := r.customers[customerID]
	if !ok {
		return models.Customer{}, repositories.ErrNotFound
	}
	return customer, nil
}

func (r *fakeCustomerRepo) GetByIDs(_ context.Context, _ *gorm.DB, customerIDs []uint64) ([]models.Customer, error) {
	var out []models.Customer
	for _, id := range customerIDs {
		if customer, ok := r.customers[id]; ok {
			out = append(out, customer)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) Count(_ context.Context, _ *gorm.DB, _ string) (int64, error) {
	return int64(len(r.customers)), nil
}

func (r *fakeCustomerRepo) List(_ context.Context, _ *gorm.DB, _ string, page repositories.Page) ([]models.Customer, error) {
	var out []models.Customer
	for i, id := range sortedKeys(r.customers) {
		if i >= page.Offset && len(out) < page.Limit {
			out = append(out, r.customers[id])
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, _ *gorm.DB, customerID uint64) error {
	if _, ok := r.customers[customerID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.customers, customerID)
	r.deleted = append(r.deleted, customerID)
	return nil
}

type fakeBooking struct {
	status  string
	orderID uint64
	product string
}

type fakeBookingRepo struct {
	bookings   map[uint64]fakeBooking
	deleted    []uint64
	lastFilter repositories.ListFilter
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[uint64]fakeBooking{}}
}

func (r *fakeBookingRepo) ListIDs(_ context.Context, _ *gorm.DB, filter repositories.ListFilter) ([]uint64, error) {
	r.lastFilter = filter
	var ids []uint64
	for _, id := range sortedKeys(r.bookings) {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, r.bookings[id].status) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeBookingRepo) Count(ctx context.Context, tx *gorm.DB, filter repositories.ListFilter) (int64, error) {
	ids, err := r.ListIDs(ctx, tx, filter)
	return int64(len(ids)), err
}

func (r *fakeBookingRepo) List(ctx context.Context, tx *gorm.DB, filter repositories.ListFilter, page repositories.Page) ([]models.BookingSummary, error) {
	ids, _ := r.ListIDs(ctx, tx, filter)
	var out []models.BookingSummary
	for i, id := range ids {
		if i < page.Offset || len(out) >= page.Limit {
			continue
		}
		b := r.bookings[id]
		out = append(out, models.BookingSummary{ID: id, Status: b.status, OrderID: b.orderID, ProductName: b.product})
	}
	return out, nil
}

func (r *fakeBookingRepo) StatusCounts(_ context.Context, _ *gorm.DB) ([]models.StatusCount, error) {
	counts := map[string]int64{}
	for _, b := range r.bookings {
		counts[b.status]++
	}
	var out []models.StatusCount
	for status, count := range counts {
		out = append(out, models.StatusCount{Status: status, Count: count})
	}
	slices.SortFunc(out, func(a, b models.StatusCount) int {
		if a.Status < b.Status {
			return -1
		}
		if a.Status > b.Status {
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *fakeBookingRepo) OrderID(_ context.Context, _ *gorm.DB, bookingID uint64) (uint64, error) {
	return r.bookings[bookingID].orderID, nil
}

func (r *fakeBookingRepo) CountOtherReferences(_ context.Context, _ *gorm.DB, orderID uint64, excludeID uint64) (int64, error) {
	var n int64
	for id, b := range r.bookings {
		if id != excludeID && b.orderID == orderID {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, _ *gorm.DB, bookingID uint64, _ bool) error {
	if _, ok := r.bookings[bookingID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.bookings, bookingID)
	r.deleted = append(r.deleted, bookingID)
	return nil
}

type fakeProductRepo struct {
	products   map[uint64]models.Product
	candidates map[models.DuplicateKey][]models.ProductKeyRow
	skus       map[uint64]string
	deleted    []uint64
	deleteErr  map[uint64]error
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:   map[uint64]models.Product{},
		candidates: map[models.DuplicateKey][]models.ProductKeyRow{},
		skus:       map[uint64]string{},
		deleteErr:  map[uint64]error{},
	}
}

func (r *fakeProductRepo) DuplicateCandidates(_ context.Context, _ *gorm.DB, key models.DuplicateKey) ([]models.ProductKeyRow, error) {
	return r.candidates[key], nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, _ *gorm.DB, productID uint64) (models.Product, error) {
	product, ok := r.products[productID]
	if !ok {
		return models.Product{}, repositories.ErrNotFound
	}
	return product, nil
}

func (r *fakeProductRepo) GetByIDs(_ context.Context, _ *gorm.DB, productIDs []uint64) ([]models.Product, error) {
	var out []models.Product
	for _, id := range productIDs {
		if product, ok := r.products[id]; ok {
			out = append(out, product)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Search(_ context.Context, _ *gorm.DB, _ string, limit int) ([]models.Product, error) {
	var out []models.Product
	for _, id := range sortedKeys(r.products) {
		if len(out) < limit {
			out = append(out, r.products[id])
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Delete(_ context.Context, _ *gorm.DB, productID uint64, _ bool) error {
	if err := r.deleteErr[productID]; err != nil {
		return err
	}
	if _, ok := r.products[productID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.products, productID)
	r.deleted = append(r.deleted, productID)
	return nil
}

func (r *fakeProductRepo) Statistics(_ context.Context, _ *gorm.DB) (models.ProductStatistics, error) {
	return models.ProductStatistics{TotalProducts: int64(len(r.products))}, nil
}

func (r *fakeProductRepo) IDsBySKU(_ context.Context, _ *gorm.DB, sku string) ([]uint64, error) {
	var ids []uint64
	for _, id := range sortedKeys(r.skus) {
		if r.skus[id] == sku {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeProductRepo) UpdateSKU(_ context.Context, _ *gorm.DB, productID uint64, sku string) error {
	r.skus[productID] = sku
	return nil
}

type fakeCountCache struct {
	values map[string]int64
	sets   int
}

func newFakeCountCache() *fakeCountCache {
	return &fakeCountCache{values: map[string]int64{}}
}

func (c *fakeCountCache) Get(_ context.Context, key string) (int64, bool, error) {
	value, ok := c.values[key]
	return value, ok, nil
}

func (c *fakeCountCache) Set(_ context.Context, key string, value int64, _ time.Duration) error {
	c.values[key] = value
	c.sets++
	return nil
}

func (c *fakeCountCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}
