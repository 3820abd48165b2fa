package repositories

import (
	"context"
	"time"

	"wccleanup/models"

	"gorm.io/gorm"
)

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type UserDeleteOptions struct {
	ReassignTo     uint64
	DeleteComments bool
}

type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, userID uint64) (models.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uint64) ([]models.User, error)
	ListIDsByRole(ctx context.Context, tx *gorm.DB, role string) ([]uint64, error)
	ListWithoutRole(ctx context.Context, tx *gorm.DB, role string) ([]models.User, error)
	Count(ctx context.Context, tx *gorm.DB, search string) (int64, error)
	List(ctx context.Context, tx *gorm.DB, search string, page Page) ([]models.User, error)
	CountPosts(ctx context.Context, tx *gorm.DB, userID uint64) (int64, error)
	CountComments(ctx context.Context, tx *gorm.DB, userID uint64) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, userID uint64, opts UserDeleteOptions) error
}

type CustomerRepository interface {
	ListAllIDs(ctx context.Context, tx *gorm.DB) ([]uint64, error)
	GetByID(ctx context.Context, tx *gorm.DB, customerID uint64) (models.Customer, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, customerIDs []uint64) ([]models.Customer, error)
	Count(ctx context.Context, tx *gorm.DB, search string) (int64, error)
	List(ctx context.Context, tx *gorm.DB, search string, page Page) ([]models.Customer, error)
	Delete(ctx context.Context, tx *gorm.DB, customerID uint64) error
}

// CustomerRef identifies whose orders to look up: a registered user, or a guest by billing email.
type CustomerRef struct {
	UserID uint64
	Email  string
}

// OrderStorageBackend is one physical representation of orders.
type OrderStorageBackend interface {
	Name() string
	ListIDs(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]uint64, error)
	Count(ctx context.Context, tx *gorm.DB, filter ListFilter) (int64, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter, page Page) ([]models.OrderSummary, error)
	StatusCounts(ctx context.Context, tx *gorm.DB) ([]models.StatusCount, error)
	IDsByCustomer(ctx context.Context, tx *gorm.DB, ref CustomerRef) ([]uint64, error)
	Delete(ctx context.Context, tx *gorm.DB, orderID uint64, force bool) error
}

type BookingRepository interface {
	ListIDs(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]uint64, error)
	Count(ctx context.Context, tx *gorm.DB, filter ListFilter) (int64, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter, page Page) ([]models.BookingSummary, error)
	StatusCounts(ctx context.Context, tx *gorm.DB) ([]models.StatusCount, error)
	OrderID(ctx context.Context, tx *gorm.DB, bookingID uint64) (uint64, error)
	CountOtherReferences(ctx context.Context, tx *gorm.DB, orderID uint64, excludeID uint64) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, bookingID uint64, force bool) error
}

type ProductRepository interface {
	DuplicateCandidates(ctx context.Context, tx *gorm.DB, key models.DuplicateKey) ([]models.ProductKeyRow, error)
	GetByID(ctx context.Context, tx *gorm.DB, productID uint64) (models.Product, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, productIDs []uint64) ([]models.Product, error)
	Search(ctx context.Context, tx *gorm.DB, term string, limit int) ([]models.Product, error)
	Delete(ctx context.Context, tx *gorm.DB, productID uint64, force bool) error
	Statistics(ctx context.Context, tx *gorm.DB) (models.ProductStatistics, error)
	IDsBySKU(ctx context.Context, tx *gorm.DB, sku string) ([]uint64, error)
	UpdateSKU(ctx context.Context, tx *gorm.DB, productID uint64, sku string) error
}

// CountCache holds short-lived counters. It is an optimization only; a miss always falls through to storage.
type CountCache interface {
	Get(ctx context.Context, key string) (int64, bool, error)
	Set(ctx context.Context, key string, value int64, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Container struct {
	TxManager TxManager
	Users     UserRepository
	Customers CustomerRepository
	Orders    OrderStorageBackend
	Bookings  BookingRepository
	Products  ProductRepository
	Cache     CountCache
}
