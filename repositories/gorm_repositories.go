package repositories

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}

type GormRepositories struct {
	db     *gorm.DB
	redis  *redis.Client
	tables Tables
	orders OrderStorageBackend
	cache  CountCache
}

func NewGormRepositories(db *gorm.DB, redisClient *redis.Client, tables Tables, orders OrderStorageBackend) *GormRepositories {
	return &GormRepositories{db: db, redis: redisClient, tables: tables, orders: orders}
}

// WithCache overrides the count cache chosen by BuildContainer.
func (r *GormRepositories) WithCache(cache CountCache) *GormRepositories {
	r.cache = cache
	return r
}

func (r *GormRepositories) BuildContainer() Container {
	orders := r.orders
	if orders == nil {
		orders = NewLegacyOrderRepository(r.db, r.tables)
	}
	return Container{
		TxManager: NewGormTxManager(r.db),
		Users:     NewGormUserRepository(r.db, r.tables),
		Customers: NewGormCustomerRepository(r.db, r.tables),
		Orders:    orders,
		Bookings:  NewGormBookingRepository(r.db, r.tables),
		Products:  NewGormProductRepository(r.db, r.tables),
		Cache:     r.countCache(),
	}
}

func (r *GormRepositories) countCache() CountCache {
	if r.cache != nil {
		return r.cache
	}
	if r.redis != nil {
		return NewRedisCountCache(r.redis, "")
	}
	return NoopCountCache{}
}

func useTx(db *gorm.DB, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
