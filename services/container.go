package services

import (
	"context"
	"time"

	"wccleanup/config"
	"wccleanup/repositories"

	"gorm.io/gorm"
)

// TxManager runs fn inside one database transaction. Each deleted entity gets its own.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Settings are the tunables services read from configuration.
// Location is the store timezone order date filters are read in; nil means UTC.
type Settings struct {
	BatchSize     int
	PageSize      int
	AdminURL      string
	OrderCountTTL time.Duration
	Auth          config.AuthConfig
	Location      *time.Location
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		BatchSize:     cfg.Cleanup.DefaultBatchSize,
		PageSize:      cfg.Cleanup.PageSize,
		AdminURL:      cfg.Cleanup.AdminURL,
		OrderCountTTL: time.Duration(cfg.Cache.OrderCountTTLSeconds) * time.Second,
		Auth:          cfg.Auth,
	}
}

func (s Settings) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return 20
}

type Container struct {
	Auth      AuthService
	Users     UserService
	Customers CustomerService
	Orders    OrderService
	Bookings  BookingService
	Products  ProductService
	Warmer    *CacheWarmer
}

func NewContainer(repos repositories.Container, settings Settings) *Container {
	orderCounts := newOrderCountCache(repos.Cache, settings.OrderCountTTL)
	orders := NewOrderService(repos.TxManager, repos.Orders, repos.Users, orderCounts, settings)
	return &Container{
		Auth:      NewAuthService(repos.Users, settings.Auth),
		Users:     NewUserService(repos.TxManager, repos.Users, repos.Orders, orderCounts, settings),
		Customers: NewCustomerService(repos.TxManager, repos.Customers, repos.Users, repos.Orders, orderCounts, settings),
		Orders:    orders,
		Bookings:  NewBookingService(repos.TxManager, repos.Bookings, repos.Orders, orderCounts, settings),
		Products:  NewProductService(repos.TxManager, repos.Products, settings),
		Warmer:    NewCacheWarmer(orders),
	}
}
