package services

import (
	"context"
	"fmt"
	"strings"

	"wccleanup/repositories"

	"gorm.io/gorm"
)

var bookingStatusLabels = map[string]string{
	"unpaid":               "Unpaid",
	"pending-confirmation": "Pending Confirmation",
	"confirmed":            "Confirmed",
	"paid":                 "Paid",
	"cancelled":            "Cancelled",
	"complete":             "Complete",
	"in-cart":              "In Cart",
	"was-in-cart":          "Was In Cart",
}

func bookingStatusLabel(status string) string {
	if status == "" {
		return "Unknown"
	}
	if label, ok := bookingStatusLabels[status]; ok {
		return label
	}
	return strings.ToUpper(status[:1]) + status[1:]
}

type DeleteBookingsInput struct {
	ActionType string
	BookingIDs []uint64
	Filter     FilterInput
	Options    DeleteOptions
}

type BookingItem struct {
	ID          uint64 `json:"id"`
	Text        string `json:"text"`
	Status      string `json:"status,omitempty"`
	StatusLabel string `json:"status_label,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	CustomerID  uint64 `json:"customer_id,omitempty"`
	OrderID     uint64 `json:"order_id,omitempty"`
	ProductID   uint64 `json:"product_id,omitempty"`
	Cost        string `json:"cost,omitempty"`
}

type BookingService interface {
	DeleteBookings(ctx context.Context, in DeleteBookingsInput) (BatchResult, error)
	ListBookings(ctx context.Context, in ListInput) (SelectPage[BookingItem], error)
	ListBookingStatuses(ctx context.Context) ([]StatusOption, error)
}

type bookingService struct {
	txManager   TxManager
	bookings    repositories.BookingRepository
	orders      repositories.OrderStorageBackend
	orderCounts *orderCountCache
	engine      batchEngine
	pageSize    int
}

func NewBookingService(txManager TxManager, bookings repositories.BookingRepository, orders repositories.OrderStorageBackend, orderCounts *orderCountCache, settings Settings) BookingService {
	return &bookingService{
		txManager:   txManager,
		bookings:    bookings,
		orders:      orders,
		orderCounts: orderCounts,
		engine:      batchEngine{entity: "booking", plural: "bookings", batchSize: settings.BatchSize},
		pageSize:    settings.pageSize(),
	}
}

var bookingFailures = failureMessages{
	notFound: "Booking #%d not found.",
	refused:  "Failed to delete booking #%d.",
	failed:   "Error deleting booking #%d: %s",
}

func (s *bookingService) DeleteBookings(ctx context.Context, in DeleteBookingsInput) (BatchResult, error) {
	ids, empty, err := s.resolve(ctx, in)
	if err != nil {
		return BatchResult{}, err
	}
	if empty != "" {
		return emptyResult(empty), nil
	}

	ordersTouched := false
	result := s.engine.run(ctx, ids, in.Options.BatchSize, func(ctx context.Context, id uint64) (deleteOutcome, string) {
		touched, err := s.deleteOne(ctx, id, in.Options)
		if err != nil {
			return outcomeErrored, bookingFailures.describe(id, err)
		}
		ordersTouched = ordersTouched || touched
		return outcomeDeleted, ""
	})
	if ordersTouched {
		s.orderCounts.evict(ctx)
	}
	return result, nil
}

// deleteOne removes the booking and, when asked, its order once no other booking points at it.
func (s *bookingService) deleteOne(ctx context.Context, id uint64, opts DeleteOptions) (bool, error) {
	orderDeleted := false
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		orderID, err := s.bookings.OrderID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.bookings.Delete(ctx, tx, id, opts.ForceDelete); err != nil {
			return err
		}
		if !opts.DeleteRelated || orderID == 0 {
			return nil
		}

		others, err := s.bookings.CountOtherReferences(ctx, tx, orderID, id)
		if err != nil {
			return err
		}
		if others > 0 {
			return nil
		}
		err = s.orders.Delete(ctx, tx, orderID, opts.ForceDelete)
		if repositories.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("delete order %d: %w", orderID, err)
		}
		orderDeleted = true
		return nil
	})
	return orderDeleted && err == nil, err
}

func (s *bookingService) resolve(ctx context.Context, in DeleteBookingsInput) ([]uint64, string, error) {
	switch in.ActionType {
	case ActionDeleteAll:
		return s.matching(ctx, repositories.ListFilter{}, "No bookings found to delete.")
	case ActionDeleteSelected:
		ids := uniqueIDs(in.BookingIDs)
		if len(ids) == 0 {
			return nil, "", noSelection("No bookings selected for deletion.")
		}
		return ids, "", nil
	case ActionDeleteExcept:
		keep := uniqueIDs(in.BookingIDs)
		if len(keep) == 0 {
			return nil, "", noSelection("No bookings selected to keep.")
		}
		all, empty, err := s.matching(ctx, repositories.ListFilter{}, "No bookings found to delete.")
		if err != nil || empty != "" {
			return nil, empty, err
		}
		ids := exceptIDs(all, keep)
		if len(ids) == 0 {
			return nil, "No bookings to delete after filtering.", nil
		}
		return ids, "", nil
	case ActionDeleteByStatus:
		statuses := splitStatuses(in.Filter.Status)
		if len(statuses) == 0 {
			return nil, "", noSelection("No booking status selected.")
		}
		return s.matching(ctx, repositories.ListFilter{Statuses: statuses}, "No bookings found with the selected status.")
	case ActionDeleteByDateRange:
		days, err := requireDayRange(in.Filter.DateFrom, in.Filter.DateTo)
		if err != nil {
			return nil, "", err
		}
		return s.matching(ctx, repositories.ListFilter{Dates: days.compact()}, "No bookings found in the selected date range.")
	}
	return nil, "", invalidFilter(msgInvalidAction)
}

func (s *bookingService) matching(ctx context.Context, filter repositories.ListFilter, emptyMessage string) ([]uint64, string, error) {
	ids, err := s.bookings.ListIDs(ctx, nil, filter)
	if err != nil {
		return nil, "", internalError("Failed to load bookings.", err)
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, emptyMessage, nil
	}
	return ids, "", nil
}

func (s *bookingService) ListBookings(ctx context.Context, in ListInput) (SelectPage[BookingItem], error) {
	days, err := parseDayRange(in.Filter.DateFrom, in.Filter.DateTo)
	if err != nil {
		return SelectPage[BookingItem]{}, err
	}
	filter := repositories.ListFilter{
		Statuses: splitStatuses(in.Filter.Status),
		Dates:    days.compact(),
		Search:   strings.TrimSpace(in.Search),
	}

	total, err := s.bookings.Count(ctx, nil, filter)
	if err != nil {
		return SelectPage[BookingItem]{}, internalError("Failed to count bookings.", err)
	}
	bookings, err := s.bookings.List(ctx, nil, filter, pageWindow(in.Page, s.pageSize))
	if err != nil {
		return SelectPage[BookingItem]{}, internalError("Failed to load bookings.", err)
	}

	items := make([]BookingItem, 0, len(bookings))
	for _, booking := range bookings {
		product := booking.ProductName
		if product == "" {
			product = "(No product)"
		}
		customer := booking.CustomerName
		if customer == "" {
			customer = "Guest"
		}
		item := BookingItem{ID: booking.ID, Text: fmt.Sprintf("#%d - %s (%s)", booking.ID, product, customer)}
		if in.IncludeData {
			item.Status = booking.Status
			item.StatusLabel = bookingStatusLabel(booking.Status)
			item.StartDate = booking.Start
			item.EndDate = booking.End
			item.CustomerID = booking.CustomerID
			item.OrderID = booking.OrderID
			item.ProductID = booking.ProductID
			item.Cost = booking.Cost
		}
		items = append(items, item)
	}
	return newSelectPage(items, in.Page, s.pageSize, total), nil
}

func (s *bookingService) ListBookingStatuses(ctx context.Context) ([]StatusOption, error) {
	counts, err := s.bookings.StatusCounts(ctx, nil)
	if err != nil {
		return nil, internalError("Failed to count bookings by status.", err)
	}
	options := make([]StatusOption, 0, len(counts))
	for _, row := range counts {
		options = append(options, StatusOption{ID: row.Status, Text: bookingStatusLabel(row.Status), Count: row.Count})
	}
	return options, nil
}
