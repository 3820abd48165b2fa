package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"wccleanup/models"
	"wccleanup/repositories"

	"gorm.io/gorm"
)

type orderStatus struct {
	id    string
	label string
}

var registeredOrderStatuses = []orderStatus{
	{"pending", "Pending payment"},
	{"processing", "Processing"},
	{"on-hold", "On hold"},
	{"completed", "Completed"},
	{"cancelled", "Cancelled"},
	{"refunded", "Refunded"},
	{"failed", "Failed"},
	{"checkout-draft", "Draft"},
}

// maxOrderListLimit caps the caller-chosen page size of list_orders.
const maxOrderListLimit = 100

func isRegisteredOrderStatus(id string) bool {
	for _, status := range registeredOrderStatuses {
		if status.id == id {
			return true
		}
	}
	return false
}

type DeleteOrdersInput struct {
	ActionType string
	OrderIDs   []uint64
	Filter     FilterInput
	Options    DeleteOptions
}

type OrderItem struct {
	ID            uint64 `json:"id"`
	Text          string `json:"text"`
	IsAdmin       bool   `json:"is_admin"`
	AdminName     string `json:"admin_name,omitempty"`
	Date          string `json:"date,omitempty"`
	Status        string `json:"status,omitempty"`
	Total         string `json:"total,omitempty"`
	Currency      string `json:"currency,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

type StatusOption struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Count int64  `json:"count"`
}

type OrderService interface {
	DeleteOrders(ctx context.Context, in DeleteOrdersInput) (BatchResult, error)
	ListOrders(ctx context.Context, in ListInput) (SelectPage[OrderItem], error)
	CountOrders(ctx context.Context, filter FilterInput) (int64, error)
	ListOrderStatuses(ctx context.Context, forceRefresh bool) ([]StatusOption, error)
}

type orderService struct {
	txManager   TxManager
	orders      repositories.OrderStorageBackend
	users       repositories.UserRepository
	orderCounts *orderCountCache
	engine      batchEngine
	pageSize    int
	location    *time.Location
}

func NewOrderService(txManager TxManager, orders repositories.OrderStorageBackend, users repositories.UserRepository, orderCounts *orderCountCache, settings Settings) OrderService {
	return &orderService{
		txManager:   txManager,
		orders:      orders,
		users:       users,
		orderCounts: orderCounts,
		engine:      batchEngine{entity: "order", plural: "orders", batchSize: settings.BatchSize},
		pageSize:    settings.pageSize(),
		location:    settings.Location,
	}
}

var orderFailures = failureMessages{
	notFound: "Order #%d not found.",
	refused:  "Failed to delete order #%d.",
	failed:   "Error deleting order #%d: %s",
}

func (s *orderService) DeleteOrders(ctx context.Context, in DeleteOrdersInput) (BatchResult, error) {
	ids, empty, err := s.resolve(ctx, in)
	if err != nil {
		return BatchResult{}, err
	}
	if empty != "" {
		return emptyResult(empty), nil
	}

	result := s.engine.run(ctx, ids, in.Options.BatchSize, func(ctx context.Context, id uint64) (deleteOutcome, string) {
		err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
			return s.orders.Delete(ctx, tx, id, in.Options.ForceDelete)
		})
		if err != nil {
			return outcomeErrored, orderFailures.describe(id, err)
		}
		return outcomeDeleted, ""
	})
	s.orderCounts.evict(ctx)
	return result, nil
}

func (s *orderService) resolve(ctx context.Context, in DeleteOrdersInput) ([]uint64, string, error) {
	switch in.ActionType {
	case ActionDeleteAll:
		return s.matching(ctx, repositories.ListFilter{}, "No orders found to delete.")
	case ActionDeleteSelected:
		ids := uniqueIDs(in.OrderIDs)
		if len(ids) == 0 {
			return nil, "", noSelection("No orders selected for deletion.")
		}
		return ids, "", nil
	case ActionDeleteExcept:
		keep := uniqueIDs(in.OrderIDs)
		if len(keep) == 0 {
			return nil, "", noSelection("No orders selected to keep.")
		}
		all, empty, err := s.matching(ctx, repositories.ListFilter{}, "No orders found to delete.")
		if err != nil || empty != "" {
			return nil, empty, err
		}
		ids := exceptIDs(all, keep)
		if len(ids) == 0 {
			return nil, "No orders to delete after filtering.", nil
		}
		return ids, "", nil
	case ActionDeleteByStatus:
		statuses := splitStatuses(in.Filter.Status)
		if len(statuses) == 0 {
			return nil, "", noSelection("No order statuses selected.")
		}
		return s.matching(ctx, repositories.ListFilter{Statuses: statuses}, "No orders found with the selected statuses.")
	case ActionDeleteByDateRange:
		days, err := requireDayRange(in.Filter.DateFrom, in.Filter.DateTo)
		if err != nil {
			return nil, "", err
		}
		return s.matching(ctx, repositories.ListFilter{Dates: days.gmtDatetimes(s.location)}, "No orders found in the selected date range.")
	}
	return nil, "", invalidFilter(msgInvalidAction)
}

func (s *orderService) matching(ctx context.Context, filter repositories.ListFilter, emptyMessage string) ([]uint64, string, error) {
	ids, err := s.orders.ListIDs(ctx, nil, filter)
	if err != nil {
		return nil, "", internalError("Failed to load orders.", err)
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, emptyMessage, nil
	}
	return ids, "", nil
}

func (s *orderService) listFilter(in FilterInput) (repositories.ListFilter, error) {
	days, err := parseDayRange(in.DateFrom, in.DateTo)
	if err != nil {
		return repositories.ListFilter{}, err
	}
	return repositories.ListFilter{
		Statuses: splitStatuses(in.Status),
		Dates:    days.gmtDatetimes(s.location),
		Search:   strings.TrimSpace(in.Search),
	}, nil
}

func (s *orderService) CountOrders(ctx context.Context, in FilterInput) (int64, error) {
	filter, err := s.listFilter(in)
	if err != nil {
		return 0, err
	}
	total, err := s.orders.Count(ctx, nil, filter)
	if err != nil {
		return 0, internalError("Failed to count orders.", err)
	}
	return total, nil
}

func (s *orderService) ListOrders(ctx context.Context, in ListInput) (SelectPage[OrderItem], error) {
	in.Filter.Search = in.Search
	filter, err := s.listFilter(in.Filter)
	if err != nil {
		return SelectPage[OrderItem]{}, err
	}

	size := s.pageSize
	if in.Limit > 0 {
		size = min(in.Limit, maxOrderListLimit)
	}
	total, err := s.orders.Count(ctx, nil, filter)
	if err != nil {
		return SelectPage[OrderItem]{}, internalError("Failed to count orders.", err)
	}
	orders, err := s.orders.List(ctx, nil, filter, pageWindow(in.Page, size))
	if err != nil {
		return SelectPage[OrderItem]{}, internalError("Failed to load orders.", err)
	}

	admins := map[uint64]string{}
	if in.IncludeData {
		admins, err = s.adminCustomers(ctx, orders)
		if err != nil {
			return SelectPage[OrderItem]{}, internalError("Failed to load order customers.", err)
		}
	}

	items := make([]OrderItem, 0, len(orders))
	for _, order := range orders {
		adminName, isAdmin := admins[order.CustomerID]
		item := OrderItem{
			ID:        order.ID,
			IsAdmin:   isAdmin,
			AdminName: adminName,
			Text:      fmt.Sprintf("#%s - %s%s", order.Number(), orderCustomerName(order), adminSuffix(isAdmin, adminName)),
		}
		if in.IncludeData {
			item.Date = order.DateCreated
			item.Status = order.Status
			item.Total = order.Total
			item.Currency = order.Currency
			item.CustomerEmail = order.BillingEmail
		}
		items = append(items, item)
	}
	return newSelectPage(items, in.Page, size, total), nil
}

func orderCustomerName(order models.OrderSummary) string {
	if name := order.BillingName(); name != "" {
		return name
	}
	if order.BillingEmail != "" {
		return order.BillingEmail
	}
	return "Guest"
}

// adminCustomers maps customer user ids on the page to administrator names.
func (s *orderService) adminCustomers(ctx context.Context, orders []models.OrderSummary) (map[uint64]string, error) {
	var ids []uint64
	for _, order := range orders {
		if order.CustomerID > 0 {
			ids = append(ids, order.CustomerID)
		}
	}
	admins := map[uint64]string{}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return admins, nil
	}
	users, err := s.users.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if user.IsAdmin() {
			admins[user.ID] = user.Label()
		}
	}
	return admins, nil
}

func (s *orderService) ListOrderStatuses(ctx context.Context, forceRefresh bool) ([]StatusOption, error) {
	if !forceRefresh {
		if cached, ok := s.cachedStatuses(ctx); ok {
			return cached, nil
		}
	}

	counts, err := s.orders.StatusCounts(ctx, nil)
	if err != nil {
		return nil, internalError("Failed to count orders by status.", err)
	}
	byStatus := make(map[string]int64, len(counts))
	for _, row := range counts {
		byStatus[row.Status] += row.Count
	}

	options := make([]StatusOption, 0, len(registeredOrderStatuses)+len(byStatus))
	for _, status := range registeredOrderStatuses {
		count := byStatus[status.id]
		delete(byStatus, status.id)
		s.orderCounts.set(ctx, status.id, count)
		options = append(options, StatusOption{ID: status.id, Text: status.label, Count: count})
	}

	extras := make([]string, 0, len(byStatus))
	for status := range byStatus {
		if status == "" || status == "trash" || status == "auto-draft" {
			continue
		}
		extras = append(extras, status)
	}
	sort.Strings(extras)

	var stale []string
	for _, status := range s.orderCounts.extraStatuses() {
		if _, ok := byStatus[status]; !ok {
			stale = append(stale, status)
		}
	}
	s.orderCounts.forget(ctx, stale)

	for _, status := range extras {
		s.orderCounts.set(ctx, status, byStatus[status])
		options = append(options, StatusOption{ID: status, Text: statusLabel(status), Count: byStatus[status]})
	}
	s.orderCounts.set(ctx, extraStatusesKey, int64(len(extras)))
	return options, nil
}

// cachedStatuses answers only when every registered status and every extra status
// the last refresh found is cached.
func (s *orderService) cachedStatuses(ctx context.Context) ([]StatusOption, bool) {
	options := make([]StatusOption, 0, len(registeredOrderStatuses))
	for _, status := range registeredOrderStatuses {
		count, ok := s.orderCounts.get(ctx, status.id)
		if !ok {
			return nil, false
		}
		options = append(options, StatusOption{ID: status.id, Text: status.label, Count: count})
	}

	want, ok := s.orderCounts.get(ctx, extraStatusesKey)
	if !ok {
		return nil, false
	}
	var found int64
	for _, status := range s.orderCounts.extraStatuses() {
		count, ok := s.orderCounts.get(ctx, status)
		if !ok {
			return nil, false
		}
		found++
		options = append(options, StatusOption{ID: status, Text: statusLabel(status), Count: count})
	}
	if found != want {
		return nil, false
	}
	return options, true
}

// statusLabel turns an unregistered slug like "awaiting-shipment" into "Awaiting shipment".
func statusLabel(status string) string {
	words := strings.ReplaceAll(status, "-", " ")
	if words == "" {
		return ""
	}
	return strings.ToUpper(words[:1]) + words[1:]
}
