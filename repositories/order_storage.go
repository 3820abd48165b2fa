package repositories

import (
	"context"
	"strings"

	"wccleanup/logger"
	"wccleanup/models"

	"github.com/doug-martin/goqu/v9"
	"gorm.io/gorm"
)

const (
	OrderBackendAuto   = "auto"
	OrderBackendHPOS   = "hpos"
	OrderBackendLegacy = "legacy"

	orderTypeOrder  = "shop_order"
	orderTypeRefund = "shop_order_refund"

	hposEnabledOption = "woocommerce_custom_orders_table_enabled"
)

// Statuses never reported by an unfiltered order listing.
var hiddenOrderStatuses = []interface{}{"trash", "auto-draft"}

// storedOrderStatus converts "pending" into the stored "wc-pending" form.
func storedOrderStatus(status string) string {
	status = strings.TrimPrefix(status, "wc-")
	switch status {
	case "trash", "auto-draft", "draft":
		return status
	}
	return "wc-" + status
}

func displayOrderStatus(stored string) string {
	return strings.TrimPrefix(stored, "wc-")
}

func storedOrderStatuses(statuses []string) []interface{} {
	out := make([]interface{}, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, storedOrderStatus(s))
	}
	return out
}

func normalizeOrderRows(rows []models.OrderSummary) {
	for i := range rows {
		rows[i].Status = displayOrderStatus(rows[i].Status)
	}
}

func normalizeStatusCounts(rows []models.StatusCount) {
	for i := range rows {
		rows[i].Status = displayOrderStatus(rows[i].Status)
	}
}

// ProbeOrderStorage picks the order backend once at startup.
func ProbeOrderStorage(ctx context.Context, db *gorm.DB, tables Tables, mode string) (OrderStorageBackend, error) {
	legacy := NewLegacyOrderRepository(db, tables)
	hpos := NewHPOSOrderRepository(db, tables)

	switch mode {
	case OrderBackendLegacy:
		return legacy, nil
	case OrderBackendHPOS:
		return hpos, nil
	}

	_, err := scanCount(ctx, db, selectFrom(tables.Orders()).Select(goqu.COUNT(goqu.Star())))
	if err != nil {
		if isMissingTable(err) {
			logger.Infof("order storage: %s missing, using legacy posts", tables.Orders())
			return legacy, nil
		}
		return nil, err
	}

	var values []string
	err = scanInto(ctx, db, selectFrom(tables.Options()).
		Select("option_value").
		Where(goqu.C("option_name").Eq(hposEnabledOption)).
		Limit(1), &values)
	if err != nil {
		return nil, err
	}
	if len(values) > 0 && values[0] == "yes" {
		logger.Infof("order storage: HPOS with legacy fallback")
		return NewFallbackOrderBackend(hpos, legacy), nil
	}
	logger.Infof("order storage: HPOS tables present but disabled, using legacy posts")
	return legacy, nil
}

// FallbackOrderBackend serves reads from the secondary when the primary fails,
// and writes only when the primary's tables are missing.
type FallbackOrderBackend struct {
	primary   OrderStorageBackend
	secondary OrderStorageBackend
}

func NewFallbackOrderBackend(primary, secondary OrderStorageBackend) *FallbackOrderBackend {
	return &FallbackOrderBackend{primary: primary, secondary: secondary}
}

func (f *FallbackOrderBackend) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *FallbackOrderBackend) readFailed(op string, err error) {
	logger.Warnf("order storage: %s on %s failed, falling back to %s: %v", op, f.primary.Name(), f.secondary.Name(), err)
}

func (f *FallbackOrderBackend) ListIDs(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]uint64, error) {
	ids, err := f.primary.ListIDs(ctx, tx, filter)
	if err == nil {
		return ids, nil
	}
	f.readFailed("list ids", err)
	return f.secondary.ListIDs(ctx, tx, filter)
}

func (f *FallbackOrderBackend) Count(ctx context.Context, tx *gorm.DB, filter ListFilter) (int64, error) {
	count, err := f.primary.Count(ctx, tx, filter)
	if err == nil {
		return count, nil
	}
	f.readFailed("count", err)
	return f.secondary.Count(ctx, tx, filter)
}

func (f *FallbackOrderBackend) List(ctx context.Context, tx *gorm.DB, filter ListFilter, page Page) ([]models.OrderSummary, error) {
	rows, err := f.primary.List(ctx, tx, filter, page)
	if err == nil {
		return rows, nil
	}
	f.readFailed("list", err)
	return f.secondary.List(ctx, tx, filter, page)
}

func (f *FallbackOrderBackend) StatusCounts(ctx context.Context, tx *gorm.DB) ([]models.StatusCount, error) {
	rows, err := f.primary.StatusCounts(ctx, tx)
	if err == nil {
		return rows, nil
	}
	f.readFailed("status counts", err)
	return f.secondary.StatusCounts(ctx, tx)
}

func (f *FallbackOrderBackend) IDsByCustomer(ctx context.Context, tx *gorm.DB, ref CustomerRef) ([]uint64, error) {
	ids, err := f.primary.IDsByCustomer(ctx, tx, ref)
	if err == nil {
		return ids, nil
	}
	f.readFailed("customer orders", err)
	return f.secondary.IDsByCustomer(ctx, tx, ref)
}

func (f *FallbackOrderBackend) Delete(ctx context.Context, tx *gorm.DB, orderID uint64, force bool) error {
	err := f.primary.Delete(ctx, tx, orderID, force)
	if err != nil && isMissingTable(err) {
		logger.Warnf("order storage: %s tables missing, deleting order #%d from %s", f.primary.Name(), orderID, f.secondary.Name())
		return f.secondary.Delete(ctx, tx, orderID, force)
	}
	return err
}
