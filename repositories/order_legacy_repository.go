package repositories

import (
	"context"
	"strconv"

	"wccleanup/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"gorm.io/gorm"
)

var legacyBillingSearchKeys = []string{"_billing_email", "_billing_first_name", "_billing_last_name", "_billing_company"}

// LegacyOrderRepository reads orders stored as shop_order posts.
type LegacyOrderRepository struct {
	db     *gorm.DB
	tables Tables
	posts  postStore
}

func NewLegacyOrderRepository(db *gorm.DB, tables Tables) *LegacyOrderRepository {
	return &LegacyOrderRepository{db: db, tables: tables, posts: postStore{tables: tables}}
}

func (r *LegacyOrderRepository) Name() string { return OrderBackendLegacy }

func (r *LegacyOrderRepository) filtered(q *goqu.SelectDataset, filter ListFilter) *goqu.SelectDataset {
	q = q.Where(goqu.I("p.post_type").Eq(orderTypeOrder))
	if len(filter.Statuses) > 0 {
		q = q.Where(goqu.I("p.post_status").In(storedOrderStatuses(filter.Statuses)...))
	} else {
		q = q.Where(goqu.I("p.post_status").NotIn(hiddenOrderStatuses...))
	}
	if filter.Dates != nil {
		q = q.Where(dateBounds("p.post_date_gmt", filter.Dates))
	}
	if filter.Search != "" {
		q = q.Where(r.searchCondition(filter.Search))
	}
	return q
}

func (r *LegacyOrderRepository) searchCondition(search string) exp.Expression {
	pattern := containsPattern(search)
	numbered := selectFrom(r.tables.PostMeta()).
		Select("post_id").
		Where(goqu.C("meta_key").Eq("_order_number"), goqu.C("meta_value").Like(pattern))
	if id, err := strconv.ParseUint(search, 10, 64); err == nil {
		return goqu.Or(goqu.I("p.ID").Eq(id), inSubquery("p.ID", numbered))
	}
	billing := selectFrom(r.tables.PostMeta()).
		Select("post_id").
		Where(
			goqu.C("meta_key").In(toInterfaces(legacyBillingSearchKeys)...),
			goqu.C("meta_value").Like(pattern),
		)
	return goqu.Or(inSubquery("p.ID", billing), inSubquery("p.ID", numbered))
}

func (r *LegacyOrderRepository) ListIDs(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]uint64, error) {
	q := r.filtered(selectFrom(goqu.T(r.tables.Posts()).As("p")).Select(goqu.I("p.ID")), filter).
		Order(goqu.I("p.post_date_gmt").Desc(), goqu.I("p.ID").Desc())
	return scanIDs(ctx, useTx(r.db, tx), q)
}

func (r *LegacyOrderRepository) Count(ctx context.Context, tx *gorm.DB, filter ListFilter) (int64, error) {
	q := r.filtered(selectFrom(goqu.T(r.tables.Posts()).As("p")).Select(goqu.COUNT(goqu.I("p.ID"))), filter)
	return scanCount(ctx, useTx(r.db, tx), q)
}

func (r *LegacyOrderRepository) List(ctx context.Context, tx *gorm.DB, filter ListFilter, page Page) ([]models.OrderSummary, error) {
	q := selectFrom(goqu.T(r.tables.Posts()).As("p")).
		Select(
			goqu.I("p.ID").As("id"),
			goqu.I("p.post_status").As("status"),
			goqu.I("p.post_date_gmt").As("date_created"),
			goqu.COALESCE(goqu.I("total.meta_value"), "0").As("total"),
			goqu.COALESCE(goqu.I("currency.meta_value"), "").As("currency"),
			goqu.L("CAST(COALESCE(?, '0') AS UNSIGNED)", goqu.I("customer.meta_value")).As("customer_id"),
			goqu.COALESCE(goqu.I("first.meta_value"), "").As("billing_first_name"),
			goqu.COALESCE(goqu.I("last.meta_value"), "").As("billing_last_name"),
			goqu.COALESCE(goqu.I("email.meta_value"), "").As("billing_email"),
			goqu.COALESCE(goqu.I("number.meta_value"), "").As("order_number"),
		).
		LeftJoin(metaJoin(r.tables, "total", "p.ID", "_order_total")).
		LeftJoin(metaJoin(r.tables, "currency", "p.ID", "_order_currency")).
		LeftJoin(metaJoin(r.tables, "customer", "p.ID", "_customer_user")).
		LeftJoin(metaJoin(r.tables, "first", "p.ID", "_billing_first_name")).
		LeftJoin(metaJoin(r.tables, "last", "p.ID", "_billing_last_name")).
		LeftJoin(metaJoin(r.tables, "email", "p.ID", "_billing_email")).
		LeftJoin(metaJoin(r.tables, "number", "p.ID", "_order_number"))
	q = r.filtered(q, filter).
		Order(goqu.I("p.post_date_gmt").Desc(), goqu.I("p.ID").Desc()).
		Limit(page.limit()).
		Offset(page.offset())

	rows := make([]models.OrderSummary, 0)
	if err := scanInto(ctx, useTx(r.db, tx), q, &rows); err != nil {
		return nil, err
	}
	normalizeOrderRows(rows)
	return rows, nil
}

func (r *LegacyOrderRepository) StatusCounts(ctx context.Context, tx *gorm.DB) ([]models.StatusCount, error) {
	q := selectFrom(r.tables.Posts()).
		Select(goqu.C("post_status").As("status"), goqu.COUNT(goqu.Star()).As("count")).
		Where(goqu.C("post_type").Eq(orderTypeOrder)).
		GroupBy(goqu.C("post_status")).
		Order(goqu.C("post_status").Asc())
	rows := make([]models.StatusCount, 0)
	if err := scanInto(ctx, useTx(r.db, tx), q, &rows); err != nil {
		return nil, err
	}
	normalizeStatusCounts(rows)
	return rows, nil
}

func (r *LegacyOrderRepository) IDsByCustomer(ctx context.Context, tx *gorm.DB, ref CustomerRef) ([]uint64, error) {
	var owned *goqu.SelectDataset
	switch {
	case ref.UserID > 0:
		owned = selectFrom(r.tables.PostMeta()).
			Select("post_id").
			Where(goqu.C("meta_key").Eq("_customer_user"), goqu.C("meta_value").Eq(strconv.FormatUint(ref.UserID, 10)))
	case ref.Email != "":
		owned = selectFrom(r.tables.PostMeta()).
			Select("post_id").
			Where(goqu.C("meta_key").Eq("_billing_email"), goqu.C("meta_value").Eq(ref.Email))
	default:
		return []uint64{}, nil
	}
	q := selectFrom(goqu.T(r.tables.Posts()).As("p")).
		Select(goqu.I("p.ID")).
		Where(goqu.I("p.post_type").Eq(orderTypeOrder), inSubquery("p.ID", owned)).
		Order(goqu.I("p.ID").Asc())
	return scanIDs(ctx, useTx(r.db, tx), q)
}

func (r *LegacyOrderRepository) Delete(ctx context.Context, tx *gorm.DB, orderID uint64, force bool) error {
	db := useTx(r.db, tx)

	order, err := r.posts.get(ctx, db, orderID, orderTypeOrder)
	if err != nil {
		return err
	}
	if !force && order.Status != postStatusTrash {
		return r.posts.trash(ctx, db, order)
	}

	refunds, err := r.posts.childIDs(ctx, db, orderID, orderTypeRefund)
	if err != nil {
		return err
	}
	ids := append([]uint64{orderID}, refunds...)
	if err := deleteOrderItems(ctx, db, r.tables, ids); err != nil {
		return err
	}
	n, err := r.posts.purge(ctx, db, ids)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDeleteRefused
	}
	return nil
}
