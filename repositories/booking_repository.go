package repositories

import (
	"context"
	"strconv"

	"wccleanup/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"gorm.io/gorm"
)

const postTypeBooking = "wc_booking"

var hiddenBookingStatuses = []interface{}{"trash", "auto-draft"}

type GormBookingRepository struct {
	db     *gorm.DB
	tables Tables
	posts  postStore
}

func NewGormBookingRepository(db *gorm.DB, tables Tables) *GormBookingRepository {
	return &GormBookingRepository{db: db, tables: tables, posts: postStore{tables: tables}}
}

func (r *GormBookingRepository) filtered(q *goqu.SelectDataset, filter ListFilter) *goqu.SelectDataset {
	q = q.Where(goqu.I("p.post_type").Eq(postTypeBooking))
	if len(filter.Statuses) > 0 {
		q = q.Where(goqu.I("p.post_status").In(toInterfaces(filter.Statuses)...))
	} else {
		q = q.Where(goqu.I("p.post_status").NotIn(hiddenBookingStatuses...))
	}
	if filter.Dates != nil {
		// _booking_start is stored as YmdHis.
		started := selectFrom(r.tables.PostMeta()).
			Select("post_id").
			Where(
				goqu.C("meta_key").Eq("_booking_start"),
				goqu.C("meta_value").Between(goqu.Range(filter.Dates.From, filter.Dates.To)),
			)
		q = q.Where(inSubquery("p.ID", started))
	}
	if filter.Search != "" {
		q = q.Where(r.searchCondition(filter.Search))
	}
	return q
}

func (r *GormBookingRepository) searchCondition(search string) exp.Expression {
	if id, err := strconv.ParseUint(search, 10, 64); err == nil {
		return goqu.I("p.ID").Eq(id)
	}
	pattern := containsPattern(search)
	customers := selectFrom(r.tables.Users()).
		Select(goqu.L("CAST(? AS CHAR)", goqu.C("ID"))).
		Where(goqu.Or(goqu.C("display_name").Like(pattern), goqu.C("user_email").Like(pattern)))
	byCustomer := selectFrom(r.tables.PostMeta()).
		Select("post_id").
		Where(goqu.C("meta_key").Eq("_booking_customer_id"), inSubquery("meta_value", customers))
	return goqu.Or(goqu.I("p.post_title").Like(pattern), inSubquery("p.ID", byCustomer))
}

func (r *GormBookingRepository) ListIDs(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]uint64, error) {
	q := r.filtered(selectFrom(goqu.T(r.tables.Posts()).As("p")).Select(goqu.I("p.ID")), filter).
		Order(goqu.I("p.post_date").Desc(), goqu.I("p.ID").Desc())
	return scanIDs(ctx, useTx(r.db, tx), q)
}

func (r *GormBookingRepository) Count(ctx context.Context, tx *gorm.DB, filter ListFilter) (int64, error) {
	q := r.filtered(selectFrom(goqu.T(r.tables.Posts()).As("p")).Select(goqu.COUNT(goqu.I("p.ID"))), filter)
	return scanCount(ctx, useTx(r.db, tx), q)
}

func (r *GormBookingRepository) List(ctx context.Context, tx *gorm.DB, filter ListFilter, page Page) ([]models.BookingSummary, error) {
	q := selectFrom(goqu.T(r.tables.Posts()).As("p")).
		Select(
			goqu.I("p.ID").As("id"),
			goqu.I("p.post_status").As("status"),
			goqu.I("p.post_date").As("date_created"),
			goqu.COALESCE(goqu.I("start.meta_value"), "").As("start_date"),
			goqu.COALESCE(goqu.I("end.meta_value"), "").As("end_date"),
			goqu.L("CAST(COALESCE(?, '0') AS UNSIGNED)", goqu.I("ord.meta_value")).As("order_id"),
			goqu.L("CAST(COALESCE(?, '0') AS UNSIGNED)", goqu.I("cust.meta_value")).As("customer_id"),
			goqu.L("CAST(COALESCE(?, '0') AS UNSIGNED)", goqu.I("prod.meta_value")).As("product_id"),
			goqu.COALESCE(goqu.I("cost.meta_value"), "").As("cost"),
			goqu.COALESCE(goqu.I("product.post_title"), "").As("product_name"),
			goqu.COALESCE(goqu.I("u.display_name"), "").As("customer_name"),
		).
		LeftJoin(metaJoin(r.tables, "start", "p.ID", "_booking_start")).
		LeftJoin(metaJoin(r.tables, "end", "p.ID", "_booking_end")).
		LeftJoin(metaJoin(r.tables, "ord", "p.ID", "_booking_order_id")).
		LeftJoin(metaJoin(r.tables, "cust", "p.ID", "_booking_customer_id")).
		LeftJoin(metaJoin(r.tables, "prod", "p.ID", "_booking_product_id")).
		LeftJoin(metaJoin(r.tables, "cost", "p.ID", "_booking_cost")).
		LeftJoin(goqu.T(r.tables.Posts()).As("product"), goqu.On(goqu.Ex{"product.ID": goqu.I("prod.meta_value")})).
		LeftJoin(goqu.T(r.tables.Users()).As("u"), goqu.On(goqu.Ex{"u.ID": goqu.I("cust.meta_value")}))
	q = r.filtered(q, filter).
		Order(goqu.I("p.post_date").Desc(), goqu.I("p.ID").Desc()).
		Limit(page.limit()).
		Offset(page.offset())

	rows := make([]models.BookingSummary, 0)
	err := scanInto(ctx, useTx(r.db, tx), q, &rows)
	return rows, err
}

func (r *GormBookingRepository) StatusCounts(ctx context.Context, tx *gorm.DB) ([]models.StatusCount, error) {
	q := selectFrom(r.tables.Posts()).
		Select(goqu.C("post_status").As("status"), goqu.COUNT(goqu.Star()).As("count")).
		Where(goqu.C("post_type").Eq(postTypeBooking)).
		GroupBy(goqu.C("post_status")).
		Order(goqu.C("post_status").Asc())
	rows := make([]models.StatusCount, 0)
	err := scanInto(ctx, useTx(r.db, tx), q, &rows)
	return rows, err
}

// OrderID returns the order linked to a booking, or zero.
func (r *GormBookingRepository) OrderID(ctx context.Context, tx *gorm.DB, bookingID uint64) (uint64, error) {
	var ids []uint64
	err := scanInto(ctx, useTx(r.db, tx), selectFrom(r.tables.PostMeta()).
		Select(goqu.L("CAST(meta_value AS UNSIGNED)")).
		Where(goqu.C("post_id").Eq(bookingID), goqu.C("meta_key").Eq("_booking_order_id")).
		Limit(1), &ids)
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[0], nil
}

// CountOtherReferences counts existing bookings, other than excludeID, linked to orderID.
func (r *GormBookingRepository) CountOtherReferences(ctx context.Context, tx *gorm.DB, orderID uint64, excludeID uint64) (int64, error) {
	q := selectFrom(goqu.T(r.tables.PostMeta()).As("m")).
		Select(goqu.COUNT(goqu.DISTINCT(goqu.I("m.post_id")))).
		InnerJoin(goqu.T(r.tables.Posts()).As("p"), goqu.On(goqu.Ex{
			"p.ID":        goqu.I("m.post_id"),
			"p.post_type": postTypeBooking,
		})).
		Where(
			goqu.I("m.meta_key").Eq("_booking_order_id"),
			goqu.I("m.meta_value").Eq(strconv.FormatUint(orderID, 10)),
			goqu.I("m.post_id").Neq(excludeID),
		)
	return scanCount(ctx, useTx(r.db, tx), q)
}

func (r *GormBookingRepository) Delete(ctx context.Context, tx *gorm.DB, bookingID uint64, force bool) error {
	db := useTx(r.db, tx)
	booking, err := r.posts.get(ctx, db, bookingID, postTypeBooking)
	if err != nil {
		return err
	}
	return r.posts.remove(ctx, db, booking, force)
}
