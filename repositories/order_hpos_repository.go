package repositories

import (
	"context"
	"strconv"
	"time"

	"wccleanup/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"gorm.io/gorm"
)

// Placeholder posts WooCommerce keeps in wp_posts for HPOS orders while sync is on.
const hposPlaceholderPostType = "shop_order_placehold"

type HPOSOrderRepository struct {
	db     *gorm.DB
	tables Tables
	posts  postStore
}

func NewHPOSOrderRepository(db *gorm.DB, tables Tables) *HPOSOrderRepository {
	return &HPOSOrderRepository{db: db, tables: tables, posts: postStore{tables: tables}}
}

func (r *HPOSOrderRepository) Name() string { return OrderBackendHPOS }

func (r *HPOSOrderRepository) filtered(q *goqu.SelectDataset, filter ListFilter) *goqu.SelectDataset {
	q = q.Where(goqu.I("o.type").Eq(orderTypeOrder))
	if len(filter.Statuses) > 0 {
		q = q.Where(goqu.I("o.status").In(storedOrderStatuses(filter.Statuses)...))
	} else {
		q = q.Where(goqu.I("o.status").NotIn(hiddenOrderStatuses...))
	}
	if filter.Dates != nil {
		q = q.Where(dateBounds("o.date_created_gmt", filter.Dates))
	}
	if filter.Search != "" {
		q = q.Where(r.searchCondition(filter.Search))
	}
	return q
}

func (r *HPOSOrderRepository) searchCondition(search string) exp.Expression {
	pattern := containsPattern(search)
	numbered := selectFrom(r.tables.OrdersMeta()).
		Select("order_id").
		Where(goqu.C("meta_key").Eq("_order_number"), goqu.C("meta_value").Like(pattern))
	if id, err := strconv.ParseUint(search, 10, 64); err == nil {
		return goqu.Or(goqu.I("o.id").Eq(id), inSubquery("o.id", numbered))
	}
	billing := selectFrom(r.tables.OrderAddresses()).
		Select("order_id").
		Where(
			goqu.C("address_type").Eq("billing"),
			goqu.Or(
				goqu.C("first_name").Like(pattern),
				goqu.C("last_name").Like(pattern),
				goqu.C("company").Like(pattern),
				goqu.C("email").Like(pattern),
			),
		)
	return goqu.Or(
		goqu.I("o.billing_email").Like(pattern),
		inSubquery("o.id", billing),
		inSubquery("o.id", numbered),
	)
}

func (r *HPOSOrderRepository) ListIDs(ctx context.Context, tx *gorm.DB, filter ListFilter) ([]uint64, error) {
	q := r.filtered(selectFrom(goqu.T(r.tables.Orders()).As("o")).Select(goqu.I("o.id")), filter).
		Order(goqu.I("o.date_created_gmt").Desc(), goqu.I("o.id").Desc())
	return scanIDs(ctx, useTx(r.db, tx), q)
}

func (r *HPOSOrderRepository) Count(ctx context.Context, tx *gorm.DB, filter ListFilter) (int64, error) {
	q := r.filtered(selectFrom(goqu.T(r.tables.Orders()).As("o")).Select(goqu.COUNT(goqu.I("o.id"))), filter)
	return scanCount(ctx, useTx(r.db, tx), q)
}

func (r *HPOSOrderRepository) List(ctx context.Context, tx *gorm.DB, filter ListFilter, page Page) ([]models.OrderSummary, error) {
	q := selectFrom(goqu.T(r.tables.Orders()).As("o")).
		Select(
			goqu.I("o.id"),
			goqu.I("o.status"),
			goqu.COALESCE(goqu.I("o.date_created_gmt"), "").As("date_created"),
			goqu.COALESCE(goqu.I("o.total_amount"), "0").As("total"),
			goqu.COALESCE(goqu.I("o.currency"), "").As("currency"),
			goqu.COALESCE(goqu.I("o.customer_id"), 0).As("customer_id"),
			goqu.COALESCE(goqu.I("a.first_name"), "").As("billing_first_name"),
			goqu.COALESCE(goqu.I("a.last_name"), "").As("billing_last_name"),
			goqu.COALESCE(goqu.I("o.billing_email"), goqu.I("a.email"), "").As("billing_email"),
			goqu.COALESCE(goqu.I("m.meta_value"), "").As("order_number"),
		).
		LeftJoin(goqu.T(r.tables.OrderAddresses()).As("a"), goqu.On(goqu.Ex{
			"a.order_id":     goqu.I("o.id"),
			"a.address_type": "billing",
		})).
		LeftJoin(goqu.T(r.tables.OrdersMeta()).As("m"), goqu.On(goqu.Ex{
			"m.order_id": goqu.I("o.id"),
			"m.meta_key": "_order_number",
		}))
	q = r.filtered(q, filter).
		Order(goqu.I("o.date_created_gmt").Desc(), goqu.I("o.id").Desc()).
		Limit(page.limit()).
		Offset(page.offset())

	rows := make([]models.OrderSummary, 0)
	if err := scanInto(ctx, useTx(r.db, tx), q, &rows); err != nil {
		return nil, err
	}
	normalizeOrderRows(rows)
	return rows, nil
}

func (r *HPOSOrderRepository) StatusCounts(ctx context.Context, tx *gorm.DB) ([]models.StatusCount, error) {
	q := selectFrom(r.tables.Orders()).
		Select(goqu.C("status"), goqu.COUNT(goqu.Star()).As("count")).
		Where(goqu.C("type").Eq(orderTypeOrder)).
		GroupBy(goqu.C("status")).
		Order(goqu.C("status").Asc())
	rows := make([]models.StatusCount, 0)
	if err := scanInto(ctx, useTx(r.db, tx), q, &rows); err != nil {
		return nil, err
	}
	normalizeStatusCounts(rows)
	return rows, nil
}

func (r *HPOSOrderRepository) IDsByCustomer(ctx context.Context, tx *gorm.DB, ref CustomerRef) ([]uint64, error) {
	q := selectFrom(r.tables.Orders()).
		Select("id").
		Where(goqu.C("type").Eq(orderTypeOrder)).
		Order(goqu.C("id").Asc())
	switch {
	case ref.UserID > 0:
		q = q.Where(goqu.C("customer_id").Eq(ref.UserID))
	case ref.Email != "":
		q = q.Where(goqu.C("customer_id").Eq(0), goqu.C("billing_email").Eq(ref.Email))
	default:
		return []uint64{}, nil
	}
	return scanIDs(ctx, useTx(r.db, tx), q)
}

type hposOrderRow struct {
	ID     uint64 `gorm:"column:id"`
	Status string `gorm:"column:status"`
}

func (r *HPOSOrderRepository) Delete(ctx context.Context, tx *gorm.DB, orderID uint64, force bool) error {
	db := useTx(r.db, tx)

	var rows []hposOrderRow
	err := scanInto(ctx, db, selectFrom(r.tables.Orders()).
		Select("id", "status").
		Where(goqu.C("id").Eq(orderID), goqu.C("type").Eq(orderTypeOrder)).
		Limit(1), &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	order := rows[0]

	if !force && order.Status != postStatusTrash {
		return r.trash(ctx, db, order)
	}

	refunds, err := scanIDs(ctx, db, selectFrom(r.tables.Orders()).
		Select("id").
		Where(goqu.C("parent_order_id").Eq(orderID), goqu.C("type").Eq(orderTypeRefund)))
	if err != nil {
		return err
	}
	ids := append([]uint64{orderID}, refunds...)

	if err := deleteOrderItems(ctx, db, r.tables, ids); err != nil {
		return err
	}
	steps := []sqlBuilder{
		deleteFrom(r.tables.OrdersMeta()).Where(goqu.C("order_id").In(ids)),
		deleteFrom(r.tables.OrderAddresses()).Where(goqu.C("order_id").In(ids)),
		deleteFrom(r.tables.OrderOperational()).Where(goqu.C("order_id").In(ids)),
	}
	for _, step := range steps {
		if _, err := execute(ctx, db, step); err != nil {
			return err
		}
	}

	placeholders, err := scanIDs(ctx, db, selectFrom(r.tables.Posts()).
		Select("ID").
		Where(goqu.C("ID").In(ids), goqu.C("post_type").Eq(hposPlaceholderPostType)))
	if err != nil {
		return err
	}
	if _, err := r.posts.purge(ctx, db, placeholders); err != nil {
		return err
	}
	// Order notes live in wp_comments keyed by the order id.
	if err := deleteCommentsOn(ctx, db, r.tables, ids); err != nil {
		return err
	}

	affected, err := execute(ctx, db, deleteFrom(r.tables.Orders()).Where(goqu.C("id").In(ids)))
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDeleteRefused
	}
	return nil
}

func (r *HPOSOrderRepository) trash(ctx context.Context, db *gorm.DB, order hposOrderRow) error {
	affected, err := execute(ctx, db, updateTable(r.tables.Orders()).
		Set(goqu.Record{"status": postStatusTrash}).
		Where(goqu.C("id").Eq(order.ID)))
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDeleteRefused
	}
	_, err = execute(ctx, db, insertInto(r.tables.OrdersMeta()).
		Cols("order_id", "meta_key", "meta_value").
		Vals(
			[]interface{}{order.ID, metaTrashStatus, order.Status},
			[]interface{}{order.ID, metaTrashTime, strconv.FormatInt(time.Now().Unix(), 10)},
		))
	return err
}

func deleteOrderItems(ctx context.Context, db *gorm.DB, tables Tables, orderIDs []uint64) error {
	itemIDs := selectFrom(tables.OrderItems()).
		Select("order_item_id").
		Where(goqu.C("order_id").In(orderIDs))
	if _, err := execute(ctx, db, deleteFrom(tables.OrderItemMeta()).Where(inSubquery("order_item_id", itemIDs))); err != nil {
		return err
	}
	_, err := execute(ctx, db, deleteFrom(tables.OrderItems()).Where(goqu.C("order_id").In(orderIDs)))
	return err
}

func deleteCommentsOn(ctx context.Context, db *gorm.DB, tables Tables, postIDs []uint64) error {
	commentIDs := selectFrom(tables.Comments()).
		Select("comment_ID").
		Where(goqu.C("comment_post_ID").In(postIDs))
	if _, err := execute(ctx, db, deleteFrom(tables.CommentMeta()).Where(inSubquery("comment_id", commentIDs))); err != nil {
		return err
	}
	_, err := execute(ctx, db, deleteFrom(tables.Comments()).Where(goqu.C("comment_post_ID").In(postIDs)))
	return err
}
