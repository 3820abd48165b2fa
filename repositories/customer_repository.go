package repositories

import (
	"context"
	"strconv"

	"wccleanup/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"gorm.io/gorm"
)

var customerSearchMetaKeys = []string{"billing_first_name", "billing_last_name", "billing_email", "billing_company", "billing_phone"}

type GormCustomerRepository struct {
	db     *gorm.DB
	tables Tables
}

func NewGormCustomerRepository(db *gorm.DB, tables Tables) *GormCustomerRepository {
	return &GormCustomerRepository{db: db, tables: tables}
}

func (r *GormCustomerRepository) baseQuery() *goqu.SelectDataset {
	return selectFrom(goqu.T(r.tables.CustomerLookup()).As("c")).
		Select(
			goqu.I("c.customer_id"),
			goqu.COALESCE(goqu.I("c.user_id"), 0).As("user_id"),
			goqu.COALESCE(goqu.I("c.username"), "").As("username"),
			goqu.COALESCE(goqu.I("c.first_name"), "").As("first_name"),
			goqu.COALESCE(goqu.I("c.last_name"), "").As("last_name"),
			goqu.COALESCE(goqu.I("c.email"), "").As("email"),
			goqu.COALESCE(goqu.I("c.date_registered"), "").As("date_registered"),
			goqu.COALESCE(goqu.I("um.meta_value"), "").As("capabilities"),
			goqu.COALESCE(goqu.I("u.display_name"), "").As("account_name"),
		).
		LeftJoin(goqu.T(r.tables.Users()).As("u"), goqu.On(goqu.Ex{"u.ID": goqu.I("c.user_id")})).
		LeftJoin(goqu.T(r.tables.UserMeta()).As("um"), goqu.On(goqu.Ex{
			"um.user_id":  goqu.I("c.user_id"),
			"um.meta_key": r.tables.CapabilitiesKey(),
		}))
}

func (r *GormCustomerRepository) ListAllIDs(ctx context.Context, tx *gorm.DB) ([]uint64, error) {
	return scanIDs(ctx, useTx(r.db, tx), selectFrom(r.tables.CustomerLookup()).
		Select("customer_id").
		Order(goqu.C("customer_id").Asc()))
}

func (r *GormCustomerRepository) GetByID(ctx context.Context, tx *gorm.DB, customerID uint64) (models.Customer, error) {
	customers, err := r.GetByIDs(ctx, tx, []uint64{customerID})
	if err != nil {
		return models.Customer{}, err
	}
	if len(customers) == 0 {
		return models.Customer{}, ErrNotFound
	}
	return customers[0], nil
}

func (r *GormCustomerRepository) GetByIDs(ctx context.Context, tx *gorm.DB, customerIDs []uint64) ([]models.Customer, error) {
	db := useTx(r.db, tx)
	customers := make([]models.Customer, 0, len(customerIDs))
	for _, chunk := range chunkIDs(customerIDs, inChunkSize) {
		var rows []models.Customer
		if err := scanInto(ctx, db, r.baseQuery().Where(goqu.I("c.customer_id").In(chunk)), &rows); err != nil {
			return nil, err
		}
		customers = append(customers, rows...)
	}
	return customers, nil
}

func (r *GormCustomerRepository) searchCondition(search string) exp.Expression {
	pattern := containsPattern(search)
	billingMatches := selectFrom(r.tables.UserMeta()).
		Select("user_id").
		Where(
			goqu.C("meta_key").In(toInterfaces(customerSearchMetaKeys)...),
			goqu.C("meta_value").Like(pattern),
		)
	conditions := []exp.Expression{
		goqu.I("c.first_name").Like(pattern),
		goqu.I("c.last_name").Like(pattern),
		goqu.I("c.email").Like(pattern),
		goqu.I("c.username").Like(pattern),
		inSubquery("c.user_id", billingMatches),
	}
	if id, err := strconv.ParseUint(search, 10, 64); err == nil {
		conditions = append(conditions, goqu.I("c.customer_id").Eq(id))
	}
	return goqu.Or(conditions...)
}

func (r *GormCustomerRepository) Count(ctx context.Context, tx *gorm.DB, search string) (int64, error) {
	q := selectFrom(goqu.T(r.tables.CustomerLookup()).As("c")).Select(goqu.COUNT(goqu.I("c.customer_id")))
	if search != "" {
		q = q.Where(r.searchCondition(search))
	}
	return scanCount(ctx, useTx(r.db, tx), q)
}

func (r *GormCustomerRepository) List(ctx context.Context, tx *gorm.DB, search string, page Page) ([]models.Customer, error) {
	q := r.baseQuery()
	if search != "" {
		q = q.Where(r.searchCondition(search))
	}
	q = q.Order(goqu.I("c.date_registered").Desc(), goqu.I("c.customer_id").Desc()).
		Limit(page.limit()).
		Offset(page.offset())
	customers := make([]models.Customer, 0)
	err := scanInto(ctx, useTx(r.db, tx), q, &customers)
	return customers, err
}

// Delete removes the lookup row only; the linked account is removed through UserRepository.
func (r *GormCustomerRepository) Delete(ctx context.Context, tx *gorm.DB, customerID uint64) error {
	affected, err := execute(ctx, useTx(r.db, tx), deleteFrom(r.tables.CustomerLookup()).
		Where(goqu.C("customer_id").Eq(customerID)))
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
