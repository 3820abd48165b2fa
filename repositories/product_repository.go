package repositories

import (
	"context"
	"strconv"

	"wccleanup/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"gorm.io/gorm"
)

const (
	metaSKU             = "_sku"
	productTypeTaxonomy = "product_type"
)

var productPostTypes = []interface{}{models.PostTypeProduct, models.PostTypeVariation}

type GormProductRepository struct {
	db     *gorm.DB
	tables Tables
	posts  postStore
}

func NewGormProductRepository(db *gorm.DB, tables Tables) *GormProductRepository {
	return &GormProductRepository{db: db, tables: tables, posts: postStore{tables: tables}}
}

// keyed selects live products carrying a non-empty value for key, aliased as p/pm.
func (r *GormProductRepository) keyed(key models.DuplicateKey, p, pm string) (*goqu.SelectDataset, exp.IdentifierExpression) {
	q := selectFrom(goqu.T(r.tables.Posts()).As(p)).
		Where(goqu.I(p + ".post_status").Neq(postStatusTrash))

	if key == models.DuplicateKeyTitle {
		value := goqu.I(p + ".post_title")
		return q.Where(goqu.I(p+".post_type").Eq(models.PostTypeProduct), value.Neq("")), value
	}

	metaKeys := []string{metaSKU}
	if key == models.DuplicateKeyBarcode {
		metaKeys = models.BarcodeMetaKeys
	}
	value := goqu.I(pm + ".meta_value")
	q = q.InnerJoin(goqu.T(r.tables.PostMeta()).As(pm), goqu.On(goqu.Ex{pm + ".post_id": goqu.I(p + ".ID")})).
		Where(
			goqu.I(p+".post_type").In(productPostTypes...),
			goqu.I(pm+".meta_key").In(toInterfaces(metaKeys)...),
			value.Neq(""),
		)
	return q, value
}

func (r *GormProductRepository) duplicateValues(key models.DuplicateKey) *goqu.SelectDataset {
	q, value := r.keyed(key, "dp", "dpm")
	return q.Select(value).
		GroupBy(value).
		Having(goqu.COUNT(goqu.DISTINCT(goqu.I("dp.ID"))).Gt(1))
}

// DuplicateCandidates lists every product whose key value is shared with another product,
// ordered by value then creation time.
func (r *GormProductRepository) DuplicateCandidates(ctx context.Context, tx *gorm.DB, key models.DuplicateKey) ([]models.ProductKeyRow, error) {
	q, value := r.keyed(key, "p", "pm")
	q = q.Select(goqu.I("p.ID").As("id"), value.As("key_value"), goqu.I("p.post_date").As("created")).
		Where(goqu.L("? IN ?", value, r.duplicateValues(key))).
		Order(value.Asc(), goqu.I("p.post_date").Asc(), goqu.I("p.ID").Asc())
	rows := make([]models.ProductKeyRow, 0)
	err := scanInto(ctx, useTx(r.db, tx), q, &rows)
	return rows, err
}

func (r *GormProductRepository) productTypes() *goqu.SelectDataset {
	return selectFrom(goqu.T(r.tables.TermRelationships()).As("tr")).
		Select(goqu.I("tr.object_id"), goqu.I("t.name")).
		InnerJoin(goqu.T(r.tables.TermTaxonomy()).As("tt"), goqu.On(goqu.Ex{
			"tt.term_taxonomy_id": goqu.I("tr.term_taxonomy_id"),
			"tt.taxonomy":         productTypeTaxonomy,
		})).
		InnerJoin(goqu.T(r.tables.Terms()).As("t"), goqu.On(goqu.Ex{"t.term_id": goqu.I("tt.term_id")}))
}

func (r *GormProductRepository) baseQuery() *goqu.SelectDataset {
	return selectFrom(goqu.T(r.tables.Posts()).As("p")).
		Select(
			goqu.I("p.ID").As("id"),
			goqu.I("p.post_title").As("title"),
			goqu.I("p.post_type"),
			goqu.I("p.post_status").As("status"),
			goqu.I("p.post_parent").As("parent_id"),
			goqu.COALESCE(goqu.I("parent.post_title"), "").As("parent_title"),
			goqu.I("p.post_date").As("created"),
			goqu.COALESCE(goqu.I("sku.meta_value"), "").As("sku"),
			goqu.COALESCE(goqu.I("pt.name"), "").As("product_type"),
		).
		LeftJoin(metaJoin(r.tables, "sku", "p.ID", metaSKU)).
		LeftJoin(goqu.T(r.tables.Posts()).As("parent"), goqu.On(goqu.Ex{"parent.ID": goqu.I("p.post_parent")})).
		LeftJoin(r.productTypes().As("pt"), goqu.On(goqu.Ex{"pt.object_id": goqu.I("p.ID")})).
		Where(goqu.I("p.post_type").In(productPostTypes...))
}

func (r *GormProductRepository) GetByID(ctx context.Context, tx *gorm.DB, productID uint64) (models.Product, error) {
	products, err := r.GetByIDs(ctx, tx, []uint64{productID})
	if err != nil {
		return models.Product{}, err
	}
	if len(products) == 0 {
		return models.Product{}, ErrNotFound
	}
	return products[0], nil
}

func (r *GormProductRepository) GetByIDs(ctx context.Context, tx *gorm.DB, productIDs []uint64) ([]models.Product, error) {
	db := useTx(r.db, tx)
	products := make([]models.Product, 0, len(productIDs))
	for _, chunk := range chunkIDs(productIDs, inChunkSize) {
		var rows []models.Product
		if err := scanInto(ctx, db, r.baseQuery().Where(goqu.I("p.ID").In(chunk)), &rows); err != nil {
			return nil, err
		}
		products = append(products, rows...)
	}
	return products, nil
}

func (r *GormProductRepository) Search(ctx context.Context, tx *gorm.DB, term string, limit int) ([]models.Product, error) {
	q := r.baseQuery().Where(goqu.I("p.post_status").Neq(postStatusTrash))
	if term != "" {
		pattern := containsPattern(term)
		conditions := []exp.Expression{
			goqu.I("p.post_title").Like(pattern),
			goqu.I("sku.meta_value").Like(pattern),
		}
		if id, err := strconv.ParseUint(term, 10, 64); err == nil {
			conditions = append(conditions, goqu.I("p.ID").Eq(id))
		}
		q = q.Where(goqu.Or(conditions...))
	}
	q = q.Order(goqu.I("p.post_date").Desc(), goqu.I("p.ID").Desc()).Limit(Page{Limit: limit}.limit())
	products := make([]models.Product, 0)
	err := scanInto(ctx, useTx(r.db, tx), q, &products)
	return products, err
}

// Delete removes a product, its variations first.
func (r *GormProductRepository) Delete(ctx context.Context, tx *gorm.DB, productID uint64, force bool) error {
	db := useTx(r.db, tx)
	product, err := r.posts.get(ctx, db, productID, models.PostTypeProduct, models.PostTypeVariation)
	if err != nil {
		return err
	}

	purge := force || product.Status == postStatusTrash

	variations, err := r.posts.childIDs(ctx, db, productID, models.PostTypeVariation)
	if err != nil {
		return err
	}
	for _, id := range variations {
		variation, err := r.posts.get(ctx, db, id)
		if err != nil {
			return err
		}
		if err := r.posts.remove(ctx, db, variation, purge); err != nil {
			return err
		}
	}
	if err := r.posts.remove(ctx, db, product, purge); err != nil {
		return err
	}

	if purge {
		ids := append([]uint64{productID}, variations...)
		_, err := execute(ctx, db, deleteFrom(r.tables.ProductMetaLookup()).Where(goqu.C("product_id").In(ids)))
		if err != nil && !isMissingTable(err) {
			return err
		}
	}
	return nil
}

func (r *GormProductRepository) Statistics(ctx context.Context, tx *gorm.DB) (models.ProductStatistics, error) {
	db := useTx(r.db, tx)
	var stats models.ProductStatistics
	var err error

	stats.TotalProducts, err = scanCount(ctx, db, selectFrom(r.tables.Posts()).
		Select(goqu.COUNT(goqu.C("ID"))).
		Where(goqu.C("post_type").In(productPostTypes...), goqu.C("post_status").Neq(postStatusTrash)))
	if err != nil {
		return stats, err
	}

	withSKU, _ := r.keyed(models.DuplicateKeySKU, "p", "pm")
	stats.ProductsWithSKU, err = scanCount(ctx, db, withSKU.Select(goqu.COUNT(goqu.DISTINCT(goqu.I("p.ID")))))
	if err != nil {
		return stats, err
	}

	stats.DuplicateSKUs, err = scanCount(ctx, db, selectFrom(r.duplicateValues(models.DuplicateKeySKU).As("dup")).
		Select(goqu.COUNT(goqu.Star())))
	if err != nil {
		return stats, err
	}

	stats.DuplicateTitles, err = scanCount(ctx, db, selectFrom(r.duplicateValues(models.DuplicateKeyTitle).As("dup")).
		Select(goqu.COUNT(goqu.Star())))
	if err != nil {
		return stats, err
	}

	stats.ProductsWithoutSKU = stats.TotalProducts - stats.ProductsWithSKU
	return stats, nil
}

// IDsBySKU lists live products holding sku.
func (r *GormProductRepository) IDsBySKU(ctx context.Context, tx *gorm.DB, sku string) ([]uint64, error) {
	q, _ := r.keyed(models.DuplicateKeySKU, "p", "pm")
	q = q.Select(goqu.I("p.ID")).
		Where(goqu.I("pm.meta_value").Eq(sku)).
		Order(goqu.I("p.ID").Asc())
	return scanIDs(ctx, useTx(r.db, tx), q)
}

func (r *GormProductRepository) UpdateSKU(ctx context.Context, tx *gorm.DB, productID uint64, sku string) error {
	db := useTx(r.db, tx)

	existing, err := scanCount(ctx, db, selectFrom(r.tables.PostMeta()).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("post_id").Eq(productID), goqu.C("meta_key").Eq(metaSKU)))
	if err != nil {
		return err
	}
	if existing > 0 {
		_, err = execute(ctx, db, updateTable(r.tables.PostMeta()).
			Set(goqu.Record{"meta_value": sku}).
			Where(goqu.C("post_id").Eq(productID), goqu.C("meta_key").Eq(metaSKU)))
	} else {
		_, err = execute(ctx, db, insertInto(r.tables.PostMeta()).
			Cols("post_id", "meta_key", "meta_value").
			Vals([]interface{}{productID, metaSKU, sku}))
	}
	if err != nil {
		return err
	}

	_, err = execute(ctx, db, updateTable(r.tables.ProductMetaLookup()).
		Set(goqu.Record{"sku": sku}).
		Where(goqu.C("product_id").Eq(productID)))
	if err != nil && !isMissingTable(err) {
		return err
	}
	return nil
}
