package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"wccleanup/models"
	"wccleanup/repositories"

	"gorm.io/gorm"
)

const (
	CriteriaAll = "all"

	KeepOldest = "oldest"
	KeepNewest = "newest"

	productSearchLimit = 20
)

// DuplicateGroup lists products sharing one key value, oldest first.
type DuplicateGroup struct {
	Type      models.DuplicateKey `json:"type"`
	Value     string              `json:"value"`
	MemberIDs []uint64            `json:"member_ids"`
}

type ProductItem struct {
	ID          uint64              `json:"id"`
	Name        string              `json:"name"`
	SKU         string              `json:"sku"`
	Type        models.DuplicateKey `json:"type"`
	Value       string              `json:"duplicate_value"`
	EditLink    string              `json:"edit_link"`
	IsVariation bool                `json:"is_variation"`
	ProductType string              `json:"product_type"`
	Created     string              `json:"created"`
}

type ScanResult struct {
	Products []ProductItem    `json:"products"`
	Total    int              `json:"total"`
	Groups   []DuplicateGroup `json:"groups"`
}

type ProductDeleteResult struct {
	Success bool             `json:"success"`
	Deleted int              `json:"deleted"`
	Errors  []string         `json:"errors"`
	Groups  []DuplicateGroup `json:"groups,omitempty"`
	RunID   string           `json:"run_id,omitempty"`
	Message string           `json:"message"`
}

type ProductSearchItem struct {
	ID   uint64 `json:"id"`
	Text string `json:"text"`
	SKU  string `json:"sku"`
}

type ProductService interface {
	ScanDuplicates(ctx context.Context, criteria string) (ScanResult, error)
	DeleteProducts(ctx context.Context, productIDs []uint64, force bool) (ProductDeleteResult, error)
	DeleteDuplicates(ctx context.Context, criteria string, keep string, force bool) (ProductDeleteResult, error)
	Statistics(ctx context.Context) (models.ProductStatistics, error)
	UpdateSKU(ctx context.Context, productID uint64, sku string) (string, error)
	Search(ctx context.Context, term string) ([]ProductSearchItem, error)
}

type productService struct {
	txManager TxManager
	products  repositories.ProductRepository
	engine    batchEngine
	adminURL  string
}

func NewProductService(txManager TxManager, products repositories.ProductRepository, settings Settings) ProductService {
	return &productService{
		txManager: txManager,
		products:  products,
		engine:    batchEngine{entity: "product", plural: "products", batchSize: settings.BatchSize},
		adminURL:  settings.AdminURL,
	}
}

func criteriaKeys(criteria string) ([]models.DuplicateKey, error) {
	criteria = strings.TrimSpace(criteria)
	if criteria == "" || criteria == CriteriaAll {
		return models.DuplicateKeys, nil
	}
	key := models.DuplicateKey(criteria)
	if !key.Valid() {
		return nil, invalidFilter("Invalid duplicate criteria.")
	}
	return []models.DuplicateKey{key}, nil
}

// groupCandidates folds rows sorted by value then age into groups of at least two distinct products.
// Values compare case-insensitively, matching the column collation the rows were grouped and sorted by.
func groupCandidates(key models.DuplicateKey, rows []models.ProductKeyRow) []DuplicateGroup {
	var groups []DuplicateGroup
	var current *DuplicateGroup
	seen := map[uint64]struct{}{}

	flush := func() {
		if current != nil && len(current.MemberIDs) >= 2 {
			groups = append(groups, *current)
		}
	}
	for _, row := range rows {
		value := strings.TrimSpace(row.KeyValue)
		if value == "" {
			continue
		}
		if current == nil || !strings.EqualFold(current.Value, value) {
			flush()
			current = &DuplicateGroup{Type: key, Value: value}
			seen = map[uint64]struct{}{}
		}
		if _, ok := seen[row.ID]; ok {
			continue
		}
		seen[row.ID] = struct{}{}
		current.MemberIDs = append(current.MemberIDs, row.ID)
	}
	flush()
	return groups
}

func (s *productService) scanGroups(ctx context.Context, keys []models.DuplicateKey) ([]DuplicateGroup, error) {
	groups := []DuplicateGroup{}
	for _, key := range keys {
		rows, err := s.products.DuplicateCandidates(ctx, nil, key)
		if err != nil {
			return nil, internalError("Failed to scan for duplicate products.", err)
		}
		groups = append(groups, groupCandidates(key, rows)...)
	}
	return groups, nil
}

func (s *productService) ScanDuplicates(ctx context.Context, criteria string) (ScanResult, error) {
	keys, err := criteriaKeys(criteria)
	if err != nil {
		return ScanResult{}, err
	}
	groups, err := s.scanGroups(ctx, keys)
	if err != nil {
		return ScanResult{}, err
	}

	var ids []uint64
	for _, group := range groups {
		ids = append(ids, group.MemberIDs...)
	}
	products := map[uint64]models.Product{}
	if ids = uniqueIDs(ids); len(ids) > 0 {
		rows, err := s.products.GetByIDs(ctx, nil, ids)
		if err != nil {
			return ScanResult{}, internalError("Failed to load duplicate products.", err)
		}
		for _, product := range rows {
			products[product.ID] = product
		}
	}

	type reported struct {
		key models.DuplicateKey
		id  uint64
	}
	seen := map[reported]struct{}{}
	items := []ProductItem{}
	for _, group := range groups {
		for _, id := range group.MemberIDs {
			product, ok := products[id]
			if !ok {
				continue
			}
			if _, dup := seen[reported{group.Type, id}]; dup {
				continue
			}
			seen[reported{group.Type, id}] = struct{}{}
			items = append(items, ProductItem{
				ID:          id,
				Name:        product.DisplayName(),
				SKU:         product.SKU,
				Type:        group.Type,
				Value:       group.Value,
				EditLink:    s.editLink(product),
				IsVariation: product.IsVariation(),
				ProductType: product.Type(),
				Created:     product.Created,
			})
		}
	}
	return ScanResult{Products: items, Total: len(items), Groups: groups}, nil
}

// editLink points variations at their parent, which is where they are edited.
func (s *productService) editLink(product models.Product) string {
	id := product.ID
	if product.IsVariation() && product.ParentID > 0 {
		id = product.ParentID
	}
	base := s.adminURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return fmt.Sprintf("%spost.php?post=%d&action=edit", base, id)
}

var productFailures = failureMessages{
	notFound: "Product #%d not found",
	refused:  "Failed to delete product #%d",
	failed:   "Error deleting product #%d: %s",
}

func (s *productService) deleteIDs(ctx context.Context, ids []uint64, force bool) ProductDeleteResult {
	run := s.engine.run(ctx, ids, 0, func(ctx context.Context, id uint64) (deleteOutcome, string) {
		err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
			return s.products.Delete(ctx, tx, id, force)
		})
		if err != nil {
			return outcomeErrored, productFailures.describe(id, err)
		}
		return outcomeDeleted, ""
	})
	return ProductDeleteResult{
		Success: run.Success,
		Deleted: run.Deleted,
		Errors:  run.Errors,
		RunID:   run.RunID,
		Message: run.Message,
	}
}

func (s *productService) DeleteProducts(ctx context.Context, productIDs []uint64, force bool) (ProductDeleteResult, error) {
	ids := uniqueIDs(productIDs)
	if len(ids) == 0 {
		return ProductDeleteResult{}, noSelection("No products selected for deletion.")
	}
	return s.deleteIDs(ctx, ids, force), nil
}

// DeleteDuplicates keeps one member per group. A product kept by any group is never deleted.
func (s *productService) DeleteDuplicates(ctx context.Context, criteria string, keep string, force bool) (ProductDeleteResult, error) {
	if keep == "" {
		keep = KeepOldest
	}
	if keep != KeepOldest && keep != KeepNewest {
		return ProductDeleteResult{}, invalidFilter("Invalid keep policy.")
	}
	keys, err := criteriaKeys(criteria)
	if err != nil {
		return ProductDeleteResult{}, err
	}
	groups, err := s.scanGroups(ctx, keys)
	if err != nil {
		return ProductDeleteResult{}, err
	}

	kept := map[uint64]struct{}{}
	for _, group := range groups {
		if keep == KeepOldest {
			kept[group.MemberIDs[0]] = struct{}{}
		} else {
			kept[group.MemberIDs[len(group.MemberIDs)-1]] = struct{}{}
		}
	}
	var ids []uint64
	for _, group := range groups {
		for _, id := range group.MemberIDs {
			if _, ok := kept[id]; !ok {
				ids = append(ids, id)
			}
		}
	}

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return ProductDeleteResult{Success: true, Errors: []string{}, Groups: groups, Message: "No duplicate products found."}, nil
	}
	result := s.deleteIDs(ctx, ids, force)
	result.Groups = groups
	return result, nil
}

func (s *productService) Statistics(ctx context.Context) (models.ProductStatistics, error) {
	stats, err := s.products.Statistics(ctx, nil)
	if err != nil {
		return models.ProductStatistics{}, internalError("Failed to load product statistics.", err)
	}
	return stats, nil
}

// UpdateSKU stores the trimmed SKU and returns the value stored.
func (s *productService) UpdateSKU(ctx context.Context, productID uint64, sku string) (string, error) {
	sku = strings.TrimSpace(sku)
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.products.GetByID(ctx, tx, productID); err != nil {
			if repositories.IsNotFound(err) {
				return newAppError(http.StatusNotFound, CodeEntityNotFound, "Product not found", nil)
			}
			return internalError("Failed to load product.", err)
		}
		if sku != "" {
			holders, err := s.products.IDsBySKU(ctx, tx, sku)
			if err != nil {
				return internalError("Failed to check SKU.", err)
			}
			for _, id := range holders {
				if id != productID {
					return newAppErrorWithData(http.StatusConflict, CodeInvalidFilter, "SKU already exists for another product",
						map[string]any{"conflicting_product_id": id}, nil)
				}
			}
		}
		if err := s.products.UpdateSKU(ctx, tx, productID, sku); err != nil {
			return internalError("Failed to update SKU.", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return sku, nil
}

func (s *productService) Search(ctx context.Context, term string) ([]ProductSearchItem, error) {
	products, err := s.products.Search(ctx, nil, strings.TrimSpace(term), productSearchLimit)
	if err != nil {
		return nil, internalError("Failed to search products.", err)
	}
	items := make([]ProductSearchItem, 0, len(products))
	for _, product := range products {
		text := product.DisplayName()
		if product.SKU != "" {
			text = fmt.Sprintf("%s (SKU: %s)", text, product.SKU)
		}
		items = append(items, ProductSearchItem{ID: product.ID, Text: text, SKU: product.SKU})
	}
	return items, nil
}
