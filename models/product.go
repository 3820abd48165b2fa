package models

const (
	PostTypeProduct   = "product"
	PostTypeVariation = "product_variation"
)

// DuplicateKey names the field products are grouped by when scanning for duplicates.
type DuplicateKey string

const (
	DuplicateKeySKU     DuplicateKey = "sku"
	DuplicateKeyTitle   DuplicateKey = "title"
	DuplicateKeyBarcode DuplicateKey = "barcode"
)

var DuplicateKeys = []DuplicateKey{DuplicateKeySKU, DuplicateKeyTitle, DuplicateKeyBarcode}

// BarcodeMetaKeys share one namespace: a value in any of them matches the same value in any other.
var BarcodeMetaKeys = []string{"_barcode", "_ean", "_upc", "_gtin", "_isbn", "_mpn"}

func (k DuplicateKey) Valid() bool {
	switch k {
	case DuplicateKeySKU, DuplicateKeyTitle, DuplicateKeyBarcode:
		return true
	}
	return false
}

// ProductKeyRow is one product carrying a candidate duplicate value.
type ProductKeyRow struct {
	ID       uint64 `gorm:"column:id"`
	KeyValue string `gorm:"column:key_value"`
	Created  string `gorm:"column:created"`
}

type Product struct {
	ID          uint64 `gorm:"column:id" json:"id"`
	Title       string `gorm:"column:title" json:"title"`
	PostType    string `gorm:"column:post_type" json:"post_type"`
	Status      string `gorm:"column:status" json:"status"`
	ParentID    uint64 `gorm:"column:parent_id" json:"parent_id"`
	ParentTitle string `gorm:"column:parent_title" json:"parent_title"`
	Created     string `gorm:"column:created" json:"created"`
	SKU         string `gorm:"column:sku" json:"sku"`
	ProductType string `gorm:"column:product_type" json:"product_type"`
}

func (p Product) IsVariation() bool {
	return p.PostType == PostTypeVariation
}

// DisplayName prefixes variations with their parent's title.
func (p Product) DisplayName() string {
	if p.IsVariation() && p.ParentTitle != "" {
		return p.ParentTitle + " - " + p.Title
	}
	return p.Title
}

// Type reports "variation" for variations, otherwise the product_type term.
func (p Product) Type() string {
	if p.IsVariation() {
		return "variation"
	}
	if p.ProductType == "" {
		return "simple"
	}
	return p.ProductType
}

type ProductStatistics struct {
	TotalProducts      int64 `json:"total_products"`
	ProductsWithSKU    int64 `json:"products_with_sku"`
	DuplicateSKUs      int64 `json:"duplicate_skus"`
	DuplicateTitles    int64 `json:"duplicate_titles"`
	ProductsWithoutSKU int64 `json:"products_without_sku"`
}
