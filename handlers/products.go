package handlers

import (
	"net/http"

	"wccleanup/services"
	"wccleanup/utils"

	"github.com/gin-gonic/gin"
)

type scanProductsRequest struct {
	Criteria string `json:"criteria" form:"criteria"`
}

type DeleteProductsRequest struct {
	ProductIDs  []uint64 `json:"product_ids" form:"product_ids[]"`
	ForceDelete bool     `json:"force_delete" form:"force_delete"`
}

type DeleteDuplicateProductsRequest struct {
	Criteria    string `json:"criteria" form:"criteria"`
	Keep        string `json:"keep" form:"keep"`
	ForceDelete bool   `json:"force_delete" form:"force_delete"`
}

type UpdateProductSKURequest struct {
	ProductID uint64 `json:"product_id" form:"product_id" binding:"required"`
	SKU       string `json:"sku" form:"sku"`
}

type searchProductsRequest struct {
	Search string `json:"search" form:"search"`
}

func ScanDuplicateProducts(c *gin.Context) {
	var req scanProductsRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := getServices().Products.ScanDuplicates(c.Request.Context(), req.Criteria)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, result)
}

func DeleteProducts(c *gin.Context) {
	var req DeleteProductsRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := getServices().Products.DeleteProducts(c.Request.Context(), req.ProductIDs, req.ForceDelete)
	if respondServiceError(c, err) {
		return
	}
	utils.Result(c, result.Success, result)
}

func DeleteDuplicateProducts(c *gin.Context) {
	var req DeleteDuplicateProductsRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	result, err := getServices().Products.DeleteDuplicates(c.Request.Context(), req.Criteria, req.Keep, req.ForceDelete)
	if respondServiceError(c, err) {
		return
	}
	utils.Result(c, result.Success, result)
}

func ProductStatistics(c *gin.Context) {
	stats, err := getServices().Products.Statistics(c.Request.Context())
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, stats)
}

func UpdateProductSKU(c *gin.Context) {
	var req UpdateProductSKURequest
	if err := c.ShouldBind(&req); err != nil {
		utils.ErrorWithCode(c, http.StatusBadRequest, services.CodeInvalidFilter, "Invalid product ID")
		return
	}
	sku, err := getServices().Products.UpdateSKU(c.Request.Context(), req.ProductID, req.SKU)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{
		"message":    "SKU updated successfully",
		"product_id": req.ProductID,
		"sku":        sku,
	})
}

func SearchProducts(c *gin.Context) {
	var req searchProductsRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	items, err := getServices().Products.Search(c.Request.Context(), req.Search)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"results": items})
}
