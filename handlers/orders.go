package handlers

import (
	"wccleanup/services"
	"wccleanup/utils"

	"github.com/gin-gonic/gin"
)

type orderDeleteOptions struct {
	ForceDelete *bool `json:"force_delete" form:"options[force_delete]"`
	BatchSize   int   `json:"batch_size" form:"options[batch_size]"`
}

type DeleteOrdersRequest struct {
	ActionType  string             `json:"action_type" form:"action_type"`
	OrderIDs    []uint64           `json:"order_ids" form:"order_ids[]"`
	OrderStatus string             `json:"order_status" form:"order_status"`
	DateFrom    string             `json:"date_from" form:"date_from"`
	DateTo      string             `json:"date_to" form:"date_to"`
	Options     orderDeleteOptions `json:"options"`
}

type ListOrdersRequest struct {
	Search         string `json:"search" form:"search"`
	Page           int    `json:"page" form:"page"`
	IncludeDetails *bool  `json:"include_details" form:"include_details"`
	Limit          int    `json:"limit" form:"limit"`
	Status         string `json:"status" form:"status"`
	DateFrom       string `json:"date_from" form:"date_from"`
	DateTo         string `json:"date_to" form:"date_to"`
}

type CountOrdersRequest struct {
	Search   string `json:"search" form:"search"`
	Status   string `json:"status" form:"status"`
	DateFrom string `json:"date_from" form:"date_from"`
	DateTo   string `json:"date_to" form:"date_to"`
}

type listOrderStatusesRequest struct {
	ForceRefresh bool `json:"force_refresh" form:"force_refresh"`
}

func DeleteOrders(c *gin.Context) {
	var req DeleteOrdersRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := getServices().Orders.DeleteOrders(c.Request.Context(), services.DeleteOrdersInput{
		ActionType: req.ActionType,
		OrderIDs:   req.OrderIDs,
		Filter: services.FilterInput{
			Status:   req.OrderStatus,
			DateFrom: req.DateFrom,
			DateTo:   req.DateTo,
		},
		Options: services.DeleteOptions{
			ForceDelete: boolOr(req.Options.ForceDelete, true),
			BatchSize:   req.Options.BatchSize,
		},
	})
	if respondServiceError(c, err) {
		return
	}
	respondBatch(c, result)
}

// ListOrders always reports total_count, which is what the preview panel reads.
func ListOrders(c *gin.Context) {
	var req ListOrdersRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	page, err := getServices().Orders.ListOrders(c.Request.Context(), services.ListInput{
		Search:      req.Search,
		Page:        req.Page,
		IncludeData: boolOr(req.IncludeDetails, true),
		Limit:       req.Limit,
		Filter: services.FilterInput{
			Status:   req.Status,
			DateFrom: req.DateFrom,
			DateTo:   req.DateTo,
		},
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, page)
}

// CountOrders reports how many orders a pending delete_by_status or delete_by_date_range would touch.
func CountOrders(c *gin.Context) {
	var req CountOrdersRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	total, err := getServices().Orders.CountOrders(c.Request.Context(), services.FilterInput{
		Search:   req.Search,
		Status:   req.Status,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"total_count": total})
}

func ListOrderStatuses(c *gin.Context) {
	var req listOrderStatusesRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	statuses, err := getServices().Orders.ListOrderStatuses(c.Request.Context(), req.ForceRefresh)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, statuses)
}
