package handlers

import (
	"wccleanup/services"
	"wccleanup/utils"

	"github.com/gin-gonic/gin"
)

type customerDeleteOptions struct {
	ForceDelete  *bool `json:"force_delete" form:"options[force_delete]"`
	DeleteOrders *bool `json:"delete_orders" form:"options[delete_orders]"`
	BatchSize    int   `json:"batch_size" form:"options[batch_size]"`
}

type DeleteCustomersRequest struct {
	ActionType  string                `json:"action_type" form:"action_type"`
	CustomerIDs []uint64              `json:"customer_ids" form:"customer_ids[]"`
	Options     customerDeleteOptions `json:"options"`
}

func DeleteCustomers(c *gin.Context) {
	var req DeleteCustomersRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := getServices().Customers.DeleteCustomers(c.Request.Context(), services.DeleteCustomersInput{
		ActorID:     actorID(c),
		ActionType:  req.ActionType,
		CustomerIDs: req.CustomerIDs,
		Options: services.DeleteOptions{
			ForceDelete:   boolOr(req.Options.ForceDelete, false),
			DeleteRelated: boolOr(req.Options.DeleteOrders, false),
			BatchSize:     req.Options.BatchSize,
		},
	})
	if respondServiceError(c, err) {
		return
	}
	respondBatch(c, result)
}

func ListCustomers(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	page, err := getServices().Customers.ListCustomers(c.Request.Context(), req.input())
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, page)
}
