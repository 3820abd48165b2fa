package handlers

import (
	"net/http"

	"wccleanup/services"
	"wccleanup/utils"

	"github.com/gin-gonic/gin"
)

// operations maps the :operation path segment to its handler.
var operations = map[string]gin.HandlerFunc{
	"delete_users":              DeleteUsers,
	"list_users":                ListUsers,
	"list_users_for_reassign":   ListUsersForReassign,
	"delete_customers":          DeleteCustomers,
	"list_customers":            ListCustomers,
	"delete_orders":             DeleteOrders,
	"list_orders":               ListOrders,
	"list_order_statuses":       ListOrderStatuses,
	"count_orders":              CountOrders,
	"delete_bookings":           DeleteBookings,
	"list_bookings":             ListBookings,
	"list_booking_statuses":     ListBookingStatuses,
	"scan_duplicate_products":   ScanDuplicateProducts,
	"delete_products":           DeleteProducts,
	"delete_duplicate_products": DeleteDuplicateProducts,
	"product_statistics":        ProductStatistics,
	"update_product_sku":        UpdateProductSKU,
	"search_products":           SearchProducts,
}

// Dispatch routes /api/cleanup/:operation to the named operation.
func Dispatch(c *gin.Context) {
	handler, ok := operations[c.Param("operation")]
	if !ok {
		utils.ErrorWithCode(c, http.StatusNotFound, services.CodeInvalidFilter, "Unknown operation.")
		return
	}
	handler(c)
}

// IssueNonce hands the authenticated actor an anti-forgery token for cleanup calls.
func IssueNonce(c *gin.Context) {
	utils.Success(c, getServices().Auth.IssueNonce(actorID(c)))
}

// listRequest is the Select2 query every listing accepts.
type listRequest struct {
	Search      string `json:"search" form:"search"`
	Page        int    `json:"page" form:"page"`
	IncludeData bool   `json:"include_data" form:"include_data"`
}

func (r listRequest) input() services.ListInput {
	return services.ListInput{Search: r.Search, Page: r.Page, IncludeData: r.IncludeData}
}

// respondBatch reports a deletion run. A run that deleted nothing is success:false unless nothing matched.
func respondBatch(c *gin.Context, result services.BatchResult) {
	utils.Result(c, result.Success, result)
}
