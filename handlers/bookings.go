package handlers

import (
	"wccleanup/services"
	"wccleanup/utils"

	"github.com/gin-gonic/gin"
)

type bookingDeleteOptions struct {
	ForceDelete *bool `json:"force_delete" form:"options[force_delete]"`
	DeleteOrder *bool `json:"delete_order" form:"options[delete_order]"`
	BatchSize   int   `json:"batch_size" form:"options[batch_size]"`
}

type DeleteBookingsRequest struct {
	ActionType    string               `json:"action_type" form:"action_type"`
	BookingIDs    []uint64             `json:"booking_ids" form:"booking_ids[]"`
	BookingStatus string               `json:"booking_status" form:"booking_status"`
	DateFrom      string               `json:"date_from" form:"date_from"`
	DateTo        string               `json:"date_to" form:"date_to"`
	Options       bookingDeleteOptions `json:"options"`
}

type ListBookingsRequest struct {
	Search         string `json:"search" form:"search"`
	Page           int    `json:"page" form:"page"`
	IncludeDetails *bool  `json:"include_details" form:"include_details"`
	Status         string `json:"status" form:"status"`
	DateFrom       string `json:"date_from" form:"date_from"`
	DateTo         string `json:"date_to" form:"date_to"`
}

func DeleteBookings(c *gin.Context) {
	var req DeleteBookingsRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := getServices().Bookings.DeleteBookings(c.Request.Context(), services.DeleteBookingsInput{
		ActionType: req.ActionType,
		BookingIDs: req.BookingIDs,
		Filter: services.FilterInput{
			Status:   req.BookingStatus,
			DateFrom: req.DateFrom,
			DateTo:   req.DateTo,
		},
		Options: services.DeleteOptions{
			ForceDelete:   boolOr(req.Options.ForceDelete, true),
			DeleteRelated: boolOr(req.Options.DeleteOrder, false),
			BatchSize:     req.Options.BatchSize,
		},
	})
	if respondServiceError(c, err) {
		return
	}
	respondBatch(c, result)
}

func ListBookings(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	page, err := getServices().Bookings.ListBookings(c.Request.Context(), services.ListInput{
		Search:      req.Search,
		Page:        req.Page,
		IncludeData: boolOr(req.IncludeDetails, true),
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

func ListBookingStatuses(c *gin.Context) {
	statuses, err := getServices().Bookings.ListBookingStatuses(c.Request.Context())
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, statuses)
}
