package handlers

import (
	"wccleanup/services"
	"wccleanup/utils"

	"github.com/gin-gonic/gin"
)

type userDeleteOptions struct {
	ForceDelete    *bool  `json:"force_delete" form:"options[force_delete]"`
	DeleteOrders   *bool  `json:"delete_orders" form:"options[delete_orders]"`
	ReassignPosts  uint64 `json:"reassign_posts" form:"options[reassign_posts]"`
	DeleteComments *bool  `json:"delete_comments" form:"options[delete_comments]"`
	BatchSize      int    `json:"batch_size" form:"options[batch_size]"`
}

type DeleteUsersRequest struct {
	ActionType string            `json:"action_type" form:"action_type"`
	UserIDs    []uint64          `json:"user_ids" form:"user_ids[]"`
	Options    userDeleteOptions `json:"options"`
}

func DeleteUsers(c *gin.Context) {
	var req DeleteUsersRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := getServices().Users.DeleteUsers(c.Request.Context(), services.DeleteUsersInput{
		ActorID:    actorID(c),
		ActionType: req.ActionType,
		UserIDs:    req.UserIDs,
		Options: services.DeleteOptions{
			ForceDelete:    boolOr(req.Options.ForceDelete, false),
			DeleteRelated:  boolOr(req.Options.DeleteOrders, false),
			ReassignTo:     req.Options.ReassignPosts,
			DeleteComments: boolOr(req.Options.DeleteComments, true),
			BatchSize:      req.Options.BatchSize,
		},
	})
	if respondServiceError(c, err) {
		return
	}
	respondBatch(c, result)
}

func ListUsers(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	page, err := getServices().Users.ListUsers(c.Request.Context(), req.input())
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, page)
}

func ListUsersForReassign(c *gin.Context) {
	options, err := getServices().Users.ListUsersForReassign(c.Request.Context())
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"results": options})
}
