package handlers

import (
	"errors"
	"net/http"

	"wccleanup/logger"
	"wccleanup/services"
	"wccleanup/utils"

	"github.com/gin-gonic/gin"
)

var appServices *services.Container

func SetServices(container *services.Container) {
	appServices = container
}

func getServices() *services.Container {
	if appServices == nil {
		panic("services container is not initialized")
	}
	return appServices
}

// actorID is the WordPress user the auth middleware resolved for this request.
func actorID(c *gin.Context) uint64 {
	return c.GetUint64("user_id")
}

func respondServiceError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			logger.Warnf("%s: %s: %v", c.Param("operation"), appErr.Message, appErr.Err)
		}
		if appErr.Data != nil {
			utils.ErrorWithData(c, appErr.HTTPCode, appErr.Code, appErr.Message, appErr.Data)
		} else {
			utils.ErrorWithCode(c, appErr.HTTPCode, appErr.Code, appErr.Message)
		}
		return true
	}
	logger.Errorf("%s: unexpected error: %v", c.Param("operation"), err)
	utils.ErrorWithCode(c, http.StatusInternalServerError, services.CodeInternal, "internal error")
	return true
}

// respondBadRequest reports a parameter binding failure.
func respondBadRequest(c *gin.Context, err error) {
	utils.ErrorWithCode(c, http.StatusBadRequest, services.CodeInvalidFilter, "Invalid request parameters: "+err.Error())
}

// boolOr resolves an optional flag against its default.
func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
