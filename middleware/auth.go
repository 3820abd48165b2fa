package middleware

import (
	"errors"
	"net/http"
	"strings"

	"wccleanup/services"
	"wccleanup/utils"

	"github.com/gin-gonic/gin"
)

const NonceHeader = "X-WC-Cleanup-Nonce"

// RequireToken resolves the bearer token to a WordPress user id.
func RequireToken(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}

		userID, err := auth.Authenticate(token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// RequireNonce checks the anti-forgery nonce issued to the current user.
func RequireNonce(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce := c.GetHeader(NonceHeader)
		if nonce == "" {
			nonce = c.Query("nonce")
		}
		if nonce == "" {
			nonce = c.PostForm("nonce")
		}

		if err := auth.VerifyNonce(c.GetUint64("user_id"), nonce); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequireCapability admits only users whose roles grant the configured capability.
func RequireCapability(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := auth.Authorize(c.Request.Context(), c.GetUint64("user_id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set("actor", actor)
		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		utils.ErrorWithCode(c, appErr.HTTPCode, appErr.Code, appErr.Message)
	} else {
		utils.ErrorWithCode(c, http.StatusInternalServerError, services.CodeInternal, "internal error")
	}
	c.Abort()
}
