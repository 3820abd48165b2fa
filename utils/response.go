package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the JSON shape of every cleanup response.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// SelectPagination is the pagination block Select2 reads.
type SelectPagination struct {
	More bool `json:"more"`
}

// NewSelectPagination reports whether rows remain past the given page.
func NewSelectPagination(page, pageSize int, total int64) SelectPagination {
	return SelectPagination{More: int64(page)*int64(pageSize) < total}
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Result answers 200 with an explicit success flag, for runs that completed but deleted nothing.
func Result(c *gin.Context, success bool, data any) {
	c.JSON(http.StatusOK, Envelope{Success: success, Data: data})
}

func ErrorWithCode(c *gin.Context, httpCode int, code string, message string) {
	c.JSON(httpCode, Envelope{Success: false, Data: gin.H{"message": message, "code": code}})
}

func ErrorWithData(c *gin.Context, httpCode int, code string, message string, data map[string]any) {
	payload := gin.H{"message": message, "code": code}
	for k, v := range data {
		if _, reserved := payload[k]; reserved {
			continue
		}
		payload[k] = v
	}
	c.JSON(httpCode, Envelope{Success: false, Data: payload})
}
