package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func bodyLimitRouter(limit int64) *gin.Engine {
	r := gin.New()
	r.Use(MaxBodySize(limit))
	r.POST("/api/v1/wallets/deposit", func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, apperror.Validation(err.Error()))
			return
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/api/v1/wallets", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestMaxBodySize(t *testing.T) {
	small := `{"currency_code":"USD","amount":"10"}`

	tests := []struct {
		name string
		body string
		want int
	}{
		{"within limit", small, http.StatusOK},
		{"exactly at limit", small, http.StatusOK},
		{"over limit", `{"currency_code":"USD","amount":"` + strings.Repeat("9", 200) + `"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit := int64(64)
			if tt.name == "exactly at limit" {
				limit = int64(len(small))
			}
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets/deposit", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			bodyLimitRouter(limit).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMaxBodySize_NilBody(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
	bodyLimitRouter(16).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
