package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	conn *gorm.DB
}

func NewHealthHandler(conn *gorm.DB) *HealthHandler {
	return &HealthHandler{conn: conn}
}

// Health 数据库不可用时返回 503
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok", "timestamp": time.Now().UTC()}
	sqlDB, err := h.conn.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		body["status"] = "degraded"
		body["database"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["database"] = "ok"
	c.JSON(http.StatusOK, body)
}
