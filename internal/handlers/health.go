package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Health reports service liveness and database reachability.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
		}
		c.JSON(200, gin.H{"status": status, "service": "projecthub"})
	}
}
