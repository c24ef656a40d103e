package handler

import (
	"net/http"

	"github.com/eaglebank/transfer-service/shared/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter mounts the transfer routes under /v1 behind JWT auth. /health is
// left open.
func NewRouter(h *TransferHandler, logger *zap.Logger, jwtSecret []byte) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1", middleware.AuthMiddleware(jwtSecret))
	{
		v1.POST("/transfers", h.CreateTransfer)
		v1.GET("/transfers", h.ListTransfers)
		v1.DELETE("/transfers", h.DeleteTransfers)
		v1.GET("/accounts/:accountId", h.GetAccount)
		v1.GET("/balances", h.GetBalances)
	}
	return router
}
