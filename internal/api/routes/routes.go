package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/dfredborg/sftp-function/internal/api/handlers"
	"github.com/dfredborg/sftp-function/internal/api/middleware"
	"github.com/dfredborg/sftp-function/internal/infrastructure/config"
)

// Setup 构建路由和中间件链
func Setup(cfg *config.Config, log handlers.Logger) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recover())

	// Swagger文档路由
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	sftpHandler := handlers.NewSftpHandler(cfg, log)

	api := router.Group("/api/v1")
	{
		// 同一处理器同时接受GET和POST
		api.GET("/sftp", sftpHandler.Transfer)
		api.POST("/sftp", sftpHandler.Transfer)

		api.GET("/health", handleHealthCheck)
	}

	return router
}

// handleHealthCheck 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}
