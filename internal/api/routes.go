package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"liar_game/internal/api/handlers"
	"liar_game/internal/middleware"
	"liar_game/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	roomHandler := handlers.NewRoomHandler(services.Room)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocket)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		rooms := authorized.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)                   // 大廳：列出等待中的房間
			rooms.GET("/history/:code", roomHandler.GetMatchHistory) // 房間的歷史回合

			// WebSocket 連接點，建房、加入與所有遊戲意圖都走這裡
			rooms.GET("/ws", wsHandler.HandleWebSocket)
		}
	}
}
