package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"liar_game/internal/service"
)

// RoomHandler 處理與遊戲房間相關的 REST 請求。
// 房間的建立與操作都在 WebSocket 上進行，這裡只提供大廳查詢
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// ListRooms 列出所有等待玩家加入的房間
func (h *RoomHandler) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.roomService.ListOpenRooms())
}

// GetMatchHistory 查詢房間的歷史回合記錄
func (h *RoomHandler) GetMatchHistory(c *gin.Context) {
	rounds, err := h.roomService.MatchHistory(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法搜尋對戰記錄"})
		return
	}

	c.JSON(http.StatusOK, rounds)
}
