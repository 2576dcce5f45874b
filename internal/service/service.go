package service

import (
	"liar_game/internal/repository"
	"liar_game/pkg/config"
)

type Services struct {
	User      *UserService
	Room      *RoomService
	WebSocket *WebSocketService
}

func NewServices(repos *repository.Repositories, gameCfg config.GameConfig) *Services {
	wsService := NewWebSocketService()

	catalog := LoadCatalog(repos.Word)
	roomService := NewRoomService(NewRoomRegistry(), NewTimerService(), catalog,
		wsService, repos.MatchRound, gameCfg, nil)
	wsService.SetRouter(roomService)

	userService := NewUserService(repos.User)
	return &Services{
		User:      userService,
		Room:      roomService,
		WebSocket: wsService,
	}
}
