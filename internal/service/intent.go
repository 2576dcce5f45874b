package service

import (
	"encoding/json"
	"log"

	"liar_game/internal/models"
)

// HandleIntent 把 WebSocket 送來的意圖分派給對應階段的處理邏輯。
// 只有房間不存在、遊戲已開始、人數不足、重連對象不存在這幾種錯誤
// 會回報給客戶端，其餘不合法的意圖一律靜默忽略
func (s *RoomService) HandleIntent(client *Client, msg *models.Message) {
	switch msg.Type {
	case models.IntentCreateRoom:
		if _, inRoom := s.registry.FindByTransport(client.TransportID); inRoom {
			return
		}
		var payload models.CreateRoomPayload
		decodePayload(msg.Payload, &payload)
		name := payload.Name
		if name == "" {
			name = client.Name
		}
		room, player := s.CreateRoom(client.TransportID, name)
		s.sendJoined(client.TransportID, room.Code, player.StableID)

	case models.IntentJoinRoom:
		if _, inRoom := s.registry.FindByTransport(client.TransportID); inRoom {
			return
		}
		var payload models.JoinRoomPayload
		decodePayload(msg.Payload, &payload)
		name := payload.Name
		if name == "" {
			name = client.Name
		}
		room, player, err := s.JoinRoom(msg.RoomID, client.TransportID, name)
		if err != nil {
			s.sendError(client.TransportID, msg.RoomID, err)
			return
		}
		s.sendJoined(client.TransportID, room.Code, player.StableID)

	case models.IntentReconnect:
		// 已綁在房間裡的連線不能頂替其他玩家重連
		if _, inRoom := s.registry.FindByTransport(client.TransportID); inRoom {
			return
		}
		var payload models.ReconnectPayload
		decodePayload(msg.Payload, &payload)
		if err := s.Reconnect(msg.RoomID, client.TransportID, payload.PlayerID); err != nil {
			s.sendError(client.TransportID, msg.RoomID, err)
			return
		}
		s.sendJoined(client.TransportID, msg.RoomID, payload.PlayerID)

	case models.IntentUpdateSettings:
		// 未知欄位在解析階段就拒絕
		patch, err := models.ParseSettingsPatch(msg.Payload)
		if err != nil {
			s.sendError(client.TransportID, msg.RoomID, err)
			return
		}
		if err := s.UpdateSettings(msg.RoomID, client.TransportID, patch); err != nil {
			s.sendError(client.TransportID, msg.RoomID, err)
		}

	case models.IntentStartRound:
		if err := s.StartRound(msg.RoomID, client.TransportID); err != nil {
			s.sendError(client.TransportID, msg.RoomID, err)
		}

	case models.IntentSubmitHint:
		var payload models.SubmitHintPayload
		decodePayload(msg.Payload, &payload)
		s.SubmitHint(msg.RoomID, client.TransportID, &payload)

	case models.IntentSubmitVote:
		var payload models.SubmitVotePayload
		decodePayload(msg.Payload, &payload)
		s.SubmitVote(msg.RoomID, client.TransportID, payload.TargetID)

	case models.IntentSubmitGuess:
		var payload models.SubmitGuessPayload
		decodePayload(msg.Payload, &payload)
		s.SubmitGuess(msg.RoomID, client.TransportID, payload.Guess)

	case models.IntentRestartGame:
		s.RestartGame(msg.RoomID, client.TransportID)

	case models.IntentLeaveRoom:
		s.LeaveRoom(client.TransportID)

	case models.IntentChat:
		s.relayChat(client, msg)

	case models.IntentReaction:
		s.relayReaction(client, msg)

	default:
		log.Printf("unknown intent type: %s", msg.Type)
	}
}

func (s *RoomService) sendJoined(transportID, roomCode, playerID string) {
	payload := models.JoinedPayload{RoomID: roomCode, PlayerID: playerID}
	s.broadcaster.Send(transportID, models.NewMessage(models.MsgJoined, roomCode, payload))
}

func (s *RoomService) sendError(transportID, roomID string, err error) {
	s.broadcaster.Send(transportID, models.NewErrorMessage(roomID, err.Error()))
}

// relayChat 自由聊天直接轉發給房間成員，不經過遊戲狀態機
func (s *RoomService) relayChat(client *Client, msg *models.Message) {
	room, ok := s.registry.FindByTransport(client.TransportID)
	if !ok {
		return
	}

	var payload models.ChatPayload
	decodePayload(msg.Payload, &payload)

	room.mu.Lock()
	player := room.findByTransportID(client.TransportID)
	if player != nil {
		payload.From = player.Name
	}
	transports := room.connectedTransports()
	code := room.Code
	room.mu.Unlock()

	if player == nil {
		return
	}
	s.broadcaster.Broadcast(transports, models.NewMessage(models.MsgChat, code, payload))
}

// relayReaction 表情符號疊加，同聊天一樣只做轉發
func (s *RoomService) relayReaction(client *Client, msg *models.Message) {
	room, ok := s.registry.FindByTransport(client.TransportID)
	if !ok {
		return
	}

	var payload models.ReactionPayload
	decodePayload(msg.Payload, &payload)

	room.mu.Lock()
	player := room.findByTransportID(client.TransportID)
	if player != nil {
		payload.From = player.Name
	}
	transports := room.connectedTransports()
	code := room.Code
	room.mu.Unlock()

	if player == nil {
		return
	}
	s.broadcaster.Broadcast(transports, models.NewMessage(models.MsgReaction, code, payload))
}

func decodePayload(data json.RawMessage, v interface{}) {
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("intent payload parse error: %v", err)
	}
}
