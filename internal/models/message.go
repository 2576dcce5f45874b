package models

import (
	"encoding/json"
	"log"
)

// Message 代表一個統一的 WebSocket 訊息結構，
// 客戶端的意圖和伺服器推送的事件都使用這個信封
type Message struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id,omitempty"`
	Content string          `json:"content,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// 客戶端意圖
const (
	IntentCreateRoom     = "create_room"
	IntentJoinRoom       = "join_room"
	IntentUpdateSettings = "update_settings"
	IntentReconnect      = "reconnect"
	IntentStartRound     = "start_round"
	IntentSubmitHint     = "submit_hint"
	IntentSubmitVote     = "submit_vote"
	IntentSubmitGuess    = "submit_guess"
	IntentRestartGame    = "restart_game"
	IntentLeaveRoom      = "leave_room"
	IntentChat           = "chat"
	IntentReaction       = "reaction"
)

// 伺服器推送事件
const (
	MsgJoined       = "joined"
	MsgRoomSnapshot = "room_snapshot"
	MsgRoleReveal   = "role_reveal"
	MsgLiarNotice   = "liar_notice"
	MsgTimerTick    = "timer_tick"
	MsgError        = "error"
	MsgSystem       = "system"
	MsgChat         = "chat"
	MsgReaction     = "reaction"
)

// 各意圖的 payload 結構
type CreateRoomPayload struct {
	Name string `json:"name"`
}

type JoinRoomPayload struct {
	Name string `json:"name"`
}

type ReconnectPayload struct {
	PlayerID string `json:"player_id"`
}

type SubmitHintPayload struct {
	Kind    HintKind `json:"kind"`
	Text    string   `json:"text,omitempty"`
	Drawing []byte   `json:"drawing,omitempty"`
}

type SubmitVotePayload struct {
	TargetID string `json:"target_id"`
}

type SubmitGuessPayload struct {
	Guess string `json:"guess"`
}

type ChatPayload struct {
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

type ReactionPayload struct {
	From  string `json:"from,omitempty"`
	Emoji string `json:"emoji"`
}

// JoinedPayload 建立或加入房間成功後告知玩家自己的識別，
// 重連時需要帶回 PlayerID
type JoinedPayload struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

// RoleRevealPayload 回合開始時私下發給每位玩家的身份與題目。
// 臥底在 normal 模式下 Word 為 null
type RoleRevealPayload struct {
	Role     string  `json:"role"` // liar / citizen
	Category string  `json:"category"`
	Word     *string `json:"word"`
}

// LiarNoticePayload 投票結算後私下通知臥底
type LiarNoticePayload struct {
	Category  string    `json:"category"`
	GuessMode GuessMode `json:"guess_mode"`
	Cards     []string  `json:"cards,omitempty"`
}

// TimerTickPayload 每秒的倒數更新，nil 表示沒有倒數進行中
type TimerTickPayload struct {
	RemainingSeconds *int `json:"remaining_seconds"`
}

// NewMessage 建立一個帶有 JSON payload 的訊息
func NewMessage(msgType, roomID string, payload interface{}) *Message {
	msg := &Message{Type: msgType, RoomID: roomID}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("message payload encoding error: %v", err)
			return msg
		}
		msg.Payload = data
	}
	return msg
}

// NewErrorMessage 發送給單一客戶端的錯誤事件
func NewErrorMessage(roomID, reason string) *Message {
	return &Message{Type: MsgError, RoomID: roomID, Content: reason}
}

// NewSystemMessage 發送系統訊息到指定房間
func NewSystemMessage(roomID, content string) *Message {
	return &Message{Type: MsgSystem, RoomID: roomID, Content: content}
}
