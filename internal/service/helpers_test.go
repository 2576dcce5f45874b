package service

import (
	"encoding/json"
	mrand "math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"liar_game/internal/models"
	"liar_game/pkg/config"
)

// fakeBroadcaster 記錄所有送出的訊息，取代 WebSocket 傳輸
type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []sentMessage
}

type sentMessage struct {
	TransportID string
	Message     *models.Message
}

func (f *fakeBroadcaster) Send(transportID string, message *models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{TransportID: transportID, Message: message})
}

func (f *fakeBroadcaster) Broadcast(transportIDs []string, message *models.Message) {
	for _, tid := range transportIDs {
		f.Send(tid, message)
	}
}

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// byType 取出指定類型的訊息
func (f *fakeBroadcaster) byType(msgType string) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.messages {
		if m.Message.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func testCatalog() WordCatalog {
	return NewMemoryCatalog(map[string][]string{
		"movies":  {"Inception", "Titanic"},
		"animals": {"Elephant", "Penguin", "Octopus", "Kangaroo", "Hedgehog", "Dolphin", "Chameleon", "Owl"},
		"single":  {"Moon"},
	})
}

func newTestService(seed int64, grace int) (*RoomService, *fakeBroadcaster) {
	fake := &fakeBroadcaster{}
	cfg := config.GameConfig{HintSeconds: 30, VoteSeconds: 30, GraceSeconds: grace}
	svc := NewRoomService(NewRoomRegistry(), NewTimerService(), testCatalog(),
		fake, nil, cfg, mrand.New(mrand.NewSource(seed)))
	return svc, fake
}

// setupThree 建立一個有 A（房主）、B、C 三人的房間
func setupThree(t *testing.T, svc *RoomService) (*Room, []*models.Player) {
	t.Helper()
	room, a := svc.CreateRoom("t-a", "A")
	_, b, err := svc.JoinRoom(room.Code, "t-b", "B")
	require.NoError(t, err)
	_, c, err := svc.JoinRoom(room.Code, "t-c", "C")
	require.NoError(t, err)
	return room, []*models.Player{a, b, c}
}

// submitAllHints 依當前輪次順序讓所有玩家各提交一則文字提示
func submitAllHints(t *testing.T, svc *RoomService, room *Room) {
	t.Helper()
	for i := 0; i < len(currentPlayers(room)); i++ {
		turn := currentTurn(room)
		require.NotEmpty(t, turn.TransportID)
		svc.SubmitHint(room.Code, turn.TransportID, &models.SubmitHintPayload{
			Kind: models.HintText,
			Text: "hint from " + turn.Name,
		})
	}
}

func currentTurn(room *Room) *models.Player {
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.findByStableID(room.CurrentTurnID)
}

func currentPlayers(room *Room) []*models.Player {
	room.mu.Lock()
	defer room.mu.Unlock()
	return append([]*models.Player{}, room.Players...)
}

func roomPhase(room *Room) models.Phase {
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.Phase
}

func jsonUnmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// forceLiar 測試中直接指定臥底，讓結果可以精確斷言
func forceLiar(room *Room, stableID string) {
	room.mu.Lock()
	defer room.mu.Unlock()
	room.LiarID = stableID
}

// forceTurn 測試中直接指定當前發言者
func forceTurn(room *Room, stableID string) {
	room.mu.Lock()
	defer room.mu.Unlock()
	room.CurrentTurnID = stableID
}

// activeTimer 取得房間當前倒數的把手，模擬逾時回呼用
func activeTimer(room *Room) *countdown {
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.timer
}
