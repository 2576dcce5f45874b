package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"liar_game/internal/models"
)

// 關閉發送通道後不得再入列，重複關閉也必須是 no-op
func TestWebSocketService_DropClientStopsSends(t *testing.T) {
	s := NewWebSocketService()
	client := &Client{TransportID: "conn-1", SendChan: make(chan *models.Message, 4)}
	s.addClient(client)

	s.Send("conn-1", models.NewSystemMessage("ROOM", "hello"))
	assert.Len(t, client.SendChan, 1)

	s.dropClient(client)
	s.dropClient(client)
	assert.Equal(t, 0, s.ClientCount())

	// 已下線的連線不再是發送對象
	s.Send("conn-1", models.NewSystemMessage("ROOM", "after close"))

	// 關閉前排入的訊息仍可讀出，之後通道即關閉
	msg := <-client.SendChan
	assert.Equal(t, "hello", msg.Content)
	_, open := <-client.SendChan
	assert.False(t, open)
}
