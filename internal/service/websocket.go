package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"liar_game/internal/models"
)

// Client 代表一個 WebSocket 客戶端連接。
// TransportID 是這條連線的識別，每次重連都會換新
type Client struct {
	Conn        *websocket.Conn
	TransportID string
	UserID      uint
	Name        string
	SendChan    chan *models.Message // 消息發送通道，用於異步傳送消息
	closed      bool                 // SendChan 是否已關閉，由 clientsMux 保護
}

// IntentRouter 接收客戶端意圖與斷線事件，由房間服務實作
type IntentRouter interface {
	HandleIntent(client *Client, msg *models.Message)
	HandleDisconnect(transportID string)
}

// WebSocketService 管理所有的 WebSocket 連接和消息傳遞
type WebSocketService struct {
	clients    map[string]*Client // transportID -> client
	clientsMux sync.RWMutex       // 用於保護 clients map 的讀寫鎖
	router     IntentRouter
}

// NewWebSocketService 創建並初始化新的 WebSocket 服務
func NewWebSocketService() *WebSocketService {
	return &WebSocketService{
		clients: make(map[string]*Client),
	}
}

// SetRouter 注入意圖路由，避免與房間服務的建構順序互相依賴
func (s *WebSocketService) SetRouter(router IntentRouter) {
	s.router = router
}

// HandleConnection 處理新的 WebSocket 連接請求，阻塞直到連線結束
func (s *WebSocketService) HandleConnection(conn *websocket.Conn, userID uint, name string) {
	client := &Client{
		Conn:        conn,
		TransportID: uuid.NewString(),
		UserID:      userID,
		Name:        name,
		SendChan:    make(chan *models.Message, 256), // 設置緩衝大小為 256 的消息通道
	}

	s.addClient(client)

	// 確保連接關閉時清理資源
	defer func() {
		s.dropClient(client)
		conn.Close()
		if s.router != nil {
			s.router.HandleDisconnect(client.TransportID)
		}
	}()

	// 啟動讀寫處理
	go s.writePump(client)
	s.readPump(client)
}

// readPump 持續監聽從客戶端接收的意圖並交給房間服務處理
func (s *WebSocketService) readPump(client *Client) {
	client.Conn.SetReadLimit(65536) // 提示可能是畫圖資料，上限放寬到 64KB
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close error: %v", err)
			}
			break
		}

		// 解析接收到的意圖
		var msg models.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("message parse error: %v", err)
			continue
		}

		if s.router != nil {
			s.router.HandleIntent(client, &msg)
		}
	}
}

// writePump 處理向客戶端發送消息的邏輯
func (s *WebSocketService) writePump(client *Client) {
	// 設置心跳檢查計時器
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.SendChan:
			// 設置寫入超時
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// 獲取寫入器並發送消息
			w, err := client.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			// JSON 編碼
			messageBytes, err := json.Marshal(message)
			if err != nil {
				log.Printf("message encoding error: %v", err)
				continue
			}

			if _, err := w.Write(messageBytes); err != nil {
				return
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			// 發送心跳包
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send 向單一連線發送消息。
// 入列動作持讀鎖進行，與持寫鎖關閉通道的 dropClient 互斥，
// 不會向已關閉的通道發送
func (s *WebSocketService) Send(transportID string, message *models.Message) {
	s.clientsMux.RLock()
	client, ok := s.clients[transportID]
	if !ok {
		s.clientsMux.RUnlock()
		return
	}

	select {
	case client.SendChan <- message:
		// 消息成功加入發送隊列
		s.clientsMux.RUnlock()
	default:
		// 客戶端消息隊列已滿，關閉連接
		s.clientsMux.RUnlock()
		s.removeClient(client)
		client.Conn.Close()
	}
}

// Broadcast 向指定的一組連線廣播消息
func (s *WebSocketService) Broadcast(transportIDs []string, message *models.Message) {
	for _, transportID := range transportIDs {
		s.Send(transportID, message)
	}
}

// addClient 安全地添加新的客戶端連接
func (s *WebSocketService) addClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()
	s.clients[client.TransportID] = client
}

// removeClient 安全地移除客戶端連接
func (s *WebSocketService) removeClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()
	delete(s.clients, client.TransportID)
}

// dropClient 移除客戶端並關閉其發送通道，重複呼叫為 no-op
func (s *WebSocketService) dropClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()
	delete(s.clients, client.TransportID)
	if !client.closed {
		client.closed = true
		close(client.SendChan)
	}
}

// ClientCount 獲取在線客戶端數量
func (s *WebSocketService) ClientCount() int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()
	return len(s.clients)
}
