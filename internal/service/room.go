package service

import (
	"crypto/rand"
	"errors"
	"log"
	mrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"liar_game/internal/models"
	"liar_game/internal/repository"
	"liar_game/pkg/config"
)

// 會回報給客戶端的錯誤，其餘不合法的意圖一律靜默忽略，
// 下一次快照廣播會修正客戶端的過期狀態
var (
	ErrRoomNotFound       = errors.New("房間不存在")
	ErrGameAlreadyStarted = errors.New("遊戲已經開始，無法加入")
	ErrNotEnoughPlayers   = errors.New("人數不足，至少需要兩名玩家")
	ErrPlayerNotFound     = errors.New("找不到要重連的玩家")
	ErrNoWordsInCategory  = errors.New("選擇的類別沒有可用的詞")
)

// Broadcaster 房間對外推送的傳輸層，由 WebSocketService 實作
type Broadcaster interface {
	Send(transportID string, message *models.Message)
	Broadcast(transportIDs []string, message *models.Message)
}

// Room 一個房間的完整狀態。所有讀寫都必須持有 mu，
// 玩家意圖、計時器到期、斷線處理都在這把鎖下線性化
type Room struct {
	mu sync.Mutex

	Code     string
	Players  []*models.Player // 順序即發言順序
	HostID   string           // 房主的 stable id，換連線不換房主
	Settings models.Settings
	Phase    models.Phase

	// 回合內的欄位，每回合開始時重置
	Category         string
	SolutionWord     string
	LiarID           string
	LiarWord         string          // fool 模式下臥底拿到的詞
	RoundMode        models.GameMode // 這一回合實際使用的模式
	CurrentTurnID    string
	Hints            []models.Hint
	Votes            map[string]string // 投票者 -> 指認對象，不可覆寫
	VoteOutcome      string
	GuessOutcome     string
	DecoyCards       []string
	RemainingSeconds *int       // nil 表示沒有倒數進行中
	timer            *countdown // 當前倒數的把手，殘留的舊回呼憑此辨認

	graceTimers map[string]*time.Timer // stableID -> 斷線寬限計時器
}

// resetRoundState 清掉所有回合內的欄位，玩家與分數保留
func (room *Room) resetRoundState() {
	room.Category = ""
	room.SolutionWord = ""
	room.LiarID = ""
	room.LiarWord = ""
	room.RoundMode = ""
	room.CurrentTurnID = ""
	room.Hints = nil
	room.Votes = make(map[string]string)
	room.VoteOutcome = ""
	room.GuessOutcome = ""
	room.DecoyCards = nil
	room.RemainingSeconds = nil
	room.timer = nil
}

func (room *Room) findByStableID(stableID string) *models.Player {
	for _, p := range room.Players {
		if p.StableID == stableID {
			return p
		}
	}
	return nil
}

func (room *Room) findByTransportID(transportID string) *models.Player {
	for _, p := range room.Players {
		if p.TransportID == transportID {
			return p
		}
	}
	return nil
}

func (room *Room) indexOf(stableID string) int {
	for i, p := range room.Players {
		if p.StableID == stableID {
			return i
		}
	}
	return -1
}

// connectedTransports 取得目前在線成員的連線，廣播用
func (room *Room) connectedTransports() []string {
	ids := make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		if p.Connected {
			ids = append(ids, p.TransportID)
		}
	}
	return ids
}

// RoomService 房間的唯一入口，持有註冊表、計時器與題庫，
// 把意圖分派到對應階段的處理邏輯並負責廣播
type RoomService struct {
	registry    *RoomRegistry
	timers      *TimerService
	catalog     WordCatalog
	broadcaster Broadcaster
	matchRepo   repository.MatchRoundRepository // 可為 nil，回合記錄為盡力而為
	game        config.GameConfig

	rngMux sync.Mutex
	rng    *mrand.Rand
}

// NewRoomService rng 傳入 nil 時使用時間種子，測試可注入固定種子
func NewRoomService(registry *RoomRegistry, timers *TimerService, catalog WordCatalog,
	broadcaster Broadcaster, matchRepo repository.MatchRoundRepository,
	game config.GameConfig, rng *mrand.Rand) *RoomService {
	if rng == nil {
		rng = mrand.New(mrand.NewSource(time.Now().UnixNano()))
	}
	return &RoomService{
		registry:    registry,
		timers:      timers,
		catalog:     catalog,
		broadcaster: broadcaster,
		matchRepo:   matchRepo,
		game:        game,
		rng:         rng,
	}
}

// randIntn 集中管理隨機來源，rand.Rand 本身不可併發使用
func (s *RoomService) randIntn(n int) int {
	s.rngMux.Lock()
	defer s.rngMux.Unlock()
	return s.rng.Intn(n)
}

func (s *RoomService) randShuffle(n int, swap func(i, j int)) {
	s.rngMux.Lock()
	defer s.rngMux.Unlock()
	s.rng.Shuffle(n, swap)
}

// 房間代碼使用不易混淆的字母數字，方便玩家口頭轉述
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func (s *RoomService) newRoomCode() string {
	for {
		buf := make([]byte, 6)
		if _, err := rand.Read(buf); err != nil {
			log.Printf("room code generation error: %v", err)
		}
		for i := range buf {
			buf[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
		}
		code := string(buf)
		if _, exists := s.registry.Get(code); !exists {
			return code
		}
	}
}

// CreateRoom 建立新房間，建立者同時是唯一成員與房主
func (s *RoomService) CreateRoom(transportID, displayName string) (*Room, *models.Player) {
	player := &models.Player{
		StableID:    uuid.NewString(),
		TransportID: transportID,
		Name:        displayName,
		Connected:   true,
	}

	room := &Room{
		Code:        s.newRoomCode(),
		Players:     []*models.Player{player},
		HostID:      player.StableID,
		Settings:    models.DefaultSettings(s.catalog.Categories()),
		Phase:       models.PhaseWaiting,
		Votes:       make(map[string]string),
		graceTimers: make(map[string]*time.Timer),
	}

	s.registry.Add(room)
	s.registry.Bind(transportID, room.Code)

	room.mu.Lock()
	s.broadcastSnapshotLocked(room)
	room.mu.Unlock()

	return room, player
}

// JoinRoom 加入等待中的房間，遊戲開始後拒絕
func (s *RoomService) JoinRoom(code, transportID, displayName string) (*Room, *models.Player, error) {
	room, ok := s.registry.Get(code)
	if !ok {
		return nil, nil, ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Phase != models.PhaseWaiting {
		return nil, nil, ErrGameAlreadyStarted
	}

	player := &models.Player{
		StableID:    uuid.NewString(),
		TransportID: transportID,
		Name:        displayName,
		Connected:   true,
	}
	room.Players = append(room.Players, player)
	s.registry.Bind(transportID, code)

	s.broadcastSnapshotLocked(room)
	return room, player, nil
}

// UpdateSettings 只有房主在等待階段可以修改設定，其餘情況靜默忽略
func (s *RoomService) UpdateSettings(code, transportID string, patch *models.SettingsPatch) error {
	room, ok := s.registry.Get(code)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	requester := room.findByTransportID(transportID)
	if requester == nil || requester.StableID != room.HostID || room.Phase != models.PhaseWaiting {
		return nil
	}

	if err := room.Settings.Apply(patch); err != nil {
		return err
	}

	s.broadcastSnapshotLocked(room)
	return nil
}

// Reconnect 把既有玩家的身份重新綁定到新的連線，
// 房主身份跟著 stable id 走，重連不會失去房主
func (s *RoomService) Reconnect(code, transportID, stableID string) error {
	room, ok := s.registry.Get(code)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	player := room.findByStableID(stableID)
	if player == nil {
		return ErrPlayerNotFound
	}

	// 取消還沒到期的移除計時器，玩家視同從未離開
	if timer, ok := room.graceTimers[stableID]; ok {
		timer.Stop()
		delete(room.graceTimers, stableID)
	}

	if player.TransportID != "" {
		s.registry.Unbind(player.TransportID)
	}
	player.TransportID = transportID
	player.Connected = true
	s.registry.Bind(transportID, code)

	// 回合進行中時補發身份私訊，讓重連的客戶端能重建畫面
	switch room.Phase {
	case models.PhasePlaying, models.PhaseVoting, models.PhaseLiarGuess:
		s.sendRoleRevealLocked(room, player)
		if room.Phase == models.PhaseLiarGuess && player.StableID == room.LiarID {
			s.sendLiarNoticeLocked(room)
		}
	}

	s.broadcastSnapshotLocked(room)
	return nil
}

// LeaveRoom 主動離開，立即移除不經過寬限期
func (s *RoomService) LeaveRoom(transportID string) {
	room, ok := s.registry.FindByTransport(transportID)
	if !ok {
		return
	}

	room.mu.Lock()
	player := room.findByTransportID(transportID)
	if player == nil {
		room.mu.Unlock()
		return
	}
	s.registry.Unbind(transportID)
	s.removePlayerLocked(room, player.StableID)
	room.mu.Unlock()
}

// HandleDisconnect 連線中斷時先標記離線並啟動寬限計時器，
// 寬限期內重連的玩家視同從未離開
func (s *RoomService) HandleDisconnect(transportID string) {
	room, ok := s.registry.FindByTransport(transportID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	player := room.findByTransportID(transportID)
	if player == nil {
		return
	}

	player.Connected = false
	s.registry.Unbind(transportID)

	code := room.Code
	stableID := player.StableID
	grace := time.Duration(s.game.GraceSeconds) * time.Second
	room.graceTimers[stableID] = time.AfterFunc(grace, func() {
		s.handleGraceExpiry(code, stableID)
	})

	s.broadcastSnapshotLocked(room)
}

// handleGraceExpiry 寬限期滿仍未重連，正式移除玩家。
// 計時器觸發和房間銷毀可能交錯，這裡必須重新確認房間還在
func (s *RoomService) handleGraceExpiry(code, stableID string) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	delete(room.graceTimers, stableID)

	player := room.findByStableID(stableID)
	if player == nil || player.Connected {
		return
	}

	s.removePlayerLocked(room, stableID)
}

// removePlayerLocked 把玩家移出名單並處理所有的連鎖反應：
// 房主轉移、輪到的人離開、投票補齊、房間清空即銷毀
func (s *RoomService) removePlayerLocked(room *Room, stableID string) {
	idx := room.indexOf(stableID)
	if idx < 0 {
		return
	}
	wasTurn := room.CurrentTurnID == stableID
	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)

	if timer, ok := room.graceTimers[stableID]; ok {
		timer.Stop()
		delete(room.graceTimers, stableID)
	}

	// 最後一個人離開的瞬間房間就銷毀
	if len(room.Players) == 0 {
		s.destroyRoomLocked(room)
		return
	}

	// 房主離開時由名單上的下一位接任
	if room.HostID == stableID {
		room.HostID = room.Players[0].StableID
		s.broadcaster.Broadcast(room.connectedTransports(),
			models.NewSystemMessage(room.Code, room.Players[0].Name+" 成為新房主"))
	}

	switch room.Phase {
	case models.PhasePlaying:
		if wasTurn {
			// 輪到的人離開，視同逾時補上空提示後換人。
			// 移除後原本的下一位正好落在 idx 的位置
			room.Hints = append(room.Hints, models.EmptyHint(stableID))
			s.advanceTurnFromLocked(room, idx%len(room.Players))
			return
		}
		// 離開的人可能是唯一還沒提示的人
		if s.allPlayersHintedLocked(room) {
			s.enterVotingLocked(room)
			return
		}
	case models.PhaseVoting:
		if s.rosterVoteCountLocked(room) >= len(room.Players) {
			s.tallyVotesLocked(room)
			return
		}
	case models.PhaseLiarGuess:
		if room.LiarID == stableID {
			// 臥底離場，這回合視同沒有猜中
			room.GuessOutcome = models.GuessWrong
			s.resolveRoundLocked(room)
			return
		}
	}

	s.broadcastSnapshotLocked(room)
}

// destroyRoomLocked 房間清空時的善後：停計時器、取消寬限、下架
func (s *RoomService) destroyRoomLocked(room *Room) {
	s.timers.Stop(room.Code)
	room.timer = nil
	for id, timer := range room.graceTimers {
		timer.Stop()
		delete(room.graceTimers, id)
	}
	s.registry.Remove(room.Code)
}

// RestartGame 房主重新開始整場遊戲：分數歸零，名單與設定保留
func (s *RoomService) RestartGame(code, transportID string) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	requester := room.findByTransportID(transportID)
	if requester == nil || requester.StableID != room.HostID {
		return
	}

	s.timers.Stop(code)
	room.resetRoundState()
	for _, p := range room.Players {
		p.Score = 0
	}
	room.Phase = models.PhaseWaiting

	s.broadcastSnapshotLocked(room)
}

// MatchHistory 查詢一個房間的歷史回合記錄
func (s *RoomService) MatchHistory(code string) ([]models.MatchRound, error) {
	if s.matchRepo == nil {
		return []models.MatchRound{}, nil
	}
	return s.matchRepo.FindByRoomCode(code)
}

// ListOpenRooms 回傳所有等待中的房間快照，大廳列表用
func (s *RoomService) ListOpenRooms() []*models.RoomSnapshot {
	snapshots := make([]*models.RoomSnapshot, 0)
	for _, room := range s.registry.List() {
		room.mu.Lock()
		if room.Phase == models.PhaseWaiting {
			snapshots = append(snapshots, s.buildSnapshotLocked(room))
		}
		room.mu.Unlock()
	}
	return snapshots
}

// buildSnapshotLocked 組出當前可公開的房間狀態。
// 臥底與題目依階段逐步揭露：投票結算後公開臥底，回合結束後公開題目
func (s *RoomService) buildSnapshotLocked(room *Room) *models.RoomSnapshot {
	snapshot := &models.RoomSnapshot{
		Code:             room.Code,
		Phase:            room.Phase,
		Settings:         room.Settings,
		HostID:           room.HostID,
		Hints:            append([]models.Hint{}, room.Hints...),
		RemainingSeconds: room.RemainingSeconds,
	}

	for _, p := range room.Players {
		snapshot.Players = append(snapshot.Players, models.PlayerView{
			ID:        p.StableID,
			Name:      p.Name,
			Score:     p.Score,
			Connected: p.Connected,
			IsHost:    p.StableID == room.HostID,
		})
	}

	if room.Phase != models.PhaseWaiting {
		snapshot.Category = room.Category
	}

	switch room.Phase {
	case models.PhasePlaying:
		snapshot.CurrentTurnID = room.CurrentTurnID
	case models.PhaseVoting:
		// 只公開誰投了票，不公開投給誰
		for _, p := range room.Players {
			if _, voted := room.Votes[p.StableID]; voted {
				snapshot.VotedIDs = append(snapshot.VotedIDs, p.StableID)
			}
		}
	case models.PhaseLiarGuess:
		snapshot.Votes = room.Votes
		snapshot.VoteOutcome = room.VoteOutcome
		snapshot.LiarID = room.LiarID
		snapshot.DecoyCards = room.DecoyCards
	case models.PhaseRoundOver, models.PhaseFinished:
		snapshot.Votes = room.Votes
		snapshot.VoteOutcome = room.VoteOutcome
		snapshot.LiarID = room.LiarID
		snapshot.DecoyCards = room.DecoyCards
		snapshot.GuessOutcome = room.GuessOutcome
		snapshot.SolutionWord = room.SolutionWord
	}

	return snapshot
}

// broadcastSnapshotLocked 每次狀態變動後把完整快照推給所有在線成員
func (s *RoomService) broadcastSnapshotLocked(room *Room) {
	snapshot := s.buildSnapshotLocked(room)
	message := models.NewMessage(models.MsgRoomSnapshot, room.Code, snapshot)
	s.broadcaster.Broadcast(room.connectedTransports(), message)
}
