package service

import (
	"liar_game/internal/models"
)

// StartRound 房主開始新回合：分配類別、臥底、題目與先手，
// 進入提示階段並啟動倒數。只在等待或回合結束階段有效
func (s *RoomService) StartRound(code, transportID string) error {
	room, ok := s.registry.Get(code)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	requester := room.findByTransportID(transportID)
	if requester == nil || requester.StableID != room.HostID {
		return nil
	}
	if room.Phase != models.PhaseWaiting && room.Phase != models.PhaseRoundOver {
		return nil
	}
	if len(room.Players) < 2 {
		return ErrNotEnoughPlayers
	}

	return s.startRoundLocked(room)
}

func (s *RoomService) startRoundLocked(room *Room) error {
	room.resetRoundState()

	categories := room.Settings.Categories
	if len(categories) == 0 {
		categories = s.catalog.Categories()
	}
	category := categories[s.randIntn(len(categories))]
	words := s.catalog.Words(category)
	if len(words) == 0 {
		return ErrNoWordsInCategory
	}

	room.Category = category
	room.LiarID = room.Players[s.randIntn(len(room.Players))].StableID

	// fool 模式需要兩個不同的詞，類別只有一個詞時退回 normal 行為
	room.RoundMode = room.Settings.GameMode
	if room.RoundMode == models.ModeFool && len(words) < 2 {
		room.RoundMode = models.ModeNormal
	}

	switch room.RoundMode {
	case models.ModeFool:
		first := s.randIntn(len(words))
		second := s.randIntn(len(words) - 1)
		if second >= first {
			second++
		}
		room.SolutionWord = words[first]
		room.LiarWord = words[second]
	default:
		room.SolutionWord = words[s.randIntn(len(words))]
	}

	room.CurrentTurnID = room.Players[s.randIntn(len(room.Players))].StableID
	room.Phase = models.PhasePlaying

	// 身份私訊要先於公開快照送出
	for _, p := range room.Players {
		s.sendRoleRevealLocked(room, p)
	}
	s.startHintTimerLocked(room)
	s.broadcastSnapshotLocked(room)
	return nil
}

// sendRoleRevealLocked 私下告知一位玩家這回合的身份與題目。
// fool 模式下所有人都被告知是平民，臥底只是拿到另一個詞
func (s *RoomService) sendRoleRevealLocked(room *Room, player *models.Player) {
	if !player.Connected {
		return
	}

	payload := models.RoleRevealPayload{Role: "citizen", Category: room.Category}
	switch {
	case player.StableID != room.LiarID:
		word := room.SolutionWord
		payload.Word = &word
	case room.RoundMode == models.ModeFool:
		word := room.LiarWord
		payload.Word = &word
	default:
		payload.Role = "liar"
	}

	s.broadcaster.Send(player.TransportID, models.NewMessage(models.MsgRoleReveal, room.Code, payload))
}

// SubmitHint 只接受目前輪到的玩家在提示階段提交，
// 其他情況一律靜默忽略，不改狀態也不廣播
func (s *RoomService) SubmitHint(code, transportID string, payload *models.SubmitHintPayload) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Phase != models.PhasePlaying {
		return
	}
	player := room.findByTransportID(transportID)
	if player == nil || player.StableID != room.CurrentTurnID {
		return
	}

	var hint models.Hint
	switch payload.Kind {
	case models.HintDrawing:
		hint = models.NewDrawingHint(player.StableID, payload.Drawing)
	case models.HintText:
		hint = models.NewTextHint(player.StableID, payload.Text)
	default:
		return
	}

	room.Hints = append(room.Hints, hint)
	s.advanceTurnLocked(room)
}

// handleHintTimeout 提示倒數到期：代為補上空提示後照常換人。
// 同一瞬間的玩家提交若先被套用，當前的倒數已被換新，
// 殘留的舊回呼在把手比對時就被擋下
func (s *RoomService) handleHintTimeout(code string, cd *countdown) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.timer != cd {
		return
	}
	if room.Phase != models.PhasePlaying || room.CurrentTurnID == "" {
		return
	}

	room.Hints = append(room.Hints, models.EmptyHint(room.CurrentTurnID))
	s.advanceTurnLocked(room)
}

// advanceTurnLocked 輪到下一位還沒提示的玩家；
// 所有人都提示過一次就進入投票階段
func (s *RoomService) advanceTurnLocked(room *Room) {
	idx := room.indexOf(room.CurrentTurnID)
	s.advanceTurnFromLocked(room, idx+1)
}

// advanceTurnFromLocked 從名單上指定的位置開始，找出下一位還沒提示的玩家
func (s *RoomService) advanceTurnFromLocked(room *Room, idx int) {
	if s.allPlayersHintedLocked(room) {
		s.enterVotingLocked(room)
		return
	}

	n := len(room.Players)
	for step := 0; step < n; step++ {
		next := room.Players[(idx+step)%n]
		if !s.hasHintedLocked(room, next.StableID) {
			room.CurrentTurnID = next.StableID
			break
		}
	}

	s.startHintTimerLocked(room)
	s.broadcastSnapshotLocked(room)
}

func (s *RoomService) hasHintedLocked(room *Room, stableID string) bool {
	for _, hint := range room.Hints {
		if hint.AuthorID == stableID {
			return true
		}
	}
	return false
}

func (s *RoomService) allPlayersHintedLocked(room *Room) bool {
	for _, p := range room.Players {
		if !s.hasHintedLocked(room, p.StableID) {
			return false
		}
	}
	return true
}

// startHintTimerLocked 重設提示倒數，舊的倒數會被自動取消
func (s *RoomService) startHintTimerLocked(room *Room) {
	seconds := s.game.HintSeconds
	room.RemainingSeconds = &seconds
	code := room.Code
	room.timer = s.timers.Start(code, seconds,
		func(cd *countdown, remaining int) { s.handleTick(code, cd, remaining) },
		func(cd *countdown) { s.handleHintTimeout(code, cd) })
}

// handleTick 每秒更新剩餘秒數並推送給房間成員。
// 房間可能在 tick 送達前就被銷毀或換了新的倒數，
// 查不到房間或把手對不上就跳過
func (s *RoomService) handleTick(code string, cd *countdown, remaining int) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	if room.timer != cd {
		room.mu.Unlock()
		return
	}
	room.RemainingSeconds = &remaining
	transports := room.connectedTransports()
	room.mu.Unlock()

	payload := models.TimerTickPayload{RemainingSeconds: &remaining}
	s.broadcaster.Broadcast(transports, models.NewMessage(models.MsgTimerTick, code, payload))
}
