package service

import (
	"log"

	"liar_game/internal/models"
)

// enterVotingLocked 所有提示到齊後進入投票階段並啟動倒數
func (s *RoomService) enterVotingLocked(room *Room) {
	room.CurrentTurnID = ""
	room.Phase = models.PhaseVoting

	seconds := s.game.VoteSeconds
	room.RemainingSeconds = &seconds
	code := room.Code
	room.timer = s.timers.Start(code, seconds,
		func(cd *countdown, remaining int) { s.handleTick(code, cd, remaining) },
		func(cd *countdown) { s.handleVoteTimeout(code, cd) })

	s.broadcastSnapshotLocked(room)
}

// SubmitVote 每位玩家一票，投出後不可改。全員投完即刻結算
func (s *RoomService) SubmitVote(code, transportID, targetID string) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Phase != models.PhaseVoting {
		return
	}
	voter := room.findByTransportID(transportID)
	if voter == nil {
		return
	}
	if _, voted := room.Votes[voter.StableID]; voted {
		return
	}
	if room.findByStableID(targetID) == nil {
		return
	}

	room.Votes[voter.StableID] = targetID

	if s.rosterVoteCountLocked(room) >= len(room.Players) {
		s.tallyVotesLocked(room)
		return
	}

	s.broadcastSnapshotLocked(room)
}

// handleVoteTimeout 投票倒數到期，用已有的票直接結算。
// 殘留的舊倒數在把手比對時被擋下
func (s *RoomService) handleVoteTimeout(code string, cd *countdown) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.timer != cd {
		return
	}
	if room.Phase != models.PhaseVoting {
		return
	}

	s.tallyVotesLocked(room)
}

// rosterVoteCountLocked 只計算還在名單上的投票者，
// 避免中途離開的玩家讓投票永遠無法補齊
func (s *RoomService) rosterVoteCountLocked(room *Room) int {
	count := 0
	for _, p := range room.Players {
		if _, voted := room.Votes[p.StableID]; voted {
			count++
		}
	}
	return count
}

// tallyVotesLocked 結算投票：得票最高者出線，同票時取名單順位最低者
// （取代來源實作裡依 map 迭代順序的不確定行為）。抓到臥底時其他人各得一分，
// 沒抓到時臥底得一分。無論結果臥底都有最後猜題的機會
func (s *RoomService) tallyVotesLocked(room *Room) {
	s.timers.Stop(room.Code)
	room.timer = nil
	room.RemainingSeconds = nil

	counts := make(map[string]int)
	for voter, target := range room.Votes {
		if room.findByStableID(voter) == nil {
			continue
		}
		counts[target]++
	}

	// 完全沒人投票只會發生在逾時，補一張隨機票讓結算永遠有結果
	if len(counts) == 0 {
		counts[room.Players[s.randIntn(len(room.Players))].StableID] = 1
	}

	winner := ""
	best := 0
	for _, p := range room.Players {
		if counts[p.StableID] > best {
			best = counts[p.StableID]
			winner = p.StableID
		}
	}
	// 所有票都投給了已離開的玩家時同樣退回隨機
	if winner == "" {
		winner = room.Players[s.randIntn(len(room.Players))].StableID
	}

	if winner == room.LiarID {
		room.VoteOutcome = models.VoteLiarCaught
		for _, p := range room.Players {
			if p.StableID != room.LiarID {
				p.Score++
			}
		}
	} else {
		room.VoteOutcome = models.VoteLiarEscaped
		if liar := room.findByStableID(room.LiarID); liar != nil {
			liar.Score++
		}
	}

	room.Phase = models.PhaseLiarGuess

	if room.Settings.GuessMode == models.GuessCard {
		room.DecoyCards = s.buildDecoyCardsLocked(room)
	}

	// 到這一刻臥底才會收到自己身份的私訊，fool 模式的懸念保留到投票之後
	s.sendLiarNoticeLocked(room)
	s.broadcastSnapshotLocked(room)

	// 臥底已不在名單上（寬限期內被移除），回合直接以未猜中收場
	if room.findByStableID(room.LiarID) == nil {
		room.GuessOutcome = models.GuessWrong
		s.resolveRoundLocked(room)
	}
}

// buildDecoyCardsLocked 產生猜題卡片：同類別最多五個誘餌加上正解，洗勻
func (s *RoomService) buildDecoyCardsLocked(room *Room) []string {
	words := s.catalog.Words(room.Category)
	decoys := make([]string, 0, len(words))
	for _, w := range words {
		if w != room.SolutionWord {
			decoys = append(decoys, w)
		}
	}
	s.randShuffle(len(decoys), func(i, j int) {
		decoys[i], decoys[j] = decoys[j], decoys[i]
	})
	if len(decoys) > 5 {
		decoys = decoys[:5]
	}

	cards := append(decoys, room.SolutionWord)
	s.randShuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

// sendLiarNoticeLocked 投票結算後私下通知臥底猜題
func (s *RoomService) sendLiarNoticeLocked(room *Room) {
	liar := room.findByStableID(room.LiarID)
	if liar == nil || !liar.Connected {
		return
	}

	payload := models.LiarNoticePayload{
		Category:  room.Category,
		GuessMode: room.Settings.GuessMode,
		Cards:     room.DecoyCards,
	}
	message := models.NewMessage(models.MsgLiarNotice, room.Code, payload)
	message.Content = "你是臥底！猜出題目就能得分"
	s.broadcaster.Send(liar.TransportID, message)
}

// recordMatchRound 回合結果落庫，失敗只記 log 不影響遊戲
func (s *RoomService) recordMatchRound(room *Room) {
	if s.matchRepo == nil {
		return
	}

	liarName := room.LiarID
	if liar := room.findByStableID(room.LiarID); liar != nil {
		liarName = liar.Name
	}
	record := &models.MatchRound{
		RoomCode:     room.Code,
		Category:     room.Category,
		Word:         room.SolutionWord,
		LiarName:     liarName,
		GameMode:     string(room.RoundMode),
		VoteOutcome:  room.VoteOutcome,
		GuessCorrect: room.GuessOutcome == models.GuessCorrect,
	}
	if err := s.matchRepo.Create(record); err != nil {
		log.Printf("failed to record match round: %v", err)
	}
}
