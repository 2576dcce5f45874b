package service

import (
	"strings"

	"liar_game/internal/models"
)

// SubmitGuess 臥底的最後猜題，只接受臥底當前綁定的連線。
// 比對時忽略大小寫與前後空白，fool 模式也是對正解比對，
// 不是臥底自己看到的那個詞
func (s *RoomService) SubmitGuess(code, transportID, guess string) {
	room, ok := s.registry.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.Phase != models.PhaseLiarGuess {
		return
	}
	player := room.findByTransportID(transportID)
	if player == nil || player.StableID != room.LiarID {
		return
	}

	if guessMatches(guess, room.SolutionWord) {
		room.GuessOutcome = models.GuessCorrect
		player.Score++
	} else {
		room.GuessOutcome = models.GuessWrong
	}

	s.resolveRoundLocked(room)
}

func guessMatches(guess, solution string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(solution))
}

// resolveRoundLocked 回合收尾：有人達標就整場結束，否則等房主開下一回合。
// 呼叫前必須處於 liarGuess 階段，離開該階段後重入即是 no-op，
// 同一回合的分數不會被重複結算
func (s *RoomService) resolveRoundLocked(room *Room) {
	if room.Phase != models.PhaseLiarGuess {
		return
	}

	s.timers.Stop(room.Code)
	room.timer = nil
	room.RemainingSeconds = nil
	room.CurrentTurnID = ""

	room.Phase = models.PhaseRoundOver
	for _, p := range room.Players {
		if p.Score >= room.Settings.TargetScore {
			room.Phase = models.PhaseFinished
			break
		}
	}

	s.recordMatchRound(room)
	s.broadcastSnapshotLocked(room)
}
