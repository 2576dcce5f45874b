package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liar_game/internal/models"
)

// startLiarGuess 把房間推進到臥底猜題階段，臥底固定為 players[1]
func startLiarGuess(t *testing.T, svc *RoomService, room *Room, liar *models.Player) {
	t.Helper()
	startVoting(t, svc, room)
	forceLiar(room, liar.StableID)
	svc.handleVoteTimeout(room.Code, activeTimer(room))
	require.Equal(t, models.PhaseLiarGuess, roomPhase(room))
}

func TestGuess_CorrectIgnoresCaseAndWhitespace(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)
	liar := players[1]
	startLiarGuess(t, svc, room, liar)

	room.mu.Lock()
	solution := room.SolutionWord
	scoreBefore := liar.Score
	room.mu.Unlock()

	svc.SubmitGuess(room.Code, liar.TransportID, "  "+strings.ToUpper(solution)+"  ")

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, models.GuessCorrect, room.GuessOutcome)
	assert.Equal(t, scoreBefore+1, liar.Score)
	assert.Equal(t, models.PhaseRoundOver, room.Phase)
}

func TestGuess_WrongAwardsNothing(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)
	liar := players[1]
	startLiarGuess(t, svc, room, liar)

	room.mu.Lock()
	scoreBefore := liar.Score
	room.mu.Unlock()

	svc.SubmitGuess(room.Code, liar.TransportID, "絕對不是這個")

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, models.GuessWrong, room.GuessOutcome)
	assert.Equal(t, scoreBefore, liar.Score)
	assert.Equal(t, models.PhaseRoundOver, room.Phase)
}

func TestGuess_OnlyLiarMaySubmit(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)
	liar := players[1]
	startLiarGuess(t, svc, room, liar)

	room.mu.Lock()
	solution := room.SolutionWord
	room.mu.Unlock()

	svc.SubmitGuess(room.Code, players[0].TransportID, solution)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, models.PhaseLiarGuess, room.Phase, "非臥底的猜題被忽略")
	assert.Empty(t, room.GuessOutcome)
}

// 回合結算只會發生一次：第二次猜題不會再改分數或結果
func TestGuess_ResolutionIsIdempotent(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)
	liar := players[1]
	startLiarGuess(t, svc, room, liar)

	room.mu.Lock()
	solution := room.SolutionWord
	room.mu.Unlock()

	svc.SubmitGuess(room.Code, liar.TransportID, solution)

	room.mu.Lock()
	scoreAfterFirst := liar.Score
	room.mu.Unlock()

	svc.SubmitGuess(room.Code, liar.TransportID, solution)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, scoreAfterFirst, liar.Score, "同一回合不會重複計分")
	assert.Equal(t, models.PhaseRoundOver, room.Phase)
}

// 有人達到目標分數時整場結束，否則回合結束等房主再開
func TestGuess_TargetScoreFinishesGame(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)

	target := 1
	require.NoError(t, svc.UpdateSettings(room.Code, players[0].TransportID,
		&models.SettingsPatch{TargetScore: &target}))

	liar := players[1]
	startLiarGuess(t, svc, room, liar)
	// 逾時結算抓到臥底，其他人各得一分，已達目標

	svc.SubmitGuess(room.Code, liar.TransportID, "whatever")

	assert.Equal(t, models.PhaseFinished, roomPhase(room))
}

// 回合結束後題目與臥底完整公開
func TestGuess_RoundOverSnapshotRevealsEverything(t *testing.T) {
	svc, fake := newTestService(1, 60)
	room, players := setupThree(t, svc)
	liar := players[1]
	startLiarGuess(t, svc, room, liar)

	room.mu.Lock()
	solution := room.SolutionWord
	room.mu.Unlock()

	svc.SubmitGuess(room.Code, liar.TransportID, solution)

	snapshots := fake.byType(models.MsgRoomSnapshot)
	require.NotEmpty(t, snapshots)
	var snap models.RoomSnapshot
	require.NoError(t, jsonUnmarshal(snapshots[len(snapshots)-1].Message.Payload, &snap))

	assert.Equal(t, models.PhaseRoundOver, snap.Phase)
	assert.Equal(t, solution, snap.SolutionWord)
	assert.Equal(t, liar.StableID, snap.LiarID)
	assert.Equal(t, models.GuessCorrect, snap.GuessOutcome)
}

// roundOver 之後房主可以直接開下一回合
func TestGuess_NextRoundAfterRoundOver(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)
	liar := players[1]
	startLiarGuess(t, svc, room, liar)

	svc.SubmitGuess(room.Code, liar.TransportID, "wrong guess")
	require.Equal(t, models.PhaseRoundOver, roomPhase(room))

	require.NoError(t, svc.StartRound(room.Code, players[0].TransportID))
	assert.Equal(t, models.PhasePlaying, roomPhase(room))

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Empty(t, room.Votes, "回合內的欄位已重置")
	assert.Empty(t, room.Hints)
	assert.Empty(t, room.GuessOutcome)
}

// 臥底在猜題階段被移除，回合以未猜中收場
func TestGuess_LiarRemovalResolvesRound(t *testing.T) {
	svc, _ := newTestService(1, 0)
	room, players := setupThree(t, svc)
	liar := players[1]
	startLiarGuess(t, svc, room, liar)

	svc.LeaveRoom(liar.TransportID)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, models.GuessWrong, room.GuessOutcome)
	assert.Contains(t, []models.Phase{models.PhaseRoundOver, models.PhaseFinished}, room.Phase)
}
