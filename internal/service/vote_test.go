package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liar_game/internal/models"
)

// startVoting 開局並讓三人都提示完，進入投票階段
func startVoting(t *testing.T, svc *RoomService, room *Room) {
	t.Helper()
	host := currentPlayers(room)[0]
	require.NoError(t, svc.StartRound(room.Code, host.TransportID))
	submitAllHints(t, svc, room)
	require.Equal(t, models.PhaseVoting, roomPhase(room))
}

// A、C 投 B，B 沒投，逾時結算仍以兩票選出 B
func TestVote_TimeoutTallyWithPartialVotes(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)
	startVoting(t, svc, room)
	a, b, c := players[0], players[1], players[2]

	forceLiar(room, b.StableID)

	svc.SubmitVote(room.Code, a.TransportID, b.StableID)
	svc.SubmitVote(room.Code, c.TransportID, b.StableID)
	assert.Equal(t, models.PhaseVoting, roomPhase(room), "還有人沒投票時不結算")

	svc.handleVoteTimeout(room.Code, activeTimer(room))

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, models.VoteLiarCaught, room.VoteOutcome)
	assert.Equal(t, models.PhaseLiarGuess, room.Phase)
	assert.Equal(t, 1, a.Score)
	assert.Equal(t, 1, c.Score)
	assert.Equal(t, 0, b.Score, "被抓到的臥底不得分")
}

func TestVote_FullParticipationTalliesImmediately(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)
	startVoting(t, svc, room)
	a, b, c := players[0], players[1], players[2]

	forceLiar(room, b.StableID)

	// 多數票沒抓到臥底，臥底得一分
	svc.SubmitVote(room.Code, a.TransportID, c.StableID)
	svc.SubmitVote(room.Code, b.TransportID, c.StableID)
	svc.SubmitVote(room.Code, c.TransportID, a.StableID)

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, models.VoteLiarEscaped, room.VoteOutcome)
	assert.Equal(t, models.PhaseLiarGuess, room.Phase)
	assert.Equal(t, 1, b.Score)
	assert.Equal(t, 0, a.Score)
	assert.Equal(t, 0, c.Score)
}

func TestVote_FirstVoteIsFinal(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)
	startVoting(t, svc, room)
	a, b, c := players[0], players[1], players[2]

	svc.SubmitVote(room.Code, a.TransportID, b.StableID)
	svc.SubmitVote(room.Code, a.TransportID, c.StableID) // 改票無效

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, b.StableID, room.Votes[a.StableID])
	assert.Len(t, room.Votes, 1)
}

func TestVote_IgnoredOutsideVotingPhase(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)

	svc.SubmitVote(room.Code, players[0].TransportID, players[1].StableID)
	assert.Empty(t, room.Votes)
}

// 完全沒人投票時補一張隨機票，結算永遠有唯一結果
func TestVote_ZeroVotesTimeoutSynthesizesWinner(t *testing.T) {
	svc, _ := newTestService(5, 60)
	room, _ := setupThree(t, svc)
	startVoting(t, svc, room)

	svc.handleVoteTimeout(room.Code, activeTimer(room))

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Contains(t, []string{models.VoteLiarCaught, models.VoteLiarEscaped}, room.VoteOutcome)
	assert.Equal(t, models.PhaseLiarGuess, room.Phase)
}

// 同票取名單順位最低者
func TestVote_TieBreakLowestRosterIndex(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)
	startVoting(t, svc, room)
	a, b, c := players[0], players[1], players[2]

	// 臥底設為 C：A 和 B 同獲一票，名單順位低的 A 出線，結果是沒抓到
	forceLiar(room, c.StableID)
	svc.SubmitVote(room.Code, a.TransportID, b.StableID)
	svc.SubmitVote(room.Code, b.TransportID, a.StableID)
	svc.handleVoteTimeout(room.Code, activeTimer(room))

	room.mu.Lock()
	defer room.mu.Unlock()
	assert.Equal(t, models.VoteLiarEscaped, room.VoteOutcome)
	assert.Equal(t, 1, c.Score)
}

func TestVote_TimeoutAfterTallyIsNoop(t *testing.T) {
	svc, _ := newTestService(1, 60)
	room, players := setupThree(t, svc)
	startVoting(t, svc, room)
	forceLiar(room, players[1].StableID)

	svc.handleVoteTimeout(room.Code, activeTimer(room))
	scoreBefore := func() int {
		room.mu.Lock()
		defer room.mu.Unlock()
		total := 0
		for _, p := range room.Players {
			total += p.Score
		}
		return total
	}()

	// 同一階段的第二次逾時是 no-op，不會重複計分
	svc.handleVoteTimeout(room.Code, activeTimer(room))

	room.mu.Lock()
	defer room.mu.Unlock()
	total := 0
	for _, p := range room.Players {
		total += p.Score
	}
	assert.Equal(t, scoreBefore, total)
	assert.Equal(t, models.PhaseLiarGuess, room.Phase)
}

// card 模式：最多五個誘餌加正解，全部相異且包含正解
func TestVote_CardModeBuildsDecoys(t *testing.T) {
	svc, fake := newTestService(9, 60)
	room, players := setupThree(t, svc)

	categories := []string{"animals"}
	guessMode := models.GuessCard
	require.NoError(t, svc.UpdateSettings(room.Code, players[0].TransportID,
		&models.SettingsPatch{Categories: &categories, GuessMode: &guessMode}))
	startVoting(t, svc, room)

	svc.handleVoteTimeout(room.Code, activeTimer(room))

	room.mu.Lock()
	cards := append([]string{}, room.DecoyCards...)
	solution := room.SolutionWord
	liarID := room.LiarID
	room.mu.Unlock()

	require.Len(t, cards, 6)
	assert.Contains(t, cards, solution)
	seen := map[string]bool{}
	for _, card := range cards {
		assert.False(t, seen[card], "卡片不得重複")
		seen[card] = true
	}

	// 臥底收到的私訊附帶卡片
	notices := fake.byType(models.MsgLiarNotice)
	require.Len(t, notices, 1)
	var payload models.LiarNoticePayload
	require.NoError(t, jsonUnmarshal(notices[0].Message.Payload, &payload))
	assert.Equal(t, models.GuessCard, payload.GuessMode)
	assert.Len(t, payload.Cards, 6)

	room.mu.Lock()
	liar := room.findByStableID(liarID)
	room.mu.Unlock()
	assert.Equal(t, liar.TransportID, notices[0].TransportID, "臥底私訊只發給臥底本人")
}

// 臥底私訊在投票結算後才送出
func TestVote_LiarNoticeSentOnlyAfterTally(t *testing.T) {
	svc, fake := newTestService(1, 60)
	room, _ := setupThree(t, svc)
	startVoting(t, svc, room)

	assert.Empty(t, fake.byType(models.MsgLiarNotice))
	svc.handleVoteTimeout(room.Code, activeTimer(room))
	assert.Len(t, fake.byType(models.MsgLiarNotice), 1)
}
