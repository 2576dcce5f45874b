package models

import (
	"gorm.io/gorm"
)

// MatchRound 記錄一個已結束回合的結果，在回合結算時寫入
type MatchRound struct {
	gorm.Model
	RoomCode     string `gorm:"index" json:"room_code"`
	Category     string `json:"category"`
	Word         string `json:"word"`
	LiarName     string `json:"liar_name"`
	GameMode     string `json:"game_mode"`
	VoteOutcome  string `json:"vote_outcome"`  // liar_caught / liar_escaped
	GuessCorrect bool   `json:"guess_correct"` // 臥底最後是否猜中題目
}
