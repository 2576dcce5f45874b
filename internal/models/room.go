package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Phase 定義房間狀態的類型
type Phase string

const (
	PhaseWaiting   Phase = "waiting"   // 等待玩家加入
	PhasePlaying   Phase = "playing"   // 提示階段，輪流給提示
	PhaseVoting    Phase = "voting"    // 投票指認臥底
	PhaseLiarGuess Phase = "liarGuess" // 臥底猜題階段
	PhaseRoundOver Phase = "roundOver" // 回合結束，等待房主開始下一回合
	PhaseFinished  Phase = "finished"  // 有玩家達到目標分數，遊戲結束
)

// GameMode 遊戲模式
type GameMode string

const (
	ModeNormal GameMode = "normal" // 臥底知道自己是臥底，沒有詞
	ModeFool   GameMode = "fool"   // 臥底拿到另一個詞，不知道自己是臥底
)

// GuessMode 臥底猜題的方式
type GuessMode string

const (
	GuessText GuessMode = "text" // 自由輸入
	GuessCard GuessMode = "card" // 從誘餌卡片中選擇
)

// HintMode 提示的形式
type HintMode string

const (
	HintByText    HintMode = "text"
	HintByDrawing HintMode = "drawing"
)

// Settings 房間設定，只有房主在等待階段可以修改
type Settings struct {
	Categories  []string  `json:"categories"`
	TargetScore int       `json:"target_score"`
	GameMode    GameMode  `json:"game_mode"`
	GuessMode   GuessMode `json:"guess_mode"`
	HintMode    HintMode  `json:"hint_mode"`
}

// DefaultSettings 建立新房間時的預設設定
func DefaultSettings(categories []string) Settings {
	return Settings{
		Categories:  categories,
		TargetScore: 3,
		GameMode:    ModeNormal,
		GuessMode:   GuessText,
		HintMode:    HintByText,
	}
}

// SettingsPatch 局部更新，只合併有提供的欄位
type SettingsPatch struct {
	Categories  *[]string  `json:"categories"`
	TargetScore *int       `json:"target_score"`
	GameMode    *GameMode  `json:"game_mode"`
	GuessMode   *GuessMode `json:"guess_mode"`
	HintMode    *HintMode  `json:"hint_mode"`
}

// ParseSettingsPatch 解析設定更新，未知欄位一律拒絕
func ParseSettingsPatch(data []byte) (*SettingsPatch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var patch SettingsPatch
	if err := dec.Decode(&patch); err != nil {
		return nil, errors.New("無法解析的設定欄位")
	}
	return &patch, nil
}

// Apply 將局部更新合併進設定，逐欄位驗證
func (s *Settings) Apply(patch *SettingsPatch) error {
	if patch.Categories != nil {
		if len(*patch.Categories) == 0 {
			return errors.New("至少需要選擇一個類別")
		}
		s.Categories = *patch.Categories
	}
	if patch.TargetScore != nil {
		if *patch.TargetScore < 1 {
			return errors.New("目標分數至少為 1")
		}
		s.TargetScore = *patch.TargetScore
	}
	if patch.GameMode != nil {
		if *patch.GameMode != ModeNormal && *patch.GameMode != ModeFool {
			return errors.New("無效的遊戲模式")
		}
		s.GameMode = *patch.GameMode
	}
	if patch.GuessMode != nil {
		if *patch.GuessMode != GuessText && *patch.GuessMode != GuessCard {
			return errors.New("無效的猜題模式")
		}
		s.GuessMode = *patch.GuessMode
	}
	if patch.HintMode != nil {
		if *patch.HintMode != HintByText && *patch.HintMode != HintByDrawing {
			return errors.New("無效的提示模式")
		}
		s.HintMode = *patch.HintMode
	}
	return nil
}

// Player 房間中的一位玩家。StableID 在玩家的整個生命週期內不變，
// TransportID 每次重連都會換新
type Player struct {
	StableID    string `json:"id"`
	TransportID string `json:"-"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Connected   bool   `json:"connected"`
}

// HintKind 提示內容的種類
type HintKind string

const (
	HintText    HintKind = "text"
	HintDrawing HintKind = "drawing"
)

// Hint 一則提示，提交後不可變更。Kind 決定哪個內容欄位有效
type Hint struct {
	AuthorID string   `json:"author_id"`
	Kind     HintKind `json:"kind"`
	Text     string   `json:"text,omitempty"`
	Drawing  []byte   `json:"drawing,omitempty"`
}

func NewTextHint(authorID, text string) Hint {
	return Hint{AuthorID: authorID, Kind: HintText, Text: text}
}

func NewDrawingHint(authorID string, data []byte) Hint {
	return Hint{AuthorID: authorID, Kind: HintDrawing, Drawing: data}
}

// EmptyHint 逾時未提交時代為記錄的空提示
func EmptyHint(authorID string) Hint {
	return Hint{AuthorID: authorID, Kind: HintText}
}

// IsEmpty 表示這則提示是逾時補上的空提示
func (h Hint) IsEmpty() bool {
	return h.Text == "" && len(h.Drawing) == 0
}

// 投票與猜題的結果
const (
	VoteLiarCaught  = "liar_caught"
	VoteLiarEscaped = "liar_escaped"
	GuessCorrect    = "correct"
	GuessWrong      = "wrong"
)

// PlayerView 玩家的公開資訊
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
	IsHost    bool   `json:"is_host"`
}

// RoomSnapshot 廣播給所有房間成員的完整房間狀態。
// 回合尚未揭曉的秘密欄位（臥底、題目）不會出現在快照中
type RoomSnapshot struct {
	Code             string            `json:"code"`
	Phase            Phase             `json:"phase"`
	Settings         Settings          `json:"settings"`
	Players          []PlayerView      `json:"players"`
	HostID           string            `json:"host_id"`
	Category         string            `json:"category,omitempty"`
	CurrentTurnID    string            `json:"current_turn_id,omitempty"`
	Hints            []Hint            `json:"hints"`
	VotedIDs         []string          `json:"voted_ids,omitempty"`
	Votes            map[string]string `json:"votes,omitempty"`
	VoteOutcome      string            `json:"vote_outcome,omitempty"`
	LiarID           string            `json:"liar_id,omitempty"`
	DecoyCards       []string          `json:"decoy_cards,omitempty"`
	GuessOutcome     string            `json:"guess_outcome,omitempty"`
	SolutionWord     string            `json:"solution_word,omitempty"`
	RemainingSeconds *int              `json:"remaining_seconds"`
}
