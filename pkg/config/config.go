package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Game   GameConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

// GameConfig 遊戲相關的時間設定（秒）
type GameConfig struct {
	HintSeconds  int // 每位玩家提示階段的倒數時間
	VoteSeconds  int // 投票階段的倒數時間
	GraceSeconds int // 斷線後保留玩家資格的寬限時間
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	// 設定預設值，讓沒有設定檔時也能直接啟動
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.user", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.name", "liar_game")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("game.hintseconds", 30)
	viper.SetDefault("game.voteseconds", 30)
	viper.SetDefault("game.graceseconds", 15)

	if err := viper.ReadInConfig(); err != nil {
		// 找不到設定檔時使用預設值，其他錯誤照常回報
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
