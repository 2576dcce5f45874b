package repository

import "liar_game/internal/storage"

type Repositories struct {
	User       UserRepository
	Word       WordRepository
	MatchRound MatchRoundRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Word:       NewWordRepository(db),
		MatchRound: NewMatchRoundRepository(db),
	}
}
