package repository

import (
	"liar_game/internal/models"
	"liar_game/internal/storage"
)

type MatchRoundRepository interface {
	Create(round *models.MatchRound) error
	FindByRoomCode(code string) ([]models.MatchRound, error)
}

type matchRoundRepository struct {
	db *storage.PostgresDB
}

func NewMatchRoundRepository(db *storage.PostgresDB) MatchRoundRepository {
	return &matchRoundRepository{db: db}
}

func (r *matchRoundRepository) Create(round *models.MatchRound) error {
	return r.db.Create(round).Error
}

func (r *matchRoundRepository) FindByRoomCode(code string) ([]models.MatchRound, error) {
	var rounds []models.MatchRound
	err := r.db.Where("room_code = ?", code).Order("created_at asc").Find(&rounds).Error
	return rounds, err
}
