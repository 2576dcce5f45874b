package repository

import (
	"liar_game/internal/models"
	"liar_game/internal/storage"
)

type WordRepository interface {
	Create(entry *models.WordEntry) error
	FindAll() ([]models.WordEntry, error)
}

type wordRepository struct {
	db *storage.PostgresDB
}

func NewWordRepository(db *storage.PostgresDB) WordRepository {
	return &wordRepository{db: db}
}

func (r *wordRepository) Create(entry *models.WordEntry) error {
	return r.db.Create(entry).Error
}

// FindAll 讀出整個題庫，啟動時載入一次
func (r *wordRepository) FindAll() ([]models.WordEntry, error) {
	var entries []models.WordEntry
	err := r.db.Order("category asc, word asc").Find(&entries).Error
	return entries, err
}
