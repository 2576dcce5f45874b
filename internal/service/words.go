package service

import (
	"log"
	"sort"

	"liar_game/internal/models"
	"liar_game/internal/repository"
)

// WordCatalog 題庫，唯讀
type WordCatalog interface {
	Categories() []string
	Words(category string) []string
}

// MemoryCatalog 內建題庫，也是資料庫題庫載入後的容器
type MemoryCatalog struct {
	categories []string
	words      map[string][]string
}

func NewMemoryCatalog(words map[string][]string) *MemoryCatalog {
	categories := make([]string, 0, len(words))
	for category := range words {
		categories = append(categories, category)
	}
	// 類別順序固定，隨機挑選才可重現
	sort.Strings(categories)
	return &MemoryCatalog{categories: categories, words: words}
}

func (c *MemoryCatalog) Categories() []string {
	return c.categories
}

func (c *MemoryCatalog) Words(category string) []string {
	return c.words[category]
}

// DefaultCatalog 資料庫沒有題庫時使用的內建題庫
func DefaultCatalog() *MemoryCatalog {
	return NewMemoryCatalog(map[string][]string{
		"movies":  {"Inception", "Titanic", "Parasite", "Interstellar", "The Godfather", "Spirited Away", "Alien", "Casablanca"},
		"animals": {"Elephant", "Penguin", "Octopus", "Kangaroo", "Hedgehog", "Dolphin", "Chameleon", "Owl"},
		"food":    {"Ramen", "Dumpling", "Pizza", "Sushi", "Curry", "Bubble Tea", "Croissant", "Hot Pot"},
		"places":  {"Library", "Airport", "Night Market", "Hospital", "Beach", "Museum", "Subway", "Rooftop"},
	})
}

// LoadCatalog 啟動時從資料庫讀入題庫，失敗或沒有資料時退回內建題庫
func LoadCatalog(repo repository.WordRepository) WordCatalog {
	if repo == nil {
		return DefaultCatalog()
	}
	entries, err := repo.FindAll()
	if err != nil {
		log.Printf("failed to load word catalog: %v", err)
		return DefaultCatalog()
	}
	if len(entries) == 0 {
		return DefaultCatalog()
	}
	return NewMemoryCatalog(groupByCategory(entries))
}

func groupByCategory(entries []models.WordEntry) map[string][]string {
	words := make(map[string][]string)
	for _, entry := range entries {
		words[entry.Category] = append(words[entry.Category], entry.Word)
	}
	return words
}
