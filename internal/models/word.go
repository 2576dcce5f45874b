package models

import (
	"gorm.io/gorm"
)

// WordEntry 題庫中的一個詞，依類別分組
type WordEntry struct {
	gorm.Model
	Category string `gorm:"index;not null" json:"category"`
	Word     string `gorm:"not null" json:"word"`
}
