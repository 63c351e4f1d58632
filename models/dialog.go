package models

import "time"

// Dialog representa um thread de conversa preso a um modelo e a uma
// configuração. Settings troca de forma junto com Model (nunca parcialmente).
type Dialog struct {
	ID        string     `gorm:"primary_key" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	Title     string     `gorm:"not null" json:"title" form:"title"`
	Model     string     `gorm:"not null" json:"model" form:"model"`
	Settings  Settings   `gorm:"type:text" json:"settings"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
