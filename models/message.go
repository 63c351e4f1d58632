package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const MESSAGE_ROLE_USER = "user"
const MESSAGE_ROLE_ASSISTANT = "assistant"

// Message é imutável depois de criada; a única exceção é o worker de re-host,
// que troca uma URL efêmera do gateway pela URL permanente do image host.
type Message struct {
	ID        string     `gorm:"primary_key" json:"id"`
	DialogID  string     `gorm:"not null;index" json:"dialog_id"`
	Role      string     `gorm:"not null" json:"role"`
	Content   string     `gorm:"type:text" json:"content"`
	Images    StringList `gorm:"type:text" json:"images,omitempty"`
	Image     string     `json:"image,omitempty"`
	CreatedAt *time.Time `json:"created_at"`
}

// StringList is a []string stored as a JSON text column, the same trick the
// store uses for Settings.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		if v == "" {
			*l = nil
			return nil
		}
		return json.Unmarshal([]byte(v), l)
	case []byte:
		if len(v) == 0 {
			*l = nil
			return nil
		}
		return json.Unmarshal(v, l)
	}
	return fmt.Errorf("string list: unsupported column type %T", src)
}
