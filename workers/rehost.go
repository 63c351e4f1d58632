package workers

import (
	"context"
	"encoding/base64"
	"log"
	"os"
	"strings"
	"time"

	"messenger/models"
	"messenger/tools"

	"github.com/jinzhu/gorm"
)

// O gateway devolve URLs efêmeras; quando o re-host síncrono falha no envio,
// a URL efêmera fica gravada na mensagem. Este worker varre essas mensagens e
// troca a URL pela versão permanente no image host — a única mutação admitida
// numa Message.

// StartRehostWorker starts a loop that re-hosts assistant images still
// pointing at upstream URLs. Exporte REHOST_DISABLED=1 para desligar (testes).
func StartRehostWorker(db *gorm.DB) {
	if strings.TrimSpace(os.Getenv("REHOST_DISABLED")) == "1" {
		return
	}

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			rehostPending(db)
		}
	}()
}

func rehostPending(db *gorm.DB) {
	var messages []models.Message
	if err := db.
		Where("role = ? AND image != ''", models.MESSAGE_ROLE_ASSISTANT).
		Order("created_at asc").
		Limit(20).
		Find(&messages).Error; err != nil {
		log.Printf("rehost worker: query error: %v", err)
		return
	}

	for _, msg := range messages {
		if tools.IsHostedURL(msg.Image) {
			continue
		}
		rehostMessage(db, msg)
	}
}

func rehostMessage(db *gorm.DB, msg models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	data, err := tools.FetchImage(ctx, msg.Image)
	if err != nil {
		// URL efêmera pode já ter expirado; não há o que recuperar
		log.Printf("rehost worker: fetch error (message %s): %v", msg.ID, err)
		return
	}

	url, err := tools.UploadImage(ctx, base64.StdEncoding.EncodeToString(data))
	if err != nil {
		log.Printf("rehost worker: upload error (message %s): %v", msg.ID, err)
		return
	}

	if err := db.Model(&models.Message{}).
		Where("id = ? AND image = ?", msg.ID, msg.Image).
		Update("image", url).Error; err != nil {
		log.Printf("rehost worker: update error (message %s): %v", msg.ID, err)
		return
	}

	log.Printf("rehost worker: message %s re-hosted", msg.ID)
}
