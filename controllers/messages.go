package controllers

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"messenger/models"
	"messenger/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
)

type SendMessageRequest struct {
	Content string   `json:"content" form:"content"`
	Images  []string `json:"images"`
}

// sendsInFlight guards one outstanding send per dialog. It is the only
// concurrency control in the system: two processes (or two tabs hitting two
// replicas) can still race, last write wins.
var sendsInFlight sync.Map

// GET /api/dialogs/:id/messages
func GetMessages(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	db, ok := requireDB(c)
	if !ok {
		return
	}
	dialog, ok := dialogForUser(c, db, user)
	if !ok {
		return
	}

	var messages []models.Message
	if err := db.Where("dialog_id = ?", dialog.ID).Order("created_at asc").Find(&messages).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{"messages": messages})
}

// POST /api/dialogs/:id/messages
// Protocolo de envio: persiste a mensagem do usuário antes de falar com o
// gateway (sem rollback), monta o histórico conforme a família do model,
// resolve a imagem do assistente para uma URL permanente e persiste a
// resposta.
func SendMessage(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	db, ok := requireDB(c)
	if !ok {
		return
	}
	dialog, ok := dialogForUser(c, db, user)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.Images) == 0 {
		RespondError(c, "content ou images é obrigatório", http.StatusBadRequest)
		return
	}

	if _, busy := sendsInFlight.LoadOrStore(dialog.ID, struct{}{}); busy {
		RespondError(c, "já existe um envio em andamento para este diálogo", http.StatusConflict)
		return
	}
	defer sendsInFlight.Delete(dialog.ID)

	// histórico antes do turno novo
	var history []models.Message
	if err := db.Where("dialog_id = ?", dialog.ID).Order("created_at asc").Find(&history).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	userMsg := models.Message{
		ID:       uuid.NewString(),
		DialogID: dialog.ID,
		Role:     models.MESSAGE_ROLE_USER,
		Content:  req.Content,
		Images:   req.Images,
	}
	if err := db.Create(&userMsg).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	touchDialog(db, dialog.ID)

	kind, _ := models.KindOfModel(dialog.Model)
	ctx := c.Request.Context()

	assistantMsg := models.Message{
		ID:       uuid.NewString(),
		DialogID: dialog.ID,
		Role:     models.MESSAGE_ROLE_ASSISTANT,
	}

	switch kind {
	case models.MODEL_KIND_IMAGE:
		result, err := dispatchImage(ctx, dialog, content, req.Images)
		if err != nil {
			// a mensagem do usuário fica persistida mesmo assim
			RespondUpstreamError(c, "AI request failed", err)
			return
		}
		assistantMsg.Image = resolveImageURL(ctx, result)

	case models.MODEL_KIND_VISION:
		reply, err := tools.ChatCompletion(ctx, dialog.Model, visionHistory(history, content, req.Images), dialog.Settings.Temperature)
		if err != nil {
			RespondUpstreamError(c, "AI vision request failed", err)
			return
		}
		assistantMsg.Content = reply

	case models.MODEL_KIND_TEXT:
		reply, err := tools.ChatCompletion(ctx, dialog.Model, textHistory(history, content), dialog.Settings.Temperature)
		if err != nil {
			RespondUpstreamError(c, "AI request failed", err)
			return
		}
		assistantMsg.Content = reply
	}

	if err := db.Create(&assistantMsg).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	touchDialog(db, dialog.ID)

	RespondSuccess(c, gin.H{"message": userMsg, "reply": assistantMsg})
}

// dispatchImage: com referências vira edit multipart, sem vira generation.
func dispatchImage(ctx context.Context, dialog models.Dialog, prompt string, images []string) (tools.ImageResult, error) {
	fields := dialog.Settings.Fields(models.MODEL_KIND_IMAGE)

	if len(images) > 0 {
		refs := make([][]byte, 0, len(images))
		for _, u := range images {
			data, err := tools.FetchImage(ctx, u)
			if err != nil {
				return tools.ImageResult{}, err
			}
			refs = append(refs, data)
		}
		return tools.EditImage(ctx, dialog.Model, prompt, fields, refs)
	}

	return tools.GenerateImage(ctx, dialog.Model, prompt, fields)
}

// resolveImageURL leva o resultado do gateway para o image host. Se o re-host
// falhar, mantém a URL efêmera do gateway — o worker de re-host corrige
// depois.
func resolveImageURL(ctx context.Context, result tools.ImageResult) string {
	if result.B64JSON != "" {
		url, err := tools.UploadImage(ctx, result.B64JSON)
		if err != nil {
			log.Printf("send: image host upload error: %v", err)
			return ""
		}
		return url
	}

	if result.URL != "" {
		data, err := tools.FetchImage(ctx, result.URL)
		if err != nil {
			log.Printf("send: fetch gateway image error: %v", err)
			return result.URL
		}
		url, err := tools.UploadImage(ctx, base64.StdEncoding.EncodeToString(data))
		if err != nil {
			log.Printf("send: image host upload error: %v", err)
			return result.URL
		}
		return url
	}

	return ""
}

// visionHistory reescreve cada turno como array de partes texto/imagem.
func visionHistory(history []models.Message, content string, images []string) []tools.ChatMessage {
	out := make([]tools.ChatMessage, 0, len(history)+1)
	for _, m := range history {
		out = append(out, tools.ChatMessage{Role: m.Role, Content: contentParts(m.Content, m.Images)})
	}
	out = append(out, tools.ChatMessage{Role: models.MESSAGE_ROLE_USER, Content: contentParts(content, images)})
	return out
}

func contentParts(text string, images []string) []tools.ContentPart {
	parts := []tools.ContentPart{}
	if strings.TrimSpace(text) != "" {
		parts = append(parts, tools.ContentPart{Type: "text", Text: text})
	}
	for _, url := range images {
		parts = append(parts, tools.ContentPart{Type: "image_url", ImageURL: &tools.ImageURL{URL: url}})
	}
	return parts
}

// textHistory manda só texto; URLs de imagens antigas não viram conteúdo
// estruturado para models sem vision.
func textHistory(history []models.Message, content string) []tools.ChatMessage {
	out := make([]tools.ChatMessage, 0, len(history)+1)
	for _, m := range history {
		out = append(out, tools.ChatMessage{Role: m.Role, Content: m.Content})
	}
	out = append(out, tools.ChatMessage{Role: models.MESSAGE_ROLE_USER, Content: content})
	return out
}

// touchDialog bumps updated_at para a listagem reordenar. Falha só loga: o
// envio não pode morrer por causa do preview.
func touchDialog(db *gorm.DB, id string) {
	now := time.Now()
	if err := db.Model(&models.Dialog{}).Where("id = ?", id).Update("updated_at", &now).Error; err != nil {
		log.Printf("send: touch dialog error: %v", err)
	}
}
